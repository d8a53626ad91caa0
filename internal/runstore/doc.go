// Package runstore persists pipeline run history in a SQLite database.
//
// Each run is one row keyed by its uuid. The schema is embedded and guarded by
// a version table; a mismatch is reported rather than migrated.
package runstore
