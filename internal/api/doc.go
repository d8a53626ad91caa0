// Package api serves the lyricsmith HTTP interface.
//
// Endpoints:
//
//	GET  /health                     liveness and run capacity
//	POST /api/process                multipart "file" plus repeated "target_language"
//	GET  /api/runs                   recent runs, newest first (?limit=N)
//	GET  /api/runs/{id}              one run with its result bundle
//	GET  /api/download/{id}/{name}   an artifact from a run directory
//
// When a token is configured every endpoint except /health requires
// "Authorization: Bearer <token>". Concurrent pipeline runs are bounded; a
// request arriving when every slot is busy gets 503. Failures are reported
// as {success:false, error, message} built from the classified error, never
// from raw provider output.
//
// DTOs use snake_case JSON tags matching result.json. Timestamps use RFC3339
// with milliseconds.
package api
