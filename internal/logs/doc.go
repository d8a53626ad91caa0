// Package logs reads and follows lyricsmith log files: the service log in
// log_dir and each run's pipeline.log.
package logs
