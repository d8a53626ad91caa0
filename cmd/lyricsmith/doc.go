// Command lyricsmith separates vocals from a song, transcribes and translates
// the lyrics, and serves the results over HTTP.
//
// Subcommands:
//
//	process <file>   run the pipeline once and print the result
//	serve            start the HTTP API
//	watch            process files dropped into the inbox directory
//	runs             list, show, or remove recorded runs
//	status           run preflight checks
//	logs [run-id]    show or follow log output
//	test-notify      send a test ntfy notification
//	config           create or inspect the configuration file
package main
