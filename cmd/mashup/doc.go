// Package main hosts the mashup CLI entrypoint and command graph.
//
// Invoked with four positional arguments the root command builds one mashup
// locally: mashup <SingerName> <NumberOfVideos> <AudioDuration> <OutputFileName>.
// Subcommands run the HTTP server, scaffold and validate configuration, report
// dependency status, list job history, read the log file, and tidy abandoned
// work areas. Heavy lifting lives in the internal packages; commands here only
// wire and render.
package main
