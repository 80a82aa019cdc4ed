package main

// Exit codes shared by all subcommands.
const (
	ExitSuccess           = 0 // Success
	ExitError             = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError       = 2 // Configuration error (missing credentials, bad paths)
	ExitDataError         = 3 // Data error (malformed input, validation failure)
	ExitOllamaUnavailable = 4 // Embedding service not reachable
	ExitModelNotFound     = 5 // Embedding model not pulled
)
