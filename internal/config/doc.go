// Package config loads the shelf client configuration.
//
// # Resolution
//
// Load reads, in order:
//
//  1. The path given on the command line (--config), if any
//  2. $SHELF_CONFIG, if set
//  3. ~/.config/shelf/config.toml
//
// A missing file is not an error; every field has a default. Empty or
// whitespace-only values also fall back to their defaults.
//
// After the file, two environment variables override it: SHELF_API_URL and
// SHELF_LOG_LEVEL. The cli package loads a .env file from the working
// directory before Load runs, so both can live there too.
//
// # Fields
//
//	api_url          = "http://localhost:8080/api"
//	files_url        = ""        # defaults to api_url; files live under <files_url>/files/
//	credentials_path = "~/.config/shelf/credentials.toml"
//	log_file         = "~/.local/state/shelf/shelf.log"
//	log_level        = "info"    # any logrus level name
//	timeout_seconds  = 30
//
// Paths are trimmed and tilde-expanded, then made absolute. URLs lose any
// trailing slash.
//
// # Errors
//
// Load fails when the home directory cannot be resolved, when the file exists
// but cannot be read, when the TOML does not parse, or when log_level is not a
// level name. Parse failures mention "parse config".
package config
