// Package config loads the client configuration.
//
// The file lives at ~/.config/multiverse/config.toml unless a path is given.
// A missing file is not an error: every key has a default, and keys absent
// from an existing file keep theirs.
//
//	server = "http://127.0.0.1:8080"
//	log_level = "info"
//	log_file = "~/.local/state/multiverse/multiverse.log"
//	metrics_addr = ""
//
//	[universe]
//	size = 50              # 20 or 50
//
//	[palette]
//	strategy = "general"   # general, bright-band or palette
//	luminance_min = 0.1
//	luminance_max = 0.9
//	min_distance = 100.0    # must be > 0
//	max_attempts = 10000
//
//	[connection]
//	reconnect_delay = "1s"
//
//	[editor]
//	multi = false
//
// Paths starting with ~ are expanded to the home directory. Values are
// checked with go-playground/validator and errors name the offending TOML
// key.
package config
