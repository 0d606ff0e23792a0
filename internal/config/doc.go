// Package config loads facenav configuration.
//
// Sources, lowest priority first: built-in defaults, a YAML or TOML file,
// a .env file plus FACENAV_* environment variables, then command line flags
// applied by the caller. Durations in files are strings such as "800ms".
package config
