// Package config handles configuration loading and validation.
//
// Values are layered: built-in defaults, then config.yml, then a .env file,
// then DELTA_* environment variables. Command-line flags are applied last by
// the caller. The result is validated using struct tags.
package config
