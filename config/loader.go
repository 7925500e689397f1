package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. DELTA_MODE or
// DELTA_TOLERANCE_PRIMARY.
const EnvPrefix = "DELTA"

// Error codes.
const (
	CodeNotFound = "config_not_found"
	CodeInvalid  = "config_invalid"
)

// Error is returned by Load.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// DefaultPaths are searched when no explicit path is given.
var DefaultPaths = []string{"config.yml", "config.yaml"}

// Load builds the configuration. An explicit path must exist; without one the
// DefaultPaths are tried and defaults are used when none is found. envFiles
// are loaded with godotenv before environment overrides are applied; when
// none are given a .env in the working directory is loaded if present.
func Load(path string, envFiles ...string) (*AppConfig, error) {
	cfg := Default()

	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, &Error{Code: CodeInvalid, Message: "failed to parse config file", Err: err}
		}
	}

	if err := godotenv.Load(envFiles...); err != nil && (len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist)) {
		return nil, &Error{Code: CodeInvalid, Message: "failed to load env file", Err: err}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, &Error{Code: CodeInvalid, Message: "failed to process environment configuration", Err: err}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Code: CodeNotFound, Message: "config file " + path + " not found", Err: err}
		}
		if err != nil {
			return nil, &Error{Code: CodeInvalid, Message: "failed to read config file", Err: err}
		}
		return data, nil
	}
	for _, p := range DefaultPaths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
	}
	return nil, nil
}

// Validate checks struct tags. Callers that override fields after Load should
// validate again.
func Validate(cfg *AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return &Error{Code: CodeInvalid, Message: "configuration validation failed", Err: err}
	}
	return nil
}
