package config

import "time"

// ToleranceConfig holds the matching windows in seconds.
type ToleranceConfig struct {
	Primary   int64 `yaml:"primary" envconfig:"PRIMARY" validate:"gte=0"`
	Secondary int64 `yaml:"secondary" envconfig:"SECONDARY" validate:"gte=0"`
	// Wide is the attribute-blind window used to spot minor deviations.
	Wide int64 `yaml:"wide" envconfig:"WIDE" validate:"gte=0,gtefield=Primary"`
}

// InputConfig controls how feeds are read.
type InputConfig struct {
	PredictionFormat string   `yaml:"predictionFormat" envconfig:"PREDICTION_FORMAT" validate:"omitempty,oneof=prediction-csv reference-tsv gtfsrt siri-et"`
	ReferenceFormat  string   `yaml:"referenceFormat" envconfig:"REFERENCE_FORMAT" validate:"omitempty,oneof=prediction-csv reference-tsv gtfsrt siri-et"`
	StopID           string   `yaml:"stopID" envconfig:"STOP_ID"`
	Layouts          []string `yaml:"layouts" envconfig:"LAYOUTS"`
	Dedup            bool     `yaml:"dedup" envconfig:"DEDUP"`
	RequireAuxiliary bool     `yaml:"requireAuxiliary" envconfig:"REQUIRE_AUXILIARY"`
	UTF8             bool     `yaml:"utf8" envconfig:"UTF8"`
}

// OutputConfig controls where and what the report writer emits.
type OutputConfig struct {
	Dir      string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Manifest bool   `yaml:"manifest" envconfig:"MANIFEST"`
	Metrics  bool   `yaml:"metrics" envconfig:"METRICS"`
}

// RetrieverConfig configures the hourly prediction analyzer download.
type RetrieverConfig struct {
	BaseURL    string        `yaml:"baseURL" envconfig:"BASE_URL" validate:"omitempty,url"`
	StopID     string        `yaml:"stopID" envconfig:"STOP_ID"`
	MaxRetries int           `yaml:"maxRetries" envconfig:"MAX_RETRIES" validate:"gte=1"`
	RetryDelay time.Duration `yaml:"retryDelay" envconfig:"RETRY_DELAY" validate:"gte=0"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Mode     string `yaml:"mode" envconfig:"MODE" validate:"oneof=delta gap presence"`
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE" validate:"required"`
	GroupBy  string `yaml:"groupBy" envconfig:"GROUP_BY" validate:"required"`
	Workers  int    `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
	LogLevel string `yaml:"logLevel" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	Tolerance ToleranceConfig `yaml:"tolerance"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Retriever RetrieverConfig `yaml:"retriever"`
}

// Default returns the driver defaults.
func Default() AppConfig {
	return AppConfig{
		Mode:     "delta",
		Timezone: "America/New_York",
		GroupBy:  "trip_id",
		Workers:  1,
		LogLevel: "info",
		Tolerance: ToleranceConfig{
			Primary:   15,
			Secondary: 60,
			Wide:      60,
		},
		Input: InputConfig{
			RequireAuxiliary: true,
		},
		Output: OutputConfig{
			Dir:      ".",
			Manifest: true,
			Metrics:  true,
		},
		Retriever: RetrieverConfig{
			BaseURL:    "http://prediction-analyzer-dev.mbtace.com/predictions",
			MaxRetries: 20,
			RetryDelay: time.Second,
			Timeout:    30 * time.Second,
		},
	}
}
