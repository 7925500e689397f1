package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/theoremus-urban-solutions/departure-delta/config"
	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Mode selects a pipeline variant.
type Mode string

const (
	ModeDelta    Mode = "delta"
	ModeGap      Mode = "gap"
	ModePresence Mode = "presence"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeDelta, ModeGap, ModePresence:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want delta, gap or presence)", s)
	}
}

// DefaultCheckFields are the auxiliary fields compared in delta and gap mode.
var DefaultCheckFields = []string{record.FieldGenerated, record.FieldPredictedDeparture}

// Config parameterizes Run. Tolerances are seconds.
type Config struct {
	Mode               Mode
	PrimaryTolerance   int64
	SecondaryTolerance int64
	WideTolerance      int64
	// CheckFields defaults to DefaultCheckFields. Ignored in presence mode.
	CheckFields []string
	GroupBy     string
	Location    *time.Location
	Workers     int
	Logger      *slog.Logger
}

// FromAppConfig derives a pipeline configuration from the loaded settings.
func FromAppConfig(app config.AppConfig) (Config, error) {
	mode, err := ParseMode(app.Mode)
	if err != nil {
		return Config{}, err
	}
	loc, err := instant.LoadZone(app.Timezone)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Mode:               mode,
		PrimaryTolerance:   app.Tolerance.Primary,
		SecondaryTolerance: app.Tolerance.Secondary,
		WideTolerance:      app.Tolerance.Wide,
		GroupBy:            app.GroupBy,
		Location:           loc,
		Workers:            app.Workers,
	}, nil
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeDelta
	}
	if c.CheckFields == nil {
		c.CheckFields = DefaultCheckFields
	}
	if c.GroupBy == "" {
		c.GroupBy = record.AttrTripID
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
