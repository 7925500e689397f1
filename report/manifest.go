package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/departure-delta/aggregate"
	"github.com/theoremus-urban-solutions/departure-delta/matcher"
	"github.com/theoremus-urban-solutions/departure-delta/pipeline"
)

// Manifest describes one committed run.
type Manifest struct {
	RunID          string             `json:"run_id"`
	CreatedAt      time.Time          `json:"created_at"`
	Mode           string             `json:"mode"`
	Inputs         map[string]string  `json:"inputs,omitempty"`
	Tolerances     Tolerances         `json:"tolerances"`
	Counts         matcher.Counts     `json:"counts"`
	FalsePositives *matcher.Counts    `json:"false_positives,omitempty"`
	OtherOnly      int                `json:"other_only"`
	Stats          aggregate.RunStats `json:"stats"`
	Files          []string           `json:"files"`
}

type Tolerances struct {
	Primary   int64 `json:"primary"`
	Secondary int64 `json:"secondary"`
	Wide      int64 `json:"wide"`
}

// NewManifest describes res. files lists the other files of the run.
func NewManifest(res *pipeline.Result, inputs map[string]string, files []string, now time.Time) Manifest {
	m := Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: now.UTC(),
		Mode:      string(res.Mode),
		Inputs:    inputs,
		Tolerances: Tolerances{
			Primary:   res.Config.PrimaryTolerance,
			Secondary: res.Config.SecondaryTolerance,
			Wide:      res.Config.WideTolerance,
		},
		Counts:    res.Counts,
		OtherOnly: len(res.OtherOnly),
		Stats:     res.Stats,
		Files:     files,
	}
	if res.Mode == pipeline.ModePresence {
		fp := res.FalsePositives
		m.FalsePositives = &fp
	}
	return m
}

func (m Manifest) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
