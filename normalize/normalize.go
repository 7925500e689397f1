package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/departure-delta/instant"
	"github.com/theoremus-urban-solutions/departure-delta/record"
)

// Stats reports what a reader did with its input.
type Stats struct {
	Read       int `json:"read"`
	Kept       int `json:"kept"`
	Dropped    int `json:"dropped"`
	Duplicates int `json:"duplicates"`
}

// Format names an input encoding.
type Format string

const (
	FormatPredictionCSV Format = "prediction-csv"
	FormatReferenceTSV  Format = "reference-tsv"
	FormatGTFSRT        Format = "gtfsrt"
	FormatSIRIET        Format = "siri-et"
)

// ParseFormat validates a configured format name. The empty string means
// "detect from the file name".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatPredictionCSV, FormatReferenceTSV, FormatGTFSRT, FormatSIRIET:
		return f, nil
	default:
		return "", fmt.Errorf("unknown input format %q", s)
	}
}

// Detect picks a format from a file name or URL, ignoring a trailing
// compression suffix. Unknown extensions fall back to the prediction CSV.
func Detect(name string) Format {
	name = strings.ToLower(name)
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	for _, suffix := range []string{".gz", ".zst"} {
		name = strings.TrimSuffix(name, suffix)
	}
	switch filepath.Ext(name) {
	case ".tsv", ".txt":
		return FormatReferenceTSV
	case ".pb", ".pbf", ".bin":
		return FormatGTFSRT
	case ".json":
		return FormatSIRIET
	default:
		return FormatPredictionCSV
	}
}

// Options carries the settings shared by every reader. Read maps them onto
// the reader-specific options.
type Options struct {
	Source           record.Source
	Location         *time.Location
	Layouts          []string
	Overlap          instant.Overlap
	StopID           string
	Dedup            bool
	RequireAuxiliary bool
	UTF8             bool
	Logger           *slog.Logger
}

// Read dispatches to the reader for format.
func Read(r io.Reader, format Format, opts Options) ([]record.Record, Stats, error) {
	switch format {
	case FormatReferenceTSV:
		return ReadReferenceTSV(r, ReferenceOptions{
			Columns:          DefaultReferenceColumns(),
			Location:         opts.Location,
			Layouts:          opts.Layouts,
			Overlap:          opts.Overlap,
			RequireAuxiliary: opts.RequireAuxiliary,
			UTF8:             opts.UTF8,
			Source:           opts.Source,
			Logger:           opts.Logger,
		})
	case FormatGTFSRT:
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read gtfs-rt feed: %w", err)
		}
		return ReadGTFSRT(b, GTFSRTOptions{StopID: opts.StopID, Source: opts.Source, Logger: opts.Logger})
	case FormatSIRIET:
		return ReadSIRIET(r, SIRIOptions{StopID: opts.StopID, Source: opts.Source, Logger: opts.Logger})
	case FormatPredictionCSV, "":
		return ReadPredictionCSV(r, PredictionOptions{
			Columns: DefaultPredictionColumns(),
			Dedup:   opts.Dedup,
			Source:  opts.Source,
			Logger:  opts.Logger,
		})
	default:
		return nil, Stats{}, fmt.Errorf("unknown input format %q", format)
	}
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", "normalize")
}

// header maps trimmed column names to positions.
type header map[string]int

func readHeader(cr *csv.Reader) (header, error) {
	row, err := cr.Read()
	if err != nil {
		return nil, err
	}
	h := make(header, len(row))
	for i, name := range row {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h, nil
}

// field returns the trimmed value of column name, and whether the column
// exists at all.
func (h header) field(row []string, name string) (string, bool) {
	i, ok := h[name]
	if !ok || name == "" {
		return "", false
	}
	if i >= len(row) {
		return "", true
	}
	return strings.TrimSpace(row[i]), true
}

func (h header) has(name string) bool {
	_, ok := h[name]
	return ok && name != ""
}

// dedupKey identifies a (departure second, trip id) pair.
type dedupKey struct {
	unix int64
	trip string
}

// finish assigns indices and fills in the kept count.
func finish(records []record.Record, st Stats) ([]record.Record, Stats) {
	records = record.Reindex(records)
	st.Kept = len(records)
	return records, st
}
