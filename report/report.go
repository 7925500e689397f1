package report

import (
	"io"
	"time"

	"github.com/theoremus-urban-solutions/departure-delta/pipeline"
)

// Options selects the optional files of a run.
type Options struct {
	Manifest bool
	Metrics  bool
	// Inputs is recorded in the manifest, e.g. {"prediction": "pa.csv"}.
	Inputs map[string]string
	Now    func() time.Time
}

// Files assembles every file a run commits: the mode's tables plus the
// optional manifest and metrics textfile.
func Files(res *pipeline.Result, opts Options) []File {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	at := now()

	var files []File
	var names []string
	for _, t := range Tables(res) {
		files = append(files, t.File())
		names = append(names, t.Name)
	}
	if opts.Metrics {
		families := Metrics(res, at)
		files = append(files, File{Name: FileMetrics, Write: func(w io.Writer) error {
			return WriteMetrics(w, families)
		}})
		names = append(names, FileMetrics)
	}
	if opts.Manifest {
		m := NewManifest(res, opts.Inputs, names, at)
		files = append(files, File{Name: FileManifest, Write: m.WriteJSON})
	}
	return files
}
