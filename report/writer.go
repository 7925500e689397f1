package report

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// File is one output file. Write renders its contents.
type File struct {
	Name  string
	Write func(io.Writer) error
}

// Writer commits a set of files into Dir.
type Writer struct {
	Dir    string
	Logger *slog.Logger
}

func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{Dir: dir, Logger: logger.With("component", "report")}
}

// rename is swapped in tests to simulate a failing commit.
var rename = os.Rename

// Commit renders every file into a staging directory inside Dir and then
// renames them into place. Files of an earlier run that would be replaced are
// moved into the staging directory first. If rendering fails, ctx is done
// before the renames start, or a rename fails, nothing new is left in Dir and
// the earlier files are restored.
func (w *Writer) Commit(ctx context.Context, files []File) (err error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	staging, err := os.MkdirTemp(w.Dir, ".departure-delta-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			w.Logger.Warn("failed to remove staging dir", "dir", staging, "err", rmErr)
		}
	}()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(staging, f.Name), f.Write); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	prev := filepath.Join(staging, "prev")
	if err := os.Mkdir(prev, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	var moved, placed []string
	defer func() {
		if err == nil {
			return
		}
		for _, p := range placed {
			_ = os.Remove(p)
		}
		for _, name := range moved {
			if rerr := rename(filepath.Join(prev, name), filepath.Join(w.Dir, name)); rerr != nil {
				w.Logger.Error("failed to restore previous output", "file", name, "err", rerr)
			}
		}
	}()

	for _, f := range files {
		dst := filepath.Join(w.Dir, f.Name)
		if _, statErr := os.Lstat(dst); statErr != nil {
			if errors.Is(statErr, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", f.Name, statErr)
		}
		if err := rename(dst, filepath.Join(prev, f.Name)); err != nil {
			return fmt.Errorf("set aside %s: %w", f.Name, err)
		}
		moved = append(moved, f.Name)
	}
	for _, f := range files {
		dst := filepath.Join(w.Dir, f.Name)
		if err := rename(filepath.Join(staging, f.Name), dst); err != nil {
			return fmt.Errorf("commit %s: %w", f.Name, err)
		}
		placed = append(placed, dst)
	}
	w.Logger.Info("report written", "dir", w.Dir, "files", len(files))
	return nil
}

func writeFile(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	bw := bufio.NewWriter(f)
	if render == nil {
		return errors.New("no renderer")
	}
	if err := render(bw); err != nil {
		return err
	}
	return bw.Flush()
}
