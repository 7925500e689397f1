package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// fetcher loads inputs from URLs or local files, decompressing .gz and .zst.
type fetcher struct {
	httpClient *http.Client
}

func newFetcher() *fetcher {
	return &fetcher{httpClient: &http.Client{}}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// fetch returns the decompressed contents of urlOrPath.
func (f *fetcher) fetch(ctx context.Context, urlOrPath string) ([]byte, error) {
	raw, err := f.fetchRaw(ctx, urlOrPath)
	if err != nil {
		return nil, err
	}
	name := strings.ToLower(urlOrPath)
	if i := strings.IndexAny(name, "?#"); i >= 0 && isURL(name) {
		name = name[:i]
	}
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gunzip %s: %w", urlOrPath, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case strings.HasSuffix(name, ".zst"):
		d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer d.Close()
		out, err := d.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompression of %s failed: %w", urlOrPath, err)
		}
		return out, nil
	default:
		return raw, nil
	}
}

func (f *fetcher) fetchRaw(ctx context.Context, urlOrPath string) ([]byte, error) {
	if !isURL(urlOrPath) {
		return os.ReadFile(urlOrPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}
	return io.ReadAll(resp.Body)
}
