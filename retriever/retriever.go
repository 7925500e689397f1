package retriever

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when no service hour produced any rows.
var ErrNoData = errors.New("no data retrieved")

// serviceDayStart is the first hour of a service day; the day runs 24 hours
// from there into the next calendar date.
const serviceDayStart = 4

// Hour is one (calendar date, hour) request slot.
type Hour struct {
	Date string
	Hour int
}

// ServiceHours returns the 24 slots of a service date (YYYY-MM-DD), from
// 04:00 that day through 03:00 the next.
func ServiceHours(date string) ([]Hour, error) {
	start, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("service date %q: %w", date, err)
	}
	start = start.Add(serviceDayStart * time.Hour)
	hours := make([]Hour, 24)
	for i := range hours {
		t := start.Add(time.Duration(i) * time.Hour)
		hours[i] = Hour{Date: t.Format(time.DateOnly), Hour: t.Hour()}
	}
	return hours, nil
}

// FileName is the conventional name of a merged export.
func FileName(stopID string, dates []string) string {
	return fmt.Sprintf("merged-%s-%s.csv", stopID, strings.Join(dates, "-"))
}

// Retriever downloads and merges hourly exports.
type Retriever struct {
	BaseURL string
	Client  *Client
	Logger  *slog.Logger
}

func New(baseURL string, client *Client, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{BaseURL: baseURL, Client: client, Logger: logger.With("component", "retriever")}
}

// HourURL is the export URL for one slot at stopID.
func (r *Retriever) HourURL(h Hour, stopID string) string {
	q := url.Values{}
	q.Set("date", h.Date)
	q.Set("hour", strconv.Itoa(h.Hour))
	q.Set("stop_id", stopID)
	return r.BaseURL + "?" + q.Encode()
}

// Retrieve fetches every service hour of dates at stopID and returns the
// merged CSV: one header, identical rows removed, sorted by the first column.
// Columns are matched by name; a column missing from some hours is left empty
// in their rows. Hours that keep failing are logged and skipped.
func (r *Retriever) Retrieve(ctx context.Context, dates []string, stopID string) ([]byte, error) {
	var (
		header  []string
		rows    [][]string
		seen    = map[string]struct{}{}
		columns = map[string]int{}
	)
	for _, date := range dates {
		hours, err := ServiceHours(date)
		if err != nil {
			return nil, err
		}
		r.Logger.Info("processing service date", "date", date, "stop_id", stopID)
		for _, h := range hours {
			body, err := r.Client.Get(ctx, r.HourURL(h, stopID))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err != nil {
				r.Logger.Error("skipping hour", "date", h.Date, "hour", h.Hour, "err", err)
				continue
			}
			if len(bytes.TrimSpace(body)) == 0 {
				r.Logger.Warn("no data returned", "date", h.Date, "hour", h.Hour)
				continue
			}
			head, recs, err := parseCSV(body)
			if err != nil {
				r.Logger.Error("skipping unparseable hour", "date", h.Date, "hour", h.Hour, "err", err)
				continue
			}
			if header != nil && !slices.Equal(header, head) {
				r.Logger.Warn("export columns differ, aligning by name", "date", h.Date, "hour", h.Hour)
			}
			cols := alignColumns(&header, columns, head)
			for _, rec := range recs {
				row := make([]string, len(header))
				for i, v := range rec {
					if i < len(cols) {
						row[cols[i]] = v
					}
				}
				key := strings.TrimRight(strings.Join(row, "\x1f"), "\x1f")
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				rows = append(rows, row)
			}
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	for i, row := range rows {
		if n := len(header) - len(row); n > 0 {
			rows[i] = append(row, make([]string, n)...)
		}
	}
	sortByFirstColumn(rows)
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	if err := cw.WriteAll(rows); err != nil {
		return nil, err
	}
	r.Logger.Info("merged export", "rows", len(rows))
	return buf.Bytes(), nil
}

// alignColumns maps each column of head to its position in header, appending
// names header has not seen yet.
func alignColumns(header *[]string, columns map[string]int, head []string) []int {
	cols := make([]int, len(head))
	for i, name := range head {
		j, ok := columns[name]
		if !ok {
			j = len(*header)
			*header = append(*header, name)
			columns[name] = j
		}
		cols[i] = j
	}
	return cols
}

func parseCSV(body []byte) ([]string, [][]string, error) {
	cr := csv.NewReader(bytes.NewReader(body))
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return head, recs, nil
}

// sortByFirstColumn orders rows numerically when every first cell is a
// number, lexically otherwise. Equal keys keep arrival order.
func sortByFirstColumn(rows [][]string) {
	first := func(r []string) string {
		if len(r) == 0 {
			return ""
		}
		return strings.TrimSpace(r[0])
	}
	nums := make([]float64, len(rows))
	numeric := true
	for i, r := range rows {
		f, err := strconv.ParseFloat(first(r), 64)
		if err != nil {
			numeric = false
			break
		}
		nums[i] = f
	}
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if numeric {
			return nums[idx[a]] < nums[idx[b]]
		}
		return first(rows[idx[a]]) < first(rows[idx[b]])
	})
	sorted := make([][]string, len(rows))
	for i, j := range idx {
		sorted[i] = rows[j]
	}
	copy(rows, sorted)
}
