package retriever

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(time.Duration) {}

func TestServiceHours(t *testing.T) {
	hours, err := ServiceHours("2025-09-15")
	require.NoError(t, err)
	require.Len(t, hours, 24)
	assert.Equal(t, Hour{Date: "2025-09-15", Hour: 4}, hours[0])
	assert.Equal(t, Hour{Date: "2025-09-15", Hour: 23}, hours[19])
	assert.Equal(t, Hour{Date: "2025-09-16", Hour: 0}, hours[20])
	assert.Equal(t, Hour{Date: "2025-09-16", Hour: 3}, hours[23])

	_, err = ServiceHours("15/09/2025")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "merged-70106-2025-09-15.csv", FileName("70106", []string{"2025-09-15"}))
	assert.Equal(t, "merged-1-2025-09-15-2025-09-16.csv", FileName("1", []string{"2025-09-15", "2025-09-16"}))
}

func TestHourURL(t *testing.T) {
	r := New("http://pa.example/predictions", nil, nil)
	assert.Equal(t, "http://pa.example/predictions?date=2025-09-15&hour=4&stop_id=70106",
		r.HourURL(Hour{Date: "2025-09-15", Hour: 4}, "70106"))
}

func TestClient_RetriesThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := NewClient(5, time.Second, WithSleepFunc(func(d time.Duration) { slept = append(slept, d) }))
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
}

func TestClient_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(3, time.Second, WithSleepFunc(noSleep))
	_, err := c.Get(context.Background(), srv.URL)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestClient_RetriesPastBreakerThreshold(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		hits++
		if hits <= 11 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(20, time.Second, WithSleepFunc(noSleep))
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 12, hits)
}

func TestClient_BreakerOpensAfterFailedRequests(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		hits++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(2, time.Second, WithSleepFunc(noSleep))
	for i := 0; i < tripFailures; i++ {
		_, err := c.Get(context.Background(), srv.URL)
		var se *StatusError
		require.True(t, errors.As(err, &se), "request %d", i)
	}
	assert.Equal(t, 2*tripFailures, hits)

	_, err := c.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2*tripFailures, hits)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(20, time.Hour).Get(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetrieve_MergesDedupsAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "70106", q.Get("stop_id"))
		switch q.Get("hour") {
		case "4":
			fmt.Fprint(w, "departure_time,trip_id\n1757930000,B\n1757920000,A\n")
		case "5":
			fmt.Fprint(w, "departure_time,trip_id\n1757920000,A\n1757925000,C\n")
		case "6":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			fmt.Fprint(w, "  \n")
		}
	}))
	defer srv.Close()

	client := NewClient(2, time.Millisecond, WithSleepFunc(noSleep))
	out, err := New(srv.URL, client, nil).Retrieve(context.Background(), []string{"2025-09-15"}, "70106")
	require.NoError(t, err)
	assert.Equal(t, "departure_time,trip_id\n1757920000,A\n1757925000,C\n1757930000,B\n", string(out))
}

func TestRetrieve_AlignsColumnsByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("hour") {
		case "4":
			fmt.Fprint(w, "departure_time,trip_id\n1757920000,A\n")
		case "5":
			fmt.Fprint(w, "trip_id,vehicle_label,departure_time\nB,1234,1757925000\n")
		}
	}))
	defer srv.Close()

	client := NewClient(1, 0, WithSleepFunc(noSleep))
	out, err := New(srv.URL, client, nil).Retrieve(context.Background(), []string{"2025-09-15"}, "70106")
	require.NoError(t, err)
	assert.Equal(t, "departure_time,trip_id,vehicle_label\n1757920000,A,\n1757925000,B,1234\n", string(out))
}

func TestRetrieve_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	_, err := New(srv.URL, NewClient(1, 0), nil).Retrieve(context.Background(), []string{"2025-09-15"}, "1")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSortByFirstColumn_Lexical(t *testing.T) {
	rows := [][]string{{"b", "1"}, {"a", "2"}, {"b", "0"}}
	sortByFirstColumn(rows)
	assert.Equal(t, [][]string{{"a", "2"}, {"b", "1"}, {"b", "0"}}, rows)
}
