package overpass

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleep returns a sleep func that records waits without blocking.
func recordSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func newTestClient(servers []string, waits *[]time.Duration) *Client {
	return New(
		WithServers(servers...),
		WithMinInterval(0),
		WithRetryDelay(10*time.Millisecond),
		WithSleep(recordSleep(waits)),
	)
}

// deadServer returns the URL of a listener that has already been closed.
func deadServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return "http://" + addr + "/api/interpreter"
}

func TestQuery_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PubScraper/1.0", r.Header.Get("User-Agent"))
		assert.Contains(t, r.URL.Query().Get("data"), "out center")
		w.Write([]byte(`{"elements":[{"type":"node","id":1,"lat":51.7,"lon":0.4,"tags":{"name":"The Anchor","website":"https://anchor.pub"}}]}`))
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient([]string{srv.URL}, &waits)

	resp, err := c.Query(context.Background(), "[out:json];node(1);out center;")
	require.NoError(t, err)
	require.Len(t, resp.Elements, 1)
	assert.Equal(t, "https://anchor.pub", resp.Elements[0].Website())
}

func TestQuery_ServerErrorMovesToNextServer(t *testing.T) {
	var firstCalls, secondCalls atomic.Int32
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondCalls.Add(1)
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer second.Close()

	var waits []time.Duration
	c := newTestClient([]string{first.URL, second.URL}, &waits)

	resp, err := c.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, resp.Elements)
	assert.Equal(t, int32(1), firstCalls.Load())
	assert.Equal(t, int32(1), secondCalls.Load())
	// A 5xx abandons the server but does not mark it failed.
	assert.Empty(t, c.FailedServers())

	_, err = c.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, int32(2), firstCalls.Load())
}

func TestQuery_ConnectionErrorMarksServerFailed(t *testing.T) {
	dead := deadServer(t)
	var calls atomic.Int32
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer live.Close()

	var waits []time.Duration
	c := newTestClient([]string{dead, live.URL}, &waits)

	_, err := c.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []string{dead}, c.FailedServers())

	before := c.Requests()
	_, err = c.Query(context.Background(), "q")
	require.NoError(t, err)
	// The dead server is never contacted again.
	assert.Equal(t, before+1, c.Requests())
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuery_RateLimitedRetriesSameServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient([]string{srv.URL}, &waits)

	_, err := c.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, waits, 2)
	assert.Equal(t, 4*time.Second, waits[0])
	assert.Equal(t, 10*time.Millisecond, waits[1])
}

func TestQuery_AllServersFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	var waits []time.Duration
	c := newTestClient([]string{srv.URL, deadServer(t)}, &waits)

	_, err := c.Query(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllServersFailed))

	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Len(t, ex.Errors, 3)
	assert.Contains(t, ex.Errors[0], "http 400")
}

func TestQuery_NoLiveServers(t *testing.T) {
	var waits []time.Duration
	dead := deadServer(t)
	c := newTestClient([]string{dead}, &waits)

	_, err := c.Query(context.Background(), "q")
	require.ErrorIs(t, err, ErrAllServersFailed)

	before := c.Requests()
	_, err = c.Query(context.Background(), "q")
	require.ErrorIs(t, err, ErrAllServersFailed)
	assert.Equal(t, before, c.Requests())
}

func TestQuery_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var waits []time.Duration
	_, err := newTestClient([]string{srv.URL}, &waits).Query(ctx, "q")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAllServersFailed))
}

func TestElementPosition(t *testing.T) {
	node := Element{Lat: 1, Lon: 2}
	lat, lon := node.Position()
	assert.Equal(t, 1.0, lat)
	assert.Equal(t, 2.0, lon)

	way := Element{Center: &Center{Lat: 3, Lon: 4}}
	lat, lon = way.Position()
	assert.Equal(t, 3.0, lat)
	assert.Equal(t, 4.0, lon)
}
