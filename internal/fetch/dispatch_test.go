package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// sameFetchers pairs every request with one shared fetcher, the way the
// engine dispatches batches.
func sameFetchers(f *Fetcher, n int) []*Fetcher {
	fetchers := make([]*Fetcher, n)
	for i := range fetchers {
		fetchers[i] = f
	}
	return fetchers
}

func collect(t *testing.T, ch <-chan RawResult) []RawResult {
	t.Helper()

	var out []RawResult
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestPoolDispatch(t *testing.T) {
	t.Parallel()

	t.Run("pairs results with requests positionally", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, "page%s", r.URL.Path)
		}))
		defer srv.Close()

		const n = 6
		reqs := make([]Request, n)
		for i := range reqs {
			reqs[i] = Request{URL: fmt.Sprintf("%s/%d", srv.URL, i)}
		}

		ch, err := NewPool(3).Dispatch(context.Background(), sameFetchers(newTestFetcher(), n), reqs)
		if err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		results := collect(t, ch)
		if len(results) != n {
			t.Fatalf("got %d results, want %d", len(results), n)
		}
		for _, r := range results {
			if r.Err != nil {
				t.Fatalf("request %d failed: %v", r.Index, r.Err)
			}
			if want := fmt.Sprintf("page/%d", r.Index); string(r.Resp.Body) != want {
				t.Errorf("result %d carries body %q, want %q", r.Index, r.Resp.Body, want)
			}
		}
	})

	t.Run("yields results in completion order", func(t *testing.T) {
		t.Parallel()

		delays := map[string]time.Duration{
			"/0": 400 * time.Millisecond,
			"/1": 0,
			"/2": 200 * time.Millisecond,
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(delays[r.URL.Path])
		}))
		defer srv.Close()

		reqs := []Request{
			{URL: srv.URL + "/0"},
			{URL: srv.URL + "/1"},
			{URL: srv.URL + "/2"},
		}
		ch, err := NewPool(3).Dispatch(context.Background(), sameFetchers(newTestFetcher(), 3), reqs)
		if err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}

		var order []int
		for r := range ch {
			if r.Err != nil {
				t.Fatalf("request %d failed: %v", r.Index, r.Err)
			}
			order = append(order, r.Index)
		}
		if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 0 {
			t.Errorf("completion order = %v, want [1 2 0]", order)
		}
	})

	t.Run("never runs more fetches than the pool has slots", func(t *testing.T) {
		t.Parallel()

		var (
			mu       sync.Mutex
			inflight int
			peak     int
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			inflight++
			if inflight > peak {
				peak = inflight
			}
			mu.Unlock()

			time.Sleep(30 * time.Millisecond)

			mu.Lock()
			inflight--
			mu.Unlock()
		}))
		defer srv.Close()

		const n = 20
		reqs := make([]Request, n)
		for i := range reqs {
			reqs[i] = Request{URL: fmt.Sprintf("%s/%d", srv.URL, i)}
		}

		pool := NewPool(5)
		ch, err := pool.Dispatch(context.Background(), sameFetchers(newTestFetcher(), n), reqs)
		if err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		if got := len(collect(t, ch)); got != n {
			t.Fatalf("got %d results, want %d", got, n)
		}

		mu.Lock()
		defer mu.Unlock()
		if peak > pool.Size() {
			t.Errorf("observed %d concurrent fetches, want at most %d", peak, pool.Size())
		}
		if peak < 2 {
			t.Errorf("observed %d concurrent fetches, want the pool actually used", peak)
		}
	})

	t.Run("one failure does not cancel siblings", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/bad" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			time.Sleep(20 * time.Millisecond)
			w.Write([]byte("ok"))
		}))
		defer srv.Close()

		reqs := []Request{
			{URL: srv.URL + "/bad"},
			{URL: srv.URL + "/a"},
			{URL: srv.URL + "/b"},
		}
		ch, err := NewPool(3).Dispatch(context.Background(), sameFetchers(newTestFetcher(), 3), reqs)
		if err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}

		results := collect(t, ch)
		if len(results) != 3 {
			t.Fatalf("got %d results, want all 3", len(results))
		}
		var failed, succeeded int
		for _, r := range results {
			if r.Err != nil {
				failed++
				var serr *StatusError
				if !errors.As(r.Err, &serr) {
					t.Errorf("request %d failed with %v, want *StatusError", r.Index, r.Err)
				}
				continue
			}
			succeeded++
		}
		if failed != 1 || succeeded != 2 {
			t.Errorf("failed=%d succeeded=%d, want 1 failure and 2 successes", failed, succeeded)
		}
	})

	t.Run("workers finish even when nobody drains the channel", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer srv.Close()

		const n = 10
		reqs := make([]Request, n)
		for i := range reqs {
			reqs[i] = Request{URL: fmt.Sprintf("%s/%d", srv.URL, i)}
		}

		ch, err := NewPool(2).Dispatch(context.Background(), sameFetchers(newTestFetcher(), n), reqs)
		if err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		// Take a single result and abandon the rest.
		<-ch

		deadline := time.After(5 * time.Second)
		for hits.Load() != n {
			select {
			case <-deadline:
				t.Fatalf("only %d of %d fetches completed after abandonment", hits.Load(), n)
			case <-time.After(5 * time.Millisecond):
			}
		}
	})

	t.Run("canceled context short-circuits pending fetches", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reqs := []Request{{URL: srv.URL + "/0"}, {URL: srv.URL + "/1"}}
		ch, err := NewPool(2).Dispatch(ctx, sameFetchers(newTestFetcher(), 2), reqs)
		if err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
		for _, r := range collect(t, ch) {
			if !errors.Is(r.Err, context.Canceled) {
				t.Errorf("request %d returned %v, want context.Canceled", r.Index, r.Err)
			}
		}
		if n := hits.Load(); n != 0 {
			t.Errorf("server hit %d times after cancellation, want 0", n)
		}
	})

	t.Run("rejects mismatched slice lengths", func(t *testing.T) {
		t.Parallel()

		_, err := NewPool(2).Dispatch(context.Background(), sameFetchers(newTestFetcher(), 1), make([]Request, 2))
		if !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("Dispatch() error = %v, want %v", err, ErrLengthMismatch)
		}
	})
}

func TestNewPoolSize(t *testing.T) {
	t.Parallel()

	if got := NewPool(0).Size(); got != DefaultPoolSize {
		t.Errorf("NewPool(0).Size() = %d, want the %d default", got, DefaultPoolSize)
	}
	if got := NewPool(8).Size(); got != 8 {
		t.Errorf("NewPool(8).Size() = %d, want 8", got)
	}
}
