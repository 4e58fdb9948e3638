package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPoolEnqueueReturnsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("hello world\nsecond line"))
	}))
	defer srv.Close()

	client := New(Options{VerifyTLS: true})
	pool := NewPool(client, nil, 4, false)

	id := pool.Register()
	defer pool.Deregister(id)

	pool.Enqueue(context.Background(), PoolJob{URL: srv.URL, Method: "GET", ResultNumber: 1}, id)

	select {
	case res := <-pool.IterResults(id):
		if res.Result == nil {
			t.Fatalf("expected a result, got nil")
		}
		if res.Result.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", res.Result.Code)
		}
		if res.Result.Lines != 2 {
			t.Fatalf("expected 2 lines, got %d", res.Result.Lines)
		}
		if res.Result.Words != 4 {
			t.Fatalf("expected 4 words, got %d", res.Result.Words)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for result")
	}
}

func TestPoolConcurrencyCap(t *testing.T) {
	inflight := make(chan struct{}, 100)
	maxSeen := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inflight <- struct{}{}
		time.Sleep(50 * time.Millisecond)
		if len(inflight) > maxSeen {
			maxSeen = len(inflight)
		}
		<-inflight
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(Options{VerifyTLS: true})
	pool := NewPool(client, nil, 2, false)

	id := pool.Register()

	for i := 0; i < 6; i++ {
		pool.Enqueue(context.Background(), PoolJob{URL: srv.URL, Method: "GET", ResultNumber: int64(i)}, id)
	}

	received := 0
	timeout := time.After(5 * time.Second)
	for received < 6 {
		select {
		case <-pool.IterResults(id):
			received++
		case <-timeout:
			t.Fatalf("timed out, received %d/6", received)
		}
	}
	pool.Deregister(id)

	if maxSeen > 2 {
		t.Fatalf("concurrency cap violated: saw %d in flight", maxSeen)
	}
}

func TestPoolCancelStopsNewWork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(Options{VerifyTLS: true})
	pool := NewPool(client, nil, 2, false)
	id := pool.Register()

	pool.Cancel()
	pool.Enqueue(context.Background(), PoolJob{URL: srv.URL, Method: "GET"}, id)

	select {
	case res, ok := <-pool.IterResults(id):
		if ok {
			t.Fatalf("expected no result after cancel, got %+v", res)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPoolJobStatsTracksCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(Options{VerifyTLS: true})
	pool := NewPool(client, nil, 2, false)
	id := pool.Register()

	pool.Enqueue(context.Background(), PoolJob{URL: srv.URL, Method: "GET"}, id)
	<-pool.IterResults(id)

	stats := pool.JobStats()[id]
	if stats["sent"] != 1 || stats["completed"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
