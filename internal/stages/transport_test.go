package stages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wenum/internal/engine/options"
	"wenum/internal/fuzzdata"
	"wenum/internal/httpclient"
	"wenum/internal/queue"
)

func newTestPool(t *testing.T) *httpclient.Pool {
	t.Helper()
	client := httpclient.New(httpclient.Options{VerifyTLS: true})
	return httpclient.NewPool(client, nil, 4, false)
}

func TestTransportStageEnqueuesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	pool := newTestPool(t)
	var counter int64
	ts := NewTransportStage(context.Background(), pool, &options.Options{Method: "GET"}, &counter)
	defer ts.Cleanup()

	out := queue.NewPriorityQueue()
	ts.BindOutput(out)

	disp := ts.Process(fuzzdata.NewResult(srv.URL, 0))
	if len(disp) != 1 || disp[0].Kind != queue.Absorbed {
		t.Fatalf("expected a single Absorbed disposition, got %+v", disp)
	}

	select {
	case item := <-waitForPush(out):
		r, ok := item.(*fuzzdata.ResultItem)
		if !ok {
			t.Fatalf("expected *fuzzdata.ResultItem, got %T", item)
		}
		if r.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", r.Code)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for transport result")
	}
}

func TestTransportStageDryRunNeverSends(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pool := newTestPool(t)
	var counter int64
	ts := NewTransportStage(context.Background(), pool, &options.Options{Method: "GET", DryRun: true}, &counter)
	defer ts.Cleanup()

	out := queue.NewPriorityQueue()
	ts.BindOutput(out)

	r := fuzzdata.NewResult(srv.URL, 0)
	disp := ts.Process(r)
	if len(disp) != 1 || disp[0].Kind != queue.Forward {
		t.Fatalf("expected a single Forward disposition, got %+v", disp)
	}
	if disp[0].Item != r {
		t.Fatalf("expected the dry-run disposition to carry the original item unchanged")
	}
	if r.ResultNumber != 1 {
		t.Fatalf("expected ResultNumber to still be assigned, got %d", r.ResultNumber)
	}

	time.Sleep(50 * time.Millisecond)
	if hit {
		t.Fatalf("dry-run must never reach the transport")
	}
	if pool.QueuedRequests() != 0 {
		t.Fatalf("expected no queued requests under --dry-run, got %d", pool.QueuedRequests())
	}
}

func TestTransportStageDryRunAbsorbsNonResultItems(t *testing.T) {
	pool := newTestPool(t)
	var counter int64
	ts := NewTransportStage(context.Background(), pool, &options.Options{Method: "GET", DryRun: true}, &counter)
	defer ts.Cleanup()

	disp := ts.Process(fuzzdata.NewBackfeed("http://example.com", "GET", 0, 0, 0, 0))
	if len(disp) != 1 || disp[0].Kind != queue.Absorbed {
		t.Fatalf("expected a single Absorbed disposition for a non-result item, got %+v", disp)
	}
}

// waitForPush adapts a *queue.PriorityQueue's blocking Pop into a channel
// so the test can select against it with a timeout.
func waitForPush(q *queue.PriorityQueue) <-chan fuzzdata.Item {
	ch := make(chan fuzzdata.Item, 1)
	go func() {
		item, ok := q.Pop()
		if ok {
			ch <- item
		}
	}()
	return ch
}
