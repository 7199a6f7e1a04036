package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"singularityio/internal/config"
	"singularityio/internal/rag/ingest"
)

type fakeIngester struct {
	mu    sync.Mutex
	calls []ingest.IngestRequest
}

func (f *fakeIngester) Ingest(ctx context.Context, in ingest.IngestRequest) (ingest.IngestResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	return ingest.IngestResponse{DocID: in.ID, Stats: ingest.IngestStats{NumChunks: 1}}, nil
}

type noopSourceChecker struct{}

func (noopSourceChecker) ExistsSource(ctx context.Context, tenant, source string) (bool, error) {
	return false, nil
}

func TestOrchestratorCompletesASinglePageCrawl(t *testing.T) {
	longBody := "<html><head><title>Hi</title></head><body><main>"
	for i := 0; i < 40; i++ {
		longBody += "This is a substantial paragraph of page content used to clear the minimum extractable content threshold. "
	}
	longBody += "</main></body></html>"

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(longBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ingester := &fakeIngester{}
	o := NewOrchestrator(config.CrawlConfig{MaxConcurrentFetches: 1, UserAgent: "test-bot"}, ingester, noopSourceChecker{})

	job := o.Start("tenant-a", srv.URL+"/page", 0, false, false)
	if job.Status != StatusQueued && job.Status != StatusRunning {
		t.Fatalf("expected queued/running status immediately, got %s", job.Status)
	}

	deadline := time.Now().Add(5 * time.Second)
	var final CrawlJob
	for time.Now().Before(deadline) {
		got, ok := o.Get(job.ID)
		if !ok {
			t.Fatalf("job disappeared")
		}
		if got.Status == StatusCompleted || got.Status == StatusFailed {
			final = got
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if final.Status != StatusCompleted {
		t.Fatalf("expected job to complete, got status=%s error=%s", final.Status, final.ErrorMessage)
	}
	if final.DocumentsCreated != 1 {
		t.Fatalf("expected 1 document created, got %d", final.DocumentsCreated)
	}

	ingester.mu.Lock()
	defer ingester.mu.Unlock()
	if len(ingester.calls) != 1 {
		t.Fatalf("expected exactly 1 ingest call, got %d", len(ingester.calls))
	}
	if ingester.calls[0].Tenant != "tenant-a" {
		t.Fatalf("expected tenant-a on ingest request, got %q", ingester.calls[0].Tenant)
	}
}

func TestOrchestratorClampsMaxDepth(t *testing.T) {
	o := NewOrchestrator(config.CrawlConfig{}, &fakeIngester{}, noopSourceChecker{})
	job := o.Start("tenant-a", "http://example.invalid/", 99, false, false)
	if job.MaxDepth != 5 {
		t.Fatalf("expected max_depth clamped to 5, got %d", job.MaxDepth)
	}
}

func TestThrottleEnforcesMinimumDelay(t *testing.T) {
	o := NewOrchestrator(config.CrawlConfig{}, &fakeIngester{}, noopSourceChecker{})
	start := time.Now()
	o.throttle(50 * time.Millisecond)
	o.throttle(50 * time.Millisecond)
	if time.Since(start) < 50*time.Millisecond {
		t.Fatalf("expected throttle to enforce a minimum delay between calls")
	}
}
