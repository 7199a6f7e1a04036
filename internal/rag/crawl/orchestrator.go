package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"singularityio/internal/config"
	"singularityio/internal/rag/ingest"
)

// Status is a CrawlJob lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// CrawlJob tracks one crawl()'s progress, per spec.md §4.8's state machine.
type CrawlJob struct {
	ID               string
	TenantID         string
	URL              string
	MaxDepth         int
	FollowLinks      bool
	UseBrowser       bool
	Status           Status
	PagesVisited     int
	DocumentsCreated int
	ChunksCreated    int
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Ingester is the minimal capability the orchestrator needs from the RAG
// service to turn extracted page text into indexed chunks.
type Ingester interface {
	Ingest(ctx context.Context, in ingest.IngestRequest) (ingest.IngestResponse, error)
}

// SourceChecker reports whether a tenant already has a document for a
// source, enforcing the at-most-once guarantee of spec.md §4.8 step 2.
type SourceChecker interface {
	ExistsSource(ctx context.Context, tenant, source string) (bool, error)
}

// Orchestrator runs crawl jobs in the background. One orchestrator serves
// every job; per-job state lives in its in-memory jobs map, and a shared rate limiter
// enforces the politeness delay across all jobs' fetches.
type Orchestrator struct {
	cfg      config.CrawlConfig
	ingester Ingester
	sources  SourceChecker
	fetcher  *Fetcher
	client   *http.Client

	jobsMu sync.RWMutex
	jobs   map[string]*CrawlJob

	rateMu   sync.Mutex
	lastCall time.Time
}

// NewOrchestrator builds a crawl orchestrator from its ingestion
// dependencies and politeness configuration.
func NewOrchestrator(cfg config.CrawlConfig, ingester Ingester, sources SourceChecker) *Orchestrator {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Orchestrator{
		cfg:      cfg,
		ingester: ingester,
		sources:  sources,
		fetcher:  NewFetcher(cfg.UserAgent, timeout),
		client:   &http.Client{Timeout: 10 * time.Second},
		jobs:     make(map[string]*CrawlJob),
	}
}

// Start enqueues a crawl job and returns it immediately; the crawl itself
// runs on a background goroutine per spec.md §5's scheduling model.
func (o *Orchestrator) Start(tenant, seedURL string, maxDepth int, followLinks, useBrowser bool) *CrawlJob {
	if maxDepth < 0 {
		maxDepth = 0
	}
	if maxDepth > 5 {
		maxDepth = 5
	}
	now := time.Now()
	job := &CrawlJob{
		ID:          uuid.NewString(),
		TenantID:    tenant,
		URL:         seedURL,
		MaxDepth:    maxDepth,
		FollowLinks: followLinks,
		UseBrowser:  useBrowser,
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.jobsMu.Lock()
	o.jobs[job.ID] = job
	o.jobsMu.Unlock()

	go o.run(job)
	return job
}

// Get returns the current state of a tracked job.
func (o *Orchestrator) Get(id string) (CrawlJob, bool) {
	o.jobsMu.RLock()
	defer o.jobsMu.RUnlock()
	j, ok := o.jobs[id]
	if !ok {
		return CrawlJob{}, false
	}
	return *j, true
}

func (o *Orchestrator) update(job *CrawlJob, fn func(*CrawlJob)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	fn(job)
	job.UpdatedAt = time.Now()
}

type frontierEntry struct {
	url   string
	depth int
}

func (o *Orchestrator) run(job *CrawlJob) {
	o.update(job, func(j *CrawlJob) { j.Status = StatusRunning })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	concurrency := o.cfg.MaxConcurrentFetches
	if concurrency <= 0 {
		concurrency = 2
	}

	visited := make(map[string]bool)
	frontier := []frontierEntry{{url: job.URL, depth: 0}}
	visited[job.URL] = true

	var mu sync.Mutex
	var failed bool
	var lastErr error

	for len(frontier) > 0 {
		batch := frontier
		frontier = nil

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, entry := range batch {
			entry := entry
			g.Go(func() error {
				links, err := o.visitPage(gctx, job, entry.url)
				if err != nil {
					log.Warn().Err(err).Str("url", entry.url).Str("job_id", job.ID).Msg("crawl_page_failed")
					mu.Lock()
					lastErr = err
					mu.Unlock()
					return nil
				}
				if job.FollowLinks && entry.depth < job.MaxDepth {
					mu.Lock()
					for _, l := range links {
						if !visited[l] {
							visited[l] = true
							frontier = append(frontier, frontierEntry{url: l, depth: entry.depth + 1})
						}
					}
					mu.Unlock()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			failed = true
			lastErr = err
		}
		if ctx.Err() != nil {
			failed = true
			lastErr = ctx.Err()
			break
		}
	}

	o.update(job, func(j *CrawlJob) {
		if failed && j.DocumentsCreated == 0 {
			j.Status = StatusFailed
			if lastErr != nil {
				j.ErrorMessage = lastErr.Error()
			}
		} else {
			j.Status = StatusCompleted
		}
	})
}

// visitPage fetches one page, skips it if already ingested or too short,
// chunks+indexes it otherwise, and returns same-domain links for the
// frontier.
func (o *Orchestrator) visitPage(ctx context.Context, job *CrawlJob, pageURL string) ([]string, error) {
	if o.cfg.RequestDelayMS > 0 {
		o.throttle(time.Duration(o.cfg.RequestDelayMS) * time.Millisecond)
	}

	ua := o.cfg.UserAgent
	if ua == "" {
		ua = "ragsvc-crawler/1.0"
	}
	if !robotsAllowed(ctx, o.client, ua, pageURL) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", pageURL)
	}

	if o.sources != nil {
		if exists, err := o.sources.ExistsSource(ctx, job.TenantID, pageURL); err == nil && exists {
			o.update(job, func(j *CrawlJob) { j.PagesVisited++ })
			return nil, nil
		}
	}

	var title, text string
	var links []string
	if job.UseBrowser {
		fr, err := fetchHeadless(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		title, text, links = fr.Title, fr.Text, fr.Links
	} else {
		fr, err := o.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		title, text, links = fr.Title, fr.Markdown, fr.Links
	}

	if err := ingest.CheckMinContent(text, 100); err != nil {
		o.update(job, func(j *CrawlJob) { j.PagesVisited++ })
		log.Info().Str("url", pageURL).Msg("crawl_page_skipped_insufficient_content")
		return links, nil
	}

	u, _ := url.Parse(pageURL)
	docID := fmt.Sprintf("doc:web:%s", ingest.ComputeHash(text, "web", pageURL))
	resp, err := o.ingester.Ingest(ctx, ingest.IngestRequest{
		ID:       docID,
		Title:    title,
		URL:      pageURL,
		Source:   "web",
		Text:     text,
		Tenant:   job.TenantID,
		Metadata: map[string]any{"host": hostOf(u)},
		Options: ingest.IngestOptions{
			Embedding: ingest.EmbeddingOptions{Enabled: true},
		},
	})
	if err != nil {
		return nil, err
	}

	o.update(job, func(j *CrawlJob) {
		j.PagesVisited++
		j.DocumentsCreated++
		j.ChunksCreated += resp.Stats.NumChunks
	})
	return links, nil
}

func hostOf(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Host
}

// throttle blocks until at least delay has elapsed since the orchestrator's
// last fetch, the same mutex+lastCall+minDelay idiom clientEmbedder uses to
// rate-limit embedding calls, applied here to crawl fetches.
func (o *Orchestrator) throttle(delay time.Duration) {
	o.rateMu.Lock()
	defer o.rateMu.Unlock()
	if !o.lastCall.IsZero() {
		if elapsed := time.Since(o.lastCall); elapsed < delay {
			time.Sleep(delay - elapsed)
		}
	}
	o.lastCall = time.Now()
}
