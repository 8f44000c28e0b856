// Package harvest runs the fetch, extract and analyze pipeline over a batch of
// candidate URLs and collects the registry documents it finds.
package harvest

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/a3tai/bizharvest/internal/analysis"
	"github.com/a3tai/bizharvest/internal/fetch"
	"github.com/a3tai/bizharvest/internal/heuristics"
	"github.com/a3tai/bizharvest/internal/links"
	"github.com/a3tai/bizharvest/internal/pdf"
)

const (
	DefaultWorkers = 5
	DefaultMaxURLs = 50
)

// Fetcher downloads one URL. *fetch.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) fetch.Outcome
}

// Options configures a Harvester
type Options struct {
	Workers int
	MaxURLs int
	// Strict only fetches URLs the heuristics consider likely PDFs
	Strict bool
	Logger *log.Logger
}

// Harvester owns the fetcher, the text extractor and the worker pool shared by
// every step of a run. It is safe for concurrent use.
type Harvester struct {
	fetcher   Fetcher
	extractor *pdf.TextExtractor
	links     *links.Extractor
	pool      *semaphore.Weighted
	opts      Options
	logger    *log.Logger
}

// New creates a Harvester. Zero option fields take their defaults.
func New(fetcher Fetcher, extractor *pdf.TextExtractor, opts Options) *Harvester {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxURLs <= 0 {
		opts.MaxURLs = DefaultMaxURLs
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Harvester{
		fetcher:   fetcher,
		extractor: extractor,
		links:     links.NewExtractor(logger),
		pool:      semaphore.NewWeighted(int64(opts.Workers)),
		opts:      opts,
		logger:    logger,
	}
}

// WithStrict returns a Harvester that shares h's fetcher, extractor and
// worker pool but applies the given strict mode
func (h *Harvester) WithStrict(strict bool) *Harvester {
	c := *h
	c.opts.Strict = strict
	return &c
}

// Candidates filters urls to unique http(s) URLs, applies the strict-mode
// heuristic when enabled and caps the list at MaxURLs. The cap counts
// distinct URLs, so repeats do not use up slots.
func (h *Harvester) Candidates(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if len(out) >= h.opts.MaxURLs {
			break
		}
		if !links.IsValidURL(u) {
			continue
		}
		if h.opts.Strict && !heuristics.IsLikelyPDF(u) {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Harvest processes urls concurrently. Failures are reported per URL and never
// abort the batch; ctx is the only cancellation boundary.
func (h *Harvester) Harvest(ctx context.Context, urls []string) *Result {
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Strict:    h.opts.Strict,
	}

	candidates := h.Candidates(urls)
	result.Counts.Candidates = len(candidates)
	result.Outcomes = make([]URLOutcome, len(candidates))

	h.logger.Printf("Harvest %s: processing %d of %d URLs (strict=%t)",
		result.RunID, len(candidates), len(urls), h.opts.Strict)

	var g errgroup.Group
	for i, u := range candidates {
		g.Go(func() error {
			result.Outcomes[i] = h.process(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range result.Outcomes {
		if hasBusinessDetails(o) {
			result.Records = append(result.Records, newBusinessRecord(o))
		}
	}

	result.FinishedAt = time.Now().UTC()
	result.tally()
	h.logger.Printf("Harvest %s: %d successful, %d skipped, %d failed, %d business records",
		result.RunID, result.Counts.Successful, result.Counts.Skipped, result.Counts.Failed, result.Counts.Records)
	return result
}

// hasBusinessDetails reports whether o is a registry document with at least
// one extracted field
func hasBusinessDetails(o URLOutcome) bool {
	return o.Status == fetch.StatusSuccess &&
		o.Analysis.IsRegistryDocument() &&
		len(o.Analysis.Registry.Fields) > 0
}

// HarvestPDF extracts the links of a PDF and harvests its http(s) URLs. The
// link report is attached to the result.
func (h *Harvester) HarvestPDF(ctx context.Context, data []byte) *Result {
	report := h.links.ExtractAll(data)
	result := h.Harvest(ctx, report.HTTPURLs())
	result.Links = report
	return result
}

// Process runs a single URL through the pipeline
func (h *Harvester) Process(ctx context.Context, rawURL string) URLOutcome {
	return h.process(ctx, rawURL)
}

func (h *Harvester) process(ctx context.Context, rawURL string) (outcome URLOutcome) {
	outcome = URLOutcome{URL: rawURL}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Printf("Panic processing %s: %v", rawURL, r)
			outcome = URLOutcome{
				URL:         rawURL,
				Status:      fetch.StatusError,
				Reason:      fmt.Sprintf("panic: %v", r),
				ProcessedAt: time.Now().UTC(),
			}
		}
		if outcome.ProcessedAt.IsZero() {
			outcome.ProcessedAt = time.Now().UTC()
		}
	}()

	var download fetch.Outcome
	if err := h.step(ctx, func() { download = h.fetcher.Fetch(ctx, rawURL) }); err != nil {
		return failed(outcome, err)
	}
	outcome.Status = download.Status
	outcome.Reason = download.Reason
	outcome.AcceptedBy = download.AcceptedBy
	outcome.TLSRetry = download.TLSRetry
	outcome.FileSize = download.Size
	if download.Status != fetch.StatusSuccess {
		return outcome
	}

	var (
		text    *pdf.TextResult
		extrErr error
	)
	if err := h.step(ctx, func() { text, extrErr = h.extractor.Extract(download.Data) }); err != nil {
		return failed(outcome, err)
	}
	if extrErr != nil {
		h.logger.Printf("Could not extract text from %s: %v", rawURL, extrErr)
		return failed(outcome, extrErr)
	}
	outcome.PageCount = text.TotalPages

	if err := h.step(ctx, func() { outcome.Links = h.links.ExtractAll(download.Data) }); err != nil {
		return failed(outcome, err)
	}

	if err := h.step(ctx, func() { outcome.Analysis = analysis.Analyze(text) }); err != nil {
		return failed(outcome, err)
	}

	outcome.ProcessedAt = time.Now().UTC()
	return outcome
}

// step runs fn while holding one worker slot
func (h *Harvester) step(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.pool.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.pool.Release(1)
	fn()
	return nil
}

func failed(o URLOutcome, err error) URLOutcome {
	o.Status = fetch.StatusError
	o.Reason = err.Error()
	o.Links = nil
	o.Analysis = nil
	return o
}
