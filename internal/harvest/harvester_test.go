package harvest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/bizharvest/internal/fetch"
	"github.com/a3tai/bizharvest/internal/pdf"
	"github.com/a3tai/bizharvest/internal/registry"
	"github.com/a3tai/bizharvest/internal/testpdf"
)

// registryPDF renders a document carrying every indicator phrase
func registryPDF(nuis string) []byte {
	return testpdf.Simple(
		"EKSTRAKT I REGJISTRIT TREGTAR",
		`TE DHENAT E SUBJEKTIT "PERSON FIZIK"`,
		"GJENDJA E REGJISTRIMIT",
		"Numri unik i identifikimit të subjektit",
		"NUIS "+nuis,
		"Emri i subjektit",
		"Forma ligjore",
		"Data e regjistrimit",
		"Fusha e veprimtarisë",
		"Vendi i ushtrimit të aktivitetit",
		"Statusi Aktiv",
	)
}

type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]fetch.Outcome
	panics    map[string]bool
	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	delay     time.Duration
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string) fetch.Outcome {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxFlight.Load()
		if n <= cur || s.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panics[rawURL] {
		panic("fetch exploded")
	}
	if o, ok := s.responses[rawURL]; ok {
		o.URL = rawURL
		return o
	}
	return fetch.Outcome{URL: rawURL, Status: fetch.StatusSkipped, Reason: "content is not a PDF"}
}

func pdfOutcome(data []byte) fetch.Outcome {
	return fetch.Outcome{Status: fetch.StatusSuccess, Data: data, Size: len(data), AcceptedBy: "signature"}
}

func newExtractor(t *testing.T) *pdf.TextExtractor {
	t.Helper()
	extractor, err := pdf.NewTextExtractor(nil, nil)
	require.NoError(t, err)
	return extractor
}

func TestHarvest_BusinessRecord(t *testing.T) {
	data := registryPDF("AL123")
	fetcher := &stubFetcher{
		responses: map[string]fetch.Outcome{
			"https://x.gov/doc?id=1":        pdfOutcome(data),
			"https://example.com/other.pdf": pdfOutcome(testpdf.Simple("Annual report 2023")),
			"https://down.example/x.pdf":    {Status: fetch.StatusError, Reason: "connection refused"},
		},
	}

	h := New(fetcher, newExtractor(t), Options{})
	result := h.Harvest(context.Background(), []string{
		"https://x.gov/doc?id=1",
		"https://example.com/other.pdf",
		"https://down.example/x.pdf",
		"https://example.com/page.html",
	})

	require.Len(t, result.Records, 1)
	record := result.Records[0]
	assert.Equal(t, "AL123", record.NUIS)
	assert.Equal(t, "https://x.gov/doc?id=1", record.SourceURL)
	assert.Equal(t, len(data), record.FileSize)
	assert.Equal(t, 1, record.PageCount)
	assert.False(t, record.ProcessedAt.IsZero())

	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, fetch.StatusSuccess, result.Outcomes[0].Status)
	assert.Equal(t, fetch.StatusSuccess, result.Outcomes[1].Status)
	assert.False(t, result.Outcomes[1].Analysis.IsRegistryDocument())
	assert.Equal(t, fetch.StatusError, result.Outcomes[2].Status)
	assert.Equal(t, "connection refused", result.Outcomes[2].Reason)
	assert.Equal(t, fetch.StatusSkipped, result.Outcomes[3].Status)

	assert.Equal(t, Counts{Candidates: 4, Processed: 4, Successful: 2, Skipped: 1, Failed: 1, Records: 1}, result.Counts)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
}

func TestHarvest_RegistryWithoutFieldsIsNotARecord(t *testing.T) {
	data := testpdf.Simple("EKSTRAKT I REGJISTRIT TREGTAR", "GJENDJA E REGJISTRIMIT", "Forma ligjore 123")
	fetcher := &stubFetcher{
		responses: map[string]fetch.Outcome{"https://x.gov/empty.pdf": pdfOutcome(data)},
	}

	result := New(fetcher, newExtractor(t), Options{}).Harvest(context.Background(), []string{"https://x.gov/empty.pdf"})

	require.Len(t, result.Outcomes, 1)
	outcome := result.Outcomes[0]
	require.Equal(t, fetch.StatusSuccess, outcome.Status)
	require.True(t, outcome.Analysis.IsRegistryDocument())
	assert.Equal(t, 3, outcome.Analysis.Registry.IndicatorsFound)
	assert.Empty(t, outcome.Analysis.Registry.Fields)
	assert.Empty(t, result.Records)
	assert.Equal(t, 0, result.Counts.Records)
}

func TestHarvest_LinksOfEachDocument(t *testing.T) {
	data := testpdf.Build(testpdf.Document{Pages: []testpdf.Page{{
		Lines: []string{"Kontakt: info@qkb.gov.al"},
		Links: []string{"https://qkb.gov.al/next.pdf"},
	}}})
	fetcher := &stubFetcher{
		responses: map[string]fetch.Outcome{
			"https://x.gov/list.pdf":  pdfOutcome(data),
			"https://x.gov/error.pdf": {Status: fetch.StatusError, Reason: "timeout"},
		},
	}

	result := New(fetcher, newExtractor(t), Options{}).Harvest(context.Background(), []string{
		"https://x.gov/list.pdf",
		"https://x.gov/error.pdf",
	})

	require.Len(t, result.Outcomes, 2)
	found := result.Outcomes[0].Links
	require.NotNil(t, found)
	assert.Equal(t, []string{"https://qkb.gov.al/next.pdf"}, found.HTTPURLs())
	assert.Equal(t, 1, found.Summary.Emails)
	assert.Nil(t, result.Outcomes[1].Links)
}

func TestHarvest_RecordsKeepInputOrder(t *testing.T) {
	fetcher := &stubFetcher{responses: map[string]fetch.Outcome{}}
	var urls []string
	for i := 0; i < 8; i++ {
		u := fmt.Sprintf("https://qkb.gov.al/extract?id=%d", i)
		urls = append(urls, u)
		fetcher.responses[u] = pdfOutcome(registryPDF(fmt.Sprintf("K%d", i)))
	}

	result := New(fetcher, newExtractor(t), Options{}).Harvest(context.Background(), urls)

	require.Len(t, result.Records, len(urls))
	for i, record := range result.Records {
		assert.Equal(t, urls[i], record.SourceURL)
		assert.Equal(t, fmt.Sprintf("K%d", i), record.NUIS)
	}
}

func TestHarvest_CapsURLs(t *testing.T) {
	fetcher := &stubFetcher{}
	var urls []string
	for i := 0; i < 60; i++ {
		urls = append(urls, fmt.Sprintf("https://example.com/doc%d.pdf", i))
	}

	result := New(fetcher, newExtractor(t), Options{}).Harvest(context.Background(), urls)

	assert.Equal(t, int32(DefaultMaxURLs), fetcher.calls.Load())
	assert.Len(t, result.Outcomes, DefaultMaxURLs)
	assert.Equal(t, "https://example.com/doc49.pdf", result.Outcomes[49].URL)
}

func TestHarvest_WorkerPoolBound(t *testing.T) {
	fetcher := &stubFetcher{delay: 20 * time.Millisecond}
	var urls []string
	for i := 0; i < 20; i++ {
		urls = append(urls, fmt.Sprintf("https://example.com/doc%d.pdf", i))
	}

	New(fetcher, newExtractor(t), Options{Workers: 3}).Harvest(context.Background(), urls)

	assert.LessOrEqual(t, fetcher.maxFlight.Load(), int32(3))
	assert.Equal(t, int32(20), fetcher.calls.Load())
}

func TestHarvest_PanicIsolated(t *testing.T) {
	fetcher := &stubFetcher{
		responses: map[string]fetch.Outcome{
			"https://x.gov/doc?id=1": pdfOutcome(registryPDF("AL123")),
		},
		panics: map[string]bool{"https://x.gov/doc?id=2": true},
	}

	result := New(fetcher, newExtractor(t), Options{}).Harvest(context.Background(), []string{
		"https://x.gov/doc?id=2",
		"https://x.gov/doc?id=1",
	})

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, fetch.StatusError, result.Outcomes[0].Status)
	assert.Contains(t, result.Outcomes[0].Reason, "fetch exploded")
	require.Len(t, result.Records, 1)
	assert.Equal(t, "AL123", result.Records[0].NUIS)
}

func TestHarvest_UnparseableDocument(t *testing.T) {
	fetcher := &stubFetcher{
		responses: map[string]fetch.Outcome{
			"https://x.gov/broken.pdf": pdfOutcome([]byte("%PDF-1.4\nnot really a pdf")),
		},
	}

	result := New(fetcher, newExtractor(t), Options{}).Harvest(context.Background(), []string{"https://x.gov/broken.pdf"})

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, fetch.StatusError, result.Outcomes[0].Status)
	assert.Contains(t, result.Outcomes[0].Reason, "could not be parsed")
	assert.Nil(t, result.Outcomes[0].Analysis)
	assert.Empty(t, result.Records)
}

func TestHarvest_ContextCancelled(t *testing.T) {
	fetcher := &stubFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(fetcher, newExtractor(t), Options{}).Harvest(ctx, []string{"https://x.gov/a.pdf"})

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, fetch.StatusError, result.Outcomes[0].Status)
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestCandidates(t *testing.T) {
	urls := []string{
		"https://a.gov/report.pdf",
		"https://a.gov/page",
		"mailto:info@a.gov",
		"ftp://a.gov/file.pdf",
		"https://a.gov/report.pdf",
		"not a url",
	}

	liberal := New(&stubFetcher{}, nil, Options{})
	assert.Equal(t, []string{"https://a.gov/report.pdf", "https://a.gov/page"}, liberal.Candidates(urls))

	strict := New(&stubFetcher{}, nil, Options{Strict: true})
	assert.Equal(t, []string{"https://a.gov/report.pdf"}, strict.Candidates(urls))

	capped := New(&stubFetcher{}, nil, Options{MaxURLs: 1})
	assert.Equal(t, []string{"https://a.gov/report.pdf"}, capped.Candidates(urls))
}

func TestHarvest_HTTPEndToEnd(t *testing.T) {
	data := registryPDF("AL123")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "1" {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(data)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not a document</html>"))
	}))
	defer srv.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL + "/gone.pdf"
	dead.Close()

	source := testpdf.Build(testpdf.Document{Pages: []testpdf.Page{{
		Lines: []string{"Ekstrakti: " + srv.URL + "/doc?id=1"},
		Links: []string{srv.URL + "/index.html", deadURL},
	}}})

	fetcher := fetch.New(fetch.Options{Timeout: 5 * time.Second})
	h := New(fetcher, newExtractor(t), Options{})
	result := h.HarvestPDF(context.Background(), source)

	require.NotNil(t, result.Links)
	assert.ElementsMatch(t,
		[]string{srv.URL + "/index.html", deadURL, srv.URL + "/doc?id=1"},
		result.Links.HTTPURLs())
	assert.Equal(t, 3, result.Counts.Candidates)

	byURL := make(map[string]URLOutcome)
	for _, o := range result.Outcomes {
		byURL[o.URL] = o
	}
	assert.Equal(t, fetch.StatusSkipped, byURL[srv.URL+"/index.html"].Status)
	assert.Equal(t, fetch.StatusError, byURL[deadURL].Status)
	assert.False(t, byURL[deadURL].TLSRetry)
	assert.Equal(t, fetch.StatusSuccess, byURL[srv.URL+"/doc?id=1"].Status)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "AL123", result.Records[0].NUIS)
	assert.Equal(t, srv.URL+"/doc?id=1", result.Records[0].SourceURL)
	assert.Equal(t, "Aktiv", result.Records[0].Status)
}

func TestBusinessRecordColumns(t *testing.T) {
	record := BusinessRecord{NUIS: "AL123", Phone: "+355691234567"}
	cols := record.Columns()

	require.Len(t, cols, len(registry.Fields()))
	for i, field := range registry.Fields() {
		assert.Equal(t, field, cols[i][0])
	}
	assert.Equal(t, "AL123", cols[0][1])
	assert.Equal(t, "+355691234567", cols[7][1])
}

var _ Fetcher = (*fetch.Fetcher)(nil)

func TestWithStrict(t *testing.T) {
	h := New(&stubFetcher{}, nil, Options{Workers: 2})
	strict := h.WithStrict(true)

	assert.Same(t, h.pool, strict.pool)
	assert.False(t, h.opts.Strict)
	assert.True(t, strict.opts.Strict)
	assert.Equal(t, []string{"https://a.gov/report.pdf"}, strict.Candidates([]string{"https://a.gov/page", "https://a.gov/report.pdf"}))
}
