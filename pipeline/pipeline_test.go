package pipeline

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-books-insights/config"
	"github.com/aluiziolira/go-books-insights/models"
)

type mockWriter struct {
	mu          sync.Mutex
	batches     [][]*models.ScrapedBook
	closed      bool
	validateErr error
}

func (mw *mockWriter) Write(books []*models.ScrapedBook) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	copyBatch := make([]*models.ScrapedBook, len(books))
	copy(copyBatch, books)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed = true
	mw.mu.Unlock()
	return nil
}

func (mw *mockWriter) Validate() error {
	return mw.validateErr
}

func (mw *mockWriter) all() []*models.ScrapedBook {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var out []*models.ScrapedBook
	for _, batch := range mw.batches {
		out = append(out, batch...)
	}
	return out
}

func (mw *mockWriter) batchSizes() []int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	sizes := make([]int, 0, len(mw.batches))
	for _, batch := range mw.batches {
		sizes = append(sizes, len(batch))
	}
	return sizes
}

type blockingWriter struct {
	blockCh chan struct{}
}

func (bw *blockingWriter) Write(books []*models.ScrapedBook) error {
	<-bw.blockCh
	return nil
}

func (bw *blockingWriter) Close() error {
	return nil
}

func (bw *blockingWriter) Validate() error {
	return nil
}

type failingWriter struct{}

func (failingWriter) Write([]*models.ScrapedBook) error { return errors.New("disk full") }
func (failingWriter) Close() error                       { return nil }
func (failingWriter) Validate() error                    { return nil }

func newTestPipeline(t *testing.T, writer OutputWriter, cfg *config.ScraperConfig) *Pipeline {
	t.Helper()
	p, err := NewPipeline(context.Background(), writer, cfg)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func scraped(n int) *models.ScrapedBook {
	return &models.ScrapedBook{
		Title:        "Book " + strconv.Itoa(n),
		Category:     "Poetry",
		Price:        "£12.00",
		RatingText:   "Three",
		Availability: "  In stock\n (5 available) ",
		URL:          "http://example.test/book/" + strconv.Itoa(n),
		ScrapedAt:    time.Now(),
	}
}

func TestPipelineProcessValidationAndDedup(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer, config.DefaultScraperConfig())
	p.Start(1)

	valid := scraped(1)
	invalid := scraped(2)
	invalid.Title = ""
	duplicate := scraped(1)

	if err := p.Process(valid, invalid, duplicate); err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	written := writer.all()
	if len(written) != 1 {
		t.Fatalf("written books = %d, want 1", len(written))
	}
	got := written[0]
	if got.Price != "12.00" || got.RatingNumeric != 3 || got.Availability != "In stock (5 available)" {
		t.Fatalf("book not normalized: %+v", got)
	}

	metrics := p.GetMetrics()
	validation, ok := metrics["validation_errors"].(map[string]int)
	if !ok {
		t.Fatalf("expected validation errors map")
	}
	if validation["invalid_record"] != 1 {
		t.Fatalf("expected invalid_record validation error, got %v", validation)
	}
	if validation["duplicate_url"] != 1 {
		t.Fatalf("expected duplicate_url validation error, got %v", validation)
	}
	if metrics["processed_books"].(int64) != 1 {
		t.Fatalf("processed=%v, want 1", metrics["processed_books"])
	}
}

func TestPipelineAssignsSequentialIDs(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer, config.DefaultScraperConfig())
	p.Start(4)

	for i := 0; i < 50; i++ {
		if err := p.Process(scraped(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	written := writer.all()
	ids := make([]int, 0, len(written))
	for _, b := range written {
		ids = append(ids, int(b.ID))
	}
	sort.Ints(ids)
	for i, id := range ids {
		if id != i {
			t.Fatalf("ids not dense from zero: %v", ids)
		}
	}
}

func TestPipelineBatchFlushThreshold(t *testing.T) {
	cfg := config.DefaultScraperConfig()
	cfg.BatchSize = 64
	writer := &mockWriter{}
	p := newTestPipeline(t, writer, cfg)
	p.Start(1)

	for i := 0; i < 65; i++ {
		if err := p.Process(scraped(i)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	sizes := writer.batchSizes()
	if len(sizes) != 2 {
		t.Fatalf("batch writes = %d, want 2", len(sizes))
	}
	if sizes[0] != 64 || sizes[1] != 1 {
		t.Fatalf("batch sizes = %v, want [64 1]", sizes)
	}
}

func TestPipelineCloseDrainsPendingItems(t *testing.T) {
	writer := &mockWriter{}
	p := newTestPipeline(t, writer, config.DefaultScraperConfig())
	p.Start(2)

	for i := 0; i < 100; i++ {
		if err := p.Process(scraped(i + 200)); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if got := len(writer.all()); got != 100 {
		t.Fatalf("written books = %d, want 100", got)
	}
}

func TestPipelineProcessAfterClose(t *testing.T) {
	p := newTestPipeline(t, &mockWriter{}, config.DefaultScraperConfig())
	p.Start(1)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Process(scraped(1)); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("expected ErrPipelineClosed, got %v", err)
	}
}

func TestPipelineWriteErrorSurfaces(t *testing.T) {
	cfg := config.DefaultScraperConfig()
	cfg.BatchSize = 1
	p := newTestPipeline(t, failingWriter{}, cfg)
	p.Start(1)

	if err := p.Process(scraped(1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err == nil {
		t.Fatalf("expected write error from close")
	}
}

func TestPipelineCloseTimeout(t *testing.T) {
	cfg := config.DefaultScraperConfig()
	cfg.BatchSize = 1

	writer := &blockingWriter{blockCh: make(chan struct{})}
	p := newTestPipeline(t, writer, cfg)
	p.Start(1)

	if err := p.Process(scraped(1)); err != nil {
		t.Fatalf("process: %v", err)
	}

	previousTimeout := drainTimeout
	drainTimeout = 25 * time.Millisecond
	t.Cleanup(func() {
		drainTimeout = previousTimeout
		close(writer.blockCh)
	})

	if err := p.Close(); err == nil || !errors.Is(err, ErrPipelineCloseTimeout) {
		t.Fatalf("expected close timeout error, got %v", err)
	}
}
