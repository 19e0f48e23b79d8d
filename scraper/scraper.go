package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-books-insights/config"
	"github.com/aluiziolira/go-books-insights/models"
	"github.com/aluiziolira/go-books-insights/pipeline"
)

const (
	categorySelector = "div.side_categories ul li ul li a"
	productSelector  = "article.product_pod"
	nextSelector     = "li.next a"

	ctxCategory = "category"
	ctxStart    = "start"
)

// Scraper wraps the colly collector and retry logic for the catalog site.
type Scraper struct {
	cfg       *config.ScraperConfig
	collector *colly.Collector
	retry     *retryManager
	Metrics   *Metrics

	requestCount  int64
	pageCount     int64
	errorCount    int64
	categoryCount int64

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int

	handlersOnce sync.Once
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.ScraperConfig) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.Async(true),
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	s := &Scraper{
		cfg:          cfg,
		collector:    collector,
		errorsByType: make(map[string]int),
		Metrics:      NewMetrics(),
	}
	s.retry = newRetryManager(cfg, s.Metrics)
	return s, nil
}

// Run starts the crawl and streams items through the pipeline. With
// ByCategory set, only books reached through a category listing are kept and
// each carries that category's name.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.retry.SetContext(ctx)
	s.configureHandlers(ctx, p)

	start := time.Now()
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			s.retry.Stop()
		case <-done:
		}
	}()

	if err := s.collector.Visit(s.cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("initial visit: %w", err)
	}

	// Retries fire from timers after their request has finished, so keep
	// draining until neither side has work left.
	for {
		s.collector.Wait()
		if !s.retry.Wait() {
			break
		}
	}
	s.retry.Stop()

	result := &models.ScraperResult{
		StartTime:     start,
		EndTime:       time.Now(),
		ErrorCount:    int(atomic.LoadInt64(&s.errorCount)),
		FailedURLs:    s.snapshotFailedURLs(),
		ErrorsByType:  s.snapshotErrors(),
		RetryCount:    s.retry.TotalRetries(),
		RequestCount:  int(atomic.LoadInt64(&s.requestCount)),
		PageCount:     int(atomic.LoadInt64(&s.pageCount)),
		CategoryCount: int(atomic.LoadInt64(&s.categoryCount)),
	}

	if metrics := p.GetMetrics(); metrics != nil {
		if processed, ok := metrics["processed_books"].(int64); ok {
			result.TotalCount = int(processed)
		}
	}

	return result, nil
}

func (s *Scraper) configureHandlers(ctx context.Context, p *pipeline.Pipeline) {
	s.handlersOnce.Do(func() {
		s.collector.OnRequest(func(r *colly.Request) {
			if ctx.Err() != nil {
				r.Abort()
				return
			}
			r.Ctx.Put(ctxStart, time.Now())
			current := atomic.AddInt64(&s.requestCount, 1)
			s.Metrics.IncRequest("started")
			if current%50 == 0 {
				slog.Debug("scraper request progress",
					slog.Int64("requests", current),
					slog.Int64("pages", atomic.LoadInt64(&s.pageCount)),
					slog.String("url", r.URL.String()),
				)
			}
		})

		s.collector.OnResponse(func(r *colly.Response) {
			s.Metrics.IncRequest("completed")
			if start, ok := r.Request.Ctx.GetAny(ctxStart).(time.Time); ok {
				s.Metrics.ObserveDuration(time.Since(start))
			}
		})

		s.collector.OnError(func(r *colly.Response, err error) {
			atomic.AddInt64(&s.errorCount, 1)
			statusCode := 0
			if r != nil {
				statusCode = r.StatusCode
			}
			classified := classifyError(err, statusCode)
			category := errorTypeLabel(classified)

			s.mu.Lock()
			s.errorsByType[category]++
			s.mu.Unlock()

			var req *colly.Request
			target := ""
			if r != nil && r.Request != nil && r.Request.URL != nil {
				req = r.Request
				target = req.URL.String()
			}
			slog.Error("request error",
				slog.String("url", target),
				slog.String("category", category),
				slog.Int("status", statusCode),
				slog.Any("error", err),
			)
			s.Metrics.IncError(category)

			if req == nil || !s.retry.Schedule(req) {
				s.mu.Lock()
				s.failedURLs = append(s.failedURLs, target)
				s.mu.Unlock()
			}
		})

		if s.cfg.ByCategory {
			s.collector.OnHTML(categorySelector, func(e *colly.HTMLElement) {
				// Category links also render on category pages; follow them
				// only from the landing page.
				if e.Request.Ctx.Get(ctxCategory) != "" || ctx.Err() != nil {
					return
				}
				name := strings.TrimSpace(e.Text)
				href := e.Attr("href")
				if name == "" || href == "" {
					return
				}

				catCtx := colly.NewContext()
				catCtx.Put(ctxCategory, name)
				if err := s.collector.Request(http.MethodGet, e.Request.AbsoluteURL(href), nil, catCtx, nil); err != nil {
					if !errors.Is(err, colly.ErrAlreadyVisited) {
						slog.Warn("category visit failed", slog.String("category", name), slog.Any("error", err))
					}
					return
				}
				atomic.AddInt64(&s.categoryCount, 1)
				s.Metrics.IncCategories()
			})
		}

		s.collector.OnHTML(productSelector, func(e *colly.HTMLElement) {
			category := e.Request.Ctx.Get(ctxCategory)
			if s.cfg.ByCategory && category == "" {
				return
			}
			book := extractBook(e)
			if book == nil {
				return
			}
			book.Category = category
			s.Metrics.IncItems()
			if err := p.Process(book); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
				slog.Error("pipeline process error", slog.Any("error", err))
			}
		})

		s.collector.OnHTML(nextSelector, func(e *colly.HTMLElement) {
			if s.cfg.ByCategory && e.Request.Ctx.Get(ctxCategory) == "" {
				return
			}
			currentPage := atomic.AddInt64(&s.pageCount, 1)
			if currentPage >= int64(s.cfg.MaxPages) {
				return
			}
			if ctx.Err() != nil {
				return
			}
			// Request.Visit keeps the request context, so the category
			// follows the pagination.
			if err := e.Request.Visit(e.Attr("href")); err != nil && !errors.Is(err, colly.ErrAlreadyVisited) {
				slog.Debug("next page visit failed", slog.Any("error", err))
			}
		})
	})
}

func extractBook(e *colly.HTMLElement) *models.ScrapedBook {
	title := strings.TrimSpace(e.ChildAttr("h3 a", "title"))
	if title == "" {
		return nil
	}

	href := e.ChildAttr("h3 a", "href")
	if href == "" {
		return nil
	}

	bookURL := e.Request.AbsoluteURL(href)
	priceText := strings.TrimSpace(e.ChildText("p.price_color"))

	ratingClass := e.ChildAttr("p.star-rating", "class")
	ratingText := ""
	if ratingClass != "" {
		parts := strings.Fields(ratingClass)
		if len(parts) > 1 {
			ratingText = parts[1]
		}
	}

	availability := strings.TrimSpace(e.ChildText("p.instock.availability"))
	if availability == "" {
		availability = strings.TrimSpace(e.ChildText("p.availability"))
	}

	imageURL := e.Request.AbsoluteURL(e.ChildAttr("img", "src"))

	return &models.ScrapedBook{
		Title:        title,
		Price:        priceText,
		RatingText:   ratingText,
		Availability: availability,
		ImageURL:     imageURL,
		URL:          bookURL,
		ScrapedAt:    time.Now().UTC(),
	}
}

func (s *Scraper) snapshotFailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedURLs))
	copy(out, s.failedURLs)
	return out
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch {
		case statusCode == http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case statusCode == http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case statusCode == http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		case statusCode >= http.StatusInternalServerError:
			return ErrServer{Err: wrapped, Status: statusCode}
		}
	}

	return err
}
