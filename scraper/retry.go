package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-books-insights/config"
)

// retryManager re-issues failed requests with capped exponential backoff.
// Retrying the failed *colly.Request itself keeps its context (and so its
// category) and bypasses the collector's visited-URL check.
type retryManager struct {
	cfg     *config.ScraperConfig
	metrics *Metrics
	ctx     context.Context

	mu           sync.Mutex
	cond         *sync.Cond
	attempts     map[string]int
	timers       map[string]*time.Timer
	pending      int
	totalRetries int
	stopped      bool
}

func newRetryManager(cfg *config.ScraperConfig, metrics *Metrics) *retryManager {
	rm := &retryManager{
		cfg:      cfg,
		attempts: make(map[string]int),
		timers:   make(map[string]*time.Timer),
		metrics:  metrics,
		ctx:      context.Background(),
	}
	rm.cond = sync.NewCond(&rm.mu)
	return rm
}

// Schedule queues req for another attempt. It reports false when the URL has
// used up its retries or the manager is stopped.
func (rm *retryManager) Schedule(req *colly.Request) bool {
	if rm.cfg.MaxRetries == 0 || req == nil || req.URL == nil {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.stopped || rm.ctx.Err() != nil {
		return false
	}

	key := req.URL.String()
	attempt := rm.attempts[key]
	if attempt >= rm.cfg.MaxRetries {
		return false
	}

	attempt++
	rm.attempts[key] = attempt
	rm.totalRetries++
	rm.metrics.IncRetries()

	delay := rm.backoff(attempt)
	rm.resetTimerLocked(key)
	rm.pending++
	rm.timers[key] = time.AfterFunc(delay, func() {
		rm.fireRetry(key, req)
	})
	return true
}

func (rm *retryManager) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := rm.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := rm.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func (rm *retryManager) resetTimerLocked(key string) {
	if timer, ok := rm.timers[key]; ok {
		if timer.Stop() {
			rm.pending--
		}
		delete(rm.timers, key)
	}
}

func (rm *retryManager) fireRetry(key string, req *colly.Request) {
	rm.mu.Lock()
	stopped := rm.stopped || rm.ctx.Err() != nil
	rm.mu.Unlock()

	if !stopped {
		if err := req.Retry(); err != nil {
			slog.Debug("retry visit failed", slog.String("url", key), slog.Any("error", err))
		}
	}

	rm.mu.Lock()
	delete(rm.timers, key)
	rm.pending--
	rm.cond.Broadcast()
	rm.mu.Unlock()
}

// Wait blocks until every scheduled retry has been handed back to the
// collector. It reports whether anything was pending.
func (rm *retryManager) Wait() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	waited := false
	for rm.pending > 0 {
		waited = true
		rm.cond.Wait()
	}
	return waited
}

func (rm *retryManager) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.stopped {
		return
	}

	rm.stopped = true
	for key, timer := range rm.timers {
		if timer.Stop() {
			rm.pending--
		}
		delete(rm.timers, key)
	}
	rm.cond.Broadcast()
}

func (rm *retryManager) TotalRetries() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.totalRetries
}

func (rm *retryManager) SetContext(ctx context.Context) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if ctx == nil {
		rm.ctx = context.Background()
		return
	}
	rm.ctx = ctx
}
