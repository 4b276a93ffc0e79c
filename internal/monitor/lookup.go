package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/blackwell-systems/deproductify/internal/classifier"
)

const (
	// failureBackoff is how long a context that failed to classify is left
	// alone before it is retried.
	failureBackoff = 30 * time.Second

	// maxLookups bounds the finished results kept in memory.
	maxLookups = 64
)

// lookup runs classifications off the tick path. At most one call is in
// flight; ticks only ever read finished results.
type lookup struct {
	cls     classifier.Classifier
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	results  map[string]classifier.Result
	failed   map[string]time.Time
	inflight string
	wg       sync.WaitGroup
}

func newLookup(cls classifier.Classifier, timeout time.Duration, now func() time.Time) *lookup {
	return &lookup{
		cls:     cls,
		timeout: timeout,
		now:     now,
		results: make(map[string]classifier.Result),
		failed:  make(map[string]time.Time),
	}
}

// get returns the finished classification of in if there is one. Otherwise it
// starts a background call, unless one is already running or this context
// failed recently, and reports false. It never waits on the classifier.
func (l *lookup) get(ctx context.Context, in classifier.Context) (classifier.Result, bool) {
	key := in.Key()

	l.mu.Lock()
	defer l.mu.Unlock()

	if r, ok := l.results[key]; ok {
		return r, true
	}
	if l.inflight != "" {
		return classifier.Result{}, false
	}
	if until, ok := l.failed[key]; ok && l.now().Before(until) {
		return classifier.Result{}, false
	}

	l.inflight = key
	l.wg.Add(1)
	go l.run(ctx, key, in)
	return classifier.Result{}, false
}

func (l *lookup) run(ctx context.Context, key string, in classifier.Context) {
	defer l.wg.Done()

	cctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	res, err := l.cls.Classify(cctx, in)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight = ""
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("fallback classification failed", "error", err, "retry_in", failureBackoff)
			l.failed[key] = l.now().Add(failureBackoff)
		}
		return
	}
	delete(l.failed, key)
	if len(l.results) >= maxLookups {
		clear(l.results)
	}
	l.results[key] = res
}

// wait blocks until the in-flight call, if any, has finished.
func (l *lookup) wait() {
	l.wg.Wait()
}
