package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// EmbeddingGateway wraps an embedding service with bounded batches,
// retries with exponential backoff, optional pacing and parallel dispatch.
// Output vectors are always in input order.
type EmbeddingGateway struct {
	service    driven.EmbeddingService
	batchSize  int
	maxRetries int
	backoff    time.Duration
	workers    int
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
}

// GatewayOption configures an EmbeddingGateway.
type GatewayOption func(*EmbeddingGateway)

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *EmbeddingGateway) {
		g.sleep = fn
	}
}

// NewEmbeddingGateway creates a gateway over service using the batching and
// retry limits in cfg. Zero values fall back to defaults.
func NewEmbeddingGateway(service driven.EmbeddingService, cfg domain.EmbeddingSettings, opts ...GatewayOption) *EmbeddingGateway {
	g := &EmbeddingGateway{
		service:    service,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		workers:    cfg.Workers,
		sleep:      sleepContext,
	}
	if g.batchSize <= 0 {
		g.batchSize = domain.DefaultBatchSize
	}
	if g.maxRetries <= 0 {
		g.maxRetries = domain.DefaultMaxRetries
	}
	if g.backoff <= 0 {
		g.backoff = domain.DefaultRetryBackoff
	}
	if g.workers <= 0 {
		g.workers = domain.DefaultEmbeddingWorkers
	}
	if cfg.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dimensions returns the vector size the underlying service produces,
// or 0 when it is only known after the first call.
func (g *EmbeddingGateway) Dimensions() int {
	return g.service.Dimensions()
}

// ModelName returns the underlying embedding model.
func (g *EmbeddingGateway) ModelName() string {
	return g.service.ModelName()
}

// EmbedQuery embeds a single text.
func (g *EmbeddingGateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Embed returns one vector per text, in input order. A batch that still
// fails after the last retry aborts the whole call with
// domain.ErrEmbeddingService and no partial result.
func (g *EmbeddingGateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	batches := g.split(texts)
	logger.Debug("Embedding %d texts in %d batches of <= %d", len(texts), len(batches), g.batchSize)

	results := make([][][]float32, len(batches))
	var err error
	if g.workers > 1 && len(batches) > 1 {
		err = g.embedParallel(ctx, batches, results)
	} else {
		for i, batch := range batches {
			if results[i], err = g.embedBatch(ctx, i, batch); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for _, r := range results {
		out = append(out, r...)
	}

	if err := checkDimensions(out, g.service.Dimensions()); err != nil {
		return nil, err
	}
	return out, nil
}

// split cuts texts into consecutive batches of at most batchSize.
func (g *EmbeddingGateway) split(texts []string) [][]string {
	batches := make([][]string, 0, (len(texts)+g.batchSize-1)/g.batchSize)
	for start := 0; start < len(texts); start += g.batchSize {
		end := min(start+g.batchSize, len(texts))
		batches = append(batches, texts[start:end])
	}
	return batches
}

// embedParallel dispatches batches on a worker pool. The first failure
// cancels the remaining batches.
func (g *EmbeddingGateway) embedParallel(ctx context.Context, batches [][]string, results [][][]float32) error {
	pool, err := ants.NewPool(g.workers)
	if err != nil {
		return fmt.Errorf("%w: create worker pool: %w", domain.ErrEmbeddingService, err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, batch := range batches {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			vecs, err := g.embedBatch(ctx, i, batch)
			if err != nil {
				fail(err)
				return
			}
			results[i] = vecs
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("%w: submit batch %d: %w", domain.ErrEmbeddingService, i, submitErr))
			break
		}
	}

	wg.Wait()
	return firstErr
}

// embedBatch sends one batch, retrying with backoff*2^attempt between tries.
func (g *EmbeddingGateway) embedBatch(ctx context.Context, idx int, batch []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			wait := g.backoff << (attempt - 1)
			logger.Warn("Embedding batch %d failed (attempt %d/%d), retrying in %s: %v",
				idx, attempt, g.maxRetries, wait, lastErr)
			if err := g.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: batch %d: %w", domain.ErrEmbeddingService, idx, err)
			}
		}

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: batch %d: %w", domain.ErrEmbeddingService, idx, err)
			}
		}

		vecs, err := g.service.EmbedBatch(ctx, batch)
		if err == nil && len(vecs) != len(batch) {
			err = fmt.Errorf("got %d vectors for %d texts", len(vecs), len(batch))
		}
		if err == nil {
			return vecs, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: batch %d failed after %d attempts: %w",
		domain.ErrEmbeddingService, idx, g.maxRetries, lastErr)
}

// checkDimensions verifies every vector has the same length, and the
// expected one when known.
func checkDimensions(vecs [][]float32, expected int) error {
	if len(vecs) == 0 {
		return nil
	}
	if expected <= 0 {
		expected = len(vecs[0])
	}
	for i, v := range vecs {
		if len(v) != expected {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				domain.ErrEmbeddingService, i, len(v), expected)
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
