package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

type recordedSleeps struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	return nil
}

func gatewaySettings(batch, retries, workers int) domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		BatchSize:    batch,
		MaxRetries:   retries,
		RetryBackoff: time.Second,
		Workers:      workers,
	}
}

func texts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("chunk number %d", i)
	}
	return out
}

func TestEmbeddingGateway_BatchSizeBound(t *testing.T) {
	svc := newMockEmbedding(8)
	g := NewEmbeddingGateway(svc, gatewaySettings(4, 3, 1))

	vecs, err := g.Embed(context.Background(), texts(10))

	require.NoError(t, err)
	assert.Len(t, vecs, 10)
	assert.Equal(t, []int{4, 4, 2}, svc.batchLens)
	for _, n := range svc.batchLens {
		assert.LessOrEqual(t, n, 4)
	}
}

func TestEmbeddingGateway_OrderPreserved(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			svc := newMockEmbedding(8)
			g := NewEmbeddingGateway(svc, gatewaySettings(2, 3, workers))
			in := texts(9)

			vecs, err := g.Embed(context.Background(), in)

			require.NoError(t, err)
			require.Len(t, vecs, len(in))
			for i, text := range in {
				assert.Equal(t, svc.vector(text), vecs[i], "vector %d out of order", i)
			}
		})
	}
}

func TestEmbeddingGateway_RetriesWithBackoff(t *testing.T) {
	svc := newMockEmbedding(4)
	svc.failFirst = 2
	rec := &recordedSleeps{}
	g := NewEmbeddingGateway(svc, gatewaySettings(4, 3, 1), WithSleep(rec.sleep))

	vecs, err := g.Embed(context.Background(), texts(3))

	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 3, svc.callCount())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.sleeps)
}

func TestEmbeddingGateway_RetriesExhausted(t *testing.T) {
	svc := newMockEmbedding(4)
	svc.err = errors.New("429 too many requests")
	rec := &recordedSleeps{}
	g := NewEmbeddingGateway(svc, gatewaySettings(4, 3, 1), WithSleep(rec.sleep))

	vecs, err := g.Embed(context.Background(), texts(6))

	assert.Nil(t, vecs, "no partial results")
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.ErrorContains(t, err, "429 too many requests")
	assert.Equal(t, 3, svc.callCount(), "second batch is never sent")
}

func TestEmbeddingGateway_ParallelFailureAborts(t *testing.T) {
	svc := newMockEmbedding(4)
	svc.err = errors.New("boom")
	g := NewEmbeddingGateway(svc, gatewaySettings(1, 2, 4), WithSleep(func(context.Context, time.Duration) error { return nil }))

	vecs, err := g.Embed(context.Background(), texts(8))

	assert.Nil(t, vecs)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestEmbeddingGateway_EmptyInput(t *testing.T) {
	svc := newMockEmbedding(4)
	g := NewEmbeddingGateway(svc, gatewaySettings(4, 3, 1))

	vecs, err := g.Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Zero(t, svc.callCount())
}

type wrongDimsEmbedding struct{ *mockEmbedding }

func (w wrongDimsEmbedding) Dimensions() int { return w.dims + 1 }

func TestEmbeddingGateway_DimensionMismatch(t *testing.T) {
	g := NewEmbeddingGateway(wrongDimsEmbedding{newMockEmbedding(4)}, gatewaySettings(4, 1, 1))

	_, err := g.Embed(context.Background(), texts(2))

	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.ErrorContains(t, err, "dimension 4, expected 5")
}

func TestEmbeddingGateway_EmbedQuery(t *testing.T) {
	svc := newMockEmbedding(4)
	g := NewEmbeddingGateway(svc, domain.EmbeddingSettings{})

	vec, err := g.EmbedQuery(context.Background(), "what is RAG?")

	require.NoError(t, err)
	assert.Equal(t, svc.vector("what is RAG?"), vec)
	assert.Equal(t, 4, g.Dimensions())
	assert.Equal(t, "mock-embed", g.ModelName())
}

func TestEmbeddingGateway_CancelledDuringBackoff(t *testing.T) {
	svc := newMockEmbedding(4)
	svc.err = errors.New("down")
	ctx, cancel := context.WithCancel(context.Background())
	g := NewEmbeddingGateway(svc, gatewaySettings(4, 3, 1), WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := g.Embed(ctx, texts(1))

	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, svc.callCount())
}

func TestEmbeddingGateway_RateLimited(t *testing.T) {
	svc := newMockEmbedding(4)
	cfg := gatewaySettings(1, 1, 1)
	cfg.RequestsPerSecond = 1000

	g := NewEmbeddingGateway(svc, cfg)
	require.NotNil(t, g.limiter)

	_, err := g.Embed(context.Background(), texts(3))
	require.NoError(t, err)
	assert.Equal(t, 3, svc.callCount())
}
