package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"bibliophage/internal/contextutil"
	"bibliophage/internal/domain"
	"bibliophage/internal/metrics"
	"bibliophage/internal/retry"
)

// GatewayConfig tunes batching and failure handling of the Gateway.
type GatewayConfig struct {
	BatchSize         int
	Concurrency       int
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64 // 0 disables rate limiting
}

// DefaultGatewayConfig returns conservative defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		BatchSize:      32,
		Concurrency:    2,
		MaxRetries:     4,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
	}
}

// Gateway embeds texts through a Provider. It splits input into batches,
// retries transient provider failures with exponential backoff, and stops
// calling a provider that keeps failing. It holds no per-request state.
type Gateway struct {
	provider   Provider
	dimensions int
	cfg        GatewayConfig
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Metrics
}

// NewGateway creates a Gateway producing vectors of the given dimensionality.
func NewGateway(provider Provider, dimensions int, cfg GatewayConfig, m *metrics.Metrics) *Gateway {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "EmbeddingProvider",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.8
		},
		// Only transient failures count against the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Gateway{
		provider:   provider,
		dimensions: dimensions,
		cfg:        cfg,
		limiter:    limiter,
		breaker:    breaker,
		metrics:    m,
	}
}

// Dimensions returns the fixed vector size.
func (g *Gateway) Dimensions() int {
	return g.dimensions
}

// EmbedBatch returns one vector per text, in input order. Either every text
// is embedded or an error is returned; exhausted retries or a tripped
// breaker surface as domain.ErrEmbeddingUnavailable.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, len(texts))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(g.cfg.Concurrency)

	for start := 0; start < len(texts); start += g.cfg.BatchSize {
		end := min(start+g.cfg.BatchSize, len(texts))
		group.Go(func() error {
			vectors, err := g.embedOne(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return out, nil
}

// EmbedQuery embeds a single search query.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Probe embeds a fixed string and checks the provider's dimensionality.
// A mismatch is a configuration error.
func (g *Gateway) Probe(ctx context.Context) error {
	vectors, err := g.provider.EmbedTexts(ctx, []string{"dimension probe"})
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != g.dimensions {
		got := 0
		if len(vectors) > 0 {
			got = len(vectors[0])
		}
		return fmt.Errorf("%w: embedding vector size mismatch: expected %d, got %d", domain.ErrInvalidConfiguration, g.dimensions, got)
	}
	return nil
}

func (g *Gateway) embedOne(ctx context.Context, batch []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)
	policy := retry.Policy{
		MaxRetries:      g.cfg.MaxRetries,
		InitialInterval: g.cfg.InitialBackoff,
		MaxInterval:     g.cfg.MaxBackoff,
	}

	onRetry := func(err error, wait time.Duration) {
		g.metrics.EmbeddingRetry()
		logger.WarnContext(ctx, "retrying embedding batch", "size", len(batch), "wait", wait, "error", err)
	}

	vectors, err := retry.Value(ctx, policy, isTransient, onRetry, func(ctx context.Context) ([][]float32, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		result, err := g.breaker.Execute(func() (interface{}, error) {
			return g.provider.EmbedTexts(ctx, batch)
		})
		if err != nil {
			g.metrics.EmbeddingCall("error")
			return nil, err
		}
		g.metrics.EmbeddingCall("ok")
		return result.([][]float32), nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.ErrorContext(ctx, "embedding batch failed", "size", len(batch), "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	if len(vectors) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbeddingUnavailable, len(batch), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != g.dimensions {
			return nil, fmt.Errorf("%w: embedding %d has size %d, expected %d", domain.ErrEmbeddingUnavailable, i, len(v), g.dimensions)
		}
	}
	return vectors, nil
}

// isTransient classifies provider failures: timeouts, rate limiting, server
// errors and transport failures are retried, everything else is final.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}

	// Remaining errors come from the transport: timeouts, resets, EOF.
	return true
}
