package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ot-backend/internal/shared/metrics"
	"ot-backend/internal/shared/telemetry"
	"ot-backend/internal/shared/util"
)

// Middleware decorates a Client.
type Middleware func(Client) Client

// Chain wraps base with mws; the first middleware is the outermost.
func Chain(base Client, mws ...Middleware) Client {
	c := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			c = mws[i](c)
		}
	}
	return c
}

// WithTimeout bounds each completion by d. A deadline hit inside the call is
// reported as ErrTimeout.
func WithTimeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return ClientFunc(func(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
			callCtx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			out, err := next.Complete(callCtx, req)
			if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s: %v", ErrTimeout, d, err)
			}
			return out, err
		})
	}
}

// WithValidation checks the request before sending and the result against
// req.Schema after.
func WithValidation() Middleware {
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
			if err := req.Check(); err != nil {
				return nil, err
			}
			out, err := next.Complete(ctx, req)
			if err != nil {
				return nil, err
			}
			if err := req.Schema.Validate(out); err != nil {
				return nil, fmt.Errorf("%s: %w", req.SchemaName, err)
			}
			return out, nil
		})
	}
}

// WithCache memoizes successful completions in an LRU of the given size.
// A size of zero or less disables caching.
func WithCache(size int) Middleware {
	return func(next Client) Client {
		if size <= 0 {
			return next
		}
		cache, err := lru.New[string, json.RawMessage](size)
		if err != nil {
			telemetry.Warn("llm cache disabled", map[string]any{"error": err, "size": size})
			return next
		}
		return ClientFunc(func(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
			payload, err := req.PayloadText()
			if err != nil {
				return nil, err
			}
			key := util.HashKey(req.Model, req.SchemaName, string(req.Schema.JSON()), req.SystemPrompt, payload)
			if hit, ok := cache.Get(key); ok {
				metrics.IncCacheHit(req.SchemaName)
				return hit, nil
			}
			out, err := next.Complete(ctx, req)
			if err != nil {
				return nil, err
			}
			cache.Add(key, out)
			return out, nil
		})
	}
}

// WithMetrics records completion counts and latency per schema.
func WithMetrics() Middleware {
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
			start := time.Now()
			out, err := next.Complete(ctx, req)
			metrics.ObserveCompletion(req.SchemaName, Outcome(err), time.Since(start))
			return out, err
		})
	}
}

// WithTracing opens a span per completion.
func WithTracing(provider string) Middleware {
	tracer := otel.Tracer("ot-backend/llm")
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
			ctx, span := tracer.Start(ctx, "llm.complete")
			defer span.End()
			span.SetAttributes(
				attribute.String("llm.provider", provider),
				attribute.String("llm.schema", req.SchemaName),
				attribute.String("llm.model", req.Model),
			)
			out, err := next.Complete(ctx, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, Outcome(err))
				return nil, err
			}
			span.SetAttributes(attribute.Int("llm.response_bytes", len(out)))
			return out, nil
		})
	}
}

// WithLogging writes one line per completion.
func WithLogging(provider string) Middleware {
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
			start := time.Now()
			out, err := next.Complete(ctx, req)
			fields := map[string]any{
				"provider":    provider,
				"schema":      req.SchemaName,
				"outcome":     Outcome(err),
				"duration_ms": time.Since(start).Milliseconds(),
			}
			if id := telemetry.RequestIDFromContext(ctx); id != "" {
				fields["request_id"] = id
			}
			if req.Model != "" {
				fields["model"] = req.Model
			}
			if err != nil {
				fields["error"] = err
				telemetry.Error("llm completion failed", fields)
				return nil, err
			}
			telemetry.Info("llm completion", fields)
			return out, nil
		})
	}
}
