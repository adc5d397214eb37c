package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"letter-backend/internal/documents"
	"letter-backend/internal/shared/metrics"
	"letter-backend/internal/shared/telemetry"
)

// DefaultTimeout bounds a single adapter call.
const DefaultTimeout = 45 * time.Second

// Orchestrator tries adapters strictly in order until one returns text.
type Orchestrator struct {
	Adapters []Adapter
	// Timeout applies to each adapter call separately. Zero means DefaultTimeout.
	Timeout time.Duration
	// Cache is optional.
	Cache Cache
}

// Orchestrate runs the chain. Adapter failures never escape: they are folded
// into Result.Diagnostic. The returned error is non-nil only for an empty
// document or when ctx itself is done.
func (o *Orchestrator) Orchestrate(ctx context.Context, doc documents.Document, creds Credentials) (Result, error) {
	if doc.Size() == 0 {
		return Result{}, ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var cacheKey string
	if o.Cache != nil {
		cacheKey = CacheKey(doc)
		if cached, ok := o.lookup(ctx, cacheKey, doc, creds); ok {
			return cached, nil
		}
	}

	var diagnostics []string
	for _, adapter := range o.Adapters {
		method := adapter.Method()
		if err := adapter.Applicable(doc, creds); err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %v", method, err))
			metrics.IncExtraction(string(method), Outcome(err))
			continue
		}

		start := time.Now()
		text, err := o.attempt(ctx, adapter, doc, creds)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		if err == nil {
			text, err = nonEmpty(text)
		}
		metrics.IncExtraction(string(method), Outcome(err))
		telemetry.Info("extraction.attempt", map[string]any{
			"method":       string(method),
			"content_type": doc.ContentType,
			"outcome":      Outcome(err),
			"duration_ms":  time.Since(start).Milliseconds(),
		})
		if err != nil {
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %v", method, err))
			continue
		}

		res := Result{Text: text, Method: method, Diagnostic: strings.Join(diagnostics, "; ")}
		if o.Cache != nil {
			if err := o.Cache.Set(ctx, cacheKey, res); err != nil {
				telemetry.Warn("extraction.cache.set_failed", map[string]any{"error": err.Error()})
			}
		}
		return res, nil
	}

	if len(diagnostics) == 0 {
		diagnostics = append(diagnostics, "no extraction adapters configured")
	}
	return Result{Method: MethodNone, Diagnostic: strings.Join(diagnostics, "; ")}, nil
}

func (o *Orchestrator) attempt(ctx context.Context, adapter Adapter, doc documents.Document, creds Credentials) (string, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := adapter.Extract(attemptCtx, doc, creds)
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("%w: timed out after %s", ErrProviderUnavailable, timeout)
	}
	return text, err
}

// lookup serves a cached result only when the adapter that produced it is
// still in the chain and applicable for this caller.
func (o *Orchestrator) lookup(ctx context.Context, key string, doc documents.Document, creds Credentials) (Result, bool) {
	cached, ok, err := o.Cache.Get(ctx, key)
	if err != nil {
		telemetry.Warn("extraction.cache.get_failed", map[string]any{"error": err.Error()})
		return Result{}, false
	}
	if !ok || cached.Method == MethodNone || strings.TrimSpace(cached.Text) == "" {
		return Result{}, false
	}
	adapter := o.adapterFor(cached.Method)
	if adapter == nil {
		return Result{}, false
	}
	if err := adapter.Applicable(doc, creds); err != nil {
		telemetry.Info("extraction.cache.skipped", map[string]any{"method": string(cached.Method), "reason": err.Error()})
		return Result{}, false
	}
	telemetry.Info("extraction.cache.hit", map[string]any{"method": string(cached.Method)})
	return cached, true
}

func (o *Orchestrator) adapterFor(method Method) Adapter {
	for _, a := range o.Adapters {
		if a.Method() == method {
			return a
		}
	}
	return nil
}
