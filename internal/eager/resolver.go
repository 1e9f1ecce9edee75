package eager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
)

// RowLoader runs a Select and materializes each row as an item of entity.
// store.Store implements it.
type RowLoader interface {
	Load(ctx context.Context, sel *queryir.Select, entity string) ([]any, error)
}

// TraceIDGenerator creates the id that correlates the log lines of one
// Resolve call.
type TraceIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 trace ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Resolver loads include paths into materialized items.
//
// Thread-safety: a Resolver holds no per-call state and is safe for
// concurrent use when its provider, accessor and loader are.
type Resolver struct {
	provider mapping.Provider
	accessor mapping.Accessor
	loader   RowLoader
	logger   *slog.Logger
	traces   TraceIDGenerator
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for hop diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithTraceIDGenerator sets the trace id source. Tests use a fixed one.
func WithTraceIDGenerator(g TraceIDGenerator) Option {
	return func(r *Resolver) {
		r.traces = g
	}
}

// NewResolver creates a Resolver.
func NewResolver(provider mapping.Provider, accessor mapping.Accessor, loader RowLoader, opts ...Option) *Resolver {
	r := &Resolver{
		provider: provider,
		accessor: accessor,
		loader:   loader,
		logger:   slog.Default(),
		traces:   UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveIncludes loads paths into items with a one-off Resolver.
//
// items are the materialized rows of base, whose main entity is root.
func ResolveIncludes(ctx context.Context, base *queryir.Select, root string, items []any,
	paths []string, provider mapping.Provider, accessor mapping.Accessor, loader RowLoader) error {
	return NewResolver(provider, accessor, loader).Resolve(ctx, base, root, items, paths)
}

// Resolve loads every include path into items, the materialized rows of
// base.
//
// Every path segment is resolved before the first round trip, so a bad
// path fails without touching the loader. Each distinct hop then costs one
// Load call; an empty items slice costs none. The first loader error
// aborts the remaining hops.
func (r *Resolver) Resolve(ctx context.Context, base *queryir.Select, root string, items []any, paths []string) error {
	if base == nil {
		return ir.NewInvalidArgumentError("base", "base select is nil")
	}
	switch {
	case r.provider == nil:
		return ir.NewInvalidArgumentError("provider", "mapping provider is nil")
	case r.accessor == nil:
		return ir.NewInvalidArgumentError("accessor", "mapping accessor is nil")
	case r.loader == nil:
		return ir.NewInvalidArgumentError("loader", "row loader is nil")
	}
	normalized, err := normalizePaths(paths)
	if err != nil {
		return err
	}
	hops, err := plan(root, normalized, r.provider)
	if err != nil {
		return err
	}
	if len(hops) == 0 || len(items) == 0 {
		return nil
	}

	logger := r.logger.With("trace_id", r.traces.Generate())
	trips := 0
	for _, h := range hops {
		q, err := firstQuery(base, h, r.provider)
		if err != nil {
			return err
		}
		n, err := r.load(ctx, logger, h, q, items)
		trips += n
		if err != nil {
			return err
		}
	}

	logger.Info("resolved includes", "root", root, "paths", normalized, "round_trips", trips)
	return nil
}

// load fetches one hop, stitches it into parents and descends into the
// hop's children. It returns the number of round trips made.
func (r *Resolver) load(ctx context.Context, logger *slog.Logger, h *hop, q hopQuery, parents []any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("include %s: %w", h.path, err)
	}

	logger.Debug("loading include", "path", h.path, "entity", h.related, "parents", len(parents))
	rows, err := r.loader.Load(ctx, q.sel, h.related)
	if err != nil {
		return 1, fmt.Errorf("include %s: %w", h.path, err)
	}
	logger.Debug("loaded include", "path", h.path, "rows", len(rows))

	if err := stitch(h, parents, rows, r.accessor); err != nil {
		return 1, err
	}

	trips := 1
	for _, child := range h.children {
		cq, err := extendQuery(q, child, r.provider)
		if err != nil {
			return trips, err
		}
		n, err := r.load(ctx, logger, child, cq, rows)
		trips += n
		if err != nil {
			return trips, err
		}
	}
	return trips, nil
}
