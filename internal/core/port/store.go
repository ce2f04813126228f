package port

import "context"

// Store executes SQL against an underlying data store.
// Placeholders are "?" markers, bound positionally to args.
type Store interface {
	Query(ctx context.Context, sql string, args []any) ([]map[string]any, error)
	Close() error
}

// ConnectionSpec names a data store and how to reach it.
type ConnectionSpec struct {
	Name   string
	Driver string
	DSN    string
}

// StoreOpener opens a Store for a connection spec.
type StoreOpener interface {
	Open(ctx context.Context, spec ConnectionSpec) (Store, error)
}

// StoreOpenerFunc adapts a function to StoreOpener.
type StoreOpenerFunc func(ctx context.Context, spec ConnectionSpec) (Store, error)

func (f StoreOpenerFunc) Open(ctx context.Context, spec ConnectionSpec) (Store, error) {
	return f(ctx, spec)
}
