package castlib

import "context"

// Fetcher is the cast manager's narrow view of the "fetcher" collaborator
// named in spec.md §6: it never touches sockets directly. The spec's
// fetch/poll pair collapses into one blocking, cancellable call here —
// idiomatic Go concurrency (goroutines + context) replaces manual
// polling; an implementation that only has a task-id/poll API underneath
// can still satisfy this by polling internally.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
