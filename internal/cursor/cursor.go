// Package cursor streams a potentially unbounded, stably ordered result set
// in bounded pages, so a scan of thousands of pending submissions never
// materializes them all at once.
package cursor

import "context"

const DefaultPageSize = 100

// FetchFunc returns the next page of at most limit items whose sort key is
// strictly greater than afterKey. The underlying query must order by a stable
// monotonic key for resumption to be safe under concurrent writes.
type FetchFunc[T any] func(ctx context.Context, afterKey uint64, limit int) ([]T, error)

// KeyFunc extracts the monotonic sort key of an item.
type KeyFunc[T any] func(item T) uint64

// HandleFunc processes one page and may write. An error aborts consumption;
// per-item failures are the handler's responsibility to contain.
type HandleFunc[T any] func(ctx context.Context, page []T) error

// Process drains the cursor page by page until exhaustion, a fetch/handler
// error, or context cancellation.
func Process[T any](ctx context.Context, pageSize int, fetch FetchFunc[T], key KeyFunc[T], handle HandleFunc[T]) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var after uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := fetch(ctx, after, pageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		if err := handle(ctx, page); err != nil {
			return err
		}

		after = key(page[len(page)-1])
		if len(page) < pageSize {
			return nil
		}
	}
}
