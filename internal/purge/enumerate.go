package purge

import (
	"context"
	"iter"

	"s3purge/internal/domain"
	"s3purge/internal/storage"
)

// Enumerate lazily walks every page the lister returns. Each range over the
// returned sequence starts a fresh listing. A failed page yields one error and
// ends the sequence; nothing is retried.
func Enumerate[T domain.Descriptor](ctx context.Context, l Lister[T], bucket, prefix string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var (
			zero  T
			token *storage.PageToken
		)
		for {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			items, next, err := l.ListPage(ctx, bucket, prefix, token)
			if err != nil {
				yield(zero, err)
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}

			if next == nil {
				return
			}
			token = next
		}
	}
}
