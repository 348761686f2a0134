package purge

import (
	"iter"

	"s3purge/internal/domain"
)

// Batches regroups seq into slices of at most size items, cutting strictly at
// size regardless of how the store paged the listing. Every yielded slice is
// freshly allocated. An error from seq is passed through and ends the sequence.
func Batches[T any](seq iter.Seq2[T, error], size int) iter.Seq2[[]T, error] {
	if size <= 0 || size > domain.MaxBatchSize {
		size = domain.MaxBatchSize
	}
	return func(yield func([]T, error) bool) {
		batch := make([]T, 0, size)
		for item, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			batch = append(batch, item)
			if len(batch) == size {
				if !yield(batch, nil) {
					return
				}
				batch = make([]T, 0, size)
			}
		}
		if len(batch) > 0 {
			yield(batch, nil)
		}
	}
}
