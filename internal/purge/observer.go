package purge

// Observer is notified after each batch is deleted or simulated.
type Observer interface {
	ObserveBatch(mode Mode, size int, dryRun bool)
}

type nopObserver struct{}

func (nopObserver) ObserveBatch(Mode, int, bool) {}
