package docstore

import "context"

// BatchObserver receives the outcome of each batch write.
type BatchObserver interface {
	ObserveBatchWrite(outcome string)
}

// Instrument wraps a store so batch outcomes feed the observer.
func Instrument(store Store, observer BatchObserver) Store {
	if observer == nil {
		return store
	}
	return &instrumentedStore{Store: store, observer: observer}
}

type instrumentedStore struct {
	Store
	observer BatchObserver
}

func (s *instrumentedStore) BatchWrite(ctx context.Context, ops []Op) error {
	err := s.Store.BatchWrite(ctx, ops)
	if err != nil {
		s.observer.ObserveBatchWrite("aborted")
		return err
	}
	s.observer.ObserveBatchWrite("committed")
	return nil
}
