package store

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/backstage/services/ingest/internal/models"
)

// RecordStore is the in-memory owner of all records.
// The list keeps insertion order; the map indexes into it.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]*list.Element
	order   *list.List
	now     func() time.Time
	newID   func() string
}

// Option customises a RecordStore
type Option func(*RecordStore)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *RecordStore) {
		s.now = now
	}
}

// WithIDGenerator overrides id generation
func WithIDGenerator(newID func() string) Option {
	return func(s *RecordStore) {
		s.newID = newID
	}
}

// NewRecordStore creates an empty store
func NewRecordStore(opts ...Option) *RecordStore {
	s := &RecordStore{
		records: make(map[string]*list.Element),
		order:   list.New(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new unprocessed record
func (s *RecordStore) Create(payload, metadata map[string]any) (models.Record, error) {
	if payload == nil {
		return models.Record{}, ErrInvalidPayload
	}

	record := &models.Record{
		ID:        s.newID(),
		Timestamp: s.now(),
		Data:      models.CloneObject(payload),
		Processed: false,
		Metadata:  models.CloneObject(metadata),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = s.order.PushBack(record)
	return record.Clone(), nil
}

// Get returns a snapshot of the record
func (s *RecordStore) Get(id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.records[id]
	if !ok {
		return models.Record{}, ErrNotFound
	}
	return el.Value.(*models.Record).Clone(), nil
}

// List returns at most limit records starting at offset, oldest first,
// together with the stats of the whole set taken under the same lock.
func (s *RecordStore) List(limit, offset int) ([]models.Record, models.Stats, error) {
	if limit < MinLimit || limit > MaxLimit || offset < 0 {
		return nil, models.Stats{}, ErrInvalidPagination
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0, min(limit, max(s.order.Len()-offset, 0)))
	i := 0
	for el := s.order.Front(); el != nil && len(out) < limit; el = el.Next() {
		if i >= offset {
			out = append(out, el.Value.(*models.Record).Clone())
		}
		i++
	}
	return out, s.stats(), nil
}

// Process marks the record processed. The bool reports whether this call
// made the transition; repeat calls return the stored state unchanged.
func (s *RecordStore) Process(id string) (models.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.records[id]
	if !ok {
		return models.Record{}, false, ErrNotFound
	}

	record := el.Value.(*models.Record)
	if record.Processed {
		return record.Clone(), false, nil
	}

	processed := *record
	ts := s.now()
	processed.Processed = true
	processed.ProcessingTimestamp = &ts
	processed.ProcessingResult = &models.ProcessingResult{
		Status:  models.ProcessingStatusSuccess,
		Message: models.ProcessingMessageSuccess,
	}
	el.Value = &processed

	return processed.Clone(), true, nil
}

// Delete removes the record and reports whether it existed
func (s *RecordStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.records[id]
	if !ok {
		return false
	}
	s.order.Remove(el)
	delete(s.records, id)
	return true
}

// Stats counts records at the time of the call
func (s *RecordStore) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats()
}

// stats requires s.mu to be held
func (s *RecordStore) stats() models.Stats {
	stats := models.Stats{Total: s.order.Len()}
	for el := s.order.Front(); el != nil; el = el.Next() {
		if el.Value.(*models.Record).Processed {
			stats.Processed++
		}
	}
	stats.Unprocessed = stats.Total - stats.Processed
	return stats
}
