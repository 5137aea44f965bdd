package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ingest/internal/models"
	"example.com/backstage/services/ingest/internal/store"
	"example.com/backstage/services/ingest/internal/tracing"
)

// Input errors
var (
	ErrInvalidData     = errors.New("Invalid data: data must be an object")
	ErrInvalidMetadata = errors.New("Invalid metadata: metadata must be an object")
)

// EventSink receives record lifecycle events
type EventSink interface {
	Dispatch(event models.RecordEvent)
}

// Counter receives business counters
type Counter interface {
	IncrementCounter(name string)
}

// RecordService applies the record lifecycle on top of the store
type RecordService struct {
	store   *store.RecordStore
	events  EventSink
	counter Counter
	now     func() time.Time
}

// NewRecordService creates a record service. events and counter may be nil.
func NewRecordService(s *store.RecordStore, events EventSink, counter Counter) *RecordService {
	return &RecordService{
		store:   s,
		events:  events,
		counter: counter,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ingest stores data as a new record. data must be a JSON object; metadata,
// when given, must be one too.
func (s *RecordService) Ingest(ctx context.Context, data any, metadata any) (models.Record, error) {
	payload, ok := data.(map[string]any)
	if !ok || payload == nil {
		return models.Record{}, ErrInvalidData
	}

	var meta map[string]any
	if metadata != nil {
		if meta, ok = metadata.(map[string]any); !ok {
			return models.Record{}, ErrInvalidMetadata
		}
	}

	end := tracing.StartSegment(ctx, "store.Create")
	record, err := s.store.Create(payload, meta)
	end()
	if err != nil {
		return models.Record{}, errors.Wrap(err, "failed to create record")
	}

	log.Info().Str("id", record.ID).Msg("ingested")
	tracing.AddAttribute(ctx, "record_id", record.ID)
	s.count("records_ingested_total")
	s.publish(models.EventRecordIngested, record.ID, &record)

	return record, nil
}

// Process marks a record processed. Repeat calls return the record unchanged.
func (s *RecordService) Process(ctx context.Context, id string) (models.Record, error) {
	tracing.AddAttribute(ctx, "record_id", id)

	end := tracing.StartSegment(ctx, "store.Process")
	record, transitioned, err := s.store.Process(id)
	end()
	if err != nil {
		return models.Record{}, err
	}

	if transitioned {
		log.Info().Str("id", id).Msg("processed")
		s.count("records_processed_total")
		s.publish(models.EventRecordProcessed, id, &record)
	} else {
		log.Debug().Str("id", id).Msg("record already processed")
	}

	return record, nil
}

// Get returns one record
func (s *RecordService) Get(ctx context.Context, id string) (models.Record, error) {
	tracing.AddAttribute(ctx, "record_id", id)
	return s.store.Get(id)
}

// List returns a page of records together with the current stats
func (s *RecordService) List(ctx context.Context, limit, offset int) ([]models.Record, models.Stats, error) {
	end := tracing.StartSegment(ctx, "store.List")
	defer end()

	return s.store.List(limit, offset)
}

// Delete removes a record
func (s *RecordService) Delete(ctx context.Context, id string) error {
	tracing.AddAttribute(ctx, "record_id", id)

	if !s.store.Delete(id) {
		return store.ErrNotFound
	}

	log.Info().Str("id", id).Msg("deleted")
	s.count("records_deleted_total")
	s.publish(models.EventRecordDeleted, id, nil)
	return nil
}

// Stats returns the current record counts
func (s *RecordService) Stats() models.Stats {
	return s.store.Stats()
}

func (s *RecordService) count(name string) {
	if s.counter != nil {
		s.counter.IncrementCounter(name)
	}
}

func (s *RecordService) publish(eventType, id string, record *models.Record) {
	if s.events == nil {
		return
	}
	if record != nil {
		snapshot := record.Clone()
		record = &snapshot
	}
	s.events.Dispatch(models.RecordEvent{
		Type:       eventType,
		RecordID:   id,
		OccurredAt: s.now(),
		Record:     record,
	})
}
