package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"example.com/backstage/services/ingest/internal/models"
)

// Publisher delivers record events to an external system
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event models.RecordEvent) error
	Close() error
}

// Recorder receives delivery outcomes, usually the metrics collector
type Recorder interface {
	RecordSuccess(name string)
	RecordError(name string)
	IncrementCounter(name string)
}

// Dispatcher fans record events out to publishers on a background goroutine
// so request handlers never wait on external systems.
type Dispatcher struct {
	publishers     []Publisher
	recorder       Recorder
	queue          chan models.RecordEvent
	publishTimeout time.Duration
	running        bool
	mutex          sync.Mutex
	done           chan struct{}
}

// NewDispatcher creates a dispatcher with a bounded queue
func NewDispatcher(queueSize int, recorder Recorder, publishers ...Publisher) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		publishers:     publishers,
		recorder:       recorder,
		queue:          make(chan models.RecordEvent, queueSize),
		publishTimeout: 5 * time.Second,
		done:           make(chan struct{}),
	}
}

// Enabled reports whether any publisher is configured
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.publishers) > 0
}

// Start starts the delivery loop
func (d *Dispatcher) Start() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.running || !d.Enabled() {
		return
	}

	d.running = true
	go d.run()
}

// Dispatch queues an event. It never blocks; when the queue is full the
// event is dropped and counted.
func (d *Dispatcher) Dispatch(event models.RecordEvent) {
	if !d.Enabled() {
		return
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.running {
		return
	}

	select {
	case d.queue <- event:
	default:
		log.Warn().Str("type", event.Type).Str("id", event.RecordID).Msg("Event queue full, dropping event")
		if d.recorder != nil {
			d.recorder.IncrementCounter("events_dropped_total")
		}
	}
}

// Stop drains queued events, waits for the loop to exit and closes publishers
func (d *Dispatcher) Stop() {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return
	}
	d.running = false
	close(d.queue)
	d.mutex.Unlock()

	<-d.done

	for _, p := range d.publishers {
		if err := p.Close(); err != nil {
			log.Error().Err(err).Str("publisher", p.Name()).Msg("Failed to close publisher")
		}
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *Dispatcher) deliver(event models.RecordEvent) {
	for _, p := range d.publishers {
		ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
		err := p.Publish(ctx, event)
		cancel()

		metric := "publish_" + p.Name()
		if err != nil {
			log.Error().Err(err).
				Str("publisher", p.Name()).
				Str("type", event.Type).
				Str("id", event.RecordID).
				Msg("Failed to publish record event")
			if d.recorder != nil {
				d.recorder.RecordError(metric)
			}
			continue
		}
		if d.recorder != nil {
			d.recorder.RecordSuccess(metric)
		}
	}
}
