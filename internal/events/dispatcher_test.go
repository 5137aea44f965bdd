package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/ingest/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Name() string {
	return "mock"
}

func (m *MockPublisher) Publish(ctx context.Context, event models.RecordEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordSuccess(name string)    { m.Called(name) }
func (m *MockRecorder) RecordError(name string)      { m.Called(name) }
func (m *MockRecorder) IncrementCounter(name string) { m.Called(name) }

func TestDispatcherDeliversInOrder(t *testing.T) {
	pub := new(MockPublisher)
	rec := new(MockRecorder)

	var got []string
	pub.On("Publish", mock.Anything, mock.AnythingOfType("models.RecordEvent")).
		Run(func(args mock.Arguments) {
			got = append(got, args.Get(1).(models.RecordEvent).RecordID)
		}).
		Return(nil)
	pub.On("Close").Return(nil)
	rec.On("RecordSuccess", "publish_mock").Return()

	d := NewDispatcher(8, rec, pub)
	d.Start()
	for _, id := range []string{"a", "b", "c"} {
		d.Dispatch(models.RecordEvent{Type: models.EventRecordIngested, RecordID: id, OccurredAt: time.Now()})
	}
	d.Stop()

	require.Equal(t, []string{"a", "b", "c"}, got)
	pub.AssertExpectations(t)
	rec.AssertNumberOfCalls(t, "RecordSuccess", 3)
}

func TestDispatcherRecordsFailures(t *testing.T) {
	pub := new(MockPublisher)
	rec := new(MockRecorder)

	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	pub.On("Close").Return(nil)
	rec.On("RecordError", "publish_mock").Return()

	d := NewDispatcher(4, rec, pub)
	d.Start()
	d.Dispatch(models.RecordEvent{Type: models.EventRecordDeleted, RecordID: "x"})
	d.Stop()

	rec.AssertCalled(t, "RecordError", "publish_mock")
}

func TestDispatcherWithoutPublishersIsNoop(t *testing.T) {
	d := NewDispatcher(4, nil)
	require.False(t, d.Enabled())

	d.Start()
	d.Dispatch(models.RecordEvent{Type: models.EventRecordIngested, RecordID: "x"})
	d.Stop()
}

func TestDispatchAfterStopIsIgnored(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Close").Return(nil)

	d := NewDispatcher(4, nil, pub)
	d.Start()
	d.Stop()

	d.Dispatch(models.RecordEvent{Type: models.EventRecordIngested, RecordID: "late"})
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
