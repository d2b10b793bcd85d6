package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDispatcher struct {
	name   string
	delay  time.Duration
	result Result
	panics bool
}

func (s *stubDispatcher) Name() string { return s.name }

func (s *stubDispatcher) Dispatch(ctx context.Context, evt Event) Result {
	if s.panics {
		panic("boom")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	res := s.result
	res.Service = s.name
	return res
}

func TestFanOutCollectsAllResults(t *testing.T) {
	f := NewFanOut([]Dispatcher{
		&stubDispatcher{name: "clickup", result: Result{Status: StatusOK, TaskID: "t1"}},
		&stubDispatcher{name: "openphone", result: Result{Status: StatusSkipped, Error: "not configured"}},
		&stubDispatcher{name: "telegram", result: Result{Status: StatusFailed, Error: "http 500"}},
	}, 2*time.Second, nil, nil)

	results, timedOut := f.Run(context.Background(), Event{Page: "home"})
	require.False(t, timedOut)
	require.Len(t, results, 3)

	byService := map[string]Result{}
	for _, r := range results {
		byService[r.Service] = r
	}
	assert.Equal(t, StatusOK, byService["clickup"].Status)
	assert.Equal(t, "t1", byService["clickup"].TaskID)
	assert.Equal(t, StatusSkipped, byService["openphone"].Status)
	assert.Equal(t, StatusFailed, byService["telegram"].Status)
}

func TestFanOutPanicDoesNotSinkSiblings(t *testing.T) {
	f := NewFanOut([]Dispatcher{
		&stubDispatcher{name: "meta", panics: true},
		&stubDispatcher{name: "ghl", result: Result{Status: StatusOK, ContactID: "c1"}},
	}, 2*time.Second, nil, nil)

	results, timedOut := f.Run(context.Background(), Event{})
	require.False(t, timedOut)
	require.Len(t, results, 2)

	byService := map[string]Result{}
	for _, r := range results {
		byService[r.Service] = r
	}
	assert.Equal(t, StatusFailed, byService["meta"].Status)
	assert.Equal(t, StatusOK, byService["ghl"].Status)
	assert.Equal(t, "c1", byService["ghl"].ContactID)
}

func TestFanOutTimeoutReturnsPartialResults(t *testing.T) {
	f := NewFanOut([]Dispatcher{
		&stubDispatcher{name: "fast", result: Result{Status: StatusOK}},
		&stubDispatcher{name: "slow", delay: 5 * time.Second, result: Result{Status: StatusOK}},
	}, 100*time.Millisecond, nil, nil)

	results, timedOut := f.Run(context.Background(), Event{})
	assert.True(t, timedOut)
	require.Len(t, results, 1)
	assert.Equal(t, "fast", results[0].Service)
}

func TestFanOutNoDispatchers(t *testing.T) {
	f := NewFanOut(nil, time.Second, nil, nil)
	results, timedOut := f.Run(context.Background(), Event{})
	assert.False(t, timedOut)
	assert.Empty(t, results)
}
