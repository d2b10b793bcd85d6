package followup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/internal/qstash"
)

type fakeQueue struct {
	published    []fakePublish
	publishErr   error
	messageID    string
	deleted      []string
	deleteErr    error
}

type fakePublish struct {
	destination string
	payload     any
	delay       time.Duration
}

func (q *fakeQueue) PublishJSON(_ context.Context, destination string, payload any, delay time.Duration) (string, error) {
	if q.publishErr != nil {
		return "", q.publishErr
	}
	q.published = append(q.published, fakePublish{destination, payload, delay})
	if q.messageID == "" {
		return "msg_test", nil
	}
	return q.messageID, nil
}

func (q *fakeQueue) DeleteMessage(_ context.Context, messageID string) error {
	if q.deleteErr != nil {
		return q.deleteErr
	}
	q.deleted = append(q.deleted, messageID)
	return nil
}

func alwaysOpenWindow(t *testing.T) SendWindow {
	t.Helper()
	w, err := ParseSendWindow("19:00", "07:00", "America/New_York", true)
	require.NoError(t, err)
	return w
}

func storedLead(t *testing.T, repo leads.Repository, page string) leads.Lead {
	t.Helper()
	lead, err := repo.Create(context.Background(), &leads.CreateLeadRequest{
		Name:  "Jane Doe",
		Phone: "407-555-0100",
		Page:  page,
	})
	require.NoError(t, err)
	return *lead
}

func TestSendWindowGate(t *testing.T) {
	w, err := ParseSendWindow("19:00", "07:00", "UTC", false)
	require.NoError(t, err)

	evening := time.Date(2026, 3, 1, 20, 30, 0, 0, time.UTC)
	earlyMorning := time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC)
	midday := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, w.Allows(evening))
	assert.True(t, w.Allows(earlyMorning))
	assert.False(t, w.Allows(midday))

	w.Override = true
	assert.True(t, w.Allows(midday))
}

func TestParseSendWindowBadInput(t *testing.T) {
	_, err := ParseSendWindow("25:99", "07:00", "UTC", false)
	assert.Error(t, err)
	_, err = ParseSendWindow("19:00", "07:00", "Not/AZone", false)
	assert.Error(t, err)
}

func TestSchedulerPublishesAndPersists(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	lead := storedLead(t, repo, "offer")
	queue := &fakeQueue{messageID: "msg_abc"}
	s := NewScheduler(queue, repo, nil, SchedulerConfig{
		PublicBaseURL: "https://scalinghomeservices.com",
		Delay:         60 * time.Second,
		Window:        alwaysOpenWindow(t),
	}, nil, nil)

	id := s.Schedule(context.Background(), lead)
	assert.Equal(t, "msg_abc", id)

	require.Len(t, queue.published, 1)
	assert.Equal(t, "https://scalinghomeservices.com/api/send-sms", queue.published[0].destination)
	assert.Equal(t, 60*time.Second, queue.published[0].delay)
	payload, ok := queue.published[0].payload.(smsPayload)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", payload.Name)
	assert.Equal(t, "407-555-0100", payload.Phone)

	stored, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "msg_abc", stored.QueueMessageID)
}

func TestSchedulerIneligiblePage(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	lead := storedLead(t, repo, "pricingcalculator")
	queue := &fakeQueue{}
	s := NewScheduler(queue, repo, nil, SchedulerConfig{Window: alwaysOpenWindow(t)}, nil, nil)

	assert.Empty(t, s.Schedule(context.Background(), lead))
	assert.Empty(t, queue.published)
}

func TestSchedulerClosedWindow(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	lead := storedLead(t, repo, "home")
	queue := &fakeQueue{}
	w, err := ParseSendWindow("19:00", "07:00", "UTC", false)
	require.NoError(t, err)
	s := NewScheduler(queue, repo, nil, SchedulerConfig{Window: w}, nil, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	assert.Empty(t, s.Schedule(context.Background(), lead))
	assert.Empty(t, queue.published)
}

func TestSchedulerPublishFailureDoesNotPanic(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	lead := storedLead(t, repo, "home")
	queue := &fakeQueue{publishErr: errors.New("queue down")}
	s := NewScheduler(queue, repo, nil, SchedulerConfig{Window: alwaysOpenWindow(t)}, nil, nil)

	assert.Empty(t, s.Schedule(context.Background(), lead))

	stored, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.QueueMessageID)
}

func TestRedisDeduper(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	d := NewRedisDeduper(client, time.Minute)
	ctx := context.Background()

	first, err := d.FirstSchedule(ctx, "(407) 555-0100")
	require.NoError(t, err)
	assert.True(t, first)

	// Same digits, different formatting: still deduped.
	second, err := d.FirstSchedule(ctx, "407-555-0100")
	require.NoError(t, err)
	assert.False(t, second)

	mr.FastForward(2 * time.Minute)
	third, err := d.FirstSchedule(ctx, "4075550100")
	require.NoError(t, err)
	assert.True(t, third)
}

func TestSchedulerDeduped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := leads.NewInMemoryRepository()
	queue := &fakeQueue{}
	s := NewScheduler(queue, repo, NewRedisDeduper(client, time.Minute), SchedulerConfig{
		PublicBaseURL: "https://example.com",
		Window:        alwaysOpenWindow(t),
	}, nil, nil)

	first := storedLead(t, repo, "home")
	second := storedLead(t, repo, "home")

	assert.NotEmpty(t, s.Schedule(context.Background(), first))
	assert.Empty(t, s.Schedule(context.Background(), second))
	assert.Len(t, queue.published, 1)
}

func TestCancelPending(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	lead := storedLead(t, repo, "home")
	require.NoError(t, repo.SetQueueMessageID(context.Background(), lead.ID, "msg_1"))
	queue := &fakeQueue{}
	c := NewCanceller(queue, repo, nil, nil)

	res, err := c.Cancel(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Equal(t, "Jane Doe", res.LeadName)
	assert.Equal(t, []string{"msg_1"}, queue.deleted)

	stored, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.QueueMessageID)
}

func TestCancelIdempotent(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	lead := storedLead(t, repo, "home")
	require.NoError(t, repo.SetQueueMessageID(context.Background(), lead.ID, "msg_1"))
	c := NewCanceller(&fakeQueue{}, repo, nil, nil)

	first, err := c.Cancel(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, first.Outcome)

	second, err := c.Cancel(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothingToCancel, second.Outcome)
}

func TestCancelAlreadySentClearsReference(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	lead := storedLead(t, repo, "home")
	require.NoError(t, repo.SetQueueMessageID(context.Background(), lead.ID, "msg_1"))
	queue := &fakeQueue{deleteErr: qstash.ErrMessageNotFound}
	c := NewCanceller(queue, repo, nil, nil)

	res, err := c.Cancel(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadySent, res.Outcome)

	stored, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.QueueMessageID)
}

func TestCancelQueueFailureKeepsReference(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	lead := storedLead(t, repo, "home")
	require.NoError(t, repo.SetQueueMessageID(context.Background(), lead.ID, "msg_1"))
	queue := &fakeQueue{deleteErr: errors.New("queue down")}
	c := NewCanceller(queue, repo, nil, nil)

	_, err := c.Cancel(context.Background(), lead.ID)
	require.Error(t, err)

	stored, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "msg_1", stored.QueueMessageID)
}

func TestCancelUnknownLead(t *testing.T) {
	repo := leads.NewInMemoryRepository()
	c := NewCanceller(&fakeQueue{}, repo, nil, nil)

	_, err := c.Cancel(context.Background(), "missing")
	assert.True(t, errors.Is(err, leads.ErrLeadNotFound))
}
