package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	SetQueueMessageID(ctx context.Context, id, messageID string) error
	ClearQueueMessageID(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]Lead, error)
}

// InMemoryRepository is a Repository backed by a map, used in development and
// wherever no database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create creates a new lead in memory
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lead := &Lead{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Page:      req.Page,
		Source:    req.Source,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return lead, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}

	copied := *lead
	return &copied, nil
}

// SetQueueMessageID stores the delayed-queue job reference on a lead.
func (r *InMemoryRepository) SetQueueMessageID(ctx context.Context, id, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.QueueMessageID = messageID
	return nil
}

// ClearQueueMessageID removes the delayed-queue job reference from a lead.
func (r *InMemoryRepository) ClearQueueMessageID(ctx context.Context, id string) error {
	return r.SetQueueMessageID(ctx, id, "")
}

// List returns the most recent leads, newest first.
func (r *InMemoryRepository) List(ctx context.Context, limit int) ([]Lead, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		out = append(out, *lead)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
