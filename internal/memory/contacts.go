package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dukerupert/bakehouse/internal/domain"
	"github.com/google/uuid"
)

// ContactStore implements domain.ContactRepository.
type ContactStore struct {
	mu          sync.RWMutex
	submissions []domain.ContactSubmission
	now         func() time.Time
}

var _ domain.ContactRepository = (*ContactStore)(nil)

func NewContactStore() *ContactStore {
	return &ContactStore{now: time.Now}
}

func (s *ContactStore) Create(ctx context.Context, sub domain.ContactSubmission) (*domain.ContactSubmission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = uuid.New()
	sub.CreatedAt = s.now().UTC()
	sub.Phone = copyString(sub.Phone)
	s.submissions = append(s.submissions, sub)

	out := sub
	return &out, nil
}

// All returns every stored submission, oldest first.
func (s *ContactStore) All() []domain.ContactSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.submissions)
}
