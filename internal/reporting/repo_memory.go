package reporting

import (
	"context"
	"sync"
	"time"

	"dialtrack/internal/contacts"
)

// MemoryRepo is a simple in-memory reporting repository for tests and early
// development.
type MemoryRepo struct {
	mu sync.Mutex

	Attempts []contacts.CallAttempt
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) ListAttempts(ctx context.Context, from, to time.Time, userID string) ([]contacts.CallAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]contacts.CallAttempt, 0)
	for _, a := range r.Attempts {
		if !a.CreatedAt.IsZero() {
			if a.CreatedAt.Before(from) || !a.CreatedAt.Before(to) {
				continue
			}
		}
		if userID != "" {
			if a.UserID == nil || *a.UserID != userID {
				continue
			}
		}
		out = append(out, a)
	}
	return out, nil
}
