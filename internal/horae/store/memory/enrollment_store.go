package memory

import (
	"context"
	"sort"
	"sync"

	"horae/internal/horae/types"
)

// EnrollmentStore serves a fixed enrollment set from memory. Intended
// for tests and dev environments.
type EnrollmentStore struct {
	mu          sync.RWMutex
	enrollments []types.Enrollment
}

func NewEnrollmentStore(enrollments []types.Enrollment) *EnrollmentStore {
	s := &EnrollmentStore{}
	s.Replace(enrollments)
	return s
}

func (s *EnrollmentStore) LoadAll(_ context.Context) ([]types.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Enrollment, 0, len(s.enrollments))
	for _, e := range s.enrollments {
		// Partial rows (no template) are skipped, same as the SQL stores.
		if len(e.Template) == 0 {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Replace swaps the backing set. Test helper for exercising reloads.
func (s *EnrollmentStore) Replace(enrollments []types.Enrollment) {
	cp := make([]types.Enrollment, len(enrollments))
	copy(cp, enrollments)
	sort.Slice(cp, func(i, j int) bool { return cp[i].IdentityID < cp[j].IdentityID })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments = cp
}
