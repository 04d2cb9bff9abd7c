package postgres

import (
	"context"
	"fmt"

	"horae/internal/horae/store"
	"horae/internal/horae/types"
)

// EnrollmentStore reads enrollments from the shared identity database.
type EnrollmentStore struct {
	db *DB
}

func NewEnrollmentStore(db *DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

func (s *EnrollmentStore) LoadAll(ctx context.Context) ([]types.Enrollment, error) {
	rows, err := s.db.pool.Query(ctx, `
SELECT identity_id, display_name, group_label, template
FROM enrollments
ORDER BY identity_id;
`)
	if err != nil {
		return nil, fmt.Errorf("%w: load enrollments: %v", store.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []types.Enrollment
	for rows.Next() {
		var (
			e        types.Enrollment
			template []byte
		)
		if err := rows.Scan(&e.IdentityID, &e.DisplayName, &e.GroupLabel, &template); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		// Partial rows without a template can never match; skip them.
		if len(template) == 0 {
			continue
		}
		e.Template = template
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load enrollments: %v", store.ErrStoreUnavailable, err)
	}
	return out, nil
}
