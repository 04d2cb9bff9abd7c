package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"horae/internal/horae/store"
	"horae/internal/horae/types"
)

type EnrollmentStore struct {
	db *sql.DB
}

func NewEnrollmentStore(db *sql.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

// LoadAll reads the full enrollment set in identity order. Rows with a
// missing template are skipped rather than failing the whole load.
func (s *EnrollmentStore) LoadAll(ctx context.Context) ([]types.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `
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
