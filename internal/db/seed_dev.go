package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// KioskID is stamped into the seeded reader row so the dev kiosk
	// shows up immediately in reader status queries.
	KioskID string
}

// SeedDev provisions a couple of enrollments and the local reader so a
// fresh dev database can verify scans right away. Templates are plain
// marker bytes that the dev template matcher compares by equality.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC().UnixMilli()

	seed := []struct {
		id, name, group, template string
	}{
		{"S001", "Alice Reyes", "BSCS-3", "demo-template-S001"},
		{"S002", "Ben Ocampo", "BSIT-2", "demo-template-S002"},
	}

	for _, e := range seed {
		if _, err := db.ExecContext(ctx, `
INSERT INTO enrollments(
  identity_id, display_name, group_label, template, created_at_ms, updated_at_ms
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(identity_id) DO UPDATE SET
  display_name  = excluded.display_name,
  group_label   = excluded.group_label,
  template      = excluded.template,
  updated_at_ms = excluded.updated_at_ms;
`, e.id, e.name, e.group, []byte(e.template), now, now); err != nil {
			return fmt.Errorf("seed enrollment %s: %w", e.id, err)
		}
	}

	kiosk := opt.KioskID
	if kiosk == "" {
		kiosk = "kiosk-dev"
	}
	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO readers(reader_id, connected, created_at_ms, updated_at_ms)
VALUES (?, 0, ?, ?);
`, kiosk, now, now); err != nil {
		return fmt.Errorf("seed reader %s: %w", kiosk, err)
	}

	return nil
}
