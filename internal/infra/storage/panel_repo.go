package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PanelRepo recuerda el mensaje fijo con la cola en cada canal, para
// editarlo en vez de publicar uno nuevo tras un reinicio.
type PanelRepo struct {
	db      *sql.DB
	dialect Dialect
}

func NewPanelRepo(db *sql.DB, dialect Dialect) *PanelRepo {
	return &PanelRepo{db: db, dialect: dialect}
}

func (r *PanelRepo) Get(ctx context.Context, channelID string) (string, error) {
	var messageID string
	err := r.db.QueryRowContext(ctx, rebind(r.dialect, `
SELECT message_id FROM queue_panels WHERE channel_id = ?
`), channelID).Scan(&messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return messageID, err
}

func (r *PanelRepo) Upsert(ctx context.Context, channelID, messageID string) error {
	now := time.Now()
	var stamp any = now.UTC()
	if r.dialect == SQLite {
		stamp = now.UTC().Format(sqliteStamp)
	}
	_, err := r.db.ExecContext(ctx, rebind(r.dialect, `
INSERT INTO queue_panels (channel_id, message_id, updated_at)
VALUES (?,?,?)
ON CONFLICT (channel_id) DO UPDATE SET
  message_id = EXCLUDED.message_id,
  updated_at = EXCLUDED.updated_at
`), channelID, messageID, stamp)
	return err
}

func (r *PanelRepo) Delete(ctx context.Context, channelID string) error {
	_, err := r.db.ExecContext(ctx, rebind(r.dialect,
		`DELETE FROM queue_panels WHERE channel_id = ?`), channelID)
	return err
}
