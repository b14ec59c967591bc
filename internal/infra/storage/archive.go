package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

var ErrNotFound = errors.New("not found")

// ancho fijo para que el orden lexicográfico sea el cronológico
const sqliteStamp = "2006-01-02 15:04:05.000000000"

// Archive es el histórico de niveles jugados, compartido entre sesiones.
type Archive struct {
	db      *sql.DB
	dialect Dialect
}

func NewArchive(db *sql.DB, dialect Dialect) *Archive {
	return &Archive{db: db, dialect: dialect}
}

// rebind pasa los "?" a $n en Postgres.
func rebind(d Dialect, q string) string {
	if d != Postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (a *Archive) stamp(t time.Time) any {
	if a.dialect == SQLite {
		return t.UTC().Format(sqliteStamp)
	}
	return t.UTC()
}

// stampScanner acepta time.Time (pgx) o texto (sqlite).
type stampScanner struct{ t *time.Time }

func (s stampScanner) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*s.t = v.UTC()
		return nil
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	case nil:
		*s.t = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported timestamp %T", src)
}

func (s stampScanner) parse(v string) error {
	t, err := time.Parse(sqliteStamp, v)
	if err != nil {
		return err
	}
	*s.t = t
	return nil
}

func (a *Archive) RecordPlay(ctx context.Context, p domain.Play) error {
	if p.At.IsZero() {
		p.At = time.Now()
	}
	_, err := a.db.ExecContext(ctx, rebind(a.dialect, `
INSERT INTO plays (entry_id, kind, name, submitted_by, outcome, played_at)
VALUES (?,?,?,?,?,?)
`), p.EntryID, string(p.Kind), p.Name, p.SubmittedBy, string(p.Outcome), a.stamp(p.At))
	return err
}

// Recent devuelve las últimas partidas, la más nueva primero.
func (a *Archive) Recent(ctx context.Context, limit int) ([]domain.Play, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, rebind(a.dialect, `
SELECT entry_id, kind, name, submitted_by, outcome, played_at
  FROM plays
 ORDER BY played_at DESC, id DESC
 LIMIT ?
`), limit)
	if err != nil {
		return nil, err
	}
	return scanPlays(rows)
}

// PlaysForLevels trae el histórico de varios ids de una vez.
func (a *Archive) PlaysForLevels(ctx context.Context, ids []string) ([]domain.Play, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var (
		rows *sql.Rows
		err  error
	)
	const cols = `SELECT entry_id, kind, name, submitted_by, outcome, played_at FROM plays`
	if a.dialect == Postgres {
		rows, err = a.db.QueryContext(ctx, cols+`
 WHERE entry_id = ANY($1)
 ORDER BY played_at, id
`, pq.Array(ids))
	} else {
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		rows, err = a.db.QueryContext(ctx, cols+`
 WHERE entry_id IN (`+marks+`)
 ORDER BY played_at, id
`, args...)
	}
	if err != nil {
		return nil, err
	}
	return scanPlays(rows)
}

// Prune borra lo jugado antes de before.
func (a *Archive) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := a.db.ExecContext(ctx, rebind(a.dialect,
		`DELETE FROM plays WHERE played_at < ?`), a.stamp(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanPlays(rows *sql.Rows) ([]domain.Play, error) {
	defer rows.Close()
	var out []domain.Play
	for rows.Next() {
		var (
			p             domain.Play
			kind, outcome string
		)
		if err := rows.Scan(&p.EntryID, &kind, &p.Name, &p.SubmittedBy, &outcome, stampScanner{&p.At}); err != nil {
			return nil, err
		}
		p.Kind = domain.EntryKind(kind)
		p.Outcome = domain.Outcome(outcome)
		out = append(out, p)
	}
	return out, rows.Err()
}
