// Package journal keeps a write-only audit trail of delivered avatars.
// Nothing here is read back into conversation state.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/avatarbot/core/logger"
)

// Generation is one delivered avatar.
type Generation struct {
	ID        uuid.UUID `db:"id"`
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	Style     string    `db:"style"`
	Size      int       `db:"size"`
	Seed      string    `db:"seed"`
	CreatedAt time.Time `db:"created_at"`
}

// Recorder appends generations to the journal.
type Recorder interface {
	Record(ctx context.Context, g Generation) error
}

// NopRecorder discards every record.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Generation) error { return nil }

// NamedExecer is satisfied by *sqlx.DB and *sqlx.Tx.
type NamedExecer interface {
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

const insertGeneration = `INSERT INTO avatar_generations (id, user_id, chat_id, style, size, seed, created_at)
VALUES (:id, :user_id, :chat_id, :style, :size, :seed, :created_at)`

// ErrNilDB is returned by NewPostgres without a database handle.
var ErrNilDB = errors.New("journal: nil database")

// PostgresRecorder writes generations to the avatar_generations table.
type PostgresRecorder struct {
	db    NamedExecer
	now   func() time.Time
	newID func() uuid.UUID
}

// NewPostgres returns a recorder that inserts through db.
func NewPostgres(db NamedExecer) (*PostgresRecorder, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	return &PostgresRecorder{db: db, now: time.Now, newID: uuid.New}, nil
}

// Record inserts g, filling ID and CreatedAt when they are zero.
func (r *PostgresRecorder) Record(ctx context.Context, g Generation) error {
	if g.ID == uuid.Nil {
		g.ID = r.newID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = r.now().UTC()
	}

	start := time.Now()
	_, err := r.db.NamedExecContext(ctx, insertGeneration, g)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("id", g.ID.String()),
		slog.String("style", g.Style),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if err != nil {
		logger.Warn(ctx, "journal", "journal.record", append(attrs, slog.String("err", err.Error()))...)
		return fmt.Errorf("journal: insert generation: %w", err)
	}
	logger.Debug(ctx, "journal", "journal.record", attrs...)
	return nil
}
