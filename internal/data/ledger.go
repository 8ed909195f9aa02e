package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// ledgerRepo implements the moderation ledger on SQLite
type ledgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo opens or creates the ledger database
func NewLedgerRepo(dbPath string) (repo.LedgerRepo, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer avoids SQLITE_BUSY from concurrent handlers
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS moderation_actions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			message_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			branch TEXT NOT NULL,
			outcome TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			verdict TEXT NOT NULL DEFAULT '',
			attempts INTEGER NOT NULL DEFAULT 0,
			content TEXT NOT NULL DEFAULT '',
			deleted INTEGER NOT NULL DEFAULT 0,
			notified INTEGER NOT NULL DEFAULT 0,
			banned INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_moderation_actions_user ON moderation_actions(user_id, created_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &ledgerRepo{db: db}, nil
}

// Save appends a record and sets its ID
func (r *ledgerRepo) Save(ctx context.Context, rec *domain.ModerationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO moderation_actions (chat_id, message_id, user_id, user_name, branch, outcome, reason,
			verdict, attempts, content, deleted, notified, banned, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ChatID,
		rec.MessageID,
		rec.UserID,
		rec.UserName,
		string(rec.Branch),
		string(rec.Outcome),
		rec.Reason,
		string(rec.Verdict),
		rec.Attempts,
		rec.Content,
		rec.Deleted,
		rec.Notified,
		rec.Banned,
		rec.Error,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save moderation record: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

const ledgerColumns = `id, chat_id, message_id, user_id, user_name, branch, outcome, reason,
	verdict, attempts, content, deleted, notified, banned, error, created_at`

// ListRecent returns the newest records first
func (r *ledgerRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ModerationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM moderation_actions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query moderation records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByUser returns one user's records, newest first
func (r *ledgerRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.ModerationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+ledgerColumns+`
		FROM moderation_actions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query moderation records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// CleanupOld deletes records created before the cutoff
func (r *ledgerRepo) CleanupOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM moderation_actions WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup moderation records: %w", err)
	}
	return result.RowsAffected()
}

func (r *ledgerRepo) Close() error {
	return r.db.Close()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func scanRecords(rows *sql.Rows) ([]*domain.ModerationRecord, error) {
	var records []*domain.ModerationRecord
	for rows.Next() {
		var rec domain.ModerationRecord
		var branch, outcome, verdict string
		var createdAt int64
		err := rows.Scan(&rec.ID, &rec.ChatID, &rec.MessageID, &rec.UserID, &rec.UserName,
			&branch, &outcome, &rec.Reason, &verdict, &rec.Attempts, &rec.Content,
			&rec.Deleted, &rec.Notified, &rec.Banned, &rec.Error, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan moderation record: %w", err)
		}
		rec.Branch = domain.Branch(branch)
		rec.Outcome = domain.Outcome(outcome)
		rec.Verdict = domain.Verdict(verdict)
		rec.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
