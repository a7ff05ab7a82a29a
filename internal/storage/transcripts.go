package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Transcript is one recorded conversation turn.
type Transcript struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	UserInput string    `json:"user_input"`
	Response  string    `json:"response"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptRepository handles transcript persistence.
type TranscriptRepository struct {
	db DB
}

// NewTranscriptRepository creates a new transcript repository.
func NewTranscriptRepository(db DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Save inserts a transcript, assigning an id and timestamp when unset.
func (r *TranscriptRepository) Save(ctx context.Context, t *Transcript) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transcripts (id, session_id, user_input, response, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID.String(), t.SessionID, t.UserInput, t.Response, t.Source, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

// ListBySession returns the most recent limit turns of a session, oldest
// first. A limit of zero or less returns every turn.
func (r *TranscriptRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]Transcript, error) {
	query := `
		SELECT id, session_id, user_input, response, source, created_at
		FROM transcripts
		WHERE session_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	var out []Transcript
	for rows.Next() {
		var t Transcript
		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserInput, &t.Response, &t.Source, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountBySource returns how many turns each pipeline stage answered.
func (r *TranscriptRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM transcripts GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("count transcripts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[source] = n
	}
	return out, rows.Err()
}
