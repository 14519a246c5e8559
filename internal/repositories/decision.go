package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
)

// DecisionRepository implements [models.DecisionStore], the keep/remove ledger.
type DecisionRepository struct {
	db *sql.DB
	options
}

// NewDecisionRepository creates a new [DecisionRepository] with the given database connection
func NewDecisionRepository(db *sql.DB, opts ...Option) *DecisionRepository {
	return &DecisionRepository{db: db, options: newOptions(opts)}
}

const decisionColumns = `id, user_id, playlist_id, track_uri, name, artists, image_url, preview_url, external_url, kept, created_at, updated_at`

// Upsert inserts d, or overwrites the verdict and display fields of the record with the same
// (user, playlist, track uri). It reports whether a new record was created.
//
// The write is one statement; created is derived from whether the returned id is the one generated for the insert.
func (r *DecisionRepository) Upsert(ctx context.Context, d *models.Decision) (bool, error) {
	if err := d.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	artists, err := json.Marshal(nonNil(d.Artists))
	if err != nil {
		return false, fmt.Errorf("failed to encode artists: %w", err)
	}

	newID := shared.GenerateID()
	now := r.now().UTC()
	query := `
		INSERT INTO decisions (` + decisionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, playlist_id, track_uri) DO UPDATE SET
			name = excluded.name,
			artists = excluded.artists,
			image_url = excluded.image_url,
			preview_url = excluded.preview_url,
			external_url = excluded.external_url,
			kept = excluded.kept,
			updated_at = excluded.updated_at
		RETURNING id
	`

	var id string
	err = r.db.QueryRowContext(ctx, query,
		newID, d.UserID, d.PlaylistID, d.TrackURI, d.Name, string(artists),
		nullString(d.ImageURL), nullString(d.PreviewURL), nullString(d.ExternalURL),
		d.Kept, now, now,
	).Scan(&id)
	if err != nil {
		return false, fmt.Errorf("failed to upsert decision: %w", err)
	}

	created := id == newID
	d.ID = id
	d.UpdatedAt = now
	if created {
		d.CreatedAt = now
		return true, nil
	}

	if err := r.db.QueryRowContext(ctx, `SELECT created_at FROM decisions WHERE id = ?`, id).Scan(&d.CreatedAt); err != nil {
		return false, fmt.Errorf("failed to read decision: %w", err)
	}
	return false, nil
}

// Get retrieves a single decision by its natural key.
func (r *DecisionRepository) Get(ctx context.Context, userID, playlistID, trackURI string) (*models.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE user_id = ? AND playlist_id = ? AND track_uri = ?`

	d, err := scanDecision(r.db.QueryRowContext(ctx, query, userID, playlistID, trackURI))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: decision for %s", shared.ErrNotFound, trackURI)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query decision: %w", err)
	}
	return d, nil
}

// SetKept updates the verdict of an existing record, returning [shared.ErrNotFound] if there is none.
func (r *DecisionRepository) SetKept(ctx context.Context, userID, playlistID, trackURI string, kept bool) error {
	query := `
		UPDATE decisions
		SET kept = ?, updated_at = ?
		WHERE user_id = ? AND playlist_id = ? AND track_uri = ?
	`

	result, err := r.db.ExecContext(ctx, query, kept, r.now().UTC(), userID, playlistID, trackURI)
	if err != nil {
		return fmt.Errorf("failed to update decision: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: decision for %s", shared.ErrNotFound, trackURI)
	}
	return nil
}

// ListByPlaylist returns the user's records for a playlist, newest first.
//
// A nil kept returns both verdicts.
func (r *DecisionRepository) ListByPlaylist(ctx context.Context, userID, playlistID string, kept *bool) ([]*models.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE user_id = ? AND playlist_id = ?`
	args := []any{userID, playlistID}

	if kept != nil {
		query += ` AND kept = ?`
		args = append(args, *kept)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	decisions := []*models.Decision{}
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}
	return decisions, nil
}

// DeleteRemoved deletes every kept=false record of the playlist.
func (r *DecisionRepository) DeleteRemoved(ctx context.Context, userID, playlistID string) (int64, error) {
	return r.deleteByVerdict(ctx, userID, playlistID, false)
}

// DeleteKept deletes every kept=true record of the playlist, putting those tracks back in the review queue.
func (r *DecisionRepository) DeleteKept(ctx context.Context, userID, playlistID string) (int64, error) {
	return r.deleteByVerdict(ctx, userID, playlistID, true)
}

func (r *DecisionRepository) deleteByVerdict(ctx context.Context, userID, playlistID string, kept bool) (int64, error) {
	query := `DELETE FROM decisions WHERE user_id = ? AND playlist_id = ? AND kept = ?`

	result, err := r.db.ExecContext(ctx, query, userID, playlistID, kept)
	if err != nil {
		return 0, fmt.Errorf("failed to delete decisions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

// DeleteRemovedURIs deletes the kept=false records for exactly the given uris.
//
// Records flipped back to kept in the meantime are left alone.
func (r *DecisionRepository) DeleteRemovedURIs(ctx context.Context, userID, playlistID string, uris []string) (int64, error) {
	if len(uris) == 0 {
		return 0, nil
	}

	query := `DELETE FROM decisions WHERE user_id = ? AND playlist_id = ? AND kept = ? AND track_uri IN (` + placeholders(len(uris)) + `)`
	args := make([]any, 0, len(uris)+3)
	args = append(args, userID, playlistID, false)
	for _, uri := range uris {
		args = append(args, uri)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete decisions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

func scanDecision(row scanner) (*models.Decision, error) {
	var (
		d                                 models.Decision
		artists                           string
		imageURL, previewURL, externalURL sql.NullString
	)

	err := row.Scan(
		&d.ID, &d.UserID, &d.PlaylistID, &d.TrackURI, &d.Name, &artists,
		&imageURL, &previewURL, &externalURL, &d.Kept, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(artists), &d.Artists); err != nil {
		return nil, fmt.Errorf("failed to decode artists: %w", err)
	}
	d.ImageURL = imageURL.String
	d.PreviewURL = previewURL.String
	d.ExternalURL = externalURL.String
	return &d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
