package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/prune/internal/models"
	"github.com/desertthunder/prune/internal/shared"
)

// CredentialRepository implements [models.CredentialStore] for [models.Credential] persistence.
type CredentialRepository struct {
	db *sql.DB
	options
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB, opts ...Option) *CredentialRepository {
	return &CredentialRepository{db: db, options: newOptions(opts)}
}

// Get retrieves the credential for userID, or [shared.ErrNoCredential] when the user never connected.
func (r *CredentialRepository) Get(ctx context.Context, userID string) (*models.Credential, error) {
	query := `
		SELECT user_id, access_token, refresh_token, scope, expires_at, created_at, updated_at
		FROM credentials
		WHERE user_id = ?
	`

	cred, err := scanCredential(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoCredential, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}
	return cred, nil
}

// Save inserts the credential or replaces the tokens of an existing one in a single statement.
//
// CreatedAt of an existing row is preserved.
func (r *CredentialRepository) Save(ctx context.Context, cred *models.Credential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := r.now().UTC()
	query := `
		INSERT INTO credentials (user_id, access_token, refresh_token, scope, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			scope = excluded.scope,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		cred.UserID, cred.AccessToken, cred.RefreshToken, cred.Scope, nullTime(cred.ExpiresAt), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	return nil
}

// Delete removes the user's credential. Deleting a missing credential is not an error.
func (r *CredentialRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func scanCredential(row scanner) (*models.Credential, error) {
	var (
		cred      models.Credential
		expiresAt sql.NullTime
	)

	err := row.Scan(
		&cred.UserID, &cred.AccessToken, &cred.RefreshToken, &cred.Scope, &expiresAt, &cred.CreatedAt, &cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		t := expiresAt.Time
		cred.ExpiresAt = &t
	}
	return &cred, nil
}
