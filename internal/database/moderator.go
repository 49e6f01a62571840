package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mvickers/guesslet/internal/models"
)

// ErrModeratorNotFound is returned when no moderator row matches a username.
var ErrModeratorNotFound = errors.New("moderator not found")

// GetModeratorByUsername fetches a single moderator row for login.
func (s *Store) GetModeratorByUsername(ctx context.Context, username string) (*models.Moderator, error) {
	var m models.Moderator
	q := `
	SELECT id, username, password_hash
	FROM moderators
	WHERE username=$1
	`
	err := s.pool.QueryRow(ctx, q, username).Scan(&m.ID, &m.Username, &m.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrModeratorNotFound
		}
		return nil, fmt.Errorf("failed to fetch moderator: %w", err)
	}
	return &m, nil
}
