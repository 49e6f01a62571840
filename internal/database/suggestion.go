package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mvickers/guesslet/internal/models"
)

// ListSuggestedFeatures returns all crowd-submitted questions still awaiting
// moderation.
func (s *Store) ListSuggestedFeatures(ctx context.Context) ([]models.SuggestedFeature, error) {
	q := `
	SELECT id, domain_name, feature_name, question_text, status
	FROM features
	WHERE status=$1
	ORDER BY feature_name
	`
	rows, err := s.pool.Query(ctx, q, models.StatusSuggested)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggested features: %w", err)
	}
	defer rows.Close()

	var features []models.SuggestedFeature
	for rows.Next() {
		var f models.SuggestedFeature
		if err := rows.Scan(&f.ID, &f.DomainName, &f.FeatureName, &f.QuestionText, &f.Status); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// ListSuggestedItems returns all crowd-submitted items awaiting moderation,
// joined with their domain names for display.
func (s *Store) ListSuggestedItems(ctx context.Context) ([]models.SuggestedItem, error) {
	q := `
	SELECT i.id, i.item_name, d.domain_name, i.status
	FROM items i
	JOIN domains d ON i.domain_id = d.id
	WHERE i.status=$1
	ORDER BY i.item_name
	`
	rows, err := s.pool.Query(ctx, q, models.StatusSuggested)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggested items: %w", err)
	}
	defer rows.Close()

	var items []models.SuggestedItem
	for rows.Next() {
		var i models.SuggestedItem
		if err := rows.Scan(&i.ID, &i.ItemName, &i.DomainName, &i.Status); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// ApproveFeature flips a suggested question to active.
func (s *Store) ApproveFeature(ctx context.Context, featureID uuid.UUID) error {
	q := `UPDATE features SET status=$1 WHERE id=$2`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, models.StatusActive, featureID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("no feature found with id %v", featureID)
		}
		return nil
	})
}

// RejectFeature deletes a suggested question.
func (s *Store) RejectFeature(ctx context.Context, featureID uuid.UUID) error {
	q := `DELETE FROM features WHERE id=$1`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, featureID)
		return err
	})
}

// ApproveItem flips a suggested item to active.
func (s *Store) ApproveItem(ctx context.Context, itemID uuid.UUID) error {
	q := `UPDATE items SET status=$1 WHERE id=$2`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, models.StatusActive, itemID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("no item found with id %v", itemID)
		}
		return nil
	})
}

// RejectItem deletes a suggested item along with its item_features links.
// Both deletes run in one transaction so a failure never strands orphans.
func (s *Store) RejectItem(ctx context.Context, itemID uuid.UUID) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM item_features WHERE item_id=$1`, itemID); err != nil {
			return fmt.Errorf("failed to delete item_features: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM items WHERE id=$1`, itemID); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return nil
	})
}
