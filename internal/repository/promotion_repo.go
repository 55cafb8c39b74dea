package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexfinity/hosting-gateway/internal/models"
)

type PromotionRepository struct {
	pool *pgxpool.Pool
}

func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

func (r *PromotionRepository) List(ctx context.Context) ([]models.Promotion, error) {
	query := `
		SELECT id, title, description, code, type, discount_value
		FROM promotions
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}
	defer rows.Close()

	var results []models.Promotion
	for rows.Next() {
		var p models.Promotion
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Code, &p.Type, &p.DiscountValue); err != nil {
			return nil, fmt.Errorf("scan promotion row: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// GetByCode matches codes case-insensitively.
func (r *PromotionRepository) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	query := `
		SELECT id, title, description, code, type, discount_value
		FROM promotions
		WHERE UPPER(code) = UPPER($1)
	`
	p := &models.Promotion{}
	err := r.pool.QueryRow(ctx, query, code).Scan(&p.ID, &p.Title, &p.Description, &p.Code, &p.Type, &p.DiscountValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan promotion: %w", err)
	}
	return p, nil
}
