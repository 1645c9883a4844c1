package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bmanav26/E-Commerce/internal/domain"
	"github.com/bmanav26/E-Commerce/pkg/database"
	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO product_reviews (id, product_id, user_id, name, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "reviews.Create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Name,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// Update replaces the rating and comment of an existing review.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) (err error) {
	review.UpdatedAt = time.Now().UTC()

	query := `UPDATE product_reviews SET rating = $1, comment = $2, updated_at = $3 WHERE id = $4`

	ctx, end := database.TraceQuery(ctx, "reviews.Update", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, review.Rating, review.Comment, review.UpdatedAt, review.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}

	return nil
}

// ListByProductID returns every review for the product, newest first.
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID string) (_ []domain.Review, err error) {
	query := `
		SELECT id, product_id, user_id, name, rating, comment, created_at, updated_at
		FROM product_reviews
		WHERE product_id = $1
		ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "reviews.ListByProductID", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.Name,
			&rv.Rating,
			&rv.Comment,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}
