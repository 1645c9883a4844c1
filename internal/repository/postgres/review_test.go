package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmanav26/E-Commerce/internal/domain"
	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
)

func newReviewTestFixture(t *testing.T) (*ReviewRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewReviewRepository(mock)
	return repo, mock
}

func sampleReview() *domain.Review {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Review{
		ID:        "77a3c9b1-5bfb-45a6-a1c4-111111111111",
		ProductID: "9c1f27aa-0d3e-4f2b-9f10-111111111111",
		UserID:    "3f0d9ad2-8f6f-4a2e-b6ad-111111111111",
		Name:      "Alice Smith",
		Rating:    5,
		Comment:   "Exactly as described.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func reviewCols() []string {
	return []string{"id", "product_id", "user_id", "name", "rating", "comment", "created_at", "updated_at"}
}

func TestReviewRepository_Create_Success(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv := sampleReview()

	mock.ExpectExec("INSERT INTO product_reviews").
		WithArgs(rv.ID, rv.ProductID, rv.UserID, rv.Name, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), rv)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Update_Success(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv := sampleReview()
	rv.Rating = 2
	rv.Comment = "Broke after a week."

	mock.ExpectExec("UPDATE product_reviews").
		WithArgs(rv.Rating, rv.Comment, pgxmock.AnyArg(), rv.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), rv)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Update_NotFound(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv := sampleReview()

	mock.ExpectExec("UPDATE product_reviews").
		WithArgs(rv.Rating, rv.Comment, pgxmock.AnyArg(), rv.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), rv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByProductID_Success(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	rv1 := sampleReview()
	rv2 := sampleReview()
	rv2.ID = "77a3c9b1-5bfb-45a6-a1c4-222222222222"
	rv2.UserID = "3f0d9ad2-8f6f-4a2e-b6ad-222222222222"
	rv2.Rating = 3

	rows := pgxmock.NewRows(reviewCols()).
		AddRow(rv1.ID, rv1.ProductID, rv1.UserID, rv1.Name, rv1.Rating, rv1.Comment, rv1.CreatedAt, rv1.UpdatedAt).
		AddRow(rv2.ID, rv2.ProductID, rv2.UserID, rv2.Name, rv2.Rating, rv2.Comment, rv2.CreatedAt, rv2.UpdatedAt)

	mock.ExpectQuery(`SELECT .+\s+FROM product_reviews`).
		WithArgs(rv1.ProductID).
		WillReturnRows(rows)

	reviews, err := repo.ListByProductID(context.Background(), rv1.ProductID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.Equal(t, 5, reviews[0].Rating)
	assert.Equal(t, 3, reviews[1].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_ListByProductID_Empty(t *testing.T) {
	repo, mock := newReviewTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery(`SELECT .+\s+FROM product_reviews`).
		WithArgs("p-without-reviews").
		WillReturnRows(pgxmock.NewRows(reviewCols()))

	reviews, err := repo.ListByProductID(context.Background(), "p-without-reviews")
	require.NoError(t, err)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}
