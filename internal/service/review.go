package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bmanav26/E-Commerce/internal/domain"
	"github.com/bmanav26/E-Commerce/internal/event"
	"github.com/bmanav26/E-Commerce/internal/repository"
	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
)

// ReviewService implements the business logic for product reviews.
type ReviewService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	producer    *event.Producer
	logger      *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		producer:    producer,
		logger:      logger,
	}
}

// SubmitReviewInput holds the parameters for submitting a product review.
type SubmitReviewInput struct {
	ProductID string
	Rating    int
	Comment   string
}

// SubmitReview creates or replaces the caller's review for a product and
// synchronously recomputes the product's aggregate rating. A user resubmitting
// keeps a single review row; its rating and comment are overwritten.
func (s *ReviewService) SubmitReview(ctx context.Context, userID, userName string, input *SubmitReviewInput) (*domain.Product, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}

	product, err := s.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product for review: %w", err)
	}

	existing, err := s.reviewRepo.ListByProductID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	now := time.Now().UTC()
	incoming := domain.Review{
		ID:        uuid.New().String(),
		ProductID: input.ProductID,
		UserID:    userID,
		Name:      userName,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}

	reviews := domain.ApplyReview(existing, incoming)

	// ApplyReview keeps the stored row's id when the user already reviewed,
	// so comparing lengths tells create from update apart.
	if len(reviews) > len(existing) {
		if err := s.reviewRepo.Create(ctx, &incoming); err != nil {
			return nil, fmt.Errorf("create review: %w", err)
		}
	} else {
		updated := findReviewByUser(reviews, userID)
		if err := s.reviewRepo.Update(ctx, updated); err != nil {
			return nil, fmt.Errorf("update review: %w", err)
		}
	}

	product.Ratings = domain.AverageRating(reviews)
	product.NumReviews = len(reviews)

	if err := s.productRepo.UpdateRating(ctx, product.ID, product.Ratings, product.NumReviews); err != nil {
		return nil, fmt.Errorf("update product rating: %w", err)
	}

	// Publish review event (non-blocking on failure).
	if err := s.producer.PublishReviewSubmitted(ctx, &incoming, product.Ratings, product.NumReviews); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.review_submitted event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("product_id", product.ID),
		slog.String("user_id", userID),
		slog.Int("rating", input.Rating),
	)

	return product, nil
}

// ListReviews returns every review for a product, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product for reviews: %w", err)
	}

	reviews, err := s.reviewRepo.ListByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list product reviews: %w", err)
	}

	return reviews, nil
}

func findReviewByUser(reviews []domain.Review, userID string) *domain.Review {
	for i := range reviews {
		if reviews[i].UserID == userID {
			return &reviews[i]
		}
	}
	return nil
}
