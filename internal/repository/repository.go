package repository

import (
	"context"

	"github.com/bmanav26/E-Commerce/internal/domain"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetDigest retrieves the user holding an unexpired reset token
	// with the given digest. Expired and unknown digests both report not
	// found, indistinguishably.
	GetByResetDigest(ctx context.Context, digest string) (*domain.User, error)

	// List returns all users, newest first.
	List(ctx context.Context) ([]domain.User, error)

	// Update modifies an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by id.
	Delete(ctx context.Context, id string) error
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Keyword    *string
	Category   *string
	PriceMin   *int64
	PriceMax   *int64
	RatingsMin *float64
	Page       int
	PerPage    int
}

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	// Create inserts a new product.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by id.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products matching the filter plus the unpaginated total.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product and its reviews.
	Delete(ctx context.Context, id string) error

	// UpdateRating persists the derived aggregate columns.
	UpdateRating(ctx context.Context, productID string, ratings float64, numReviews int) error
}

// ReviewRepository defines review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review.
	Create(ctx context.Context, review *domain.Review) error

	// Update replaces the rating and comment of an existing review.
	Update(ctx context.Context, review *domain.Review) error

	// ListByProductID returns every review for the product, newest first.
	ListByProductID(ctx context.Context, productID string) ([]domain.Review, error)
}
