package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bmanav26/E-Commerce/internal/domain"
	pkgkafka "github.com/bmanav26/E-Commerce/pkg/kafka"
)

// Kafka topics for the shop's domain events.
const (
	TopicUserRegistered    = "shop.user.registered"
	TopicUserPasswordReset = "shop.user.password_reset"

	TopicProductCreated         = "shop.product.created"
	TopicProductUpdated         = "shop.product.updated"
	TopicProductDeleted         = "shop.product.deleted"
	TopicProductReviewSubmitted = "shop.product.review_submitted"
)

// Aggregate type constants.
const (
	AggregateTypeUser    = "user"
	AggregateTypeProduct = "product"
)

// Source identifier for events originating from this API.
const SourceShopAPI = "shop-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// UserPasswordResetData is the payload for a user.password_reset event.
type UserPasswordResetData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	Category   string `json:"category,omitempty"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// ReviewSubmittedData is the payload for a product.review_submitted event.
// Ratings and NumReviews carry the recomputed aggregate, so consumers do not
// have to re-derive it.
type ReviewSubmittedData struct {
	ProductID  string  `json:"product_id"`
	UserID     string  `json:"user_id"`
	Rating     int     `json:"rating"`
	Ratings    float64 `json:"ratings"`
	NumReviews int     `json:"num_reviews"`
}

// Producer publishes shop domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}

	return p.publish(ctx, TopicUserRegistered, user.ID, AggregateTypeUser, data,
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
}

// PublishUserPasswordReset publishes a user.password_reset event.
func (p *Producer) PublishUserPasswordReset(ctx context.Context, userID, email string) error {
	data := UserPasswordResetData{
		UserID: userID,
		Email:  email,
	}

	return p.publish(ctx, TopicUserPasswordReset, userID, AggregateTypeUser, data,
		slog.String("user_id", userID),
		slog.String("email", email),
	)
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductCreated, product.ID, AggregateTypeProduct, productData(product),
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publish(ctx, TopicProductUpdated, product.ID, AggregateTypeProduct, productData(product),
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
	)
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, productID string) error {
	data := ProductDeletedData{ID: productID}

	return p.publish(ctx, TopicProductDeleted, productID, AggregateTypeProduct, data,
		slog.String("product_id", productID),
	)
}

// PublishReviewSubmitted publishes a product.review_submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review, ratings float64, numReviews int) error {
	data := ReviewSubmittedData{
		ProductID:  review.ProductID,
		UserID:     review.UserID,
		Rating:     review.Rating,
		Ratings:    ratings,
		NumReviews: numReviews,
	}

	return p.publish(ctx, TopicProductReviewSubmitted, review.ProductID, AggregateTypeProduct, data,
		slog.String("product_id", review.ProductID),
		slog.String("user_id", review.UserID),
	)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any, logAttrs ...any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceShopAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published domain event", append([]any{slog.String("topic", topic)}, logAttrs...)...)

	return nil
}

func productData(product *domain.Product) ProductData {
	return ProductData{
		ID:         product.ID,
		Name:       product.Name,
		PriceCents: product.PriceCents,
		Stock:      product.Stock,
		Category:   product.Category,
	}
}
