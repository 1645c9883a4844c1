package domain

import (
	"time"
)

// Product represents a catalog entry. Ratings and NumReviews are derived
// columns maintained by the review aggregation logic.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	UserID      string    `json:"user_id"`
	Ratings     float64   `json:"ratings"`
	NumReviews  int       `json:"num_reviews"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AverageRating computes the mean rating over a set of reviews. An empty
// set yields 0, never a division by zero.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += float64(r.Rating)
	}
	return sum / float64(len(reviews))
}

// ApplyReview inserts or replaces the review by the same user in the given
// slice and returns the updated slice. A resubmission overwrites rating and
// comment in place, keeping the review identity and the count unchanged.
func ApplyReview(reviews []Review, incoming Review) []Review {
	for i := range reviews {
		if reviews[i].UserID == incoming.UserID {
			reviews[i].Rating = incoming.Rating
			reviews[i].Comment = incoming.Comment
			return reviews
		}
	}
	return append(reviews, incoming)
}
