package model

import (
	"time"

	"github.com/google/uuid"
)

// Product categories accepted by the catalogue.
var ProductCategories = []string{
	"Electronics",
	"Cameras",
	"Laptops",
	"Accessories",
	"Headphones",
	"Food",
	"Books",
	"Sports",
	"Outdoor",
	"Home",
}

// Image references an uploaded object.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Review is a single user's rating of a product. A user has at most one review per product.
type Review struct {
	ID        uuid.UUID `json:"_id"`
	UserID    uuid.UUID `json:"user"`
	UserName  string    `json:"userName,omitempty"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product represents an item in the catalogue.
type Product struct {
	ID           uuid.UUID `json:"_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Category     string    `json:"category"`
	Seller       string    `json:"seller"`
	Stock        int       `json:"stock"`
	Images       []Image   `json:"images"`
	Ratings      float64   `json:"ratings"`
	NumOfReviews int       `json:"numOfReviews"`
	Reviews      []Review  `json:"reviews,omitempty"`
	CreatedBy    uuid.UUID `json:"user"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Seller      string  `json:"seller"`
	Stock       int     `json:"stock"`
}

// ProductListResponse is the paginated catalogue response.
type ProductListResponse struct {
	ResPerPage            int       `json:"resPerPage"`
	FilteredProductsCount int       `json:"filteredProductsCount"`
	Products              []Product `json:"products"`
}

// ReviewRequest creates or updates the caller's review of a product.
type ReviewRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
}

// AverageRating returns the arithmetic mean of the review ratings, or 0 when there are none.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return sum / float64(len(reviews))
}

// IsValidCategory reports whether c is an accepted product category.
func IsValidCategory(c string) bool {
	for _, known := range ProductCategories {
		if known == c {
			return true
		}
	}
	return false
}
