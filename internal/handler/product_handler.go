package handler

import (
	"net/http"

	"globomart/internal/model"
	"globomart/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles catalogue and review HTTP requests.
type ProductHandler struct {
	service     service.ProductService
	development bool
	logger      zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, development bool, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:     service,
		development: development,
		logger:      logger.With().Str("handler", "product").Logger(),
	}
}

type productResponse struct {
	Product *model.Product `json:"product"`
}

type productsResponse struct {
	Products []model.Product `json:"products"`
}

type uploadImagesRequest struct {
	Images []string `json:"images"`
}

type deleteImageRequest struct {
	ImageID string `json:"imgId"`
}

type reviewsResponse struct {
	Reviews []model.Review `json:"reviews"`
}

type deleteReviewResponse struct {
	Success bool           `json:"success"`
	Product *model.Product `json:"product"`
}

type canReviewResponse struct {
	CanReview bool `json:"canReview"`
}

// List handles GET /api/products. Supports keyword, category, ratings[gte],
// price[gte]/price[lte], sort and page query parameters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.List(r.Context(), r.URL.Query())
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetByID handles GET /api/products/{id}.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Product: product})
}

// ListAll handles GET /api/admin/products.
func (h *ProductHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productsResponse{Products: products})
}

// Create handles POST /api/admin/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var in model.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), user.ID, &in)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Product: product})
}

// Update handles PUT /api/admin/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var in model.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, &in)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Product: product})
}

// Delete handles DELETE /api/admin/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Product Deleted Successfully"})
}

// UploadImages handles PUT /api/admin/products/{id}/upload_images.
func (h *ProductHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req uploadImagesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	product, err := h.service.UploadImages(r.Context(), id, req.Images)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Product: product})
}

// DeleteImage handles PUT /api/admin/products/{id}/delete_image.
func (h *ProductHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req deleteImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}
	if req.ImageID == "" {
		writeError(w, r, model.ErrValidation.WithMessage("Please provide the image id"), h.development, h.logger)
		return
	}

	product, err := h.service.DeleteImage(r.Context(), id, req.ImageID)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Product: product})
}

// UpsertReview handles PUT /api/reviews.
func (h *ProductHandler) UpsertReview(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	var req model.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	if err := h.service.UpsertReview(r.Context(), user.ID, &req); err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ListReviews handles GET /api/reviews?id=.
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := parseID(r.URL.Query().Get("id"), "id")
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), productID)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, reviewsResponse{Reviews: reviews})
}

// DeleteReview handles DELETE /api/admin/reviews?productId=&id=.
func (h *ProductHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	productID, err := parseID(query.Get("productId"), "productId")
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}
	reviewID, err := parseID(query.Get("id"), "id")
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	product, err := h.service.DeleteReview(r.Context(), productID, reviewID)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, deleteReviewResponse{Success: true, Product: product})
}

// CanReview handles GET /api/can_review?productId=.
func (h *ProductHandler) CanReview(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	productID, err := parseID(r.URL.Query().Get("productId"), "productId")
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	ok, err := h.service.CanReview(r.Context(), user.ID, productID)
	if err != nil {
		writeError(w, r, err, h.development, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, canReviewResponse{CanReview: ok})
}
