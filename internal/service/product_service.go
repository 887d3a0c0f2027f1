package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"globomart/internal/apifilter"
	"globomart/internal/model"
	"globomart/internal/repository"
	"globomart/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxProductNameLength = 200

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	orderRepo   repository.OrderRepository
	store       storage.Store
	pageSize    int
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	store storage.Store,
	pageSize int,
	logger zerolog.Logger,
) ProductService {
	if pageSize <= 0 {
		pageSize = 4
	}
	return &productService{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		store:       store,
		pageSize:    pageSize,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List runs the catalogue query described by params.
func (s *productService) List(ctx context.Context, params url.Values) (*model.ProductListResponse, error) {
	q := apifilter.New(repository.ProductFilterSchema, params).
		Search().
		Filters().
		Sort().
		Paginate(s.pageSize).
		Query()

	if rejected := q.Rejected(); len(rejected) > 0 {
		s.logger.Warn().Strs("params", rejected).Msg("ignored catalogue query parameters")
	}

	products, total, err := s.productRepo.Find(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).Int("page", q.Page()).Msg("failed to find products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("total", total).
		Int("page", q.Page()).
		Msg("retrieved products")

	return &model.ProductListResponse{
		ResPerPage:            s.pageSize,
		FilteredProductsCount: total,
		Products:              products,
	}, nil
}

// ListAll retrieves every product.
func (s *productService) ListAll(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list all products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product with its reviews.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product reviews")
		return nil, fmt.Errorf("failed to get product reviews: %w", err)
	}
	product.Reviews = reviews

	return product, nil
}

func (s *productService) Create(ctx context.Context, userID uuid.UUID, in *model.ProductInput) (*model.Product, error) {
	if err := validateProductInput(in); err != nil {
		s.logger.Warn().Err(err).Msg("invalid product input")
		return nil, err
	}

	product := &model.Product{
		ID:        uuid.New(),
		Images:    []model.Image{},
		CreatedBy: userID,
		CreatedAt: time.Now().UTC(),
	}
	applyProductInput(product, in)

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().Str("product_id", product.ID.String()).Msg("product created")
	return product, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, in *model.ProductInput) (*model.Product, error) {
	if err := validateProductInput(in); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("invalid product input")
		return nil, err
	}

	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProductInput(product, in)

	if err := s.productRepo.Update(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// Delete removes the product's images from storage before deleting the row.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	for _, img := range product.Images {
		if err := s.store.Delete(ctx, img.PublicID); err != nil {
			s.logger.Error().Err(err).Str("public_id", img.PublicID).Msg("failed to delete product image")
			return fmt.Errorf("failed to delete product image: %w", err)
		}
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info().Str("product_id", id.String()).Int("images", len(product.Images)).Msg("product deleted")
	return nil
}

func (s *productService) UploadImages(ctx context.Context, id uuid.UUID, dataURIs []string) (*model.Product, error) {
	if len(dataURIs) == 0 {
		return nil, model.ErrValidation.WithMessage("Please select images to upload")
	}

	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Decode everything first so a bad entry uploads nothing.
	type upload struct {
		contentType string
		data        []byte
	}
	uploads := make([]upload, len(dataURIs))
	for i, uri := range dataURIs {
		contentType, data, err := storage.DecodeDataURI(uri)
		if err != nil {
			s.logger.Warn().Err(err).Int("index", i).Msg("invalid image upload")
			return nil, model.ErrValidation.WithMessage("Please upload valid images").Wrap(err)
		}
		uploads[i] = upload{contentType: contentType, data: data}
	}

	for _, u := range uploads {
		img, err := s.store.Upload(ctx, storage.FolderProducts, u.contentType, u.data)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to upload product image")
			return nil, model.ErrExternalServiceFailure.WithMessage("Failed to upload image").Wrap(err)
		}
		product.Images = append(product.Images, img)
	}

	if err := s.productRepo.UpdateImages(ctx, id, product.Images); err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to save product images")
		return nil, fmt.Errorf("failed to save product images: %w", err)
	}

	return product, nil
}

func (s *productService) DeleteImage(ctx context.Context, id uuid.UUID, publicID string) (*model.Product, error) {
	product, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := make([]model.Image, 0, len(product.Images))
	for _, img := range product.Images {
		if img.PublicID != publicID {
			kept = append(kept, img)
		}
	}
	if len(kept) == len(product.Images) {
		s.logger.Debug().Str("product_id", id.String()).Str("public_id", publicID).Msg("image not on product")
		return product, nil
	}

	if err := s.store.Delete(ctx, publicID); err != nil {
		s.logger.Error().Err(err).Str("public_id", publicID).Msg("failed to delete product image")
		return nil, model.ErrExternalServiceFailure.WithMessage("Failed to delete image").Wrap(err)
	}

	if err := s.productRepo.UpdateImages(ctx, id, kept); err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to save product images")
		return nil, fmt.Errorf("failed to save product images: %w", err)
	}
	product.Images = kept

	return product, nil
}

func (s *productService) UpsertReview(ctx context.Context, userID uuid.UUID, req *model.ReviewRequest) error {
	if req == nil || req.ProductID == uuid.Nil {
		return model.ErrValidation.WithMessage("Please enter product id")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return model.ErrValidation.WithMessage("Please enter a rating between 1 and 5")
	}

	review := &model.Review{
		ID:        uuid.New(),
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.reviewRepo.Upsert(ctx, req.ProductID, review); err != nil {
		s.logger.Error().Err(err).
			Str("product_id", req.ProductID.String()).
			Str("user_id", userID.String()).
			Msg("failed to save review")
		return fmt.Errorf("failed to save review: %w", err)
	}

	return nil
}

func (s *productService) ListReviews(ctx context.Context, productID uuid.UUID) ([]model.Review, error) {
	if _, err := s.get(ctx, productID); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *productService) DeleteReview(ctx context.Context, productID, reviewID uuid.UUID) (*model.Product, error) {
	if err := s.reviewRepo.Delete(ctx, productID, reviewID); err != nil {
		s.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Str("review_id", reviewID.String()).
			Msg("failed to delete review")
		return nil, fmt.Errorf("failed to delete review: %w", err)
	}

	return s.GetByID(ctx, productID)
}

func (s *productService) CanReview(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	ok, err := s.orderRepo.HasOrderedProduct(ctx, userID, productID)
	if err != nil {
		s.logger.Error().Err(err).
			Str("product_id", productID.String()).
			Str("user_id", userID.String()).
			Msg("failed to check order history")
		return false, fmt.Errorf("failed to check order history: %w", err)
	}
	return ok, nil
}

// get loads a product or returns model.ErrProductNotFound.
func (s *productService) get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

func validateProductInput(in *model.ProductInput) error {
	switch {
	case in == nil:
		return model.ErrValidation.WithMessage("Please enter product details")
	case strings.TrimSpace(in.Name) == "":
		return model.ErrValidation.WithMessage("Please enter product name")
	case len(in.Name) > maxProductNameLength:
		return model.ErrValidation.WithMessage("Product name cannot exceed 200 characters")
	case strings.TrimSpace(in.Description) == "":
		return model.ErrValidation.WithMessage("Please enter product description")
	case in.Price < 0:
		return model.ErrValidation.WithMessage("Please enter a valid price")
	case !model.IsValidCategory(in.Category):
		return model.ErrValidation.WithMessage("Please select correct category")
	case strings.TrimSpace(in.Seller) == "":
		return model.ErrValidation.WithMessage("Please enter product seller")
	case in.Stock < 0:
		return model.ErrValidation.WithMessage("Please enter a valid stock")
	}
	return nil
}

func applyProductInput(p *model.Product, in *model.ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.Category = in.Category
	p.Seller = strings.TrimSpace(in.Seller)
	p.Stock = in.Stock
}
