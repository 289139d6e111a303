package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/repositories"
)

var (
	// ErrProductInvalidInput indicates missing or malformed fields.
	ErrProductInvalidInput = errors.New("product: invalid input")
	// ErrProductNotFound indicates the product does not exist in the store.
	ErrProductNotFound = errors.New("product: not found")
	// ErrProductConflict indicates a concurrent modification.
	ErrProductConflict = errors.New("product: conflict")
	// ErrProductUnavailable indicates the backing store failed.
	ErrProductUnavailable = errors.New("product: unavailable")
	// ErrProductLimitReached indicates the store's plan does not allow more
	// products.
	ErrProductLimitReached = errors.New("product: plan limit reached")

	errProductRepoRequired   = errors.New("product service: repository is required")
	errProductStoresRequired = errors.New("product service: store repository is required")
)

// MediaStore uploads merchant media and returns its public URL.
type MediaStore interface {
	UploadProductImage(ctx context.Context, storeID, productID string, data []byte, contentType string) (string, error)
}

// MediaJobPublisher enqueues asynchronous media enrichment jobs.
type MediaJobPublisher interface {
	EnqueueCaptionJob(ctx context.Context, storeID, productID string) error
	EnqueueBackgroundRemovalJob(ctx context.Context, storeID, productID, imageURL string) error
}

// ProductFeatures toggles the optional enrichment pipeline.
type ProductFeatures struct {
	AICaptions        bool
	BackgroundRemoval bool
}

// ProductServiceDeps wires the catalogue's collaborators.
type ProductServiceDeps struct {
	Repo        repositories.ProductRepository
	Stores      repositories.StoreRepository
	Media       MediaStore
	Jobs        MediaJobPublisher
	Features    ProductFeatures
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// ProductService manages the per-store catalogue. Creation is gated by the
// store plan's product allowance; descriptions are sanitized before they
// reach the storefront.
type ProductService struct {
	repo        repositories.ProductRepository
	stores      repositories.StoreRepository
	media       MediaStore
	jobs        MediaJobPublisher
	features    ProductFeatures
	sanitizer   *bluemonday.Policy
	lowercaser  cases.Caser
	clock       func() time.Time
	idGenerator func() string
	logger      func(context.Context, string, map[string]any)
}

// NewProductService validates dependencies and applies defaults.
func NewProductService(deps ProductServiceDeps) (*ProductService, error) {
	if deps.Repo == nil {
		return nil, errProductRepoRequired
	}
	if deps.Stores == nil {
		return nil, errProductStoresRequired
	}
	svc := &ProductService{
		repo:        deps.Repo,
		stores:      deps.Stores,
		media:       deps.Media,
		jobs:        deps.Jobs,
		features:    deps.Features,
		sanitizer:   bluemonday.UGCPolicy(),
		lowercaser:  cases.Lower(language.Und),
		clock:       deps.Clock,
		idGenerator: deps.IDGenerator,
		logger:      deps.Logger,
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.idGenerator == nil {
		svc.idGenerator = func() string { return ulid.Make().String() }
	}
	if svc.logger == nil {
		svc.logger = func(context.Context, string, map[string]any) {}
	}
	return svc, nil
}

// CreateProductCommand carries the fields of a new catalogue entry.
type CreateProductCommand struct {
	StoreID          string
	Name             string
	Description      string
	Price            int64
	Stock            int
	Image            []byte
	ImageContentType string
}

// Create inserts a product after checking the plan allowance, uploading the
// image, and sanitizing the description. Enrichment jobs are enqueued best
// effort after the insert.
func (s *ProductService) Create(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	cmd.StoreID = strings.TrimSpace(cmd.StoreID)
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.StoreID == "" || cmd.Name == "" || cmd.Price < 0 || cmd.Stock < 0 {
		return domain.Product{}, ErrProductInvalidInput
	}

	store, err := s.stores.FindByID(ctx, cmd.StoreID)
	if err != nil {
		return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}
	count, err := s.repo.Count(ctx, cmd.StoreID)
	if err != nil {
		return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}
	if !domain.EntitlementsFor(store.Plan).AllowsProductCount(count + 1) {
		return domain.Product{}, ErrProductLimitReached
	}

	now := s.clock().UTC()
	product := domain.Product{
		ID:          s.idGenerator(),
		StoreID:     cmd.StoreID,
		Name:        cmd.Name,
		Description: s.sanitizer.Sanitize(strings.TrimSpace(cmd.Description)),
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	product.SearchKeywords = s.searchKeywords(product.Name, product.Description)

	if len(cmd.Image) > 0 && s.media != nil {
		url, err := s.media.UploadProductImage(ctx, product.StoreID, product.ID, cmd.Image, cmd.ImageContentType)
		if err != nil {
			return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
		}
		product.ImageURL = url
	}

	saved, err := s.repo.Insert(ctx, product)
	if err != nil {
		return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}

	s.enqueueEnrichment(ctx, store, saved)
	return saved, nil
}

// Get returns one product of the store.
func (s *ProductService) Get(ctx context.Context, storeID, productID string) (domain.Product, error) {
	storeID = strings.TrimSpace(storeID)
	productID = strings.TrimSpace(productID)
	if storeID == "" || productID == "" {
		return domain.Product{}, ErrProductInvalidInput
	}
	product, err := s.repo.FindByID(ctx, storeID, productID)
	if err != nil {
		return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}
	return product, nil
}

// List returns the store's catalogue.
func (s *ProductService) List(ctx context.Context, storeID string) ([]domain.Product, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, ErrProductInvalidInput
	}
	products, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}
	return products, nil
}

// StockView projects the catalogue into the read-only stock snapshot the
// storefront hands to the order placement protocol.
func (s *ProductService) StockView(ctx context.Context, storeID string) ([]domain.ProductStock, error) {
	products, err := s.List(ctx, storeID)
	if err != nil {
		return nil, err
	}
	view := make([]domain.ProductStock, 0, len(products))
	for _, product := range products {
		view = append(view, domain.ProductStock{ID: product.ID, Name: product.Name, Stock: product.Stock})
	}
	return view, nil
}

// UpdateProductCommand carries optional field updates; nil means unchanged.
type UpdateProductCommand struct {
	StoreID     string
	ProductID   string
	Name        *string
	Description *string
	Price       *int64
	Stock       *int
}

// Update applies the command's set fields and refreshes search keywords.
func (s *ProductService) Update(ctx context.Context, cmd UpdateProductCommand) (domain.Product, error) {
	cmd.StoreID = strings.TrimSpace(cmd.StoreID)
	cmd.ProductID = strings.TrimSpace(cmd.ProductID)
	if cmd.StoreID == "" || cmd.ProductID == "" {
		return domain.Product{}, ErrProductInvalidInput
	}

	product, err := s.repo.FindByID(ctx, cmd.StoreID, cmd.ProductID)
	if err != nil {
		return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return domain.Product{}, ErrProductInvalidInput
		}
		product.Name = name
	}
	if cmd.Description != nil {
		product.Description = s.sanitizer.Sanitize(strings.TrimSpace(*cmd.Description))
	}
	if cmd.Price != nil {
		if *cmd.Price < 0 {
			return domain.Product{}, ErrProductInvalidInput
		}
		product.Price = *cmd.Price
	}
	if cmd.Stock != nil {
		if *cmd.Stock < 0 {
			return domain.Product{}, ErrProductInvalidInput
		}
		product.Stock = *cmd.Stock
	}
	product.SearchKeywords = s.searchKeywords(product.Name, product.Description)
	product.UpdatedAt = s.clock().UTC()

	saved, err := s.repo.Update(ctx, product)
	if err != nil {
		return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}
	return saved, nil
}

// SetCaption stores the generated caption for a product. Called by the
// media job push handler when a caption job completes.
func (s *ProductService) SetCaption(ctx context.Context, storeID, productID, caption string) (domain.Product, error) {
	product, err := s.Get(ctx, storeID, productID)
	if err != nil {
		return domain.Product{}, err
	}
	product.Caption = strings.TrimSpace(caption)
	product.UpdatedAt = s.clock().UTC()
	saved, err := s.repo.Update(ctx, product)
	if err != nil {
		return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}
	return saved, nil
}

// SetImageURL replaces the product image URL. Called when a background
// removal job delivers the processed image.
func (s *ProductService) SetImageURL(ctx context.Context, storeID, productID, imageURL string) (domain.Product, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return domain.Product{}, ErrProductInvalidInput
	}
	product, err := s.Get(ctx, storeID, productID)
	if err != nil {
		return domain.Product{}, err
	}
	product.ImageURL = imageURL
	product.UpdatedAt = s.clock().UTC()
	saved, err := s.repo.Update(ctx, product)
	if err != nil {
		return domain.Product{}, translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}
	return saved, nil
}

// Delete removes the product from the catalogue.
func (s *ProductService) Delete(ctx context.Context, storeID, productID string) error {
	storeID = strings.TrimSpace(storeID)
	productID = strings.TrimSpace(productID)
	if storeID == "" || productID == "" {
		return ErrProductInvalidInput
	}
	if err := s.repo.Delete(ctx, storeID, productID); err != nil {
		return translateRepoError(err, ErrProductNotFound, ErrProductConflict, ErrProductUnavailable)
	}
	return nil
}

// enqueueEnrichment publishes the plan-gated media jobs. Failures are
// logged, never surfaced; the catalogue entry is already durable.
func (s *ProductService) enqueueEnrichment(ctx context.Context, store domain.Store, product domain.Product) {
	if s.jobs == nil {
		return
	}
	entitlements := domain.EntitlementsFor(store.Plan)
	if s.features.AICaptions && entitlements.AICaptions {
		if err := s.jobs.EnqueueCaptionJob(ctx, product.StoreID, product.ID); err != nil {
			s.logger(ctx, "product.caption_job_failed", map[string]any{
				"store_id":   product.StoreID,
				"product_id": product.ID,
				"error":      err.Error(),
			})
		}
	}
	if s.features.BackgroundRemoval && entitlements.BackgroundRemoval && product.ImageURL != "" {
		if err := s.jobs.EnqueueBackgroundRemovalJob(ctx, product.StoreID, product.ID, product.ImageURL); err != nil {
			s.logger(ctx, "product.bg_removal_job_failed", map[string]any{
				"store_id":   product.StoreID,
				"product_id": product.ID,
				"error":      err.Error(),
			})
		}
	}
}

// searchKeywords folds the name and description into lowercase NFKC tokens
// so Arabic and Latin queries match regardless of presentation forms.
func (s *ProductService) searchKeywords(parts ...string) []string {
	seen := map[string]struct{}{}
	for _, part := range parts {
		folded := s.lowercaser.String(norm.NFKC.String(part))
		for _, token := range strings.FieldsFunc(folded, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\n' || r == ',' || r == '.' || r == ';'
		}) {
			if len(token) < 2 {
				continue
			}
			seen[token] = struct{}{}
		}
	}
	keywords := make([]string, 0, len(seen))
	for token := range seen {
		keywords = append(keywords, token)
	}
	sort.Strings(keywords)
	return keywords
}
