package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	domain "github.com/matjar-app/api/internal/domain"
)

type stubMedia struct {
	uploads int
	err     error
}

func (m *stubMedia) UploadProductImage(_ context.Context, storeID, productID string, _ []byte, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploads++
	return fmt.Sprintf("https://storage.example/%s/%s.jpg", storeID, productID), nil
}

type stubMediaJobs struct {
	captions   []string
	bgRemovals []string
	err        error
}

func (j *stubMediaJobs) EnqueueCaptionJob(_ context.Context, _, productID string) error {
	if j.err != nil {
		return j.err
	}
	j.captions = append(j.captions, productID)
	return nil
}

func (j *stubMediaJobs) EnqueueBackgroundRemovalJob(_ context.Context, _, productID, _ string) error {
	if j.err != nil {
		return j.err
	}
	j.bgRemovals = append(j.bgRemovals, productID)
	return nil
}

type productFixture struct {
	svc      *ProductService
	repo     *memProductRepo
	stores   *memStoreRepo
	media    *stubMedia
	jobs     *stubMediaJobs
	sequence int
}

func newProductFixture(t *testing.T, plan domain.PlanTier, features ProductFeatures) *productFixture {
	t.Helper()
	fixture := &productFixture{
		repo:   newMemProductRepo(),
		stores: newMemStoreRepo(domain.Store{ID: "store-a", Plan: plan}),
		media:  &stubMedia{},
		jobs:   &stubMediaJobs{},
	}
	svc, err := NewProductService(ProductServiceDeps{
		Repo:     fixture.repo,
		Stores:   fixture.stores,
		Media:    fixture.media,
		Jobs:     fixture.jobs,
		Features: features,
		Clock:    func() time.Time { return time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC) },
		IDGenerator: func() string {
			fixture.sequence++
			return fmt.Sprintf("p-%d", fixture.sequence)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fixture.svc = svc
	return fixture
}

func TestCreateProductSanitizesDescription(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanPro, ProductFeatures{})

	product, err := fixture.svc.Create(context.Background(), CreateProductCommand{
		StoreID:     "store-a",
		Name:        "Olive Soap",
		Description: `Hand made <script>alert("x")</script> with <b>love</b>`,
		Price:       450,
		Stock:       20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(product.Description, "<script>") {
		t.Fatalf("script tag survived sanitization: %s", product.Description)
	}
	if !strings.Contains(product.Description, "<b>love</b>") {
		t.Fatalf("benign markup should survive: %s", product.Description)
	}
}

func TestCreateProductBuildsSearchKeywords(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanPro, ProductFeatures{})

	product, err := fixture.svc.Create(context.Background(), CreateProductCommand{
		StoreID:     "store-a",
		Name:        "Olive Soap",
		Description: "Natural olive oil soap",
		Price:       450,
		Stock:       20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keywords := strings.Join(product.SearchKeywords, " ")
	for _, want := range []string{"olive", "soap", "natural", "oil"} {
		if !strings.Contains(keywords, want) {
			t.Fatalf("keywords missing %q: %v", want, product.SearchKeywords)
		}
	}
	for _, keyword := range product.SearchKeywords {
		if keyword != strings.ToLower(keyword) {
			t.Fatalf("keywords must be folded to lowercase: %q", keyword)
		}
	}
}

func TestCreateProductEnforcesPlanLimit(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanFree, ProductFeatures{})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := fixture.svc.Create(ctx, CreateProductCommand{
			StoreID: "store-a",
			Name:    fmt.Sprintf("Item %d", i),
			Price:   100,
			Stock:   1,
		})
		if err != nil {
			t.Fatalf("item %d rejected: %v", i, err)
		}
	}

	_, err := fixture.svc.Create(ctx, CreateProductCommand{StoreID: "store-a", Name: "One too many", Price: 100, Stock: 1})
	if !errors.Is(err, ErrProductLimitReached) {
		t.Fatalf("expected plan limit error, got %v", err)
	}
}

func TestCreateProductUploadsImageAndEnqueuesJobs(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanPro, ProductFeatures{AICaptions: true, BackgroundRemoval: true})

	product, err := fixture.svc.Create(context.Background(), CreateProductCommand{
		StoreID:          "store-a",
		Name:             "Olive Soap",
		Price:            450,
		Stock:            20,
		Image:            []byte{0xff, 0xd8},
		ImageContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fixture.media.uploads != 1 {
		t.Fatalf("expected one upload, got %d", fixture.media.uploads)
	}
	if product.ImageURL == "" {
		t.Fatalf("image URL should be set")
	}
	if len(fixture.jobs.captions) != 1 || len(fixture.jobs.bgRemovals) != 1 {
		t.Fatalf("expected both jobs enqueued, got %+v", fixture.jobs)
	}
}

func TestCreateProductSkipsJobsBelowProPlan(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanBasic, ProductFeatures{AICaptions: true, BackgroundRemoval: true})

	_, err := fixture.svc.Create(context.Background(), CreateProductCommand{
		StoreID:          "store-a",
		Name:             "Olive Soap",
		Price:            450,
		Stock:            20,
		Image:            []byte{0xff, 0xd8},
		ImageContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixture.jobs.captions) != 0 {
		t.Fatalf("captions are a pro entitlement")
	}
	if len(fixture.jobs.bgRemovals) != 1 {
		t.Fatalf("background removal is included from the basic plan up")
	}
}

func TestUpdateProductRefreshesKeywords(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanPro, ProductFeatures{})
	ctx := context.Background()

	product, err := fixture.svc.Create(ctx, CreateProductCommand{StoreID: "store-a", Name: "Olive Soap", Price: 450, Stock: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := "Lavender Soap"
	price := int64(500)
	updated, err := fixture.svc.Update(ctx, UpdateProductCommand{
		StoreID:   "store-a",
		ProductID: product.ID,
		Name:      &name,
		Price:     &price,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Lavender Soap" || updated.Price != 500 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !strings.Contains(strings.Join(updated.SearchKeywords, " "), "lavender") {
		t.Fatalf("keywords not refreshed: %v", updated.SearchKeywords)
	}
}

func TestStockViewProjectsCatalogue(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanPro, ProductFeatures{})
	ctx := context.Background()

	if _, err := fixture.svc.Create(ctx, CreateProductCommand{StoreID: "store-a", Name: "Mug", Price: 1000, Stock: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	view, err := fixture.svc.StockView(ctx, "store-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view) != 1 || view[0].Name != "Mug" || view[0].Stock != 7 {
		t.Fatalf("unexpected stock view: %+v", view)
	}
}

func TestGetUnknownProduct(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanPro, ProductFeatures{})
	if _, err := fixture.svc.Get(context.Background(), "store-a", "ghost"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	fixture := newProductFixture(t, domain.PlanPro, ProductFeatures{})
	_, err := fixture.svc.Create(context.Background(), CreateProductCommand{StoreID: "store-a", Name: "Mug", Price: -1, Stock: 1})
	if !errors.Is(err, ErrProductInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
