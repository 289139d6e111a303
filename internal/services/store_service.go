package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/matjar-app/api/internal/domain"
	"github.com/matjar-app/api/internal/repositories"
)

var (
	// ErrStoreInvalidInput indicates missing or malformed fields.
	ErrStoreInvalidInput = errors.New("store: invalid input")
	// ErrStoreNotFound indicates the store does not exist.
	ErrStoreNotFound = errors.New("store: not found")
	// ErrStoreConflict indicates the slug is already taken or the record was
	// modified concurrently.
	ErrStoreConflict = errors.New("store: conflict")
	// ErrStoreUnavailable indicates the backing store failed.
	ErrStoreUnavailable = errors.New("store: unavailable")
	// ErrStorePlanUnknown indicates an unsupported upgrade target.
	ErrStorePlanUnknown = errors.New("store: unknown plan")

	errStoreRepoRequired = errors.New("store service: repository is required")
)

// PlanBiller starts a hosted checkout for a paid plan and reports the URL
// the merchant completes it at.
type PlanBiller interface {
	StartPlanCheckout(ctx context.Context, store domain.Store, target domain.PlanTier) (string, error)
}

// StoreServiceDeps wires the merchant account surface.
type StoreServiceDeps struct {
	Repo        repositories.StoreRepository
	Biller      PlanBiller
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

// StoreService manages merchant tenants: signup, profile, and the plan
// lifecycle. New stores always start on the free tier; paid tiers activate
// through the billing webhook after a completed checkout.
type StoreService struct {
	repo        repositories.StoreRepository
	biller      PlanBiller
	clock       func() time.Time
	idGenerator func() string
	logger      func(context.Context, string, map[string]any)
}

// NewStoreService validates dependencies and applies defaults.
func NewStoreService(deps StoreServiceDeps) (*StoreService, error) {
	if deps.Repo == nil {
		return nil, errStoreRepoRequired
	}
	svc := &StoreService{
		repo:        deps.Repo,
		biller:      deps.Biller,
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

// CreateStoreCommand carries the signup fields.
type CreateStoreCommand struct {
	OwnerUID      string
	Name          string
	Slug          string
	WhatsAppPhone string
	Email         string
}

// Create registers a merchant store on the free plan. An empty slug is
// derived from the name.
func (s *StoreService) Create(ctx context.Context, cmd CreateStoreCommand) (domain.Store, error) {
	cmd.OwnerUID = strings.TrimSpace(cmd.OwnerUID)
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.WhatsAppPhone = strings.TrimSpace(cmd.WhatsAppPhone)
	if cmd.OwnerUID == "" || cmd.Name == "" || phoneDigits(cmd.WhatsAppPhone) == "" {
		return domain.Store{}, ErrStoreInvalidInput
	}

	// One store per merchant account; the /me surface depends on it.
	if _, err := s.repo.FindByOwnerUID(ctx, cmd.OwnerUID); err == nil {
		return domain.Store{}, ErrStoreConflict
	} else if !repositories.IsNotFound(err) {
		return domain.Store{}, translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}

	slug := Slugify(cmd.Slug)
	if slug == "" {
		slug = Slugify(cmd.Name)
	}
	if slug == "" {
		return domain.Store{}, ErrStoreInvalidInput
	}
	if _, err := s.repo.FindBySlug(ctx, slug); err == nil {
		return domain.Store{}, ErrStoreConflict
	} else if !repositories.IsNotFound(err) {
		return domain.Store{}, translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}

	now := s.clock().UTC()
	store := domain.Store{
		ID:            s.idGenerator(),
		OwnerUID:      cmd.OwnerUID,
		Name:          cmd.Name,
		Slug:          slug,
		WhatsAppPhone: cmd.WhatsAppPhone,
		Email:         strings.TrimSpace(cmd.Email),
		Plan:          domain.PlanFree,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	saved, err := s.repo.Insert(ctx, store)
	if err != nil {
		return domain.Store{}, translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}
	s.logger(ctx, "store.created", map[string]any{"store_id": saved.ID, "slug": saved.Slug})
	return saved, nil
}

// Get returns the store by ID.
func (s *StoreService) Get(ctx context.Context, storeID string) (domain.Store, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return domain.Store{}, ErrStoreInvalidInput
	}
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		return domain.Store{}, translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}
	return store, nil
}

// GetByOwner resolves the store belonging to a merchant account.
func (s *StoreService) GetByOwner(ctx context.Context, ownerUID string) (domain.Store, error) {
	ownerUID = strings.TrimSpace(ownerUID)
	if ownerUID == "" {
		return domain.Store{}, ErrStoreInvalidInput
	}
	store, err := s.repo.FindByOwnerUID(ctx, ownerUID)
	if err != nil {
		return domain.Store{}, translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}
	return store, nil
}

// GetBySlug resolves the public storefront handle.
func (s *StoreService) GetBySlug(ctx context.Context, slug string) (domain.Store, error) {
	slug = Slugify(slug)
	if slug == "" {
		return domain.Store{}, ErrStoreInvalidInput
	}
	store, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return domain.Store{}, translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}
	return store, nil
}

// UpdateStoreCommand carries optional profile updates; nil means unchanged.
type UpdateStoreCommand struct {
	StoreID       string
	Name          *string
	WhatsAppPhone *string
	Email         *string
}

// Update applies the command's set fields to the store profile.
func (s *StoreService) Update(ctx context.Context, cmd UpdateStoreCommand) (domain.Store, error) {
	store, err := s.Get(ctx, cmd.StoreID)
	if err != nil {
		return domain.Store{}, err
	}
	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return domain.Store{}, ErrStoreInvalidInput
		}
		store.Name = name
	}
	if cmd.WhatsAppPhone != nil {
		phone := strings.TrimSpace(*cmd.WhatsAppPhone)
		if phoneDigits(phone) == "" {
			return domain.Store{}, ErrStoreInvalidInput
		}
		store.WhatsAppPhone = phone
	}
	if cmd.Email != nil {
		store.Email = strings.TrimSpace(*cmd.Email)
	}
	store.UpdatedAt = s.clock().UTC()

	saved, err := s.repo.Update(ctx, store)
	if err != nil {
		return domain.Store{}, translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}
	return saved, nil
}

// StartUpgrade opens a hosted checkout toward the target paid tier and
// returns its URL. The plan itself only changes once ActivatePlan is called
// from the billing webhook.
func (s *StoreService) StartUpgrade(ctx context.Context, storeID string, target domain.PlanTier) (string, error) {
	if target != domain.PlanBasic && target != domain.PlanPro {
		return "", ErrStorePlanUnknown
	}
	if s.biller == nil {
		return "", ErrStoreUnavailable
	}
	store, err := s.Get(ctx, storeID)
	if err != nil {
		return "", err
	}
	url, err := s.biller.StartPlanCheckout(ctx, store, target)
	if err != nil {
		return "", translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}
	return url, nil
}

// ActivatePlan sets the store's tier after a confirmed billing event. A
// downgrade to free is how a lapsed subscription lands.
func (s *StoreService) ActivatePlan(ctx context.Context, storeID string, tier domain.PlanTier) (domain.Store, error) {
	store, err := s.Get(ctx, storeID)
	if err != nil {
		return domain.Store{}, err
	}
	store.Plan = tier
	store.UpdatedAt = s.clock().UTC()
	saved, err := s.repo.Update(ctx, store)
	if err != nil {
		return domain.Store{}, translateRepoError(err, ErrStoreNotFound, ErrStoreConflict, ErrStoreUnavailable)
	}
	s.logger(ctx, "store.plan_changed", map[string]any{"store_id": storeID, "plan": string(tier)})
	return saved, nil
}

// Slugify folds a raw handle into the storefront slug alphabet: lowercase
// ASCII letters, digits, and single hyphens.
func Slugify(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	lastHyphen := true
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
