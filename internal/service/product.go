package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"catalogapi/internal/events"
	"catalogapi/internal/model"
	"catalogapi/internal/moderation"
	"catalogapi/internal/repository"
	"catalogapi/internal/scanner"
	"catalogapi/internal/storage"
)

const (
	// MaxPrice is the inclusive upper bound of a product price. Prices must be positive.
	MaxPrice = 100000

	DefaultRecordsPerPage = 10
	MaxRecordsPerPage     = 50
)

// ProductInput carries the caller-supplied fields of a create or update.
// UserID is the owning user and stays empty when tenancy is disabled.
type ProductInput struct {
	Name         string
	Price        float64
	Description  string
	CategoryName string
	UserID       string
}

// ProductPage is the service-level DTO for paginated products.
type ProductPage struct {
	Items          []model.Product `json:"data"`
	Total          int             `json:"total"`
	Page           int             `json:"page"`
	RecordsPerPage int             `json:"recordsPerPage"`
}

// TextModerator classifies the textual fields of a product.
type TextModerator interface {
	CheckText(f moderation.TextFields) moderation.Verdict
}

// ProductService coordinates moderation, image scanning, media promotion and record
// persistence for products.
type ProductService interface {
	// Create screens the input and the optional image, inserts the record and promotes the
	// image under the new record's identity. asset is consumed on every path.
	Create(ctx context.Context, in ProductInput, asset *model.UploadedAsset) (*model.Product, error)

	// Update screens the input and the optional image before touching the stored record.
	// A rejected update leaves the record and its artifact unchanged.
	Update(ctx context.Context, id string, in ProductInput, asset *model.UploadedAsset) (*model.Product, error)

	// Delete removes the record and, best-effort, its artifact. callerID may be empty.
	Delete(ctx context.Context, id, callerID string) error

	// Get returns a single product by its ID.
	Get(ctx context.Context, id string) (*model.Product, error)

	// List returns a page of products, newest first.
	List(ctx context.Context, page, recordsPerPage int) (*ProductPage, error)

	// ListByOwner returns every product of a user, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Product, error)
}

// Option configures a ProductService.
type Option func(*productService)

// WithPublisher publishes lifecycle events after each committed operation.
func WithPublisher(p events.Publisher) Option {
	return func(s *productService) { s.publisher = p }
}

// WithMetrics records the terminal state of every create, update and delete.
func WithMetrics(m *Metrics) Option {
	return func(s *productService) { s.metrics = m }
}

// WithRollbackOnPromotionFailure reverts the field writes of an operation whose image could
// not be promoted: the inserted record is deleted on create, the previous fields are restored
// on update. Without it those writes stay committed and only the image reference is unchanged.
func WithRollbackOnPromotionFailure() Option {
	return func(s *productService) { s.rollback = true }
}

type productService struct {
	repo      repository.ProductRepository
	media     storage.MediaStore
	gate      TextModerator
	scanner   scanner.Scanner
	publisher events.Publisher
	metrics   *Metrics
	rollback  bool
	locks     *keyedMutex
}

// NewProductService constructs a new ProductService.
func NewProductService(repo repository.ProductRepository, media storage.MediaStore, gate TextModerator, scan scanner.Scanner, opts ...Option) ProductService {
	s := &productService{
		repo:      repo,
		media:     media,
		gate:      gate,
		scanner:   scan,
		publisher: events.Noop{},
		locks:     newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *productService) Create(ctx context.Context, in ProductInput, asset *model.UploadedAsset) (_ *model.Product, err error) {
	defer func() { s.metrics.observe(opCreate, err) }()

	if err := s.screenText(ctx, in, asset); err != nil {
		return nil, err
	}
	if err := s.screenImage(ctx, asset); err != nil {
		return nil, err
	}

	stored, err := s.repo.Insert(ctx, &model.Product{
		Name:         in.Name,
		Price:        in.Price,
		Description:  in.Description,
		CategoryName: in.CategoryName,
		ImageRef:     model.PlaceholderImage(),
		UserID:       in.UserID,
	})
	if err != nil {
		s.discard(ctx, asset)
		return nil, fmt.Errorf("insert product: %w", err)
	}
	if asset == nil {
		s.publish(ctx, events.ProductCreated, stored)
		return stored, nil
	}

	unlock := s.locks.Lock(stored.ID)
	defer unlock()

	ref, err := s.media.Promote(ctx, *asset, stored.ID)
	if err != nil {
		s.media.Discard(ctx, *asset)
		if s.rollback {
			s.undoInsert(ctx, stored.ID)
		}
		return nil, fmt.Errorf("promote image of %s: %w", stored.ID, err)
	}

	withImage := *stored
	withImage.ImageRef = ref
	out, err := s.repo.UpdateByID(ctx, stored.ID, &withImage)
	if err != nil {
		s.media.RemoveArtifact(ctx, ref)
		if s.rollback {
			s.undoInsert(ctx, stored.ID)
		}
		return nil, fmt.Errorf("store image reference of %s: %w", stored.ID, err)
	}

	s.publish(ctx, events.ProductCreated, out)
	return out, nil
}

func (s *productService) Update(ctx context.Context, id string, in ProductInput, asset *model.UploadedAsset) (_ *model.Product, err error) {
	defer func() { s.metrics.observe(opUpdate, err) }()

	if id == "" {
		s.discard(ctx, asset)
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	if err := s.screenText(ctx, in, asset); err != nil {
		return nil, err
	}
	// The scanner can be slow; other writers of id are not held behind it.
	if err := s.screenImage(ctx, asset); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	existing, err := s.find(ctx, id)
	if err != nil {
		s.discard(ctx, asset)
		return nil, err
	}
	if !ownedBy(existing, in.UserID) {
		s.discard(ctx, asset)
		return nil, ErrForbidden
	}

	fields := *existing
	fields.Name = in.Name
	fields.Price = in.Price
	fields.Description = in.Description
	fields.CategoryName = in.CategoryName
	updated, err := s.repo.UpdateByID(ctx, id, &fields)
	if err != nil {
		s.discard(ctx, asset)
		return nil, notFoundOr(err, "update product")
	}
	if asset == nil {
		s.publish(ctx, events.ProductUpdated, updated)
		return updated, nil
	}

	ref, err := s.media.Promote(ctx, *asset, id)
	if err != nil {
		s.media.Discard(ctx, *asset)
		if s.rollback {
			s.restore(ctx, existing)
		}
		return nil, fmt.Errorf("promote image of %s: %w", id, err)
	}

	withImage := *updated
	withImage.ImageRef = ref
	out, err := s.repo.UpdateByID(ctx, id, &withImage)
	if err != nil {
		// An artifact under the previous name now holds the new bytes and is still referenced.
		if ref != existing.ImageRef {
			s.media.RemoveArtifact(ctx, ref)
		}
		if s.rollback {
			s.restore(ctx, existing)
		}
		return nil, notFoundOr(err, "store image reference")
	}

	// ref is committed; only now may earlier artifacts go.
	if !existing.IsPlaceholder() && existing.ImageRef != ref {
		s.media.RemoveArtifact(ctx, existing.ImageRef)
	}
	s.media.PruneOwner(ctx, id, ref)

	s.publish(ctx, events.ProductUpdated, out)
	return out, nil
}

func (s *productService) Delete(ctx context.Context, id, callerID string) (err error) {
	defer func() { s.metrics.observe(opDelete, err) }()

	if id == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	existing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !ownedBy(existing, callerID) {
		return ErrForbidden
	}

	s.media.RemoveArtifact(ctx, existing.ImageRef)

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return notFoundOr(err, "delete product")
	}

	s.publish(ctx, events.ProductDeleted, existing)
	return nil
}

func (s *productService) Get(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	return s.find(ctx, id)
}

// List clamps page to at least 1 and recordsPerPage to 1..MaxRecordsPerPage.
func (s *productService) List(ctx context.Context, page, recordsPerPage int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if recordsPerPage < 1 {
		recordsPerPage = DefaultRecordsPerPage
	}
	if recordsPerPage > MaxRecordsPerPage {
		recordsPerPage = MaxRecordsPerPage
	}

	res, err := s.repo.ListAll(ctx, repository.PageQuery{
		Limit:  recordsPerPage,
		Offset: (page - 1) * recordsPerPage,
	})
	if err != nil {
		return nil, err
	}
	return &ProductPage{
		Items:          res.Items,
		Total:          res.Total,
		Page:           page,
		RecordsPerPage: recordsPerPage,
	}, nil
}

func (s *productService) ListByOwner(ctx context.Context, ownerID string) ([]model.Product, error) {
	if ownerID == "" {
		return nil, &ValidationError{Field: "userId", Message: "is required"}
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// screenText validates the input and runs the text gate. The asset is discarded on rejection.
func (s *productService) screenText(ctx context.Context, in ProductInput, asset *model.UploadedAsset) error {
	if err := validateInput(in); err != nil {
		s.discard(ctx, asset)
		return err
	}
	v := s.gate.CheckText(moderation.TextFields{
		Name:         in.Name,
		Description:  in.Description,
		CategoryName: in.CategoryName,
	})
	if v.Blocked {
		s.discard(ctx, asset)
		return &BlockedError{Verdict: ModerationVerdict{TextSafe: false}, Reason: v.Reason}
	}
	return nil
}

// screenImage runs the visual scanner on asset, if any. Any scanner failure is
// ErrScannerUnavailable. The asset is discarded on rejection.
func (s *productService) screenImage(ctx context.Context, asset *model.UploadedAsset) error {
	if asset == nil {
		return nil
	}
	res, err := s.scanner.CheckImage(ctx, asset.TempPath)
	if err != nil {
		s.discard(ctx, asset)
		if errors.Is(err, ErrScannerUnavailable) {
			return fmt.Errorf("scan image: %w", err)
		}
		return fmt.Errorf("scan image: %w: %v", ErrScannerUnavailable, err)
	}
	if !res.Safe {
		s.discard(ctx, asset)
		visual := false
		return &BlockedError{
			Verdict: ModerationVerdict{TextSafe: true, VisualSafe: &visual},
			Reason:  "image flagged for " + joinCategories(res.Flagged),
		}
	}
	return nil
}

func validateInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if math.IsNaN(in.Price) || in.Price <= 0 || in.Price > MaxPrice {
		return &ValidationError{Field: "price", Message: fmt.Sprintf("must be greater than 0 and at most %d", MaxPrice)}
	}
	return nil
}

func (s *productService) find(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "find product")
	}
	return p, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ownedBy reports whether callerID may modify p. Records or callers without an owner are unrestricted.
func ownedBy(p *model.Product, callerID string) bool {
	return callerID == "" || p.UserID == "" || p.UserID == callerID
}

func (s *productService) discard(ctx context.Context, asset *model.UploadedAsset) {
	if asset != nil {
		s.media.Discard(ctx, *asset)
	}
}

func (s *productService) undoInsert(ctx context.Context, id string) {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("component", "service").
			Str("product_id", id).
			Msg("failed to roll back inserted product")
	}
}

func (s *productService) restore(ctx context.Context, previous *model.Product) {
	if _, err := s.repo.UpdateByID(ctx, previous.ID, previous); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("component", "service").
			Str("product_id", previous.ID).
			Msg("failed to restore product fields")
	}
}

func (s *productService) publish(ctx context.Context, typ events.Type, p *model.Product) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:      typ,
		ProductID: p.ID,
		UserID:    p.UserID,
		Product:   p,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("component", "service").
			Str("event_type", string(typ)).
			Str("product_id", p.ID).
			Msg("failed to publish product event")
	}
}

func joinCategories(cs []scanner.Category) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
