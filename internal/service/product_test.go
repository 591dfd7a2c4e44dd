package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"catalogapi/internal/events"
	eventMocks "catalogapi/internal/events/mocks"
	"catalogapi/internal/model"
	"catalogapi/internal/moderation"
	"catalogapi/internal/repository"
	repoMocks "catalogapi/internal/repository/mocks"
	"catalogapi/internal/scanner"
	scanMocks "catalogapi/internal/scanner/mocks"
	"catalogapi/internal/storage"
	storeMocks "catalogapi/internal/storage/mocks"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type harness struct {
	repo    *repoMocks.MockProductRepository
	media   *storeMocks.MockMediaStore
	scanner *scanMocks.MockScanner
	events  *eventMocks.MockPublisher
}

func newHarness() *harness {
	return &harness{
		repo:    new(repoMocks.MockProductRepository),
		media:   new(storeMocks.MockMediaStore),
		scanner: new(scanMocks.MockScanner),
		events:  new(eventMocks.MockPublisher),
	}
}

func (h *harness) service(opts ...Option) ProductService {
	opts = append([]Option{WithPublisher(h.events)}, opts...)
	return NewProductService(h.repo, h.media, moderation.NewGate(moderation.Config{}), h.scanner, opts...)
}

func (h *harness) assertExpectations(t *testing.T) {
	h.repo.AssertExpectations(t)
	h.media.AssertExpectations(t)
	h.scanner.AssertExpectations(t)
	h.events.AssertExpectations(t)
}

var (
	validInput       = ProductInput{Name: "Silla de oficina", Price: 150, Description: "ergonomica", CategoryName: "oficina"}
	tempAsset        = model.UploadedAsset{TempPath: "uploads/temp/image-1.png", ContentType: "image/png", OriginalName: "silla.png", Size: 42}
	promoted         = model.ImageRef{RemoteURL: "/ProductImages/p1.png", LocalPath: "uploads/ProductImages/p1.png"}
	safe             = scanner.Result{Safe: true}
	unsafeGore       = scanner.Result{Safe: false, Flagged: []scanner.Category{scanner.CategoryGore}}
	errPromote       = fmt.Errorf("%w: move file: disk full", storage.ErrPromotionFailed)
	errWriteConflict = errors.New("write conflict")
)

func storedProduct(id string, ref model.ImageRef) *model.Product {
	return &model.Product{
		ID:           id,
		Name:         validInput.Name,
		Price:        validInput.Price,
		Description:  validInput.Description,
		CategoryName: validInput.CategoryName,
		ImageRef:     ref,
	}
}

func publishes(typ events.Type, id string) any {
	return mock.MatchedBy(func(e events.Event) bool {
		return e.Type == typ && e.ProductID == id
	})
}

func withRef(ref model.ImageRef) any {
	return mock.MatchedBy(func(p *model.Product) bool { return p.ImageRef == ref })
}

func TestProductService_Create(t *testing.T) {
	asset := tempAsset

	tests := []struct {
		name    string
		in      ProductInput
		asset   *model.UploadedAsset
		opts    []Option
		setup   func(h *harness)
		wantErr error
		wantRef model.ImageRef
	}{
		{
			name: "no image commits placeholder",
			in:   validInput,
			setup: func(h *harness) {
				h.repo.On("Insert", mock.Anything, mock.MatchedBy(func(p *model.Product) bool {
					return p.Name == validInput.Name && p.RemoteURL == model.PlaceholderImageURL && p.LocalPath == ""
				})).Return(storedProduct("p1", model.PlaceholderImage()), nil).Once()
				h.events.On("Publish", mock.Anything, publishes(events.ProductCreated, "p1")).Return(nil).Once()
			},
			wantRef: model.PlaceholderImage(),
		},
		{
			name:  "safe image is promoted under the new id",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("Insert", mock.Anything, withRef(model.PlaceholderImage())).
					Return(storedProduct("p1", model.PlaceholderImage()), nil).Once()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(promoted, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", withRef(promoted)).
					Return(storedProduct("p1", promoted), nil).Once()
				h.events.On("Publish", mock.Anything, publishes(events.ProductCreated, "p1")).Return(nil).Once()
			},
			wantRef: promoted,
		},
		{
			name:  "denylisted description",
			in:    ProductInput{Name: "Kit", Price: 10, Description: "incluye DROGA"},
			asset: &asset,
			setup: func(h *harness) {
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrModerationBlocked,
		},
		{
			name:  "invalid price",
			in:    ProductInput{Name: "Mesa", Price: 100000.01},
			asset: &asset,
			setup: func(h *harness) {
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrValidation,
		},
		{
			name:    "blank name",
			in:      ProductInput{Name: "   ", Price: 10},
			setup:   func(h *harness) {},
			wantErr: ErrValidation,
		},
		{
			name:  "unsafe image",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(unsafeGore, nil).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrModerationBlocked,
		},
		{
			name:  "scanner unavailable fails closed",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).
					Return(scanner.Result{}, fmt.Errorf("%w: timeout", scanner.ErrUnavailable)).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrScannerUnavailable,
		},
		{
			name:  "unclassified scanner error fails closed",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).
					Return(scanner.Result{}, errors.New("boom")).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrScannerUnavailable,
		},
		{
			name:  "insert failure discards asset",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("Insert", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
		},
		{
			name:  "promotion failure keeps placeholder record",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("Insert", mock.Anything, mock.Anything).Return(storedProduct("p1", model.PlaceholderImage()), nil).Once()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(model.ImageRef{}, errPromote).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrPromotionFailed,
		},
		{
			name:  "promotion failure with rollback deletes record",
			in:    validInput,
			asset: &asset,
			opts:  []Option{WithRollbackOnPromotionFailure()},
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("Insert", mock.Anything, mock.Anything).Return(storedProduct("p1", model.PlaceholderImage()), nil).Once()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(model.ImageRef{}, errPromote).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
				h.repo.On("DeleteByID", mock.Anything, "p1").Return(nil).Once()
			},
			wantErr: ErrPromotionFailed,
		},
		{
			name:  "reference write failure removes new artifact",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("Insert", mock.Anything, mock.Anything).Return(storedProduct("p1", model.PlaceholderImage()), nil).Once()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(promoted, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", withRef(promoted)).Return(nil, errors.New("db down")).Once()
				h.media.On("RemoveArtifact", mock.Anything, promoted).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)

			got, err := h.service(tt.opts...).Create(context.Background(), tt.in, tt.asset)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			case tt.wantRef == (model.ImageRef{}):
				assert.Error(t, err)
				assert.Nil(t, got)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantRef, got.ImageRef)
			}
			h.assertExpectations(t)
		})
	}
}

func TestProductService_Create_BlockedVerdicts(t *testing.T) {
	asset := tempAsset

	t.Run("text", func(t *testing.T) {
		h := newHarness()
		h.media.On("Discard", mock.Anything, asset).Once()

		_, err := h.service().Create(context.Background(), ProductInput{Name: "Pistola de agua", Price: 5}, &asset)

		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.False(t, blocked.Verdict.TextSafe)
		assert.Nil(t, blocked.Verdict.VisualSafe)
		assert.Contains(t, blocked.Reason, "name")
	})

	t.Run("image", func(t *testing.T) {
		h := newHarness()
		h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(unsafeGore, nil).Once()
		h.media.On("Discard", mock.Anything, asset).Once()

		_, err := h.service().Create(context.Background(), validInput, &asset)

		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.True(t, blocked.Verdict.TextSafe)
		require.NotNil(t, blocked.Verdict.VisualSafe)
		assert.False(t, *blocked.Verdict.VisualSafe)
		assert.Contains(t, blocked.Reason, "gore")
	})
}

func TestProductService_Update(t *testing.T) {
	asset := tempAsset
	previous := model.ImageRef{RemoteURL: "/ProductImages/p1.jpg", LocalPath: "uploads/ProductImages/p1.jpg"}

	owned := func(owner string, ref model.ImageRef) *model.Product {
		p := storedProduct("p1", ref)
		p.UserID = owner
		return p
	}

	tests := []struct {
		name    string
		in      ProductInput
		asset   *model.UploadedAsset
		opts    []Option
		setup   func(h *harness)
		wantErr error
		wantRef *model.ImageRef
	}{
		{
			name: "fields only keep image",
			in:   ProductInput{Name: "Silla gamer", Price: 200},
			setup: func(h *harness) {
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("", previous), nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", mock.MatchedBy(func(p *model.Product) bool {
					return p.Name == "Silla gamer" && p.Price == 200 && p.ImageRef == previous
				})).Return(owned("", previous), nil).Once()
				h.events.On("Publish", mock.Anything, publishes(events.ProductUpdated, "p1")).Return(nil).Once()
			},
			wantRef: &previous,
		},
		{
			name:  "new image replaces previous artifact",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("", previous), nil).Once()
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", withRef(previous)).Return(owned("", previous), nil).Once()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(promoted, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", withRef(promoted)).Return(owned("", promoted), nil).Once()
				h.media.On("RemoveArtifact", mock.Anything, previous).Once()
				h.media.On("PruneOwner", mock.Anything, "p1", promoted).Once()
				h.events.On("Publish", mock.Anything, publishes(events.ProductUpdated, "p1")).Return(nil).Once()
			},
			wantRef: &promoted,
		},
		{
			name:  "same artifact name is not removed",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("", promoted), nil).Once()
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", withRef(promoted)).Return(owned("", promoted), nil).Twice()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(promoted, nil).Once()
				h.media.On("PruneOwner", mock.Anything, "p1", promoted).Once()
				h.events.On("Publish", mock.Anything, publishes(events.ProductUpdated, "p1")).Return(nil).Once()
			},
			wantRef: &promoted,
		},
		{
			name:  "text rejection never reads the record",
			in:    ProductInput{Name: "Silla", Price: 10, CategoryName: "Explosivos"},
			asset: &asset,
			setup: func(h *harness) {
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrModerationBlocked,
		},
		{
			name:  "image rejection never reads the record",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(unsafeGore, nil).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrModerationBlocked,
		},
		{
			name:  "scanner unavailable never reads the record",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(scanner.Result{}, scanner.ErrUnavailable).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrScannerUnavailable,
		},
		{
			name:  "missing record",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("FindByID", mock.Anything, "p1").Return(nil, repository.ErrNotFound).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrNotFound,
		},
		{
			name:  "other owner with image",
			in:    ProductInput{Name: "Silla", Price: 10, UserID: "intruder"},
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("owner", previous), nil).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "reference write failure keeps previous artifact",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("", previous), nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", withRef(previous)).Return(owned("", previous), nil).Once()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(promoted, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", withRef(promoted)).Return(nil, errWriteConflict).Once()
				h.media.On("RemoveArtifact", mock.Anything, promoted).Once()
			},
			wantErr: errWriteConflict,
		},
		{
			name: "other owner",
			in:   ProductInput{Name: "Silla", Price: 10, UserID: "intruder"},
			setup: func(h *harness) {
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("owner", previous), nil).Once()
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "promotion failure keeps field changes and previous image",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("", previous), nil).Once()
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", withRef(previous)).Return(owned("", previous), nil).Once()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(model.ImageRef{}, errPromote).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrPromotionFailed,
		},
		{
			name:  "promotion failure with rollback restores fields",
			in:    ProductInput{Name: "Nuevo nombre", Price: 99},
			asset: &asset,
			opts:  []Option{WithRollbackOnPromotionFailure()},
			setup: func(h *harness) {
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("", previous), nil).Once()
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", mock.MatchedBy(func(p *model.Product) bool {
					return p.Name == "Nuevo nombre"
				})).Return(owned("", previous), nil).Once()
				h.media.On("Promote", mock.Anything, asset, "p1").Return(model.ImageRef{}, errPromote).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", mock.MatchedBy(func(p *model.Product) bool {
					return p.Name == validInput.Name && p.ImageRef == previous
				})).Return(owned("", previous), nil).Once()
			},
			wantErr: ErrPromotionFailed,
		},
		{
			name:  "record vanished during field write",
			in:    validInput,
			asset: &asset,
			setup: func(h *harness) {
				h.repo.On("FindByID", mock.Anything, "p1").Return(owned("", previous), nil).Once()
				h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(safe, nil).Once()
				h.repo.On("UpdateByID", mock.Anything, "p1", mock.Anything).Return(nil, repository.ErrNotFound).Once()
				h.media.On("Discard", mock.Anything, asset).Once()
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)

			got, err := h.service(tt.opts...).Update(context.Background(), "p1", tt.in, tt.asset)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, *tt.wantRef, got.ImageRef)
			}
			h.assertExpectations(t)
		})
	}
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes artifact and record", func(t *testing.T) {
		h := newHarness()
		h.repo.On("FindByID", ctx, "p1").Return(storedProduct("p1", promoted), nil).Once()
		h.media.On("RemoveArtifact", ctx, promoted).Once()
		h.repo.On("DeleteByID", ctx, "p1").Return(nil).Once()
		h.events.On("Publish", ctx, publishes(events.ProductDeleted, "p1")).Return(nil).Once()

		assert.NoError(t, h.service().Delete(ctx, "p1", ""))
		h.assertExpectations(t)
	})

	t.Run("missing record mutates nothing", func(t *testing.T) {
		h := newHarness()
		h.repo.On("FindByID", ctx, "nope").Return(nil, repository.ErrNotFound).Once()

		err := h.service().Delete(ctx, "nope", "")

		assert.ErrorIs(t, err, ErrNotFound)
		h.media.AssertNotCalled(t, "RemoveArtifact", mock.Anything, mock.Anything)
		h.repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
		h.assertExpectations(t)
	})

	t.Run("other owner", func(t *testing.T) {
		h := newHarness()
		p := storedProduct("p1", promoted)
		p.UserID = "owner"
		h.repo.On("FindByID", ctx, "p1").Return(p, nil).Once()

		assert.ErrorIs(t, h.service().Delete(ctx, "p1", "intruder"), ErrForbidden)
		h.assertExpectations(t)
	})

	t.Run("publish failure does not fail delete", func(t *testing.T) {
		h := newHarness()
		h.repo.On("FindByID", ctx, "p1").Return(storedProduct("p1", model.PlaceholderImage()), nil).Once()
		h.media.On("RemoveArtifact", ctx, model.PlaceholderImage()).Once()
		h.repo.On("DeleteByID", ctx, "p1").Return(nil).Once()
		h.events.On("Publish", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		assert.NoError(t, h.service().Delete(ctx, "p1", ""))
		h.assertExpectations(t)
	})

	t.Run("empty id", func(t *testing.T) {
		h := newHarness()
		assert.ErrorIs(t, h.service().Delete(ctx, "", ""), ErrValidation)
	})
}

func TestProductService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		h := newHarness()
		h.repo.On("FindByID", ctx, "p1").Return(storedProduct("p1", promoted), nil).Once()

		p, err := h.service().Get(ctx, "p1")

		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
	})

	t.Run("not found", func(t *testing.T) {
		h := newHarness()
		h.repo.On("FindByID", ctx, "p1").Return(nil, repository.ErrNotFound).Once()

		_, err := h.service().Get(ctx, "p1")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		h := newHarness()
		h.repo.On("FindByID", ctx, "p1").Return(nil, errors.New("timeout")).Once()

		_, err := h.service().Get(ctx, "p1")

		assert.ErrorContains(t, err, "find product: timeout")
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		page, perPage int
		wantQuery     repository.PageQuery
	}{
		{name: "defaults", page: 0, perPage: 0, wantQuery: repository.PageQuery{Limit: 10, Offset: 0}},
		{name: "third page", page: 3, perPage: 20, wantQuery: repository.PageQuery{Limit: 20, Offset: 40}},
		{name: "capped page size", page: 1, perPage: 500, wantQuery: repository.PageQuery{Limit: 50, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.repo.On("ListAll", ctx, tt.wantQuery).
				Return(&repository.PageResult[model.Product]{Items: []model.Product{*storedProduct("p1", promoted)}, Total: 41}, nil).Once()

			page, err := h.service().List(ctx, tt.page, tt.perPage)

			require.NoError(t, err)
			assert.Equal(t, 41, page.Total)
			assert.Equal(t, tt.wantQuery.Limit, page.RecordsPerPage)
			assert.Len(t, page.Items, 1)
			h.assertExpectations(t)
		})
	}
}

func TestProductService_ListByOwner(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.repo.On("ListByOwner", ctx, "u1").Return([]model.Product{*storedProduct("p2", promoted), *storedProduct("p1", promoted)}, nil).Once()

	items, err := h.service().ListByOwner(ctx, "u1")

	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = h.service().ListByOwner(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductService_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	asset := tempAsset
	h := newHarness()
	h.media.On("Discard", mock.Anything, asset)
	h.scanner.On("CheckImage", mock.Anything, asset.TempPath).Return(unsafeGore, nil)
	h.repo.On("Insert", mock.Anything, mock.Anything).Return(storedProduct("p1", model.PlaceholderImage()), nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc := h.service(WithMetrics(m))

	_, _ = svc.Create(context.Background(), ProductInput{Name: "gore", Price: 1}, &asset)
	_, _ = svc.Create(context.Background(), validInput, &asset)
	_, _ = svc.Create(context.Background(), validInput, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues(opCreate, outcomeRejectedText)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues(opCreate, outcomeRejectedImage)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues(opCreate, outcomeCommitted)))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "second registration on the same registry")
}

func TestOutcomeOf(t *testing.T) {
	visual := false
	cases := map[string]error{
		outcomeCommitted:          nil,
		outcomeInvalid:            &ValidationError{Field: "name", Message: "is required"},
		outcomeRejectedText:       &BlockedError{Verdict: ModerationVerdict{TextSafe: false}},
		outcomeRejectedImage:      &BlockedError{Verdict: ModerationVerdict{TextSafe: true, VisualSafe: &visual}},
		outcomeScannerUnavailable: fmt.Errorf("scan image: %w", scanner.ErrUnavailable),
		outcomePromotionFailed:    errPromote,
		outcomeNotFound:           ErrNotFound,
		outcomeForbidden:          ErrForbidden,
		outcomeError:              errors.New("db down"),
	}
	for want, err := range cases {
		assert.Equal(t, want, outcomeOf(err), want)
	}
}
