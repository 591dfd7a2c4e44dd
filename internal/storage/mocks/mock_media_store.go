package mocks

import (
	"context"

	"catalogapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Promote(ctx context.Context, asset model.UploadedAsset, ownerID string) (model.ImageRef, error) {
	args := m.Called(ctx, asset, ownerID)
	return args.Get(0).(model.ImageRef), args.Error(1)
}

func (m *MockMediaStore) RemoveArtifact(ctx context.Context, ref model.ImageRef) {
	m.Called(ctx, ref)
}

func (m *MockMediaStore) PruneOwner(ctx context.Context, ownerID string, keep model.ImageRef) {
	m.Called(ctx, ownerID, keep)
}

func (m *MockMediaStore) Discard(ctx context.Context, asset model.UploadedAsset) {
	m.Called(ctx, asset)
}
