package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

type mockLinkUseCase struct {
	mock.Mock
}

func (m *mockLinkUseCase) CreateLink(ctx context.Context, ownerID, originalURL string) (*entity.Link, error) {
	args := m.Called(ctx, ownerID, originalURL)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (m *mockLinkUseCase) ListLinks(ctx context.Context, ownerID string) ([]*entity.Link, error) {
	args := m.Called(ctx, ownerID)
	links, _ := args.Get(0).([]*entity.Link)
	return links, args.Error(1)
}

func (m *mockLinkUseCase) GetLink(ctx context.Context, ownerID, shortCode string) (*entity.Link, error) {
	args := m.Called(ctx, ownerID, shortCode)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, shortCode string) (string, error) {
	args := m.Called(ctx, shortCode)
	return args.String(0), args.Error(1)
}
