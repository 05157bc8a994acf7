// AngelaMos | 2026
// service_test.go

package featured

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/media"
)

type memFeatured struct {
	items map[string]*FeaturedProduct
}

func (m *memFeatured) List(_ context.Context) ([]FeaturedProduct, error) {
	out := []FeaturedProduct{}
	for _, f := range m.items {
		out = append(out, *f)
	}
	return out, nil
}

func (m *memFeatured) GetByID(_ context.Context, id string) (*FeaturedProduct, error) {
	f, ok := m.items[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFeatured) Create(_ context.Context, f *FeaturedProduct) error {
	cp := *f
	m.items[f.ID] = &cp
	return nil
}

func (m *memFeatured) Update(_ context.Context, f *FeaturedProduct) error {
	if _, ok := m.items[f.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *f
	m.items[f.ID] = &cp
	return nil
}

func (m *memFeatured) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func strPtr(s string) *string { return &s }

func newFeaturedService() (*Service, *memFeatured) {
	repo := &memFeatured{items: map[string]*FeaturedProduct{}}
	return NewService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestCreateRequiresAllFields(t *testing.T) {
	svc, repo := newFeaturedService()
	admin := core.Principal{UserID: core.NewID(), Role: core.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, Request{Title: strPtr("Summer sale")}, nil)
	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.ElementsMatch(t, []string{
		"link is required",
		"link_title is required",
		"banner is required",
	}, appErr.Errors)
	assert.Empty(t, repo.items)

	buyer := core.Principal{UserID: core.NewID(), Role: core.RoleUser}
	_, err = svc.Create(context.Background(), buyer, Request{}, nil)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestUpdateWithoutBannerKeepsAsset(t *testing.T) {
	svc, repo := newFeaturedService()
	ctx := context.Background()
	admin := core.Principal{UserID: core.NewID(), Role: core.RoleAdmin}

	id := core.NewID()
	banner := media.Asset{URL: "/uploads/banners/a.jpg", ID: "banners/a.jpg"}
	repo.items[id] = &FeaturedProduct{ID: id, Title: "Old", Link: "/sale", LinkTitle: "Shop", Banner: banner}

	f, err := svc.Update(ctx, admin, id, Request{Title: strPtr("  New  ")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "New", f.Title)
	assert.Equal(t, "/sale", f.Link)
	assert.Equal(t, banner, repo.items[id].Banner)

	_, err = svc.Update(ctx, admin, core.NewID(), Request{}, nil)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Get(ctx, "bad-id")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
