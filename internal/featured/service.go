// AngelaMos | 2026
// service.go

package featured

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/media"
)

type Service struct {
	repo     Repository
	uploader *media.Uploader
	logger   *slog.Logger
}

func NewService(repo Repository, uploader *media.Uploader, logger *slog.Logger) *Service {
	return &Service{repo: repo, uploader: uploader, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]FeaturedProduct, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*FeaturedProduct, error) {
	if err := core.ValidateID(id, "featured product id"); err != nil {
		return nil, err
	}

	f, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("featured product")
	}
	return f, err
}

func (s *Service) Create(
	ctx context.Context,
	actor core.Principal,
	req Request,
	banner *multipart.FileHeader,
) (*FeaturedProduct, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, err
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"title", req.Title},
		{"link", req.Link},
		{"link_title", req.LinkTitle},
	} {
		if f.value == nil || strings.TrimSpace(*f.value) == "" {
			missing = append(missing, f.name+" is required")
		}
	}
	if banner == nil {
		missing = append(missing, "banner is required")
	}
	if len(missing) > 0 {
		return nil, core.ValidationError("validation failed", missing...)
	}

	asset, err := s.uploader.UploadImage(ctx, banner, bannerFolder)
	if err != nil {
		return nil, err
	}

	f := &FeaturedProduct{
		ID:        core.NewID(),
		Title:     strings.TrimSpace(*req.Title),
		Link:      strings.TrimSpace(*req.Link),
		LinkTitle: strings.TrimSpace(*req.LinkTitle),
		Banner:    asset,
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.uploader.Discard(ctx, asset)
		return nil, err
	}

	return f, nil
}

func (s *Service) Update(
	ctx context.Context,
	actor core.Principal,
	id string,
	req Request,
	banner *multipart.FileHeader,
) (*FeaturedProduct, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, err
	}

	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		f.Title = strings.TrimSpace(*req.Title)
	}
	if req.Link != nil {
		f.Link = strings.TrimSpace(*req.Link)
	}
	if req.LinkTitle != nil {
		f.LinkTitle = strings.TrimSpace(*req.LinkTitle)
	}

	previous := f.Banner
	var uploaded media.Asset
	if banner != nil {
		if uploaded, err = s.uploader.UploadImage(ctx, banner, bannerFolder); err != nil {
			return nil, err
		}
		f.Banner = uploaded
	}

	if err := s.repo.Update(ctx, f); err != nil {
		s.uploader.Discard(ctx, uploaded)
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("featured product")
		}
		return nil, err
	}

	if !uploaded.IsZero() {
		s.uploader.Discard(ctx, previous)
	}

	return f, nil
}

func (s *Service) Delete(ctx context.Context, actor core.Principal, id string) error {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return err
	}

	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError("featured product")
		}
		return err
	}

	s.uploader.Discard(ctx, f.Banner)
	return nil
}
