// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/carterperez-dev/storefront-api/internal/auth"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/media"
)

const avatarFolder = "avatars"

type Service struct {
	repo     Repository
	uploader *media.Uploader
	logger   *slog.Logger
}

func NewService(repo Repository, uploader *media.Uploader, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           core.NewID(),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
		Role:         core.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) MarkVerified(ctx context.Context, userID string) error {
	return s.repo.MarkVerified(ctx, userID)
}

// FindOrCreateGoogleUser resolves a Google identity, linking it to an
// existing account with the same email before creating a new one.
func (s *Service) FindOrCreateGoogleUser(
	ctx context.Context,
	googleID, email, name string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByGoogleID(ctx, googleID)
	if err == nil {
		return toUserInfo(user), nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	user, err = s.repo.GetByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if err := s.repo.LinkGoogle(ctx, user.ID, googleID); err != nil {
			return nil, err
		}
		user.GoogleID = &googleID
		user.Verified = true
		return toUserInfo(user), nil
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user = &User{
		ID:       core.NewID(),
		Email:    normalizeEmail(email),
		Name:     strings.TrimSpace(name),
		Role:     core.RoleUser,
		Verified: true,
		GoogleID: &googleID,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("google account created", "user_id", user.ID)

	return toUserInfo(user), nil
}

// UpdateProfile renames the caller and, when avatar is non-nil, replaces
// their avatar. The previous avatar is removed only after the row is saved.
func (s *Service) UpdateProfile(
	ctx context.Context,
	p core.Principal,
	req UpdateProfileRequest,
	avatar *multipart.FileHeader,
) (*User, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	previous := user.Avatar()
	user.Name = strings.TrimSpace(req.Name)

	var uploaded media.Asset
	if avatar != nil {
		if s.uploader == nil {
			return nil, core.ConfigurationError("asset store")
		}

		uploaded, err = s.uploader.UploadImage(ctx, avatar, avatarFolder)
		if err != nil {
			return nil, err
		}
		user.SetAvatar(uploaded)
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if !uploaded.IsZero() {
			s.uploader.Discard(ctx, uploaded)
		}
		return nil, err
	}

	if !uploaded.IsZero() && !previous.IsZero() {
		s.uploader.Discard(ctx, previous)
	}

	return user, nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	actor core.Principal,
	params ListUsersParams,
) ([]User, int64, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, 0, err
	}

	return s.repo.List(ctx, params)
}

func (s *Service) GetUser(ctx context.Context, actor core.Principal, id string) (*User, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, err
	}
	if err := core.ValidateID(id, "user id"); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.NotFoundError("user")
	}
	return user, err
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	actor core.Principal,
	id, role string,
) (*User, error) {
	if err := core.Authorize(actor, core.RoleAdmin); err != nil {
		return nil, err
	}
	if err := core.ValidateID(id, "user id"); err != nil {
		return nil, err
	}
	if role != core.RoleUser && role != core.RoleAdmin {
		return nil, core.ValidationError(fmt.Sprintf("invalid role %q", role))
	}
	if id == actor.UserID && role != core.RoleAdmin {
		return nil, core.ValidationError("admins cannot demote themselves")
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, err
	}

	s.logger.Info("user role changed", "user_id", id, "role", role, "by", actor.UserID)

	return s.repo.GetByID(ctx, id)
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Verified:     u.Verified,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
