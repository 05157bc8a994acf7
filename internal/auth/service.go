// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/middleware"
	"github.com/carterperez-dev/storefront-api/internal/notify"
)

const (
	OneTimeTokenTTL = 24 * time.Hour

	blacklistPrefix = "blacklist:"
)

var ErrTokenReuse = errors.New("token reuse detected")

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Verified     bool
	AvatarURL    string
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	MarkVerified(ctx context.Context, userID string) error
	FindOrCreateGoogleUser(
		ctx context.Context,
		googleID, email, name string,
	) (*UserInfo, error)
}

type Links struct {
	VerificationURL  string
	ResetPasswordURL string
	SignInURL        string
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	redis        *redis.Client
	notifier     notify.Notifier
	links        Links
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	redisClient *redis.Client,
	notifier notify.Notifier,
	links Links,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		redis:        redisClient,
		notifier:     notifier,
		links:        links,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*UserResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(
		ctx,
		strings.TrimSpace(req.Email),
		passwordHash,
		strings.TrimSpace(req.Name),
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("email")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Error("verification email not queued",
			"user_id", user.ID,
			"error", err,
		)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, core.NotFoundError("user")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, core.UnauthorizedError("invalid email or password")
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, core.UnauthorizedError("refresh token required")
	}

	userID, err := s.jwt.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	stored, err := s.repo.Find(ctx, userID, PurposeRefresh)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.TokenRevokedError()
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	if !stored.Matches(refreshToken) {
		//nolint:errcheck // security revocation continues regardless
		_ = s.repo.Delete(ctx, userID, PurposeRefresh)
		s.logger.Warn("refresh token reuse detected", "user_id", userID)
		return nil, core.NewAppError(
			ErrTokenReuse,
			"refresh token has already been used",
			core.TokenRevokedError().StatusCode,
			"TOKEN_REVOKED",
		)
	}

	if stored.IsExpired(s.now()) {
		return nil, core.TokenExpiredError()
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.TokenInvalidError()
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// Logout drops the stored refresh token and blacklists the presented access
// token until it would have expired anyway.
func (s *Service) Logout(
	ctx context.Context,
	p core.Principal,
	claims *middleware.AccessTokenClaims,
) error {
	if err := core.Authorize(p); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, p.UserID, PurposeRefresh); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if claims != nil && claims.TokenID != "" {
		if err := s.RevokeAccessToken(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
			s.logger.Warn("access token blacklist failed", "user_id", p.UserID, "error", err)
		}
	}

	return nil
}

func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) IsAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	exists, err := s.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

// VerifyAccessToken satisfies middleware.TokenVerifier. A Redis outage fails
// open to signature-only verification.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.IsAccessTokenBlacklisted(ctx, claims.TokenID)
	if err != nil {
		s.logger.Warn("blacklist lookup failed", "error", err)
		return claims, nil
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

// ForgetPassword always succeeds for unknown emails so the endpoint cannot be
// used to enumerate accounts.
func (s *Service) ForgetPassword(ctx context.Context, email string) error {
	user, err := s.userProvider.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	raw, err := s.storeOneTimeToken(ctx, user.ID, PurposePasswordReset)
	if err != nil {
		return err
	}

	link := buildLink(s.links.ResetPasswordURL, raw, user.ID)
	s.dispatch(ctx, notify.PasswordResetEmail(user.Email, user.Name, link))

	return nil
}

// UpdatePassword spends the reset token only once the new password has been
// accepted, so a rejected attempt leaves the emailed link usable.
func (s *Service) UpdatePassword(ctx context.Context, req UpdatePasswordRequest) error {
	stored, err := s.checkOneTimeToken(ctx, req.UserID, PurposePasswordReset, req.Token)
	if err != nil {
		return err
	}

	user, err := s.userProvider.GetByID(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := ensureNewPassword(user, req.Password); err != nil {
		return err
	}

	if err := s.consumeOneTimeToken(ctx, req.UserID, PurposePasswordReset, stored.TokenHash); err != nil {
		return err
	}

	return s.setPassword(ctx, user, req.Password)
}

func (s *Service) ChangePassword(
	ctx context.Context,
	p core.Principal,
	req ChangePasswordRequest,
) error {
	if err := core.Authorize(p); err != nil {
		return err
	}

	user, err := s.userProvider.GetByID(ctx, p.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !valid {
		return core.UnauthorizedError("current password is incorrect")
	}

	if err := ensureNewPassword(user, req.NewPassword); err != nil {
		return err
	}

	return s.setPassword(ctx, user, req.NewPassword)
}

func (s *Service) VerifyEmail(ctx context.Context, req VerifyEmailRequest) error {
	if err := s.redeemOneTimeToken(ctx, req.UserID, PurposeEmailVerification, req.Token); err != nil {
		return err
	}

	if err := s.userProvider.MarkVerified(ctx, req.UserID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}

	return nil
}

func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userProvider.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	if user.Verified {
		return core.ValidationError("email is already verified")
	}

	return s.sendVerification(ctx, user)
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	p core.Principal,
) (*UserResponse, error) {
	if err := core.Authorize(p); err != nil {
		return nil, err
	}

	user, err := s.userProvider.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("user")
		}
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// StartTokenCleanup purges expired one-time and refresh tokens until ctx ends.
func (s *Service) StartTokenCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.repo.DeleteExpired(ctx)
			if err != nil {
				s.logger.Error("token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("expired tokens removed", "count", n)
			}
		}
	}
}

func ensureNewPassword(user *UserInfo, password string) error {
	if user.PasswordHash == "" {
		return nil
	}
	same, err := core.VerifyPassword(password, user.PasswordHash)
	if err == nil && same {
		return core.ValidationError("new password must differ from the current password")
	}
	return nil
}

func (s *Service) setPassword(ctx context.Context, user *UserInfo, password string) error {
	newHash, err := core.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, user.ID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.repo.Delete(ctx, user.ID, PurposeRefresh); err != nil {
		s.logger.Warn("refresh token revoke failed", "user_id", user.ID, "error", err)
	}

	s.dispatch(ctx, notify.PasswordChangedEmail(user.Email, user.Name, s.links.SignInURL))
	return nil
}

func (s *Service) sendVerification(ctx context.Context, user *UserInfo) error {
	raw, err := s.storeOneTimeToken(ctx, user.ID, PurposeEmailVerification)
	if err != nil {
		return err
	}

	link := buildLink(s.links.VerificationURL, raw, user.ID)
	s.dispatch(ctx, notify.VerificationEmail(user.Email, user.Name, link))
	return nil
}

func (s *Service) storeOneTimeToken(
	ctx context.Context,
	userID string,
	purpose Purpose,
) (string, error) {
	raw, hash, err := core.NewOneTimeToken()
	if err != nil {
		return "", fmt.Errorf("generate %s token: %w", purpose, err)
	}

	err = s.repo.Replace(ctx, &UserToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: hash,
		ExpiresAt: s.now().Add(OneTimeTokenTTL),
	})
	if err != nil {
		return "", err
	}

	return raw, nil
}

func (s *Service) redeemOneTimeToken(
	ctx context.Context,
	userID string,
	purpose Purpose,
	raw string,
) error {
	stored, err := s.checkOneTimeToken(ctx, userID, purpose, raw)
	if err != nil {
		return err
	}
	return s.consumeOneTimeToken(ctx, userID, purpose, stored.TokenHash)
}

// checkOneTimeToken validates raw against the stored token without spending
// it. Expired tokens are removed.
func (s *Service) checkOneTimeToken(
	ctx context.Context,
	userID string,
	purpose Purpose,
	raw string,
) (*UserToken, error) {
	stored, err := s.repo.Find(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.TokenInvalidError()
		}
		return nil, err
	}

	if !stored.Matches(raw) {
		return nil, core.TokenInvalidError()
	}

	if stored.IsExpired(s.now()) {
		//nolint:errcheck // expired token is useless either way
		_ = s.repo.Delete(ctx, userID, purpose)
		return nil, core.TokenExpiredError()
	}

	return stored, nil
}

// consumeOneTimeToken deletes the token only if it is still the one that was
// checked, so two concurrent redemptions cannot both succeed.
func (s *Service) consumeOneTimeToken(
	ctx context.Context,
	userID string,
	purpose Purpose,
	tokenHash string,
) error {
	consumed, err := s.repo.DeleteMatching(ctx, userID, purpose, tokenHash)
	if err != nil {
		return err
	}
	if !consumed {
		return core.TokenInvalidError()
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user *UserInfo) (*AuthResponse, error) {
	access, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.jwt.CreateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	err = s.repo.Replace(ctx, &UserToken{
		UserID:    user.ID,
		Purpose:   PurposeRefresh,
		TokenHash: refresh.Hash,
		ExpiresAt: refresh.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:      access.Token,
			RefreshToken:     refresh.Token,
			TokenType:        "Bearer",
			ExpiresIn:        int(time.Until(access.ExpiresAt).Seconds()),
			ExpiresAt:        access.ExpiresAt,
			refreshExpiresAt: refresh.ExpiresAt,
		},
	}, nil
}

func (s *Service) dispatch(ctx context.Context, msg notify.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Error("notification not queued",
			"kind", msg.Kind,
			"to", msg.To,
			"error", err,
		)
	}
}

func buildLink(base, token, userID string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("userId", userID)

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
