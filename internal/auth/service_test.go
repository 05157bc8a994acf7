// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront-api/internal/config"
	"github.com/carterperez-dev/storefront-api/internal/core"
	"github.com/carterperez-dev/storefront-api/internal/notify"
)

type tokenKey struct {
	userID  string
	purpose Purpose
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[tokenKey]UserToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[tokenKey]UserToken{}}
}

func (m *memTokens) Replace(_ context.Context, t *UserToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenKey{t.UserID, t.Purpose}] = *t
	return nil
}

func (m *memTokens) Find(_ context.Context, userID string, purpose Purpose) (*UserToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenKey{userID, purpose}]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &t, nil
}

func (m *memTokens) DeleteMatching(
	_ context.Context,
	userID string,
	purpose Purpose,
	hash string,
) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tokenKey{userID, purpose}
	t, ok := m.tokens[key]
	if !ok || t.TokenHash != hash {
		return false, nil
	}
	delete(m.tokens, key)
	return true, nil
}

func (m *memTokens) Delete(_ context.Context, userID string, purpose Purpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, tokenKey{userID, purpose})
	return nil
}

func (m *memTokens) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for k, t := range m.tokens {
		if t.IsExpired(now) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) count(purpose Purpose) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.tokens {
		if k.purpose == purpose {
			n++
		}
	}
	return n
}

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*UserInfo
	email map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*UserInfo{}, email: map[string]string{}}
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.email[strings.ToLower(email)]
	if !ok {
		return nil, core.ErrNotFound
	}
	u := *m.byID[id]
	return &u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, email, passwordHash, name string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[strings.ToLower(email)]; ok {
		return nil, core.ErrDuplicateKey
	}
	u := &UserInfo{
		ID:           core.NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         core.RoleUser,
		CreatedAt:    time.Now(),
	}
	m.byID[u.ID] = u
	m.email[strings.ToLower(email)] = u.ID
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) MarkVerified(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.Verified = true
	return nil
}

func (m *memUsers) FindOrCreateGoogleUser(
	ctx context.Context,
	_, email, name string,
) (*UserInfo, error) {
	if u, err := m.GetByEmail(ctx, email); err == nil {
		return u, nil
	}
	return m.Create(ctx, email, "", name)
}

type outbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (o *outbox) Notify(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last(t *testing.T, kind notify.Kind) notify.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].Kind == kind {
			return o.sent[i]
		}
	}
	t.Fatalf("no %s message sent", kind)
	return notify.Message{}
}

func (o *outbox) count(kind notify.Kind) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, m := range o.sent {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

// linkToken pulls the token query parameter out of the action link in the
// plain-text body.
func linkToken(t *testing.T, msg notify.Message) string {
	t.Helper()
	for _, line := range strings.Split(msg.Text, "\n") {
		idx := strings.Index(line, "http")
		if idx < 0 {
			continue
		}
		u, err := url.Parse(line[idx:])
		require.NoError(t, err)
		return u.Query().Get("token")
	}
	t.Fatalf("no link in %q", msg.Text)
	return ""
}

type authFixture struct {
	svc    *Service
	tokens *memTokens
	users  *memUsers
	mail   *outbox
	redis  *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	require.NoError(t, GenerateKeyPair(priv, pub))

	jwtManager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "storefront-test",
		Audience:           "storefront-test",
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &authFixture{
		tokens: newMemTokens(),
		users:  newMemUsers(),
		mail:   &outbox{},
		redis:  mr,
	}
	f.svc = NewService(
		f.tokens,
		jwtManager,
		f.users,
		rdb,
		f.mail,
		Links{
			VerificationURL:  "https://shop.test/verify",
			ResetPasswordURL: "https://shop.test/reset",
			SignInURL:        "https://shop.test/sign-in",
		},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func (f *authFixture) register(t *testing.T, email, password string) *UserResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Name:     "Sam",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return resp
}

func principalOf(u *UserResponse) core.Principal {
	return core.Principal{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func TestRegisterIssuesOneVerificationToken(t *testing.T) {
	f := newAuthFixture(t)
	before := time.Now()

	user := f.register(t, "sam@example.com", "s3cret-pass")

	assert.Equal(t, "sam@example.com", user.Email)
	assert.Equal(t, core.RoleUser, user.Role)
	assert.False(t, user.Verified)

	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	assert.Equal(t, 1, f.tokens.count(PurposeEmailVerification))
	tok, err := f.tokens.Find(context.Background(), user.ID, PurposeEmailVerification)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(OneTimeTokenTTL), tok.ExpiresAt, time.Minute)

	assert.Equal(t, 1, f.mail.count(notify.KindEmailVerification))
	msg := f.mail.last(t, notify.KindEmailVerification)
	assert.Equal(t, "sam@example.com", msg.To)
	assert.Contains(t, msg.Text, "userId="+user.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "dup@example.com", "s3cret-pass")

	_, err := f.svc.Register(context.Background(), RegisterRequest{
		Name:     "Other",
		Email:    "dup@example.com",
		Password: "another-pass",
	})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestLoginAndRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "sam@example.com", "s3cret-pass")

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, "Bearer", resp.Tokens.TokenType)

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, core.RoleUser, claims.Role)

	rotated, err := f.svc.Refresh(ctx, resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	t.Run("reused refresh token revokes the session", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, resp.Tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenReuse)

		_, err = f.svc.Refresh(ctx, rotated.Tokens.RefreshToken)
		assert.ErrorIs(t, err, core.ErrTokenRevoked)
	})
}

func TestLoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "sam@example.com", "s3cret-pass")

	_, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestLogoutBlacklistsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "sam@example.com", "s3cret-pass")

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, principalOf(user), claims))

	_, err = f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
	assert.True(t, f.redis.TTL(blacklistPrefix+claims.TokenID) > 0)

	_, err = f.svc.Refresh(ctx, resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	assert.ErrorIs(t, f.svc.Logout(ctx, core.Principal{}, nil), core.ErrUnauthorized)
}

func TestVerifyAccessTokenFailsOpenWithoutRedis(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "sam@example.com", "s3cret-pass")

	resp, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	f.redis.Close()

	claims, err := f.svc.VerifyAccessToken(ctx, resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestVerifyEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "sam@example.com", "s3cret-pass")
	raw := linkToken(t, f.mail.last(t, notify.KindEmailVerification))

	err := f.svc.VerifyEmail(ctx, VerifyEmailRequest{UserID: user.ID, Token: "not-the-token"})
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	require.NoError(t, f.svc.VerifyEmail(ctx, VerifyEmailRequest{UserID: user.ID, Token: raw}))

	current, err := f.svc.GetCurrentUser(ctx, principalOf(user))
	require.NoError(t, err)
	assert.True(t, current.Verified)

	err = f.svc.VerifyEmail(ctx, VerifyEmailRequest{UserID: user.ID, Token: raw})
	assert.ErrorIs(t, err, core.ErrTokenInvalid, "token is single use")

	err = f.svc.ResendVerification(ctx, "sam@example.com")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "sam@example.com", "s3cret-pass")
	raw := linkToken(t, f.mail.last(t, notify.KindEmailVerification))

	f.svc.now = func() time.Time { return time.Now().Add(OneTimeTokenTTL + time.Minute) }

	err := f.svc.VerifyEmail(ctx, VerifyEmailRequest{UserID: user.ID, Token: raw})
	assert.ErrorIs(t, err, core.ErrTokenExpired)
	assert.Zero(t, f.tokens.count(PurposeEmailVerification))
}

func TestResendVerificationReplacesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "sam@example.com", "s3cret-pass")
	first := linkToken(t, f.mail.last(t, notify.KindEmailVerification))

	require.NoError(t, f.svc.ResendVerification(ctx, "sam@example.com"))
	second := linkToken(t, f.mail.last(t, notify.KindEmailVerification))

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, f.tokens.count(PurposeEmailVerification))

	err := f.svc.VerifyEmail(ctx, VerifyEmailRequest{UserID: user.ID, Token: first})
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
	require.NoError(t, f.svc.VerifyEmail(ctx, VerifyEmailRequest{UserID: user.ID, Token: second}))

	require.NoError(t, f.svc.ResendVerification(ctx, "nobody@example.com"))
}

func TestForgetPasswordIsSilentForUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.ForgetPassword(context.Background(), "nobody@example.com"))
	assert.Zero(t, f.mail.count(notify.KindPasswordReset))
	assert.Zero(t, f.tokens.count(PurposePasswordReset))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "sam@example.com", "s3cret-pass")

	_, err := f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgetPassword(ctx, "sam@example.com"))
	raw := linkToken(t, f.mail.last(t, notify.KindPasswordReset))

	err = f.svc.UpdatePassword(ctx, UpdatePasswordRequest{
		UserID:   user.ID,
		Token:    raw,
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput, "same password is rejected")
	assert.Equal(t, 1, f.tokens.count(PurposePasswordReset), "rejected attempt keeps the reset link")

	require.NoError(t, f.svc.UpdatePassword(ctx, UpdatePasswordRequest{
		UserID:   user.ID,
		Token:    raw,
		Password: "brand-new-pass",
	}))

	assert.Zero(t, f.tokens.count(PurposePasswordReset), "reset token is spent")
	err = f.svc.UpdatePassword(ctx, UpdatePasswordRequest{
		UserID:   user.ID,
		Token:    raw,
		Password: "another-pass",
	})
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	assert.Zero(t, f.tokens.count(PurposeRefresh), "refresh tokens are revoked")
	assert.Equal(t, 1, f.mail.count(notify.KindPasswordChanged))

	_, err = f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	_, err = f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "brand-new-pass"})
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := f.register(t, "sam@example.com", "s3cret-pass")
	p := principalOf(user)

	err := f.svc.ChangePassword(ctx, p, ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "brand-new-pass",
	})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	require.NoError(t, f.svc.ChangePassword(ctx, p, ChangePasswordRequest{
		CurrentPassword: "s3cret-pass",
		NewPassword:     "brand-new-pass",
	}))

	_, err = f.svc.Login(ctx, LoginRequest{Email: "sam@example.com", Password: "brand-new-pass"})
	assert.NoError(t, err)
}

func TestStartTokenCleanupStopsWithContext(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.tokens.Replace(context.Background(), &UserToken{
		UserID:    core.NewID(),
		Purpose:   PurposePasswordReset,
		TokenHash: "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.svc.StartTokenCleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return f.tokens.count(PurposePasswordReset) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}

func TestBuildLink(t *testing.T) {
	assert.Equal(t,
		"https://shop.test/verify?token=abc&userId=u1",
		buildLink("https://shop.test/verify", "abc", "u1"),
	)
	assert.True(t, strings.HasPrefix(
		buildLink("https://shop.test/verify?ref=mail", "abc", "u1"),
		"https://shop.test/verify?ref=mail&",
	))
}
