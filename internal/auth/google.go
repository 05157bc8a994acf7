// AngelaMos | 2026
// google.go

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/carterperez-dev/storefront-api/internal/config"
	"github.com/carterperez-dev/storefront-api/internal/core"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

type googleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type GoogleAuth struct {
	oauth           *oauth2.Config
	service         *Service
	successRedirect string
	userInfoURL     string
}

// NewGoogleAuth returns nil when Google sign-in is not configured.
func NewGoogleAuth(cfg config.GoogleConfig, service *Service) *GoogleAuth {
	if !cfg.Enabled() {
		return nil
	}

	return &GoogleAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		service:         service,
		successRedirect: cfg.SuccessRedirect,
		userInfoURL:     googleUserInfoURL,
	}
}

func (g *GoogleAuth) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleAuth) SignIn(ctx context.Context, code string) (*AuthResponse, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, core.NewAppError(
			fmt.Errorf("exchange code: %w", err),
			"google sign-in failed",
			http.StatusUnauthorized,
			"OAUTH_EXCHANGE_FAILED",
		)
	}

	profile, err := g.fetchProfile(ctx, token)
	if err != nil {
		return nil, core.UpstreamError("google userinfo", err)
	}

	if !profile.EmailVerified || profile.Email == "" {
		return nil, core.UnauthorizedError("google account email is not verified")
	}

	user, err := g.service.userProvider.FindOrCreateGoogleUser(
		ctx,
		profile.Subject,
		profile.Email,
		profile.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("google user: %w", err)
	}

	return g.service.issueTokens(ctx, user)
}

func (g *GoogleAuth) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	return &profile, nil
}
