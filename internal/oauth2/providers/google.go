package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/secrets/internal/oauth2"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleProvider implements the authorization code flow against Google.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	// endpoint overrides for tests
	tokenURL    string
	userinfoURL string
}

// NewGoogleProvider creates a Google OAuth2 provider. The timeout bounds
// every provider call; a hung Google endpoint fails the login instead of
// holding the request open.
func NewGoogleProvider(clientID, clientSecret string, timeout time.Duration) *GoogleProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokenURL:    googleTokenURL,
		userinfoURL: googleUserinfoURL,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) BuildAuthURL(redirectURL, state string) string {
	params := url.Values{}
	params.Set("client_id", p.clientID)
	params.Set("redirect_uri", redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("state", state)

	return googleAuthURL + "?" + params.Encode()
}

// Exchange trades the authorization code for tokens and fetches the
// userinfo document. Timeouts map to oauth2.ErrProviderTimeout so callers
// can tell a slow provider from a rejected code.
func (p *GoogleProvider) Exchange(ctx context.Context, code, redirectURL string) (*oauth2.Profile, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", p.clientID)
	data.Set("client_secret", p.clientSecret)
	data.Set("redirect_uri", redirectURL)

	req, err := http.NewRequestWithContext(ctx, "POST", p.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("token exchange", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%w: %s - %s", oauth2.ErrExchangeFailed, errResp.Error, errResp.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: status %d", oauth2.ErrExchangeFailed, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		IDToken     string `json:"id_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", oauth2.ErrExchangeFailed)
	}

	return p.fetchProfile(ctx, tokenResp.AccessToken)
}

func (p *GoogleProvider) fetchProfile(ctx context.Context, accessToken string) (*oauth2.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("userinfo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: userinfo status %d: %s", oauth2.ErrExchangeFailed, resp.StatusCode, string(body))
	}

	var userinfo struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userinfo); err != nil {
		return nil, fmt.Errorf("failed to parse userinfo response: %w", err)
	}
	if userinfo.Sub == "" {
		return nil, fmt.Errorf("%w: userinfo missing subject", oauth2.ErrExchangeFailed)
	}

	return &oauth2.Profile{
		Provider: p.Name(),
		Subject:  userinfo.Sub,
		Email:    userinfo.Email,
		Name:     userinfo.Name,
	}, nil
}

// classifyTransportError separates timeouts from other transport failures.
func classifyTransportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, oauth2.ErrProviderTimeout)
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return fmt.Errorf("%s: %w", op, oauth2.ErrProviderTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// RegisterGoogle registers the Google provider when credentials are
// configured.
func RegisterGoogle(registry *oauth2.Registry, clientID, clientSecret string, timeout time.Duration) {
	if clientID == "" || clientSecret == "" {
		return
	}
	registry.Register(NewGoogleProvider(clientID, clientSecret, timeout))
}
