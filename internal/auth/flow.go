package auth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/KigaliAI/youtufy-app/internal/model"
)

// ReadOnlyScope is the single fixed scope the application requests.
// Incremental consent is not used.
const ReadOnlyScope = "https://www.googleapis.com/auth/youtube.readonly"

// Config holds the OAuth client registration. Endpoint defaults to Google's;
// tests point it at a local server.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
}

// Flow builds authorization URLs and exchanges one-time codes for an initial
// credential (authorization-code grant with offline access).
type Flow struct {
	conf *oauth2.Config
}

func NewFlow(cfg Config) *Flow {
	ep := cfg.Endpoint
	if ep.AuthURL == "" {
		ep = google.Endpoint
	}
	return &Flow{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     ep,
			Scopes:       []string{ReadOnlyScope},
		},
	}
}

// AuthorizationURL returns the consent URL for the given state nonce.
// Always requests offline access so a refresh token is granted. Pure; no side
// effects.
func (f *Flow) AuthorizationURL(state string) string {
	return f.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades a one-time authorization code for a Credential bound to
// userID. Failures are typed: an expired or reused code means the user should
// restart the flow, anything else points at client configuration.
func (f *Flow) Exchange(ctx context.Context, userID, code string) (*model.Credential, error) {
	tok, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return nil, &ExchangeError{Kind: classifyExchange(err), Err: err}
	}

	return &model.Credential{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       f.conf.Scopes,
	}, nil
}

// OAuth2 returns the underlying oauth2 config, shared with the refresher so
// both sides talk to the same token endpoint.
func (f *Flow) OAuth2() *oauth2.Config { return f.conf }

func classifyExchange(err error) ExchangeKind {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		switch rerr.ErrorCode {
		case "invalid_grant":
			// Expired, revoked or already-used code.
			return ExchangeCodeInvalid
		case "invalid_client", "unauthorized_client", "invalid_request", "redirect_uri_mismatch":
			return ExchangeConfig
		}
		if rerr.Response != nil && rerr.Response.StatusCode == 400 {
			return ExchangeCodeInvalid
		}
	}
	return ExchangeConfig
}
