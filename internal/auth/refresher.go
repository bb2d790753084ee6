package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/KigaliAI/youtufy-app/internal/model"
	"github.com/KigaliAI/youtufy-app/internal/store"
	"github.com/KigaliAI/youtufy-app/pkg/hash"
)

const (
	refreshAttempts = 3
	refreshBackoff  = 500 * time.Millisecond
)

// Refresher turns a possibly-stale credential into a valid one, refreshing
// through the authorization server when required and persisting the result.
//
// Refreshes are single-flight per user identity: the authorization server
// invalidates the previous access token on each exchange, so duplicate
// concurrent refreshes can race and strand one caller with a dead token.
type Refresher struct {
	conf  *oauth2.Config
	creds store.CredentialStore
	group singleflight.Group
}

func NewRefresher(conf *oauth2.Config, creds store.CredentialStore) *Refresher {
	return &Refresher{conf: conf, creds: creds}
}

// EnsureValid returns cred unchanged when it is still valid (zero network
// calls). An expired but refreshable credential triggers exactly one refresh
// exchange, even under concurrent callers; the refreshed credential is
// persisted before being returned. A dead credential, or a refresh token the
// server rejects, yields ErrAuthExpired.
func (r *Refresher) EnsureValid(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	if cred.Valid() {
		return cred, nil
	}
	if !cred.Refreshable() {
		return nil, ErrAuthExpired
	}

	v, err, _ := r.group.Do(cred.UserID, func() (any, error) {
		return r.refresh(ctx, cred)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Credential), nil
}

func (r *Refresher) refresh(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	var tok *oauth2.Token
	var err error

	for attempt := 1; attempt <= refreshAttempts; attempt++ {
		tok, err = r.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
		if err == nil {
			break
		}
		if terminalRefreshError(err) {
			log.Warn().Str("user", hash.LogID(cred.UserID)).Err(err).
				Msg("refresh token rejected by authorization server")
			return nil, ErrAuthExpired
		}
		if attempt < refreshAttempts {
			select {
			case <-time.After(refreshBackoff * time.Duration(1<<(attempt-1))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("refresh exchange: %w", err)
	}

	refreshed := &model.Credential{
		UserID:      cred.UserID,
		AccessToken: tok.AccessToken,
		// The server may rotate the refresh token; keep the old one when
		// the response omits it.
		RefreshToken: cred.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       cred.Scopes,
	}
	if tok.RefreshToken != "" {
		refreshed.RefreshToken = tok.RefreshToken
	}

	if err := r.creds.Put(ctx, cred.UserID, refreshed); err != nil {
		return nil, err
	}

	log.Debug().Str("user", hash.LogID(cred.UserID)).Time("expiry", refreshed.Expiry).
		Msg("credential refreshed")
	return refreshed, nil
}

// terminalRefreshError reports whether the token endpoint explicitly rejected
// the grant. Network failures and 5xx responses are transient and retried;
// an invalid_grant-class rejection means the refresh token is dead.
func terminalRefreshError(err error) bool {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.ErrorCode == "invalid_grant" || rerr.ErrorCode == "invalid_client" {
		return true
	}
	if rerr.Response != nil && rerr.Response.StatusCode >= 400 && rerr.Response.StatusCode < 500 {
		return true
	}
	return false
}
