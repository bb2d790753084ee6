package model

import "time"

// expirySkew is subtracted from the stored expiry when judging validity so a
// token that is about to expire mid-request is refreshed up front.
const expirySkew = 30 * time.Second

// Credential is a user's OAuth grant for the platform API: access token,
// optional refresh token, expiry and granted scopes. It is persisted per user
// identity and mutated in place on refresh.
type Credential struct {
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Valid reports whether the access token is present and not expired
// (with a small skew so near-expired tokens count as stale).
func (c *Credential) Valid() bool {
	return c.AccessToken != "" && time.Now().Add(expirySkew).Before(c.Expiry)
}

// Refreshable reports whether a refresh token is available.
func (c *Credential) Refreshable() bool {
	return c.RefreshToken != ""
}

// Dead reports whether the credential can no longer be repaired: no usable
// access token and no refresh token. A dead credential forces re-authorization.
func (c *Credential) Dead() bool {
	return !c.Valid() && !c.Refreshable()
}
