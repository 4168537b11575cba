package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/i474232898/activity-weather/internal/athlete"
)

// Scope requested from the upstream platform. It is a single comma-separated
// value rather than space-separated scopes.
const Scope = "read,activity:write,activity:read_all"

// Profile identifies the athlete who just authorized the app.
type Profile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Onboarding performs the authorization-code half of the OAuth flow.
type Onboarding struct {
	config *oauth2.Config
	client *http.Client
	store  athlete.Store
	locker athlete.Locker
}

// NewOnboarding constructs Onboarding. oauthBaseURL is the upstream OAuth
// root, e.g. https://www.strava.com/oauth. locker is the one the Manager uses,
// so a re-authorization never interleaves with a refresh.
func NewOnboarding(store athlete.Store, locker athlete.Locker, client *http.Client, oauthBaseURL, clientID, clientSecret, redirectURL string) *Onboarding {
	base := strings.TrimRight(oauthBaseURL, "/")
	return &Onboarding{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/authorize",
				TokenURL:  base + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: redirectURL,
			Scopes:      []string{Scope},
		},
		client: client,
		store:  store,
		locker: locker,
	}
}

// TokenURL is the endpoint used for both code and refresh exchanges.
func (o *Onboarding) TokenURL() string {
	return o.config.Endpoint.TokenURL
}

// AuthorizeURL builds the link the athlete follows to grant access.
func (o *Onboarding) AuthorizeURL(state string) string {
	return o.config.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

// Authorize exchanges code for credentials and stores them. Nothing is
// stored unless the response carries the athlete id and all token fields.
func (o *Onboarding) Authorize(ctx context.Context, code string) (Profile, error) {
	if o.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.client)
	}

	tok, err := o.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("exchange code: %w", err)
	}

	raw, _ := tok.Extra("athlete").(map[string]interface{})
	profile := Profile{
		ID:   int64Value(raw["id"]),
		Name: strings.TrimSpace(stringValue(raw["firstname"]) + " " + stringValue(raw["lastname"])),
	}
	if profile.ID == 0 {
		return Profile{}, fmt.Errorf("%w: athlete id missing", ErrMalformedToken)
	}

	expiresAt := tok.Expiry
	if exp := int64Value(tok.Extra("expires_at")); exp > 0 {
		expiresAt = time.Unix(exp, 0).UTC()
	}
	if tok.RefreshToken == "" || expiresAt.IsZero() {
		return Profile{}, fmt.Errorf("%w: refresh_token or expires_at missing", ErrMalformedToken)
	}

	creds := athlete.Credentials{
		UserID:       profile.ID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
	}
	unlock, err := o.locker.Lock(ctx, profile.ID)
	if err != nil {
		return Profile{}, fmt.Errorf("lock athlete %d: %w", profile.ID, err)
	}
	defer unlock()

	if err := o.store.PutCredentials(ctx, creds); err != nil {
		return Profile{}, fmt.Errorf("store credentials: %w", err)
	}
	return profile, nil
}
