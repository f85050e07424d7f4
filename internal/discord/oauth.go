// Package discord talks to the Discord OAuth2 API and webhooks.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Endpoint is Discord's OAuth2 endpoint
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// DefaultAPIBase is the REST API root
const DefaultAPIBase = "https://discord.com/api"

// Profile is the subset of /users/@me used for accounts
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
}

// DisplayName prefers the global display name over the username
func (p Profile) DisplayName() string {
	if p.GlobalName != "" {
		return p.GlobalName
	}
	return p.Username
}

// AvatarURL returns the CDN URL of the avatar, or the default avatar
func (p Profile) AvatarURL() string {
	if p.Avatar == "" {
		return "https://cdn.discordapp.com/embed/avatars/0.png"
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", p.ID, p.Avatar)
}

// OAuth runs the authorization code flow
type OAuth struct {
	cfg     *oauth2.Config
	APIBase string
}

// NewOAuth creates a client requesting the identify and email scopes
func NewOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint:     Endpoint,
		},
		APIBase: DefaultAPIBase,
	}
}

// AuthURL is where the browser is sent to log in
func (o *OAuth) AuthURL(state string) string {
	return o.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

// Exchange trades the callback code for a token and loads the profile
func (o *OAuth) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.APIBase+"/users/@me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile: status %d", resp.StatusCode)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("decode profile: missing id")
	}
	return &p, nil
}
