package auth

import (
	"errors"
	"net/url"

	"golang.org/x/oauth2/clientcredentials"
)

// Conf holds the OAuth2 client credentials used against the telemetry API.
// Leaving AuthURL empty disables authentication.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURL      string   `json:"auth_url"`
	Scopes       []string `json:"scopes"`
	// Audience is sent as the audience token parameter when set.
	Audience string `json:"audience"`
}

// Enabled reports whether client credentials are configured.
func (c Conf) Enabled() bool { return c.AuthURL != "" && c.ClientID != "" }

// Validate checks a partially filled section.
func (c Conf) Validate() error {
	if c.AuthURL == "" && c.ClientID == "" {
		return nil
	}
	if c.ClientID == "" {
		return errors.New("auth: client_id is required with auth_url")
	}
	u, err := url.Parse(c.AuthURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("auth: invalid auth_url")
	}
	return nil
}

func (c *Conf) toOauth2Config() clientcredentials.Config {
	cc := clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.AuthURL,
		Scopes:       c.Scopes,
	}
	if c.Audience != "" {
		cc.EndpointParams = url.Values{"audience": {c.Audience}}
	}
	return cc
}
