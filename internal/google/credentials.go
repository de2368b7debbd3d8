package google

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// AuthorizedUser is the on-disk token format ("authorized user" JSON).
type AuthorizedUser struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
}

// ParseAuthorizedUser decodes an authorized-user JSON document.
func ParseAuthorizedUser(data []byte) (*AuthorizedUser, error) {
	var au AuthorizedUser
	if err := json.Unmarshal(data, &au); err != nil {
		return nil, fmt.Errorf("failed to parse authorized user JSON: %w", err)
	}
	if au.ClientID == "" && au.RefreshToken == "" && au.Token == "" {
		return nil, errors.New("authorized user JSON has no token, refresh_token or client_id")
	}
	return &au, nil
}

// DecodeAuthorizedUserB64 decodes a standard base64 encoded authorized-user
// JSON document, as stored in GMAIL_TOKEN_JSON_B64.
func DecodeAuthorizedUserB64(s string) (*AuthorizedUser, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 token: %w", err)
	}
	return ParseAuthorizedUser(data)
}

// LoadAuthorizedUser reads the token file at path.
func LoadAuthorizedUser(path string) (*AuthorizedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseAuthorizedUser(data)
}

// Config returns the OAuth2 client configuration embedded in au.
func (au *AuthorizedUser) Config(scopes []string) *oauth2.Config {
	endpoint := google.Endpoint
	if au.TokenURI != "" {
		endpoint.TokenURL = au.TokenURI
	}
	if len(scopes) == 0 {
		scopes = au.Scopes
	}
	return &oauth2.Config{
		ClientID:     au.ClientID,
		ClientSecret: au.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

// OAuth2Token converts au to an *oauth2.Token. A missing or unparsable
// expiry leaves Expiry zero, which oauth2 treats as non-expiring.
func (au *AuthorizedUser) OAuth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  au.Token,
		RefreshToken: au.RefreshToken,
		TokenType:    "Bearer",
	}
	if au.Expiry != "" {
		if t, err := time.Parse(time.RFC3339Nano, au.Expiry); err == nil {
			tok.Expiry = t
		}
	}
	return tok
}

// NewAuthorizedUser captures conf and tok in the on-disk format.
func NewAuthorizedUser(conf *oauth2.Config, tok *oauth2.Token) *AuthorizedUser {
	au := &AuthorizedUser{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     conf.Endpoint.TokenURL,
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		Scopes:       conf.Scopes,
	}
	if !tok.Expiry.IsZero() {
		au.Expiry = tok.Expiry.UTC().Format(time.RFC3339Nano)
	}
	return au
}

// Save writes au to path with owner-only permissions.
func (au *AuthorizedUser) Save(path string) error {
	data, err := json.Marshal(au)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// EncodeB64 returns au as base64 JSON for GMAIL_TOKEN_JSON_B64.
func (au *AuthorizedUser) EncodeB64() (string, error) {
	data, err := json.Marshal(au)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ClientConfig parses an OAuth client secret JSON ("installed" or "web").
func ClientConfig(data []byte, scopes []string) (*oauth2.Config, error) {
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret: %w", err)
	}
	return conf, nil
}
