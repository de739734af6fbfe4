package spytools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"

	"github.com/altio-ai/cheeko/pkg/config"
)

// GoogleScopes are the readonly scopes the spy tools need.
var GoogleScopes = []string{gmail.GmailReadonlyScope, calendar.CalendarReadonlyScope}

// storedToken is the on-disk credential layout. It reads both the
// x/oauth2 shape ("access_token") and the shape the original Python
// tooling wrote ("token"), and writes both so either side can load it.
type storedToken struct {
	Token        string `json:"token,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Expiry       string `json:"expiry,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// HasUsableToken reports whether raw credential JSON carries an access
// token under either known key.
func HasUsableToken(raw []byte) bool {
	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return false
	}
	return st.Token != "" || st.AccessToken != ""
}

func parseStoredToken(raw []byte) (*oauth2.Token, *storedToken, error) {
	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, nil, fmt.Errorf("parse stored token: %w", err)
	}
	access := st.AccessToken
	if access == "" {
		access = st.Token
	}
	if access == "" && st.RefreshToken == "" {
		return nil, nil, fmt.Errorf("stored credential has no access or refresh token")
	}
	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: st.RefreshToken,
		TokenType:    st.TokenType,
	}
	if st.Expiry != "" {
		if exp, err := time.Parse(time.RFC3339, st.Expiry); err == nil {
			tok.Expiry = exp
		}
	}
	return tok, &st, nil
}

// LoadGoogleToken finds the stored Google credential: the
// GOOGLE_TOKEN_JSON environment value wins (headless deployments),
// then the local token file. The returned source is "env" or "file".
func LoadGoogleToken(cfg *config.Config) (*oauth2.Token, *storedToken, string, error) {
	if cfg.GoogleTokenJSON != "" {
		tok, st, err := parseStoredToken([]byte(cfg.GoogleTokenJSON))
		if err != nil {
			return nil, nil, "", fmt.Errorf("GOOGLE_TOKEN_JSON: %w", err)
		}
		return tok, st, "env", nil
	}
	raw, err := os.ReadFile(cfg.TokenPath)
	if err != nil {
		return nil, nil, "", fmt.Errorf("no stored Google credential: %w", err)
	}
	tok, st, err := parseStoredToken(raw)
	if err != nil {
		return nil, nil, "", err
	}
	return tok, st, "file", nil
}

// SaveToken persists a credential to path in the dual-key layout.
func SaveToken(path string, tok *oauth2.Token) error {
	st := storedToken{
		Token:        tok.AccessToken,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		st.Expiry = tok.Expiry.UTC().Format(time.RFC3339)
	}
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// oauthConfig builds the OAuth2 client config, preferring the client
// secrets file and falling back to ids embedded in the stored token.
func oauthConfig(cfg *config.Config, st *storedToken) (*oauth2.Config, error) {
	if raw, err := os.ReadFile(cfg.CredentialsPath); err == nil {
		oc, err := google.ConfigFromJSON(raw, GoogleScopes...)
		if err != nil {
			return nil, fmt.Errorf("parse client secrets: %w", err)
		}
		return oc, nil
	}
	if st != nil && st.ClientID != "" {
		return &oauth2.Config{
			ClientID:     st.ClientID,
			ClientSecret: st.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       GoogleScopes,
		}, nil
	}
	return nil, fmt.Errorf("no OAuth client configuration available")
}

// GoogleHTTPClient returns an authenticated, auto-refreshing HTTP
// client for the Google APIs, or an error when no credential is
// available. Refreshed tokens are not written back when the source is
// the environment.
func GoogleHTTPClient(ctx context.Context, cfg *config.Config) (*http.Client, string, error) {
	tok, st, source, err := LoadGoogleToken(cfg)
	if err != nil {
		return nil, "", err
	}
	oc, err := oauthConfig(cfg, st)
	if err != nil {
		// No refresh possible; use the bare token while it lasts
		log.Printf("[SpyTools] no OAuth client config, using static token: %v", err)
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)), source, nil
	}
	ts := oc.TokenSource(ctx, tok)
	if source == "file" {
		ts = &persistingTokenSource{base: ts, path: cfg.TokenPath, last: tok.AccessToken}
	}
	return oauth2.NewClient(ctx, ts), source, nil
}

// persistingTokenSource writes refreshed tokens back to the token file
// so the next process start skips the refresh round trip.
type persistingTokenSource struct {
	base oauth2.TokenSource
	path string
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := SaveToken(p.path, tok); err != nil {
			log.Printf("[SpyTools] failed to persist refreshed token: %v", err)
		} else {
			log.Printf("[SpyTools] refreshed Google credential saved to %s", p.path)
		}
	}
	return tok, nil
}

// RunLocalFlow performs the interactive browser authorization on a
// local machine: it listens on an ephemeral localhost port, prints the
// consent URL, exchanges the returned code and persists the credential
// to cfg.TokenPath. Headless deployments must inject GOOGLE_TOKEN_JSON
// instead.
func RunLocalFlow(ctx context.Context, cfg *config.Config) error {
	raw, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return fmt.Errorf("client secrets not found at %s: %w", cfg.CredentialsPath, err)
	}
	oc, err := google.ConfigFromJSON(raw, GoogleScopes...)
	if err != nil {
		return fmt.Errorf("parse client secrets: %w", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for OAuth callback: %w", err)
	}
	defer ln.Close()
	oc.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	codeCh := make(chan string, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this tab and get back to Cheeko.")
		select {
		case codeCh <- code:
		default:
		}
	})}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	authURL := oc.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	log.Printf("[SpyTools] open this URL in your browser to authorize: %s", authURL)

	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	tok, err := oc.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := SaveToken(cfg.TokenPath, tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	log.Printf("[SpyTools] Google credential saved to %s", cfg.TokenPath)
	return nil
}
