package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Interactive runs the installed-app consent flow. It listens on an
// ephemeral loopback port, hands the consent URL to prompt, waits for the
// redirect and exchanges the code (with PKCE) for a token.
func Interactive(ctx context.Context, conf *oauth2.Config, prompt func(authURL string)) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to open loopback listener: %w", err)
	}
	defer ln.Close()

	c := *conf
	c.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())

	state, err := randomState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			var res result
			switch {
			case q.Get("state") != state:
				http.Error(w, "state mismatch", http.StatusBadRequest)
				return
			case q.Get("error") != "":
				res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
				http.Error(w, "Authorization failed. You may close this window.", http.StatusForbidden)
			case q.Get("code") == "":
				res.err = errors.New("authorization response has no code")
				http.Error(w, "Missing code.", http.StatusBadRequest)
			default:
				res.code = q.Get("code")
				fmt.Fprintln(w, "Authentication complete. You may close this window.")
			}
			select {
			case results <- res:
			default:
			}
		}),
	}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	prompt(c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))

	var res result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for authorization: %w", ctx.Err())
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	tok, err := c.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
