// Package auth runs the Strava OAuth flow and keeps the resulting tokens in
// the local database.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

const (
	authURL  = "https://www.strava.com/oauth/authorize"
	tokenURL = "https://www.strava.com/oauth/token"
	scopes   = "activity:read_all"

	// DefaultCallbackPort is where the local OAuth redirect is served
	DefaultCallbackPort = 8089

	authTimeout  = 5 * time.Minute
	expiryMargin = 5 * time.Minute
)

// StravaOAuthConfig returns an OAuth2 config for Strava redirecting to the
// local callback on port
func StravaOAuthConfig(clientID, clientSecret string, port int) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
		RedirectURL: fmt.Sprintf("http://localhost:%d/callback", port),
		Scopes:      []string{scopes},
	}
}

// TokenResponse is the token set persisted between runs
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	TokenType    string `json:"token_type"`
}

// TokenFromOAuth2 converts an oauth2.Token to a TokenResponse
func TokenFromOAuth2(token *oauth2.Token) *TokenResponse {
	return &TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.Unix(),
		TokenType:    token.TokenType,
	}
}

// ToOAuth2Token converts a TokenResponse back to an oauth2.Token
func (t *TokenResponse) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       time.Unix(t.ExpiresAt, 0),
		TokenType:    t.TokenType,
	}
}

// callbackHandler serves the OAuth redirect, checking state and delivering
// either a code or an error
func callbackHandler(state string, codes chan<- string, errs chan<- error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(errs, errors.New("authorization failed: state mismatch"))
			return
		}

		code := q.Get("code")
		if code == "" {
			msg := q.Get("error")
			if msg == "" {
				msg = "no authorization code received"
			}
			http.Error(w, msg, http.StatusBadRequest)
			deliver(errs, fmt.Errorf("authorization failed: %s", msg))
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>`)
		deliver(codes, code)
	})
	return mux
}

// deliver sends v unless the channel already holds a result
func deliver[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// Authenticate performs the browser OAuth flow and returns tokens
func Authenticate(ctx context.Context, clientID, clientSecret string, port int) (*TokenResponse, error) {
	config := StravaOAuthConfig(clientID, clientSecret, port)
	state := uuid.NewString()

	codes := make(chan string, 1)
	errs := make(chan error, 1)

	listener, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("starting callback listener: %w", err)
	}
	server := &http.Server{Handler: callbackHandler(state, codes, errs)}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(errs, fmt.Errorf("callback server error: %w", err))
		}
	}()
	defer server.Shutdown(context.Background())

	url := config.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "force"))

	fmt.Fprintln(os.Stderr, "Opening browser for Strava authorization...")
	fmt.Fprintf(os.Stderr, "If browser doesn't open, visit: %s\n\n", url)
	if err := browser.OpenURL(url); err != nil {
		logging.Warn("could not open browser automatically", "error", err)
	}

	var code string
	select {
	case code = <-codes:
	case err := <-errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, errors.New("authorization timeout")
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return TokenFromOAuth2(token), nil
}

// RefreshAccessToken exchanges a refresh token for a new token set
func RefreshAccessToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*TokenResponse, error) {
	config := StravaOAuthConfig(clientID, clientSecret, DefaultCallbackPort)

	// an already expired token forces the source to refresh
	stale := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}

	fresh, err := config.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return TokenFromOAuth2(fresh), nil
}

// IsTokenExpired reports whether the token expires within the next five minutes
func IsTokenExpired(expiresAt int64) bool {
	return time.Now().Add(expiryMargin).Unix() > expiresAt
}
