// Package authflow runs the interactive OAuth authorization-code flow with
// PKCE. The browser redirect lands on a short-lived localhost listener; the
// session is resolved exactly once, whether by callback, error, or
// cancellation.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	cv "github.com/nirasan/go-oauth-pkce-code-verifier"
	"golang.org/x/oauth2"

	"github.com/mtalvio/onedrive-audit/internal/logger"
)

const callbackAddr = "127.0.0.1:53682"
const redirectURL = "http://localhost:53682/"

// Scopes requested during interactive login. Includes write scope so the
// resulting token supports grant/revoke operations.
var Scopes = []string{"offline_access", "Files.ReadWrite.All", "User.Read"}

const (
	defaultAuthURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	defaultTokenURL = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
)

var (
	authURL  = defaultAuthURL
	tokenURL = defaultTokenURL
)

// SetEndpoints overrides the OAuth endpoints for tests. Empty strings
// restore the defaults.
func SetEndpoints(auth, token string) {
	if auth == "" {
		auth = defaultAuthURL
	}
	if token == "" {
		token = defaultTokenURL
	}
	authURL = auth
	tokenURL = token
}

var ErrCancelled = errors.New("authentication cancelled")

type result struct {
	code string
	err  error
}

// Session is a single-use authentication attempt. It owns the PKCE verifier,
// the callback listener, and a once-resolved result channel.
type Session struct {
	cfg      *oauth2.Config
	verifier *cv.CodeVerifier
	log      logger.Logger

	once sync.Once
	done chan result
	srv  *http.Server
}

// NewSession prepares a session for the given OAuth client ID.
func NewSession(clientID string, log logger.Logger) (*Session, error) {
	verifier, err := cv.CreateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("creating PKCE verifier: %w", err)
	}
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Session{
		cfg: &oauth2.Config{
			ClientID:    clientID,
			Scopes:      Scopes,
			RedirectURL: redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		verifier: verifier,
		log:      log,
		done:     make(chan result, 1),
	}, nil
}

// AuthURL returns the authorization URL the user must visit.
func (s *Session) AuthURL() string {
	return s.cfg.AuthCodeURL(
		"state",
		oauth2.SetAuthURLParam("code_challenge", s.verifier.CodeChallengeS256()),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// resolve completes the session. Only the first call has any effect; a late
// duplicate callback or a racing cancellation is ignored.
func (s *Session) resolve(code string, err error) {
	s.once.Do(func() {
		s.done <- result{code: code, err: err}
	})
}

// Start launches the localhost callback listener.
func (s *Session) Start() error {
	ln, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		return fmt.Errorf("starting callback listener on %s: %w", callbackAddr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errCode := q.Get("error"); errCode != "" {
			http.Error(w, "Authentication failed. You can close this window.", http.StatusBadRequest)
			s.resolve("", fmt.Errorf("authorization error: %s: %s", errCode, q.Get("error_description")))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "Missing authorization code.", http.StatusBadRequest)
			s.resolve("", errors.New("callback carried no authorization code"))
			return
		}
		fmt.Fprintln(w, "Login complete. You can close this window and return to the terminal.")
		s.resolve(code, nil)
	})

	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.resolve("", fmt.Errorf("callback listener: %w", err))
		}
	}()
	return nil
}

// Wait blocks until the callback resolves the session or the context is
// cancelled, then exchanges the authorization code for a token.
func (s *Session) Wait(ctx context.Context) (*oauth2.Token, error) {
	defer s.shutdown()

	select {
	case <-ctx.Done():
		s.resolve("", ErrCancelled)
		return nil, ErrCancelled
	case res := <-s.done:
		if res.err != nil {
			return nil, res.err
		}
		s.log.Debug("authflow: exchanging authorization code")
		tok, err := s.cfg.Exchange(ctx, res.code,
			oauth2.SetAuthURLParam("code_verifier", s.verifier.String()))
		if err != nil {
			return nil, fmt.Errorf("exchanging code for token: %w", err)
		}
		return tok, nil
	}
}

func (s *Session) shutdown() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}
