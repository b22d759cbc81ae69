// Package graph is a minimal typed client for the Microsoft Graph drive API,
// covering the endpoints the permission auditor needs: item lookup, children
// listing, permission listing, invites, and permission deletion.
package graph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const defaultGraphURL = "https://graph.microsoft.com/v1.0/"

// requestTimeout bounds every single API call.
const requestTimeout = 30 * time.Second

var graphURL = defaultGraphURL

// SetGraphEndpoint overrides the Graph API base URL. Tests point this at an
// httptest server.
func SetGraphEndpoint(u string) {
	if u == "" {
		graphURL = defaultGraphURL
		return
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	graphURL = u
}

// Logger is the minimal logging surface the client needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...any) {}
func (noopLogger) Warnf(format string, args ...any)  {}

// Client talks to the Graph API with a fixed bearer token. Token refresh is
// the credential store's job; by the time a Client exists the token has
// already been validated for the operation at hand.
type Client struct {
	httpClient *http.Client
	logger     Logger
}

// NewClient creates a Graph client around the given access token.
func NewClient(ctx context.Context, accessToken string, logger Logger) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	hc := oauth2.NewClient(ctx, src)
	hc.Timeout = requestTimeout

	if logger == nil {
		logger = noopLogger{}
	}
	return &Client{httpClient: hc, logger: logger}
}

// NewClientWithHTTP creates a client over a caller-supplied http.Client.
// Used in tests.
func NewClientWithHTTP(hc *http.Client, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Client{httpClient: hc, logger: logger}
}

// apiCall issues a request and maps non-2xx responses onto the package's
// sentinel errors. All client methods go through here.
func (c *Client) apiCall(ctx context.Context, method, url, contentType string, body io.Reader) (*http.Response, error) {
	c.logger.Debugf("graph: %s %s", method, url)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if res.StatusCode >= 400 {
		defer res.Body.Close()
		return nil, mapError(res)
	}
	return res, nil
}

// buildPathURL constructs the item URL for a path in the default drive.
func buildPathURL(path string) string {
	if path == "" || path == "/" {
		return graphURL + "me/drive/root"
	}
	trimmed := strings.Trim(path, "/")
	return graphURL + "me/drive/root:/" + escapePath(trimmed)
}

// buildItemURL constructs the item URL for an item ID.
func buildItemURL(itemID string) string {
	return graphURL + "me/drive/items/" + url.PathEscape(itemID)
}

// escapePath percent-encodes each path segment, preserving separators.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
