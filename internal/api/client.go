package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fnos-labs/fnos-cli/internal/config"
	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds each request when no WithTimeout option is given.
const DefaultTimeout = 60 * time.Second

// ErrNotLoggedIn is returned by Call before a successful Login.
var ErrNotLoggedIn = errors.New("not logged in")

// RemoteError is an error reported by the server.
type RemoteError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// LoginResult holds the tokens issued by a successful login.
type LoginResult struct {
	Token     string `json:"token"`
	LongToken string `json:"longToken"`
	Secret    string `json:"secret"`
}

// Client talks to one fnOS endpoint.
type Client struct {
	endpoint string
	baseURL  string
	http     *http.Client
	log      logrus.FieldLogger

	session LoginResult
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for connection progress messages.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient returns a client for endpoint ("host:port" or a full URL).
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		baseURL:  baseURL(endpoint),
		http:     &http.Client{Timeout: DefaultTimeout},
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func baseURL(endpoint string) string {
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "http://" + endpoint
}

// Endpoint returns the endpoint the client was created for.
func (c *Client) Endpoint() string { return c.endpoint }

// Session returns the tokens of the current login.
func (c *Client) Session() LoginResult { return c.session }

// Login authenticates with username and password and keeps the issued tokens
// for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if password == "" {
		return nil, fmt.Errorf("password required: run \"fnos login\" first or provide -p")
	}
	c.log.Infof("Logging in to %s...", c.endpoint)

	var reply struct {
		LoginResult
		Error *RemoteError `json:"error,omitempty"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.post(ctx, "/api/v1/login", "", body, &reply); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("login: %w", reply.Error)
	}
	if reply.Token == "" {
		return nil, fmt.Errorf("login: server returned no token")
	}

	c.session = reply.LoginResult
	c.log.Info("Logged in successfully")
	return &c.session, nil
}

// Call invokes method on the remote service class and returns the decoded result.
func (c *Client) Call(ctx context.Context, className, method string, args ...any) (any, error) {
	if c.session.Token == "" {
		return nil, ErrNotLoggedIn
	}
	if args == nil {
		args = []any{}
	}

	var reply struct {
		Result any          `json:"result"`
		Error  *RemoteError `json:"error,omitempty"`
	}
	body := map[string]any{"service": className, "method": method, "args": args}
	if err := c.post(ctx, "/api/v1/call", c.session.Token, body, &reply); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", className, method, err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("%s.%s: %w", className, method, reply.Error)
	}
	return reply.Result, nil
}

// Close ends the session.
func (c *Client) Close() error {
	c.session = LoginResult{}
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var remote struct {
			Error *RemoteError `json:"error"`
		}
		if json.Unmarshal(data, &remote) == nil && remote.Error != nil {
			return remote.Error
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Connect creates a client for creds and logs in.
func Connect(ctx context.Context, creds config.Credentials, opts ...Option) (*Client, error) {
	if creds.Endpoint == "" || creds.Username == "" {
		return nil, fmt.Errorf("missing credentials: run \"fnos login\" first or provide -e, -u, -p")
	}
	c := NewClient(creds.Endpoint, opts...)
	c.log.Infof("Connecting to %s...", creds.Endpoint)
	if _, err := c.Login(ctx, creds.Username, creds.Password); err != nil {
		return nil, err
	}
	return c, nil
}
