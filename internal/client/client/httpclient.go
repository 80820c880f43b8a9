package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/client/models"
	"github.com/RajeswariKodigudla/cashbook-mobile-sub001/internal/logging"
)

const (
	DefaultTimeout  = 12 * time.Second
	RequestIDHeader = "X-Request-ID"
	maxBodyBytes    = 4 << 20
)

// TokenSource yields the bearer token for each request; "" sends none.
type TokenSource interface {
	Token() string
}

// HTTPClient implements Client over the backend's REST API.
type HTTPClient struct {
	base    *url.URL
	http    *http.Client
	tokens  TokenSource
	timeout time.Duration
	log     logging.Logger
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = logging.OrNop(l) }
}

// NewHTTPClient builds a client for baseURL, e.g. "http://host:8000/api/".
// A non-positive timeout uses DefaultTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: scheme and host required", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &HTTPClient{
		base:    u,
		http:    &http.Client{},
		tokens:  tokens,
		timeout: timeout,
		log:     logging.Nop{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	raw, err := c.do(ctx, http.MethodPost, "auth/login/", nil, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	var body struct {
		Access      string `json:"access"`
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
		Data        *struct {
			Access string `json:"access"`
			Token  string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	for _, tok := range []string{body.Access, body.Token, body.AccessToken} {
		if tok != "" {
			return tok, nil
		}
	}
	if body.Data != nil {
		if body.Data.Access != "" {
			return body.Data.Access, nil
		}
		if body.Data.Token != "" {
			return body.Data.Token, nil
		}
	}
	return "", errors.New("login response carries no token")
}

func (c *HTTPClient) GetCurrentUser(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "auth/user/", nil, nil)
}

func (c *HTTPClient) GetAccounts(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "accounts/", nil, nil)
}

func (c *HTTPClient) CreateAccount(ctx context.Context, name string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "accounts/", nil, map[string]string{"account_name": name})
}

func (c *HTTPClient) GetAccountMembers(ctx context.Context, accountID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "accounts/"+accountID+"/members/", nil, nil)
}

func (c *HTTPClient) InviteMember(ctx context.Context, accountID string, req InviteRequest) error {
	body := map[string]any{"username": req.Username}
	for k, v := range req.Permissions.PermissionsPayload() {
		body[k] = v
	}
	_, err := c.do(ctx, http.MethodPost, "accounts/"+accountID+"/invite/", nil, body)
	return err
}

func (c *HTTPClient) UpdateMemberPermissions(ctx context.Context, accountID, memberID string, p models.Permissions) error {
	path := "accounts/" + accountID + "/members/" + memberID + "/"
	_, err := c.do(ctx, http.MethodPatch, path, nil, p.PermissionsPayload())
	return err
}

func (c *HTTPClient) RemoveMember(ctx context.Context, accountID, memberID string) error {
	path := "accounts/" + accountID + "/members/" + memberID + "/"
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (c *HTTPClient) GetInvitations(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "accounts/invitations/", nil, nil)
}

func (c *HTTPClient) AcceptInvitation(ctx context.Context, inviteID string) error {
	_, err := c.do(ctx, http.MethodPost, "accounts/invitations/"+inviteID+"/accept/", nil, nil)
	return err
}

func (c *HTTPClient) RejectInvitation(ctx context.Context, inviteID string) error {
	_, err := c.do(ctx, http.MethodPost, "accounts/invitations/"+inviteID+"/reject/", nil, nil)
	return err
}

func (c *HTTPClient) GetNotifications(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "notifications/", nil, nil)
}

func (c *HTTPClient) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "notifications/"+id+"/read/", nil, nil)
	return err
}

func (c *HTTPClient) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "notifications/read-all/", nil, nil)
	return err
}

func (c *HTTPClient) GetTransactions(ctx context.Context, accountID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "transactions/", scopeQuery(accountID), nil)
}

func (c *HTTPClient) GetSummary(ctx context.Context, accountID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "transactions/summary/", scopeQuery(accountID), nil)
}

func (c *HTTPClient) CreateTransaction(ctx context.Context, accountID string, in models.TransactionInput) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "transactions/", nil, transactionBody(accountID, in))
}

func (c *HTTPClient) UpdateTransaction(ctx context.Context, accountID, id string, in models.TransactionInput) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, "transactions/"+id+"/", nil, transactionBody(accountID, in))
}

func (c *HTTPClient) DeleteTransaction(ctx context.Context, accountID, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "transactions/"+id+"/", scopeQuery(accountID), nil)
	return err
}

// scopeQuery adds ?account=<id> for shared scopes; personal sends nothing.
func scopeQuery(accountID string) url.Values {
	if models.IsPersonalID(accountID) {
		return nil
	}
	return url.Values{"account": {accountID}}
}

func transactionBody(accountID string, in models.TransactionInput) map[string]any {
	body := map[string]any{
		"type":   in.Type,
		"amount": in.Amount.String(),
		"date":   in.Date.Format("2006-01-02"),
	}
	if in.Category != "" {
		body["category"] = in.Category
	}
	if in.Note != "" {
		body["note"] = in.Note
	}
	if !models.IsPersonalID(accountID) {
		body["account"] = accountID
	}
	return body
}

// do sends one request and returns the response body of a 2xx reply.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.mapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.mapError(err)
	}
	c.log.Debug(ctx, "api call", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(data), nil
}

// mapError turns transport failures into ErrUnavailable.
func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
