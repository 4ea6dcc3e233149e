package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Error is a failure the server reported through the response envelope
// (success=false). Its message is safe to surface to the user verbatim.
// Transport and decode failures are returned as ordinary errors instead.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed (status=%d)", e.Status)
	}
	return e.Message
}

// IsAPIError reports whether err is a server-reported failure.
func IsAPIError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}

// Client talks to the MaxDP API. The bearer token is a mutable slot so a
// login/refresh performed through one client is visible to every caller
// sharing it.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope is the uniform wire shape: {success, data?, error?}.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (c *Client) endpointFor(path string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return "", errors.New("missing api base url")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimPrefix(strings.TrimSpace(path), "/")
	return u.String(), nil
}

// do performs one request/response pair and decodes the envelope. No retries:
// callers own any reissue policy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	endpoint, err := c.endpointFor(path)
	if err != nil {
		return nil, err
	}
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	if len(query) > 0 {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, err
		}
		u.RawQuery = query.Encode()
		endpoint = u.String()
	}

	var r io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		r = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("invalid json response (status=%d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		return nil, &Error{Status: resp.StatusCode, Message: strings.TrimSpace(env.Error)}
	}
	return env.Data, nil
}

func decodeInto[T any](data json.RawMessage) (T, error) {
	var out T
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// decodeList normalizes list payloads: null or a non-array value decodes to an
// empty slice instead of erroring or handing consumers something they cannot
// range over.
func decodeList[T any](data json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] != '[' {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("decode response list: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, creds Credentials) (TokenPair, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, creds)
	if err != nil {
		return TokenPair{}, err
	}
	return decodeInto[TokenPair](data)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	return err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return TokenPair{}, err
	}
	return decodeInto[TokenPair](data)
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil)
	if err != nil {
		return User{}, err
	}
	return decodeInto[User](data)
}

func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/workspaces", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Workspace](data)
}

func (c *Client) CreateWorkspace(ctx context.Context, in CreateWorkspaceInput) (Workspace, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/workspaces", nil, in)
	if err != nil {
		return Workspace{}, err
	}
	return decodeInto[Workspace](data)
}

func (c *Client) Flows(ctx context.Context, workspaceID string) ([]Flow, error) {
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return nil, errors.New("missing workspace id")
	}
	data, err := c.do(ctx, http.MethodGet, "/api/workspaces/"+url.PathEscape(workspaceID)+"/flows", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Flow](data)
}

func (c *Client) CreateFlow(ctx context.Context, in CreateFlowInput) (Flow, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/flows", nil, in)
	if err != nil {
		return Flow{}, err
	}
	return decodeInto[Flow](data)
}

func (c *Client) Flow(ctx context.Context, id string) (Flow, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Flow{}, errors.New("missing flow id")
	}
	data, err := c.do(ctx, http.MethodGet, "/api/flows/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return Flow{}, err
	}
	return decodeInto[Flow](data)
}

// FlowDefinition fetches one committed version; version 0 means latest.
func (c *Client) FlowDefinition(ctx context.Context, id string, version int) (FlowDefinition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return FlowDefinition{}, errors.New("missing flow id")
	}
	var q url.Values
	if version > 0 {
		q = url.Values{"version": []string{strconv.Itoa(version)}}
	}
	data, err := c.do(ctx, http.MethodGet, "/api/flows/"+url.PathEscape(id)+"/definition", q, nil)
	if err != nil {
		return FlowDefinition{}, err
	}
	return decodeInto[FlowDefinition](data)
}

func (c *Client) SaveFlowVersion(ctx context.Context, id string, def json.RawMessage) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("missing flow id")
	}
	_, err := c.do(ctx, http.MethodPost, "/api/flows/"+url.PathEscape(id)+"/versions", nil, map[string]any{
		"definition": def,
	})
	return err
}

func (c *Client) SaveDraft(ctx context.Context, id string, def json.RawMessage) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("missing flow id")
	}
	_, err := c.do(ctx, http.MethodPut, "/api/flows/"+url.PathEscape(id)+"/draft", nil, map[string]any{
		"definition": def,
	})
	return err
}

func (c *Client) Draft(ctx context.Context, id string) (FlowDefinition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return FlowDefinition{}, errors.New("missing flow id")
	}
	data, err := c.do(ctx, http.MethodGet, "/api/flows/"+url.PathEscape(id)+"/draft", nil, nil)
	if err != nil {
		return FlowDefinition{}, err
	}
	return decodeInto[FlowDefinition](data)
}
