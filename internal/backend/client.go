package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/user/datalenz/internal/types"
)

// Client is the typed boundary to the remote analysis service. It holds no
// business logic: every method translates one local call into one
// authenticated HTTP exchange and normalizes failures into *Error. Retry
// policy, if any, belongs to the caller.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// New creates a Client against the given base URL (e.g.
// "http://localhost:8000") using tokens for the bearer credential.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// errorBody is the backend's structured error payload.
type errorBody struct {
	Detail string `json:"detail"`
}

// bearer returns the current credential or an Unauthenticated error.
// Checked before any request is built so nothing partial hits the wire.
func (c *Client) bearer() (string, error) {
	tok := c.tokens.Token()
	if tok == "" {
		return "", &Error{Kind: Unauthenticated, Detail: "no credential configured"}
	}
	return tok, nil
}

// do sends the request and decodes a 2xx JSON body into out (when out is
// non-nil). Non-2xx responses are decoded for a structured detail message;
// decode failure yields ServerError with the status preserved.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: NetworkError, err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: NetworkError, err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode}
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
			apiErr.Detail = eb.Detail
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			Kind:   ServerError,
			Status: resp.StatusCode,
			err:    fmt.Errorf("parse response: %w", err),
		}
	}
	return nil
}

// jsonRequest builds an authenticated JSON request. A nil payload sends no body.
func (c *Client) jsonRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: ValidationError, err: fmt.Errorf("marshal request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Kind: NetworkError, err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

// CreateSession asks the backend for a fresh analysis session.
func (c *Client) CreateSession(ctx context.Context) (*types.Session, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/api/sessions", map[string]any{})
	if err != nil {
		return nil, err
	}
	var session types.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns all of the caller's sessions.
func (c *Client) ListSessions(ctx context.Context) ([]types.Session, error) {
	req, err := c.jsonRequest(ctx, http.MethodGet, "/api/sessions", nil)
	if err != nil {
		return nil, err
	}
	var sessions []types.Session
	if err := c.do(req, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession fetches a single session record.
func (c *Client) GetSession(ctx context.Context, id types.SessionID) (*types.Session, error) {
	req, err := c.jsonRequest(ctx, http.MethodGet, "/api/sessions/"+string(id), nil)
	if err != nil {
		return nil, err
	}
	var session types.Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RestoreSession returns the session's metadata plus its full message and
// execution-log history in one call.
func (c *Client) RestoreSession(ctx context.Context, id types.SessionID) (*types.RestoreResult, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/api/sessions/"+string(id)+"/restore", nil)
	if err != nil {
		return nil, err
	}
	var restored types.RestoreResult
	if err := c.do(req, &restored); err != nil {
		return nil, err
	}
	return &restored, nil
}

// DeleteSession removes a session and all of its history server-side.
func (c *Client) DeleteSession(ctx context.Context, id types.SessionID) error {
	req, err := c.jsonRequest(ctx, http.MethodDelete, "/api/sessions/"+string(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// queryRequest is the wire form of a query submission.
type queryRequest struct {
	Query     string          `json:"query"`
	SessionID types.SessionID `json:"session_id"`
}

// SubmitQuery runs a natural-language query against the session and returns
// the combined plan+result response.
func (c *Client) SubmitQuery(ctx context.Context, sessionID types.SessionID, query string) (*types.QueryResponse, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/api/query", queryRequest{
		Query:     query,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, err
	}
	var resp types.QueryResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadDataset streams a dataset file as multipart form data, associating
// it with sessionID when one is supplied.
func (c *Client) UploadDataset(ctx context.Context, sessionID types.SessionID, filename string, data io.Reader) (*types.UploadResult, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, &Error{Kind: ValidationError, err: fmt.Errorf("create form file: %w", err)}
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, &Error{Kind: ValidationError, err: fmt.Errorf("read dataset: %w", err)}
	}
	if sessionID != "" {
		if err := mw.WriteField("session_id", string(sessionID)); err != nil {
			return nil, &Error{Kind: ValidationError, err: fmt.Errorf("write session field: %w", err)}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Kind: ValidationError, err: fmt.Errorf("finalize form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, &Error{Kind: NetworkError, err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	var uploaded types.UploadResult
	if err := c.do(req, &uploaded); err != nil {
		return nil, err
	}
	return &uploaded, nil
}
