// Package api is the REST client for the backend that owns every record
// shown in the admin pages.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diewo77/eventdesk/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// Record is one backend object as decoded JSON.
type Record = map[string]any

// Error is a non-2xx answer from the backend. Message carries the server's
// own message when it sent one.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("api %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// ServerMessage extracts the backend message from err, if any.
func ServerMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return ""
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Token    string
	TenantID string
	Timeout  time.Duration
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type Client struct {
	rc      *resty.Client
	metrics *metrics.Metrics
	log     *slog.Logger
}

func New(o Options) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(o.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if o.Timeout > 0 {
		rc.SetTimeout(o.Timeout)
	}
	if o.Token != "" {
		rc.SetAuthToken(o.Token)
	}
	if o.TenantID != "" {
		rc.SetHeader("X-Tenant-ID", o.TenantID)
	}
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{rc: rc, metrics: o.Metrics, log: log}
}

func resourceOf(path string) string {
	p := strings.TrimPrefix(path, "/api/")
	if i := strings.IndexAny(p, "/?"); i >= 0 {
		p = p[:i]
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (*resty.Response, error) {
	req := c.rc.R().SetContext(ctx).SetError(&errorBody{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	start := time.Now()
	resp, err := req.Execute(method, path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	c.metrics.ObserveAPI(method, resourceOf(path), status, time.Since(start))
	if err != nil {
		c.log.Error("api request failed", "method", method, "path", path, "err", err)
		return nil, fmt.Errorf("api %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		ae := &Error{Method: method, Path: path, Status: resp.StatusCode()}
		if eb, ok := resp.Error().(*errorBody); ok && eb != nil {
			ae.Message = eb.Message
			if ae.Message == "" {
				ae.Message = eb.Error
			}
		}
		c.log.Warn("api request rejected", "method", method, "path", path, "status", ae.Status, "message", ae.Message)
		return resp, ae
	}
	return resp, nil
}

func collection(resource string) string { return "/api/" + resource }

func member(resource, id string) string { return "/api/" + resource + "/" + url.PathEscape(id) }

// decodeList accepts either a bare array or an envelope with a "data" or
// "items" array.
func decodeList(body []byte) ([]Record, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []Record{}, nil
	}
	if body[0] == '[' {
		var out []Record
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	}
	var env struct {
		Data  []Record `json:"data"`
		Items []Record `json:"items"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if env.Data != nil {
		return env.Data, nil
	}
	if env.Items != nil {
		return env.Items, nil
	}
	return []Record{}, nil
}

// List fetches a whole collection.
func (c *Client) List(ctx context.Context, resource string, query url.Values) ([]Record, error) {
	path := collection(resource)
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList(resp.Body())
}

// Get fetches one record.
func (c *Client) Get(ctx context.Context, resource, id string) (Record, error) {
	var out Record
	if _, err := c.do(ctx, http.MethodGet, member(resource, id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new record and returns the stored version.
func (c *Client) Create(ctx context.Context, resource string, body any) (Record, error) {
	var out Record
	if _, err := c.do(ctx, http.MethodPost, collection(resource), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces a record and returns the stored version.
func (c *Client) Update(ctx context.Context, resource, id string, body any) (Record, error) {
	var out Record
	if _, err := c.do(ctx, http.MethodPut, member(resource, id), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	_, err := c.do(ctx, http.MethodDelete, member(resource, id), nil, nil)
	return err
}

// AttachFile stores the URL of an uploaded file on a record.
func (c *Client) AttachFile(ctx context.Context, resource, id, name, fileURL string) (Record, error) {
	var out Record
	body := map[string]string{"name": name, "url": fileURL}
	if _, err := c.do(ctx, http.MethodPost, member(resource, id)+"/attachments", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
