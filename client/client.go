// Package client talks to the imagedeck HTTP API and keeps incremental,
// paginated list state for folders, images and folder contents.
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
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/imagedeck/metadata"
)

// DefaultTimeout bounds a single API call when the caller supplies no client
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx answer from the API. It unwraps to the metadata
// sentinel matching its status so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return metadata.ErrInvalidInput
	case http.StatusNotFound:
		return metadata.ErrNotFound
	case http.StatusConflict:
		return metadata.ErrFolderNotEmpty
	case http.StatusServiceUnavailable:
		return metadata.ErrBackendDisabled
	default:
		return nil
	}
}

// Query selects one page of a list call. Page is 1-based; LastKey, when
// set, continues after the page that returned it.
type Query struct {
	Page    int
	Limit   int
	Sort    metadata.SortOptions
	LastKey string
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Sort.Field != "" {
		v.Set("sort", string(q.Sort.Field))
	}
	if q.Sort.Direction != "" {
		v.Set("direction", string(q.Sort.Direction))
	}
	if q.LastKey != "" {
		v.Set("lastKey", q.LastKey)
	}
	return v
}

// Client is an imagedeck API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the API served at baseURL. A nil httpClient is
// replaced by one with DefaultTimeout.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// ListFolders lists the children of parentID
func (c *Client) ListFolders(ctx context.Context, parentID string, q Query) (*metadata.FolderPage, error) {
	v := q.values()
	if parentID != "" {
		v.Set("parentId", parentID)
	}
	var page metadata.FolderPage
	if err := c.do(ctx, http.MethodGet, "/folders", v, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetFolder fetches a single folder
func (c *Client) GetFolder(ctx context.Context, id string) (*metadata.Folder, error) {
	var folder metadata.Folder
	if err := c.do(ctx, http.MethodGet, "/folders/"+url.PathEscape(id), nil, nil, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// CreateFolder creates a folder under parentID
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*metadata.Folder, error) {
	body := map[string]string{"name": name}
	if parentID != "" {
		body["parentId"] = parentID
	}
	var folder metadata.Folder
	if err := c.do(ctx, http.MethodPost, "/folders", nil, body, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder renames or moves a folder
func (c *Client) UpdateFolder(ctx context.Context, id string, patch metadata.FolderPatch) (*metadata.Folder, error) {
	var folder metadata.Folder
	if err := c.do(ctx, http.MethodPut, "/folders/"+url.PathEscape(id), nil, patch, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFolder deletes an empty folder
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/folders/"+url.PathEscape(id), nil, nil, nil)
}

// ListFolderContents lists child folders and images of folderID. LastKey
// is not accepted by this endpoint.
func (c *Client) ListFolderContents(ctx context.Context, folderID string, q Query) (*metadata.FolderContents, error) {
	var contents metadata.FolderContents
	err := c.do(ctx, http.MethodGet, c.folderPath(folderID)+"/contents", q.values(), nil, &contents)
	if err != nil {
		return nil, err
	}
	return &contents, nil
}

// ListImages lists the images of folderID
func (c *Client) ListImages(ctx context.Context, folderID string, q Query) (*metadata.ImagePage, error) {
	var page metadata.ImagePage
	if err := c.do(ctx, http.MethodGet, c.folderPath(folderID)+"/images", q.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetUploadURL asks for a signed URL to PUT the bytes of filename to
func (c *Client) GetUploadURL(ctx context.Context, folderID, filename, contentType string) (*metadata.UploadURL, error) {
	v := url.Values{}
	v.Set("filename", filename)
	if contentType != "" {
		v.Set("contentType", contentType)
	}
	var upload metadata.UploadURL
	if err := c.do(ctx, http.MethodGet, c.folderPath(folderID)+"/images/upload", v, nil, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// CreateImage records an uploaded object as an image of folderID
func (c *Client) CreateImage(ctx context.Context, folderID, key, name, contentType string) (*metadata.Image, error) {
	body := map[string]string{"key": key, "name": name}
	if contentType != "" {
		body["contentType"] = contentType
	}
	var image metadata.Image
	if err := c.do(ctx, http.MethodPost, c.folderPath(folderID)+"/images", nil, body, &image); err != nil {
		return nil, err
	}
	return &image, nil
}

// DeleteImage deletes the image record id and its object key
func (c *Client) DeleteImage(ctx context.Context, folderID, id, key string) error {
	v := url.Values{}
	v.Set("filename", key)
	return c.do(ctx, http.MethodDelete, c.folderPath(folderID)+"/images/"+url.PathEscape(id), v, nil, nil)
}

// PutObject uploads body to a signed upload URL
func (c *Client) PutObject(ctx context.Context, uploadURL, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: "object upload rejected"}
	}
	return nil
}

// UploadImage runs the two-step upload: signed URL, PUT, then CreateImage
func (c *Client) UploadImage(ctx context.Context, folderID, name, contentType string, body io.Reader) (*metadata.Image, error) {
	upload, err := c.GetUploadURL(ctx, folderID, name, contentType)
	if err != nil {
		return nil, err
	}
	if err := c.PutObject(ctx, upload.UploadURL, contentType, body); err != nil {
		return nil, err
	}
	return c.CreateImage(ctx, folderID, upload.Filename, name, contentType)
}

func (c *Client) folderPath(folderID string) string {
	if folderID == "" {
		folderID = metadata.RootID
	}
	return "/folders/" + url.PathEscape(folderID)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug("API call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
