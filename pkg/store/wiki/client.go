package wiki

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

	"github.com/de-tools/job-pulse/pkg/models/api"
	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	contentPath  = "/rest/api/content"
	maxErrorBody = 512
)

// CredentialResolver supplies credentials right before a request is sent
type CredentialResolver interface {
	Resolve(ctx context.Context) (domain.Credentials, error)
}

// StaticCredentials resolves to fixed credentials
type StaticCredentials domain.Credentials

func (s StaticCredentials) Resolve(context.Context) (domain.Credentials, error) {
	return domain.Credentials(s), nil
}

// StatusError is returned for any non-2xx response
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusConflict {
		return domain.ErrVersionConflict
	}
	return nil
}

// Client talks to a wiki content REST API
type Client interface {
	// Find returns nil when no document with the title exists in the space
	Find(ctx context.Context, title, space string) (*domain.DocumentRef, error)
	Create(ctx context.Context, doc domain.RemoteDocument) (*domain.DocumentRef, error)
	Update(ctx context.Context, doc domain.RemoteDocument) (*domain.DocumentRef, error)
}

type client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialResolver
}

func NewClient(baseURL string, httpClient *http.Client, credentials CredentialResolver) (Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("document store url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid document store url %q: %w", baseURL, err)
	}
	if credentials == nil {
		return nil, fmt.Errorf("credential resolver is nil")
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultHTTPConfig())
	}

	return &client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  httpClient,
		credentials: credentials,
	}, nil
}

func (c *client) Find(ctx context.Context, title, space string) (*domain.DocumentRef, error) {
	query := url.Values{}
	query.Set("title", title)
	query.Set("spaceKey", space)
	query.Set("expand", "version")

	body, err := c.do(ctx, http.MethodGet, contentPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var lookup api.ContentLookup
	if err := json.Unmarshal(body, &lookup); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("shape", string(lookup.Shape)).
		Int("results", len(lookup.Results)).
		Msg("document lookup")

	for _, content := range lookup.Results {
		if content.Title != title {
			continue
		}
		ref := toRef(content)
		if ref.Space == "" {
			ref.Space = space
		}
		return &ref, nil
	}
	return nil, nil
}

func (c *client) Create(ctx context.Context, doc domain.RemoteDocument) (*domain.DocumentRef, error) {
	if !doc.IsNew() {
		return nil, fmt.Errorf("document %s already has an id", doc.ID)
	}
	return c.write(ctx, http.MethodPost, contentPath, doc)
}

func (c *client) Update(ctx context.Context, doc domain.RemoteDocument) (*domain.DocumentRef, error) {
	if doc.IsNew() {
		return nil, fmt.Errorf("update requires a document id")
	}
	if doc.Version < 2 {
		return nil, fmt.Errorf("update requires a version greater than 1, got %d", doc.Version)
	}
	return c.write(ctx, http.MethodPut, contentPath+"/"+url.PathEscape(doc.ID), doc)
}

func (c *client) write(ctx context.Context, method, path string, doc domain.RemoteDocument) (*domain.DocumentRef, error) {
	payload := api.Content{
		ID:    doc.ID,
		Type:  "page",
		Title: doc.Title,
		Space: &api.ContentSpace{Key: doc.Space},
		Body: &api.ContentBody{Storage: api.StorageValue{
			Value:          doc.Body,
			Representation: "storage",
		}},
	}
	if !doc.IsNew() {
		payload.Version = &api.ContentVersion{Number: doc.Version}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	body, err := c.do(ctx, method, path, encoded)
	if err != nil {
		return nil, err
	}

	var written api.Content
	if err := json.Unmarshal(body, &written); err != nil {
		return nil, fmt.Errorf("decode write response: %w", err)
	}

	ref := toRef(written)
	if ref.Title == "" {
		ref.Title = doc.Title
	}
	if ref.Space == "" {
		ref.Space = doc.Space
	}
	if ref.Version == 0 {
		ref.Version = max(doc.Version, 1)
	}
	return &ref, nil
}

func (c *client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	creds, err := c.credentials.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCredentials, err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.Username != "" {
		req.SetBasicAuth(creds.Username, creds.Token)
	} else if creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			Method:     method,
			URL:        path,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBody),
		}
		logger.Warn().
			Int("status", statusErr.StatusCode).
			Str("body", statusErr.Body).
			Str("method", method).
			Msg("document store request failed")
		return nil, statusErr
	}

	return body, nil
}

func toRef(content api.Content) domain.DocumentRef {
	ref := domain.DocumentRef{ID: content.ID, Title: content.Title}
	if content.Version != nil {
		ref.Version = content.Version.Number
	}
	if content.Space != nil {
		ref.Space = content.Space.Key
	}
	return ref
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsStatus reports whether err carries a StatusError with the given code
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
