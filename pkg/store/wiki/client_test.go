package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/job-pulse/pkg/models/api"
	"github.com/de-tools/job-pulse/pkg/models/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	lookupBody   string
	lookupStatus int
	writeStatus  int
	writeBody    string
	received     []api.Content
	methods      []string
	auth         []string
}

func (f *fakeStore) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/rest/api/content", func(w http.ResponseWriter, req *http.Request) {
		f.auth = append(f.auth, req.Header.Get("Authorization"))
		if f.lookupStatus != 0 {
			w.WriteHeader(f.lookupStatus)
		}
		_, _ = io.WriteString(w, f.lookupBody)
	})
	write := func(w http.ResponseWriter, req *http.Request) {
		var c api.Content
		_ = json.NewDecoder(req.Body).Decode(&c)
		if id := chi.URLParam(req, "id"); id != "" {
			c.ID = id
		}
		f.received = append(f.received, c)
		f.methods = append(f.methods, req.Method)
		if f.writeStatus != 0 {
			w.WriteHeader(f.writeStatus)
			_, _ = io.WriteString(w, f.writeBody)
			return
		}
		if c.ID == "" {
			c.ID = "999"
			c.Version = &api.ContentVersion{Number: 1}
		}
		c.Body = nil
		_ = json.NewEncoder(w).Encode(c)
	}
	r.Post("/rest/api/content", write)
	r.Put("/rest/api/content/{id}", write)
	return r
}

func newTestClient(t *testing.T, f *fakeStore, creds CredentialResolver) Client {
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, srv.Client(), creds)
	require.NoError(t, err)
	return c
}

func TestClient_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("results shape", func(t *testing.T) {
		f := &fakeStore{lookupBody: `{"results":[{"id":"123","type":"page","title":"Cron Job Count","version":{"number":5}}]}`}
		c := newTestClient(t, f, StaticCredentials{Token: "pat"})

		ref, err := c.Find(ctx, "Cron Job Count", "OPS")
		require.NoError(t, err)
		require.NotNil(t, ref)
		assert.Equal(t, domain.DocumentRef{ID: "123", Version: 5, Title: "Cron Job Count", Space: "OPS"}, *ref)
		assert.Equal(t, []string{"Bearer pat"}, f.auth)
	})

	t.Run("bare list shape", func(t *testing.T) {
		f := &fakeStore{lookupBody: `[{"id":"7","type":"page","title":"T","space":{"key":"S"},"version":{"number":2}}]`}
		c := newTestClient(t, f, StaticCredentials{Username: "bot", Token: "secret"})

		ref, err := c.Find(ctx, "T", "S")
		require.NoError(t, err)
		require.NotNil(t, ref)
		assert.Equal(t, "7", ref.ID)
		assert.Equal(t, 2, ref.Version)
		assert.True(t, strings.HasPrefix(f.auth[0], "Basic "))
	})

	t.Run("not found is not an error", func(t *testing.T) {
		f := &fakeStore{lookupBody: `{"results":[]}`}
		ref, err := newTestClient(t, f, StaticCredentials{}).Find(ctx, "T", "S")
		require.NoError(t, err)
		assert.Nil(t, ref)
	})

	t.Run("malformed response", func(t *testing.T) {
		f := &fakeStore{lookupBody: `{"size":0}`}
		_, err := newTestClient(t, f, StaticCredentials{}).Find(ctx, "T", "S")
		assert.ErrorContains(t, err, "no results field")
	})

	t.Run("non-2xx", func(t *testing.T) {
		f := &fakeStore{lookupStatus: http.StatusInternalServerError, lookupBody: strings.Repeat("x", 2000)}
		_, err := newTestClient(t, f, StaticCredentials{}).Find(ctx, "T", "S")

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
		assert.Len(t, statusErr.Body, maxErrorBody+3)
		assert.True(t, IsStatus(err, http.StatusInternalServerError))
	})
}

func TestClient_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	f := &fakeStore{}
	c := newTestClient(t, f, StaticCredentials{Token: "pat"})

	created, err := c.Create(ctx, domain.RemoteDocument{Title: "T", Space: "S", Body: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "999", created.ID)
	assert.Equal(t, 1, created.Version)

	updated, err := c.Update(ctx, domain.RemoteDocument{ID: "123", Version: 6, Title: "T", Space: "S", Body: "<p>v6</p>"})
	require.NoError(t, err)
	assert.Equal(t, "123", updated.ID)
	assert.Equal(t, 6, updated.Version)

	require.Len(t, f.received, 2)
	assert.Equal(t, []string{http.MethodPost, http.MethodPut}, f.methods)
	assert.Nil(t, f.received[0].Version)
	assert.Equal(t, "storage", f.received[0].Body.Storage.Representation)
	assert.Equal(t, 6, f.received[1].Version.Number)
	assert.Equal(t, "S", f.received[1].Space.Key)
}

func TestClient_Update_Validation(t *testing.T) {
	c := newTestClient(t, &fakeStore{}, StaticCredentials{})

	_, err := c.Update(context.Background(), domain.RemoteDocument{Title: "T"})
	assert.Error(t, err)

	_, err = c.Update(context.Background(), domain.RemoteDocument{ID: "1", Version: 1})
	assert.Error(t, err)

	_, err = c.Create(context.Background(), domain.RemoteDocument{ID: "1"})
	assert.Error(t, err)
}

func TestClient_VersionConflict(t *testing.T) {
	f := &fakeStore{writeStatus: http.StatusConflict, writeBody: `{"message":"Version must be incremented"}`}
	c := newTestClient(t, f, StaticCredentials{})

	_, err := c.Update(context.Background(), domain.RemoteDocument{ID: "123", Version: 6, Title: "T", Space: "S"})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.ErrorContains(t, err, "Version must be incremented")
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context) (domain.Credentials, error) {
	return domain.Credentials{}, errors.New("profile wiki not found")
}

func TestClient_CredentialFailure(t *testing.T) {
	f := &fakeStore{lookupBody: `[]`}
	c := newTestClient(t, f, failingResolver{})

	_, err := c.Find(context.Background(), "T", "S")
	assert.ErrorIs(t, err, domain.ErrCredentials)
	assert.Empty(t, f.auth)
}

func TestClient_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, srv.Client(), StaticCredentials{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Find(ctx, "T", "S")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", nil, StaticCredentials{})
	assert.Error(t, err)

	_, err = NewClient("not a url", nil, StaticCredentials{})
	assert.Error(t, err)

	_, err = NewClient("https://wiki.example.com", nil, nil)
	assert.Error(t, err)

	c, err := NewClient("https://wiki.example.com/", nil, StaticCredentials{})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
