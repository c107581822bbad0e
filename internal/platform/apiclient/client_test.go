package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type recordedCall struct {
	method, endpoint string
	status           int
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) ObserveBackendRequest(method, endpoint string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method, endpoint, status})
}

func TestClient_GetEncodesParamsAndToken(t *testing.T) {
	var gotQuery, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithTokenSource(staticToken("abc")))
	var out []map[string]string
	empty := ""
	var nilPtr *string
	active := true
	err := c.Get(context.Background(), "/pacientes", Params{
		"skip":   0,
		"limit":  10,
		"nombre": "Ana",
		"email":  "",
		"x":      nil,
		"y":      nilPtr,
		"z":      &empty,
		"activo": &active,
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, "/pacientes", gotPath)
	assert.Equal(t, "activo=true&limit=10&nombre=Ana&skip=0", gotQuery)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Len(t, out, 1)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokenSource(staticToken("")))
	require.NoError(t, c.Delete(context.Background(), "/citas/1", nil))
	assert.Empty(t, gotAuth)
}

func TestClient_PostSendsJSONBody(t *testing.T) {
	var got map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Write([]byte(`{"id":"new"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	var out struct {
		ID string `json:"id"`
	}
	err := c.Post(context.Background(), "/citas", map[string]any{"motivo": "control"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "control", got["motivo"])
	assert.Equal(t, "new", out.ID)
}

func TestClient_GetRawKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	raw, err := New(srv.URL).GetRaw(context.Background(), "/facturas", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(raw))
}

func TestClient_ErrorResponseIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`))
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	c := New(srv.URL, WithRecorder(rec))
	err := c.Post(context.Background(), "/pacientes", map[string]string{}, nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindValidation, apiErr.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "/pacientes", apiErr.Endpoint)
	assert.Equal(t, "body.email: value is not a valid email address", apiErr.Text())
	require.Len(t, rec.calls, 1)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.calls[0].status)
}

func TestClient_UnauthorizedHookRuns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}))
	defer srv.Close()

	called := 0
	c := New(srv.URL, WithUnauthorizedHandler(func(context.Context) { called++ }))
	err := c.Get(context.Background(), "/usuarios", nil, nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsUnauthorized())
	assert.Equal(t, 1, called)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &fakeRecorder{}
	err := New(url, WithRecorder(rec)).Get(context.Background(), "/citas", nil, nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.Equal(t, "no response from server", Describe("", err))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, 0, rec.calls[0].status)
}

func TestClient_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(srv.URL).Get(ctx, "/citas", nil, nil)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindTransport, apiErr.Kind)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL).Get(context.Background(), "/citas/1", nil, &out)
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestPath_EscapesSegments(t *testing.T) {
	assert.Equal(t, "/pacientes/email/a@b.com", Path("pacientes", "email", "a@b.com"))
	assert.Equal(t, "/pacientes/buscar/Ana%20Mar%C3%ADa", Path("pacientes", "buscar", "Ana María"))
	assert.Equal(t, "/citas/1/inactivar", Path("/citas/", "1", "inactivar"))
}

func TestParams_Merge(t *testing.T) {
	base := Params{"skip": 0}
	merged := base.Merge(map[string]any{"limit": 5})
	assert.Equal(t, "limit=5&skip=0", merged.Encode())
	assert.Len(t, base, 1)
}
