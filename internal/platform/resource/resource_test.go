package resource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/validate"
	"github.com/ehr/hospital-console/pkg/pagination"
)

type widget struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
}

type createWidget struct {
	Nombre string `json:"nombre"`
}

func (c createWidget) Validate() error {
	var v validate.Checker
	v.Required("nombre", c.Nombre)
	return v.Err()
}

type updateWidget struct {
	Nombre *string `json:"nombre,omitempty"`
}

type widgetFilter struct {
	Nombre string
	Activo *bool
}

func (f widgetFilter) Params() apiclient.Params {
	return apiclient.Params{"nombre": f.Nombre, "activo": f.Activo}
}

type hit struct {
	method, path, query string
}

type fakeBackend struct {
	mu   sync.Mutex
	hits []hit
	body string
}

func (f *fakeBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits = append(f.hits, hit{r.Method, r.URL.Path, r.URL.RawQuery})
		body := f.body
		f.mu.Unlock()
		if body == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResource_ListBuildsSkipAndFilters(t *testing.T) {
	fb := &fakeBackend{body: `{"data":[{"id":"1"},{"id":"2"}]}`}
	srv := fb.server(t)
	r := New[widget, createWidget, updateWidget](apiclient.New(srv.URL), "/widgets")

	active := false
	resp, err := r.List(context.Background(), pagination.Params{Page: 3, Limit: 2}, widgetFilter{Nombre: "Ana", Activo: &active})

	require.NoError(t, err)
	require.Len(t, fb.hits, 1)
	assert.Equal(t, "/widgets", fb.hits[0].path)
	assert.Equal(t, "activo=false&limit=2&nombre=Ana&skip=4", fb.hits[0].query)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 4, resp.TotalPages)
}

func TestResource_ListRejectsInvalidParams(t *testing.T) {
	fb := &fakeBackend{}
	srv := fb.server(t)
	r := New[widget, createWidget, updateWidget](apiclient.New(srv.URL), "/widgets")

	_, err := r.List(context.Background(), pagination.Params{Page: 0, Limit: 10}, nil)
	assert.Error(t, err)
	assert.Empty(t, fb.hits)
}

func TestResource_CreateValidatesBeforeNetwork(t *testing.T) {
	fb := &fakeBackend{body: `{"id":"9","nombre":"x"}`}
	srv := fb.server(t)
	r := New[widget, createWidget, updateWidget](apiclient.New(srv.URL), "/widgets")

	_, err := r.Create(context.Background(), createWidget{})
	var verrs validate.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Empty(t, fb.hits)

	created, err := r.Create(context.Background(), createWidget{Nombre: "x"})
	require.NoError(t, err)
	assert.Equal(t, "9", created.ID)
	assert.Equal(t, http.MethodPost, fb.hits[0].method)
}

func TestResource_UpdateAndHardDelete(t *testing.T) {
	fb := &fakeBackend{body: `{"id":"1","nombre":"y"}`}
	srv := fb.server(t)
	r := New[widget, createWidget, updateWidget](apiclient.New(srv.URL), "/widgets")

	name := "y"
	_, err := r.Update(context.Background(), "1", updateWidget{Nombre: &name})
	require.NoError(t, err)
	require.NoError(t, r.Delete(context.Background(), "1"))

	assert.Equal(t, hit{http.MethodPut, "/widgets/1", ""}, fb.hits[0])
	assert.Equal(t, hit{http.MethodDelete, "/widgets/1", ""}, fb.hits[1])
}

func TestSoftResource_DeleteDeactivates(t *testing.T) {
	fb := &fakeBackend{}
	srv := fb.server(t)
	r := NewSoft[widget, createWidget, updateWidget](apiclient.New(srv.URL), "/widgets")
	ctx := context.Background()

	require.NoError(t, r.Delete(ctx, "7"))
	require.NoError(t, r.Reactivate(ctx, "7"))
	require.NoError(t, r.Purge(ctx, "7"))

	require.Len(t, fb.hits, 3)
	assert.Equal(t, hit{http.MethodPatch, "/widgets/7/inactivar", ""}, fb.hits[0])
	assert.Equal(t, hit{http.MethodPatch, "/widgets/7/reactivar", ""}, fb.hits[1])
	assert.Equal(t, hit{http.MethodDelete, "/widgets/7", ""}, fb.hits[2])
}

func TestResource_AllAcceptsBothShapes(t *testing.T) {
	fb := &fakeBackend{body: `[{"id":"1"}]`}
	srv := fb.server(t)
	r := New[widget, createWidget, updateWidget](apiclient.New(srv.URL), "/widgets")

	items, err := r.All(context.Background(), "/widgets/activos")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestID_UnmarshalNumberOrString(t *testing.T) {
	var v struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"e7a1","c":null}`), &v))
	assert.Equal(t, ID("42"), v.A)
	assert.Equal(t, ID("e7a1"), v.B)
	assert.Equal(t, ID(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func TestParseBool(t *testing.T) {
	tr := true
	cases := []struct {
		in     any
		want   bool
		wantOK bool
	}{
		{true, true, true},
		{false, false, true},
		{"true", true, true},
		{"false", false, true},
		{"maybe", false, false},
		{&tr, true, true},
		{(*bool)(nil), false, false},
		{nil, false, false},
		{1, false, false},
	}
	for _, c := range cases {
		got, ok := ParseBool(c.in)
		assert.Equal(t, c.want, got, "%v", c.in)
		assert.Equal(t, c.wantOK, ok, "%v", c.in)
	}
	assert.Nil(t, BoolParam(""))
	assert.True(t, *BoolParam("true"))
}

func TestIncludeInactive(t *testing.T) {
	assert.Nil(t, IncludeInactive(false))
	assert.Equal(t, true, IncludeInactive(true)["incluir_inactivos"])
}

type fixedAudit struct {
	id string
	ok bool
}

func (f fixedAudit) IdentifierForCreation() string        { return f.id }
func (f fixedAudit) IdentifierForEdition() (string, bool) { return f.id, f.ok }

func TestEditedBy(t *testing.T) {
	assert.Nil(t, EditedBy(nil))
	assert.Nil(t, EditedBy(fixedAudit{id: "x", ok: false}))
	assert.Equal(t, "x", *EditedBy(fixedAudit{id: "x", ok: true}))
}

func TestHTTPError(t *testing.T) {
	verr := validate.Errors{{Field: "email", Message: "is required"}}
	he := HTTPError(verr).(*echo.HTTPError)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	notFound := apiclient.ParseError(http.StatusNotFound, []byte(`{"detail":"no existe"}`))
	he = HTTPError(notFound).(*echo.HTTPError)
	assert.Equal(t, http.StatusNotFound, he.Code)
	assert.Equal(t, "no existe", he.Message)

	transport := &apiclient.Error{Kind: apiclient.KindTransport}
	he = HTTPError(transport).(*echo.HTTPError)
	assert.Equal(t, http.StatusBadGateway, he.Code)

	he = HTTPError(errors.New("boom")).(*echo.HTTPError)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}
