package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taxa/internal/sqlite"
	"github.com/mesh-intelligence/taxa/pkg/types"
)

func newTestServer(t *testing.T) (http.Handler, *sqlite.Backend, *test.Hook) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })

	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	return New(b, logger), b, hook
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(v))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateAndList(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/taxa", types.NewDraft("Colour", types.DataTypeText))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[types.Taxon](t, rec)
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(t, h, http.MethodPost, "/api/taxa", types.NewDraft("Size", types.DataTypeNumber))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/taxa", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]types.Taxon](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Colour", list[0].Name)
	assert.Equal(t, 1, list[1].Position)
}

func TestUpdateAndDelete(t *testing.T) {
	h, b, _ := newTestServer(t)
	a, err := b.CreateTaxon(context.Background(), types.NewDraft("Colour", types.DataTypeText))
	require.NoError(t, err)

	a.Name = "Hue"
	rec := do(t, h, http.MethodPatch, "/api/taxa/1", a)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Hue", decodeBody[types.Taxon](t, rec).Name)

	rec = do(t, h, http.MethodDelete, "/api/taxa/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/taxa/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReorder(t *testing.T) {
	h, b, _ := newTestServer(t)
	for _, n := range []string{"A", "B", "C"} {
		_, err := b.CreateTaxon(context.Background(), types.NewDraft(n, types.DataTypeText))
		require.NoError(t, err)
	}

	rec := do(t, h, http.MethodPut, "/api/taxa/order", OrderRequest{IDs: []int64{3, 1, 2}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int64{3, 1, 2}, types.IDs(decodeBody[[]types.Taxon](t, rec)))

	rec = do(t, h, http.MethodPut, "/api/taxa/order", OrderRequest{IDs: []int64{3, 1}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	h, b, _ := newTestServer(t)
	_, err := b.CreateTaxon(context.Background(), types.NewDraft("Colour", types.DataTypeText))
	require.NoError(t, err)

	presetless := types.NewDraft("Shade", types.DataTypeText)
	presetless.Freeform = false

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		field  string
	}{
		{"malformed json", http.MethodPost, "/api/taxa", "{", http.StatusBadRequest, ""},
		{"unknown field", http.MethodPost, "/api/taxa", `{"name":"x","colour":1}`, http.StatusBadRequest, ""},
		{"validation", http.MethodPost, "/api/taxa", presetless, http.StatusBadRequest, types.FieldPresetValues},
		{"duplicate name", http.MethodPost, "/api/taxa", types.NewDraft("Colour", types.DataTypeText), http.StatusConflict, ""},
		{"bad id", http.MethodPatch, "/api/taxa/abc", types.Taxon{}, http.StatusBadRequest, ""},
		{"missing taxon", http.MethodPatch, "/api/taxa/99", types.Taxon{Name: "x", DataType: types.DataTypeText, Freeform: true}, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decodeBody[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
			if tt.field != "" {
				assert.True(t, resp.Fields.Has(tt.field), "fields: %v", resp.Fields)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(types.ErrDetached))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk on fire")))
	assert.Equal(t, http.StatusBadRequest, statusFor(types.FieldErrors{{Field: "name", Message: "x"}}))
}

func TestListTypes(t *testing.T) {
	h, _, _ := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/taxon-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	descs := decodeBody[[]types.Descriptor](t, rec)
	require.Len(t, descs, len(types.DataTypes))
	assert.Equal(t, types.DataTypeText, descs[0].Key)
	assert.False(t, descs[3].SupportsMulti, "boolean is single-valued")
}

func TestHealthz(t *testing.T) {
	h, b, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", nil).Code)

	require.NoError(t, b.Detach())
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/healthz", nil).Code)
}

func TestRequestLogging(t *testing.T) {
	h, _, hook := newTestServer(t)

	do(t, h, http.MethodGet, "/api/taxa", nil)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.DebugLevel, entry.Level)
	assert.Equal(t, http.StatusOK, entry.Data["status"])
	assert.NotEmpty(t, entry.Data["request_id"])

	do(t, h, http.MethodDelete, "/api/taxa/42", nil)
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)
}
