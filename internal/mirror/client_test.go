package mirror

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsert_SendsPayloadAndHeaders(t *testing.T) {
	var gotPath, gotKey, gotPrefer, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("apikey")
		gotPrefer = r.Header.Get("Prefer")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key")
	err := c.Upsert(context.Background(), "orders", []byte(`{"id":7}`))

	assert.NoError(t, err)
	assert.Equal(t, "/rest/v1/orders", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, "resolution=merge-duplicates", gotPrefer)
	assert.Equal(t, `{"id":7}`, gotBody)
}

func TestDelete_TargetsRecordByID(t *testing.T) {
	var gotMethod, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	err := c.Delete(context.Background(), "orders", "42")

	assert.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "id=eq.42", gotQuery)
}

func TestDo_NonSuccessIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	err := c.Upsert(context.Background(), "orders", []byte(`{}`))
	assert.ErrorContains(t, err, "403")
}

func TestEnabled(t *testing.T) {
	assert.False(t, NewClient("", "").Enabled())
	assert.True(t, NewClient("https://mirror.example", "k").Enabled())
}
