package generator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps", r.URL.Path)
		assert.Equal(t, "acme", r.URL.Query().Get("tenant"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["countries", "rivers"]`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "acme", 5*time.Second)
	names, err := client.Maps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"countries", "rivers"}, names)
}

func TestMapDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/maps/countries", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "countries", "layers": ["borders", "cities"]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "acme", 5*time.Second)
	details, err := client.Map(context.Background(), "countries")
	require.NoError(t, err)
	assert.Equal(t, []string{"borders", "cities"}, details.Layers)
}

func TestNon2xxStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "acme", 5*time.Second)
	_, err := client.Maps(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestDecodeFailureIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "acme", 5*time.Second)
	_, err := client.Maps(context.Background())
	assert.Error(t, err)
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient("", "acme", 5*time.Second)
	assert.False(t, client.Configured())

	_, err := client.Maps(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
