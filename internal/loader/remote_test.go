package loader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRemoteHTTPReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("id,name\n1,alpha\n"))
	}))
	defer srv.Close()

	rc, err := FetchRemote(context.Background(), srv.URL, 5*time.Second)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,alpha\n", string(data))
}

func TestFetchRemoteHTTPNonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := FetchRemote(context.Background(), srv.URL, 5*time.Second)
	assert.Error(t, err)
}

func TestFetchRemoteUnsupportedSchemeErrors(t *testing.T) {
	_, err := FetchRemote(context.Background(), "ftp://example.com/data.csv", 5*time.Second)
	assert.Error(t, err)
}

func TestFetchRemoteInvalidURLErrors(t *testing.T) {
	_, err := FetchRemote(context.Background(), "://not-a-url", 5*time.Second)
	assert.Error(t, err)
}

func TestFetchRemoteHTTPRespectsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	_, err := FetchRemote(context.Background(), srv.URL, 1*time.Millisecond)
	assert.Error(t, err)
}
