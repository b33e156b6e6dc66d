package jina

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Success(t *testing.T) {
	t.Parallel()

	want := ReadResponse{
		Code: 200,
		Data: ReadData{
			Title:       "Acme Widgets",
			Description: "Widgets for every occasion",
			URL:         "https://acme.com",
			Content:     "# Acme Widgets\n\nWe build widgets.",
			Usage:       ReadUsage{Tokens: 2150},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		assert.Equal(t, "/https://acme.com", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Read(context.Background(), "https://acme.com")

	require.NoError(t, err)
	assert.Equal(t, want.Code, got.Code)
	assert.Equal(t, want.Data.Title, got.Data.Title)
	assert.Equal(t, want.Data.Description, got.Data.Description)
	assert.Equal(t, want.Data.Content, got.Data.Content)
	assert.Equal(t, want.Data.Usage.Tokens, got.Data.Usage.Tokens)
}

func TestRead_AnonymousOmitsAuthorization(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ReadResponse{Code: 200})
	}))
	defer srv.Close()

	_, err := NewClient("", WithBaseURL(srv.URL)).Read(context.Background(), "https://acme.com")
	require.NoError(t, err)
}

func TestRead_HTTPErrors(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusNotFound} {
		var attempts atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"nope"}`))
		}))

		client := NewClient("test-key", WithBaseURL(srv.URL))
		_, err := client.Read(context.Background(), "https://acme.com")

		require.Error(t, err)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, status, apiErr.HTTPStatus())
		// One request per call, never repeated.
		assert.Equal(t, int32(1), attempts.Load())
		srv.Close()
	}
}

func TestRead_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Read(context.Background(), "https://acme.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestRead_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Read(ctx, "https://acme.com")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRead_EmptyContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ReadResponse{Code: 200, Data: ReadData{URL: "https://blocked.com"}})
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Read(context.Background(), "https://blocked.com")

	require.NoError(t, err)
	assert.Empty(t, got.Data.Content)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()
	customClient := &http.Client{}
	c := NewClient("test-key", WithHTTPClient(customClient))
	hc := c.(*httpClient)
	assert.Equal(t, customClient, hc.http)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient("my-key")
	hc := c.(*httpClient)
	assert.Equal(t, "my-key", hc.apiKey)
	assert.Equal(t, "https://r.jina.ai", hc.baseURL)
	assert.NotNil(t, hc.http)
	assert.Equal(t, 30*time.Second, hc.http.Timeout)
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()
	err := &APIError{StatusCode: 451, Body: "blocked"}
	assert.Equal(t, "jina: HTTP 451: blocked", err.Error())
}
