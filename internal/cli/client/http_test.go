package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIClient_URLCascade(t *testing.T) {
	t.Setenv("POSTMIND_API_URL", "")
	client := NewAPIClient(nil)
	assert.Equal(t, defaultAPIURL, client.BaseURL())

	t.Setenv("POSTMIND_API_URL", "http://api.example.com")
	client = NewAPIClient(nil)
	assert.Equal(t, "http://api.example.com", client.BaseURL())
}

func TestAPIClient_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/posts/my-post/ask", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "what is this?", body["question"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]string{"answer": "the answer"},
		})
	}))
	defer srv.Close()

	client := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	resp, err := client.Post("/posts/my-post/ask", map[string]string{"question": "what is this?"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	var data map[string]string
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "the answer", data["answer"])
}

func TestAPIClient_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "post not found",
		})
	}))
	defer srv.Close()

	client := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	_, err := client.Get("/posts/missing/ask")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "post not found", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "404")
}

func TestAPIClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	client := &APIClient{baseURL: srv.URL, httpClient: srv.Client()}

	_, err := client.Get("/health")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "upstream unavailable")
}
