package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatchesAndOrders(t *testing.T) {
	var batches [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "m", req.Model)
		batches = append(batches, req.Input)

		// answer in reverse index order
		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		var data []item
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Index: i, Embedding: []float64{float64(len(req.Input[i]))}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Model: "m", Token: "secret", BatchSize: 2}, nil)
	vecs, err := c.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{1}, {2}, {3}}, vecs)
	assert.Equal(t, [][]string{{"a", "bb"}, {"ccc"}}, batches)
}

func TestEmbedFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(Config{Endpoint: srv.URL}, nil).Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestEmbedFailsOnCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,2]}]}`))
	}))
	defer srv.Close()

	_, err := New(Config{Endpoint: srv.URL}, nil).Embed(context.Background(), []string{"x", "y"})
	assert.Error(t, err)
}

func TestEmbedRejectsBadIndices(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"duplicate", `{"data":[{"index":0,"embedding":[1]},{"index":0,"embedding":[2]}]}`, "duplicate index 0"},
		{"out of range", `{"data":[{"index":0,"embedding":[1]},{"index":2,"embedding":[2]}]}`, "index 2 out of range"},
		{"negative", `{"data":[{"index":-1,"embedding":[1]},{"index":1,"embedding":[2]}]}`, "index -1 out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(Config{Endpoint: srv.URL}, nil).Embed(context.Background(), []string{"x", "y"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEmbedRejectsOversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[`))
		chunk := []byte(strings.Repeat("0,", 1<<16))
		for written := 0; written <= maxResponseBytes; written += len(chunk) {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
		_, _ = w.Write([]byte(`0]}]}`))
	}))
	defer srv.Close()

	_, err := New(Config{Endpoint: srv.URL}, nil).Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "larger than")
}

func TestEmbedTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestEmbedUnreachable(t *testing.T) {
	c := New(Config{Endpoint: "http://127.0.0.1:1/v1/embeddings", Timeout: time.Second}, nil)
	_, err := c.Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}
