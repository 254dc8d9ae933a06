package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingo-backend/internal/models"
)

func TestHTTPSource_SendsMessageAndOptions(t *testing.T) {
	var got map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"Hi"}`))
	}))
	defer srv.Close()

	var req models.ChatRequest
	require.NoError(t, json.Unmarshal([]byte(`{"message":"hello","options":{"correctGrammar":true,"level":"A2"}}`), &req))

	reply, err := NewHTTPSource(srv.URL, srv.Client()).Reply(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "Hi", reply.Text)
	assert.JSONEq(t, `"hello"`, string(got["message"]))
	assert.JSONEq(t, `{"correctGrammar":true,"level":"A2"}`, string(got["options"]))
}

func TestHTTPSource_ReplyShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"text", `{"text":"Bonjour"}`, "Bonjour", false},
		{"missing text", `{}`, "", false},
		{"null text", `{"text":null}`, "", false},
		{"numeric text", `{"text":42}`, "", false},
		{"extra fields", `{"text":"ok","model":"x"}`, "ok", false},
		{"not json", `<html>oops</html>`, "", true},
		{"array", `[1,2]`, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			reply, err := NewHTTPSource(srv.URL, srv.Client()).Reply(context.Background(), models.ChatRequest{Message: "x"})
			if tc.wantErr {
				var perr *PayloadError
				assert.True(t, errors.As(err, &perr), "expected PayloadError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, reply.Text)
		})
	}
}

func TestHTTPSource_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, srv.Client()).Reply(context.Background(), models.ChatRequest{Message: "x"})

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.Equal(t, "model loading", serr.Body)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPSource_HonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTPSource(srv.URL, srv.Client()).Reply(ctx, models.ChatRequest{Message: "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPSource_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSource(url, nil).Reply(context.Background(), models.ChatRequest{Message: "x"})

	assert.Error(t, err)
}

func TestNewHTTPSource_DefaultURL(t *testing.T) {
	src := NewHTTPSource("", nil)
	assert.Equal(t, DefaultNLPWorkerURL, src.url)
}
