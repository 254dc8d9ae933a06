package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lingo-backend/internal/models"
)

// DefaultNLPWorkerURL is used when NLP_WORKER_URL is not set.
const DefaultNLPWorkerURL = "http://localhost:8002/chat"

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// HTTPSource asks the NLP worker for a reply: POST {message, options},
// expect {text}.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if url == "" {
		url = DefaultNLPWorkerURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Reply(ctx context.Context, req models.ChatRequest) (models.UpstreamReply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.UpstreamReply{}, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return models.UpstreamReply{}, fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return models.UpstreamReply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return models.UpstreamReply{}, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.UpstreamReply{}, fmt.Errorf("read upstream reply: %w", err)
	}
	return decodeReply(raw)
}

// decodeReply extracts the text field from a worker reply. A body that is not
// a JSON object is an error; a missing, null or non-string text field yields
// an empty reply.
func decodeReply(raw []byte) (models.UpstreamReply, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.UpstreamReply{}, &PayloadError{Err: err}
	}

	var text string
	if v, ok := fields["text"]; ok {
		if err := json.Unmarshal(v, &text); err != nil {
			text = ""
		}
	}
	return models.UpstreamReply{Text: text}, nil
}
