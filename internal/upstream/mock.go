package upstream

import (
	"context"
	"regexp"
	"strings"

	"lingo-backend/internal/models"
)

var (
	loneI      = regexp.MustCompile(`\bi\b`)
	loneIm     = regexp.MustCompile(`\bim\b`)
	whitespace = regexp.MustCompile(`\s+`)
)

// MockSource answers locally with a canned correction. It is meant for
// development without an NLP worker or model key.
type MockSource struct{}

func (MockSource) Reply(_ context.Context, req models.ChatRequest) (models.UpstreamReply, error) {
	corrected := strings.TrimSpace(req.Message)
	corrected = loneI.ReplaceAllString(corrected, "I")
	corrected = loneIm.ReplaceAllString(corrected, "I'm")
	corrected = whitespace.ReplaceAllString(corrected, " ")

	reply := corrected
	if req.Options.CorrectGrammar {
		reply = "✅ Correction: " + corrected
	}
	if req.Options.Explain {
		reply += "\n\n💡 Explanation: Improved capitalization & subject-verb agreement."
	}
	return models.UpstreamReply{Text: reply}, nil
}
