package upstream

import (
	"fmt"
	"strings"

	"lingo-backend/internal/models"
)

func buildTutorPrompt(req models.ChatRequest) string {
	var b strings.Builder
	opts := req.Options

	// Layer 1: Role
	b.WriteString("You are a friendly language tutor chatting with a learner. Reply in plain text without markdown.\n\n")

	// Layer 2: Correction
	if opts.CorrectGrammar {
		b.WriteString("Correction: Start your reply with \"✅ Correction: \" followed by the learner's message rewritten with correct grammar, spelling and capitalization.\n\n")
	} else {
		b.WriteString("Reply: Answer the learner's message naturally and keep the conversation going.\n\n")
	}

	// Layer 3: Explanation
	if opts.Explain {
		b.WriteString("Explanation: After the reply add a blank line and a short section starting with \"💡 Explanation: \" that explains the grammar points involved.\n\n")
	}

	// Layer 4: Translation
	if lang := strings.TrimSpace(opts.TranslateTo); lang != "" {
		b.WriteString(fmt.Sprintf("Translation: Finish with a line starting with \"🌐 Translation: \" that translates the corrected message into %s.\n\n", lang))
	}

	// Layer 5: Quiz
	if opts.Quiz {
		b.WriteString("Quiz: End with one short practice question about the same grammar point.\n\n")
	}

	// Layer 6: Message
	b.WriteString("---MESSAGE START---\n")
	b.WriteString(strings.TrimSpace(req.Message))
	b.WriteString("\n---MESSAGE END---\n")

	return b.String()
}
