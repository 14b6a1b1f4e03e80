package answer

import (
	"fmt"
	"strings"

	"ai-derm-assistant/internal/core/retriever"
)

// The reply-shape rules (answer first, add context, supportive tone, open
// follow-up question, ~150-word ceiling) are instructions to the generator
// model. They are enforced by prompt, not by code.
const systemPromptHeader = `You are DermAI, a friendly, medically accurate dermatology assistant.

When replying:
1. **Answer clearly first** - give a concise, evidence-based reply to the user's question.
2. **Add helpful context** - explain the key points (cause, symptoms, care tips, or next steps).
3. **Show empathy** - use reassuring, supportive language.
4. **Invite follow-up** - end with an open question (e.g., "Would you like to know home-care tips?").
5. **Keep it brief** (<= 150 words) unless the user asks for more detail.`

// buildSystemPrompt embeds the disease, its description and the matched QA
// pairs as alternating Q/A lines. With no matched pairs the block is omitted
// entirely; generation still proceeds on the description alone.
func buildSystemPrompt(disease string, rctx *retriever.Context) string {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "**Disease:** %s\n", disease)
	fmt.Fprintf(&b, "**Description:** %s\n", rctx.Description)
	if len(rctx.Matched) > 0 {
		b.WriteString("\n**Relevant Q&A Pairs**\n")
		for _, m := range rctx.Matched {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", m.Question, m.Answer)
		}
	}
	return strings.TrimSpace(b.String())
}

// buildUserTurn carries both the raw and the refined question so the model
// sees what the user actually typed alongside the clinical phrasing.
func buildUserTurn(raw, refined string) string {
	return fmt.Sprintf("User Question: %s\n(refined: %s)", raw, refined)
}
