// Package answer turns a diagnosed disease, a user question and an optional
// retrieval context into the text shown to the user. Every failure below this
// layer is converted into one of the fixed sentences; a raw error never
// reaches the conversational surface.
package answer

import (
	"context"

	"ai-derm-assistant/pkg/logger"

	"ai-derm-assistant/internal/core/llm"
	"ai-derm-assistant/internal/core/retriever"
	"ai-derm-assistant/internal/core/vocab"
)

// Fixed user-facing sentences. These are part of the conversational contract
// and are matched verbatim by the branch tests.
const (
	MsgNoImage = "I notice you haven't uploaded an image yet. To provide the most accurate medical advice, " +
		"please upload a clear image of the affected area. Once you do, I can analyze it and provide " +
		"specific guidance about your condition."

	MsgClassificationFailed = "I apologize, but I had trouble analyzing your image. Could you please try " +
		"uploading a clearer image? Make sure the affected area is well-lit and in focus."

	MsgNormalImage = "Your image does not appear to show any concerning skin disease. Everything looks " +
		"normal, so there is nothing to worry about. If you have any other questions or notice new " +
		"changes, feel free to let me know!"

	MsgRetrievalMiss = "I apologize, but I couldn't find relevant information for your question. Could you " +
		"please rephrase your question or provide more details about your concern?"

	MsgGenerationFailed = "I apologize, but I encountered an error while generating the response."
)

// ChatBackend is the one-shot chat call used for Branch D.
type ChatBackend interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

// Generator composes prompts and invokes the chat backend.
type Generator struct {
	backend ChatBackend
}

// New builds a Generator over the given chat backend.
func New(backend ChatBackend) *Generator {
	return &Generator{backend: backend}
}

// Generate returns the user-facing answer for a turn.
//
//   - disease == ""                               -> fixed upload request, no model call
//   - disease == vocab.SentinelClassificationError -> fixed clearer-image apology, no model call
//   - disease == vocab.LabelNormal                 -> fixed reassurance, no model call
//   - rctx == nil (retrieval missed or failed)     -> fixed rephrase apology, no model call
//   - otherwise                                    -> one chat call over the composed prompt
//
// An empty rctx.Matched list is not a failure; the prompt simply omits the
// Q&A block and leans on the description.
func (g *Generator) Generate(ctx context.Context, disease, userQuestion string, rctx *retriever.Context) string {
	switch {
	case disease == "":
		return MsgNoImage
	case disease == vocab.SentinelClassificationError:
		return MsgClassificationFailed
	case disease == vocab.LabelNormal:
		return MsgNormalImage
	case rctx == nil:
		return MsgRetrievalMiss
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemPrompt(disease, rctx)},
		{Role: llm.RoleUser, Content: buildUserTurn(userQuestion, rctx.RefinedQuestion)},
	}
	text, err := g.backend.Chat(ctx, messages)
	if err != nil {
		logger.Error(err, "answer: generation call failed for %q", disease)
		return MsgGenerationFailed
	}
	if text == "" {
		return MsgGenerationFailed
	}
	return text
}
