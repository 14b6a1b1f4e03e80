package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-derm-assistant/internal/core/knowledge"
	"ai-derm-assistant/internal/core/llm"
	"ai-derm-assistant/internal/core/retriever"
	"ai-derm-assistant/internal/core/vocab"
)

// recordingBackend captures the last prompt and returns a canned reply.
type recordingBackend struct {
	reply    string
	err      error
	calls    int
	messages []llm.Message
}

func (b *recordingBackend) Chat(_ context.Context, messages []llm.Message) (string, error) {
	b.calls++
	b.messages = messages
	return b.reply, b.err
}

func sampleContext() *retriever.Context {
	return &retriever.Context{
		RefinedQuestion: "What are the treatment options for acne vulgaris?",
		Description:     "A common skin condition.",
		Matched: []retriever.Match{
			{QAPair: knowledge.QAPair{Question: "Is acne contagious?", Answer: "No."}, Score: 0.9},
			{QAPair: knowledge.QAPair{Question: "Does diet matter?", Answer: "Sometimes."}, Score: 0.8},
		},
	}
}

func TestGenerate_FixedBranchesMakeNoModelCall(t *testing.T) {
	cases := []struct {
		name    string
		disease string
		rctx    *retriever.Context
		want    string
	}{
		{"no image", "", nil, MsgNoImage},
		{"classification failed", vocab.SentinelClassificationError, nil, MsgClassificationFailed},
		{"normal image", vocab.LabelNormal, nil, MsgNormalImage},
		{"retrieval miss", "Acne", nil, MsgRetrievalMiss},
	}
	for _, tc := range cases {
		backend := &recordingBackend{reply: "should never be seen"}
		g := New(backend)
		got := g.Generate(context.Background(), tc.disease, "any question", tc.rctx)
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
		if backend.calls != 0 {
			t.Errorf("%s: fixed branch must not call the model", tc.name)
		}
	}
}

func TestGenerate_ComposedPrompt(t *testing.T) {
	backend := &recordingBackend{reply: "Here is your answer."}
	g := New(backend)

	got := g.Generate(context.Background(), "Acne", "is it contagious", sampleContext())
	if got != "Here is your answer." {
		t.Fatalf("got %q", got)
	}
	if backend.calls != 1 {
		t.Fatalf("model called %d times, want 1", backend.calls)
	}
	if len(backend.messages) != 2 {
		t.Fatalf("got %d messages, want system+user", len(backend.messages))
	}

	system := backend.messages[0]
	if system.Role != llm.RoleSystem {
		t.Errorf("first message role = %q", system.Role)
	}
	for _, fragment := range []string{
		"**Disease:** Acne",
		"**Description:** A common skin condition.",
		"Q: Is acne contagious?",
		"A: No.",
		"Q: Does diet matter?",
	} {
		if !strings.Contains(system.Content, fragment) {
			t.Errorf("system prompt missing %q", fragment)
		}
	}

	user := backend.messages[1]
	if user.Role != llm.RoleUser {
		t.Errorf("second message role = %q", user.Role)
	}
	if !strings.Contains(user.Content, "User Question: is it contagious") {
		t.Errorf("user turn missing raw question: %q", user.Content)
	}
	if !strings.Contains(user.Content, "(refined: What are the treatment options for acne vulgaris?)") {
		t.Errorf("user turn missing refined question: %q", user.Content)
	}
}

func TestGenerate_EmptyMatchesOmitQABlock(t *testing.T) {
	backend := &recordingBackend{reply: "ok"}
	g := New(backend)

	rctx := sampleContext()
	rctx.Matched = nil
	g.Generate(context.Background(), "Acne", "question", rctx)

	if backend.calls != 1 {
		t.Fatal("empty match set must still generate")
	}
	system := backend.messages[0].Content
	if strings.Contains(system, "Relevant Q&A Pairs") {
		t.Error("prompt must omit the Q&A block when nothing matched")
	}
	if !strings.Contains(system, "**Description:** A common skin condition.") {
		t.Error("prompt must keep the description")
	}
}

func TestGenerate_BackendFailure(t *testing.T) {
	backend := &recordingBackend{err: errors.New("timeout")}
	g := New(backend)
	if got := g.Generate(context.Background(), "Acne", "q", sampleContext()); got != MsgGenerationFailed {
		t.Errorf("got %q, want MsgGenerationFailed", got)
	}

	empty := &recordingBackend{reply: ""}
	g = New(empty)
	if got := g.Generate(context.Background(), "Acne", "q", sampleContext()); got != MsgGenerationFailed {
		t.Errorf("empty reply: got %q, want MsgGenerationFailed", got)
	}
}
