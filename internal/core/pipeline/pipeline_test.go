package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"ai-derm-assistant/internal/core/classifier"
	"ai-derm-assistant/internal/core/knowledge"
	"ai-derm-assistant/internal/core/retriever"
	"ai-derm-assistant/internal/core/vocab"
)

type fakeClassifier struct {
	result classifier.Result
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(_ context.Context, _ io.Reader) (classifier.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeRetriever struct {
	rctx  *retriever.Context
	err   error
	calls int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _, _ string) (*retriever.Context, error) {
	f.calls++
	return f.rctx, f.err
}

// fakeGenerator records the branch it was asked for and echoes it back.
type fakeGenerator struct {
	calls       int
	lastDisease string
	lastRctx    *retriever.Context
}

func (f *fakeGenerator) Generate(_ context.Context, disease, _ string, rctx *retriever.Context) string {
	f.calls++
	f.lastDisease = disease
	f.lastRctx = rctx
	return "reply for " + disease
}

func newTestPipeline(cls *fakeClassifier, ret *fakeRetriever, gen *fakeGenerator) *Pipeline {
	return New(cls, ret, gen)
}

func TestProcess_FirstImageClassifies(t *testing.T) {
	cls := &fakeClassifier{result: classifier.Result{Label: "Acne", Confidence: 0.92}}
	ret := &fakeRetriever{rctx: &retriever.Context{Description: "d"}}
	gen := &fakeGenerator{}
	p := newTestPipeline(cls, ret, gen)

	out := p.Process(context.Background(), Turn{
		State: StateNoImage,
		Image: strings.NewReader("img"),
	})
	if out.State != StateClassified {
		t.Fatalf("state = %s", out.State)
	}
	if out.DiagnosedLabel != "Acne" || !out.ClassifiedNow || out.Confidence != 0.92 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Reply != "" {
		t.Errorf("image-only turn must not generate, got %q", out.Reply)
	}
	if gen.calls != 0 {
		t.Error("generator called on image-only turn")
	}
}

func TestProcess_SecondImageIgnored(t *testing.T) {
	cls := &fakeClassifier{result: classifier.Result{Label: "Eczema"}}
	gen := &fakeGenerator{}
	p := newTestPipeline(cls, &fakeRetriever{}, gen)

	out := p.Process(context.Background(), Turn{
		State:          StateClassified,
		DiagnosedLabel: "Acne",
		Image:          strings.NewReader("img"),
	})
	if cls.calls != 0 {
		t.Error("classifier must not run once a diagnosis exists")
	}
	if out.State != StateClassified || out.DiagnosedLabel != "Acne" {
		t.Fatalf("diagnosis must stay frozen, got %+v", out)
	}
	if out.ClassifiedNow {
		t.Error("ClassifiedNow must be false for an ignored image")
	}
}

func TestProcess_ClassificationFailureIsTerminal(t *testing.T) {
	cls := &fakeClassifier{err: errors.New("corrupt tensor")}
	p := newTestPipeline(cls, &fakeRetriever{}, &fakeGenerator{})

	out := p.Process(context.Background(), Turn{State: StateNoImage, Image: strings.NewReader("x")})
	if out.State != StateClassificationFailed {
		t.Fatalf("state = %s", out.State)
	}
	if out.DiagnosedLabel != vocab.SentinelClassificationError {
		t.Fatalf("label = %q", out.DiagnosedLabel)
	}
}

func TestProcess_CancelledClassificationStaysRetryable(t *testing.T) {
	cls := &fakeClassifier{err: context.Canceled}
	p := newTestPipeline(cls, &fakeRetriever{}, &fakeGenerator{})

	out := p.Process(context.Background(), Turn{State: StateNoImage, Image: strings.NewReader("x")})
	if out.State != StateNoImage {
		t.Fatalf("cancelled classification must leave NoImage, got %s", out.State)
	}
	if out.DiagnosedLabel != "" || out.ClassifiedNow {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestProcess_QuestionRouting(t *testing.T) {
	rctx := &retriever.Context{Description: "d"}
	cases := []struct {
		name          string
		turn          Turn
		wantDisease   string
		wantRctx      *retriever.Context
		wantRetrieval int
	}{
		{
			name:        "no image yet",
			turn:        Turn{State: StateNoImage, Text: "hello"},
			wantDisease: "",
		},
		{
			name:        "classification failed",
			turn:        Turn{State: StateClassificationFailed, DiagnosedLabel: vocab.SentinelClassificationError, Text: "q"},
			wantDisease: vocab.SentinelClassificationError,
		},
		{
			name:        "normal image skips retrieval",
			turn:        Turn{State: StateClassified, DiagnosedLabel: vocab.LabelNormal, Text: "q"},
			wantDisease: vocab.LabelNormal,
		},
		{
			name:          "diagnosed pathology retrieves",
			turn:          Turn{State: StateClassified, DiagnosedLabel: "Acne", Text: "q"},
			wantDisease:   "Acne",
			wantRctx:      rctx,
			wantRetrieval: 1,
		},
	}
	for _, tc := range cases {
		ret := &fakeRetriever{rctx: rctx}
		gen := &fakeGenerator{}
		p := newTestPipeline(&fakeClassifier{}, ret, gen)

		out := p.Process(context.Background(), tc.turn)
		if gen.calls != 1 {
			t.Errorf("%s: generator calls = %d, want 1", tc.name, gen.calls)
			continue
		}
		if gen.lastDisease != tc.wantDisease {
			t.Errorf("%s: disease = %q, want %q", tc.name, gen.lastDisease, tc.wantDisease)
		}
		if gen.lastRctx != tc.wantRctx {
			t.Errorf("%s: unexpected retrieval context %v", tc.name, gen.lastRctx)
		}
		if ret.calls != tc.wantRetrieval {
			t.Errorf("%s: retriever calls = %d, want %d", tc.name, ret.calls, tc.wantRetrieval)
		}
		if out.Reply == "" {
			t.Errorf("%s: expected a reply", tc.name)
		}
	}
}

func TestProcess_RetrievalNotFoundFallsBack(t *testing.T) {
	ret := &fakeRetriever{err: knowledge.ErrDiseaseNotFound}
	gen := &fakeGenerator{}
	p := newTestPipeline(&fakeClassifier{}, ret, gen)

	p.Process(context.Background(), Turn{State: StateClassified, DiagnosedLabel: "Rarity", Text: "q"})
	if gen.lastRctx != nil {
		t.Error("not-found retrieval must reach the generator with nil context")
	}
	if gen.lastDisease != "Rarity" {
		t.Errorf("disease = %q", gen.lastDisease)
	}
}

func TestProcess_RetrievalErrorFallsBack(t *testing.T) {
	ret := &fakeRetriever{err: errors.New("encoder down")}
	gen := &fakeGenerator{}
	p := newTestPipeline(&fakeClassifier{}, ret, gen)

	p.Process(context.Background(), Turn{State: StateClassified, DiagnosedLabel: "Acne", Text: "q"})
	if gen.calls != 1 || gen.lastRctx != nil {
		t.Fatalf("backend failure must degrade to the nil-context branch, calls=%d", gen.calls)
	}
}

func TestProcess_NoTextNoGeneration(t *testing.T) {
	gen := &fakeGenerator{}
	p := newTestPipeline(&fakeClassifier{}, &fakeRetriever{}, gen)

	out := p.Process(context.Background(), Turn{State: StateClassified, DiagnosedLabel: "Acne"})
	if gen.calls != 0 || out.Reply != "" {
		t.Fatalf("turn without text must not generate: calls=%d reply=%q", gen.calls, out.Reply)
	}
}

func TestLockConversation_SerializesSameConversation(t *testing.T) {
	p := newTestPipeline(&fakeClassifier{}, &fakeRetriever{}, &fakeGenerator{})

	const turns = 50
	var wg sync.WaitGroup
	var inCritical, maxInCritical int
	var mu sync.Mutex

	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := p.LockConversation(7)
			defer unlock()
			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if maxInCritical != 1 {
		t.Fatalf("observed %d concurrent critical sections for one conversation", maxInCritical)
	}
}
