// Package pipeline sequences classification, retrieval and answer generation
// for one conversational turn. The pipeline holds no conversation state of
// its own: each Process call is a pure function of the state passed in, and
// the caller persists the outcome.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"ai-derm-assistant/pkg/logger"

	"ai-derm-assistant/internal/core/classifier"
	"ai-derm-assistant/internal/core/knowledge"
	"ai-derm-assistant/internal/core/retriever"
	"ai-derm-assistant/internal/core/vocab"
)

// State is the per-conversation diagnosis state. Transitions are monotonic:
// NoImage moves to Classified or ClassificationFailed at most once and is
// terminal afterwards.
type State string

const (
	StateNoImage              State = "no_image"
	StateClassified           State = "classified"
	StateClassificationFailed State = "classification_failed"
)

// classifyTimeout bounds decode plus inference for one image.
const classifyTimeout = 10 * time.Second

// ImageClassifier is the classification boundary.
type ImageClassifier interface {
	Classify(ctx context.Context, r io.Reader) (classifier.Result, error)
}

// QARetriever is the retrieval boundary.
type QARetriever interface {
	Retrieve(ctx context.Context, disease, rawQuestion string) (*retriever.Context, error)
}

// AnswerGenerator is the generation boundary. It never fails; failures below
// it surface as fixed sentences.
type AnswerGenerator interface {
	Generate(ctx context.Context, disease, userQuestion string, rctx *retriever.Context) string
}

// Turn is the caller-owned conversation state plus the incoming payload.
type Turn struct {
	State          State
	DiagnosedLabel string
	Image          io.Reader // nil when the turn carries no image
	Text           string
}

// Outcome reports the state after the turn. ClassifiedNow is true only when
// classification ran and succeeded in this turn; the caller commits the
// diagnosis transition atomically with it.
type Outcome struct {
	State          State
	DiagnosedLabel string
	ClassifiedNow  bool
	Confidence     float32
	Reply          string // empty when the turn requested no generation
}

// Pipeline wires the three stages together.
type Pipeline struct {
	classifier ImageClassifier
	retriever  QARetriever
	generator  AnswerGenerator
	locks      *convLocks
}

// New builds a Pipeline over the injected stages.
func New(cls ImageClassifier, ret QARetriever, gen AnswerGenerator) *Pipeline {
	return &Pipeline{
		classifier: cls,
		retriever:  ret,
		generator:  gen,
		locks:      newConvLocks(),
	}
}

// LockConversation serializes turns of one conversation. The caller wraps
// read-state, Process and persist in the returned critical section so two
// concurrent images can never both claim the diagnosis.
func (p *Pipeline) LockConversation(conversationID int64) (unlock func()) {
	return p.locks.lock(conversationID)
}

// Process runs one turn through the state machine.
func (p *Pipeline) Process(ctx context.Context, turn Turn) Outcome {
	out := Outcome{State: turn.State, DiagnosedLabel: turn.DiagnosedLabel}
	if out.State == "" {
		out.State = StateNoImage
	}

	if turn.Image != nil {
		p.handleImage(ctx, turn, &out)
	}

	if turn.Text != "" {
		out.Reply = p.answer(ctx, out, turn.Text)
	}
	return out
}

func (p *Pipeline) handleImage(ctx context.Context, turn Turn, out *Outcome) {
	if out.State != StateNoImage {
		// One conversation stays bound to its first diagnosis; later images
		// are ignored.
		logger.Debug("pipeline: image ignored, conversation already %s", out.State)
		return
	}
	cctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()
	res, err := p.classifier.Classify(cctx, turn.Image)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// A cancelled classification commits nothing; the conversation
			// stays in NoImage and a later image may retry.
			logger.Warn("pipeline: classification cancelled, conversation stays undiagnosed")
			return
		}
		logger.Error(err, "pipeline: classification failed")
		out.State = StateClassificationFailed
		out.DiagnosedLabel = vocab.SentinelClassificationError
		return
	}
	out.State = StateClassified
	out.DiagnosedLabel = res.Label
	out.ClassifiedNow = true
	out.Confidence = res.Confidence
}

// answer routes the question to the generator branch matching the state.
// Retrieval only runs for a diagnosed pathology; pure image-only turns never
// reach here.
func (p *Pipeline) answer(ctx context.Context, out Outcome, text string) string {
	switch out.State {
	case StateClassified:
		if out.DiagnosedLabel == vocab.LabelNormal {
			// Fixed reassurance; no retrieval and no model call.
			return p.generator.Generate(ctx, out.DiagnosedLabel, text, nil)
		}
		rctx, err := p.retriever.Retrieve(ctx, out.DiagnosedLabel, text)
		if err != nil {
			// NotFound is a designed outcome; anything else is a backend
			// fault. Both resolve to the fixed rephrase apology.
			if !errors.Is(err, knowledge.ErrDiseaseNotFound) {
				logger.Error(err, "pipeline: retrieval failed for %q", out.DiagnosedLabel)
			}
			return p.generator.Generate(ctx, out.DiagnosedLabel, text, nil)
		}
		return p.generator.Generate(ctx, out.DiagnosedLabel, text, rctx)
	case StateClassificationFailed:
		return p.generator.Generate(ctx, vocab.SentinelClassificationError, text, nil)
	default:
		return p.generator.Generate(ctx, "", text, nil)
	}
}
