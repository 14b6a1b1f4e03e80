// Package retriever implements hybrid semantic retrieval over the per-disease
// knowledge base: the refined user question is compared against both stored
// questions and stored answers, and the two cosine similarities are blended.
package retriever

import (
	"context"
	"errors"
	"sort"

	"ai-derm-assistant/pkg/logger"

	"ai-derm-assistant/internal/core/knowledge"
)

// Embedder produces comparable fixed-dimensional vectors. Query, question and
// answer texts must all go through the same encoder within one retrieval.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// Reformulator rewrites a raw user question into one clinical sentence.
type Reformulator interface {
	Reformulate(ctx context.Context, rawQuestion, disease string) (string, error)
}

// Match is a stored QA pair that cleared the score threshold.
type Match struct {
	knowledge.QAPair
	Score float32 `json:"score"`
}

// Context is the retrieval bundle handed to answer generation. It is
// transient; the caller owns any persistence.
type Context struct {
	RefinedQuestion string  `json:"refined_question"`
	Description     string  `json:"description"`
	Matched         []Match `json:"matched_qa_pairs"`
}

// Config tunes hybrid scoring and selection.
type Config struct {
	// HybridAlpha weights question-similarity against answer-similarity.
	HybridAlpha float32
	// ScoreThreshold is the minimum hybrid score a pair must reach.
	ScoreThreshold float32
	// TopK caps the number of returned pairs.
	TopK int
}

// Retriever scores knowledge-base pairs against refined user questions.
// All fields are set at construction and never mutated, so one instance
// serves concurrent turns.
type Retriever struct {
	kb           *knowledge.Base
	embedder     Embedder
	reformulator Reformulator
	alpha        float32
	threshold    float32
	topK         int
	cache        *vectorCache
}

// New builds a Retriever over the given knowledge base and backends.
// Zero-valued tuning fields fall back to alpha 0.7, threshold 0.75, top-k 5.
func New(kb *knowledge.Base, embedder Embedder, reformulator Reformulator, cfg Config) *Retriever {
	if cfg.HybridAlpha <= 0 || cfg.HybridAlpha > 1 {
		cfg.HybridAlpha = 0.7
	}
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = 0.75
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Retriever{
		kb:           kb,
		embedder:     embedder,
		reformulator: reformulator,
		alpha:        cfg.HybridAlpha,
		threshold:    cfg.ScoreThreshold,
		topK:         cfg.TopK,
		cache:        newVectorCache(),
	}
}

// Retrieve reformulates the raw question, embeds it, and scores every stored
// pair for the disease. An unknown disease returns
// knowledge.ErrDiseaseNotFound; an empty result set after filtering is a
// valid Context, not an error.
func (r *Retriever) Retrieve(ctx context.Context, disease, rawQuestion string) (*Context, error) {
	entry, err := r.kb.Get(disease)
	if err != nil {
		if errors.Is(err, knowledge.ErrDiseaseNotFound) {
			// Designed outcome for unknown or no-disease labels; not a failure.
			logger.Debug("retriever: no knowledge entry for %q", disease)
		}
		return nil, err
	}

	refined, err := r.reformulator.Reformulate(ctx, rawQuestion, disease)
	if err != nil {
		return nil, err
	}

	userVecs, err := r.embedder.Embed(ctx, []string{refined})
	if err != nil {
		return nil, err
	}
	userVec := userVecs[0]

	vectors, err := r.cache.get(ctx, disease, entry, r.embedder)
	if err != nil {
		return nil, err
	}

	matched := selectPairs(entry.QAPairs, userVec, vectors, r.alpha, r.threshold, r.topK)
	return &Context{
		RefinedQuestion: refined,
		Description:     entry.Description,
		Matched:         matched,
	}, nil
}

// selectPairs applies hybrid scoring, the threshold filter and the top-k cap.
// The sort is stable so equal scores keep their original list order.
func selectPairs(pairs []knowledge.QAPair, userVec []float32, vecs diseaseVectors, alpha, threshold float32, topK int) []Match {
	scored := make([]Match, 0, len(pairs))
	for i, qa := range pairs {
		score := alpha*cosine32(userVec, vecs.questions[i]) + (1-alpha)*cosine32(userVec, vecs.answers[i])
		if score >= threshold {
			scored = append(scored, Match{QAPair: qa, Score: score})
		}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
