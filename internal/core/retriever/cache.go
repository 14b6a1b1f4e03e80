package retriever

import (
	"context"
	"sync"

	"ai-derm-assistant/internal/core/knowledge"
)

type diseaseVectors struct {
	questions [][]float32
	answers   [][]float32
}

// vectorCache memoizes knowledge-base embeddings per disease. Stored texts
// are immutable after load, so their vectors are pure values and re-encoding
// them on every retrieval would only add encoder round trips; the per-query
// embedding is still computed fresh each call.
type vectorCache struct {
	mu sync.RWMutex
	m  map[string]diseaseVectors
}

func newVectorCache() *vectorCache {
	return &vectorCache{m: make(map[string]diseaseVectors)}
}

func (c *vectorCache) get(ctx context.Context, disease string, entry knowledge.DiseaseEntry, embedder Embedder) (diseaseVectors, error) {
	c.mu.RLock()
	vecs, ok := c.m[disease]
	c.mu.RUnlock()
	if ok {
		return vecs, nil
	}

	texts := make([]string, 0, 2*len(entry.QAPairs))
	for _, qa := range entry.QAPairs {
		texts = append(texts, qa.Question)
	}
	for _, qa := range entry.QAPairs {
		texts = append(texts, qa.Answer)
	}
	embedded, err := embedder.Embed(ctx, texts)
	if err != nil {
		return diseaseVectors{}, err
	}
	n := len(entry.QAPairs)
	vecs = diseaseVectors{questions: embedded[:n], answers: embedded[n:]}

	c.mu.Lock()
	// A concurrent turn may have filled the slot; either result is identical.
	if prior, ok := c.m[disease]; ok {
		vecs = prior
	} else {
		c.m[disease] = vecs
	}
	c.mu.Unlock()
	return vecs, nil
}
