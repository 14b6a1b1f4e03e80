// Package knowledge loads the static per-disease corpus: a description plus
// example question/answer pairs. The base is validated eagerly at load time
// and is immutable afterwards, so concurrent reads need no locking.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"ai-derm-assistant/internal/core/faults"
)

// ErrDiseaseNotFound is the designed outcome for a disease that has no entry
// in the knowledge base. It is not a fault and must not be logged as one.
var ErrDiseaseNotFound = errors.New("disease not found in knowledge base")

// QAPair is one stored question/answer example for a disease.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DiseaseEntry is the knowledge attached to one disease name.
type DiseaseEntry struct {
	Description string   `json:"description"`
	QAPairs     []QAPair `json:"qa_pairs"`
}

// Base is the read-only knowledge base keyed by disease name.
type Base struct {
	entries map[string]DiseaseEntry
}

// Load parses and validates the knowledge base JSON document. Malformed
// entries reject the whole file; failing lazily at retrieval time is not
// acceptable.
func Load(path string) (*Base, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.Config("knowledge", "cannot read knowledge base "+path, err)
	}
	var entries map[string]DiseaseEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, faults.Config("knowledge", "invalid knowledge base JSON", err)
	}
	if len(entries) == 0 {
		return nil, faults.Config("knowledge", "knowledge base is empty", nil)
	}
	for disease, entry := range entries {
		if strings.TrimSpace(entry.Description) == "" {
			return nil, faults.Config("knowledge", fmt.Sprintf("entry %q has no description", disease), nil)
		}
		for i, qa := range entry.QAPairs {
			if strings.TrimSpace(qa.Question) == "" || strings.TrimSpace(qa.Answer) == "" {
				return nil, faults.Config("knowledge", fmt.Sprintf("entry %q has blank qa_pair at index %d", disease, i), nil)
			}
		}
	}
	return &Base{entries: entries}, nil
}

// Get returns the entry for disease, or ErrDiseaseNotFound.
func (b *Base) Get(disease string) (DiseaseEntry, error) {
	entry, ok := b.entries[disease]
	if !ok {
		return DiseaseEntry{}, ErrDiseaseNotFound
	}
	return entry, nil
}

// Has reports whether disease has an entry.
func (b *Base) Has(disease string) bool {
	_, ok := b.entries[disease]
	return ok
}

// Len returns the number of disease entries.
func (b *Base) Len() int { return len(b.entries) }

// Diseases returns the disease names in sorted order.
func (b *Base) Diseases() []string {
	out := make([]string, 0, len(b.entries))
	for d := range b.entries {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
