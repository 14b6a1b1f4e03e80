// Package vocab derives the fixed disease label vocabulary from the training
// dataset layout: one subdirectory per class under the labels directory.
package vocab

import (
	"os"
	"sort"

	"ai-derm-assistant/internal/core/faults"
)

// Distinguished labels. LabelNormal is the no-abnormality class emitted by
// the classifier; SentinelClassificationError is the frozen value a
// conversation keeps after a failed classification. Both values match the
// strings persisted alongside chats.
const (
	LabelNormal                 = "Normal_Image"
	SentinelClassificationError = "Error in image classification"
)

// Vocabulary is an ordered, index-stable list of unique disease names. The
// index order doubles as the classifier output space and as the deterministic
// tie-break for top-k ranking.
type Vocabulary []string

// Load reads class names from the subdirectories of dir, sorted lexically.
func Load(dir string) (Vocabulary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, faults.Config("vocab", "cannot read labels directory "+dir, err)
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() {
			labels = append(labels, e.Name())
		}
	}
	if len(labels) == 0 {
		return nil, faults.Config("vocab", "no class folders found in "+dir, nil)
	}
	sort.Strings(labels)
	return Vocabulary(labels), nil
}

// Index returns the position of label, or -1 when absent.
func (v Vocabulary) Index(label string) int {
	for i, l := range v {
		if l == label {
			return i
		}
	}
	return -1
}

// Contains reports whether label is part of the vocabulary.
func (v Vocabulary) Contains(label string) bool { return v.Index(label) >= 0 }
