package knowledge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ai-derm-assistant/internal/core/faults"
)

func writeKB(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qa.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeKB(t, `{
		"Acne": {
			"description": "A common skin condition.",
			"qa_pairs": [
				{"question": "Is acne contagious?", "answer": "No, acne is not contagious."}
			]
		},
		"Eczema": {
			"description": "An inflammatory skin condition.",
			"qa_pairs": []
		}
	}`)

	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	entry, err := b.Get("Acne")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(entry.QAPairs) != 1 || entry.QAPairs[0].Answer != "No, acne is not contagious." {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if got := b.Diseases(); got[0] != "Acne" || got[1] != "Eczema" {
		t.Errorf("Diseases() = %v", got)
	}
}

func TestLoad_BlankFieldsRejectFile(t *testing.T) {
	cases := map[string]string{
		"blank description": `{"Acne": {"description": "  ", "qa_pairs": []}}`,
		"blank question":    `{"Acne": {"description": "d", "qa_pairs": [{"question": " ", "answer": "a"}]}}`,
		"blank answer":      `{"Acne": {"description": "d", "qa_pairs": [{"question": "q", "answer": ""}]}}`,
		"empty document":    `{}`,
		"invalid json":      `{`,
	}
	for name, doc := range cases {
		_, err := Load(writeKB(t, doc))
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !faults.IsConfiguration(err) {
			t.Errorf("%s: expected configuration error, got %v", name, err)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	path := writeKB(t, `{"Acne": {"description": "d", "qa_pairs": []}}`)
	b, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.Get("Rosacea")
	if !errors.Is(err, ErrDiseaseNotFound) {
		t.Fatalf("expected ErrDiseaseNotFound, got %v", err)
	}
	if b.Has("Rosacea") {
		t.Error("Has(Rosacea) = true")
	}
}
