package main

import (
	"fmt"
	"os"

	"ai-derm-assistant/config"
	"ai-derm-assistant/internal/core/knowledge"
	"ai-derm-assistant/internal/core/vocab"
)

// Offline asset check: loads the configuration, the label vocabulary and the
// knowledge base, and reports which diseases have no knowledge entry. Run it
// after updating the dataset, before deploying the API.
func main() {
	configPath := "config.yml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	if err := config.Init(configPath); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	labels, err := vocab.Load(config.Cfg.Classifier.LabelsDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "labels:", err)
		os.Exit(1)
	}
	fmt.Printf("labels: %d classes\n", len(labels))

	kb, err := knowledge.Load(config.Cfg.Knowledge.Path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "knowledge:", err)
		os.Exit(1)
	}
	fmt.Printf("knowledge: %d diseases\n", kb.Len())

	missing := 0
	for _, label := range labels {
		if label == vocab.LabelNormal {
			continue
		}
		if !kb.Has(label) {
			fmt.Printf("  missing knowledge entry: %s\n", label)
			missing++
		}
	}
	if missing == 0 {
		fmt.Println("every disease label has a knowledge entry")
	}
}
