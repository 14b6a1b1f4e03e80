package llm

import (
	"context"
	"fmt"
	"strings"
)

const reformulateSystemPrompt = "You are a helpful medical assistant.\n" +
	"The patient has been diagnosed with **%s**.\n" +
	"Your task is to rewrite the user's medical question in a clearer, more formal way, using professional medical language if appropriate.\n" +
	"Respond ONLY with the rewritten question. Do NOT explain, rephrase, or add any extra text. Write only ONE sentence."

// Reformulate rewrites a raw user question into a single clinically phrased
// sentence conditioned on the diagnosed disease. Downstream retrieval and
// prompt assembly assume exactly one clean sentence, so any surplus model
// output is trimmed here.
func (c *Client) Reformulate(ctx context.Context, rawQuestion, disease string) (string, error) {
	messages := []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(reformulateSystemPrompt, disease)},
		{Role: RoleUser, Content: rawQuestion},
	}
	text, err := c.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return FirstSentence(text), nil
}

// FirstSentence reduces model output to one sentence: it drops surrounding
// quotes and blank lines, takes the first non-empty line, and cuts at the
// first sentence terminator while keeping it.
func FirstSentence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'")
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "\"'"))
		if line == "" {
			continue
		}
		for i := 0; i < len(line); i++ {
			c := line[i]
			if c != '.' && c != '?' && c != '!' {
				continue
			}
			// Terminator inside a number ("0.5 cm") is not a sentence end.
			if i+1 == len(line) || line[i+1] == ' ' || line[i+1] == '\t' {
				return line[:i+1]
			}
		}
		return line
	}
	return s
}
