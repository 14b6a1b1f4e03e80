package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigurationError(t *testing.T) {
	cause := errors.New("no such file")
	err := Config("vocab", "cannot read labels directory", cause)

	if !IsConfiguration(err) {
		t.Error("IsConfiguration = false")
	}
	if IsInference(err) {
		t.Error("IsInference = true for a configuration error")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}
	if got := err.Error(); got != "vocab: cannot read labels directory: no such file" {
		t.Errorf("Error() = %q", got)
	}
	if got := Config("kb", "empty", nil).Error(); got != "kb: empty" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestInferenceError(t *testing.T) {
	cause := errors.New("connection refused")
	err := Inference("encoder", cause)

	if !IsInference(err) {
		t.Error("IsInference = false")
	}
	if IsConfiguration(err) {
		t.Error("IsConfiguration = true for an inference error")
	}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}

	wrapped := fmt.Errorf("turn failed: %w", err)
	if !IsInference(wrapped) {
		t.Error("IsInference must see through wrapping")
	}
}
