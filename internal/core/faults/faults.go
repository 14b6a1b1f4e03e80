// Package faults defines the error taxonomy shared by the diagnostic
// pipeline: configuration errors are fatal at startup, inference errors are
// recoverable per turn. Not-found outcomes are not faults and live with the
// component that owns them (see knowledge.ErrDiseaseNotFound).
package faults

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an invalid or missing startup resource
// (vocabulary, knowledge base, model weights). It must prevent the process
// from serving any turn.
type ConfigurationError struct {
	Component string
	Msg       string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Component, e.Msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Config builds a ConfigurationError for the given component.
func Config(component, msg string, err error) *ConfigurationError {
	return &ConfigurationError{Component: component, Msg: msg, Err: err}
}

// InferenceError reports a backend failure at call time: image decoding,
// classifier inference, the embedding encoder or the chat model.
type InferenceError struct {
	Backend string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s inference failed: %v", e.Backend, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// Inference wraps err as an InferenceError for the given backend.
func Inference(backend string, err error) *InferenceError {
	return &InferenceError{Backend: backend, Err: err}
}

// IsInference reports whether err is (or wraps) an InferenceError.
func IsInference(err error) bool {
	var ie *InferenceError
	return errors.As(err, &ie)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
