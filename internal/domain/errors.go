package domain

import "errors"

var (
	// ErrModelNotLoaded signals that no model artifact was loaded at startup.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrInference signals a pipeline failure while predicting.
	ErrInference = errors.New("inference failed")
	// ErrValidation signals a malformed request.
	ErrValidation = errors.New("validation failed")
	// ErrShapeMismatch signals indicator matrices of different shapes.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrLabelMismatch signals a model whose outputs do not line up with the label set.
	ErrLabelMismatch = errors.New("label mismatch")
	// ErrArtifactNotFound signals a missing artifact name, version or alias.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// InferenceError wraps a pipeline failure. It matches ErrInference and its cause.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return ErrInference.Error() + ": " + e.Err.Error() }

func (e *InferenceError) Unwrap() []error { return []error{ErrInference, e.Err} }
