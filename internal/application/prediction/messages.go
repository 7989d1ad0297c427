package prediction

import (
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// Client-facing failure messages. Every request boundary (HTTP, CLI, batch
// worker) reports failures with these strings.
const (
	MessageModelNotLoaded   = "Model not loaded"
	MessageInvalidStructure = "Invalid SMILES string. Please check the molecule structure."
	messagePredictionPrefix = "Prediction error: "
)

// ErrorMessage renders err for a response body.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeModelNotLoaded:
		return MessageModelNotLoaded
	case errors.ErrCodeInvalidStructure:
		return MessageInvalidStructure
	}
	var ae *errors.AppError
	if errors.As(err, &ae) && ae.Detail != "" {
		return messagePredictionPrefix + ae.Message + ": " + ae.Detail
	}
	if ae != nil {
		return messagePredictionPrefix + ae.Message
	}
	return messagePredictionPrefix + err.Error()
}

// ErrorCode returns the code reported alongside ErrorMessage.
func ErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	return errors.GetCode(err)
}

//Personal.AI order the ending
