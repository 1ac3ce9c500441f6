package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrNoGoal          = errors.New("no goal set")
	ErrInvalidGoal     = errors.New("goal is empty")
	ErrPlanning        = errors.New("planning failed")
	ErrUnsupportedTool = errors.New("tool not implemented")
	ErrPersistence     = errors.New("persistence failed")
	ErrRunNotFound     = errors.New("run not found")
)
