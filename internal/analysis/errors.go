package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine. Match them with errors.Is; the typed
// errors below carry stage context and still match their sentinel.
var (
	// ErrEmptyInput is returned when a stage receives zero rows or zero columns.
	ErrEmptyInput = errors.New("analysis: empty input")

	// ErrDimensionMismatch is returned when rows of a matrix (or paired
	// sequences) do not share the same length.
	ErrDimensionMismatch = errors.New("analysis: dimension mismatch")

	// ErrUnknownColumn is returned when a referenced column is not part of the dataset.
	ErrUnknownColumn = errors.New("analysis: unknown column")

	// ErrInvalidParameter is returned for out-of-range tuning parameters (k, perplexity, ...).
	ErrInvalidParameter = errors.New("analysis: invalid parameter")

	// ErrInsufficientData is returned when a stage needs more observations than it got.
	ErrInsufficientData = errors.New("analysis: insufficient data")
)

// EmptyInputError reports which stage saw an empty dataset or matrix.
type EmptyInputError struct {
	Stage string
}

func (e *EmptyInputError) Error() string {
	if e.Stage == "" {
		return ErrEmptyInput.Error()
	}
	return fmt.Sprintf("%s: %s", e.Stage, ErrEmptyInput.Error())
}

// Is makes errors.Is(err, ErrEmptyInput) succeed.
func (e *EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }

// DimensionMismatchError reports the first ragged row found by a stage.
type DimensionMismatchError struct {
	Stage string
	Row   int
	Got   int
	Want  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: row %d has %d values, want %d", e.Stage, ErrDimensionMismatch.Error(), e.Row, e.Got, e.Want)
}

// Is makes errors.Is(err, ErrDimensionMismatch) succeed.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

func emptyInput(stage string) error { return &EmptyInputError{Stage: stage} }

func invalidParam(stage, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", stage, ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func insufficient(stage string, need, got int) error {
	return fmt.Errorf("%s: %w: need at least %d observations, got %d", stage, ErrInsufficientData, need, got)
}

// Warning is a non-fatal condition observed during a run.
type Warning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func (w Warning) String() string { return w.Stage + ": " + w.Message }
