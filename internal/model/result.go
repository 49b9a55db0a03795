package model

// ResultKind tags a ProcessingResult variant.
type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultWarning ResultKind = "warning"
	ResultError   ResultKind = "error"
	ResultPartial ResultKind = "partial"
)

// ErrorKind classifies pipeline failures. Every failure is recovered at a
// stage boundary and converted into a ProcessingResult carrying one of
// these; no error crosses the interpreter's public boundary.
type ErrorKind string

const (
	ErrLowConfidence       ErrorKind = "low_confidence_intent"
	ErrParameterInvalid    ErrorKind = "parameter_invalid"
	ErrProviderUnavailable ErrorKind = "provider_unavailable"
	ErrProviderCall        ErrorKind = "provider_call_failure"
	ErrResponseParse       ErrorKind = "response_parse_failure"
	ErrExecutorFailure     ErrorKind = "executor_failure"
)

// ProcessingResult is the single outcome type of one interpretation turn.
// Only Success results are cache-eligible.
type ProcessingResult struct {
	Kind       ResultKind   `json:"kind"`
	Message    string       `json:"message"`
	ErrorKind  ErrorKind    `json:"error_kind,omitempty"`
	Command    Command      `json:"command,omitempty"`
	Parameters ParameterMap `json:"parameters,omitempty"`
	Confidence float64      `json:"confidence,omitempty"`
	Cached     bool         `json:"cached,omitempty"`
}

// Success returns a Success result.
func Success(message string) ProcessingResult {
	return ProcessingResult{Kind: ResultSuccess, Message: message}
}

// Warning returns a Warning result. Warnings completed but with caveats;
// they are not cached.
func Warning(message string) ProcessingResult {
	return ProcessingResult{Kind: ResultWarning, Message: message}
}

// Partial returns a Partial result: the backend answered with free text
// instead of executable actions.
func Partial(message string) ProcessingResult {
	return ProcessingResult{Kind: ResultPartial, Message: message}
}

// Error returns an Error result tagged with kind.
func Error(kind ErrorKind, message string) ProcessingResult {
	return ProcessingResult{Kind: ResultError, ErrorKind: kind, Message: message}
}

// IsSuccess reports whether the result is the Success variant.
func (r ProcessingResult) IsSuccess() bool {
	return r.Kind == ResultSuccess
}

// ValidationResult is the outcome of semantic validation.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Valid returns a passing validation result.
func Valid() ValidationResult {
	return ValidationResult{Valid: true}
}

// Invalid returns a failing validation result with a message.
func Invalid(message string) ValidationResult {
	return ValidationResult{Valid: false, Message: message}
}
