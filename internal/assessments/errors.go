package assessments

import "errors"

var ErrAssessmentRequired = errors.New("assessment is required")

const (
	ErrorCodeValidation = "validation_error"
	ErrorCodeAnalysis   = "analysis_failed"
)
