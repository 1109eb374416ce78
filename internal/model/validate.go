package model

import (
	"fmt"
	"strings"
)

// Severity levels for validation issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue codes.
const (
	CodeMissingUID    = "MISSING_UID"
	CodeMissingName   = "MISSING_NAME"
	CodeInvalidModel  = "INVALID_MODEL"
	CodeMissingSource = "MISSING_SOURCE"
	CodeMissingTarget = "MISSING_TARGET"
	CodeEmptyModel    = "EMPTY_MODEL"
)

// ValidationIssue is a single validation finding.
type ValidationIssue struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	ElementID string `json:"elementId,omitempty"`
}

// ValidationResult collects errors and advisory warnings. IsValid is false
// whenever Errors is non-empty.
type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// AddError records an error and marks the result invalid.
func (r *ValidationResult) AddError(code, message, elementID string) {
	r.Errors = append(r.Errors, ValidationIssue{Code: code, Message: message, Severity: SeverityError, ElementID: elementID})
	r.IsValid = false
}

// AddWarning records an advisory warning.
func (r *ValidationResult) AddWarning(code, message, elementID string) {
	r.Warnings = append(r.Warnings, ValidationIssue{Code: code, Message: message, Severity: SeverityWarning, ElementID: elementID})
}

// ErrorMessages joins the error messages with sep.
func (r ValidationResult) ErrorMessages(sep string) string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, sep)
}

// WarningMessages returns the warning messages in order.
func (r ValidationResult) WarningMessages() []string {
	msgs := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		msgs = append(msgs, w.Message)
	}
	return msgs
}

// Validate checks the hard rules (uid, name, relationship endpoints) and
// warns about an empty model. Dangling relationship ids are not errors.
func Validate(m *ArchitectureModel) ValidationResult {
	res := ValidationResult{IsValid: true}
	if m == nil {
		res.AddError(CodeInvalidModel, "architecture model is nil", "")
		return res
	}

	if strings.TrimSpace(m.UID) == "" {
		res.AddError(CodeMissingUID, "architecture uid is required", "")
	}
	if strings.TrimSpace(m.Name) == "" {
		res.AddError(CodeMissingName, "architecture name is required", "")
	}

	for i, rel := range m.Relationships {
		if rel.Source.IsZero() {
			res.AddError(CodeMissingSource, fmt.Sprintf("relationship at index %d has no source", i), rel.UID)
		}
		if rel.Target.IsZero() {
			res.AddError(CodeMissingTarget, fmt.Sprintf("relationship at index %d has no target", i), rel.UID)
		}
	}

	if Analyze(m).TotalElements == 0 {
		res.AddWarning(CodeEmptyModel, "architecture contains no elements", "")
	}

	return res
}
