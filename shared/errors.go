package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryConfiguration  ErrorCategory = "configuration"
	ErrorCategoryNetwork        ErrorCategory = "network"
	ErrorCategoryDatabase       ErrorCategory = "database"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryProcessing     ErrorCategory = "processing"
	ErrorCategoryTimeout        ErrorCategory = "timeout"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
)

// Error codes raised by the sync pipeline.
const (
	CodeFetchFailed           = "FETCH_FAILED"
	CodeBadStatus             = "BAD_STATUS"
	CodeTableNotFound         = "TABLE_NOT_FOUND"
	CodeRowSkipped            = "ROW_SKIPPED"
	CodeMandatoryFieldMissing = "MANDATORY_FIELD_MISSING"
	CodeSinkUpsertFailed      = "SINK_UPSERT_FAILED"
	CodeSinkInsertFailed      = "SINK_INSERT_FAILED"
	CodeSinkReadFailed        = "SINK_READ_FAILED"
	CodeSinkUnavailable       = "SINK_UNAVAILABLE"
	CodeConfigMissing         = "CONFIG_MISSING"
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Details     interface{}   `json:"details,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// IsRetryable returns whether the error is retryable
func (e *ServiceError) IsRetryable() bool {
	return e.Retryable
}

// Fields renders the error as structured log fields.
func (e *ServiceError) Fields() logrus.Fields {
	fields := logrus.Fields{
		"error_category": e.Category,
		"error_code":     e.Code,
		"service_name":   e.ServiceName,
		"operation":      e.Operation,
		"retryable":      e.Retryable,
	}
	if e.Details != nil {
		fields["details"] = e.Details
	}
	if e.Cause != nil {
		fields["underlying_error"] = e.Cause.Error()
	}
	return fields
}

// LogError logs the error at error level with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(e.Fields()).Error(e.Message)
}

// LogWarning logs the error at warn level. Fetch failures and dropped records
// are recovered locally and only warrant a warning.
func (e *ServiceError) LogWarning() {
	logrus.WithFields(e.Fields()).Warn(e.Message)
}

// CodeOf returns the code of the first ServiceError in err's chain.
func CodeOf(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return ""
}

// SkipCounter aggregates skipped units by reason so a run can report how much
// it discarded instead of suppressing failures silently.
type SkipCounter map[string]int

// Add records one skip under reason.
func (c SkipCounter) Add(reason string) {
	c[reason]++
}

// Merge folds other into c.
func (c SkipCounter) Merge(other SkipCounter) {
	for reason, count := range other {
		c[reason] += count
	}
}

// Total returns the number of skips across all reasons.
func (c SkipCounter) Total() int {
	total := 0
	for _, count := range c {
		total += count
	}
	return total
}

// String renders the counter with reasons in sorted order.
func (c SkipCounter) String() string {
	reasons := make([]string, 0, len(c))
	for reason := range c {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, c[reason]))
	}
	return strings.Join(parts, ", ")
}

// BuildBatchProcessingErrorSummary creates a comprehensive error summary for batch processing results
func BuildBatchProcessingErrorSummary(successCount, totalErrorCount int, sampleErrors []error) string {
	var summaryBuilder strings.Builder
	summaryBuilder.WriteString(fmt.Sprintf("batch processing completed with %d successes and %d failures", successCount, totalErrorCount))

	sampleSize := len(sampleErrors)
	if sampleSize > 3 {
		sampleSize = 3
	}

	for i := 0; i < sampleSize; i++ {
		summaryBuilder.WriteString(fmt.Sprintf("; %s", sampleErrors[i].Error()))
	}

	if totalErrorCount > sampleSize {
		summaryBuilder.WriteString(fmt.Sprintf("; and %d additional errors", totalErrorCount-sampleSize))
	}

	return summaryBuilder.String()
}

// WrapError wraps an existing error with service error context
func WrapError(err error, category ErrorCategory, code, serviceName, operation string, retryable bool) *ServiceError {
	if err == nil {
		return nil
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return NewServiceError(serviceErr.Category, serviceErr.Code, serviceErr.Message, serviceName, operation, serviceErr.Retryable, err)
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, retryable, err)
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.IsRetryable()
	}

	errorMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout", "connection refused", "connection reset",
		"temporary failure", "service unavailable", "too many requests",
		"network", "dns", "socket",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errorMsg, pattern) {
			return true
		}
	}

	return false
}
