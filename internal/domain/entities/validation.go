package entities

// Stable error codes returned to callers as data
const (
	CodeMissingField          = "MISSING_FIELD"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInvalidDetail         = "INVALID_DETAIL"
	CodeBillingSessionClosed  = "BILLING_SESSION_CLOSED"
	CodeMemberNotFound        = "MEMBER_NOT_FOUND"
	CodeSchemeNotFound        = "SCHEME_NOT_FOUND"
	CodeSchemeTerminated      = "SCHEME_TERMINATED"
	CodeWaitingPeriod         = "WAITING_PERIOD"
	CodeDuplicateClaim        = "DUPLICATE_CLAIM"
	CodeDuplicateInvoice      = "DUPLICATE_INVOICE"
	CodeHospitalNotFound      = "HOSPITAL_NOT_FOUND"
	CodeServiceNotAvailable   = "SERVICE_NOT_AVAILABLE"
	CodePriceExceeded         = "PRICE_EXCEEDED"
	CodeClaimNotFound         = "CLAIM_NOT_FOUND"
	CodeAlreadyApproved       = "ALREADY_APPROVED"
	CodeAlreadyRejected       = "ALREADY_REJECTED"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeClaimNotApproved      = "CLAIM_NOT_APPROVED"
	CodeInvalidPaymentAmount  = "INVALID_PAYMENT_AMOUNT"
	CodePaymentExceedsBenefit = "PAYMENT_EXCEEDS_BENEFIT"
	CodeReasonRequired        = "REASON_REQUIRED"
	CodeSessionNotFound       = "SESSION_NOT_FOUND"
	CodeSessionAlreadyClosed  = "SESSION_ALREADY_CLOSED"
	CodeSessionOverlap        = "SESSION_OVERLAP"
	CodeInvalidSessionDates   = "INVALID_SESSION_DATES"
	CodeSessionNotOpen        = "SESSION_NOT_OPEN"
)

// ValidationResult is the outcome of a single check
type ValidationResult struct {
	IsValid   bool   `json:"is_valid"`
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Field     string `json:"field,omitempty"`
}

// Valid returns a passing result
func Valid() ValidationResult {
	return ValidationResult{IsValid: true}
}

// Invalid returns a failing result
func Invalid(code, message string) ValidationResult {
	return ValidationResult{IsValid: false, ErrorCode: code, Message: message}
}

// FieldError returns a failing result tied to an input field
func FieldError(field, code, message string) ValidationResult {
	return ValidationResult{IsValid: false, ErrorCode: code, Message: message, Field: field}
}

// Failures filters results down to the failing ones
func Failures(results []ValidationResult) []ValidationResult {
	var failed []ValidationResult
	for _, r := range results {
		if !r.IsValid {
			failed = append(failed, r)
		}
	}
	return failed
}

// HasCode reports whether any result carries the given error code
func HasCode(results []ValidationResult, code string) bool {
	for _, r := range results {
		if r.ErrorCode == code {
			return true
		}
	}
	return false
}
