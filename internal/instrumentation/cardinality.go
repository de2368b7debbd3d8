package instrumentation

import "strconv"

// PriorityLabel maps a priority score to a bounded label set: "1" to "5",
// everything else "invalid".
func PriorityLabel(p int) string {
	if p < 1 || p > 5 {
		return "invalid"
	}
	return strconv.Itoa(p)
}

// StatusClass reduces an HTTP status code to its class ("2xx", "4xx").
// Codes outside 100-599 map to "error".
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return StatusError
	}
	return strconv.Itoa(code/100) + "xx"
}

// Operation names used for API metrics and spans.
const (
	OperationList        = "list"
	OperationGet         = "get"
	OperationCreateDraft = "create_draft"
	OperationCreateIssue = "create_issue"
	OperationGetReadme   = "get_readme"
	OperationGetProfile  = "get_profile"
	OperationComplete    = "complete"
)
