package dto

// ErrorResponse represents an error returned for requests that never reached the ledger
type ErrorResponse struct {
	Code    int               `json:"code"`
	Kind    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
