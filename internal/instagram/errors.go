package instagram

import "fmt"

// UpstreamError is a non-success response from the Graph API. Callers catch
// it at the send site and record the failure; it never crashes a handler.
type UpstreamError struct {
	StatusCode int
	Code       int
	Subcode    int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph api error (HTTP %d, code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph api error (HTTP %d)", e.StatusCode)
}

// MalformedPayloadError means a locally constructed template message
// violates the required shape. It indicates a programming bug, not an
// external fault, and is not swallowed.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return "malformed template payload: " + e.Reason
}
