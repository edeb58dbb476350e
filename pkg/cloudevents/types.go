package cloudevents

import (
	"time"
)

// Source constants for event sources
const (
	SourcePosting = "/accounting/posting-service"
)

// Extension attribute names carried on posting events
const (
	ExtCorrelationID = "acctcorrelationid"
	ExtDocumentID    = "acctdocumentid"
	ExtTraceParent   = "traceparent"
)

// CloudEvent represents a CloudEvents v1.0 compliant event
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	CorrelationID string `json:"acctcorrelationid,omitempty"`
	DocumentID    string `json:"acctdocumentid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
}

// Headers returns the binary-mode ce-* headers for the event
func (e *CloudEvent) Headers() map[string]string {
	headers := map[string]string{
		"ce-specversion": e.SpecVersion,
		"ce-type":        e.Type,
		"ce-source":      e.Source,
		"ce-id":          e.ID,
		"ce-time":        e.Time.Format(time.RFC3339),
		"content-type":   e.DataContentType,
	}
	if e.CorrelationID != "" {
		headers["ce-"+ExtCorrelationID] = e.CorrelationID
	}
	if e.DocumentID != "" {
		headers["ce-"+ExtDocumentID] = e.DocumentID
	}
	if e.TraceParent != "" {
		headers["ce-"+ExtTraceParent] = e.TraceParent
	}
	return headers
}
