package domain

import "time"

// Route names the processor a landed file is dispatched to.
type Route string

const (
	RouteVision       Route = "vision"
	RouteDocReader    Route = "doc_reader"
	RoutePDFConverter Route = "pdf_converter"
	RouteUnsupported  Route = "unsupported"
)

// FileEvent is the queue message announcing a file in object storage.
// One event per invocation; the worker owns it from there.
type FileEvent struct {
	Bucket        string    `json:"bucket"`
	Key           string    `json:"key"`
	FileExtension string    `json:"file_extension"`
	Route         Route     `json:"routing_decision,omitempty"`
	QueuedAt      time.Time `json:"queued_at"`
}
