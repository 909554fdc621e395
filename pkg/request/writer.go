package request

import "net/http"

// ClientWriter wraps a http.ResponseWriter and records the status code
// written to it, for request metrics.
type ClientWriter struct {
	http.ResponseWriter

	// status is the status code written to the client.
	status int
}

// NewClientWriter creates a new ClientWriter.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
	}
}

// WriteHeader records the status code and forwards it to the client.
func (w *ClientWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// StatusCode returns the status code written to the client. A handler that
// never calls WriteHeader implicitly wrote 200.
func (w *ClientWriter) StatusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
