package backend

// HealthResponse is the body of GET / on the backend.
type HealthResponse struct {
	Status string `json:"status"`
}

// OK reports whether the backend declared itself healthy.
func (h HealthResponse) OK() bool {
	return h.Status == "ok"
}

// RequestIDHeader carries the submission ID on query requests.
const RequestIDHeader = "X-Request-ID"
