package probe

import (
	"net/http"
	"net/url"
)

// Request describes a single outbound probe against the portal. Path is
// relative to the prober's base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	NoAuth bool // leave credentials off (for auth-enforcement checks)
}

// Observation is what a completed probe saw. A probe that never completed
// produces an error instead, never a zero-status Observation.
type Observation struct {
	Status    int
	Header    http.Header
	Body      []byte
	LatencyMS float64
}

// JSONContentType reports whether the response declared a JSON body.
func (o *Observation) JSONContentType() bool {
	ct := o.Header.Get("Content-Type")
	return ct == "application/json" || len(ct) > 16 && ct[:16] == "application/json"
}
