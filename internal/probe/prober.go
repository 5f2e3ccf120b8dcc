package probe

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const maxBodyRead = 1 << 20 // 1MB

// Prober issues bounded HTTP probes against one base URL. Outbound volume is
// capped with a client-side limiter so suite runs stay polite against the
// live system.
type Prober struct {
	BaseURL string
	Token   string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
}

func NewProber(baseURL, token, apiKey string, timeout time.Duration, rps float64, burst int) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var lim *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Prober{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
		Limiter: lim,
	}
}

// Do executes one probe. Transport failures, timeouts and limiter waits that
// outlive the context come back as errors; any completed exchange, whatever
// the status, comes back as an Observation.
func (p *Prober) Do(ctx context.Context, r Request) (*Observation, error) {
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	u := p.BaseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "build request %s %s", method, r.Path)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if len(r.Body) > 0 && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.NoAuth {
		if p.Token != "" {
			req.Header.Set("Authorization", "Bearer "+p.Token)
		} else if p.APIKey != "" {
			req.Header.Set("X-API-Key", p.APIKey)
		}
	}

	start := time.Now()
	resp, err := p.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, r.Path)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))
	if err != nil {
		return nil, errors.Wrapf(err, "read body %s %s", method, r.Path)
	}

	return &Observation{
		Status:    resp.StatusCode,
		Header:    resp.Header,
		Body:      payload,
		LatencyMS: latency,
	}, nil
}

// WaitReady polls the given path until any exchange completes or the deadline
// passes. This is the only retry loop in the suite: live checks themselves
// are never retried, but a run should not start against a target that is
// still coming up.
func (p *Prober) WaitReady(ctx context.Context, path string, deadline time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	backoff := 250 * time.Millisecond
	var last error
	for {
		if _, err := p.Do(ctx, Request{Path: path, NoAuth: true}); err == nil {
			return nil
		} else {
			last = err
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(last, "target not ready")
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}
