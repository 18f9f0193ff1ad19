// Package probe issues single HTTP GET requests against configured
// targets and classifies the outcomes.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UserAgent is the fixed User-Agent header for every probe request.
// The main package overrides it with the build version.
var UserAgent = "pingsvc keep-alive ping"

// RedirectMax is how many redirects one probe follows before giving up.
const RedirectMax = 10

var (
	// ErrRedirectLoopDetected reports a redirect chain longer than redirectMax.
	ErrRedirectLoopDetected = errors.New("redirect loop detected")

	httpClient = &http.Client{
		Transport: &http.Transport{
			DisableKeepAlives:     true,
			ResponseHeaderTimeout: 10 * time.Minute,
		},
		CheckRedirect: checkRedirect,
	}
)

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > RedirectMax {
		return ErrRedirectLoopDetected
	}
	return nil
}

// Outcome is the result of one probe of one target.
//
// Exactly one of StatusCode and Reason is set: a response yields a status
// code even when it is unacceptable, and Reason is only used when no
// usable status code was obtained.
type Outcome struct {
	// Target is the literal configured endpoint address.
	Target string

	// Display is the privacy-masked representation of Target, set by the
	// cycle runner. Reporting surfaces use this, never Target.
	Display string

	// Time is when the request was dispatched.
	Time time.Time

	// Succeeded reports whether a response arrived before the timeout
	// with a status code in [200, 400).
	Succeeded bool

	// StatusCode is the response status code, or 0 when no usable
	// response was obtained.
	StatusCode int

	// Latency is the wall-clock time from dispatch to outcome
	// determination. It is populated on failures too.
	Latency time.Duration

	// Reason describes why no status code was obtained.
	Reason string
}

// IsAcceptableStatus reports whether a status code counts as success.
// The boundary is 400, not 300: redirects and other 3xx responses mean
// the service is alive, which is all a keep-alive ping asks.
func IsAcceptableStatus(code int) bool {
	return 200 <= code && code < 400
}

// Prober probes targets over HTTP with a fixed timeout.
type Prober struct {
	Timeout time.Duration
}

// New creates a Prober with the given request timeout.
func New(timeout time.Duration) *Prober {
	return &Prober{Timeout: timeout}
}

// Probe sends one GET request to the target and classifies the result.
//
// Probe never returns an error: every failure mode becomes a failed
// Outcome. It blocks until the outcome is determined, at most Timeout.
func (p *Prober) Probe(ctx context.Context, target string) Outcome {
	st := time.Now()

	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return Outcome{
			Target:  target,
			Time:    st,
			Latency: time.Since(st),
			Reason:  invalidURLReason(target, err),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Outcome{
			Target:  target,
			Time:    st,
			Latency: time.Since(st),
			Reason:  invalidURLReason(target, err),
		}
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := httpClient.Do(req)
	d := time.Since(st)

	o := Outcome{
		Target:  target,
		Time:    st,
		Latency: d,
	}

	if err != nil {
		o.Reason = failureReason(ctx, err)
		return o
	}

	// Drain so the connection is reusable and the peer sees a clean close.
	// The body content never affects classification.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	o.StatusCode = resp.StatusCode
	o.Succeeded = IsAcceptableStatus(resp.StatusCode)

	return o
}

func invalidURLReason(target string, err error) string {
	if err != nil {
		return fmt.Sprintf("invalid URL: %s", err)
	}
	return fmt.Sprintf("invalid URL: %q", target)
}

// failureReason normalizes a transport error into the Reason string.
// Timeout and shutdown take precedence over whatever error the transport
// wrapped them in.
func failureReason(ctx context.Context, err error) string {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return "Request timeout"
	case context.Canceled:
		return "probe aborted"
	}

	msg := err.Error()

	dnsErr := &net.DNSError{}
	opErr := &net.OpError{}

	if errors.As(err, &dnsErr) {
		msg = dnsErrorToMessage(dnsErr)
	} else if errors.As(err, &opErr) && opErr.Op == "dial" {
		msg = fmt.Sprintf("%s: connection refused", opErr.Addr)
	} else if errors.Is(err, ErrRedirectLoopDetected) {
		msg = ErrRedirectLoopDetected.Error()
	} else if uerr := (*url.Error)(nil); errors.As(err, &uerr) {
		msg = strings.TrimPrefix(msg, fmt.Sprintf("%s %q: ", uerr.Op, uerr.URL))
	}

	return msg
}

func dnsErrorToMessage(err *net.DNSError) string {
	msg := err.Error()
	if err.IsNotFound {
		msg = "lookup " + err.Name + ": not found"
	}
	if err.Server != "" {
		msg += " on " + err.Server
	}
	return msg
}
