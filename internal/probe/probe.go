package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Default ports tried when the device address does not carry one.
const (
	portHTTP = "80"   // embedded web server
	portRaw  = "9100" // raw print / JetDirect
	portIPP  = "631"  // IPP
)

// Logger is the minimal logging surface the prober needs. The zero value
// of Prober logs nowhere.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Prober answers the single question "did anything at this address
// respond". Printers expose no agreed status API, so reachability is
// approximated by breadth: an ordered list of techniques is tried and
// the first positive signal of any kind wins, including an HTTP error
// response, because a protocol-level error still proves the host
// answered.
type Prober struct {
	timeout time.Duration
	client  *http.Client
	dialer  *net.Dialer
	log     Logger
}

// New creates a Prober whose individual techniques are each bounded by
// timeout. A zero or negative timeout falls back to three seconds.
//
// Parameters:
//   - timeout: per-technique deadline.
//   - log: destination for per-technique debug output, may be nil.
//
// Returns:
//   - *Prober: ready to use, safe for concurrent callers.
func New(timeout time.Duration, log Logger) *Prober {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Prober{
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				// A redirect is already a positive signal.
				return http.ErrUseLastResponse
			},
		},
		dialer: &net.Dialer{Timeout: timeout},
		log:    log,
	}
}

// attempt is one probe technique bound to a concrete port.
type attempt struct {
	name string
	port string
	http bool
}

// IsReachable reports whether anything at address answered any probe
// technique. Techniques run in a fixed order and the first positive
// signal returns immediately; false means every technique timed out or
// was refused. Failures are swallowed, never returned.
//
// Parameters:
//   - ctx: bounds the whole probe sequence.
//   - address: host, host:port, or URL-ish string naming the device.
//
// Returns:
//   - bool: true when any technique produced a response.
func (p *Prober) IsReachable(ctx context.Context, address string) bool {
	host, port := splitAddress(address)
	if host == "" {
		return false
	}

	for _, a := range p.attempts(port) {
		if ctx.Err() != nil {
			return false
		}
		var ok bool
		if a.http {
			ok = p.probeHTTP(ctx, host, a.port)
		} else {
			ok = p.probeTCP(ctx, host, a.port)
		}
		p.log.Debug("probe attempt", "technique", a.name, "host", host, "port", a.port, "reachable", ok)
		if ok {
			return true
		}
	}
	return false
}

// attempts builds the ordered technique list. When the address carries
// an explicit port the secondary-port fallbacks are pointless and are
// skipped.
func (p *Prober) attempts(explicitPort string) []attempt {
	if explicitPort != "" {
		return []attempt{
			{name: "tcp", port: explicitPort},
			{name: "http", port: explicitPort, http: true},
		}
	}
	return []attempt{
		{name: "tcp-http", port: portHTTP},
		{name: "http-get", port: portHTTP, http: true},
		{name: "tcp-raw", port: portRaw},
		{name: "tcp-ipp", port: portIPP},
	}
}

// probeTCP counts a completed connection as reachable.
func (p *Prober) probeTCP(ctx context.Context, host, port string) bool {
	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// probeHTTP counts any HTTP response as reachable, whatever the status
// code says.
func (p *Prober) probeHTTP(ctx context.Context, host, port string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/", net.JoinHostPort(host, port))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// splitAddress reduces the caller-supplied address to a bare host and an
// optional explicit port, tolerating scheme prefixes and trailing paths.
func splitAddress(address string) (host, port string) {
	s := strings.TrimSpace(address)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if h, p, err := net.SplitHostPort(s); err == nil {
		return h, p
	}
	return s, ""
}
