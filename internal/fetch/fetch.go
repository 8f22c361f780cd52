package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrStatusNotFound reports that every candidate endpoint was tried and
// none yielded a usable body. This is a normal outcome for devices with
// no readable status page, not a fault.
var ErrStatusNotFound = errors.New("fetch: no endpoint returned a status payload")

// maxBodySize caps how much of a status page is read. Printer pages are
// small; anything past this is junk.
const maxBodySize = 1 << 20

// Logger is the minimal logging surface the fetcher needs.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// vendor pairs a vendor name fragment with the status endpoints its
// devices are known to serve, in the order they should be tried.
type vendor struct {
	name  string
	paths []string
}

// vendors is matched against the device model string by case-insensitive
// substring. Declaration order doubles as the iteration order when no
// vendor matches and every path is tried.
var vendors = []vendor{
	{name: "hp", paths: []string{
		"/DevMgmt/ProductStatusDyn.xml",
		"/hp/device/status",
		"/hp/device/InternalPages/Index?id=DeviceStatus",
	}},
	{name: "epson", paths: []string{
		"/PRESENTATION/HTML/TOP/PRTINFO.HTML",
		"/cgi-bin/ewpstate.cgi",
	}},
	{name: "canon", paths: []string{
		"/status/index.html",
		"/_common/information.html",
	}},
	{name: "brother", paths: []string{
		"/general/status.html",
		"/etc/mnt_info.csv",
	}},
	{name: "lexmark", paths: []string{
		"/cgi-bin/dynamic/printer/PrinterStatus.html",
		"/webglue/rawcontent?c=Status",
	}},
}

// genericPaths are tried after any vendor-specific list.
var genericPaths = []string{
	"/api/status",
	"/status",
	"/printer/status",
	"/",
}

// Result is a successfully fetched status payload.
type Result struct {
	Payload     []byte
	ContentType string
	Endpoint    string
}

// Fetcher retrieves raw status payloads from a device's embedded web
// server. It knows nothing about payload shapes; it only finds the
// first endpoint that answers with content.
type Fetcher struct {
	client *http.Client
	log    Logger
}

// New creates a Fetcher whose individual requests are bounded by
// timeout. A zero or negative timeout falls back to five seconds.
func New(timeout time.Duration, log Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// FetchStatus walks the candidate endpoint list for the device and
// returns the first 2xx response that carried a body. The candidate
// list is vendor-specific when the model string names a known vendor,
// otherwise every known path is tried; the generic paths always close
// the list. Transport failures at one endpoint are swallowed and the
// walk continues.
//
// Parameters:
//   - ctx: bounds the whole walk.
//   - address: device host, host:port, or URL-ish string.
//   - model: vendor/model string used to pick the endpoint list.
//
// Returns:
//   - *Result: payload, declared content type, and the endpoint used.
//   - error: ErrStatusNotFound when the list is exhausted.
func (f *Fetcher) FetchStatus(ctx context.Context, address, model string) (*Result, error) {
	base := baseURL(address)
	for _, path := range CandidatePaths(model) {
		if ctx.Err() != nil {
			return nil, ErrStatusNotFound
		}
		res, err := f.fetchOne(ctx, base+path)
		if err != nil {
			f.log.Debug("endpoint miss", "url", base+path, "error", err)
			continue
		}
		f.log.Debug("endpoint hit", "url", base+path, "content_type", res.ContentType, "bytes", len(res.Payload))
		return res, nil
	}
	return nil, ErrStatusNotFound
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("fetch: empty body")
	}
	return &Result{
		Payload:     body,
		ContentType: resp.Header.Get("Content-Type"),
		Endpoint:    url,
	}, nil
}

// CandidatePaths returns the ordered endpoint list for a model string.
// A model naming a known vendor gets that vendor's paths first; an
// unrecognised model gets every vendor's paths in declaration order.
// The generic paths are always appended last.
func CandidatePaths(model string) []string {
	needle := strings.ToLower(model)
	for _, v := range vendors {
		if strings.Contains(needle, v.name) {
			return append(append([]string{}, v.paths...), genericPaths...)
		}
	}
	var paths []string
	for _, v := range vendors {
		paths = append(paths, v.paths...)
	}
	return append(paths, genericPaths...)
}

// baseURL reduces the caller-supplied address to a scheme-qualified
// host, preserving any explicit port and dropping any path.
func baseURL(address string) string {
	s := strings.TrimSpace(address)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return "http://" + s
}
