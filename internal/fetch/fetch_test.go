package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingServer serves configured paths and records the order in which
// paths were requested.
type recordingServer struct {
	mu        sync.Mutex
	requested []string
	responses map[string]response
	srv       *httptest.Server
}

type response struct {
	status      int
	body        string
	contentType string
}

func newRecordingServer(responses map[string]response) *recordingServer {
	rs := &recordingServer{responses: responses}
	rs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}
		rs.mu.Lock()
		rs.requested = append(rs.requested, path)
		rs.mu.Unlock()

		resp, ok := rs.responses[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if resp.contentType != "" {
			w.Header().Set("Content-Type", resp.contentType)
		}
		w.WriteHeader(resp.status)
		w.Write([]byte(resp.body))
	}))
	return rs
}

func (rs *recordingServer) addr() string {
	return strings.TrimPrefix(rs.srv.URL, "http://")
}

func (rs *recordingServer) paths() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string{}, rs.requested...)
}

func TestFetchStatus_FirstSuccessWins(t *testing.T) {
	rs := newRecordingServer(map[string]response{
		"/DevMgmt/ProductStatusDyn.xml": {status: 200, body: "<status>ready</status>", contentType: "text/xml"},
		"/hp/device/status":             {status: 200, body: "should not be reached"},
	})
	defer rs.srv.Close()

	f := New(time.Second, nil)
	res, err := f.FetchStatus(context.Background(), rs.addr(), "HP LaserJet Pro M404dn")
	if err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}
	if res.ContentType != "text/xml" {
		t.Errorf("ContentType = %q, want %q", res.ContentType, "text/xml")
	}
	if string(res.Payload) != "<status>ready</status>" {
		t.Errorf("Payload = %q", res.Payload)
	}
	if got := rs.paths(); len(got) != 1 || got[0] != "/DevMgmt/ProductStatusDyn.xml" {
		t.Errorf("requested paths = %v, want exactly the first vendor endpoint", got)
	}
}

func TestFetchStatus_VendorOrderBeforeGeneric(t *testing.T) {
	// Only the last generic path answers; every HP path must have been
	// tried first, in declared order.
	rs := newRecordingServer(map[string]response{
		"/": {status: 200, body: "Printer is ready", contentType: "text/html"},
	})
	defer rs.srv.Close()

	f := New(time.Second, nil)
	if _, err := f.FetchStatus(context.Background(), rs.addr(), "hp officejet"); err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}

	want := CandidatePaths("hp officejet")
	got := rs.paths()
	if len(got) != len(want) {
		t.Fatalf("requested %d paths, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("request %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFetchStatus_SkipsFailuresAndEmptyBodies(t *testing.T) {
	rs := newRecordingServer(map[string]response{
		"/DevMgmt/ProductStatusDyn.xml": {status: 500, body: "boom"},
		"/hp/device/status":             {status: 200, body: ""},
		"/hp/device/InternalPages/Index?id=DeviceStatus": {status: 200, body: "Ready", contentType: "text/plain"},
	})
	defer rs.srv.Close()

	f := New(time.Second, nil)
	res, err := f.FetchStatus(context.Background(), rs.addr(), "HP LaserJet")
	if err != nil {
		t.Fatalf("FetchStatus() error = %v", err)
	}
	if string(res.Payload) != "Ready" {
		t.Errorf("Payload = %q, want %q", res.Payload, "Ready")
	}
}

func TestFetchStatus_Exhausted(t *testing.T) {
	rs := newRecordingServer(nil)
	defer rs.srv.Close()

	f := New(time.Second, nil)
	_, err := f.FetchStatus(context.Background(), rs.addr(), "brother hl-l2350")
	if !errors.Is(err, ErrStatusNotFound) {
		t.Errorf("error = %v, want ErrStatusNotFound", err)
	}
}

func TestFetchStatus_CancelledContext(t *testing.T) {
	rs := newRecordingServer(nil)
	defer rs.srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(time.Second, nil)
	_, err := f.FetchStatus(ctx, rs.addr(), "canon pixma")
	if !errors.Is(err, ErrStatusNotFound) {
		t.Errorf("error = %v, want ErrStatusNotFound", err)
	}
	if got := rs.paths(); len(got) != 0 {
		t.Errorf("requested paths = %v, want none after cancellation", got)
	}
}

func TestCandidatePaths(t *testing.T) {
	t.Run("known vendor is case-insensitive", func(t *testing.T) {
		got := CandidatePaths("EPSON WorkForce Pro")
		if got[0] != "/PRESENTATION/HTML/TOP/PRTINFO.HTML" {
			t.Errorf("first path = %q, want epson endpoint", got[0])
		}
		if got[len(got)-1] != "/" {
			t.Errorf("last path = %q, want generic root", got[len(got)-1])
		}
	})

	t.Run("unknown vendor gets every path", func(t *testing.T) {
		got := CandidatePaths("Some Unbranded Device")
		var vendorTotal int
		for _, v := range vendors {
			vendorTotal += len(v.paths)
		}
		if len(got) != vendorTotal+len(genericPaths) {
			t.Errorf("len = %d, want %d", len(got), vendorTotal+len(genericPaths))
		}
	})
}
