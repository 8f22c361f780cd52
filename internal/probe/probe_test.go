package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIsReachable_TCPListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	p := New(time.Second, nil)
	if !p.IsReachable(context.Background(), ln.Addr().String()) {
		t.Errorf("IsReachable(%q) = false, want true", ln.Addr().String())
	}
}

func TestIsReachable_HTTPErrorResponseCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	p := New(time.Second, nil)
	if !p.IsReachable(context.Background(), addr) {
		t.Errorf("IsReachable(%q) = false, want true for 500 response", addr)
	}
}

func TestIsReachable_SchemeAndPathTolerated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	p := New(time.Second, nil)
	address := srv.URL + "/hp/device/status"
	if !p.IsReachable(context.Background(), address) {
		t.Errorf("IsReachable(%q) = false, want true", address)
	}
}

func TestIsReachable_NothingListening(t *testing.T) {
	// Bind and immediately close to get a port with nothing behind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	p := New(500*time.Millisecond, nil)
	if p.IsReachable(context.Background(), addr) {
		t.Errorf("IsReachable(%q) = true, want false", addr)
	}
}

func TestIsReachable_EmptyAddress(t *testing.T) {
	p := New(time.Second, nil)
	if p.IsReachable(context.Background(), "") {
		t.Error("IsReachable(\"\") = true, want false")
	}
}

func TestIsReachable_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(time.Second, nil)
	if p.IsReachable(ctx, "127.0.0.1:1") {
		t.Error("IsReachable with cancelled context = true, want false")
	}
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantPort string
	}{
		{"192.168.1.50", "192.168.1.50", ""},
		{"192.168.1.50:9100", "192.168.1.50", "9100"},
		{"http://192.168.1.50/status", "192.168.1.50", ""},
		{"http://printer.local:8080/", "printer.local", "8080"},
		{" printer.local ", "printer.local", ""},
	}

	for _, tt := range tests {
		host, port := splitAddress(tt.in)
		if host != tt.wantHost || port != tt.wantPort {
			t.Errorf("splitAddress(%q) = (%q, %q), want (%q, %q)",
				tt.in, host, port, tt.wantHost, tt.wantPort)
		}
	}
}
