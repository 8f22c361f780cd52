package status

import "testing"

func TestClassify_SignalMapping(t *testing.T) {
	tests := []struct {
		name   string
		signal string
		want   Status
	}{
		{"ready", "Ready", Ready},
		{"idle", "Idle", Ready},
		{"printing", "Printing job 4", Printing},
		{"busy", "Busy", Printing},
		{"paper jam", "Paper Jam in tray 2", PaperJam},
		{"paper out", "Paper Out", PaperOut},
		{"paper empty", "paper tray empty", PaperOut},
		{"loading paper", "Loading paper", LoadingPaper},
		{"low toner", "Toner low", LowInk},
		{"low ink", "ink level low", LowInk},
		{"cartridge", "Cartridge not detected", CartridgeIssue},
		{"maintenance", "Maintenance required", MaintenanceRequired},
		{"offline", "Device offline", Offline},
		{"disconnected", "disconnected", Offline},
		{"error", "Error 49.4C02", Error},
		{"fault", "fuser fault", Error},
		{"unknown defaults to ready", "all systems nominal", Ready},
		{"empty defaults to ready", "", Ready},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.signal, nil)
			if got != tt.want {
				t.Errorf("Classify(%q, nil) = %v, want %v", tt.signal, got, tt.want)
			}
		})
	}
}

func TestClassify_SignalPriorityOrder(t *testing.T) {
	// A signal naming both a jam and a generic error resolves to the
	// specific condition.
	if got := Classify("paper jam error", nil); got != PaperJam {
		t.Errorf("Classify(\"paper jam error\") = %v, want %v", got, PaperJam)
	}
	// Ready outranks everything in the signal table.
	if got := Classify("ready (toner low)", nil); got != Ready {
		t.Errorf("Classify(\"ready (toner low)\") = %v, want %v", got, Ready)
	}
}

func TestClassify_AlertOverrides(t *testing.T) {
	tests := []struct {
		name   string
		signal string
		alerts []string
		want   Status
	}{
		{
			name:   "cartridge missing overrides ready",
			signal: "ready",
			alerts: []string{"cartridge missing"},
			want:   CartridgeIssue,
		},
		{
			name:   "cartridge error overrides printing",
			signal: "printing",
			alerts: []string{"Cartridge error: replace black"},
			want:   CartridgeIssue,
		},
		{
			name:   "cartridge alert does not override error",
			signal: "error",
			alerts: []string{"cartridge missing"},
			want:   Error,
		},
		{
			name:   "jam alert overrides everything",
			signal: "error",
			alerts: []string{"Paper jam in duplexer"},
			want:   PaperJam,
		},
		{
			name:   "load paper overrides ready",
			signal: "ready",
			alerts: []string{"Load paper in tray 1"},
			want:   LoadingPaper,
		},
		{
			name:   "load paper does not override printing",
			signal: "printing",
			alerts: []string{"Load paper in tray 1"},
			want:   Printing,
		},
		{
			name:   "first matching alert wins",
			signal: "ready",
			alerts: []string{"cartridge missing", "paper jam"},
			want:   CartridgeIssue,
		},
		{
			name:   "benign alerts leave status alone",
			signal: "ready",
			alerts: []string{"sleep mode in 5 minutes"},
			want:   Ready,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.signal, tt.alerts)
			if got != tt.want {
				t.Errorf("Classify(%q, %v) = %v, want %v", tt.signal, tt.alerts, got, tt.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	signal := "error"
	alerts := []string{"cartridge missing", "paper jam"}
	first := Classify(signal, alerts)
	for i := 0; i < 100; i++ {
		if got := Classify(signal, alerts); got != first {
			t.Fatalf("Classify not deterministic: got %v then %v", first, got)
		}
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range []Status{Ready, Printing, LoadingPaper, PaperJam, PaperOut,
		LowInk, CartridgeIssue, Offline, Error, MaintenanceRequired} {
		if !s.Valid() {
			t.Errorf("Valid() = false for canonical status %q", s)
		}
	}
	if Status("toner_party").Valid() {
		t.Error("Valid() = true for unknown status")
	}
}
