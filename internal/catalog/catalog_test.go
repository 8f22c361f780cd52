package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func defaultCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	return c
}

func TestLookup_GenericCode(t *testing.T) {
	c := defaultCatalog(t)

	desc := c.Lookup("13.01", "")
	if desc.Severity != SeverityMedium {
		t.Errorf("severity = %q, want %q", desc.Severity, SeverityMedium)
	}
	if desc.Category != CategoryPaper {
		t.Errorf("category = %q, want %q", desc.Category, CategoryPaper)
	}
	if !strings.Contains(desc.Description, "Paper jam") {
		t.Errorf("description = %q, want paper jam description", desc.Description)
	}
}

func TestLookup_VendorTablePrecedence(t *testing.T) {
	c := defaultCatalog(t)

	// 49.4C02 exists only in the HP table; the hint is a model string,
	// not an exact vendor name.
	desc := c.Lookup("49.4C02", "HP LaserJet Pro M404dn")
	if desc.Severity != SeverityCritical {
		t.Errorf("severity = %q, want %q", desc.Severity, SeverityCritical)
	}
	if desc.Category != CategorySystem {
		t.Errorf("category = %q, want %q", desc.Category, CategorySystem)
	}
}

func TestLookup_VendorMissFallsBackToGeneric(t *testing.T) {
	c := defaultCatalog(t)

	// 13.01 is not in the HP vendor table but is generic.
	desc := c.Lookup("13.01", "HP OfficeJet")
	if desc.Category != CategoryPaper {
		t.Errorf("category = %q, want %q", desc.Category, CategoryPaper)
	}
}

func TestLookup_UnknownCode(t *testing.T) {
	c := defaultCatalog(t)

	desc := c.Lookup("99.99.99", "Epson WF-3820")
	if desc.Description != "Unknown error code: 99.99.99" {
		t.Errorf("description = %q", desc.Description)
	}
	if desc.Severity != SeverityMedium {
		t.Errorf("severity = %q, want %q", desc.Severity, SeverityMedium)
	}
	if desc.Category != CategorySystem {
		t.Errorf("category = %q, want %q", desc.Category, CategorySystem)
	}
	if desc.Code != "99.99.99" {
		t.Errorf("code = %q, want queried code", desc.Code)
	}
}

func TestSeverityRank_Ordering(t *testing.T) {
	ordered := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("Rank(%s) >= Rank(%s), want strictly increasing", ordered[i-1], ordered[i])
		}
	}
	if Severity("bogus").Rank() >= SeverityLow.Rank() {
		t.Error("unknown severity should rank below low")
	}
}

func TestLoadFile(t *testing.T) {
	content := `
generic:
  "X1":
    description: "Test fault"
    severity: high
    category: network
`
	path := filepath.Join(t.TempDir(), "codes.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing catalog file: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	desc := c.Lookup("X1", "")
	if desc.Severity != SeverityHigh || desc.Category != CategoryNetwork {
		t.Errorf("Lookup(X1) = %+v, want high/network", desc)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/codes.yaml"); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}
}
