package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity classifies how urgent an error code is.
type Severity string

// Severity levels, ordered from least to most urgent.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordering position of the severity (low < medium < high < critical).
// Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Category classifies the subsystem an error code relates to.
type Category string

// Category taxonomy.
const (
	CategoryPaper            Category = "paper"
	CategoryToner            Category = "toner"
	CategoryMechanical       Category = "mechanical"
	CategoryNetwork          Category = "network"
	CategorySystem           Category = "system"
	CategoryUserIntervention Category = "user_intervention"
)

// Descriptor describes a single vendor error code.
type Descriptor struct {
	Code        string   `yaml:"-" json:"code"`
	Description string   `yaml:"description" json:"description"`
	Severity    Severity `yaml:"severity" json:"severity"`
	Category    Category `yaml:"category" json:"category"`
	Solution    string   `yaml:"solution,omitempty" json:"solution,omitempty"`
}

// Catalog is a read-only lookup table mapping vendor error codes to descriptors.
//
// It holds one table per known vendor plus a vendor-neutral table. Lookups
// never fail: codes absent from every table resolve to an Unknown descriptor.
//
// Thread Safety: the catalog is immutable after construction and safe for
// concurrent reads.
type Catalog struct {
	vendors map[string]map[string]Descriptor
	generic map[string]Descriptor
}

// catalogFile is the YAML shape of a catalog data file.
type catalogFile struct {
	Generic map[string]Descriptor            `yaml:"generic"`
	Vendors map[string]map[string]Descriptor `yaml:"vendors"`
}

//go:embed codes.yaml
var embeddedCodes []byte

// Default returns a Catalog built from the embedded code table.
func Default() (*Catalog, error) {
	return parse(embeddedCodes)
}

// LoadFile returns a Catalog built from an external YAML file.
// Use this when the reference table is maintained outside the binary.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return parse(data)
}

// parse builds a Catalog from YAML data.
func parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog data: %w", err)
	}

	c := &Catalog{
		vendors: make(map[string]map[string]Descriptor, len(file.Vendors)),
		generic: make(map[string]Descriptor, len(file.Generic)),
	}

	for code, desc := range file.Generic {
		desc.Code = code
		c.generic[code] = desc
	}

	for vendor, table := range file.Vendors {
		normalized := strings.ToLower(vendor)
		c.vendors[normalized] = make(map[string]Descriptor, len(table))
		for code, desc := range table {
			desc.Code = code
			c.vendors[normalized][code] = desc
		}
	}

	return c, nil
}

// Vendors returns the names of all vendor-specific tables.
func (c *Catalog) Vendors() []string {
	names := make([]string, 0, len(c.vendors))
	for name := range c.vendors {
		names = append(names, name)
	}
	return names
}

// Lookup resolves an error code to its descriptor.
//
// Resolution order:
//  1. The vendor table matching vendorHint (case-insensitive substring
//     match against known vendor names), exact code match
//  2. The vendor-neutral table, exact code match
//  3. An Unknown descriptor (severity medium, category system)
//
// Parameters:
//   - code: The vendor error code token (e.g., "13.01")
//   - vendorHint: Free-form vendor/model text, may be empty
//
// Returns:
//   - Descriptor: Never zero; the Unknown fallback carries the queried code
func (c *Catalog) Lookup(code, vendorHint string) Descriptor {
	if vendorHint != "" {
		hint := strings.ToLower(vendorHint)
		for vendor, table := range c.vendors {
			if !strings.Contains(hint, vendor) {
				continue
			}
			if desc, ok := table[code]; ok {
				return desc
			}
		}
	}

	if desc, ok := c.generic[code]; ok {
		return desc
	}

	return Unknown(code)
}

// Unknown returns the fallback descriptor for a code absent from every table.
func Unknown(code string) Descriptor {
	return Descriptor{
		Code:        code,
		Description: fmt.Sprintf("Unknown error code: %s", code),
		Severity:    SeverityMedium,
		Category:    CategorySystem,
	}
}
