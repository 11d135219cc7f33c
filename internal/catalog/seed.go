package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed/dev_catalog.yaml
var devCatalog []byte

// DevSeed returns the embedded development catalog.
func DevSeed() ([]Vendor, error) {
	return ParseSeed(devCatalog)
}

// ParseSeed decodes a YAML catalog and rejects duplicate ids and invalid locations.
func ParseSeed(raw []byte) ([]Vendor, error) {
	var doc struct {
		Vendors []Vendor `yaml:"vendors"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	seen := make(map[int64]bool, len(doc.Vendors))
	for _, v := range doc.Vendors {
		if seen[v.ID] {
			return nil, fmt.Errorf("parse catalog seed: duplicate vendor id %d", v.ID)
		}
		seen[v.ID] = true
		if v.Location != nil && !v.Location.Valid() {
			return nil, fmt.Errorf("parse catalog seed: vendor %d has invalid location", v.ID)
		}
	}
	return doc.Vendors, nil
}
