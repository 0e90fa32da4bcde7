package core

import (
	"encoding/json"
	"fmt"
)

// Catalog lists the wells to observe. Each well names its registered state
// variables and either a spec blob key or an explicit list of observed variables.
type Catalog struct {
	Wells []WellEntry `json:"wells"`
}

// WellEntry describes one well in the catalog.
type WellEntry struct {
	Name      string   `json:"name"`
	Variables []string `json:"variables"`
	Spec      string   `json:"spec,omitempty"`
	Observe   []string `json:"observe,omitempty"`
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Wells))
	for i, w := range c.Wells {
		if w.Name == "" {
			return Catalog{}, fmt.Errorf("catalog well %d: name required", i)
		}
		if _, dup := seen[w.Name]; dup {
			return Catalog{}, fmt.Errorf("catalog well %s: duplicate entry", w.Name)
		}
		seen[w.Name] = struct{}{}
		if w.Spec != "" && len(w.Observe) > 0 {
			return Catalog{}, fmt.Errorf("catalog well %s: spec and observe are exclusive", w.Name)
		}
	}
	return c, nil
}
