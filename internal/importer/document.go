package importer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/catalog"
)

// Document is the on-disk catalog exchange format: one JSON file holding
// part descriptors and the fitments linking them to engines.
type Document struct {
	SchemaVersion int                 `json:"schema_version"`
	Parts         []PartDescriptor    `json:"parts"`
	Fitments      []FitmentDescriptor `json:"fitments,omitempty"`
}

// PartDescriptor is one part entry in a catalog document.
type PartDescriptor struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Image       string            `json:"image,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CrossRefs   []string          `json:"cross_refs,omitempty"`
}

// FitmentDescriptor links a part in the same document to an engine.
type FitmentDescriptor struct {
	EngineID string `json:"engine_id"`
	PartID   string `json:"part_id"`
	Position string `json:"position,omitempty"`
}

// Validate checks the document before any of it is written. Fitments
// must reference parts declared in the same document.
func (d *Document) Validate() error {
	ids := make(map[string]bool, len(d.Parts))
	for i, p := range d.Parts {
		if p.ID == "" {
			return fmt.Errorf("part %d: missing id", i)
		}
		if p.Name == "" {
			return fmt.Errorf("part %q: missing name", p.ID)
		}
		if ids[p.ID] {
			return fmt.Errorf("part %q: duplicate id", p.ID)
		}
		ids[p.ID] = true
	}
	for i, f := range d.Fitments {
		if f.EngineID == "" {
			return fmt.Errorf("fitment %d: missing engine_id", i)
		}
		if !ids[f.PartID] {
			return fmt.Errorf("fitment %d: unknown part %q", i, f.PartID)
		}
	}
	return nil
}

// Part converts a descriptor to the catalog representation.
func (p *PartDescriptor) Part() *catalog.Part {
	return &catalog.Part{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		ImageRef:    p.Image,
		Attributes:  p.Attributes,
		CrossRefs:   p.CrossRefs,
	}
}

// loadDocument reads, parses, and validates one catalog file.
func loadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &doc, nil
}
