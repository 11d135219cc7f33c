package moods

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultUnclear is the category name used when intent cannot be determined.
const DefaultUnclear = "Unclear"

//go:embed moods.yaml
var defaultTable []byte

// Archetype is a canned suggestion attached to a mood category.
type Archetype struct {
	Title       string `json:"title" yaml:"title"`
	Product     string `json:"product" yaml:"product"`
	Description string `json:"description" yaml:"description"`
}

// Category is a named mood bucket with its ordered archetypes.
type Category struct {
	Name       string      `json:"name" yaml:"name"`
	Archetypes []Archetype `json:"archetypes" yaml:"archetypes"`
}

// Table is an immutable category lookup. Accessors return copies.
type Table struct {
	version    string
	unclear    string
	categories []Category
	byName     map[string]int
}

type tableDoc struct {
	Version    string     `yaml:"version"`
	Unclear    string     `yaml:"unclear"`
	Categories []Category `yaml:"categories"`
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Parse(defaultTable)
})

// Default returns the embedded table, parsed once per process. It panics only
// if the embedded data is corrupt.
func Default() *Table {
	t, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("moods: embedded table invalid: %v", err))
	}
	return t
}

// Parse loads a table from YAML and validates it.
func Parse(raw []byte) (*Table, error) {
	var doc tableDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse mood table: %w", err)
	}
	return New(doc.Version, doc.Unclear, doc.Categories)
}

// New builds a table. The unclear category must be present.
func New(version, unclear string, categories []Category) (*Table, error) {
	if strings.TrimSpace(unclear) == "" {
		unclear = DefaultUnclear
	}
	if len(categories) == 0 {
		return nil, errors.New("mood table has no categories")
	}
	t := &Table{
		version:    strings.TrimSpace(version),
		unclear:    unclear,
		categories: make([]Category, 0, len(categories)),
		byName:     make(map[string]int, len(categories)),
	}
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, errors.New("mood table has a category without a name")
		}
		key := strings.ToLower(name)
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("mood table has duplicate category %q", name)
		}
		t.byName[key] = len(t.categories)
		t.categories = append(t.categories, Category{Name: name, Archetypes: copyArchetypes(c.Archetypes)})
	}
	if _, ok := t.byName[strings.ToLower(unclear)]; !ok {
		return nil, fmt.Errorf("mood table is missing the %q category", unclear)
	}
	return t, nil
}

// Version identifies the table revision.
func (t *Table) Version() string { return t.version }

// Len returns the number of categories.
func (t *Table) Len() int { return len(t.categories) }

// Names returns category names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.categories))
	for i, c := range t.categories {
		out[i] = c.Name
	}
	return out
}

// Categories returns a copy of every category.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Archetypes: copyArchetypes(c.Archetypes)}
	}
	return out
}

// Lookup finds a category by case-insensitive name.
func (t *Table) Lookup(name string) (Category, bool) {
	idx, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Category{}, false
	}
	c := t.categories[idx]
	return Category{Name: c.Name, Archetypes: copyArchetypes(c.Archetypes)}, true
}

// At returns the category at a 1-based position.
func (t *Table) At(position int) (Category, bool) {
	if position < 1 || position > len(t.categories) {
		return Category{}, false
	}
	c := t.categories[position-1]
	return Category{Name: c.Name, Archetypes: copyArchetypes(c.Archetypes)}, true
}

// Unclear returns the designated fallback category.
func (t *Table) Unclear() Category {
	c, _ := t.Lookup(t.unclear)
	return c
}

func copyArchetypes(in []Archetype) []Archetype {
	if in == nil {
		return []Archetype{}
	}
	return append([]Archetype(nil), in...)
}
