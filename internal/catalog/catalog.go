// Package catalog provides the GPT link catalog favorites refer to.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

//go:embed catalog.json
var defaultCatalog []byte

// Entry is one GPT link.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// Catalog is an immutable, ordered set of entries.
type Catalog struct {
	entries []Entry
	byID    map[string]Entry
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse builds a catalog from a JSON array of entries. Entries must have an
// id and url, and ids must be unique.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	byID := make(map[string]Entry, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.URL == "" {
			return nil, fmt.Errorf("catalog entry %d is missing id or url", i)
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %q", e.ID)
		}
		byID[e.ID] = e
	}
	return &Catalog{entries: entries, byID: byID}, nil
}

// All returns every entry in catalog order.
func (c *Catalog) All() []Entry {
	return slices.Clone(c.entries)
}

// Get looks up an entry by id.
func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	return lo.Uniq(lo.Map(c.entries, func(e Entry, _ int) string { return e.Category }))
}

// ByCategory returns the entries in category.
func (c *Catalog) ByCategory(category string) []Entry {
	return lo.Filter(c.entries, func(e Entry, _ int) bool {
		return strings.EqualFold(e.Category, category)
	})
}

// Search matches query case-insensitively against id, name and description.
func (c *Catalog) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return c.All()
	}
	return lo.Filter(c.entries, func(e Entry, _ int) bool {
		return strings.Contains(strings.ToLower(e.ID), q) ||
			strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q)
	})
}

// Resolve maps ids to entries, keeping unknown ids as entries with only an ID.
func (c *Catalog) Resolve(ids []string) []Entry {
	return lo.Map(ids, func(id string, _ int) Entry {
		if e, ok := c.byID[id]; ok {
			return e
		}
		return Entry{ID: id}
	})
}
