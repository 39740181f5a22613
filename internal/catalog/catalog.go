// Package catalog holds the static skill catalog and the pure functions that
// derive views from it: filtered listings, category lists and the top
// providers ranking.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"github.com/iliyamo/skillswap/internal/model"
)

//go:embed data/skills.json data/events.json
var bundled embed.FS

const (
	skillsFile = "skills.json"
	eventsFile = "events.json"
)

// Catalog is the immutable set of offerings and events loaded at startup.
// Accessors return copies so callers cannot mutate the shared slices.
type Catalog struct {
	offerings  []model.SkillOffering
	events     []model.Event
	categories []string
}

// New validates offerings and builds a Catalog.  Ids must be unique, price
// and rating non-negative and slotsAvailable at least zero.
func New(offerings []model.SkillOffering, events []model.Event) (*Catalog, error) {
	seen := make(map[int]struct{}, len(offerings))
	for _, o := range offerings {
		if _, dup := seen[o.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate skill id %d", ErrInvalidFixture, o.ID)
		}
		seen[o.ID] = struct{}{}
		if o.Price < 0 || o.Rating < 0 {
			return nil, fmt.Errorf("%w: skill %d has negative price or rating", ErrInvalidFixture, o.ID)
		}
		if o.SlotsAvailable < 0 {
			return nil, fmt.Errorf("%w: skill %d has negative slots", ErrInvalidFixture, o.ID)
		}
	}
	c := &Catalog{
		offerings: append([]model.SkillOffering(nil), offerings...),
		events:    append([]model.Event(nil), events...),
	}
	c.categories = DeriveCategories(c.offerings)
	return c, nil
}

// Load reads skills.json and events.json from dir.  An empty dir loads the
// fixtures compiled into the binary.
func Load(dir string) (*Catalog, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(bundled, "data")
		if err != nil {
			return nil, err
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}
	var offerings []model.SkillOffering
	if err := readJSON(fsys, skillsFile, &offerings); err != nil {
		return nil, err
	}
	var events []model.Event
	if err := readJSON(fsys, eventsFile, &events); err != nil {
		return nil, err
	}
	return New(offerings, events)
}

func readJSON(fsys fs.FS, name string, dst any) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidFixture, name, err)
	}
	return nil
}

// Offerings returns every offering in fixture order.
func (c *Catalog) Offerings() []model.SkillOffering {
	return append([]model.SkillOffering(nil), c.offerings...)
}

// Events returns every event in fixture order.
func (c *Catalog) Events() []model.Event {
	return append([]model.Event(nil), c.events...)
}

// Categories returns "All" followed by the catalog's distinct categories.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Filter applies FilterCatalog to the loaded offerings.
func (c *Catalog) Filter(query, category string) []model.SkillOffering {
	return FilterCatalog(c.offerings, query, category)
}

// TopProviders applies TopProviders to the loaded offerings.
func (c *Catalog) TopProviders(n int) []model.ProviderSummary {
	return TopProviders(c.offerings, n)
}

// FindByID applies FindByID to the loaded offerings.
func (c *Catalog) FindByID(id string) (model.SkillOffering, error) {
	return FindByID(c.offerings, id)
}

// Len reports the number of offerings.
func (c *Catalog) Len() int { return len(c.offerings) }
