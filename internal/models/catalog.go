// internal/models/catalog.go
package models

import "sort"

// DefaultFallbackLocation is used when no snapshot entry can be offered.
const DefaultFallbackLocation = "first-floor-berry"

// Catalog is the closed, immutable set of known locations.
type Catalog struct {
	profiles []LocationProfile
	index    map[string]int
}

// NewCatalog indexes profiles by id. Later duplicates are ignored.
func NewCatalog(profiles []LocationProfile) *Catalog {
	c := &Catalog{
		profiles: make([]LocationProfile, 0, len(profiles)),
		index:    make(map[string]int, len(profiles)),
	}
	for _, p := range profiles {
		if _, dup := c.index[p.ID]; dup {
			continue
		}
		p.Amenities = append([]string(nil), p.Amenities...)
		c.index[p.ID] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}
	return c
}

// Has reports whether id is a catalog key.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Get returns a copy of the profile for id.
func (c *Catalog) Get(id string) (LocationProfile, bool) {
	i, ok := c.index[id]
	if !ok {
		return LocationProfile{}, false
	}
	p := c.profiles[i]
	p.Amenities = append([]string(nil), p.Amenities...)
	return p, true
}

// IDs returns the ids in declaration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.profiles))
	for i, p := range c.profiles {
		ids[i] = p.ID
	}
	return ids
}

// SortedIDs returns the ids in lexicographic order.
func (c *Catalog) SortedIDs() []string {
	ids := c.IDs()
	sort.Strings(ids)
	return ids
}

// Profiles returns copies of all profiles in declaration order.
func (c *Catalog) Profiles() []LocationProfile {
	out := make([]LocationProfile, len(c.profiles))
	for i, p := range c.profiles {
		p.Amenities = append([]string(nil), p.Amenities...)
		out[i] = p
	}
	return out
}

// Len returns the number of locations.
func (c *Catalog) Len() int {
	return len(c.profiles)
}

// ByID returns the catalog keyed by id, the shape shown to the model.
func (c *Catalog) ByID() map[string]LocationProfile {
	out := make(map[string]LocationProfile, len(c.profiles))
	for _, p := range c.Profiles() {
		out[p.ID] = p
	}
	return out
}

var defaultCatalog = NewCatalog([]LocationProfile{
	{ID: "first-floor-berry", Name: "First Floor Berry", Vibe: "social, bustling", BestFor: "group work", Amenities: []string{"printers", "cafe"}},
	{ID: "second-floor-berry", Name: "Second Floor Berry", Vibe: "moderate activity", BestFor: "flexible studying", Amenities: []string{"outlets", "windows", "monitors"}},
	{ID: "third-floor-berry", Name: "Third Floor Berry", Vibe: "quieter", BestFor: "focus work", Amenities: []string{"study rooms"}},
	{ID: "fourth-floor-berry", Name: "Fourth Floor Berry", Vibe: "silent", BestFor: "deep concentration", Amenities: []string{"carrels"}},
	{ID: "sanborn", Name: "Sanborn Library", Vibe: "traditional", BestFor: "reading", Amenities: []string{"comfortable seating"}},
	{ID: "novack", Name: "Novack Cafe", Vibe: "social hub", BestFor: "casual study", Amenities: []string{"cafe", "collaboration"}},
	{ID: "blobby", Name: "The Blobby", Vibe: "modern, bright", BestFor: "creative work", Amenities: []string{"natural light", "cafe"}},
	{ID: "1902-room", Name: "1902 Room", Vibe: "formal", BestFor: "focused study", Amenities: []string{"reserved seating"}},
	{ID: "1913-room", Name: "1913 Room", Vibe: "quiet", BestFor: "individual work", Amenities: []string{"study desks"}},
	{ID: "tower-room", Name: "Tower Room", Vibe: "scenic, quiet", BestFor: "concentration", Amenities: []string{"views"}},
	{ID: "orozco-mural-rooms", Name: "Orozco Mural Rooms", Vibe: "artistic", BestFor: "inspiration", Amenities: []string{"murals", "unique space"}},
	{ID: "stacks", Name: "The Stacks", Vibe: "silent, traditional", BestFor: "deep focus", Amenities: []string{"carrels", "books"}},
})

// DefaultCatalog returns the twelve campus study locations.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}
