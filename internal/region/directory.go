package region

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FallbackGroupID is the ticketing-backend group holding tickets and agents
// with no determinable region. It never maps back to a region.
const FallbackGroupID = 1

// Supported region identifiers. The set is closed; anything else falls back
// to the fallback group.
const (
	NorthAmerica = "north-america"
	SouthAmerica = "south-america"
	EuropeZone1  = "europe-zone-1"
	EuropeZone2  = "europe-zone-2"
	AsiaPacific  = "asia-pacific"
	MiddleEast   = "middle-east"
	Africa       = "africa"
	Oceania      = "oceania"
)

// All returns the supported regions in their canonical order.
func All() []string {
	return []string{
		NorthAmerica,
		SouthAmerica,
		EuropeZone1,
		EuropeZone2,
		AsiaPacific,
		MiddleEast,
		Africa,
		Oceania,
	}
}

// DefaultGroups is the out-of-the-box region to group mapping.
func DefaultGroups() map[string]int {
	out := map[string]int{}
	for i, r := range All() {
		out[r] = FallbackGroupID + 1 + i
	}
	return out
}

// Directory is the immutable region/group mapping, built once at start-up.
// Region to group is total (unconfigured regions land in the fallback
// group); group to region is partial (the fallback group has no inverse).
type Directory struct {
	fallback      int
	groupByRegion map[string]int
	regionByGroup map[int]string
}

// NewDirectory builds a directory from a region to group table. Entries
// pointing at the fallback group are kept forward-only: the group never
// resolves back to a region.
func NewDirectory(groups map[string]int, fallbackGroupID int) *Directory {
	d := &Directory{
		fallback:      fallbackGroupID,
		groupByRegion: make(map[string]int, len(groups)),
		regionByGroup: make(map[int]string, len(groups)),
	}
	for r, g := range groups {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || g <= 0 {
			continue
		}
		d.groupByRegion[r] = g
		if g != fallbackGroupID {
			d.regionByGroup[g] = r
		}
	}
	return d
}

// FallbackGroup returns the fallback group id.
func (d *Directory) FallbackGroup() int {
	return d.fallback
}

// GroupForRegion returns the group id serving a region. Unknown regions map
// to the fallback group.
func (d *Directory) GroupForRegion(region string) int {
	if g, ok := d.groupByRegion[strings.ToLower(strings.TrimSpace(region))]; ok {
		return g
	}
	return d.fallback
}

// RegionForGroup returns the region served by a group and whether one is
// configured. The fallback group, non-positive ids, and unconfigured ids
// resolve to nothing.
func (d *Directory) RegionForGroup(groupID int) (string, bool) {
	if groupID <= 0 || groupID == d.fallback {
		return "", false
	}
	r, ok := d.regionByGroup[groupID]
	return r, ok
}

// Regions returns the configured regions sorted by name.
func (d *Directory) Regions() []string {
	out := make([]string, 0, len(d.groupByRegion))
	for r := range d.groupByRegion {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// ParseGroupOverrides parses a "region=groupid,region=groupid" override
// string, as accepted from configuration. An empty string yields the
// default table.
func ParseGroupOverrides(raw string) (map[string]int, error) {
	groups := DefaultGroups()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return groups, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid region mapping %q", pair)
		}
		id, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid group id in mapping %q", pair)
		}
		groups[strings.ToLower(strings.TrimSpace(name))] = id
	}
	return groups, nil
}
