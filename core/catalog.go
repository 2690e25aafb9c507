package core

import "fmt"

// TierCatalog holds the encounters that earn points during a submissions tier.
type TierCatalog struct {
	Tier       Tier
	Extremes   []Encounter
	Unreal     *Encounter
	Savages    []Encounter
	Criterions []Encounter
	// FirstClear maps a current savage to its one-time first clear category.
	FirstClear map[Encounter]PointsCategory
}

var catalogs = map[Tier]func() *TierCatalog{
	"6_4": func() *TierCatalog {
		unreal := EWUnreal5
		return &TierCatalog{
			Tier:       "6_4",
			Extremes:   []Encounter{EWEx7, EWEx6, EWEx5, EWEx4, EWEx3, EWEx2, EWEx1},
			Unreal:     &unreal,
			Savages:    []Encounter{P9S, P10S, P11S, P12SP1, P12S},
			Criterions: []Encounter{EWCrit1, EWCrit2, EWCrit3},
			FirstClear: map[Encounter]PointsCategory{
				P9S:    CategorySavage1,
				P10S:   CategorySavage2,
				P11S:   CategorySavage3,
				P12SP1: CategorySavage4_1,
				P12S:   CategorySavage4_2,
			},
		}
	},
	"7_0": func() *TierCatalog {
		return &TierCatalog{Tier: "7_0", FirstClear: map[Encounter]PointsCategory{}}
	},
}

// CatalogFor returns the catalog of a submissions tier.
func CatalogFor(tier Tier) (*TierCatalog, error) {
	build, ok := catalogs[tier]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnknownTier, tier)
	}
	return build(), nil
}

// KnownTiers lists the configured submissions tiers.
func KnownTiers() []Tier {
	return []Tier{"6_4", "7_0"}
}

// HighEndCategory classifies an encounter as FC high-end content. The
// returned description names the encounter.
func (c *TierCatalog) HighEndCategory(e Encounter) (PointsCategory, string, bool) {
	switch {
	case containsEncounter(c.Extremes, e):
		return CategoryFCExtreme, "FC Extreme: " + e.Name, true
	case c.Unreal != nil && *c.Unreal == e:
		return CategoryFCUnreal, "FC Unreal: " + e.Name, true
	case containsEncounter(c.Savages, e):
		return CategoryFCSavage, "FC Savage: " + e.Name, true
	case containsEncounter(c.Criterions, e):
		return CategoryFCCriterion, "FC Criterion: " + e.Name, true
	case containsEncounter(Ultimates, e):
		return CategoryFCUltimate, "FC Ultimate: " + e.Name, true
	}
	return "", "", false
}

// FirstClearCategory returns the one-time category for a first clear of e.
func (c *TierCatalog) FirstClearCategory(e Encounter) (PointsCategory, bool) {
	cat, ok := c.FirstClear[e]
	return cat, ok
}

// ActiveTrackedEncounters are the encounters whose clears are synced and
// reported on. Extremes are not tracked.
func (c *TierCatalog) ActiveTrackedEncounters() []Encounter {
	return concat(c.Savages, Ultimates)
}

// ActiveTrackedEncounterNames returns the distinct names of the active tracked encounters.
func (c *TierCatalog) ActiveTrackedEncounterNames() []string {
	return EncounterNames(c.ActiveTrackedEncounters())
}
