package stats

import (
	"encoding/json"
	"time"
)

// JSON projections for the read-only API layer. Each aggregate renders an
// explicit view; nothing here uses reflection over internal state.

// MarshalJSON renders the record as value plus species display name.
func (r *SpeciesRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"value":        r.Value,
		"species_name": r.SpeciesName,
	})
}

type encounterPokemonJSON struct {
	PersonalityValue uint32 `json:"personality_value"`
	SpeciesID        int    `json:"species_id"`
	SpeciesName      string `json:"species_name"`
	IVSum            int    `json:"iv_sum"`
	ShinyValue       int    `json:"shiny_value"`
	IsShiny          bool   `json:"is_shiny"`
	IsAntiShiny      bool   `json:"is_anti_shiny"`
}

type encounterJSON struct {
	EncounterID                int64                `json:"encounter_id"`
	ShinyPhaseID               int64                `json:"shiny_phase_id"`
	MatchingCustomCatchFilters *string              `json:"matching_custom_catch_filters"`
	EncounterTime              string               `json:"encounter_time"`
	Map                        *string              `json:"map"`
	Coordinates                *string              `json:"coordinates"`
	BotMode                    string               `json:"bot_mode"`
	Type                       *EncounterType       `json:"type"`
	Outcome                    *string              `json:"outcome"`
	Pokemon                    encounterPokemonJSON `json:"pokemon"`
}

// MarshalJSON renders the encounter with its derived Pokémon fields.
func (e *Encounter) MarshalJSON() ([]byte, error) {
	var outcome *string
	if e.Outcome != nil {
		s := e.Outcome.String()
		outcome = &s
	}
	return json.Marshal(encounterJSON{
		EncounterID:                e.EncounterID,
		ShinyPhaseID:               e.ShinyPhaseID,
		MatchingCustomCatchFilters: e.MatchingCustomCatchFilters,
		EncounterTime:              e.EncounterTime.UTC().Format(time.RFC3339),
		Map:                        e.Map,
		Coordinates:                e.Coordinates,
		BotMode:                    e.BotMode,
		Type:                       e.Type,
		Outcome:                    outcome,
		Pokemon: encounterPokemonJSON{
			PersonalityValue: e.PersonalityValue(),
			SpeciesID:        e.SpeciesID(),
			SpeciesName:      e.SpeciesName,
			IVSum:            e.IVSum(),
			ShinyValue:       e.ShinyValue(),
			IsShiny:          e.IsShiny(),
			IsAntiShiny:      e.Pokemon.IsAntiShiny(),
		},
	})
}

type encounterSummaryJSON struct {
	SpeciesID         int    `json:"species_id"`
	SpeciesName       string `json:"species_name"`
	TotalEncounters   int    `json:"total_encounters"`
	ShinyEncounters   int    `json:"shiny_encounters"`
	Catches           int    `json:"catches"`
	TotalHighestIVSum int    `json:"total_highest_iv_sum"`
	TotalLowestIVSum  int    `json:"total_lowest_iv_sum"`
	TotalHighestSV    int    `json:"total_highest_sv"`
	TotalLowestSV     int    `json:"total_lowest_sv"`
	PhaseEncounters   int    `json:"phase_encounters"`
	PhaseHighestIVSum *int   `json:"phase_highest_iv_sum"`
	PhaseLowestIVSum  *int   `json:"phase_lowest_iv_sum"`
	PhaseHighestSV    *int   `json:"phase_highest_sv"`
	PhaseLowestSV     *int   `json:"phase_lowest_sv"`
	LastEncounterTime string `json:"last_encounter_time"`
}

// MarshalJSON renders the summary with the plain species index (forms are
// distinguished by the species name suffix).
func (s *EncounterSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(encounterSummaryJSON{
		SpeciesID:         s.Species.Index,
		SpeciesName:       s.SpeciesName,
		TotalEncounters:   s.TotalEncounters,
		ShinyEncounters:   s.ShinyEncounters,
		Catches:           s.Catches,
		TotalHighestIVSum: s.TotalHighestIVSum,
		TotalLowestIVSum:  s.TotalLowestIVSum,
		TotalHighestSV:    s.TotalHighestSV,
		TotalLowestSV:     s.TotalLowestSV,
		PhaseEncounters:   s.PhaseEncounters,
		PhaseHighestIVSum: s.PhaseHighestIVSum,
		PhaseLowestIVSum:  s.PhaseLowestIVSum,
		PhaseHighestSV:    s.PhaseHighestSV,
		PhaseLowestSV:     s.PhaseLowestSV,
		LastEncounterTime: s.LastEncounterTime.UTC().Format(time.RFC3339),
	})
}

type shinyPhaseJSON struct {
	Phase          map[string]any `json:"phase"`
	Snapshot       map[string]any `json:"snapshot"`
	ShinyEncounter *Encounter     `json:"shiny_encounter"`
}

// MarshalJSON renders the phase, its close-time snapshot and the terminating
// encounter.
func (p *ShinyPhase) MarshalJSON() ([]byte, error) {
	var endTime *string
	if p.EndTime != nil {
		s := p.EndTime.UTC().Format(time.RFC3339)
		endTime = &s
	}
	return json.Marshal(shinyPhaseJSON{
		Phase: map[string]any{
			"shiny_phase_id":                      p.ShinyPhaseID,
			"start_time":                          p.StartTime.UTC().Format(time.RFC3339),
			"end_time":                            endTime,
			"encounters":                          p.Encounters,
			"anti_shiny_encounters":               p.AntiShinyEncounters,
			"highest_iv_sum":                      p.HighestIVSum,
			"lowest_iv_sum":                       p.LowestIVSum,
			"highest_sv":                          p.HighestSV,
			"lowest_sv":                           p.LowestSV,
			"longest_streak":                      p.LongestStreak,
			"current_streak":                      p.CurrentStreak,
			"fishing_attempts":                    p.FishingAttempts,
			"successful_fishing_attempts":         p.SuccessfulFishingAttempts,
			"longest_unsuccessful_fishing_streak": p.LongestUnsuccessfulFishingStreak,
			"current_unsuccessful_fishing_streak": p.CurrentUnsuccessfulFishingStreak,
			"pokenav_calls":                       p.PokenavCalls,
		},
		Snapshot: map[string]any{
			"total_encounters":         p.SnapshotTotalEncounters,
			"total_shiny_encounters":   p.SnapshotTotalShinyEncounters,
			"species_encounters":       p.SnapshotSpeciesEncounters,
			"species_shiny_encounters": p.SnapshotSpeciesShinyEncounters,
		},
		ShinyEncounter: p.ShinyEncounter,
	})
}

// MarshalJSON renders totals with their record holders.
func (t *EncounterTotals) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"total_encounters":     t.TotalEncounters,
		"shiny_encounters":     t.ShinyEncounters,
		"catches":              t.Catches,
		"total_highest_iv_sum": t.TotalHighestIVSum,
		"total_lowest_iv_sum":  t.TotalLowestIVSum,
		"total_highest_sv":     t.TotalHighestSV,
		"total_lowest_sv":      t.TotalLowestSV,
		"phase_encounters":     t.PhaseEncounters,
		"phase_highest_iv_sum": t.PhaseHighestIVSum,
		"phase_lowest_iv_sum":  t.PhaseLowestIVSum,
		"phase_highest_sv":     t.PhaseHighestSV,
		"phase_lowest_sv":      t.PhaseLowestSV,
	})
}

func phaseExtremeJSON(p *ShinyPhase) map[string]any {
	var speciesName *string
	if p.ShinyEncounter != nil {
		speciesName = &p.ShinyEncounter.SpeciesName
	}
	return map[string]any{
		"value":        p.Encounters,
		"species_name": speciesName,
	}
}

// MarshalJSON renders the full global stats view: per-species summaries,
// totals, the current phase and the shortest/longest closed phases.
func (g *GlobalStats) MarshalJSON() ([]byte, error) {
	bySpecies := make(map[string]*EncounterSummary, len(g.EncounterSummaries))
	for _, s := range g.EncounterSummaries {
		bySpecies[s.SpeciesName] = s
	}

	current := g.CurrentShinyPhase
	if current == nil {
		current = NewShinyPhase(0, time.Now().UTC())
	}
	longest := g.LongestShinyPhase
	if longest == nil {
		longest = current
	}
	shortest := g.ShortestShinyPhase
	if shortest == nil {
		shortest = current
	}

	pickups := make(map[string]int, len(g.PickupItems))
	for _, item := range g.PickupItems {
		pickups[item.ItemName] = item.TimesPickedUp
	}

	return json.Marshal(map[string]any{
		"pokemon":        bySpecies,
		"totals":         g.Totals(),
		"current_phase":  current,
		"longest_phase":  phaseExtremeJSON(longest),
		"shortest_phase": phaseExtremeJSON(shortest),
		"pickup_items":   pickups,
	})
}
