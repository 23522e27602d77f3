package stats

import (
	"sort"
	"time"

	"github.com/realgarit/shinytrack/internal/pokemon"
)

// BattleOutcome describes how a battle ended. Stored as a small integer.
type BattleOutcome int

const (
	OutcomeWon BattleOutcome = iota + 1
	OutcomeLost
	OutcomeDraw
	OutcomeRanAway
	OutcomeTeleported
	OutcomeCaught
	OutcomeNoSafariBallsLeft
)

// String returns the display name of the outcome.
func (o BattleOutcome) String() string {
	switch o {
	case OutcomeWon:
		return "Won"
	case OutcomeLost:
		return "Lost"
	case OutcomeDraw:
		return "Draw"
	case OutcomeRanAway:
		return "RanAway"
	case OutcomeTeleported:
		return "Teleported"
	case OutcomeCaught:
		return "Caught"
	case OutcomeNoSafariBallsLeft:
		return "NoSafariBallsLeft"
	default:
		return "Unknown"
	}
}

// EncounterType tags how an encounter was triggered. Stored as text.
type EncounterType string

const (
	EncounterTypeWild    EncounterType = "wild"
	EncounterTypeFishing EncounterType = "fishing"
	EncounterTypeStatic  EncounterType = "static"
	EncounterTypeRoamer  EncounterType = "roamer"
	EncounterTypeHatched EncounterType = "hatched"
	EncounterTypeGift    EncounterType = "gift"
)

// FishingResult is the outcome of a single rod cast.
type FishingResult string

const (
	FishingResultEncounter FishingResult = "encounter"
	FishingResultNoBite    FishingResult = "no_bite"
	FishingResultGotAway   FishingResult = "got_away"
)

// FishingRod identifies which rod was used.
type FishingRod string

const (
	FishingRodOld   FishingRod = "Old Rod"
	FishingRodGood  FishingRod = "Good Rod"
	FishingRodSuper FishingRod = "Super Rod"
)

// FishingAttempt is one rod cast and its result.
type FishingAttempt struct {
	Rod    FishingRod    `json:"rod"`
	Result FishingResult `json:"result"`
}

// Encounter is one wild, static or roamer encounter. The raw Pokémon data
// block is the source of truth; species, shininess and IVs are always derived
// from it, never taken from the caller.
type Encounter struct {
	EncounterID                int64
	ShinyPhaseID               int64
	MatchingCustomCatchFilters *string
	EncounterTime              time.Time
	Map                        *string
	Coordinates                *string
	BotMode                    string
	Type                       *EncounterType
	Outcome                    *BattleOutcome
	SpeciesName                string
	Pokemon                    *pokemon.Pokemon
}

// SpeciesID returns the plain species index (no Unown form offset); the log
// store persists this value.
func (e *Encounter) SpeciesID() int { return e.Pokemon.SpeciesIndex() }

// SpeciesKey returns the statistics identity including the Unown form.
func (e *Encounter) SpeciesKey() pokemon.SpeciesKey { return e.Pokemon.SpeciesKey() }

// IsShiny reports whether the encountered Pokémon is shiny.
func (e *Encounter) IsShiny() bool { return e.Pokemon.IsShiny() }

// IVSum returns the sum of the six individual values.
func (e *Encounter) IVSum() int { return e.Pokemon.IVSum() }

// ShinyValue returns the derived shiny value (smaller is closer to shiny).
func (e *Encounter) ShinyValue() int { return e.Pokemon.ShinyValue() }

// PersonalityValue returns the 32-bit personality value.
func (e *Encounter) PersonalityValue() uint32 { return e.Pokemon.PersonalityValue() }

// Data returns the raw Pokémon data block.
func (e *Encounter) Data() []byte { return e.Pokemon.Data() }

// SpeciesRecord is a record-holder entry: a value plus the species (and
// form) that achieved it.
type SpeciesRecord struct {
	Value       int
	Species     pokemon.SpeciesKey
	SpeciesName string
}

func recordFor(value int, e *Encounter) *SpeciesRecord {
	return &SpeciesRecord{Value: value, Species: e.SpeciesKey(), SpeciesName: e.SpeciesName}
}

// IsSameSpecies reports whether p has the same species-form identity as the
// record holder.
func (r *SpeciesRecord) IsSameSpecies(p *pokemon.Pokemon) bool {
	return r.Species == p.SpeciesKey()
}

// Copy returns an independent copy of the record.
func (r *SpeciesRecord) Copy() *SpeciesRecord {
	c := *r
	return &c
}

// EncounterSummary is the per-species (per-Unown-form) lifetime and
// current-phase rollup. Exactly one exists per species-form key.
type EncounterSummary struct {
	Species     pokemon.SpeciesKey
	SpeciesName string

	TotalEncounters int
	ShinyEncounters int
	Catches         int

	TotalHighestIVSum int
	TotalLowestIVSum  int
	TotalHighestSV    int
	TotalLowestSV     int

	PhaseEncounters   int
	PhaseHighestIVSum *int
	PhaseLowestIVSum  *int
	PhaseHighestSV    *int
	PhaseLowestSV     *int

	LastEncounterTime time.Time
}

// NewEncounterSummary creates a summary from the first encounter of a
// species. A shiny first encounter does not contribute to phase-scoped
// high/low values because it closes the phase instead of extending it.
func NewEncounterSummary(e *Encounter) *EncounterSummary {
	s := &EncounterSummary{
		Species:           e.SpeciesKey(),
		SpeciesName:       e.SpeciesName,
		TotalEncounters:   1,
		TotalHighestIVSum: e.IVSum(),
		TotalLowestIVSum:  e.IVSum(),
		TotalHighestSV:    e.ShinyValue(),
		TotalLowestSV:     e.ShinyValue(),
		LastEncounterTime: e.EncounterTime,
	}
	if e.IsShiny() {
		s.ShinyEncounters = 1
	} else {
		s.PhaseEncounters = 1
		s.PhaseHighestIVSum = intPtr(e.IVSum())
		s.PhaseLowestIVSum = intPtr(e.IVSum())
		s.PhaseHighestSV = intPtr(e.ShinyValue())
		s.PhaseLowestSV = intPtr(e.ShinyValue())
	}
	return s
}

// Update folds another encounter of this species into the summary. Records
// are replaced on strict comparison only, so the first holder wins ties.
func (s *EncounterSummary) Update(e *Encounter) {
	s.TotalEncounters++
	s.LastEncounterTime = e.EncounterTime

	if s.TotalHighestIVSum < e.IVSum() {
		s.TotalHighestIVSum = e.IVSum()
	}
	if s.TotalLowestIVSum > e.IVSum() {
		s.TotalLowestIVSum = e.IVSum()
	}
	if s.TotalHighestSV < e.ShinyValue() {
		s.TotalHighestSV = e.ShinyValue()
	}
	if s.TotalLowestSV > e.ShinyValue() {
		s.TotalLowestSV = e.ShinyValue()
	}

	s.PhaseEncounters++

	if e.IsShiny() {
		s.ShinyEncounters++
		return
	}

	if s.PhaseHighestIVSum == nil || *s.PhaseHighestIVSum < e.IVSum() {
		s.PhaseHighestIVSum = intPtr(e.IVSum())
	}
	if s.PhaseLowestIVSum == nil || *s.PhaseLowestIVSum > e.IVSum() {
		s.PhaseLowestIVSum = intPtr(e.IVSum())
	}
	if s.PhaseHighestSV == nil || *s.PhaseHighestSV < e.ShinyValue() {
		s.PhaseHighestSV = intPtr(e.ShinyValue())
	}
	if s.PhaseLowestSV == nil || *s.PhaseLowestSV > e.ShinyValue() {
		s.PhaseLowestSV = intPtr(e.ShinyValue())
	}
}

// UpdateOutcome records a battle result; only a catch changes the summary.
func (s *EncounterSummary) UpdateOutcome(outcome BattleOutcome) {
	if outcome == OutcomeCaught {
		s.Catches++
	}
}

// ResetPhase zeroes the phase-scoped fields. Called when a shiny phase
// closes or is reset.
func (s *EncounterSummary) ResetPhase() {
	s.PhaseEncounters = 0
	s.PhaseHighestIVSum = nil
	s.PhaseLowestIVSum = nil
	s.PhaseHighestSV = nil
	s.PhaseLowestSV = nil
}

// IsSameSpecies reports whether p matches this summary's species-form key.
func (s *EncounterSummary) IsSameSpecies(p *pokemon.Pokemon) bool {
	return s.Species == p.SpeciesKey()
}

// DatabaseID returns the persisted species id for this summary (Unown forms
// use the 20100+letter range).
func (s *EncounterSummary) DatabaseID() int { return s.Species.DatabaseID() }

// ShinyPhase is the run of consecutive non-shiny encounters between two
// shiny catches (or between start-of-profile and now).
type ShinyPhase struct {
	ShinyPhaseID   int64
	StartTime      time.Time
	EndTime        *time.Time
	ShinyEncounter *Encounter

	Encounters          int
	AntiShinyEncounters int

	HighestIVSum  *SpeciesRecord
	LowestIVSum   *SpeciesRecord
	HighestSV     *SpeciesRecord
	LowestSV      *SpeciesRecord
	LongestStreak *SpeciesRecord
	CurrentStreak *SpeciesRecord

	FishingAttempts                  int
	SuccessfulFishingAttempts        int
	LongestUnsuccessfulFishingStreak int
	CurrentUnsuccessfulFishingStreak int

	PokenavCalls int

	// Snapshot of global totals, frozen once when the phase closes; answers
	// "out of how many encounters was this the Nth shiny".
	SnapshotTotalEncounters       *int
	SnapshotTotalShinyEncounters  *int
	SnapshotSpeciesEncounters     *int
	SnapshotSpeciesShinyEncounters *int
}

// NewShinyPhase opens a fresh phase.
func NewShinyPhase(id int64, startTime time.Time) *ShinyPhase {
	return &ShinyPhase{ShinyPhaseID: id, StartTime: startTime}
}

// IsOpen reports whether the phase has not been closed yet.
func (p *ShinyPhase) IsOpen() bool { return p.EndTime == nil }

// Update folds an encounter into the phase counters. Shiny-value records are
// only tracked for non-shiny encounters (the shiny one closes the phase);
// streaks count same-species runs.
func (p *ShinyPhase) Update(e *Encounter) {
	p.Encounters++
	if e.Pokemon.IsAntiShiny() {
		p.AntiShinyEncounters++
	}

	if p.HighestIVSum == nil || p.HighestIVSum.Value < e.IVSum() {
		p.HighestIVSum = recordFor(e.IVSum(), e)
	}
	if p.LowestIVSum == nil || p.LowestIVSum.Value > e.IVSum() {
		p.LowestIVSum = recordFor(e.IVSum(), e)
	}

	if !e.IsShiny() {
		if p.HighestSV == nil || p.HighestSV.Value < e.ShinyValue() {
			p.HighestSV = recordFor(e.ShinyValue(), e)
		}
		if p.LowestSV == nil || p.LowestSV.Value > e.ShinyValue() {
			p.LowestSV = recordFor(e.ShinyValue(), e)
		}
	}

	if p.CurrentStreak == nil || !p.CurrentStreak.IsSameSpecies(e.Pokemon) {
		p.CurrentStreak = recordFor(1, e)
	} else {
		p.CurrentStreak.Value++
	}
	if p.LongestStreak == nil || p.CurrentStreak.Value > p.LongestStreak.Value {
		p.LongestStreak = p.CurrentStreak.Copy()
	}
}

// UpdateFishingAttempt maintains the phase's fishing counters. Only a result
// of "encounter" counts as a success; everything else extends the
// unsuccessful streak.
func (p *ShinyPhase) UpdateFishingAttempt(attempt FishingAttempt) {
	p.FishingAttempts++
	if attempt.Result != FishingResultEncounter {
		p.CurrentUnsuccessfulFishingStreak++
		if p.CurrentUnsuccessfulFishingStreak > p.LongestUnsuccessfulFishingStreak {
			p.LongestUnsuccessfulFishingStreak = p.CurrentUnsuccessfulFishingStreak
		}
	} else {
		p.SuccessfulFishingAttempts++
		p.CurrentUnsuccessfulFishingStreak = 0
	}
}

// UpdateSnapshot freezes global totals into the phase. Called exactly once,
// when the phase closes; ShinyEncounter must be set by then.
func (p *ShinyPhase) UpdateSnapshot(summaries map[int]*EncounterSummary) {
	totalEncounters := 0
	totalShinies := 0
	for _, s := range summaries {
		totalEncounters += s.TotalEncounters
		totalShinies += s.ShinyEncounters
		if p.ShinyEncounter != nil && s.IsSameSpecies(p.ShinyEncounter.Pokemon) {
			p.SnapshotSpeciesEncounters = intPtr(s.TotalEncounters)
			p.SnapshotSpeciesShinyEncounters = intPtr(s.ShinyEncounters)
		}
	}
	p.SnapshotTotalEncounters = intPtr(totalEncounters)
	p.SnapshotTotalShinyEncounters = intPtr(totalShinies)
}

// Clear resets every counter to start-of-phase values without closing the
// phase. Used to correct a false start; start time moves to now.
func (p *ShinyPhase) Clear(now time.Time) {
	p.StartTime = now
	p.Encounters = 0
	p.AntiShinyEncounters = 0
	p.HighestIVSum = nil
	p.LowestIVSum = nil
	p.HighestSV = nil
	p.LowestSV = nil
	p.LongestStreak = nil
	p.CurrentStreak = nil
	p.FishingAttempts = 0
	p.SuccessfulFishingAttempts = 0
	p.LongestUnsuccessfulFishingStreak = 0
	p.CurrentUnsuccessfulFishingStreak = 0
	p.PokenavCalls = 0
}

// PickupItem counts how often an item arrived via the Pickup ability.
type PickupItem struct {
	ItemIndex     int
	ItemName      string
	TimesPickedUp int
}

// EncounterTotals aggregates every summary into one cross-species view.
type EncounterTotals struct {
	TotalEncounters int
	ShinyEncounters int
	Catches         int

	TotalHighestIVSum *SpeciesRecord
	TotalLowestIVSum  *SpeciesRecord
	TotalHighestSV    *SpeciesRecord
	TotalLowestSV     *SpeciesRecord

	PhaseEncounters   int
	PhaseHighestIVSum *SpeciesRecord
	PhaseLowestIVSum  *SpeciesRecord
	PhaseHighestSV    *SpeciesRecord
	PhaseLowestSV     *SpeciesRecord
}

func summaryRecord(value int, s *EncounterSummary) *SpeciesRecord {
	return &SpeciesRecord{Value: value, Species: s.Species, SpeciesName: s.SpeciesName}
}

// TotalsFromSummaries computes cross-species totals and record holders.
// Record-holder ties go to the lowest species database id.
func TotalsFromSummaries(summaries map[int]*EncounterSummary) *EncounterTotals {
	keys := make([]int, 0, len(summaries))
	for key := range summaries {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	t := &EncounterTotals{}
	for _, key := range keys {
		s := summaries[key]
		t.TotalEncounters += s.TotalEncounters
		t.ShinyEncounters += s.ShinyEncounters
		t.Catches += s.Catches
		t.PhaseEncounters += s.PhaseEncounters

		if t.TotalHighestIVSum == nil || t.TotalHighestIVSum.Value < s.TotalHighestIVSum {
			t.TotalHighestIVSum = summaryRecord(s.TotalHighestIVSum, s)
		}
		if t.TotalLowestIVSum == nil || t.TotalLowestIVSum.Value > s.TotalLowestIVSum {
			t.TotalLowestIVSum = summaryRecord(s.TotalLowestIVSum, s)
		}
		if t.TotalHighestSV == nil || t.TotalHighestSV.Value < s.TotalHighestSV {
			t.TotalHighestSV = summaryRecord(s.TotalHighestSV, s)
		}
		if t.TotalLowestSV == nil || t.TotalLowestSV.Value > s.TotalLowestSV {
			t.TotalLowestSV = summaryRecord(s.TotalLowestSV, s)
		}

		if s.PhaseHighestIVSum != nil && (t.PhaseHighestIVSum == nil || t.PhaseHighestIVSum.Value < *s.PhaseHighestIVSum) {
			t.PhaseHighestIVSum = summaryRecord(*s.PhaseHighestIVSum, s)
		}
		if s.PhaseLowestIVSum != nil && (t.PhaseLowestIVSum == nil || t.PhaseLowestIVSum.Value > *s.PhaseLowestIVSum) {
			t.PhaseLowestIVSum = summaryRecord(*s.PhaseLowestIVSum, s)
		}
		if s.PhaseHighestSV != nil && (t.PhaseHighestSV == nil || t.PhaseHighestSV.Value < *s.PhaseHighestSV) {
			t.PhaseHighestSV = summaryRecord(*s.PhaseHighestSV, s)
		}
		if s.PhaseLowestSV != nil && (t.PhaseLowestSV == nil || t.PhaseLowestSV.Value > *s.PhaseLowestSV) {
			t.PhaseLowestSV = summaryRecord(*s.PhaseLowestSV, s)
		}
	}
	return t
}

// GlobalStats is the read view over every cached aggregate. The maps are the
// engine's own caches; callers must treat them as read-only.
type GlobalStats struct {
	EncounterSummaries map[int]*EncounterSummary
	PickupItems        map[int]*PickupItem
	CurrentShinyPhase  *ShinyPhase
	LongestShinyPhase  *ShinyPhase
	ShortestShinyPhase *ShinyPhase

	totals *EncounterTotals
}

// Totals computes (and caches) the cross-species totals.
func (g *GlobalStats) Totals() *EncounterTotals {
	if g.totals == nil {
		g.totals = TotalsFromSummaries(g.EncounterSummaries)
	}
	return g.totals
}

// Species returns the summary for the given Pokémon's species-form key, or a
// zero-valued summary if the species has never been encountered.
func (g *GlobalStats) Species(p *pokemon.Pokemon, speciesName string) *EncounterSummary {
	key := p.SpeciesKey()
	if s, ok := g.EncounterSummaries[key.DatabaseID()]; ok {
		return s
	}
	return &EncounterSummary{
		Species:           key,
		SpeciesName:       key.DisplayName(speciesName),
		LastEncounterTime: time.Now().UTC(),
	}
}

func intPtr(v int) *int { return &v }
