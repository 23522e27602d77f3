package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/realgarit/shinytrack/internal/pokemon"
)

// makeEncounter synthesizes an encounter with an exact IV sum (iv on every
// stat, so sum = 6*iv) and an exact shiny value.
func makeEncounter(t *testing.T, species uint16, pv uint32, iv int, sv uint16) *Encounter {
	t.Helper()

	tid := uint16(40822)
	data := pokemon.Compose(pokemon.Spec{
		Personality: pv,
		TrainerID:   tid,
		SecretID:    tid ^ uint16(pv>>16) ^ uint16(pv) ^ sv,
		Species:     species,
		IVs:         pokemon.StatsValues{HP: iv, Attack: iv, Defence: iv, Speed: iv, SpecialAttack: iv, SpecialDefence: iv},
	})
	mon, err := pokemon.New(data)
	if err != nil {
		t.Fatalf("failed to synthesize encounter: %v", err)
	}
	if mon.ShinyValue() != int(sv) {
		t.Fatalf("synthesized shiny value = %d, want %d", mon.ShinyValue(), sv)
	}
	return &Encounter{
		EncounterTime: time.Date(2024, 3, 17, 9, 30, 0, 0, time.UTC),
		BotMode:       "spin",
		SpeciesName:   fmt.Sprintf("Species #%d", species),
		Pokemon:       mon,
	}
}

func TestNewEncounterSummary(t *testing.T) {
	t.Run("non-shiny seeds phase fields", func(t *testing.T) {
		e := makeEncounter(t, 25, 0x100, 20, 500)
		s := NewEncounterSummary(e)

		if s.TotalEncounters != 1 || s.PhaseEncounters != 1 {
			t.Errorf("counts = (%d, %d), want (1, 1)", s.TotalEncounters, s.PhaseEncounters)
		}
		if s.ShinyEncounters != 0 {
			t.Errorf("shiny encounters = %d, want 0", s.ShinyEncounters)
		}
		if s.TotalHighestIVSum != 120 || s.TotalLowestIVSum != 120 {
			t.Errorf("lifetime IV records = (%d, %d), want (120, 120)", s.TotalHighestIVSum, s.TotalLowestIVSum)
		}
		if s.PhaseHighestSV == nil || *s.PhaseHighestSV != 500 {
			t.Errorf("phase highest SV = %v, want 500", s.PhaseHighestSV)
		}
	})

	t.Run("shiny does not seed phase fields", func(t *testing.T) {
		e := makeEncounter(t, 25, 0x100, 20, 0)
		s := NewEncounterSummary(e)

		if s.ShinyEncounters != 1 {
			t.Errorf("shiny encounters = %d, want 1", s.ShinyEncounters)
		}
		if s.PhaseEncounters != 0 {
			t.Errorf("phase encounters = %d, want 0", s.PhaseEncounters)
		}
		if s.PhaseHighestIVSum != nil || s.PhaseLowestSV != nil {
			t.Error("shiny first encounter should leave phase records unset")
		}
	})
}

func TestEncounterSummaryUpdate(t *testing.T) {
	s := NewEncounterSummary(makeEncounter(t, 25, 0x100, 20, 500))

	s.Update(makeEncounter(t, 25, 0x200, 25, 300))
	s.Update(makeEncounter(t, 25, 0x300, 10, 800))

	if s.TotalEncounters != 3 || s.PhaseEncounters != 3 {
		t.Errorf("counts = (%d, %d), want (3, 3)", s.TotalEncounters, s.PhaseEncounters)
	}
	if s.TotalHighestIVSum != 150 || s.TotalLowestIVSum != 60 {
		t.Errorf("lifetime IV records = (%d, %d), want (150, 60)", s.TotalHighestIVSum, s.TotalLowestIVSum)
	}
	if s.TotalHighestSV != 800 || s.TotalLowestSV != 300 {
		t.Errorf("lifetime SV records = (%d, %d), want (800, 300)", s.TotalHighestSV, s.TotalLowestSV)
	}
	if *s.PhaseHighestIVSum != 150 || *s.PhaseLowestIVSum != 60 {
		t.Errorf("phase IV records = (%d, %d), want (150, 60)", *s.PhaseHighestIVSum, *s.PhaseLowestIVSum)
	}
}

func TestEncounterSummaryShinyUpdateSkipsPhaseRecords(t *testing.T) {
	s := NewEncounterSummary(makeEncounter(t, 25, 0x100, 20, 500))
	s.Update(makeEncounter(t, 25, 0x200, 31, 0))

	if s.ShinyEncounters != 1 {
		t.Errorf("shiny encounters = %d, want 1", s.ShinyEncounters)
	}
	if s.PhaseEncounters != 2 {
		t.Errorf("phase encounters = %d, want 2", s.PhaseEncounters)
	}
	// The shiny still counts toward lifetime records, not phase ones.
	if s.TotalHighestIVSum != 186 {
		t.Errorf("lifetime highest IV sum = %d, want 186", s.TotalHighestIVSum)
	}
	if *s.PhaseHighestIVSum != 120 {
		t.Errorf("phase highest IV sum = %d, want 120", *s.PhaseHighestIVSum)
	}
	if *s.PhaseLowestSV != 500 {
		t.Errorf("phase lowest SV = %d, want 500", *s.PhaseLowestSV)
	}
}

func TestEncounterSummaryUpdateOutcome(t *testing.T) {
	s := NewEncounterSummary(makeEncounter(t, 25, 0x100, 20, 500))

	s.UpdateOutcome(OutcomeWon)
	s.UpdateOutcome(OutcomeRanAway)
	if s.Catches != 0 {
		t.Errorf("catches = %d, want 0", s.Catches)
	}
	s.UpdateOutcome(OutcomeCaught)
	if s.Catches != 1 {
		t.Errorf("catches = %d, want 1", s.Catches)
	}
}

func TestEncounterSummaryResetPhase(t *testing.T) {
	s := NewEncounterSummary(makeEncounter(t, 25, 0x100, 20, 500))
	s.ResetPhase()

	if s.PhaseEncounters != 0 {
		t.Errorf("phase encounters = %d, want 0", s.PhaseEncounters)
	}
	if s.PhaseHighestIVSum != nil || s.PhaseLowestIVSum != nil || s.PhaseHighestSV != nil || s.PhaseLowestSV != nil {
		t.Error("phase records should be nil after reset")
	}
	if s.TotalEncounters != 1 {
		t.Errorf("lifetime encounters = %d, want 1", s.TotalEncounters)
	}
}

func TestShinyPhaseStreak(t *testing.T) {
	// Species sequence A A B A A A: the current streak ends at (A, 3) and
	// that is also the longest.
	phase := NewShinyPhase(1, time.Now().UTC())
	for i, species := range []uint16{25, 25, 286, 25, 25, 25} {
		phase.Update(makeEncounter(t, species, uint32(0x1000+i), 15, 400))
	}

	if phase.CurrentStreak == nil || phase.CurrentStreak.Value != 3 || phase.CurrentStreak.Species.Index != 25 {
		t.Errorf("current streak = %+v, want (25, 3)", phase.CurrentStreak)
	}
	if phase.LongestStreak == nil || phase.LongestStreak.Value != 3 || phase.LongestStreak.Species.Index != 25 {
		t.Errorf("longest streak = %+v, want (25, 3)", phase.LongestStreak)
	}
	if phase.Encounters != 6 {
		t.Errorf("encounters = %d, want 6", phase.Encounters)
	}
}

func TestShinyPhaseLongestStreakIsACopy(t *testing.T) {
	phase := NewShinyPhase(1, time.Now().UTC())
	phase.Update(makeEncounter(t, 25, 0x100, 15, 400))
	phase.Update(makeEncounter(t, 25, 0x200, 15, 400))
	phase.Update(makeEncounter(t, 286, 0x300, 15, 400))

	if phase.LongestStreak.Value != 2 || phase.LongestStreak.Species.Index != 25 {
		t.Errorf("longest streak = %+v, want (25, 2)", phase.LongestStreak)
	}
	if phase.CurrentStreak.Value != 1 || phase.CurrentStreak.Species.Index != 286 {
		t.Errorf("current streak = %+v, want (286, 1)", phase.CurrentStreak)
	}
}

func TestShinyPhaseRecordsFirstHolderWinsTies(t *testing.T) {
	phase := NewShinyPhase(1, time.Now().UTC())
	phase.Update(makeEncounter(t, 25, 0x100, 15, 400))
	phase.Update(makeEncounter(t, 286, 0x200, 15, 400))

	if phase.HighestIVSum.Species.Index != 25 {
		t.Errorf("highest IV sum holder = species %d, want 25", phase.HighestIVSum.Species.Index)
	}
	if phase.LowestSV.Species.Index != 25 {
		t.Errorf("lowest SV holder = species %d, want 25", phase.LowestSV.Species.Index)
	}
}

func TestShinyPhaseSVRecordsSkipShinies(t *testing.T) {
	phase := NewShinyPhase(1, time.Now().UTC())
	phase.Update(makeEncounter(t, 25, 0x100, 15, 400))
	phase.Update(makeEncounter(t, 25, 0x200, 31, 2))

	if phase.LowestSV.Value != 400 {
		t.Errorf("lowest SV = %d, the shiny value must not become a record", phase.LowestSV.Value)
	}
	// IV records still include the shiny.
	if phase.HighestIVSum.Value != 186 {
		t.Errorf("highest IV sum = %d, want 186", phase.HighestIVSum.Value)
	}
}

func TestShinyPhaseAntiShinyCounter(t *testing.T) {
	phase := NewShinyPhase(1, time.Now().UTC())
	phase.Update(makeEncounter(t, 25, 0x100, 15, 65530))
	phase.Update(makeEncounter(t, 25, 0x200, 15, 400))

	if phase.AntiShinyEncounters != 1 {
		t.Errorf("anti-shiny encounters = %d, want 1", phase.AntiShinyEncounters)
	}
}

func TestShinyPhaseFishingCounters(t *testing.T) {
	phase := NewShinyPhase(1, time.Now().UTC())

	cast := func(result FishingResult) {
		phase.UpdateFishingAttempt(FishingAttempt{Rod: FishingRodOld, Result: result})
	}
	cast(FishingResultNoBite)
	cast(FishingResultGotAway)
	cast(FishingResultEncounter)
	cast(FishingResultNoBite)

	if phase.FishingAttempts != 4 {
		t.Errorf("attempts = %d, want 4", phase.FishingAttempts)
	}
	if phase.SuccessfulFishingAttempts != 1 {
		t.Errorf("successes = %d, want 1", phase.SuccessfulFishingAttempts)
	}
	if phase.CurrentUnsuccessfulFishingStreak != 1 {
		t.Errorf("current failure streak = %d, want 1", phase.CurrentUnsuccessfulFishingStreak)
	}
	if phase.LongestUnsuccessfulFishingStreak != 2 {
		t.Errorf("longest failure streak = %d, want 2", phase.LongestUnsuccessfulFishingStreak)
	}
}

func TestShinyPhaseSnapshot(t *testing.T) {
	shiny := makeEncounter(t, 25, 0x100, 20, 0)

	summaries := map[int]*EncounterSummary{
		25:  {Species: pokemon.SpeciesKey{Index: 25}, TotalEncounters: 10, ShinyEncounters: 2},
		286: {Species: pokemon.SpeciesKey{Index: 286}, TotalEncounters: 5, ShinyEncounters: 0},
	}

	phase := NewShinyPhase(1, time.Now().UTC())
	phase.ShinyEncounter = shiny
	phase.UpdateSnapshot(summaries)

	if *phase.SnapshotTotalEncounters != 15 || *phase.SnapshotTotalShinyEncounters != 2 {
		t.Errorf("global snapshot = (%d, %d), want (15, 2)",
			*phase.SnapshotTotalEncounters, *phase.SnapshotTotalShinyEncounters)
	}
	if *phase.SnapshotSpeciesEncounters != 10 || *phase.SnapshotSpeciesShinyEncounters != 2 {
		t.Errorf("species snapshot = (%d, %d), want (10, 2)",
			*phase.SnapshotSpeciesEncounters, *phase.SnapshotSpeciesShinyEncounters)
	}
}

func TestShinyPhaseClear(t *testing.T) {
	phase := NewShinyPhase(1, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	for i := 0; i < 5; i++ {
		phase.Update(makeEncounter(t, 25, uint32(0x100+i), 15, 400))
	}
	phase.UpdateFishingAttempt(FishingAttempt{Rod: FishingRodOld, Result: FishingResultNoBite})
	phase.PokenavCalls = 3

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	phase.Clear(now)

	if phase.Encounters != 0 || phase.FishingAttempts != 0 || phase.PokenavCalls != 0 {
		t.Errorf("counters after clear = (%d, %d, %d), want all 0",
			phase.Encounters, phase.FishingAttempts, phase.PokenavCalls)
	}
	if phase.HighestIVSum != nil || phase.CurrentStreak != nil {
		t.Error("records should be nil after clear")
	}
	if !phase.StartTime.Equal(now) {
		t.Errorf("start time = %v, want %v", phase.StartTime, now)
	}
	if !phase.IsOpen() {
		t.Error("clearing must not close the phase")
	}
}

func TestTotalsFromSummaries(t *testing.T) {
	hi := 150
	summaries := map[int]*EncounterSummary{
		25: {
			Species: pokemon.SpeciesKey{Index: 25}, SpeciesName: "Pikachu",
			TotalEncounters: 10, ShinyEncounters: 1, Catches: 1,
			TotalHighestIVSum: 150, TotalLowestIVSum: 30,
			TotalHighestSV: 65000, TotalLowestSV: 12,
			PhaseEncounters: 4, PhaseHighestIVSum: &hi,
		},
		286: {
			Species: pokemon.SpeciesKey{Index: 286}, SpeciesName: "Breloom",
			TotalEncounters: 5, ShinyEncounters: 0, Catches: 2,
			TotalHighestIVSum: 120, TotalLowestIVSum: 50,
			TotalHighestSV: 64000, TotalLowestSV: 40,
			PhaseEncounters: 2,
		},
	}

	totals := TotalsFromSummaries(summaries)

	if totals.TotalEncounters != 15 || totals.ShinyEncounters != 1 || totals.Catches != 3 {
		t.Errorf("counts = (%d, %d, %d), want (15, 1, 3)",
			totals.TotalEncounters, totals.ShinyEncounters, totals.Catches)
	}
	if totals.PhaseEncounters != 6 {
		t.Errorf("phase encounters = %d, want 6", totals.PhaseEncounters)
	}
	if totals.TotalHighestIVSum.SpeciesName != "Pikachu" || totals.TotalHighestIVSum.Value != 150 {
		t.Errorf("highest IV sum = %+v, want Pikachu/150", totals.TotalHighestIVSum)
	}
	if totals.TotalLowestSV.SpeciesName != "Pikachu" || totals.TotalLowestSV.Value != 12 {
		t.Errorf("lowest SV = %+v, want Pikachu/12", totals.TotalLowestSV)
	}
	if totals.PhaseHighestIVSum.Value != 150 {
		t.Errorf("phase highest IV sum = %d, want 150", totals.PhaseHighestIVSum.Value)
	}
	if totals.PhaseLowestIVSum != nil {
		t.Errorf("phase lowest IV sum = %+v, want nil (no summary carries one)", totals.PhaseLowestIVSum)
	}
}

func TestTotalsFromSummariesTiesGoToLowestSpeciesID(t *testing.T) {
	phase := 90
	tied := func(index int, name string) *EncounterSummary {
		p := phase
		return &EncounterSummary{
			Species: pokemon.SpeciesKey{Index: index}, SpeciesName: name,
			TotalHighestIVSum: 120, TotalLowestIVSum: 40,
			TotalHighestSV: 60000, TotalLowestSV: 100,
			PhaseHighestIVSum: &p,
		}
	}
	summaries := map[int]*EncounterSummary{
		286: tied(286, "Breloom"),
		25:  tied(25, "Pikachu"),
		359: tied(359, "Absol"),
	}

	// Every record value is identical, so the holder must always be the
	// summary with the lowest species id, on every call.
	for i := 0; i < 10; i++ {
		totals := TotalsFromSummaries(summaries)
		for field, rec := range map[string]*SpeciesRecord{
			"TotalHighestIVSum": totals.TotalHighestIVSum,
			"TotalLowestIVSum":  totals.TotalLowestIVSum,
			"TotalHighestSV":    totals.TotalHighestSV,
			"TotalLowestSV":     totals.TotalLowestSV,
			"PhaseHighestIVSum": totals.PhaseHighestIVSum,
		} {
			if rec == nil || rec.SpeciesName != "Pikachu" {
				t.Fatalf("%s holder = %+v, want Pikachu", field, rec)
			}
		}
	}
}

func TestGlobalStatsSpeciesFallback(t *testing.T) {
	g := &GlobalStats{EncounterSummaries: map[int]*EncounterSummary{}}
	mon := makeEncounter(t, 263, 0x100, 10, 900).Pokemon

	s := g.Species(mon, "Zigzagoon")
	if s.TotalEncounters != 0 {
		t.Errorf("unseen species encounters = %d, want 0", s.TotalEncounters)
	}
	if s.SpeciesName != "Zigzagoon" {
		t.Errorf("species name = %q, want Zigzagoon", s.SpeciesName)
	}
}

func TestUnownFormKeys(t *testing.T) {
	key := pokemon.SpeciesKey{Index: pokemon.UnownSpeciesIndex, Form: "C"}
	if key.DatabaseID() != 20102 {
		t.Errorf("DatabaseID = %d, want 20102", key.DatabaseID())
	}
	if got := pokemon.SpeciesKeyFromID(20102); got != key {
		t.Errorf("round-trip = %+v, want %+v", got, key)
	}
}
