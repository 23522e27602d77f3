package stats_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/realgarit/shinytrack/internal/stats"
	"github.com/realgarit/shinytrack/internal/testutil"
)

// setupEngine opens an engine over a fresh in-memory store with full
// encounter logging enabled.
func setupEngine(t *testing.T) *stats.Engine {
	t.Helper()

	engine, err := stats.Open(stats.Options{
		DBPath:           ":memory:",
		LogAllEncounters: true,
	})
	if err != nil {
		t.Fatalf("failed to open engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestLogEncounterAssignsMonotonicIDs(t *testing.T) {
	engine := setupEngine(t)

	for want := int64(1); want <= 5; want++ {
		enc, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(uint32(0x1000 + want)).Build())
		if err != nil {
			t.Fatalf("LogEncounter: %v", err)
		}
		if enc.EncounterID != want {
			t.Errorf("encounter id = %d, want %d", enc.EncounterID, want)
		}
	}
}

func TestEncounterIDsSurviveRestart(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")

	engine, err := stats.Open(stats.Options{DBPath: dbPath, LogAllEncounters: true})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(uint32(0x2000 + i)).Build()); err != nil {
			t.Fatalf("LogEncounter: %v", err)
		}
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	engine, err = stats.Open(stats.Options{DBPath: dbPath, LogAllEncounters: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer engine.Close()

	enc, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(0x3000).Build())
	if err != nil {
		t.Fatalf("LogEncounter after reopen: %v", err)
	}
	if enc.EncounterID != 4 {
		t.Errorf("id after restart = %d, want 4", enc.EncounterID)
	}
}

func TestSummaryConsistency(t *testing.T) {
	engine := setupEngine(t)

	ivs := []int{10, 25, 17, 31, 4}
	for i, iv := range ivs {
		info := testutil.NewEncounter().WithSpecies(25).WithPersonality(uint32(0x100 + i)).WithIVs(iv).Build()
		if _, err := engine.LogEncounter(info); err != nil {
			t.Fatalf("LogEncounter: %v", err)
		}
	}

	g := engine.GetGlobalStats()
	s, ok := g.EncounterSummaries[25]
	if !ok {
		t.Fatal("no summary for species 25")
	}
	if s.TotalEncounters != len(ivs) {
		t.Errorf("total encounters = %d, want %d", s.TotalEncounters, len(ivs))
	}
	if s.TotalHighestIVSum != 31*6 {
		t.Errorf("highest IV sum = %d, want %d", s.TotalHighestIVSum, 31*6)
	}
	if s.TotalLowestIVSum != 4*6 {
		t.Errorf("lowest IV sum = %d, want %d", s.TotalLowestIVSum, 4*6)
	}
	if g.Totals().TotalEncounters != len(ivs) {
		t.Errorf("global total = %d, want %d", g.Totals().TotalEncounters, len(ivs))
	}
}

func TestShinyClosesPhase(t *testing.T) {
	engine := setupEngine(t)

	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(25).WithIVs(20).Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	g := engine.GetGlobalStats()
	if g.Totals().TotalEncounters != 1 {
		t.Fatalf("total encounters = %d, want 1", g.Totals().TotalEncounters)
	}
	if g.CurrentShinyPhase.Encounters != 1 {
		t.Fatalf("open phase encounters = %d, want 1", g.CurrentShinyPhase.Encounters)
	}

	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(1).WithPersonality(0x500).Shiny().Build()); err != nil {
		t.Fatalf("LogEncounter shiny: %v", err)
	}

	shinyLog, err := engine.GetShinyLog()
	if err != nil {
		t.Fatalf("GetShinyLog: %v", err)
	}
	if len(shinyLog) != 1 {
		t.Fatalf("got %d closed phases, want 1", len(shinyLog))
	}
	closed := shinyLog[0]
	if closed.Encounters != 2 {
		t.Errorf("closed phase encounters = %d, want 2", closed.Encounters)
	}
	if closed.ShinyEncounter == nil || closed.ShinyEncounter.SpeciesID() != 1 {
		t.Errorf("terminating encounter = %+v, want species 1", closed.ShinyEncounter)
	}
	if closed.SnapshotTotalEncounters == nil || *closed.SnapshotTotalEncounters != 2 {
		t.Errorf("snapshot total = %v, want 2", closed.SnapshotTotalEncounters)
	}

	// The view always presents an open phase; after the close it is a fresh
	// zero-valued one, and phase-scoped summary fields are zeroed.
	g = engine.GetGlobalStats()
	if g.CurrentShinyPhase.Encounters != 0 {
		t.Errorf("fresh phase encounters = %d, want 0", g.CurrentShinyPhase.Encounters)
	}
	if g.EncounterSummaries[25].PhaseEncounters != 0 {
		t.Errorf("summary phase encounters = %d, want 0", g.EncounterSummaries[25].PhaseEncounters)
	}
	if g.EncounterSummaries[25].TotalEncounters != 1 {
		t.Errorf("summary lifetime encounters = %d, want 1", g.EncounterSummaries[25].TotalEncounters)
	}

	// The next encounter lazily opens phase 2.
	enc, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(25).WithPersonality(0x600).Build())
	if err != nil {
		t.Fatalf("LogEncounter after close: %v", err)
	}
	if enc.ShinyPhaseID != 2 {
		t.Errorf("new phase id = %d, want 2", enc.ShinyPhaseID)
	}
}

func TestShinyLogAcrossMultipleClosedPhases(t *testing.T) {
	engine := setupEngine(t)

	// Two full phases, each terminated by a shiny of a different species.
	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(25).WithPersonality(0x100).Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(1).WithPersonality(0x200).Shiny().Build()); err != nil {
		t.Fatalf("LogEncounter shiny: %v", err)
	}
	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(286).WithPersonality(0x300).Shiny().Build()); err != nil {
		t.Fatalf("LogEncounter shiny: %v", err)
	}

	shinyLog, err := engine.GetShinyLog()
	if err != nil {
		t.Fatalf("GetShinyLog: %v", err)
	}
	if len(shinyLog) != 2 {
		t.Fatalf("closed phases = %d, want 2", len(shinyLog))
	}

	// Newest first, and every phase carries its resolved terminator.
	wantSpecies := []int{286, 1}
	for i, p := range shinyLog {
		if p.ShinyEncounter == nil {
			t.Fatalf("phase %d has no terminating encounter", p.ShinyPhaseID)
		}
		if p.ShinyEncounter.SpeciesID() != wantSpecies[i] {
			t.Errorf("phase at index %d terminated by species %d, want %d",
				i, p.ShinyEncounter.SpeciesID(), wantSpecies[i])
		}
		if !p.ShinyEncounter.IsShiny() {
			t.Errorf("terminator of phase %d not shiny", p.ShinyPhaseID)
		}
	}
}

func TestReopenAfterShinyHydratesPhaseRecords(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")

	engine, err := stats.Open(stats.Options{DBPath: dbPath, LogAllEncounters: true})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	// Phase 1: three encounters. Phase 2: over on the first.
	for i := 0; i < 2; i++ {
		if _, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(uint32(0x400 + i)).Build()); err != nil {
			t.Fatalf("LogEncounter: %v", err)
		}
	}
	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(1).WithPersonality(0x500).Shiny().Build()); err != nil {
		t.Fatalf("LogEncounter shiny: %v", err)
	}
	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(286).WithPersonality(0x600).Shiny().Build()); err != nil {
		t.Fatalf("LogEncounter shiny: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	engine, err = stats.Open(stats.Options{DBPath: dbPath, LogAllEncounters: true})
	if err != nil {
		t.Fatalf("reopen with closed phases: %v", err)
	}
	defer engine.Close()

	g := engine.GetGlobalStats()
	if g.LongestShinyPhase == nil || g.LongestShinyPhase.Encounters != 3 {
		t.Errorf("longest phase = %+v, want 3 encounters", g.LongestShinyPhase)
	}
	if g.ShortestShinyPhase == nil || g.ShortestShinyPhase.Encounters != 1 {
		t.Errorf("shortest phase = %+v, want 1 encounter", g.ShortestShinyPhase)
	}
	if g.LongestShinyPhase.ShinyEncounter == nil || g.LongestShinyPhase.ShinyEncounter.SpeciesID() != 1 {
		t.Errorf("longest phase terminator = %+v, want species 1", g.LongestShinyPhase.ShinyEncounter)
	}
}

func TestResetShinyPhaseWithoutOpenPhase(t *testing.T) {
	engine := setupEngine(t)

	enc, err := engine.LogEncounter(testutil.NewEncounter().Shiny().Build())
	if err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	// The shiny already closed the phase; a second reset must fail.
	err = engine.ResetShinyPhase(enc)
	if !errors.Is(err, stats.ErrNoOpenPhase) {
		t.Errorf("ResetShinyPhase = %v, want ErrNoOpenPhase", err)
	}
}

func TestClearCurrentShinyPhase(t *testing.T) {
	engine := setupEngine(t)

	for i := 0; i < 50; i++ {
		if _, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(uint32(0x100 + i)).Build()); err != nil {
			t.Fatalf("LogEncounter: %v", err)
		}
	}

	before := time.Now().UTC().Add(-time.Second)
	if err := engine.ClearCurrentShinyPhase(); err != nil {
		t.Fatalf("ClearCurrentShinyPhase: %v", err)
	}

	g := engine.GetGlobalStats()
	if g.CurrentShinyPhase.Encounters != 0 {
		t.Errorf("phase encounters after clear = %d, want 0", g.CurrentShinyPhase.Encounters)
	}
	if g.CurrentShinyPhase.StartTime.Before(before) {
		t.Errorf("start time %v not reset to now", g.CurrentShinyPhase.StartTime)
	}
	if g.EncounterSummaries[25].TotalEncounters != 50 {
		t.Errorf("summary lifetime encounters = %d, want 50", g.EncounterSummaries[25].TotalEncounters)
	}
}

func TestLogEndOfBattle(t *testing.T) {
	engine := setupEngine(t)

	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(25).Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	if err := engine.LogEndOfBattle(stats.OutcomeCaught, true); err != nil {
		t.Fatalf("LogEndOfBattle: %v", err)
	}

	g := engine.GetGlobalStats()
	if g.EncounterSummaries[25].Catches != 1 {
		t.Errorf("catches = %d, want 1", g.EncounterSummaries[25].Catches)
	}

	log, err := engine.GetEncounterLog()
	if err != nil {
		t.Fatalf("GetEncounterLog: %v", err)
	}
	if log[0].Outcome == nil || *log[0].Outcome != stats.OutcomeCaught {
		t.Errorf("stored outcome = %v, want Caught", log[0].Outcome)
	}
}

func TestLogEncounterWithPreKnownOutcome(t *testing.T) {
	engine := setupEngine(t)

	info := testutil.NewEncounter().WithSpecies(25).OfInterest().WithOutcome(stats.OutcomeCaught).Build()
	if _, err := engine.LogEncounter(info); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}

	if got := engine.GetGlobalStats().EncounterSummaries[25].Catches; got != 1 {
		t.Errorf("catches = %d, want 1", got)
	}
}

func TestPersistencePolicy(t *testing.T) {
	engine, err := stats.Open(stats.Options{DBPath: ":memory:", LogAllEncounters: false})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer engine.Close()

	// Not of interest: aggregates update, no log row.
	if _, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(0x100).Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	// Of interest: persisted.
	if _, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(0x200).OfInterest().Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}

	n, err := engine.CountEncounters("", nil)
	if err != nil {
		t.Fatalf("CountEncounters: %v", err)
	}
	if n != 1 {
		t.Errorf("persisted rows = %d, want 1", n)
	}
	if got := engine.GetGlobalStats().EncounterSummaries[25].TotalEncounters; got != 2 {
		t.Errorf("summary encounters = %d, want 2", got)
	}

	// Ids keep increasing across unpersisted encounters.
	enc, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(0x300).OfInterest().Build())
	if err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	if enc.EncounterID != 3 {
		t.Errorf("id = %d, want 3", enc.EncounterID)
	}

	// A shiny persists even when neither flag asks for it; the closed phase
	// must be able to reference its terminating encounter.
	if _, err := engine.LogEncounter(testutil.NewEncounter().WithSpecies(1).WithPersonality(0x400).Shiny().Build()); err != nil {
		t.Fatalf("LogEncounter shiny: %v", err)
	}
	n, err = engine.CountEncounters("is_shiny = 1", nil)
	if err != nil {
		t.Fatalf("CountEncounters: %v", err)
	}
	if n != 1 {
		t.Errorf("persisted shiny rows = %d, want 1", n)
	}
	shinyLog, err := engine.GetShinyLog()
	if err != nil {
		t.Fatalf("GetShinyLog: %v", err)
	}
	if len(shinyLog) != 1 || shinyLog[0].ShinyEncounter == nil {
		t.Fatalf("closed phase missing its terminating encounter: %+v", shinyLog)
	}
}

func TestUnownFormsGetSeparateSummaries(t *testing.T) {
	engine := setupEngine(t)

	for _, letter := range []int{0, 0, 2} {
		info := testutil.NewEncounter().WithSpecies(201).WithPersonality(testutil.UnownWithLetter(letter)).Build()
		if _, err := engine.LogEncounter(info); err != nil {
			t.Fatalf("LogEncounter: %v", err)
		}
	}

	g := engine.GetGlobalStats()
	if got := g.EncounterSummaries[20100].TotalEncounters; got != 2 {
		t.Errorf("Unown (A) encounters = %d, want 2", got)
	}
	if got := g.EncounterSummaries[20102].TotalEncounters; got != 1 {
		t.Errorf("Unown (C) encounters = %d, want 1", got)
	}
	if _, ok := g.EncounterSummaries[201]; ok {
		t.Error("plain species id 201 must not appear as a summary key")
	}
}

func TestHasEncounterWithPersonalityValue(t *testing.T) {
	engine := setupEngine(t)

	if _, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(0xABCD1234).Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}

	found, err := engine.HasEncounterWithPersonalityValue(0xABCD1234)
	if err != nil {
		t.Fatalf("HasEncounterWithPersonalityValue: %v", err)
	}
	if !found {
		t.Error("logged personality value not found")
	}
	found, err = engine.HasEncounterWithPersonalityValue(0x11111111)
	if err != nil {
		t.Fatalf("HasEncounterWithPersonalityValue: %v", err)
	}
	if found {
		t.Error("unknown personality value reported as found")
	}
}

func TestGetShinyPhaseByShiny(t *testing.T) {
	engine := setupEngine(t)

	if _, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(0x100).Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	shinyBuilder := testutil.NewEncounter().WithSpecies(286).WithPersonality(0x777).Shiny()
	if _, err := engine.LogEncounter(shinyBuilder.Build()); err != nil {
		t.Fatalf("LogEncounter shiny: %v", err)
	}

	phase, err := engine.GetShinyPhaseByShiny(shinyBuilder.MustPokemon(t))
	if err != nil {
		t.Fatalf("GetShinyPhaseByShiny: %v", err)
	}
	if phase == nil || phase.Encounters != 2 {
		t.Errorf("phase = %+v, want 2 encounters", phase)
	}
}

func TestLogFishingAttempt(t *testing.T) {
	engine := setupEngine(t)

	// No open phase: last attempt is remembered, nothing else happens.
	if err := engine.LogFishingAttempt(stats.FishingAttempt{Rod: stats.FishingRodOld, Result: stats.FishingResultNoBite}); err != nil {
		t.Fatalf("LogFishingAttempt: %v", err)
	}
	if engine.LastFishingAttempt() == nil {
		t.Fatal("last fishing attempt not recorded")
	}

	if _, err := engine.LogEncounter(testutil.NewEncounter().Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	for _, result := range []stats.FishingResult{stats.FishingResultNoBite, stats.FishingResultNoBite, stats.FishingResultEncounter} {
		if err := engine.LogFishingAttempt(stats.FishingAttempt{Rod: stats.FishingRodSuper, Result: result}); err != nil {
			t.Fatalf("LogFishingAttempt: %v", err)
		}
	}

	phase := engine.GetGlobalStats().CurrentShinyPhase
	if phase.FishingAttempts != 3 || phase.SuccessfulFishingAttempts != 1 {
		t.Errorf("fishing counters = (%d, %d), want (3, 1)", phase.FishingAttempts, phase.SuccessfulFishingAttempts)
	}
	if phase.LongestUnsuccessfulFishingStreak != 2 {
		t.Errorf("longest failure streak = %d, want 2", phase.LongestUnsuccessfulFishingStreak)
	}
}

func TestLogPokenavCall(t *testing.T) {
	engine := setupEngine(t)

	// No-op without an open phase.
	if err := engine.LogPokenavCall(); err != nil {
		t.Fatalf("LogPokenavCall: %v", err)
	}

	if _, err := engine.LogEncounter(testutil.NewEncounter().Build()); err != nil {
		t.Fatalf("LogEncounter: %v", err)
	}
	if err := engine.LogPokenavCall(); err != nil {
		t.Fatalf("LogPokenavCall: %v", err)
	}

	if got := engine.GetGlobalStats().CurrentShinyPhase.PokenavCalls; got != 1 {
		t.Errorf("pokenav calls = %d, want 1", got)
	}
}

func TestLogPickupItems(t *testing.T) {
	engine := setupEngine(t)

	if err := engine.LogPickupItems([]int{92, 92, 13}); err != nil {
		t.Fatalf("LogPickupItems: %v", err)
	}
	if err := engine.LogPickupItems([]int{92}); err != nil {
		t.Fatalf("LogPickupItems: %v", err)
	}

	items := engine.GetGlobalStats().PickupItems
	if items[92] == nil || items[92].TimesPickedUp != 3 {
		t.Errorf("item 92 = %+v, want 3 pickups", items[92])
	}
	if items[13] == nil || items[13].TimesPickedUp != 1 {
		t.Errorf("item 13 = %+v, want 1 pickup", items[13])
	}
}

func TestBaseDataPassthrough(t *testing.T) {
	engine := setupEngine(t)

	value := "on"
	if err := engine.SetData("autosave", &value); err != nil {
		t.Fatalf("SetData: %v", err)
	}

	got, ok := engine.GetData("autosave")
	if !ok || got == nil || *got != "on" {
		t.Errorf("GetData = (%v, %v), want (on, true)", got, ok)
	}
	if _, ok := engine.GetData("missing"); ok {
		t.Error("missing key reported as present")
	}
}

func TestEncounterRateAccessors(t *testing.T) {
	engine := setupEngine(t)

	base := time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		info := testutil.NewEncounter().
			WithPersonality(uint32(0x100 + i)).
			WithTime(base.Add(time.Duration(i) * 30 * time.Second)).
			WithFrameCount(uint64(i) * 1800).
			Build()
		if _, err := engine.LogEncounter(info); err != nil {
			t.Fatalf("LogEncounter: %v", err)
		}
	}

	if got := engine.EncounterRate(); got != 120 {
		t.Errorf("EncounterRate = %d, want 120", got)
	}
	if got := engine.EncounterRateAt1x(); got == 0 {
		t.Error("EncounterRateAt1x = 0, want > 0")
	}
}

func TestOnEncounterListener(t *testing.T) {
	engine := setupEngine(t)

	var seen []int64
	engine.OnEncounter(func(e *stats.Encounter) {
		seen = append(seen, e.EncounterID)
	})

	for i := 0; i < 3; i++ {
		if _, err := engine.LogEncounter(testutil.NewEncounter().WithPersonality(uint32(0x100 + i)).Build()); err != nil {
			t.Fatalf("LogEncounter: %v", err)
		}
	}
	if len(seen) != 3 || seen[2] != 3 {
		t.Errorf("listener saw %v, want [1 2 3]", seen)
	}
}
