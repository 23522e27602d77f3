package api

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/realgarit/shinytrack/internal/stats"
)

// ExportFormat represents supported export formats.
type ExportFormat string

const (
	FormatNDJSON ExportFormat = "ndjson"
	FormatJSON   ExportFormat = "json"
	FormatCSV    ExportFormat = "csv"

	// MaxExportRows bounds buffered exports; CSV and JSON hold rows in
	// memory (or a spreadsheet) so an unbounded dump is never useful.
	MaxExportRows = 10000
)

// ExportConfig holds export configuration parsed from query params.
type ExportConfig struct {
	Format  ExportFormat
	MaxRows int
}

// ParseExportConfig parses export configuration from request query params.
func ParseExportConfig(r *http.Request) ExportConfig {
	cfg := ExportConfig{Format: FormatNDJSON}

	switch r.URL.Query().Get("format") {
	case "json":
		cfg.Format = FormatJSON
		cfg.MaxRows = MaxExportRows
	case "csv":
		cfg.Format = FormatCSV
		cfg.MaxRows = MaxExportRows
	}

	if v := r.URL.Query().Get("max_rows"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRows = n
		}
	}

	return cfg
}

// EncounterExporter writes encounters in a specific format.
type EncounterExporter interface {
	ContentType() string
	FileExtension() string
	WriteHeader(w io.Writer) error
	WriteEncounter(w io.Writer, enc *stats.Encounter) error
	WriteFooter(w io.Writer, rowCount int) error
}

// NDJSONExporter exports encounters as newline-delimited JSON.
type NDJSONExporter struct {
	encoder *json.Encoder
}

func (e *NDJSONExporter) ContentType() string   { return "application/x-ndjson" }
func (e *NDJSONExporter) FileExtension() string { return "ndjson" }

func (e *NDJSONExporter) WriteHeader(w io.Writer) error {
	e.encoder = json.NewEncoder(w)
	return nil
}

func (e *NDJSONExporter) WriteEncounter(w io.Writer, enc *stats.Encounter) error {
	return e.encoder.Encode(enc)
}

func (e *NDJSONExporter) WriteFooter(w io.Writer, rowCount int) error {
	return nil
}

// JSONExporter exports encounters as one JSON document with metadata.
type JSONExporter struct {
	encounters []*stats.Encounter
}

func (e *JSONExporter) ContentType() string   { return "application/json" }
func (e *JSONExporter) FileExtension() string { return "json" }

func (e *JSONExporter) WriteHeader(w io.Writer) error { return nil }

func (e *JSONExporter) WriteEncounter(w io.Writer, enc *stats.Encounter) error {
	e.encounters = append(e.encounters, enc)
	return nil
}

func (e *JSONExporter) WriteFooter(w io.Writer, rowCount int) error {
	encounters := e.encounters
	if encounters == nil {
		encounters = []*stats.Encounter{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]any{
		"encounters": encounters,
		"meta": map[string]any{
			"row_count":   rowCount,
			"exported_at": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CSVExporter exports the derived per-encounter fields as CSV.
type CSVExporter struct {
	writer *csv.Writer
}

func (e *CSVExporter) ContentType() string   { return "text/csv" }
func (e *CSVExporter) FileExtension() string { return "csv" }

func (e *CSVExporter) WriteHeader(w io.Writer) error {
	e.writer = csv.NewWriter(w)
	return e.writer.Write([]string{
		"encounter_id", "encounter_time", "shiny_phase_id", "species_id",
		"species_name", "personality_value", "iv_sum", "shiny_value",
		"is_shiny", "map", "bot_mode", "type", "outcome",
	})
}

func (e *CSVExporter) WriteEncounter(w io.Writer, enc *stats.Encounter) error {
	var encType, outcome string
	if enc.Type != nil {
		encType = string(*enc.Type)
	}
	if enc.Outcome != nil {
		outcome = enc.Outcome.String()
	}
	return e.writer.Write([]string{
		strconv.FormatInt(enc.EncounterID, 10),
		enc.EncounterTime.UTC().Format(time.RFC3339),
		strconv.FormatInt(enc.ShinyPhaseID, 10),
		strconv.Itoa(enc.SpeciesID()),
		enc.SpeciesName,
		strconv.FormatUint(uint64(enc.PersonalityValue()), 10),
		strconv.Itoa(enc.IVSum()),
		strconv.Itoa(enc.ShinyValue()),
		strconv.FormatBool(enc.IsShiny()),
		ptrStr(enc.Map),
		enc.BotMode,
		encType,
		outcome,
	})
}

func (e *CSVExporter) WriteFooter(w io.Writer, rowCount int) error {
	e.writer.Flush()
	return e.writer.Error()
}

// NewExporter creates an exporter for the given format.
func NewExporter(format ExportFormat) EncounterExporter {
	switch format {
	case FormatJSON:
		return &JSONExporter{}
	case FormatCSV:
		return &CSVExporter{}
	default:
		return &NDJSONExporter{}
	}
}

func ptrStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
