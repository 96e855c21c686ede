// Package ingest loads record and reference datasets from CSV or JSON
// files into the engine's input types. Column headers are mapped to the
// identifier/name fields through a small alias table; unrecognized columns
// ride along untouched in Record.Fields.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/match"
	"github.com/hollomancer/sbir-analytics-sub001/internal/logging"
)

// ErrUnsupportedFormat is returned for file extensions the loader does not
// understand.
var ErrUnsupportedFormat = errors.New("unsupported input format (want .csv, .json, .jsonl, or .ndjson)")

// Canonical field names after alias mapping.
const (
	fieldID   = "id"
	fieldUEI  = "uei"
	fieldDUNS = "duns"
	fieldName = "name"
)

// columnAliases maps normalized source headers to canonical fields. Source
// files come from several upstream exports, so the common spellings of
// each identifier are accepted.
var columnAliases = map[string]string{
	"id":                       fieldID,
	"record_id":                fieldID,
	"award_id":                 fieldID,
	"uei":                      fieldUEI,
	"unique_entity_id":         fieldUEI,
	"unique_entity_identifier": fieldUEI,
	"duns":                     fieldDUNS,
	"duns_number":              fieldDUNS,
	"dunsnumber":               fieldDUNS,
	"name":                     fieldName,
	"company":                  fieldName,
	"company_name":             fieldName,
	"firm":                     fieldName,
	"vendor_name":              fieldName,
}

// normalizeHeader lowercases a column header and collapses separators to
// underscores so "Company Name" and "company-name" both map.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	return h
}

// LoadRecords reads the input record set from path, dispatching on file
// extension.
func LoadRecords(ctx context.Context, path string) ([]match.Record, error) {
	rows, err := loadRows(ctx, path)
	if err != nil {
		return nil, err
	}

	records := make([]match.Record, 0, len(rows))
	for i, row := range rows {
		rec := match.Record{Fields: map[string]string{}}
		for key, val := range row {
			switch columnAliases[normalizeHeader(key)] {
			case fieldID:
				rec.ID = val
			case fieldUEI:
				rec.UEI = val
			case fieldDUNS:
				rec.DUNS = val
			case fieldName:
				rec.Name = val
			default:
				rec.Fields[key] = val
			}
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("row-%d", i)
		}
		if len(rec.Fields) == 0 {
			rec.Fields = nil
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadReference reads the reference dataset from path. Columns that map to
// no canonical field are dropped; reference entries carry only identifiers
// and a name.
func LoadReference(ctx context.Context, path string) ([]match.ReferenceEntry, error) {
	rows, err := loadRows(ctx, path)
	if err != nil {
		return nil, err
	}

	refs := make([]match.ReferenceEntry, 0, len(rows))
	for i, row := range rows {
		var ref match.ReferenceEntry
		for key, val := range row {
			switch columnAliases[normalizeHeader(key)] {
			case fieldID:
				ref.ID = val
			case fieldUEI:
				ref.UEI = val
			case fieldDUNS:
				ref.DUNS = val
			case fieldName:
				ref.Name = val
			}
		}
		if ref.ID == "" {
			ref.ID = fmt.Sprintf("ref-%d", i)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// loadRows reads path into ordered key/value rows.
func loadRows(ctx context.Context, path string) ([]map[string]string, error) {
	log := logging.FromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var rows []map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = parseCSV(data)
	case ".json", ".jsonl", ".ndjson":
		rows, err = parseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	log.Debug().
		Str("component", "ingest").
		Str("path", path).
		Int("rows", len(rows)).
		Msg("dataset loaded")
	return rows, nil
}

// parseCSV maps each data row against the header row.
func parseCSV(data []byte) ([]map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	header := all[0]
	rows := make([]map[string]string, 0, len(all)-1)
	for _, rec := range all[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseJSON accepts either a JSON array of objects or one object per line
// (JSON lines). Non-string values are stringified.
func parseJSON(data []byte) ([]map[string]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var objs []map[string]any
		if err := json.Unmarshal(trimmed, &objs); err != nil {
			return nil, err
		}
		rows := make([]map[string]string, 0, len(objs))
		for _, obj := range objs {
			rows = append(rows, stringifyRow(obj))
		}
		return rows, nil
	}

	var rows []map[string]string
	for lineNo, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		rows = append(rows, stringifyRow(obj))
	}
	return rows, nil
}

func stringifyRow(obj map[string]any) map[string]string {
	row := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			row[k] = val
		case float64:
			row[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			row[k] = strconv.FormatBool(val)
		case nil:
			// Absent value, skip.
		default:
			encoded, _ := json.Marshal(val)
			row[k] = string(encoded)
		}
	}
	return row
}
