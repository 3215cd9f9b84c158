// Package gkg streams a decompressed GDELT GKG record file and collects raw
// entity mentions into a core.Collector, auto-detecting the header row and
// the column layout when one is present.
package gkg

import (
	"bufio"
	"io"
	"strings"

	"gdelttrends/internal/logger"
	"gdelttrends/internal/tokenizer"

	"gdelttrends/internal/core"
)

// Columns holds the column indices of the five fields (four entity columns
// plus the document identifier) consumed from a GKG record. A zero value means "unset"; Collect applies the canonical
// v2 defaults the first time it encounters an unset index without having
// seen a header row.
type Columns struct {
	Themes             int
	Persons            int
	Orgs               int
	Locations          int
	DocumentIdentifier int
}

// DefaultColumns are the canonical GDELT GKG v2 positions. Locations (V2Locations)
// is carried alongside the three entity columns named in the core spec; it
// is not load-bearing for any invariant but is collected the same way.
func DefaultColumns() Columns {
	return Columns{Themes: 7, Persons: 9, Orgs: 10, Locations: 8, DocumentIdentifier: 4}
}

var headerMarkers = []string{"v2themes", "v2persons", "v2organizations", "v2locations", "documentidentifier"}

// isHeaderRow reports whether row looks like a GKG header: its lowercased,
// joined form contains any of the known column-name markers.
func isHeaderRow(fields []string) bool {
	joined := strings.ToLower(strings.Join(fields, "\t"))
	for _, marker := range headerMarkers {
		if strings.Contains(joined, marker) {
			return true
		}
	}
	return false
}

// detectColumns overwrites each configured index with the position of the
// first field whose lowercased text contains the corresponding marker.
func detectColumns(fields []string) Columns {
	cols := Columns{}
	lower := make([]string, len(fields))
	for i, f := range fields {
		lower[i] = strings.ToLower(f)
	}
	find := func(marker string) int {
		for i, f := range lower {
			if strings.Contains(f, marker) {
				return i
			}
		}
		return -1
	}
	cols.Themes = find("v2themes")
	cols.Persons = find("v2persons")
	cols.Orgs = find("v2organizations")
	cols.Locations = find("v2locations")
	cols.DocumentIdentifier = find("documentidentifier")
	return cols
}

// field safely fetches fields[idx], returning "" when idx is out of range
// or unset (negative).
func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

// Collect stream-parses tab-delimited records from r with relaxed quoting:
// a record is simply a line split on tabs, with surrounding whitespace
// trimmed from each field. The column layout is resolved per call (per
// stream), starting from cols and falling back to DefaultColumns for any
// index left unset once no header row is found.
//
// Per-row errors (a row producing no usable fields) are counted and skipped;
// they never abort the stream. Collect returns the populated Collector and
// the number of skipped rows.
func Collect(r io.Reader, cols Columns) (*core.Collector, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	collector := &core.Collector{}
	headerSeen := false
	defaultsApplied := false
	skipped := 0
	rowNum := 0

	for scanner.Scan() {
		rowNum++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}

		if !headerSeen && rowNum == 1 && isHeaderRow(fields) {
			cols = detectColumns(fields)
			headerSeen = true
			continue
		}
		if !headerSeen && !defaultsApplied {
			cols = applyDefaults(cols)
			defaultsApplied = true
		}

		if !collectRow(collector, fields, cols) {
			skipped++
			logger.Warn("gkg: skipped unparseable row", "row", rowNum)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	return collector, skipped, nil
}

// applyDefaults fills any unset (<=0) index with the canonical default.
func applyDefaults(cols Columns) Columns {
	defaults := DefaultColumns()
	if cols.Themes <= 0 {
		cols.Themes = defaults.Themes
	}
	if cols.Persons <= 0 {
		cols.Persons = defaults.Persons
	}
	if cols.Orgs <= 0 {
		cols.Orgs = defaults.Orgs
	}
	if cols.Locations <= 0 {
		cols.Locations = defaults.Locations
	}
	if cols.DocumentIdentifier <= 0 {
		cols.DocumentIdentifier = defaults.DocumentIdentifier
	}
	return cols
}

// locationNames extracts the full-name field from each semicolon-separated
// V2Locations entry. Each entry is itself "#"-delimited
// (type#fullname#countrycode#...); only the name is semantically useful for
// trend keywords, so the rest is discarded before the caller's usual
// split-and-clean pass.
func locationNames(raw string) string {
	entries := strings.Split(raw, ";")
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "#")
		if len(parts) > 1 && parts[1] != "" {
			names = append(names, parts[1])
		} else if entry != "" {
			names = append(names, entry)
		}
	}
	return strings.Join(names, ";")
}

// collectRow appends one data row's entity values into collector's bags.
// It returns false if the row had no columns at all (a genuine parse
// failure), true otherwise — rows with empty entity fields are valid and
// simply contribute nothing.
func collectRow(collector *core.Collector, fields []string, cols Columns) bool {
	if len(fields) == 0 {
		return false
	}

	if themes := field(fields, cols.Themes); themes != "" {
		collector.Themes = append(collector.Themes, tokenizer.SplitAndClean(themes)...)
	}
	if persons := field(fields, cols.Persons); persons != "" {
		collector.Persons = append(collector.Persons, tokenizer.SplitAndClean(persons)...)
	}
	if orgs := field(fields, cols.Orgs); orgs != "" {
		collector.Orgs = append(collector.Orgs, tokenizer.SplitAndClean(orgs)...)
	}
	if locations := field(fields, cols.Locations); locations != "" {
		collector.Locations = append(collector.Locations, tokenizer.SplitAndClean(locationNames(locations))...)
	}
	if docIDs := field(fields, cols.DocumentIdentifier); docIDs != "" {
		for _, id := range strings.Split(docIDs, "|") {
			id = strings.TrimSpace(id)
			if id != "" {
				collector.DocumentIdentifiers = append(collector.DocumentIdentifiers, id)
			}
		}
	}
	return true
}
