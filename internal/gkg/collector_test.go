package gkg

import (
	"strings"
	"testing"
)

func row(cols map[int]string, width int) string {
	fields := make([]string, width)
	for i, v := range cols {
		fields[i] = v
	}
	return strings.Join(fields, "\t")
}

func TestCollectWithDefaultColumnsNoHeader(t *testing.T) {
	data := row(map[int]string{
		4:  "http://example.com/a|http://example.com/b",
		7:  "ECON_TRADE;TAX_FNCACT",
		8:  "1#Paris, France#FR#...;2#Berlin, Germany#GE#...",
		9:  "Jane Doe;John Smith",
		10: "Acme Corp",
	}, 11)

	collector, skipped, err := Collect(strings.NewReader(data), Columns{})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if skipped != 0 {
		t.Errorf("Expected 0 skipped rows, got %d", skipped)
	}
	if len(collector.Themes) != 2 {
		t.Errorf("Expected 2 theme tokens, got %v", collector.Themes)
	}
	if len(collector.Persons) != 2 {
		t.Errorf("Expected 2 person tokens, got %v", collector.Persons)
	}
	if len(collector.Orgs) != 1 || collector.Orgs[0] != "acme corp" {
		t.Errorf("Expected [acme corp], got %v", collector.Orgs)
	}
	if len(collector.Locations) != 2 {
		t.Errorf("Expected 2 location tokens, got %v", collector.Locations)
	}
	if len(collector.DocumentIdentifiers) != 2 {
		t.Errorf("Expected 2 document identifiers, got %v", collector.DocumentIdentifiers)
	}
}

func TestCollectDetectsHeaderRow(t *testing.T) {
	header := row(map[int]string{
		4:  "DocumentIdentifier",
		7:  "V2Themes",
		9:  "V2Persons",
		10: "V2Organizations",
	}, 11)
	data := row(map[int]string{
		4: "http://example.com/a",
		7: "ECON_TRADE",
	}, 11)

	input := header + "\n" + data
	collector, skipped, err := Collect(strings.NewReader(input), Columns{})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if skipped != 0 {
		t.Errorf("Expected 0 skipped rows, got %d", skipped)
	}
	if len(collector.Themes) != 1 || collector.Themes[0] != "econ_trade" {
		t.Errorf("Expected header detection to still parse the data row's themes, got %v", collector.Themes)
	}
}

func TestCollectSkipsEmptyLines(t *testing.T) {
	data := row(map[int]string{7: "ECON_TRADE"}, 11)
	input := data + "\n\n" + data

	collector, skipped, err := Collect(strings.NewReader(input), Columns{})
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	if skipped != 0 {
		t.Errorf("Expected blank lines to be skipped silently, got %d skipped", skipped)
	}
	if len(collector.Themes) != 2 {
		t.Errorf("Expected 2 rows worth of themes, got %v", collector.Themes)
	}
}

func TestLocationNamesExtractsFullNameField(t *testing.T) {
	raw := "1#Paris, France#FR#...;2#Berlin, Germany#GE#..."
	got := locationNames(raw)
	want := "Paris, France;Berlin, Germany"
	if got != want {
		t.Errorf("locationNames(%q) = %q, want %q", raw, got, want)
	}
}

func TestApplyDefaultsFillsUnsetIndexesOnly(t *testing.T) {
	cols := applyDefaults(Columns{Themes: 3})
	defaults := DefaultColumns()
	if cols.Themes != 3 {
		t.Errorf("Expected explicit Themes index to be preserved, got %d", cols.Themes)
	}
	if cols.Persons != defaults.Persons {
		t.Errorf("Expected unset Persons index to fall back to default %d, got %d", defaults.Persons, cols.Persons)
	}
}
