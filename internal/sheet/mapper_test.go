package sheet

import (
	"reflect"
	"testing"
)

func TestMapRecords_Basic(t *testing.T) {
	rows := [][]string{
		{"Name", "City"},
		{"Alice", "Oslo"},
		{"Bob", "Bergen"},
	}

	recs := MapRecords(rows)

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0]["Name"] != "Alice" || recs[1]["City"] != "Bergen" {
		t.Errorf("unexpected records: %v", recs)
	}
}

func TestMapRecords_HeadersTrimmed(t *testing.T) {
	rows := [][]string{
		{" Name ", "\ufeffCity"},
		{"Alice", "Oslo"},
	}

	recs := MapRecords(rows)

	if recs[0]["Name"] != "Alice" {
		t.Errorf("expected trimmed header key, got %v", recs[0])
	}
	if recs[0]["City"] != "Oslo" {
		t.Errorf("expected BOM-stripped header key, got %v", recs[0])
	}
}

func TestMapRecords_CellsCleaned(t *testing.T) {
	rows := [][]string{
		{"Name", "Code", "Notes"},
		{"  Alice  ", `="00123"`, "line1\nline2"},
	}

	recs := MapRecords(rows)

	if recs[0]["Name"] != "Alice" {
		t.Errorf("expected surrounding whitespace stripped, got %q", recs[0]["Name"])
	}
	if recs[0]["Code"] != "00123" {
		t.Errorf("expected formula wrapper stripped, got %q", recs[0]["Code"])
	}
	if recs[0]["Notes"] != "line1\nline2" {
		t.Errorf("expected interior newline preserved, got %q", recs[0]["Notes"])
	}
}

func TestMapRecords_BlankHeaderDropsColumn(t *testing.T) {
	rows := [][]string{
		{"Name", "", "City"},
		{"Alice", "ignored", "Oslo"},
	}

	recs := MapRecords(rows)

	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if len(recs[0]) != 2 {
		t.Errorf("expected unlabeled column dropped, got %v", recs[0])
	}
	if _, ok := recs[0][""]; ok {
		t.Error("blank header must not appear as a key")
	}
}

func TestMapRecords_BlankRowsDropped(t *testing.T) {
	rows := [][]string{
		{"Name", "City"},
		{"", ""},
		{"  ", "\t"},
		{"Alice", "Oslo"},
	}

	recs := MapRecords(rows)

	if len(recs) != 1 {
		t.Fatalf("expected blank rows dropped, got %d records", len(recs))
	}
}

func TestMapRecords_ShortRow(t *testing.T) {
	rows := [][]string{
		{"Name", "City", "Notes"},
		{"Alice"},
	}

	recs := MapRecords(rows)

	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if _, ok := recs[0]["City"]; ok {
		t.Error("missing trailing fields must not appear as keys")
	}
}

func TestMapRecords_TooFewRows(t *testing.T) {
	cases := map[string][][]string{
		"empty":       {},
		"only header": {{"Name", "City"}},
	}

	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			recs := MapRecords(rows)
			if recs == nil {
				t.Fatal("expected empty slice, got nil")
			}
			if len(recs) != 0 {
				t.Errorf("expected no records, got %v", recs)
			}
		})
	}
}

func TestMapRecords_OrderPreserved(t *testing.T) {
	rows := [][]string{
		{"Name"},
		{"c"},
		{"a"},
		{"b"},
	}

	recs := MapRecords(rows)

	got := []string{recs[0]["Name"], recs[1]["Name"], recs[2]["Name"]}
	if !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("expected source order preserved, got %v", got)
	}
}

func TestFilterByKey_BlankKeyExcluded(t *testing.T) {
	recs := []Record{
		{"Name": "Alice", "City": "Oslo"},
		{"Name": "   ", "City": "Bergen"},
		{"City": "Stavanger"},
	}

	out := FilterByKey(recs, "Name")

	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0]["Name"] != "Alice" {
		t.Errorf("unexpected record retained: %v", out[0])
	}
}

func TestFilterByKey_KeyAloneSufficient(t *testing.T) {
	recs := []Record{
		{"Name": "Alice", "City": "", "Notes": " "},
	}

	out := FilterByKey(recs, "Name")

	if len(out) != 1 {
		t.Error("record with only the primary key populated must be retained")
	}
}

func TestDescriptor_Key(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Locations", "locations"},
		{"Service Hours", "service_hours"},
		{"  Mixed  Case Name ", "mixed_case_name"},
	}

	for _, tc := range cases {
		d := Descriptor{Name: tc.name}
		if got := d.Key(); got != tc.want {
			t.Errorf("Key(%q): expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
