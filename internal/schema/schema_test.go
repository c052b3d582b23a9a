package schema

import (
	"errors"
	"testing"
)

func TestResolvePicksFirstPreference(t *testing.T) {
	available := []string{"Time", "Timestamp", "ID"}
	got, ok := Resolve(available, []string{"Start Time", "Timestamp", "Time"})
	if !ok || got != "Timestamp" {
		t.Fatalf("expected Timestamp, got %q (%v)", got, ok)
	}
}

func TestResolveIsCaseSensitive(t *testing.T) {
	if got, ok := Resolve([]string{"TIMESTAMP"}, []string{"Timestamp"}); ok {
		t.Fatalf("expected no match, got %q", got)
	}
	if _, ok := Resolve(nil, []string{"ID"}); ok {
		t.Fatalf("expected no match on empty header")
	}
}

func TestBindHexStringLayout(t *testing.T) {
	header := []string{"Start Time", "ID", "DLC", "Data", "BRS"}
	s, err := Bind(header, nil)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if s.Layout() != LayoutHexString {
		t.Fatalf("layout = %s", s.Layout())
	}
	if name, _ := s.Column(Timestamp); name != "Start Time" {
		t.Fatalf("timestamp column = %q", name)
	}
	if s.Has(FD) || s.Has(ESI) {
		t.Fatalf("unexpected flag columns bound")
	}
	row := []string{"1.5", "7B", "3", "DE AD BE", "1"}
	if v, ok := s.Cell(row, BRS); !ok || v != "1" {
		t.Fatalf("BRS cell = %q (%v)", v, ok)
	}
	if _, ok := s.Cell(row[:2], Data); ok {
		t.Fatalf("short row should report data as absent")
	}
}

func TestBindFixedColumns(t *testing.T) {
	header := []string{"Timestamp", "ID", "LEN", "Data0", "Data1", "Data2"}
	s, err := Bind(header, nil)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if s.Layout() != LayoutFixedColumns || s.FixedColumns() != 3 {
		t.Fatalf("layout = %s cols = %d", s.Layout(), s.FixedColumns())
	}
	row := []string{"0", "1", "2", "10", "11", ""}
	if v, _ := s.FixedCell(row, 1); v != "11" {
		t.Fatalf("Data1 = %q", v)
	}
	if _, ok := s.FixedCell(row, 3); ok {
		t.Fatalf("Data3 is not bound")
	}
}

func TestBindMissingRequired(t *testing.T) {
	_, err := Bind([]string{"Timestamp", "Len", "Data"}, nil)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	_, err = Bind([]string{"ID", "Data"}, nil)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn for timestamp, got %v", err)
	}
}

func TestAliasesWithPrependsExtras(t *testing.T) {
	a := DefaultAliases().With(Aliases{Timestamp: {"Time Stamp"}})
	if a[Timestamp][0] != "Time Stamp" || len(a[Timestamp]) != 5 {
		t.Fatalf("unexpected aliases %v", a[Timestamp])
	}
	if len(DefaultAliases()[Timestamp]) != 4 {
		t.Fatalf("defaults were modified")
	}
}

func TestParseField(t *testing.T) {
	for _, f := range Fields() {
		got, err := ParseField(f.String())
		if err != nil || got != f {
			t.Fatalf("ParseField(%s) = %v, %v", f, got, err)
		}
	}
	if _, err := ParseField("payload"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
