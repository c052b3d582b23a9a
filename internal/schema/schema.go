// Package schema binds the loosely named columns of a CSV bus log to the
// fixed set of logical frame fields.
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"example.com/canconv/internal/canframe"
)

// ErrMissingColumn is returned when a required field has no matching column.
var ErrMissingColumn = errors.New("required column not found")

// Field is a logical frame field looked up in the CSV header.
type Field int

const (
	Timestamp Field = iota
	ID
	Length
	Data
	FD
	BRS
	ESI
	fieldCount
)

var fieldNames = [fieldCount]string{
	Timestamp: "timestamp",
	ID:        "id",
	Length:    "length",
	Data:      "data",
	FD:        "fd",
	BRS:       "brs",
	ESI:       "esi",
}

func (f Field) String() string {
	if f >= 0 && f < fieldCount {
		return fieldNames[f]
	}
	return "unknown"
}

// Fields lists every logical field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// ParseField maps a configuration key such as "timestamp" to its Field.
func ParseField(name string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for f := Field(0); f < fieldCount; f++ {
		if fieldNames[f] == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

// Required reports whether a file without this field cannot be converted.
func (f Field) Required() bool {
	return f == Timestamp || f == ID
}

// Aliases holds the preference-ordered header spellings for each field.
type Aliases map[Field][]string

// DefaultAliases returns the header spellings seen in exported bus logs.
func DefaultAliases() Aliases {
	return Aliases{
		Timestamp: {"Start Time", "Timestamp", "Time", "start_time"},
		ID:        {"ID", "Id", "id"},
		Length:    {"DLC", "Len", "LEN", "length", "dlc"},
		Data:      {"Data", "data", "DATA"},
		FD:        {"FDF", "EDL", "FD"},
		BRS:       {"BRS"},
		ESI:       {"ESI"},
	}
}

// With returns a copy of a where each field's extra spellings are tried
// before the existing ones.
func (a Aliases) With(extra Aliases) Aliases {
	out := make(Aliases, len(a))
	for f, names := range a {
		out[f] = append([]string(nil), names...)
	}
	for f, names := range extra {
		merged := make([]string, 0, len(names)+len(out[f]))
		merged = append(merged, names...)
		merged = append(merged, out[f]...)
		out[f] = merged
	}
	return out
}

// Resolve returns the first preference that exactly matches one of the
// available names.
func Resolve(available, preference []string) (string, bool) {
	for _, want := range preference {
		for _, name := range available {
			if name == want {
				return want, true
			}
		}
	}
	return "", false
}

// Layout describes where a file keeps its payload bytes.
type Layout int

const (
	// LayoutNone means no payload column was found.
	LayoutNone Layout = iota
	// LayoutHexString is a single column like "39 0E 00".
	LayoutHexString
	// LayoutFixedColumns spreads bytes over Data0..Data63.
	LayoutFixedColumns
)

func (l Layout) String() string {
	switch l {
	case LayoutHexString:
		return "hex-string"
	case LayoutFixedColumns:
		return "fixed-columns"
	default:
		return "none"
	}
}

// DataColumn returns the fixed-column header name for payload index i.
func DataColumn(i int) string {
	return "Data" + strconv.Itoa(i)
}

// ResolvedSchema is a header bound to logical fields. It is built once per
// file and reused for every row.
type ResolvedSchema struct {
	index  [fieldCount]int
	names  [fieldCount]string
	layout Layout
	fixed  []int
}

// Bind resolves every field against header. Only a missing timestamp or ID
// group is an error.
func Bind(header []string, aliases Aliases) (*ResolvedSchema, error) {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	s := &ResolvedSchema{}
	for f := Field(0); f < fieldCount; f++ {
		s.index[f] = -1
		name, ok := Resolve(header, aliases[f])
		if !ok {
			if f.Required() {
				return nil, fmt.Errorf("%w: %s (tried %s)", ErrMissingColumn, f, strings.Join(aliases[f], ", "))
			}
			continue
		}
		s.index[f] = indexOf(header, name)
		s.names[f] = name
	}
	switch {
	case s.index[Data] >= 0:
		s.layout = LayoutHexString
	default:
		s.fixed = bindFixed(header)
		if len(s.fixed) > 0 {
			s.layout = LayoutFixedColumns
		}
	}
	return s, nil
}

func bindFixed(header []string) []int {
	var cols []int
	for i := 0; i < canframe.MaxDataLen; i++ {
		idx := indexOf(header, DataColumn(i))
		if idx < 0 {
			break
		}
		cols = append(cols, idx)
	}
	return cols
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// Has reports whether f was bound to a column.
func (s *ResolvedSchema) Has(f Field) bool {
	return f >= 0 && f < fieldCount && s.index[f] >= 0
}

// Column returns the header name bound to f.
func (s *ResolvedSchema) Column(f Field) (string, bool) {
	if !s.Has(f) {
		return "", false
	}
	return s.names[f], true
}

// Layout returns the payload layout of the bound file.
func (s *ResolvedSchema) Layout() Layout {
	return s.layout
}

// FixedColumns returns how many Data<n> columns were bound.
func (s *ResolvedSchema) FixedColumns() int {
	return len(s.fixed)
}

// Cell returns the value of f in row. Rows shorter than the header report
// the cell as absent.
func (s *ResolvedSchema) Cell(row []string, f Field) (string, bool) {
	if !s.Has(f) {
		return "", false
	}
	return cell(row, s.index[f])
}

// FixedCell returns payload column Data<i> of row.
func (s *ResolvedSchema) FixedCell(row []string, i int) (string, bool) {
	if i < 0 || i >= len(s.fixed) {
		return "", false
	}
	return cell(row, s.fixed[i])
}

func cell(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	return row[idx], true
}
