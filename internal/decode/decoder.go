// Package decode turns one CSV row into a canonical frame. Malformed cells
// never fail a row; they fall back to a default and are reported through
// Degradation.
package decode

import (
	"strings"

	"example.com/canconv/internal/canframe"
	"example.com/canconv/internal/schema"
)

// Degradation records which fields of a row fell back to a default.
type Degradation uint8

const (
	TimestampDefaulted Degradation = 1 << iota
	IDDefaulted
	LengthDefaulted
	LengthClamped
	PayloadDefaulted
)

var degradationNames = []struct {
	bit  Degradation
	name string
}{
	{TimestampDefaulted, "timestamp"},
	{IDDefaulted, "id"},
	{LengthDefaulted, "length"},
	{LengthClamped, "length-clamped"},
	{PayloadDefaulted, "payload"},
}

// Has reports whether every bit in d2 is set.
func (d Degradation) Has(d2 Degradation) bool {
	return d&d2 == d2
}

// Names lists the degraded fields.
func (d Degradation) Names() []string {
	var out []string
	for _, n := range degradationNames {
		if d&n.bit != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

func (d Degradation) String() string {
	if d == 0 {
		return "none"
	}
	return strings.Join(d.Names(), ",")
}

// Decoder decodes rows of a single file.
type Decoder struct {
	schema    *schema.ResolvedSchema
	fixedBase int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithFixedColumnBase sets the numeric base of Data0..Data63 cells. SavvyCAN
// exports use 10, BLF style exports use 16.
func WithFixedColumnBase(base int) Option {
	return func(d *Decoder) {
		if base == 10 || base == 16 {
			d.fixedBase = base
		}
	}
}

// New returns a decoder for rows matching s.
func New(s *schema.ResolvedSchema, opts ...Option) *Decoder {
	d := &Decoder{schema: s, fixedBase: 10}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode builds a frame from row.
func (d *Decoder) Decode(row []string) (canframe.Frame, Degradation) {
	var (
		f   canframe.Frame
		deg Degradation
		bad bool
	)
	s := d.schema

	raw, _ := s.Cell(row, schema.Timestamp)
	if f.Timestamp, bad = ParseTimestamp(raw); bad {
		deg |= TimestampDefaulted
	}

	raw, ok := s.Cell(row, schema.ID)
	if !ok || strings.TrimSpace(raw) == "" {
		deg |= IDDefaulted
	} else if f.ID, bad = ParseID(raw); bad {
		deg |= IDDefaulted
	}

	declared, haveLen := -1, false
	if raw, ok := s.Cell(row, schema.Length); ok && strings.TrimSpace(raw) != "" {
		n, bad := ParseLength(raw)
		if bad {
			deg |= LengthDefaulted
		} else {
			declared, haveLen = n, true
		}
	}

	switch s.Layout() {
	case schema.LayoutHexString:
		raw, _ := s.Cell(row, schema.Data)
		data, badTokens := ParseHexPayload(raw)
		if badTokens > 0 {
			deg |= PayloadDefaulted
		}
		f.Data = data
	case schema.LayoutFixedColumns:
		limit := s.FixedColumns()
		if haveLen && declared < limit {
			limit = declared
		}
		data, badCells := d.readFixed(row, limit)
		if badCells {
			deg |= PayloadDefaulted
		}
		f.Data = data
	}

	if haveLen {
		f.Len = declared
	} else {
		f.Len = len(f.Data)
	}
	if f.Len > canframe.MaxDataLen {
		f.Len = canframe.MaxDataLen
		deg |= LengthClamped
	}
	if len(f.Data) > canframe.MaxDataLen {
		f.Data = f.Data[:canframe.MaxDataLen]
		deg |= LengthClamped
	}

	f.FD = d.flag(row, schema.FD)
	f.BRS = d.flag(row, schema.BRS)
	f.ESI = d.flag(row, schema.ESI)
	return f, deg
}

// readFixed reads Data0..Data<limit-1>, stopping at the first empty cell.
func (d *Decoder) readFixed(row []string, limit int) ([]byte, bool) {
	var (
		out []byte
		bad bool
	)
	for i := 0; i < limit; i++ {
		raw, ok := d.schema.FixedCell(row, i)
		if !ok || strings.TrimSpace(raw) == "" {
			break
		}
		b, failed := ParseByte(raw, d.fixedBase)
		if failed {
			bad = true
		}
		out = append(out, b)
	}
	return out, bad
}

func (d *Decoder) flag(row []string, f schema.Field) bool {
	raw, ok := d.schema.Cell(row, f)
	return ok && ParseFlag(raw)
}
