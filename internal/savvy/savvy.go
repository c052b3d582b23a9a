// Package savvy reads and writes the SavvyCAN fixed-column CSV layout:
// Timestamp,ID,Len,Data0..Data63.
package savvy

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"example.com/canconv/internal/canframe"
	"example.com/canconv/internal/decode"
	"example.com/canconv/internal/schema"
)

const fixedColumns = 3

// Columns is the number of columns in every row.
const Columns = fixedColumns + canframe.MaxDataLen

// Header returns the 67 column names.
func Header() []string {
	h := make([]string, 0, Columns)
	h = append(h, "Timestamp", "ID", "Len")
	for i := 0; i < canframe.MaxDataLen; i++ {
		h = append(h, schema.DataColumn(i))
	}
	return h
}

// EncodeRow renders f as one row. Data cells past the payload are empty.
func EncodeRow(f canframe.Frame) []string {
	row := make([]string, Columns)
	row[0] = strconv.FormatFloat(f.Timestamp, 'f', -1, 64)
	row[1] = strconv.FormatUint(uint64(f.ID), 10)
	row[2] = strconv.Itoa(f.Len)
	for i, b := range f.Payload() {
		row[fixedColumns+i] = strconv.Itoa(int(b))
	}
	return row
}

// DecodeRow parses a row written by EncodeRow. CAN-FD flags are not part of
// the layout and come back false.
func DecodeRow(row []string) (canframe.Frame, error) {
	var f canframe.Frame
	if len(row) < fixedColumns {
		return f, fmt.Errorf("row has %d columns, want at least %d", len(row), fixedColumns)
	}
	ts, err := strconv.ParseFloat(row[0], 64)
	if err != nil {
		return f, fmt.Errorf("timestamp: %w", err)
	}
	id, err := strconv.ParseUint(row[1], 10, 32)
	if err != nil {
		return f, fmt.Errorf("id: %w", err)
	}
	n, err := strconv.Atoi(row[2])
	if err != nil {
		return f, fmt.Errorf("len: %w", err)
	}
	if n < 0 || n > canframe.MaxDataLen {
		return f, fmt.Errorf("len %d out of range", n)
	}
	f.Timestamp = ts
	f.ID = uint32(id)
	f.Len = n
	for i := 0; i < n && fixedColumns+i < len(row); i++ {
		cell := row[fixedColumns+i]
		if cell == "" {
			break
		}
		b, bad := decode.ParseByte(cell, 10)
		if bad {
			return f, fmt.Errorf("%s: invalid byte %q", schema.DataColumn(i), cell)
		}
		f.Data = append(f.Data, b)
	}
	return f, nil
}

// Writer emits a SavvyCAN CSV. The header is written before the first row,
// or by Flush when no row was written.
type Writer struct {
	w       *csv.Writer
	started bool
	frames  int
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	return w.w.Write(Header())
}

// Write appends one frame row.
func (w *Writer) Write(f canframe.Frame) error {
	if err := w.start(); err != nil {
		return err
	}
	if err := w.w.Write(EncodeRow(f)); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames returns the number of rows written.
func (w *Writer) Frames() int {
	return w.frames
}

// Flush writes buffered rows and reports any write error.
func (w *Writer) Flush() error {
	if err := w.start(); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}
