// Package asc writes frames as Vector ASC text log lines.
package asc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"example.com/canconv/internal/canframe"
)

// DefaultDate is the date stamp written into the preamble when none is set.
const DefaultDate = "2025-01-01 00:00:00.000"

// DefaultChannel is the bus channel printed on every line.
const DefaultChannel = 1

// EncodeLine renders f as one log line without the trailing newline, e.g.
//
//	1.5000000 1 7B Rx d 3 DE AD BE
//
// Exactly f.Len payload bytes are printed; missing bytes are written as 00.
func EncodeLine(f canframe.Frame, channel int) string {
	var b strings.Builder
	b.WriteString(strconv.FormatFloat(f.Timestamp, 'f', 7, 64))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(channel))
	b.WriteByte(' ')
	b.WriteString(strings.ToUpper(strconv.FormatUint(uint64(f.ID), 16)))
	if f.Extended() {
		b.WriteByte('x')
	}
	b.WriteString(" Rx d ")
	n := f.Len
	if n < 0 {
		n = 0
	}
	b.WriteString(strconv.Itoa(n))
	b.WriteByte(' ')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		var v byte
		if i < len(f.Data) {
			v = f.Data[i]
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	if flags := f.Flags(); len(flags) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(flags, " "))
		b.WriteByte(']')
	}
	return b.String()
}

// WritePreamble writes the three header lines and the blank separator line.
func WritePreamble(w io.Writer, date string) error {
	if strings.TrimSpace(date) == "" {
		date = DefaultDate
	}
	_, err := fmt.Fprintf(w, "date %s\nbase hex  timestamps absolute\nno internal events logged\n\n", date)
	return err
}

// Writer emits an ASC log. The preamble is written before the first frame,
// or by Flush when no frame was written.
type Writer struct {
	w       *bufio.Writer
	date    string
	channel int
	started bool
	frames  int
}

// NewWriter returns a Writer printing frames on the given channel.
func NewWriter(w io.Writer, date string, channel int) *Writer {
	if channel <= 0 {
		channel = DefaultChannel
	}
	return &Writer{w: bufio.NewWriter(w), date: date, channel: channel}
}

func (w *Writer) start() error {
	if w.started {
		return nil
	}
	w.started = true
	return WritePreamble(w.w, w.date)
}

// Write appends one frame line.
func (w *Writer) Write(f canframe.Frame) error {
	if err := w.start(); err != nil {
		return err
	}
	if _, err := w.w.WriteString(EncodeLine(f, w.channel)); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int {
	return w.frames
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.start(); err != nil {
		return err
	}
	return w.w.Flush()
}
