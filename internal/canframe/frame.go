// Package canframe holds the canonical CAN / CAN-FD frame record shared by
// every decoder and encoder.
package canframe

const (
	// MaxStandardID is the largest 11-bit arbitration identifier.
	MaxStandardID = 0x7FF
	// MaxDataLen is the largest CAN-FD payload.
	MaxDataLen = 64
)

// Frame is one normalized bus frame. A frame is built per input row and
// dropped once it has been written.
type Frame struct {
	Timestamp float64
	ID        uint32
	Len       int
	Data      []byte
	FD        bool
	BRS       bool
	ESI       bool
}

// Extended reports whether the identifier needs the 29-bit format.
func (f Frame) Extended() bool {
	return f.ID > MaxStandardID
}

// Payload returns the bytes covered by Len, never past the parsed data.
func (f Frame) Payload() []byte {
	n := f.Len
	if n < 0 {
		n = 0
	}
	if n > len(f.Data) {
		n = len(f.Data)
	}
	return f.Data[:n]
}

// Flags returns the names of the set CAN-FD flags in FD, BRS, ESI order.
func (f Frame) Flags() []string {
	var out []string
	if f.FD {
		out = append(out, "FD")
	}
	if f.BRS {
		out = append(out, "BRS")
	}
	if f.ESI {
		out = append(out, "ESI")
	}
	return out
}
