package hfstol

import (
	"encoding/binary"
	"io"
)

// Sentinel and layout constants shared by every transducer table.
//
// NoSymbol and NoTableIndex are the maximum values of their respective
// widths, used as "absent" markers throughout the index and transition
// tables. TransitionTargetTableStart is the bias that lets a single
// uint32 address either table: indices below it name a row of the
// transition-index table, indices at or above it name an entry of the
// transition table (see isTransitionTableIndex in table.go for the
// dispatch).
const (
	NoSymbol     SymbolNumber = 0xFFFF
	NoTableIndex TableIndex   = 0xFFFFFFFF

	TransitionTargetTableStart TableIndex = 1 << 31

	// InfiniteWeight is the initial value of any running weight-limit
	// search (no ceiling). It is NoTableIndex converted to float32 by
	// value (about 4.29e9), not a reinterpretation of its bits.
	InfiniteWeight Weight = float32(uint32(NoTableIndex))

	// MaxRecursionDepth bounds DFS recursion in both the lookup engine and
	// the pmatch interpreter, guarding against stack exhaustion on
	// pathological epsilon graphs.
	MaxRecursionDepth = 5000
)

// SymbolNumber identifies a symbol in an Alphabet.
type SymbolNumber = uint16

// TableIndex addresses either table of a packed transducer; see the
// TransitionTargetTableStart constant.
type TableIndex = uint32

// TransitionNumber indexes a row of the transition table directly
// (TableIndex minus TransitionTargetTableStart).
type TransitionNumber = uint32

// Weight is the type carried on weighted transitions and final states.
type Weight = float32

// Header is the fixed-layout record at the start of every OL transducer
// stream: symbol/table/state counts plus nine advisory feature flags.
//
// The boolean flags are advisory: per spec, correctness of lookup does not
// depend on them except that Weighted selects the record size used to
// decode both tables.
type Header struct {
	NumberOfInputSymbols SymbolNumber
	NumberOfSymbols      SymbolNumber

	SizeOfTransitionIndexTable TableIndex
	SizeOfTransitionTable      TableIndex

	NumberOfStates      uint32
	NumberOfTransitions uint32

	Weighted                      bool
	Deterministic                 bool
	InputDeterministic            bool
	Minimized                     bool
	Cyclic                        bool
	HasEpsilonEpsilonTransitions  bool
	HasInputEpsilonTransitions    bool
	HasInputEpsilonCycles         bool
	HasUnweightedInputEpsilonCyc  bool
}

// TransitionSize returns the serialized byte size of one transition table
// row: 8 bytes unweighted (in, out, target), 12 weighted (+weight).
func (h *Header) TransitionSize() int {
	if h.Weighted {
		return 12
	}
	return 8
}

// readHeader reads a Header from r. Booleans are stored on disk as u32,
// where any value other than 0 or 1 is itself a sign of a malformed
// transducer.
func readHeader(r io.Reader) (*Header, error) {
	var buf [2 + 2 + 4 + 4 + 4 + 4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, &BadTransducerError{Reason: "truncated header: " + err.Error()}
	}
	h := &Header{
		NumberOfInputSymbols:       binary.LittleEndian.Uint16(buf[0:2]),
		NumberOfSymbols:            binary.LittleEndian.Uint16(buf[2:4]),
		SizeOfTransitionIndexTable: binary.LittleEndian.Uint32(buf[4:8]),
		SizeOfTransitionTable:      binary.LittleEndian.Uint32(buf[8:12]),
		NumberOfStates:             binary.LittleEndian.Uint32(buf[12:16]),
		NumberOfTransitions:        binary.LittleEndian.Uint32(buf[16:20]),
	}
	flags := make([]bool, 9)
	for i := range flags {
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, &BadTransducerError{Reason: "truncated header flags: " + err.Error()}
		}
		v := binary.LittleEndian.Uint32(b[:])
		if v != 0 && v != 1 {
			return nil, &BadTransducerError{Reason: "header boolean out of range"}
		}
		flags[i] = v == 1
	}
	h.Weighted = flags[0]
	h.Deterministic = flags[1]
	h.InputDeterministic = flags[2]
	h.Minimized = flags[3]
	h.Cyclic = flags[4]
	h.HasEpsilonEpsilonTransitions = flags[5]
	h.HasInputEpsilonTransitions = flags[6]
	h.HasInputEpsilonCycles = flags[7]
	h.HasUnweightedInputEpsilonCyc = flags[8]
	return h, nil
}

// WriteTo serializes the header in the on-disk layout. It satisfies
// io.WriterTo, the same interface Alphabet and Tables implement for their
// parts of the stream.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var buf [2 + 2 + 4 + 4 + 4 + 4]byte
	binary.LittleEndian.PutUint16(buf[0:2], h.NumberOfInputSymbols)
	binary.LittleEndian.PutUint16(buf[2:4], h.NumberOfSymbols)
	binary.LittleEndian.PutUint32(buf[4:8], h.SizeOfTransitionIndexTable)
	binary.LittleEndian.PutUint32(buf[8:12], h.SizeOfTransitionTable)
	binary.LittleEndian.PutUint32(buf[12:16], h.NumberOfStates)
	binary.LittleEndian.PutUint32(buf[16:20], h.NumberOfTransitions)
	n, err := w.Write(buf[:])
	if err != nil {
		return int64(n), err
	}
	total := int64(n)
	flags := []bool{
		h.Weighted, h.Deterministic, h.InputDeterministic, h.Minimized,
		h.Cyclic, h.HasEpsilonEpsilonTransitions, h.HasInputEpsilonTransitions,
		h.HasInputEpsilonCycles, h.HasUnweightedInputEpsilonCyc,
	}
	var fb [4]byte
	for _, f := range flags {
		if f {
			binary.LittleEndian.PutUint32(fb[:], 1)
		} else {
			binary.LittleEndian.PutUint32(fb[:], 0)
		}
		nn, err := w.Write(fb[:])
		if err != nil {
			return total, err
		}
		total += int64(nn)
	}
	return total, nil
}
