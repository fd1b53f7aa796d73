package hfstol

import "io"

// Transducer is an immutable, loaded optimized-lookup transducer: a
// header, an alphabet, the packed tables, and the encoder derived from the
// alphabet's input symbols. Once constructed a Transducer performs no
// further allocation of its own state; every query allocates its own
// transient search context.
type Transducer struct {
	Header   *Header
	Alphabet *Alphabet
	Tables   *Tables
	Encoder  *Encoder
}

// NewTransducerFromReader reads a complete OL transducer from r: header,
// symbol table, index table, transition table, in that order, exactly as
// laid out on disk.
func NewTransducerFromReader(r io.Reader) (*Transducer, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	alphabet, err := readAlphabet(r, int(h.NumberOfSymbols))
	if err != nil {
		return nil, err
	}
	tables, err := readTables(r, h)
	if err != nil {
		return nil, err
	}
	if len(tables.IndexRows) == 0 {
		return nil, &BadTransducerError{Reason: "empty index table: no start state"}
	}
	enc := NewEncoder(alphabet, int(h.NumberOfInputSymbols))
	return &Transducer{Header: h, Alphabet: alphabet, Tables: tables, Encoder: enc}, nil
}

// NewTransducer assembles a Transducer from already-built components,
// used by package convert once it has packed a basic graph into tables.
func NewTransducer(h *Header, alphabet *Alphabet, tables *Tables) *Transducer {
	return &Transducer{
		Header:   h,
		Alphabet: alphabet,
		Tables:   tables,
		Encoder:  NewEncoder(alphabet, int(h.NumberOfInputSymbols)),
	}
}

// WriteTo serializes the transducer in the on-disk layout
// NewTransducerFromReader expects: header, symbol table, index table,
// transition table.
func (t *Transducer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := t.Header.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = t.Alphabet.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}
	n, err = t.Tables.WriteTo(w)
	total += n
	if err != nil {
		return total, err
	}
	return total, nil
}

// IsWeighted reports whether transitions and final states carry weights.
func (t *Transducer) IsWeighted() bool { return t.Header.Weighted }
