package hfstol

import (
	"io"
)

// Epsilon is always symbol number 0.
const Epsilon SymbolNumber = 0

const (
	epsilonSymbolString  = "@_EPSILON_SYMBOL_@"
	unknownSymbolString  = "@_UNKNOWN_SYMBOL_@"
	identitySymbolString = "@_IDENTITY_SYMBOL_@"
	defaultSymbolString  = "@_DEFAULT_SYMBOL_@"
)

// Alphabet is the ordered list of symbols a transducer is built over, plus
// the distinguished symbol numbers and the flag-diacritic registry derived
// from the symbol strings' lexical form.
//
// An Alphabet is not modified after it is built except through
// AppendSymbol; Clone returns a copy that can be extended without changing
// the original. Packages pmatch and speller do not extend alphabets:
// pmatch recognizes its special markers among the symbols already present.
type Alphabet struct {
	symbols []string // index == symbol number

	unknown  SymbolNumber
	identity SymbolNumber
	deflt    SymbolNumber

	// originalSymbolCount is the number of symbols present at load time;
	// any symbol number at or beyond it was appended later by AppendSymbol.
	originalSymbolCount SymbolNumber

	flags map[SymbolNumber]*FlagDiacritic
}

// NewAlphabet builds an Alphabet from an ordered symbol list. Symbol 0 must
// be the epsilon string; NewAlphabet does not enforce this (callers loading
// from a stream are expected to have already validated it) but relies on it
// for IsEpsilon.
func NewAlphabet(symbols []string) *Alphabet {
	a := &Alphabet{
		symbols:             symbols,
		unknown:             NoSymbol,
		identity:            NoSymbol,
		deflt:               NoSymbol,
		originalSymbolCount: SymbolNumber(len(symbols)),
		flags:               make(map[SymbolNumber]*FlagDiacritic),
	}
	for i, s := range symbols {
		n := SymbolNumber(i)
		switch s {
		case unknownSymbolString:
			a.unknown = n
		case identitySymbolString:
			a.identity = n
		case defaultSymbolString:
			a.deflt = n
		}
		if fd, ok := ParseFlagDiacritic(s); ok {
			a.flags[n] = fd
		}
	}
	return a
}

// readAlphabet reads symbolCount NUL-terminated strings from r, in
// increasing symbol-number order. It reads one byte at a time so that r is
// left positioned exactly at the start of the index table that follows.
func readAlphabet(r io.Reader, symbolCount int) (*Alphabet, error) {
	symbols := make([]string, 0, symbolCount)
	var cur []byte
	one := make([]byte, 1)
	for len(symbols) < symbolCount {
		if _, err := io.ReadFull(r, one); err != nil {
			return nil, &BadTransducerError{Reason: "truncated symbol table: " + err.Error()}
		}
		if one[0] == 0 {
			symbols = append(symbols, string(cur))
			cur = cur[:0]
			continue
		}
		cur = append(cur, one[0])
	}
	return NewAlphabet(symbols), nil
}

// WriteTo serializes the alphabet as NUL-terminated strings in symbol-number
// order, matching the on-disk layout readAlphabet expects.
func (a *Alphabet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, s := range a.symbols {
		n, err := io.WriteString(w, s)
		if err != nil {
			return total, err
		}
		total += int64(n)
		if _, err := w.Write([]byte{0}); err != nil {
			return total, err
		}
		total++
	}
	return total, nil
}

// Len returns the number of symbols in the alphabet.
func (a *Alphabet) Len() int { return len(a.symbols) }

// String returns the printed form of symbol n, or "" if n is out of range.
func (a *Alphabet) String(n SymbolNumber) string {
	if int(n) >= len(a.symbols) {
		return ""
	}
	return a.symbols[n]
}

// IsEpsilon reports whether n is the epsilon symbol.
func (a *Alphabet) IsEpsilon(n SymbolNumber) bool { return n == Epsilon }

// IsFlag reports whether n is a flag diacritic, and if so returns it.
func (a *Alphabet) IsFlag(n SymbolNumber) (*FlagDiacritic, bool) {
	fd, ok := a.flags[n]
	return fd, ok
}

// IsMeta reports whether a symbol's printed form is a meta symbol: it
// begins and ends with '@'. Meta symbols are elided from printed output.
func IsMeta(s string) bool {
	return len(s) >= 2 && s[0] == '@' && s[len(s)-1] == '@'
}

// Unknown, Identity, and Default return the distinguished symbol numbers,
// or NoSymbol if the alphabet does not define one.
func (a *Alphabet) Unknown() SymbolNumber  { return a.unknown }
func (a *Alphabet) Identity() SymbolNumber { return a.identity }
func (a *Alphabet) Default() SymbolNumber  { return a.deflt }

// OriginalSymbolCount returns the number of symbols present when the
// alphabet was first built, before any runtime extension appended more.
func (a *Alphabet) OriginalSymbolCount() SymbolNumber { return a.originalSymbolCount }

// AppendSymbol adds a new auxiliary symbol, returning its number. It
// modifies a in place; no package in this module calls it at load time.
func (a *Alphabet) AppendSymbol(s string) SymbolNumber {
	n := SymbolNumber(len(a.symbols))
	a.symbols = append(a.symbols, s)
	if fd, ok := ParseFlagDiacritic(s); ok {
		a.flags[n] = fd
	}
	return n
}

// Find returns the symbol number for s, or NoSymbol if it is not present.
func (a *Alphabet) Find(s string) SymbolNumber {
	for i, sym := range a.symbols {
		if sym == s {
			return SymbolNumber(i)
		}
	}
	return NoSymbol
}

// Clone returns a deep copy of the alphabet, safe to extend independently
// of the original (flag diacritics are immutable so their pointers are
// shared; the maps and slices are not).
func (a *Alphabet) Clone() *Alphabet {
	symbols := make([]string, len(a.symbols))
	copy(symbols, a.symbols)
	flags := make(map[SymbolNumber]*FlagDiacritic, len(a.flags))
	for k, v := range a.flags {
		flags[k] = v
	}
	return &Alphabet{
		symbols:             symbols,
		unknown:             a.unknown,
		identity:            a.identity,
		deflt:               a.deflt,
		originalSymbolCount: a.originalSymbolCount,
		flags:               flags,
	}
}
