package pmatch

import (
	"fmt"
	"io"

	"github.com/hfst-go/hfstol"
)

// Container holds a pmatch grammar: a top-level transducer plus the named
// RTN sub-transducers it may call into. It is immutable once built, the
// same contract hfstol.Transducer carries.
type Container struct {
	toplevel *hfstol.Transducer
	named    map[string]*hfstol.Transducer

	// specials maps, per transducer, every symbol number whose printed form
	// is a pmatch special marker to its parsed form. Computed once at
	// container build time by scanning each transducer's alphabet, since a
	// grammar may use an arbitrary number of distinct capture tags and RTN
	// call targets, each its own symbol.
	specials map[*hfstol.Transducer]map[hfstol.SymbolNumber]special
}

// NewContainerFromTransducers builds a Container from already-loaded
// transducers: toplevel is the entry grammar; named supplies every RTN it
// may call by name via an "@RTN_CALL.name@" arc.
func NewContainerFromTransducers(toplevel *hfstol.Transducer, named map[string]*hfstol.Transducer) (*Container, error) {
	if toplevel == nil {
		return nil, &hfstol.FatalInternalError{Reason: "pmatch: nil toplevel transducer"}
	}
	c := &Container{
		toplevel: toplevel,
		named:    named,
		specials: make(map[*hfstol.Transducer]map[hfstol.SymbolNumber]special),
	}
	c.specials[toplevel] = scanSpecials(toplevel)
	for _, t := range named {
		c.specials[t] = scanSpecials(t)
	}
	if err := c.validateCalls(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewContainerFromReader reads a pmatch archive from r: a toplevel OL
// transducer immediately followed by zero or more named sub-transducers,
// each preceded by a NUL-terminated name, in the same concatenated-stream
// style NewTransducerFromReader uses for a single transducer.
func NewContainerFromReader(r io.Reader) (*Container, error) {
	toplevel, err := hfstol.NewTransducerFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("pmatch: reading toplevel transducer: %w", err)
	}
	named := make(map[string]*hfstol.Transducer)
	for {
		name, err := readName(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pmatch: reading RTN name: %w", err)
		}
		t, err := hfstol.NewTransducerFromReader(r)
		if err != nil {
			return nil, fmt.Errorf("pmatch: reading RTN %q: %w", name, err)
		}
		named[name] = t
	}
	return NewContainerFromTransducers(toplevel, named)
}

// readName reads one NUL-terminated RTN name directly from r, one byte at a
// time: wrapping r in a bufio.Reader here would read ahead past the name
// into the next transducer's header, which the subsequent
// NewTransducerFromReader call needs to see from the start.
func readName(r io.Reader) (string, error) {
	var buf []byte
	one := make([]byte, 1)
	for {
		n, err := r.Read(one)
		if n == 0 && err != nil {
			if err == io.EOF && len(buf) == 0 {
				return "", io.EOF
			}
			return "", err
		}
		if one[0] == 0 {
			return string(buf), nil
		}
		buf = append(buf, one[0])
	}
}

func scanSpecials(t *hfstol.Transducer) map[hfstol.SymbolNumber]special {
	out := make(map[hfstol.SymbolNumber]special)
	for n := 0; n < t.Alphabet.Len(); n++ {
		sym := hfstol.SymbolNumber(n)
		if sp, ok := parseSpecial(t.Alphabet.String(sym)); ok {
			out[sym] = sp
		}
	}
	return out
}

// validateCalls checks that every @RTN_CALL.name@ symbol present anywhere
// in the grammar names a transducer actually supplied, per spec.md §7's
// UnsatisfiedRTN error kind.
func (c *Container) validateCalls() error {
	transducers := append([]*hfstol.Transducer{c.toplevel}, valuesOf(c.named)...)
	for _, t := range transducers {
		for _, sp := range c.specials[t] {
			if sp.kind == rtnCall {
				if _, ok := c.named[sp.arg]; !ok {
					return &hfstol.UnsatisfiedRTNError{Name: sp.arg}
				}
			}
		}
	}
	return nil
}

func valuesOf(m map[string]*hfstol.Transducer) []*hfstol.Transducer {
	out := make([]*hfstol.Transducer, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	return out
}
