// Package hfstol implements the optimized-lookup (OL) finite-state
// transducer runtime used by morphological analysis and pattern-matching
// tools: a packed, immutable binary transducer format plus the lookup
// engine that traverses it.
//
// # Overview
//
// A Transducer is loaded once from a byte stream (or converted from a
// basic in-memory graph by the sibling convert package) and is thereafter
// read-only. It can be queried with Lookup to enumerate the output strings
// an input surface form maps to, honoring flag diacritics encoded in the
// symbol alphabet.
//
// # On-disk format
//
// A transducer is a header, a NUL-terminated symbol table, a transition
// index table, and a transition table, all little-endian. See Header,
// Alphabet, and the Tables type for the exact layout; the format is
// described in full in the package's design notes.
//
// # Basic usage
//
//	t, err := hfstol.NewTransducerFromReader(r)
//	if err != nil {
//	    // handle
//	}
//	for _, res := range t.Lookup("cats", -1, 0) {
//	    fmt.Println(res.Output, res.Weight)
//	}
//
// # Related packages
//
// Package hfstol/pmatch layers a recursive-transition-network interpreter
// on top of this runtime for left-to-right pattern matching. Package
// hfstol/convert builds a Transducer from an in-memory basic graph.
// Package hfstol/speller implements two-transducer spell correction.
//
// # Concurrency
//
// A Transducer is immutable after construction and safe for concurrent use
// by multiple goroutines. Each call to Lookup allocates its own transient
// search state.
package hfstol
