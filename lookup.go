package hfstol

import (
	"sort"
	"strings"
	"time"
)

// Result is one output of Lookup: an analysis string and its weight (0 for
// an unweighted transducer).
type Result struct {
	Output string
	Weight Weight
}

// PairResult is one output of LookupPairs: the parallel input and output
// symbol sequences that produced a Result, before they were rendered to
// strings.
type PairResult struct {
	Input  []SymbolNumber
	Output []SymbolNumber
	Weight Weight

	// outputRaw holds, for each Output position an identity transition
	// produced from an out-of-alphabet input chunk, the literal bytes
	// consumed; nil elsewhere. Only renderOutput reads this — it exists so
	// identity output can be rendered without interning a new symbol into
	// the shared Alphabet.
	outputRaw [][]byte
}

// outputTape is the output symbol tape accumulated during a search, plus a
// parallel raw-bytes tape for positions an identity transition rendered
// from out-of-alphabet input. Threaded by value through step's recursion
// the same way a lone []SymbolNumber was before, so the two slices grow in
// lockstep down every branch.
type outputTape struct {
	syms []SymbolNumber
	raw  [][]byte
}

func (o outputTape) push(sym SymbolNumber) outputTape {
	return outputTape{syms: append(o.syms, sym), raw: append(o.raw, nil)}
}

func (o outputTape) pushRaw(sym SymbolNumber, raw []byte) outputTape {
	return outputTape{syms: append(o.syms, sym), raw: append(o.raw, raw)}
}

// deadlineCheckInterval is how many recursive calls elapse between
// wall-clock deadline samples, per spec.md §4.4's "checked every N
// recursive calls" cutoff.
const deadlineCheckInterval = 2048

type lookupSearch struct {
	t *Transducer

	input []TokenizedSymbol

	limit       int
	weightLimit Weight
	deadline    time.Time
	hasDeadline bool

	calls             int
	timedOut          bool
	limitReached      bool
	hitRecursionFloor bool
	recursionLeft     int

	pairs []PairResult
}

func (t *Transducer) newSearch(input string, limit int, timeCutoff time.Duration) *lookupSearch {
	s := &lookupSearch{
		t:             t,
		input:         t.Encoder.Tokenize([]byte(input)),
		limit:         limit,
		weightLimit:   InfiniteWeight,
		recursionLeft: MaxRecursionDepth,
	}
	if timeCutoff > 0 {
		s.deadline = time.Now().Add(timeCutoff)
		s.hasDeadline = true
	}
	return s
}

func (s *lookupSearch) timeUp() bool {
	if s.timedOut {
		return true
	}
	s.calls++
	if !s.hasDeadline || s.calls%deadlineCheckInterval != 0 {
		return false
	}
	if time.Now().After(s.deadline) {
		s.limitReached = true
		s.timedOut = true
		return true
	}
	return false
}

func (s *lookupSearch) resultCap() bool {
	return s.limit > 0 && len(s.pairs) >= s.limit
}

func pathKey(idx TableIndex, fs *FlagState) string {
	var b strings.Builder
	b.WriteString(itoa32(idx))
	b.WriteByte('|')
	keys := make([]string, 0, len(fs.values))
	for k := range fs.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fs.values[k]
		b.WriteString(k)
		b.WriteByte('=')
		if v.negative {
			b.WriteByte('!')
		}
		b.WriteString(itoa32(uint32(v.id)))
		b.WriteByte(';')
	}
	return b.String()
}

func itoa32(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Lookup enumerates the output strings the input surface string maps to,
// honoring flag diacritics. limit <= 0 means "return all results". A
// deadline of timeCutoff <= 0 means no wall-clock limit.
//
// Resource-limit trips (result count, deadline, weight ceiling, recursion
// depth) are not errors: Lookup simply returns whatever results the search
// gathered before truncating, per spec.md §7.
func (t *Transducer) Lookup(input string, limit int, timeCutoff time.Duration) []Result {
	pairs := t.LookupPairs(input, limit, timeCutoff)
	out := make([]Result, len(pairs))
	for i, p := range pairs {
		out[i] = Result{Output: t.renderOutput(p), Weight: p.Weight}
	}
	return out
}

// LookupPairs is Lookup but returns the raw parallel input/output symbol
// sequences instead of rendered strings.
func (t *Transducer) LookupPairs(input string, limit int, timeCutoff time.Duration) []PairResult {
	s := t.newSearch(input, limit, timeCutoff)
	flagState := NewFlagState()
	s.search(0, 0, flagState, outputTape{})
	return s.pairs
}

// renderOutput joins the meta-elided printed forms of an output symbol
// sequence, per spec.md §3's rule that symbols whose printed form is
// "@...@" are elided from printed output. A position produced by an
// identity transition on out-of-alphabet input renders its raw bytes
// verbatim instead of looking up a symbol number.
func (t *Transducer) renderOutput(p PairResult) string {
	var b strings.Builder
	for i, sym := range p.Output {
		if i < len(p.outputRaw) && p.outputRaw[i] != nil {
			b.Write(p.outputRaw[i])
			continue
		}
		s := t.Alphabet.String(sym)
		if IsMeta(s) {
			continue
		}
		b.WriteString(s)
	}
	return b.String()
}

// search is the depth-first traversal described in spec.md §4.4. inputPos
// indexes into s.input; idx is the current table index; flagState is the
// flag-diacritic state on the current path; out is the output symbol tape
// accumulated so far. weight is threaded as an explicit parameter because
// Go has no implicit mutable call-stack state to lean on the way the
// teacher's recursive helpers do with struct fields.
func (s *lookupSearch) search(inputPos int, idx TableIndex, flagState *FlagState, out outputTape) {
	s.step(inputPos, idx, flagState, out, 0, nil)
}

// step explores epsilon, flag, and input-consuming transitions leaving
// idx. onPath tracks (table index, flag state) pairs visited purely via
// epsilon/flag moves since the last input symbol was consumed: revisiting
// one is the only way a cyclic epsilon graph could recurse forever at a
// fixed input position, so it is a no-op (spec.md §4.4's epsilon-cycle
// guard). onPath is local to one input position's epsilon closure — a new,
// empty onPath is started every time an input symbol is actually consumed,
// since a transducer looping back to the same state while advancing
// through input is an ordinary cyclic automaton, not an infinite loop.
func (s *lookupSearch) step(inputPos int, idx TableIndex, flagState *FlagState, out outputTape, weight Weight, onPath map[string]bool) {
	if s.resultCap() || s.timeUp() {
		return
	}
	if s.recursionLeft == 0 {
		s.limitReached = true
		s.hitRecursionFloor = true
		return
	}
	s.recursionLeft--
	defer func() { s.recursionLeft++ }()

	if weight > s.weightLimit {
		return
	}

	// Epsilon-cycle guard must run before recording a result: otherwise a
	// cyclic epsilon path that returns to a state already final at this
	// input position would record the same result once per trip around
	// the cycle instead of exactly once (spec.md §8 scenario 4).
	if onPath == nil {
		onPath = make(map[string]bool)
	}
	key := pathKey(idx, flagState)
	if onPath[key] {
		return
	}
	onPath[key] = true
	defer delete(onPath, key)

	if inputPos == len(s.input) {
		if final, fw := s.t.Tables.Final(idx); final {
			total := weight + fw
			if total <= s.weightLimit {
				outCopy := make([]SymbolNumber, len(out.syms))
				copy(outCopy, out.syms)
				rawCopy := make([][]byte, len(out.raw))
				copy(rawCopy, out.raw)
				inCopy := make([]SymbolNumber, 0, inputPos)
				for i := 0; i < inputPos; i++ {
					inCopy = append(inCopy, s.input[i].Symbol)
				}
				s.pairs = append(s.pairs, PairResult{Input: inCopy, Output: outCopy, outputRaw: rawCopy, Weight: total})
			}
		}
	}

	if eps, ok := s.t.Tables.EpsilonArc(idx); ok {
		if s.resultCap() {
			return
		}
		s.step(inputPos, eps.Target, flagState, out.push(eps.Output), weight+eps.Weight, onPath)
	}

	for _, arc := range s.t.Tables.FlagArcs(idx, s.t.Alphabet) {
		if s.resultCap() {
			return
		}
		fd, _ := s.t.Alphabet.IsFlag(arc.Input)
		branch := flagState.Clone()
		if branch.Apply(fd) {
			s.step(inputPos, arc.Target, branch, out.push(Epsilon), weight+arc.Weight, onPath)
		}
	}

	if inputPos >= len(s.input) {
		return
	}
	tok := s.input[inputPos]
	found := false
	if tok.Symbol != NoSymbol {
		for _, arc := range s.t.Tables.NonEpsilonArcs(idx, tok.Symbol) {
			if s.resultCap() {
				return
			}
			found = true
			s.step(inputPos+1, arc.Target, flagState, out.push(arc.Output), weight+arc.Weight, nil)
		}
	}
	if found {
		return
	}

	identity := s.t.Alphabet.Identity()
	if identity != NoSymbol && tok.Symbol == NoSymbol {
		for _, arc := range s.t.Tables.NonEpsilonArcs(idx, identity) {
			if s.resultCap() {
				return
			}
			found = true
			s.step(inputPos+1, arc.Target, flagState, out.pushRaw(identity, tok.Bytes), weight+arc.Weight, nil)
		}
	}
	unknown := s.t.Alphabet.Unknown()
	if unknown != NoSymbol && tok.Symbol == NoSymbol {
		for _, arc := range s.t.Tables.NonEpsilonArcs(idx, unknown) {
			if s.resultCap() {
				return
			}
			found = true
			s.step(inputPos+1, arc.Target, flagState, out.push(arc.Output), weight+arc.Weight, nil)
		}
	}
	if found {
		return
	}
	if def, ok := s.t.Tables.DefaultArc(idx, s.t.Alphabet); ok {
		s.step(inputPos+1, def.Target, flagState, out.push(def.Output), weight+def.Weight, nil)
	}
}

// IsLookupInfinitelyAmbiguous reports whether looking up input could
// recurse without bound: the DFS is run to MaxRecursionDepth with an
// unbounded result count and a 200ms deadline, and the outcome is true
// iff the search had to abandon a path purely because it exhausted
// recursion depth, which only happens on a path that never revisits an
// exact (state, flag-state) pair yet never reaches a final state either
// (e.g. a flag diacritic that mutates on every loop iteration).
func (t *Transducer) IsLookupInfinitelyAmbiguous(input string) bool {
	s := t.newSearch(input, -1, 200*time.Millisecond)
	flagState := NewFlagState()
	s.search(0, 0, flagState, outputTape{})
	return s.hitRecursionFloor
}
