package pmatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/hfst-go/hfstol"
)

// Location is one named capture span Locate reports: a byte range into the
// original input plus the weight accumulated while matching it. Input and
// Output are identical, since the pmatch engine reports which span of the
// input matched rather than a transduced string (see engine's doc comment).
type Location struct {
	Tag    string
	Start  int
	Length int
	Input  string
	Output string
	Weight float32
}

type openCapture struct {
	tag   string
	start int
}

// frame is one entry of the RTN call stack: which transducer and table
// index to resume at once the callee reaches one of its own final states.
type frame struct {
	t   *hfstol.Transducer
	ret hfstol.TableIndex
}

type onPathKey struct {
	t   *hfstol.Transducer
	idx hfstol.TableIndex
}

// acceptance is one way the grammar can consume a prefix of the input
// starting from a fixed anchor: how many tokens it consumed, the path
// weight, and (for Locate) the captures collected along the way.
type acceptance struct {
	end    int
	weight float32
	locs   []Location
}

const deadlineCheckInterval = 2048

// engine is the transient state of one Match or Locate search. Unlike
// hfstol's lookup engine it carries no output tape: pmatch reports which
// span of the input matched and what was captured, not a transduced
// string, so Output symbols on pmatch arcs (if any) are never consulted.
type engine struct {
	c       *Container
	input   []byte
	tokens  []hfstol.TokenizedSymbol
	offsets []int // offsets[i] is the byte position where token i starts; offsets[len(tokens)] is len(input)

	weightLimit float32
	deadline    time.Time
	hasDeadline bool
	sessionID   uuid.UUID

	calls         int
	timedOut      bool
	recursionLeft int
	results       []acceptance
}

func newEngine(c *Container, input string, timeCutoff time.Duration, weightCutoff float32) *engine {
	tokens := c.toplevel.Encoder.Tokenize([]byte(input))
	offsets := make([]int, len(tokens)+1)
	pos := 0
	for i, tok := range tokens {
		offsets[i] = pos
		pos += len(tok.Bytes)
	}
	offsets[len(tokens)] = pos

	e := &engine{
		c:             c,
		input:         []byte(input),
		tokens:        tokens,
		offsets:       offsets,
		weightLimit:   hfstol.InfiniteWeight,
		sessionID:     uuid.New(),
		recursionLeft: hfstol.MaxRecursionDepth,
	}
	if weightCutoff > 0 {
		e.weightLimit = weightCutoff
	}
	if timeCutoff > 0 {
		e.deadline = time.Now().Add(timeCutoff)
		e.hasDeadline = true
	}
	return e
}

func (e *engine) byteOffset(tokenPos int) int { return e.offsets[tokenPos] }

func (e *engine) timeUp() bool {
	if e.timedOut {
		return true
	}
	e.calls++
	if !e.hasDeadline || e.calls%deadlineCheckInterval != 0 {
		return false
	}
	e.timedOut = time.Now().After(e.deadline)
	return e.timedOut
}

func (e *engine) record(tokenPos int, weight float32, caps []Location) {
	capsCopy := make([]Location, len(caps))
	copy(capsCopy, caps)
	e.results = append(e.results, acceptance{end: tokenPos, weight: weight, locs: capsCopy})
}

// run explores one RTN-aware search step, mirroring hfstol/lookup.go's
// step: epsilon arcs, flag arcs, and pmatch's own special arcs are explored
// with the input position held fixed; an ordinary symbol arc advances it by
// one token. stack is the RTN call stack; caps/open track closed and
// in-progress captures.
func (e *engine) run(t *hfstol.Transducer, idx hfstol.TableIndex, tokenPos int, stack []frame, flagState *hfstol.FlagState, weight float32, caps []Location, open []openCapture, onPath map[onPathKey]bool, depth int) {
	if e.timeUp() {
		return
	}
	if e.recursionLeft == 0 {
		return
	}
	e.recursionLeft--
	defer func() { e.recursionLeft++ }()

	if weight > e.weightLimit {
		return
	}

	key := onPathKey{t: t, idx: idx}
	if onPath == nil {
		onPath = make(map[onPathKey]bool)
	}
	if onPath[key] {
		return
	}
	onPath[key] = true
	defer delete(onPath, key)

	if final, fw := t.Tables.Final(idx); final {
		if len(stack) == 0 {
			total := weight + fw
			if total <= e.weightLimit {
				e.record(tokenPos, total, caps)
			}
		} else {
			// A callee's final state returns to the caller's resume point.
			top := stack[len(stack)-1]
			e.run(top.t, top.ret, tokenPos, stack[:len(stack)-1], flagState, weight+fw, caps, open, onPath, depth+1)
		}
	}

	if eps, ok := t.Tables.EpsilonArc(idx); ok {
		e.run(t, eps.Target, tokenPos, stack, flagState, weight+eps.Weight, caps, open, onPath, depth+1)
	}
	for _, arc := range t.Tables.FlagArcs(idx, t.Alphabet) {
		fd, _ := t.Alphabet.IsFlag(arc.Input)
		branch := flagState.Clone()
		if branch.Apply(fd) {
			e.run(t, arc.Target, tokenPos, stack, branch, weight+arc.Weight, caps, open, onPath, depth+1)
		}
	}
	for sym, sp := range e.c.specials[t] {
		for _, arc := range t.Tables.NonEpsilonArcs(idx, sym) {
			e.dispatchSpecial(sp, arc, t, tokenPos, stack, flagState, weight, caps, open, onPath, depth)
		}
	}

	if tokenPos >= len(e.tokens) {
		return
	}
	tok := e.tokens[tokenPos]
	if tok.Symbol != hfstol.NoSymbol {
		for _, arc := range t.Tables.NonEpsilonArcs(idx, tok.Symbol) {
			e.run(t, arc.Target, tokenPos+1, stack, flagState, weight+arc.Weight, caps, open, nil, depth+1)
		}
	}
}

// dispatchSpecial handles a pmatch control arc reached at the current
// position: these are all zero-width (they never advance tokenPos) except
// by way of the sub-search a context check runs internally.
func (e *engine) dispatchSpecial(sp special, arc hfstol.Arc, t *hfstol.Transducer, tokenPos int, stack []frame, flagState *hfstol.FlagState, weight float32, caps []Location, open []openCapture, onPath map[onPathKey]bool, depth int) {
	switch {
	case sp.kind == rtnCall:
		callee, ok := e.c.named[sp.arg]
		if !ok {
			return // validated at container build time; defensive only
		}
		newStack := append(append([]frame{}, stack...), frame{t: t, ret: arc.Target})
		e.run(callee, 0, tokenPos, newStack, flagState, weight+arc.Weight, caps, open, onPath, depth+1)

	case sp.kind == rtnReturn:
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		e.run(top.t, top.ret, tokenPos, stack[:len(stack)-1], flagState, weight+arc.Weight, caps, open, onPath, depth+1)

	case sp.kind == captureOpen:
		newOpen := append(append([]openCapture{}, open...), openCapture{tag: sp.arg, start: tokenPos})
		e.run(t, arc.Target, tokenPos, stack, flagState, weight+arc.Weight, caps, newOpen, onPath, depth+1)

	case sp.kind == captureShut:
		i := lastOpenIndex(open, sp.arg)
		if i < 0 {
			e.run(t, arc.Target, tokenPos, stack, flagState, weight+arc.Weight, caps, open, onPath, depth+1)
			return
		}
		oc := open[i]
		newOpen := append(append([]openCapture{}, open[:i]...), open[i+1:]...)
		startByte, endByte := e.byteOffset(oc.start), e.byteOffset(tokenPos)
		text := string(e.input[startByte:endByte])
		loc := Location{
			Tag: oc.tag, Start: startByte, Length: endByte - startByte,
			Input: text, Output: text, Weight: weight,
		}
		newCaps := append(append([]Location{}, caps...), loc)
		e.run(t, arc.Target, tokenPos, stack, flagState, weight+arc.Weight, newCaps, newOpen, onPath, depth+1)

	case sp.kind.isContextStart():
		matched, resume := e.checkContext(t, arc.Target, tokenPos, sp.kind, flagState)
		if matched != sp.kind.negative() {
			e.run(t, resume, tokenPos, stack, flagState, weight+arc.Weight, caps, open, onPath, depth+1)
		}

	default:
		// Context end markers are only meaningful inside checkContext's own
		// scan; reached any other way they are a dead end for this branch.
	}
}

func lastOpenIndex(open []openCapture, tag string) int {
	for i := len(open) - 1; i >= 0; i-- {
		if open[i].tag == tag {
			return i
		}
	}
	return -1
}

func contextEndKind(start specialKind) specialKind {
	switch start {
	case lcStart:
		return lcEnd
	case rcStart:
		return rcEnd
	case nlcStart:
		return nlcEnd
	case nrcStart:
		return nrcEnd
	default:
		return notSpecial
	}
}

// checkContext evaluates one LC/RC/NLC/NRC block. A right context (RC/NRC)
// is ordinary lookahead: the sub-pattern starting at start is matched
// forward from the current position without a forced endpoint, success as
// soon as it reaches the matching end marker. A left context (LC/NLC) has
// no fixed starting point in the input, since a grammar does not declare
// how far back to look, so every candidate start position up to the
// current one is tried and the check succeeds if any of them matches the
// sub-pattern exactly up to the current position. Returns whether a match
// was found and, if so, the resume point recorded on the matching end arc.
func (e *engine) checkContext(t *hfstol.Transducer, start hfstol.TableIndex, tokenPos int, kind specialKind, flagState *hfstol.FlagState) (bool, hfstol.TableIndex) {
	wantEnd := contextEndKind(kind)
	if kind.rightward() {
		target, ok := e.ctxWalk(t, start, tokenPos, len(e.tokens), false, wantEnd, flagState, nil, 0)
		return ok, target
	}
	for k := tokenPos; k >= 0; k-- {
		if target, ok := e.ctxWalk(t, start, k, tokenPos, true, wantEnd, flagState, nil, 0); ok {
			return true, target
		}
	}
	return false, 0
}

// ctxWalk is a bounded sub-search used only by checkContext: it explores t
// from idx looking for an arc of kind wantEnd, consuming tokens in [cur,
// limit). When exact is true (a left-context check) the end marker only
// counts if it is reached with cur == limit, since the sub-pattern must
// cover exactly the candidate span; a right-context check is satisfied as
// soon as the marker is reached, since lookahead does not need to consume
// all of the remaining input.
func (e *engine) ctxWalk(t *hfstol.Transducer, idx hfstol.TableIndex, cur, limit int, exact bool, wantEnd specialKind, flagState *hfstol.FlagState, onPath map[onPathKey]bool, depth int) (hfstol.TableIndex, bool) {
	if depth >= hfstol.MaxRecursionDepth || cur > limit {
		return 0, false
	}
	key := onPathKey{t: t, idx: idx}
	if onPath == nil {
		onPath = make(map[onPathKey]bool)
	}
	if onPath[key] {
		return 0, false
	}
	onPath[key] = true
	defer delete(onPath, key)

	for sym, sp := range e.c.specials[t] {
		if sp.kind != wantEnd {
			continue
		}
		for _, arc := range t.Tables.NonEpsilonArcs(idx, sym) {
			if !exact || cur == limit {
				return arc.Target, true
			}
		}
	}
	if eps, ok := t.Tables.EpsilonArc(idx); ok {
		if target, found := e.ctxWalk(t, eps.Target, cur, limit, exact, wantEnd, flagState, onPath, depth+1); found {
			return target, true
		}
	}
	for _, arc := range t.Tables.FlagArcs(idx, t.Alphabet) {
		fd, _ := t.Alphabet.IsFlag(arc.Input)
		branch := flagState.Clone()
		if branch.Apply(fd) {
			if target, found := e.ctxWalk(t, arc.Target, cur, limit, exact, wantEnd, branch, onPath, depth+1); found {
				return target, true
			}
		}
	}
	if cur < limit && cur < len(e.tokens) {
		tok := e.tokens[cur]
		if tok.Symbol != hfstol.NoSymbol {
			for _, arc := range t.Tables.NonEpsilonArcs(idx, tok.Symbol) {
				if target, found := e.ctxWalk(t, arc.Target, cur+1, limit, exact, wantEnd, flagState, nil, depth+1); found {
					return target, true
				}
			}
		}
	}
	return 0, false
}

// Match anchors the grammar at the start of input and returns the text of
// the best (lowest-weight, longest on a tie) accepted prefix. It returns
// "" with a nil error when nothing matches; resource-limit trips are
// normal truncation, not errors, exactly as hfstol.Lookup documents.
func (c *Container) Match(input string, timeCutoff time.Duration, weightCutoff float32) (string, error) {
	e := newEngine(c, input, timeCutoff, weightCutoff)
	sessLog := logger.With().Str("session", e.sessionID.String()).Str("op", "match").Logger()
	sessLog.Debug().Str("input", input).Msg("starting match")

	e.run(c.toplevel, 0, 0, nil, hfstol.NewFlagState(), 0, nil, nil, nil, 0)
	if len(e.results) == 0 {
		sessLog.Debug().Msg("no match")
		return "", nil
	}
	best := e.results[0]
	for _, r := range e.results[1:] {
		if r.weight < best.weight || (r.weight == best.weight && r.end > best.end) {
			best = r
		}
	}
	end := e.byteOffset(best.end)
	sessLog.Debug().Int("end", end).Float32("weight", best.weight).Msg("match found")
	return string(e.input[:end]), nil
}

// Locate scans every anchor position in input and, for each that accepts,
// reports the captures collected by its best (lowest-weight) path. An
// anchor with no accepting path contributes nothing to the result.
func (c *Container) Locate(input string, timeCutoff time.Duration, weightCutoff float32) ([][]Location, error) {
	base := newEngine(c, input, timeCutoff, weightCutoff)
	sessLog := logger.With().Str("session", base.sessionID.String()).Str("op", "locate").Logger()
	sessLog.Debug().Str("input", input).Msg("starting locate")

	var out [][]Location
	for start := 0; start <= len(base.tokens); start++ {
		e := &engine{
			c:             c,
			input:         base.input,
			tokens:        base.tokens,
			offsets:       base.offsets,
			weightLimit:   base.weightLimit,
			deadline:      base.deadline,
			hasDeadline:   base.hasDeadline,
			sessionID:     base.sessionID,
			recursionLeft: hfstol.MaxRecursionDepth,
		}
		e.run(c.toplevel, 0, start, nil, hfstol.NewFlagState(), 0, nil, nil, nil, 0)
		if len(e.results) == 0 {
			continue
		}
		best := e.results[0]
		for _, r := range e.results[1:] {
			if r.weight < best.weight {
				best = r
			}
		}
		out = append(out, best.locs)
	}
	sessLog.Debug().Int("matches", len(out)).Msg("locate complete")
	return out, nil
}
