// Package speller implements spell correction over a pair of OL
// transducers: an error model that enumerates plausible corrections for a
// misspelled surface form, and a lexicon that accepts only correctly
// spelled ones.
package speller

import (
	"sort"
	"strings"

	"github.com/hfst-go/hfstol"
)

// Speller corrects input against an error-model transducer, keeping only
// the candidates lexicon itself accepts.
type Speller struct {
	errorModel *hfstol.Transducer
	lexicon    *hfstol.Transducer

	// translate maps every ordinary symbol number errorModel's transitions
	// can output to its counterpart in lexicon's alphabet. Epsilon, unknown, identity,
	// and flag diacritics need no entry: they carry no lexicon-specific
	// text and are skipped wherever this table would otherwise be
	// consulted.
	translate map[hfstol.SymbolNumber]hfstol.SymbolNumber
}

// Correction is one accepted spelling correction: the lexicon-accepted
// surface form and the combined weight of producing it (the error model's
// edit weight plus the lexicon's weight for accepting it).
type Correction struct {
	Output string
	Weight float32
}

// exempt reports whether sym needs no cross-alphabet counterpart: it
// carries no lexicon-specific text of its own.
func exempt(a *hfstol.Alphabet, sym hfstol.SymbolNumber) bool {
	if sym == hfstol.Epsilon || sym == a.Unknown() || sym == a.Identity() {
		return true
	}
	_, isFlag := a.IsFlag(sym)
	return isFlag
}

// New builds a Speller, translating errorModel's alphabet into lexicon's.
// Every ordinary symbol errorModel can produce as output must have a
// same-spelled counterpart in lexicon's alphabet; one that doesn't raises
// AlphabetTranslationError (spec.md §7).
func New(errorModel, lexicon *hfstol.Transducer) (*Speller, error) {
	lexByString := make(map[string]hfstol.SymbolNumber, lexicon.Alphabet.Len())
	for n := 0; n < lexicon.Alphabet.Len(); n++ {
		sym := hfstol.SymbolNumber(n)
		lexByString[lexicon.Alphabet.String(sym)] = sym
	}

	translate := make(map[hfstol.SymbolNumber]hfstol.SymbolNumber)
	for _, entry := range errorModel.Tables.Transition {
		sym := entry.Output
		if sym == hfstol.NoSymbol || exempt(errorModel.Alphabet, sym) {
			continue
		}
		if _, done := translate[sym]; done {
			continue
		}
		s := errorModel.Alphabet.String(sym)
		target, ok := lexByString[s]
		if !ok {
			return nil, &hfstol.AlphabetTranslationError{Symbol: s}
		}
		translate[sym] = target
	}

	return &Speller{errorModel: errorModel, lexicon: lexicon, translate: translate}, nil
}

// decode renders an errorModel output symbol sequence as a lexicon-alphabet
// surface string, eliding meta symbols the same way renderOutput does. ok
// is false only if syms contains a symbol New did not see at build time,
// which should not happen for output produced by errorModel itself.
func (sp *Speller) decode(syms []hfstol.SymbolNumber) (string, bool) {
	var b strings.Builder
	for _, sym := range syms {
		if exempt(sp.errorModel.Alphabet, sym) {
			continue
		}
		target, ok := sp.translate[sym]
		if !ok {
			return "", false
		}
		s := sp.lexicon.Alphabet.String(target)
		if hfstol.IsMeta(s) {
			continue
		}
		b.WriteString(s)
	}
	return b.String(), true
}

// Correct runs the error model over input to enumerate candidate
// corrections, keeps only the ones lexicon itself accepts as a valid
// surface form, and sums the two transducers' weights per candidate.
// weightLimit <= 0 means no weight ceiling; limit <= 0 means return every
// accepted candidate.
func (sp *Speller) Correct(input string, limit int, weightLimit float32) ([]Correction, error) {
	pairs := sp.errorModel.LookupPairs(input, 0, 0)

	seen := make(map[string]bool, len(pairs))
	var out []Correction
	for _, p := range pairs {
		candidate, ok := sp.decode(p.Output)
		if !ok || seen[candidate] {
			continue
		}
		lexResults := sp.lexicon.Lookup(candidate, 1, 0)
		if len(lexResults) == 0 {
			continue
		}
		total := p.Weight + lexResults[0].Weight
		if weightLimit > 0 && total > weightLimit {
			continue
		}
		seen[candidate] = true
		out = append(out, Correction{Output: candidate, Weight: total})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Weight < out[j].Weight })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
