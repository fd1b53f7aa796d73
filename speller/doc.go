// Package speller corrects misspelled input by composing two independently
// loaded OL transducers: an error model (candidate corrections plus an
// edit weight) and a lexicon (which of those candidates are real words).
// See New and Speller.Correct.
package speller
