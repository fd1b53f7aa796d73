// Package pmatch implements the RTN (recursive transition network)
// interpreter: a pmatch grammar is a top-level transducer plus zero or more
// named sub-transducers it can call into, stitched together at dedicated
// call/return marker symbols rather than inlined into one flat graph.
//
// Entry/exit tags around a sub-pattern (hfst-pmatch's "captures") and
// left/right context assertions are likewise encoded as ordinary symbols in
// a transducer's alphabet rather than as a separate data structure; see
// special.go for their lexical form and container.go for how a Container
// recognizes them once loaded.
package pmatch
