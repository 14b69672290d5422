package value

import "golang.org/x/crypto/blake2b"

// Interner pools string objects by content so that equality and hashing can
// use pointer identity for the common case of repeated string literals
// (module names, field names, dict keys) across a single compilation
// context, per the specification's "strings are interned per context"
// invariant.
//
// Keys are a blake2b-256 digest of the string content rather than the raw
// string, so the bucket table stays fixed-size per entry regardless of
// string length — useful for contexts that intern many long string
// constants (e.g. multi-KB literal templates).
type Interner struct {
	buckets map[[32]byte][]*Object
}

func NewInterner() *Interner {
	return &Interner{buckets: map[[32]byte][]*Object{}}
}

// Intern returns the pooled *Object for s, allocating one on first sight.
func (in *Interner) Intern(s string) *Object {
	h := blake2b.Sum256([]byte(s))
	for _, o := range in.buckets[h] {
		if o.Str == s {
			return o
		}
	}
	o := Str(s)
	in.buckets[h] = append(in.buckets[h], o)
	return o
}
