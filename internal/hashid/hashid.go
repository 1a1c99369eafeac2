// Package hashid derives stable numeric identifiers for titles that
// have no catalog id. The backend renders recommendations as free text,
// so the client must mint ids deterministically: the same title has to
// map to the same id in every batch that mentions it, or the liked
// badge would not survive across responses.
package hashid

// Sum hashes s into a non-negative 32-bit integer. The accumulator is
// h = h*31 + codepoint over wrapping int32 arithmetic, with the
// absolute value taken at the end. This must stay bit-compatible with
// the ids already stored in user preference profiles, so the algorithm
// is frozen; do not swap it for a stdlib or third-party hash.
func Sum(s string) uint32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	if h < 0 {
		// -MinInt32 overflows int32 but fits uint32.
		return uint32(-int64(h))
	}
	return uint32(h)
}
