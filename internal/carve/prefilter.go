package carve

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/bytecarve/bytecarve/internal/signature"
)

// prefilter answers "which magic sequences occur in this block" in one
// pass using an Aho-Corasick matcher built over every distinct magic of
// the selected formats. The sweep then only runs per-magic offset
// searches for the sequences the prefilter confirmed, instead of probing
// every block with every magic.
type prefilter struct {
	matcher *ahocorasick.Matcher

	// refs maps each matcher pattern to every (spec, magic) pair that
	// uses it. Several formats can share one magic byte-for-byte (the
	// OOXML family all start with the same refined ZIP header), so one
	// pattern hit must fan out to all of them.
	refs [][]patternRef
}

// patternRef locates one magic sequence within the selected specs.
type patternRef struct {
	specIdx  int
	magicIdx int
}

// newPrefilter builds the matcher over every distinct magic of the given
// specs.
func newPrefilter(specs []signature.Spec) *prefilter {
	pf := &prefilter{}

	var magics [][]byte
	index := make(map[string]int)
	for si, spec := range specs {
		for mi, magic := range spec.Magics {
			key := string(magic)
			pi, ok := index[key]
			if !ok {
				pi = len(magics)
				index[key] = pi
				magics = append(magics, magic)
				pf.refs = append(pf.refs, nil)
			}
			pf.refs[pi] = append(pf.refs[pi], patternRef{specIdx: si, magicIdx: mi})
		}
	}

	if len(magics) > 0 {
		pf.matcher = ahocorasick.NewMatcher(magics)
	}
	return pf
}

// hits returns, per spec index, the set of magic indexes present in
// block. The map is nil when nothing matched.
func (pf *prefilter) hits(block []byte) map[int]map[int]bool {
	if pf.matcher == nil {
		return nil
	}

	found := pf.matcher.Match(block)
	if len(found) == 0 {
		return nil
	}

	bySpec := make(map[int]map[int]bool)
	for _, pi := range found {
		for _, ref := range pf.refs[pi] {
			if bySpec[ref.specIdx] == nil {
				bySpec[ref.specIdx] = make(map[int]bool)
			}
			bySpec[ref.specIdx][ref.magicIdx] = true
		}
	}
	return bySpec
}
