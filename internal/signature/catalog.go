package signature

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned by Lookup when the requested format tag is
// not registered in the catalog. Callers should treat this as a user input
// error, not a scan failure.
var ErrUnknownFormat = errors.New("unknown file format")

// Size units for the MaxSize table.
const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// DefaultMaxSize is the candidate size cap applied when a Spec does not
// define one. Kept small because an uncapped candidate would otherwise be
// bounded only by the source size.
const DefaultMaxSize int64 = 10 * mib

// Spec describes one recognized file format.
//
// A Spec is immutable after catalog initialization. The zero value is not
// a valid Spec; always obtain one via Lookup or All.
type Spec struct {
	// Tag is the short format identifier used for selection, output
	// subdirectories, and statistics keys (e.g. "png").
	Tag string

	// Extension is the file extension applied to recovered candidates.
	// It equals Tag for every cataloged format but is kept separate so
	// the naming scheme does not depend on the selection key.
	Extension string

	// Magics holds the ordered magic byte sequences, any of which
	// identifies the start of a candidate.
	Magics [][]byte

	// Trailer is the byte sequence that reliably ends the format, or nil
	// if the format has no usable trailer. Formats with a trailer are
	// eligible for trailer-bounded extraction under deep scan.
	Trailer []byte

	// Validation holds substrings of which at least one must occur
	// somewhere in an extracted candidate for it to be accepted. An
	// empty set means the candidate is accepted on size alone.
	Validation [][]byte

	// MaxSize caps the extracted candidate length in bytes.
	MaxSize int64

	// Binary marks formats whose body is opaque binary data. The
	// heuristic extractor accepts every chunk of a binary format and
	// relies on the size cap alone; non-binary (text-leaning) formats
	// get a per-chunk printable-ratio check instead. Every cataloged
	// format is binary.
	Binary bool

	// Container marks archive-based formats (ZIP and the OOXML family)
	// that embed internal path markers. Container formats get a larger
	// heuristic probe and an early marker-based rejection.
	Container bool

	// ProbeMarker is the internal marker that must appear in the
	// heuristic probe chunk of a container format, or extraction aborts
	// immediately. Nil for non-container formats.
	ProbeMarker []byte
}

// HasTrailer reports whether the format defines a trailer sequence.
func (s Spec) HasTrailer() bool {
	return len(s.Trailer) > 0
}

// EffectiveMaxSize returns MaxSize, or DefaultMaxSize when unset.
func (s Spec) EffectiveMaxSize() int64 {
	if s.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return s.MaxSize
}

// ooxmlMagic is the local-file-header variant emitted by Office writers.
// It is a strict refinement of the generic ZIP magic, so OOXML formats hit
// wherever plain ZIP would, with the extra bytes narrowing the match.
var ooxmlMagic = []byte{0x50, 0x4B, 0x03, 0x04, 0x14, 0x00, 0x06, 0x00}

// contentTypesMarker appears in every OOXML archive.
var contentTypesMarker = []byte("[Content_Types].xml")

// catalog holds every registered format in default selection order.
// The order is stable and user-visible: DefaultTags, the formats command,
// and per-block format iteration all follow it.
var catalog = []Spec{
	{
		Tag:       "jpg",
		Binary:    true,
		Extension: "jpg",
		Magics: [][]byte{
			{0xFF, 0xD8, 0xFF, 0xE0},
			{0xFF, 0xD8, 0xFF, 0xE1},
		},
		Trailer: []byte{0xFF, 0xD9},
		MaxSize: 30 * mib,
	},
	{
		Tag:       "png",
		Binary:    true,
		Extension: "png",
		Magics: [][]byte{
			{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
		},
		Trailer: []byte{0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82},
		MaxSize: 50 * mib,
	},
	{
		Tag:       "gif",
		Binary:    true,
		Extension: "gif",
		Magics: [][]byte{
			[]byte("GIF87a"),
			[]byte("GIF89a"),
		},
		Trailer: []byte{0x00, 0x3B},
		MaxSize: 20 * mib,
	},
	{
		Tag:       "pdf",
		Binary:    true,
		Extension: "pdf",
		Magics: [][]byte{
			[]byte("%PDF"),
		},
		Trailer:    []byte("%%EOF"),
		Validation: [][]byte{[]byte("obj"), []byte("endobj")},
		MaxSize:    100 * mib,
	},
	{
		Tag:       "zip",
		Binary:    true,
		Extension: "zip",
		Magics: [][]byte{
			{0x50, 0x4B, 0x03, 0x04},
		},
		Validation:  [][]byte{{0x50, 0x4B, 0x01, 0x02}},
		MaxSize:     200 * mib,
		Container:   true,
		ProbeMarker: []byte{0x50, 0x4B, 0x01, 0x02},
	},
	{
		Tag:         "docx",
		Binary:      true,
		Extension:   "docx",
		Magics:      [][]byte{ooxmlMagic},
		Validation:  [][]byte{[]byte("word/"), contentTypesMarker},
		MaxSize:     50 * mib,
		Container:   true,
		ProbeMarker: []byte("word/"),
	},
	{
		Tag:         "xlsx",
		Binary:      true,
		Extension:   "xlsx",
		Magics:      [][]byte{ooxmlMagic},
		Validation:  [][]byte{[]byte("xl/"), contentTypesMarker},
		MaxSize:     50 * mib,
		Container:   true,
		ProbeMarker: []byte("xl/"),
	},
	{
		Tag:         "pptx",
		Binary:      true,
		Extension:   "pptx",
		Magics:      [][]byte{ooxmlMagic},
		Validation:  [][]byte{[]byte("ppt/"), contentTypesMarker},
		MaxSize:     100 * mib,
		Container:   true,
		ProbeMarker: []byte("ppt/"),
	},
	{
		Binary:    true,
		Tag:       "mp3",
		Extension: "mp3",
		Magics: [][]byte{
			[]byte("ID3"),
		},
		MaxSize: 50 * mib,
	},
	{
		Binary:    true,
		Tag:       "mp4",
		Extension: "mp4",
		Magics: [][]byte{
			{0x00, 0x00, 0x00, 0x18, 0x66, 0x74, 0x79, 0x70},
		},
		MaxSize: 1 * gib,
	},
	{
		Tag:       "avi",
		Binary:    true,
		Extension: "avi",
		Magics: [][]byte{
			[]byte("RIFF"),
		},
		MaxSize: 1 * gib,
	},
}

// byTag indexes the catalog for Lookup. Built once at init.
var byTag = func() map[string]Spec {
	m := make(map[string]Spec, len(catalog))
	for _, s := range catalog {
		m[s.Tag] = s
	}
	return m
}()

// Lookup returns the Spec registered for tag.
// It returns an error wrapping ErrUnknownFormat when tag is not cataloged.
func Lookup(tag string) (Spec, error) {
	s, ok := byTag[tag]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownFormat, tag)
	}
	return s, nil
}

// DefaultTags returns every cataloged format tag in catalog order.
// This is the selection used when the caller names no explicit subset.
func DefaultTags() []string {
	tags := make([]string, 0, len(catalog))
	for _, s := range catalog {
		tags = append(tags, s.Tag)
	}
	return tags
}

// All returns every cataloged Spec in catalog order.
// The returned slice is a copy; mutating it does not affect the catalog.
func All() []Spec {
	specs := make([]Spec, len(catalog))
	copy(specs, catalog)
	return specs
}
