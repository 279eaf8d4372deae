package carve

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/bytecarve/bytecarve/internal/signature"
	"github.com/bytecarve/bytecarve/internal/source"
)

// Extraction tuning.
const (
	// chunkSize is the forward-read granularity of both strategies.
	chunkSize = 4096

	// containerProbeSize is the larger initial probe for archive-based
	// container formats, sized so the internal path markers near the
	// start of the archive land inside the probe.
	containerProbeSize = 16384

	// invalidChunkLimit is the number of invalid chunks the heuristic
	// tolerates before trimming and returning.
	invalidChunkLimit = 3

	// markerGraceChunks is how many chunks a container format may run
	// without its light per-chunk marker before marker absence starts
	// counting as invalid.
	markerGraceChunks = 10

	// printableThreshold is the minimum fraction of printable bytes for
	// a chunk of a text-leaning format to count as valid.
	printableThreshold = 0.7
)

// containerChunkMarker is the light per-chunk marker for container
// formats: ZIP entry headers repeat "PK" throughout a real archive.
var containerChunkMarker = []byte("PK")

// Extractor delimits candidate content starting at a confirmed signature
// offset. It owns no state beyond its collaborators and is reused for
// every hit of a session.
type Extractor struct {
	src      *source.Source
	deepScan bool
	logger   *slog.Logger
}

// NewExtractor creates an Extractor reading from src. When deepScan is
// set, formats with a trailer use trailer-bounded extraction; everything
// else falls back to heuristic truncation.
func NewExtractor(src *source.Source, deepScan bool, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		src:      src,
		deepScan: deepScan,
		logger:   logger,
	}
}

// Extract reads forward from offset and returns the delimited candidate
// bytes, or nil when no viable candidate exists there ("no candidate" is
// not an error). maxLen caps the candidate length; callers pass the
// format's maximum size, possibly clipped by the scan ceiling.
//
// The scan cursor is restored after every extraction attempt, succeed or
// fail, so the outer sweep's position invariant is never corrupted.
func (e *Extractor) Extract(spec signature.Spec, offset int64, maxLen int64) []byte {
	cur, err := e.src.Tell()
	if err != nil {
		e.logger.Error("cannot read scan cursor before extraction", "error", err)
		return nil
	}
	defer func() {
		if _, err := e.src.Seek(cur, io.SeekStart); err != nil {
			e.logger.Error("cannot restore scan cursor after extraction", "error", err)
		}
	}()

	if _, err := e.src.Seek(offset, io.SeekStart); err != nil {
		e.logger.Error("cannot seek to candidate start", "offset", offset, "error", err)
		return nil
	}

	if maxLen <= 0 {
		return nil
	}

	if e.deepScan && spec.HasTrailer() {
		return e.readUntilTrailer(spec.Trailer, maxLen)
	}
	return e.readHeuristic(spec, maxLen)
}

// readUntilTrailer accumulates fixed chunks until the trailer sequence
// appears, then truncates immediately after it. Each newly read region is
// searched together with a small overlap window covering the previous
// chunk boundary, so a trailer split across a chunk seam is still found.
//
// If maxLen is reached with no trailer, the partial buffer is returned
// only when it exceeds the minimum viable length.
func (e *Extractor) readUntilTrailer(trailer []byte, maxLen int64) []byte {
	var buffer []byte
	chunk := make([]byte, chunkSize)

	for int64(len(buffer)) < maxLen {
		n := int64(chunkSize)
		if remaining := maxLen - int64(len(buffer)); remaining < n {
			n = remaining
		}

		read, err := e.src.Read(chunk[:n])
		if read > 0 {
			buffer = append(buffer, chunk[:read]...)

			searchFrom := len(buffer) - len(trailer) - read
			if searchFrom < 0 {
				searchFrom = 0
			}
			if idx := bytes.Index(buffer[searchFrom:], trailer); idx != -1 {
				return buffer[:searchFrom+idx+len(trailer)]
			}
		}
		if err != nil {
			if err != io.EOF {
				e.logger.Error("read error during trailer search", "error", err)
			}
			break
		}
		if read == 0 {
			break
		}
	}

	if len(buffer) > MinCandidateSize {
		return buffer
	}
	return nil
}

// readHeuristic delimits a candidate without a trailer: an initial probe
// (larger for container formats), an early marker-based rejection for
// containers, then chunked accumulation with a running valid/invalid
// count. Once invalid chunks exceed the limit, the buffer is trimmed back
// by the estimated invalid trailing region.
func (e *Extractor) readHeuristic(spec signature.Spec, maxLen int64) []byte {
	probeSize := int64(chunkSize)
	if spec.Container {
		probeSize = containerProbeSize
	}
	if probeSize > maxLen {
		probeSize = maxLen
	}

	probe := make([]byte, probeSize)
	n, err := e.src.Read(probe)
	if n == 0 {
		if err != nil && err != io.EOF {
			e.logger.Error("read error on heuristic probe", "error", err)
		}
		return nil
	}
	probe = probe[:n]

	// Cheap early rejection: a real container embeds its internal path
	// marker near the start, before any long read is committed to.
	if spec.Container && !bytes.Contains(probe, spec.ProbeMarker) {
		e.logger.Debug("container probe marker missing",
			"format", spec.Tag,
			"marker", spec.ProbeMarker,
		)
		return nil
	}

	buffer := probe
	validChunks := 0
	invalidChunks := 0
	chunk := make([]byte, chunkSize)

	for int64(len(buffer)) < maxLen {
		want := int64(chunkSize)
		if remaining := maxLen - int64(len(buffer)); remaining < want {
			want = remaining
		}

		read, err := e.src.Read(chunk[:want])
		if read > 0 {
			buffer = append(buffer, chunk[:read]...)

			if e.chunkValid(spec, chunk[:read], validChunks) {
				validChunks++
			} else {
				invalidChunks++
			}

			if invalidChunks > invalidChunkLimit {
				trim := len(buffer) - invalidChunks*chunkSize
				if trim < 0 {
					trim = 0
				}
				return buffer[:trim]
			}
		}
		if err != nil {
			if err != io.EOF {
				e.logger.Error("read error during heuristic extraction", "error", err)
			}
			break
		}
		if read == 0 {
			break
		}
	}

	return buffer
}

// chunkValid classifies one chunk for the heuristic's running count.
//
// Container formats stay valid as long as ZIP entry markers keep
// appearing; marker absence only counts against the candidate after
// enough valid chunks have accumulated. Binary formats are always valid:
// their content is indistinguishable from noise chunk by chunk, so only
// the size cap bounds them. Text-leaning formats need a printable
// majority.
func (e *Extractor) chunkValid(spec signature.Spec, chunk []byte, validChunks int) bool {
	if spec.Container {
		return bytes.Contains(chunk, containerChunkMarker) || validChunks <= markerGraceChunks
	}
	if spec.Binary {
		return true
	}
	return printableRatio(chunk) >= printableThreshold
}

// printableRatio returns the fraction of bytes that are printable ASCII
// or common whitespace control codes (tab, LF, CR).
func printableRatio(chunk []byte) float64 {
	if len(chunk) == 0 {
		return 0
	}
	printable := 0
	for _, b := range chunk {
		if (b >= 32 && b <= 126) || b == '\t' || b == '\n' || b == '\r' {
			printable++
		}
	}
	return float64(printable) / float64(len(chunk))
}
