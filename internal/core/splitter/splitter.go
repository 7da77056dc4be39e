// Package splitter cuts plain text into bounded, overlapping chunks for
// embedding and retrieval. Splitting is hierarchical: paragraph breaks are
// preferred over sentence breaks, sentence breaks over word breaks, and a
// raw character cut is the last resort.
package splitter

// Separator groups in preference order. A cut lands just after the
// separator so no content is lost.
var separatorGroups = [][][]rune{
	{[]rune("\n\n")},
	{[]rune("\n"), []rune(". "), []rune("! "), []rune("? ")},
	{[]rune(" ")},
}

// Splitter is a pure, deterministic chunker. Identical input always yields
// an identical chunk sequence.
type Splitter struct {
	maxSize int // maximum chunk length in runes
	overlap int // runes shared between consecutive chunks
}

// New validates the chunking configuration. Overlap must be strictly less
// than maxSize; violating that is a configuration error, not a runtime one.
func New(maxSize, overlap int) (*Splitter, error) {
	if maxSize <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, ErrOverlapTooLarge
	}
	return &Splitter{maxSize: maxSize, overlap: overlap}, nil
}

// Split cuts text into ordered chunks of at most maxSize runes. Each chunk
// after the first repeats exactly the trailing overlap runes of its
// predecessor, so stripping that prefix from every chunk but the first
// reconstructs the input. Text shorter than maxSize comes back as a single
// chunk with no overlap applied; empty text yields no chunks.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var out []string
	start := 0
	for {
		end := start + s.maxSize
		if end >= n {
			out = append(out, string(runes[start:n]))
			return out
		}
		cut := s.findCut(runes, start, end)
		out = append(out, string(runes[start:cut]))
		start = cut - s.overlap
	}
}

// findCut picks the cut position in (start+overlap, end], trying the
// largest structural boundary first. The lower bound is strict so the next
// chunk always starts past the current one and the loop makes progress.
func (s *Splitter) findCut(runes []rune, start, end int) int {
	lo := start + s.overlap
	for _, group := range separatorGroups {
		best := -1
		for _, sep := range group {
			if p := lastCutAfter(runes, sep, lo, end); p > best {
				best = p
			}
		}
		if best > 0 {
			return best
		}
	}
	// No boundary in range; cut at the hard limit.
	return end
}

// lastCutAfter returns the largest position p = i+len(sep) with lo < p <= hi
// such that sep occurs at index i, or -1 if there is none.
func lastCutAfter(runes []rune, sep []rune, lo, hi int) int {
	for i := hi - len(sep); i+len(sep) > lo && i >= 0; i-- {
		if matchAt(runes, sep, i) {
			return i + len(sep)
		}
	}
	return -1
}

func matchAt(runes, sep []rune, at int) bool {
	if at+len(sep) > len(runes) {
		return false
	}
	for j := range sep {
		if runes[at+j] != sep[j] {
			return false
		}
	}
	return true
}
