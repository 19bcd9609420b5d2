// Package index builds an immutable suffix array over a corpus of
// documents and answers substring queries against it. Documents are
// joined with a 0x00 sentinel so no query ever matches across a
// document boundary.
package index

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/textdup/sitescore/internal/domain"
)

// Sentinel separates documents in the concatenated corpus. Normalized
// text never contains it; Build rejects any document that does.
const Sentinel byte = 0x00

// Construction algorithm names reported by Stats.
const (
	AlgoDoubling = "doubling"
	AlgoNaive    = "naive"
)

// Index is a suffix array with LCP information over a sentinel-joined
// corpus. It is immutable after Build and safe for concurrent readers.
type Index struct {
	text     []byte
	sa       []int
	lcp      []int
	docOf    []int // document id per text position, -1 at sentinels
	docStart []int
	docLen   []int
	algo     string
}

// Stats describes a built index.
type Stats struct {
	CorpusBytes int
	Documents   int
	Algorithm   string
}

// Build indexes the given documents in slice order. It fails with a
// run-fatal IndexBuildError if any document contains the sentinel byte.
func Build(docs []string) (*Index, error) {
	total := 0
	for i, d := range docs {
		if strings.IndexByte(d, Sentinel) >= 0 {
			return nil, domain.NewIndexBuildError(i, "document contains sentinel byte 0x00")
		}
		total += len(d)
	}
	if len(docs) > 1 {
		total += len(docs) - 1
	}

	ix := &Index{
		text:     make([]byte, 0, total),
		docOf:    make([]int, 0, total),
		docStart: make([]int, len(docs)),
		docLen:   make([]int, len(docs)),
	}
	for i, d := range docs {
		if i > 0 {
			ix.text = append(ix.text, Sentinel)
			ix.docOf = append(ix.docOf, -1)
		}
		ix.docStart[i] = len(ix.text)
		ix.docLen[i] = len(d)
		ix.text = append(ix.text, d...)
		for j := 0; j < len(d); j++ {
			ix.docOf = append(ix.docOf, i)
		}
	}

	if len(ix.text) <= naiveThreshold {
		ix.sa = buildNaive(ix.text)
		ix.algo = AlgoNaive
	} else {
		ix.sa = buildDoubling(ix.text)
		ix.algo = AlgoDoubling
	}
	ix.lcp = buildLCP(ix.text, ix.sa)
	return ix, nil
}

// Stats returns corpus size, document count and the construction
// algorithm used.
func (ix *Index) Stats() Stats {
	return Stats{CorpusBytes: len(ix.text), Documents: len(ix.docLen), Algorithm: ix.algo}
}

// DocCount returns the number of indexed documents.
func (ix *Index) DocCount() int { return len(ix.docLen) }

// DocLen returns the byte length of document d.
func (ix *Index) DocLen(d int) int { return ix.docLen[d] }

// tail is the number of bytes from position p to the end of its
// document. Matches through p are capped at this length so they never
// cross the sentinel.
func (ix *Index) tail(p int) int {
	d := ix.docOf[p]
	if d < 0 {
		return 0
	}
	return ix.docStart[d] + ix.docLen[d] - p
}

func (ix *Index) checkDoc(d int) error {
	if d < 0 || d >= len(ix.docLen) {
		return fmt.Errorf("document id %d out of range [0,%d)", d, len(ix.docLen))
	}
	return nil
}

func (ix *Index) checkPair(a, b int) error {
	if err := ix.checkDoc(a); err != nil {
		return err
	}
	if err := ix.checkDoc(b); err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("document ids must differ, both are %d", a)
	}
	return nil
}

// LongestCommonSubstring returns the longest substring shared by
// documents a and b. Among equally long candidates it returns the one
// appearing first in suffix array order, which is the lexicographically
// smallest; the result is identical across runs and platforms.
func (ix *Index) LongestCommonSubstring(a, b int) (string, error) {
	if err := ix.checkPair(a, b); err != nil {
		return "", err
	}

	// Scan suffixes of a and b only. The best pair is always adjacent
	// among the kept suffixes, so a running minimum of the LCP since
	// the previous kept suffix is enough.
	best, bestPos := 0, -1
	prevPos, prevDoc := -1, -1
	curMin := math.MaxInt
	for r, p := range ix.sa {
		if r > 0 && ix.lcp[r] < curMin {
			curMin = ix.lcp[r]
		}
		d := ix.docOf[p]
		if d != a && d != b {
			continue
		}
		if prevPos >= 0 && d != prevDoc {
			eff := capped(curMin, ix.tail(prevPos), ix.tail(p))
			if eff > best {
				best, bestPos = eff, p
			}
		}
		prevPos, prevDoc = p, d
		curMin = math.MaxInt
	}

	if best == 0 {
		return "", nil
	}
	return string(ix.text[bestPos : bestPos+best]), nil
}

// MatchLengths returns, for every byte position of document doc, the
// length of the longest substring starting there that also occurs in at
// least one other document. Lengths are capped at the document boundary.
//
// Per position the best partner suffix is the nearest other-document
// suffix in rank order, above or below; capping preserves that: if a
// farther suffix shares c sentinel-free bytes, every suffix ranked in
// between shares them too.
func (ix *Index) MatchLengths(doc int) ([]int, error) {
	if err := ix.checkDoc(doc); err != nil {
		return nil, err
	}

	ml := make([]int, ix.docLen[doc])
	n := len(ix.sa)

	// Nearest other-document suffix above in rank order.
	last := -1
	curMin := math.MaxInt
	for r := 0; r < n; r++ {
		if r > 0 && ix.lcp[r] < curMin {
			curMin = ix.lcp[r]
		}
		p := ix.sa[r]
		switch d := ix.docOf[p]; {
		case d < 0:
		case d != doc:
			last, curMin = p, math.MaxInt
		default:
			if last >= 0 {
				eff := capped(curMin, ix.tail(last), ix.tail(p))
				off := p - ix.docStart[doc]
				if eff > ml[off] {
					ml[off] = eff
				}
			}
		}
	}

	// Nearest other-document suffix below.
	last = -1
	curMin = math.MaxInt
	for r := n - 1; r >= 0; r-- {
		if r < n-1 && ix.lcp[r+1] < curMin {
			curMin = ix.lcp[r+1]
		}
		p := ix.sa[r]
		switch d := ix.docOf[p]; {
		case d < 0:
		case d != doc:
			last, curMin = p, math.MaxInt
		default:
			if last >= 0 {
				eff := capped(curMin, ix.tail(last), ix.tail(p))
				off := p - ix.docStart[doc]
				if eff > ml[off] {
					ml[off] = eff
				}
			}
		}
	}
	return ml, nil
}

// PairLengths returns, for each document, the length of the longest
// substring it shares with doc. The entry for doc itself is 0. One
// forward and one backward scan cover every pair at once: for a suffix
// of document o the best doc partner is the nearest doc suffix in rank
// order.
func (ix *Index) PairLengths(doc int) ([]int, error) {
	if err := ix.checkDoc(doc); err != nil {
		return nil, err
	}

	out := make([]int, len(ix.docLen))
	n := len(ix.sa)

	last := -1
	curMin := math.MaxInt
	for r := 0; r < n; r++ {
		if r > 0 && ix.lcp[r] < curMin {
			curMin = ix.lcp[r]
		}
		p := ix.sa[r]
		switch d := ix.docOf[p]; {
		case d == doc:
			last, curMin = p, math.MaxInt
		case d >= 0:
			if last >= 0 {
				eff := capped(curMin, ix.tail(last), ix.tail(p))
				if eff > out[d] {
					out[d] = eff
				}
			}
		}
	}

	last = -1
	curMin = math.MaxInt
	for r := n - 1; r >= 0; r-- {
		if r < n-1 && ix.lcp[r+1] < curMin {
			curMin = ix.lcp[r+1]
		}
		p := ix.sa[r]
		switch d := ix.docOf[p]; {
		case d == doc:
			last, curMin = p, math.MaxInt
		case d >= 0:
			if last >= 0 {
				eff := capped(curMin, ix.tail(last), ix.tail(p))
				if eff > out[d] {
					out[d] = eff
				}
			}
		}
	}
	return out, nil
}

// BestMatch returns the longest substring of doc that occurs in at
// least one other document. Among equally long candidates it returns
// the one first in suffix array order, the lexicographically smallest.
func (ix *Index) BestMatch(doc int) (string, error) {
	ml, err := ix.MatchLengths(doc)
	if err != nil {
		return "", err
	}
	best := 0
	for _, l := range ml {
		if l > best {
			best = l
		}
	}
	if best == 0 {
		return "", nil
	}
	for _, p := range ix.sa {
		if ix.docOf[p] != doc {
			continue
		}
		if ml[p-ix.docStart[doc]] == best {
			return string(ix.text[p : p+best]), nil
		}
	}
	return "", nil
}

func capped(lcp, tailA, tailB int) int {
	if tailA < lcp {
		lcp = tailA
	}
	if tailB < lcp {
		lcp = tailB
	}
	return lcp
}

// OccurrenceCount returns how many times s occurs in the corpus and in
// how many distinct documents. The empty string and strings containing
// the sentinel byte occur zero times.
func (ix *Index) OccurrenceCount(s string) (total, docs int) {
	if s == "" || strings.IndexByte(s, Sentinel) >= 0 {
		return 0, 0
	}
	sb := []byte(s)
	n := len(ix.sa)

	// Suffixes with prefix s form one contiguous rank interval.
	lo := sort.Search(n, func(r int) bool {
		return bytes.Compare(ix.text[ix.sa[r]:], sb) >= 0
	})
	hi := lo + sort.Search(n-lo, func(k int) bool {
		return !bytes.HasPrefix(ix.text[ix.sa[lo+k]:], sb)
	})

	seen := make(map[int]bool)
	for r := lo; r < hi; r++ {
		seen[ix.docOf[ix.sa[r]]] = true
	}
	return hi - lo, len(seen)
}
