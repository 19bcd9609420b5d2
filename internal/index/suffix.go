package index

import (
	"bytes"
	"sort"
)

// naiveThreshold is the corpus size at or below which Build uses the
// naive construction. The doubling path wins well before this point;
// the naive path stays as the reference implementation and oracle.
const naiveThreshold = 64

// buildNaive sorts all suffixes directly, O(n^2 log n) worst case.
func buildNaive(text []byte) []int {
	sa := make([]int, len(text))
	for i := range sa {
		sa[i] = i
	}
	sort.Slice(sa, func(i, j int) bool {
		return bytes.Compare(text[sa[i]:], text[sa[j]:]) < 0
	})
	return sa
}

// buildDoubling constructs the suffix array by prefix doubling with a
// stable counting sort per round, O(n log n) total. The result is the
// unique lexicographic suffix order, identical to buildNaive.
func buildDoubling(text []byte) []int {
	n := len(text)
	if n == 0 {
		return []int{}
	}

	sa := make([]int, n)
	rank := make([]int, n)
	tmp := make([]int, n)
	buckets := make([]int, max(n, 256)+1)

	for i := 0; i < n; i++ {
		tmp[i] = i
		rank[i] = int(text[i])
	}
	countingSortByRank(tmp, sa, rank, buckets)

	for k := 1; k < n; k <<= 1 {
		// Order candidates by second key rank[i+k]: suffixes whose
		// second key is empty come first, then the rest in the order
		// the previous round established for positions i+k.
		idx := 0
		for i := n - k; i < n; i++ {
			tmp[idx] = i
			idx++
		}
		for _, p := range sa {
			if p >= k {
				tmp[idx] = p - k
				idx++
			}
		}

		// Stable sort by first key keeps the second-key order within
		// equal first keys.
		countingSortByRank(tmp, sa, rank, buckets)

		// Re-rank; tmp doubles as the new rank array.
		tmp[sa[0]] = 0
		r := 0
		for i := 1; i < n; i++ {
			if !sameKey(sa[i-1], sa[i], k, rank, n) {
				r++
			}
			tmp[sa[i]] = r
		}
		copy(rank, tmp)
		if r == n-1 {
			break
		}
	}
	return sa
}

// countingSortByRank stable-sorts the positions in src ascending by
// rank and writes the result to dst.
func countingSortByRank(src, dst, rank, buckets []int) {
	maxRank := 0
	for _, p := range src {
		if rank[p] > maxRank {
			maxRank = rank[p]
		}
	}
	for i := 0; i <= maxRank; i++ {
		buckets[i] = 0
	}
	for _, p := range src {
		buckets[rank[p]]++
	}
	sum := 0
	for i := 0; i <= maxRank; i++ {
		c := buckets[i]
		buckets[i] = sum
		sum += c
	}
	for _, p := range src {
		dst[buckets[rank[p]]] = p
		buckets[rank[p]]++
	}
}

// sameKey reports whether suffixes a and b have equal (rank, rank+k)
// sort keys; positions past the end count as an empty second key.
func sameKey(a, b, k int, rank []int, n int) bool {
	if rank[a] != rank[b] {
		return false
	}
	if a+k >= n || b+k >= n {
		return a+k >= n && b+k >= n
	}
	return rank[a+k] == rank[b+k]
}
