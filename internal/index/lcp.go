package index

// buildLCP computes the LCP array with Kasai's algorithm in O(n).
// lcp[r] is the length of the longest common prefix of the suffixes at
// ranks r-1 and r; lcp[0] is 0.
func buildLCP(text []byte, sa []int) []int {
	n := len(text)
	lcp := make([]int, n)
	if n == 0 {
		return lcp
	}

	rankOf := make([]int, n)
	for r, p := range sa {
		rankOf[p] = r
	}

	h := 0
	for p := 0; p < n; p++ {
		r := rankOf[p]
		if r == 0 {
			h = 0
			continue
		}
		q := sa[r-1]
		for p+h < n && q+h < n && text[p+h] == text[q+h] {
			h++
		}
		lcp[r] = h
		if h > 0 {
			h--
		}
	}
	return lcp
}
