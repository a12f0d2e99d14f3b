package normalize

// autoJunkMinLen is the length of the second sequence from which very
// frequent characters stop seeding matches.
const autoJunkMinLen = 200

type block struct {
	i, j, size int
}

type span struct {
	alo, ahi, blo, bhi int
}

// sequenceMatcher finds the matching blocks of two rune sequences by
// repeatedly taking the longest common contiguous block and recursing on
// the pieces to its left and right.
type sequenceMatcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newSequenceMatcher(a, b []rune) *sequenceMatcher {
	sm := &sequenceMatcher{a: a, b: b, b2j: make(map[rune][]int)}
	for j, r := range b {
		sm.b2j[r] = append(sm.b2j[r], j)
	}

	// Characters that make up more than 1% of a long b do not seed matches
	n := len(b)
	if n >= autoJunkMinLen {
		limit := n/100 + 1
		for r, idxs := range sm.b2j {
			if len(idxs) > limit {
				delete(sm.b2j, r)
			}
		}
	}
	return sm
}

// longestMatch returns the longest block a[i:i+k] == b[j:j+k] inside the
// given bounds. Ties go to the block starting earliest in a, then in b.
func (sm *sequenceMatcher) longestMatch(alo, ahi, blo, bhi int) block {
	best := block{i: alo, j: blo}
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newJ2len := make(map[int]int)
		for _, j := range sm.b2j[sm.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newJ2len[j] = k
			if k > best.size {
				best = block{i: i - k + 1, j: j - k + 1, size: k}
			}
		}
		j2len = newJ2len
	}

	// Extend across characters that were excluded from seeding
	for best.i > alo && best.j > blo && sm.a[best.i-1] == sm.b[best.j-1] {
		best.i--
		best.j--
		best.size++
	}
	for best.i+best.size < ahi && best.j+best.size < bhi &&
		sm.a[best.i+best.size] == sm.b[best.j+best.size] {
		best.size++
	}

	return best
}

// matchedChars returns the total size of all matching blocks
func (sm *sequenceMatcher) matchedChars() int {
	total := 0
	queue := []span{{0, len(sm.a), 0, len(sm.b)}}

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := sm.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if m.size == 0 {
			continue
		}
		total += m.size
		if s.alo < m.i && s.blo < m.j {
			queue = append(queue, span{s.alo, m.i, s.blo, m.j})
		}
		if m.i+m.size < s.ahi && m.j+m.size < s.bhi {
			queue = append(queue, span{m.i + m.size, s.ahi, m.j + m.size, s.bhi})
		}
	}

	return total
}

// SequenceRatio returns 2*M/T in [0,1], where M is the number of characters
// in the matching blocks of the two strings and T their combined length.
// Two empty strings are identical (1.0). The pair is put in a canonical order
// first so SequenceRatio(a, b) == SequenceRatio(b, a).
func SequenceRatio(s1, s2 string) float64 {
	if s1 > s2 {
		s1, s2 = s2, s1
	}
	a, b := []rune(s1), []rune(s2)

	total := len(a) + len(b)
	if total == 0 {
		return 1.0
	}

	matched := newSequenceMatcher(a, b).matchedChars()
	return 2.0 * float64(matched) / float64(total)
}
