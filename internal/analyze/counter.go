package analyze

import "sort"

// Frequency is a term and how often it occurred.
type Frequency struct {
	Term  string
	Count int
}

// counter counts terms and remembers first-seen order for tie-breaking.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(terms ...string) {
	for _, term := range terms {
		if _, ok := c.counts[term]; !ok {
			c.order = append(c.order, term)
		}
		c.counts[term]++
	}
}

// top returns the n most frequent terms; equal counts keep first-seen order.
// n <= 0 returns every term.
func (c *counter) top(n int) []Frequency {
	out := make([]Frequency, len(c.order))
	for i, term := range c.order {
		out[i] = Frequency{Term: term, Count: c.counts[term]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
