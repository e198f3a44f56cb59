// Package predict suggests word completions and next-character likelihoods
// from a ranked word list.
package predict

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxSuggestions is the number of completions Search returns at most.
const MaxSuggestions = 3

// Predictor completes prefixes. Implementations must be safe for concurrent
// reads.
type Predictor interface {
	// Search returns the most frequent words starting with prefix.
	Search(prefix string) []string
	// NextCharProbabilities returns, for each character that can follow
	// prefix, the likelihood that it is typed next. Values sum to 1, or the
	// map is empty when nothing follows.
	NextCharProbabilities(prefix string) map[string]float64
}

// Entry is a word and its frequency rank. Lower ranks are more frequent;
// the most frequent word has rank 1.
type Entry struct {
	Word string
	Rank int
}

type ranked struct {
	rank int
	word string
}

type node struct {
	children map[rune]*node
	// words under this node, ordered by rank.
	words []ranked
}

// Trie is a prefix tree where every node keeps the words below it ordered
// by rank. It is immutable after Build, so concurrent reads are safe.
type Trie struct {
	root  node
	count int
}

// Build returns a trie holding entries. A word listed twice keeps its best
// rank.
func Build(entries []Entry) *Trie {
	best := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		if r, ok := best[e.Word]; !ok || e.Rank < r {
			best[e.Word] = e.Rank
		}
	}
	words := make([]string, 0, len(best))
	for w := range best {
		words = append(words, w)
	}
	sort.Strings(words)

	t := &Trie{}
	for _, w := range words {
		t.insert(w, best[w])
	}
	return t
}

func (t *Trie) insert(word string, rank int) {
	n := &t.root
	for _, c := range word {
		if n.children == nil {
			n.children = make(map[rune]*node)
		}
		child, ok := n.children[c]
		if !ok {
			child = &node{}
			n.children[c] = child
		}
		n = child
		// After existing words of the same rank, so ties stay alphabetical.
		pos := sort.Search(len(n.words), func(i int) bool { return n.words[i].rank > rank })
		n.words = append(n.words, ranked{})
		copy(n.words[pos+1:], n.words[pos:])
		n.words[pos] = ranked{rank: rank, word: word}
	}
	t.count++
}

// Len returns the number of distinct words.
func (t *Trie) Len() int {
	return t.count
}

func (t *Trie) find(prefix string) *node {
	n := &t.root
	for _, c := range prefix {
		child, ok := n.children[c]
		if !ok {
			return nil
		}
		n = child
	}
	return n
}

// Search implements Predictor. An empty prefix matches nothing.
func (t *Trie) Search(prefix string) []string {
	if prefix == "" {
		return nil
	}
	n := t.find(prefix)
	if n == nil {
		return nil
	}
	out := make([]string, 0, MaxSuggestions)
	for _, w := range n.words {
		if len(out) == MaxSuggestions {
			break
		}
		out = append(out, w.word)
	}
	return out
}

// NextCharProbabilities implements Predictor. Each word below prefix votes
// for its next character with weight 1/rank; the votes are normalized.
func (t *Trie) NextCharProbabilities(prefix string) map[string]float64 {
	probs := make(map[string]float64)
	if prefix == "" {
		return probs
	}
	n := t.find(prefix)
	if n == nil {
		return probs
	}

	var total float64
	for _, w := range n.words {
		next, size := utf8.DecodeRuneInString(w.word[len(prefix):])
		if size == 0 {
			continue
		}
		score := 1 / float64(max(w.rank, 1))
		probs[strings.ToLower(string(next))] += score
		total += score
	}
	for c := range probs {
		probs[c] /= total
	}
	return probs
}

// Nop is a Predictor that never predicts anything.
type Nop struct{}

func (Nop) Search(string) []string { return nil }
func (Nop) NextCharProbabilities(string) map[string]float64 { return map[string]float64{} }
