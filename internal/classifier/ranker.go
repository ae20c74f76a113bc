package classifier

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/address-classifier/internal/normalizer"
	"github.com/agnivade/levenshtein"
	"github.com/kljensen/snowball"
	"github.com/xrash/smetrics"
)

// exactScore is given to an object whose name equals the query verbatim.
const exactScore = 2.0

// Scored is a ranked candidate.
type Scored struct {
	Object Object
	Score  float64
}

// Ranker orders candidates of one lookup by closeness to the query name.
type Ranker struct {
	mu    sync.RWMutex
	stems map[string]string
}

// NewRanker creates a Ranker with an empty stem cache.
func NewRanker() *Ranker {
	return &Ranker{stems: make(map[string]string)}
}

// Score rates how close name is to the query, higher is closer:
// a verbatim match beats everything; otherwise the best of Jaro-Winkler and
// normalized Levenshtein similarity is blended with the share of query
// stems found in the name.
func (r *Ranker) Score(query, name string) float64 {
	if strings.EqualFold(strings.TrimSpace(query), strings.TrimSpace(name)) {
		return exactScore
	}
	qt, nt := normalizer.Tokenize(query), normalizer.Tokenize(name)
	q, n := strings.Join(qt, " "), strings.Join(nt, " ")
	if q == "" || n == "" {
		return 0
	}

	sim := smetrics.JaroWinkler(q, n, 0.7, 4)
	maxLen := math.Max(float64(utf8.RuneCountInString(q)), float64(utf8.RuneCountInString(n)))
	if lev := 1 - float64(levenshtein.ComputeDistance(q, n))/maxLen; lev > sim {
		sim = lev
	}

	stems := make(map[string]struct{}, len(nt))
	for _, t := range nt {
		stems[r.stem(t)] = struct{}{}
	}
	found := 0
	for _, t := range qt {
		if _, ok := stems[r.stem(t)]; ok {
			found++
		}
	}
	return 0.7*sim + 0.3*float64(found)/float64(len(qt))
}

// Rank scores objs against query, best first. Ties keep GUID order.
func (r *Ranker) Rank(query string, objs []Object) []Scored {
	out := make([]Scored, len(objs))
	for i, o := range objs {
		out[i] = Scored{Object: o, Score: r.Score(query, o.Name)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Object.GUID < out[j].Object.GUID
	})
	return out
}

func (r *Ranker) stem(word string) string {
	r.mu.RLock()
	s, ok := r.stems[word]
	r.mu.RUnlock()
	if ok {
		return s
	}

	s, err := snowball.Stem(word, "russian", true)
	if err != nil || s == "" {
		s = word
	}
	r.mu.Lock()
	r.stems[word] = s
	r.mu.Unlock()
	return s
}
