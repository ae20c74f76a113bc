package parser

import "github.com/address-classifier/internal/address"

// Existence ranks of the deepest named level of a candidate.
const (
	rankResolved   = 1 // classifier GUID attached
	rankUnverified = 2 // not tracked, or only informational messages
	rankDoubtful   = 3 // warnings or errors at that level
)

// better reports whether c strictly improves on best:
//
//  1. lower worst severity, then fewer messages of that severity;
//  2. an empty tail;
//  3. a lower existence rank at the deepest level;
//  4. a shallower deepest level.
//
// The last rule keeps a conservative partial match over a deeper guess. It
// is provisional and should be re-checked against real address corpora.
func better(c, best *candidate) bool {
	cs, bs := c.addr.Severity(), best.addr.Severity()
	if cs != bs {
		return cs < bs
	}
	if cs != address.SeverityNone {
		if cn, bn := c.addr.CountSeverity(cs), best.addr.CountSeverity(bs); cn != bn {
			return cn < bn
		}
	}

	if (c.tail == "") != (best.tail == "") {
		return c.tail == ""
	}

	if cr, br := existenceRank(c.addr), existenceRank(best.addr); cr != br {
		return cr < br
	}

	return c.addr.DeepestLevel() < best.addr.DeepestLevel()
}

func existenceRank(a *address.StructuredAddress) int {
	level := a.DeepestLevel()
	switch {
	case a.GUID(level) != "":
		return rankResolved
	case a.SeverityAt(level) > address.SeverityInfo:
		return rankDoubtful
	default:
		return rankUnverified
	}
}
