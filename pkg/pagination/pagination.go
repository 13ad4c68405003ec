package pagination

import "gorm.io/gorm"

const (
	// DefaultLimit is the page size list endpoints use when none is provided.
	DefaultLimit = 100
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 1000
)

// Params holds offset pagination inputs from controllers or services. A zero
// Limit leaves the query unbounded up to MaxLimit.
type Params struct {
	Limit  int
	Offset int
}

// NormalizeLimit enforces the maximum limit. Non-positive values select
// MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Apply adds LIMIT and OFFSET clauses to q.
func (p Params) Apply(q *gorm.DB) *gorm.DB {
	q = q.Limit(NormalizeLimit(p.Limit))
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}
