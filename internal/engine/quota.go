package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/protoboard/internal/rules"
)

// DefaultMaxSites bounds how many nodes a single propagating mutation may
// touch.
const DefaultMaxSites = 10000

// quota counts propagation sites for one mutation.
//
// Cycle checks keep instanceOf chains finite; the quota catches the other
// failure mode, a workspace so heavily instanced that one edit fans out
// across an unreasonable number of copies.
type quota struct {
	kind    rules.MutationKind
	max     int
	current int
}

func newQuota(kind rules.MutationKind, max int) *quota {
	return &quota{kind: kind, max: max}
}

// Check counts one site and reports whether the limit is exceeded.
// A non-positive max disables the check.
func (q *quota) Check() error {
	q.current++
	if q.max > 0 && q.current > q.max {
		return &SitesExceededError{Kind: q.kind, Sites: q.current, Limit: q.max}
	}
	return nil
}

// SitesExceededError is returned when a mutation propagates to more sites
// than the engine allows. The whole mutation is abandoned.
type SitesExceededError struct {
	Kind  rules.MutationKind
	Sites int
	Limit int
}

func (e *SitesExceededError) Error() string {
	return fmt.Sprintf("%s exceeded propagation quota: %d sites > %d limit", e.Kind, e.Sites, e.Limit)
}

// IsSitesExceeded returns true if err is a SitesExceededError.
func IsSitesExceeded(err error) bool {
	var se *SitesExceededError
	return errors.As(err, &se)
}
