package service

import (
	"bytes"
	"context"

	"horae/internal/horae/types"
)

// Matcher maps a live sample and the current enrollment snapshot to at
// most one enrolled identity. Implementations must evaluate candidates
// in snapshot order and return the first enrollment that satisfies
// their threshold; they never return more than one identity.
//
// The matcher is an external capability: the vendor verification engine
// plugs in behind this interface. Quality gating happens before Match
// is ever called.
type Matcher interface {
	Match(ctx context.Context, sample []byte, enrollments []types.Enrollment) (identityID string, ok bool, err error)
}

// TemplateMatcher is the dev/testing matcher: a sample matches when it
// equals a stored template byte for byte. First in snapshot order wins.
type TemplateMatcher struct{}

func (TemplateMatcher) Match(_ context.Context, sample []byte, enrollments []types.Enrollment) (string, bool, error) {
	if len(sample) == 0 {
		return "", false, nil
	}
	for _, e := range enrollments {
		if len(e.Template) > 0 && bytes.Equal(sample, e.Template) {
			return e.IdentityID, true, nil
		}
	}
	return "", false, nil
}
