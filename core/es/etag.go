package es

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRevisionFormat is returned when a revision token received
// from the boundary cannot be parsed back into a Revision.
var ErrInvalidRevisionFormat = errors.New("invalid revision format")

const (
	etagPrefix = `W/"`
	etagSuffix = `"`
)

// ETag encodes the revision as a weak validator token of the form
// W/"<revision>", suitable for an HTTP ETag header.
func (r Revision) ETag() string {
	return etagPrefix + strconv.FormatUint(uint64(r), 10) + etagSuffix
}

// ParseETag decodes a weak validator token produced by [Revision.ETag].
// Anything that is not exactly W/"<non-negative integer>" fails with
// ErrInvalidRevisionFormat.
func ParseETag(tag string) (Revision, error) {
	raw, ok := strings.CutPrefix(tag, etagPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRevisionFormat, tag)
	}
	raw, ok = strings.CutSuffix(raw, etagSuffix)
	if !ok || raw == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRevisionFormat, tag)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRevisionFormat, tag)
	}
	return Revision(n), nil
}

// ExpectedFromIfMatch maps an If-Match header value to an append
// precondition. An absent header means "no expectation", not revision
// zero; a present header must be a valid weak validator and yields an
// exact-revision expectation.
func ExpectedFromIfMatch(header string) (ExpectedRevision, error) {
	if header == "" {
		return Any(), nil
	}
	rev, err := ParseETag(header)
	if err != nil {
		return nil, err
	}
	return Exact(rev), nil
}

// RevisionFromIfNoneMatch maps an If-None-Match header value to the
// revision the caller already holds, used for read freshness checks.
// Returns nil for an absent header.
func RevisionFromIfNoneMatch(header string) (*Revision, error) {
	if header == "" {
		return nil, nil
	}
	rev, err := ParseETag(header)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
