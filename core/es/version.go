package es

import (
	"fmt"
	"log/slog"
)

// Revision is the zero-based ordinal position of an event within its
// stream. The revision of the last event is the entity's version number
// for optimistic concurrency control. A stream with one event is at
// revision 0; "no stream" has no revision at all and is signalled by
// [ErrStreamNotFound] rather than a sentinel value.
type Revision uint64

func (r Revision) Uint64() uint64 { return uint64(r) }
func (r Revision) Next() Revision { return r + 1 }

func (r Revision) SlogAttr() slog.Attr                  { return r.SlogAttrWithKey("revision") }
func (r Revision) SlogAttrWithKey(key string) slog.Attr { return slog.Uint64(key, uint64(r)) }

// ExpectedRevision is the precondition for a conditional append. It is a
// closed set: [Any], [NoStream] or [Exact]. Stores evaluate the
// expectation atomically with the append itself.
type ExpectedRevision interface {
	// Matches reports whether the expectation holds for a stream that
	// currently ends at rev (exists=false means the stream is absent,
	// in which case rev is meaningless).
	Matches(rev Revision, exists bool) bool
	fmt.Stringer
}

type (
	anyRevision   struct{}
	noStream      struct{}
	exactRevision struct{ rev Revision }
)

// Any places no expectation on the stream: the append is unconditional.
func Any() ExpectedRevision { return anyRevision{} }

// NoStream expects the stream to not exist yet.
func NoStream() ExpectedRevision { return noStream{} }

// Exact expects the stream to currently end at exactly rev.
func Exact(rev Revision) ExpectedRevision { return exactRevision{rev: rev} }

func (anyRevision) Matches(Revision, bool) bool { return true }
func (anyRevision) String() string              { return "any" }

func (noStream) Matches(_ Revision, exists bool) bool { return !exists }
func (noStream) String() string                       { return "no-stream" }

func (e exactRevision) Matches(rev Revision, exists bool) bool {
	return exists && rev == e.rev
}
func (e exactRevision) String() string { return fmt.Sprintf("exact(%d)", e.rev) }
