// Package seqcode produces month-scoped, human-readable document numbers of
// the form <prefix><YY><MM><NNNN>, e.g. BK25010007. Sequences are 1-based and
// reset each calendar month; uniqueness is ultimately enforced by the store's
// unique index on the owning column, not by this package.
package seqcode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	periodWidth = 4
	seqWidth    = 4
	// MaxSequence is the largest sequence the fixed-width suffix can carry.
	MaxSequence = 9999
)

var (
	// ErrCorruptSequence indicates the stored max code for the current period
	// does not parse as a numeric sequence. Restarting at 1 would risk
	// colliding below an existing higher code, so callers must abort.
	ErrCorruptSequence = errors.New("seqcode: stored code has non-numeric sequence")
	// ErrSequenceOverflow indicates the monthly series is exhausted.
	ErrSequenceOverflow = errors.New("seqcode: monthly sequence exhausted")
	// ErrCodeTaken is returned by an InsertFunc when the store rejected the
	// code through its unique constraint. Assign retries on it.
	ErrCodeTaken = errors.New("seqcode: code already assigned")
	// ErrCodeExhausted indicates Assign gave up after repeated collisions.
	ErrCodeExhausted = errors.New("seqcode: could not assign a unique code")
)

// LastCodeFunc looks up the greatest persisted code starting with pattern
// (an anchored literal prefix, not a substring match). The second return is
// false when no code exists for the pattern yet.
type LastCodeFunc func(ctx context.Context, pattern string) (string, bool, error)

// InsertFunc persists the owning record under the given code. It must return
// ErrCodeTaken (possibly wrapped) when the store's unique constraint on the
// code column rejects the insert.
type InsertFunc func(ctx context.Context, code string) error

// DefaultMaxAttempts bounds the generate-insert retry loop in Assign.
const DefaultMaxAttempts = 5

// Generator computes the next free code for one document class. It keeps no
// state between calls; the store queried through LastCodeFunc is the single
// source of truth.
type Generator struct {
	prefix     string
	last       LastCodeFunc
	attempts   int
	onAssigned func(prefix string)
	onConflict func(prefix string)
}

// Option customises a Generator.
type Option func(*Generator)

// WithMaxAttempts overrides the Assign retry bound.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.attempts = n
		}
	}
}

// WithAssignHooks installs callbacks observed by Assign: onAssigned fires
// when a code is persisted, onConflict each time an attempt loses the
// unique-index race. Either may be nil.
func WithAssignHooks(onAssigned, onConflict func(prefix string)) Option {
	return func(g *Generator) {
		g.onAssigned = onAssigned
		g.onConflict = onConflict
	}
}

// NewGenerator constructs a Generator for prefix, e.g. "BK" or "INV".
func NewGenerator(prefix string, last LastCodeFunc, opts ...Option) *Generator {
	g := &Generator{prefix: prefix, last: last, attempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Prefix returns the document-class tag.
func (g *Generator) Prefix() string { return g.prefix }

// Period renders the month scope as two-digit year plus two-digit month.
func Period(now time.Time) string {
	return now.Format("0601")
}

// Next returns the next unused code for the current period. It only reads;
// the caller must persist the code in the same logical operation that
// inserts the owning record. Under concurrent callers two invocations can
// return the same code, which the insert's unique index then rejects; use
// Assign for the full generate-insert-retry cycle.
func (g *Generator) Next(ctx context.Context, now time.Time) (string, error) {
	pattern := g.prefix + Period(now)
	code, found, err := g.last(ctx, pattern)
	if err != nil {
		return "", fmt.Errorf("seqcode: last code lookup for %q: %w", pattern, err)
	}
	seq := 1
	if found {
		n, err := parseSequence(g.prefix, code)
		if err != nil {
			return "", err
		}
		seq = n + 1
	}
	if seq > MaxSequence {
		return "", fmt.Errorf("%w: %s period %s", ErrSequenceOverflow, g.prefix, Period(now))
	}
	return fmt.Sprintf("%s%s%0*d", g.prefix, Period(now), seqWidth, seq), nil
}

// Assign runs Next and insert as one bounded-retry unit. A retry only
// happens when the insert lost a race on the unique index; every other
// failure aborts immediately, and a lost attempt leaves at most a gap in
// the series, never a duplicate.
func (g *Generator) Assign(ctx context.Context, now time.Time, insert InsertFunc) (string, error) {
	for attempt := 0; attempt < g.attempts; attempt++ {
		code, err := g.Next(ctx, now)
		if err != nil {
			return "", err
		}
		err = insert(ctx, code)
		if err == nil {
			if g.onAssigned != nil {
				g.onAssigned(g.prefix)
			}
			return code, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return "", err
		}
		if g.onConflict != nil {
			g.onConflict(g.prefix)
		}
	}
	return "", fmt.Errorf("%w: %s period %s", ErrCodeExhausted, g.prefix, Period(now))
}

// parseSequence extracts the numeric suffix after prefix+period. Anything
// that is not a fixed block of digits is treated as corrupt state.
func parseSequence(prefix, code string) (int, error) {
	suffix := ""
	if len(code) > len(prefix)+periodWidth {
		suffix = code[len(prefix)+periodWidth:]
	}
	if suffix == "" || !allDigits(suffix) {
		return 0, fmt.Errorf("%w: %q", ErrCorruptSequence, code)
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrCorruptSequence, code)
	}
	return n, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
