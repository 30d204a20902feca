package seqcode

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// memoryStore mimics a table with a unique index on the code column.
type memoryStore struct {
	mu    sync.Mutex
	codes map[string]struct{}
}

func newMemoryStore(seed ...string) *memoryStore {
	s := &memoryStore{codes: make(map[string]struct{})}
	for _, c := range seed {
		s.codes[c] = struct{}{}
	}
	return s
}

func (s *memoryStore) lastCode(_ context.Context, pattern string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max string
	for c := range s.codes {
		if strings.HasPrefix(c, pattern) && c > max {
			max = c
		}
	}
	return max, max != "", nil
}

func (s *memoryStore) insert(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.codes[code]; dup {
		return fmt.Errorf("insert %s: %w", code, ErrCodeTaken)
	}
	s.codes[code] = struct{}{}
	return nil
}

var january = time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

func TestNextMonotonicSequence(t *testing.T) {
	store := newMemoryStore()
	gen := NewGenerator("BK", store.lastCode)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		code, err := gen.Next(ctx, january)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("BK2501%04d", i), code)
		require.NoError(t, store.insert(ctx, code))
	}
}

func TestNextSkipsGapsUsesMax(t *testing.T) {
	// Deletions leave gaps; the next code follows the numeric max, not the count.
	store := newMemoryStore("BK25010001", "BK25010002", "BK25010005")
	gen := NewGenerator("BK", store.lastCode)

	code, err := gen.Next(context.Background(), january)
	require.NoError(t, err)
	require.Equal(t, "BK25010006", code)
}

func TestNextPeriodRollover(t *testing.T) {
	store := newMemoryStore("INV25010042")
	gen := NewGenerator("INV", store.lastCode)

	february := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	code, err := gen.Next(context.Background(), february)
	require.NoError(t, err)
	require.Equal(t, "INV25020001", code)
}

func TestNextPrefixIsolation(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	bk := NewGenerator("BK", store.lastCode)
	inv := NewGenerator("INV", store.lastCode)

	for i := 0; i < 3; i++ {
		code, err := bk.Next(ctx, january)
		require.NoError(t, err)
		require.NoError(t, store.insert(ctx, code))
	}

	code, err := inv.Next(ctx, january)
	require.NoError(t, err)
	require.Equal(t, "INV25010001", code)
}

func TestNextFixedWidth(t *testing.T) {
	format := regexp.MustCompile(`^BK2501\d{4}$`)
	store := newMemoryStore()
	gen := NewGenerator("BK", store.lastCode)
	ctx := context.Background()

	for _, seed := range []string{"", "BK25010009", "BK25010099", "BK25010999", "BK25019998"} {
		if seed != "" {
			require.NoError(t, store.insert(ctx, seed))
		}
		code, err := gen.Next(ctx, january)
		require.NoError(t, err)
		require.Regexp(t, format, code)
		require.Len(t, code, len("BK")+4+4)
	}
}

func TestNextSequenceOverflow(t *testing.T) {
	store := newMemoryStore("BK25019999")
	gen := NewGenerator("BK", store.lastCode)

	_, err := gen.Next(context.Background(), january)
	require.ErrorIs(t, err, ErrSequenceOverflow)
}

func TestNextCorruptSuffix(t *testing.T) {
	for _, corrupt := range []string{"BK2501ABCD", "BK2501", "BK250100A7", "BK2501-001"} {
		store := newMemoryStore(corrupt)
		gen := NewGenerator("BK", store.lastCode)

		_, err := gen.Next(context.Background(), january)
		require.ErrorIs(t, err, ErrCorruptSequence, "seed %q", corrupt)
	}
}

func TestNextLookupFailureFailsClosed(t *testing.T) {
	storeDown := errors.New("connection refused")
	gen := NewGenerator("BK", func(context.Context, string) (string, bool, error) {
		return "", false, storeDown
	})

	_, err := gen.Next(context.Background(), january)
	require.ErrorIs(t, err, storeDown)
}

func TestAssignRetriesOnCollision(t *testing.T) {
	store := newMemoryStore()
	gen := NewGenerator("BK", store.lastCode)
	ctx := context.Background()

	// Steal the first two generated codes before the insert lands.
	stolen := 0
	insert := func(ctx context.Context, code string) error {
		if stolen < 2 {
			stolen++
			require.NoError(t, store.insert(ctx, code))
		}
		return store.insert(ctx, code)
	}

	code, err := gen.Assign(ctx, january, insert)
	require.NoError(t, err)
	require.Equal(t, "BK25010003", code)
	require.Equal(t, 2, stolen)
}

func TestAssignHooksObserveOutcomes(t *testing.T) {
	store := newMemoryStore()
	var issued, conflicts []string
	gen := NewGenerator("BK", store.lastCode, WithAssignHooks(
		func(prefix string) { issued = append(issued, prefix) },
		func(prefix string) { conflicts = append(conflicts, prefix) },
	))
	ctx := context.Background()

	stolen := false
	insert := func(ctx context.Context, code string) error {
		if !stolen {
			stolen = true
			require.NoError(t, store.insert(ctx, code))
		}
		return store.insert(ctx, code)
	}

	_, err := gen.Assign(ctx, january, insert)
	require.NoError(t, err)
	require.Equal(t, []string{"BK"}, issued)
	require.Equal(t, []string{"BK"}, conflicts)
}

func TestAssignGivesUpAfterBoundedRetries(t *testing.T) {
	store := newMemoryStore("BK25010001")
	gen := NewGenerator("BK", store.lastCode)

	attempts := 0
	insert := func(context.Context, string) error {
		attempts++
		return ErrCodeTaken
	}

	_, err := gen.Assign(context.Background(), january, insert)
	require.ErrorIs(t, err, ErrCodeExhausted)
	require.Equal(t, 5, attempts)
}

func TestAssignDoesNotRetryOtherErrors(t *testing.T) {
	store := newMemoryStore()
	gen := NewGenerator("BK", store.lastCode)

	boom := errors.New("disk full")
	attempts := 0
	insert := func(context.Context, string) error {
		attempts++
		return boom
	}

	_, err := gen.Assign(context.Background(), january, insert)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, attempts)
}

func TestAssignConcurrentWritersNoDuplicates(t *testing.T) {
	const writers = 32

	store := newMemoryStore()
	// Every collision means another writer's insert landed, so `writers`
	// attempts are enough for all of them to finish.
	gen := NewGenerator("BK", store.lastCode, WithMaxAttempts(writers))

	var mu sync.Mutex
	assigned := make([]string, 0, writers)

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			code, err := gen.Assign(context.Background(), january, store.insert)
			if err != nil {
				return err
			}
			mu.Lock()
			assigned = append(assigned, code)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, assigned, writers)
	sort.Strings(assigned)
	for i := 1; i < len(assigned); i++ {
		require.NotEqual(t, assigned[i-1], assigned[i], "duplicate code assigned")
	}
	require.Len(t, store.codes, writers)
}

func TestPeriod(t *testing.T) {
	require.Equal(t, "2501", Period(january))
	require.Equal(t, "2412", Period(time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)))
	require.Equal(t, "2609", Period(time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)))
}
