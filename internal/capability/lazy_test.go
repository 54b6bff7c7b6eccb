package capability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLazy_LoadsOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	l := NewLazy("classifier", func(context.Context) (string, error) {
		calls.Add(1)
		return "model", nil
	})

	if l.State() != StateUnloaded {
		t.Errorf("expected unloaded, got %s", l.State())
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := l.Get(context.Background())
			if err != nil || got != "model" {
				t.Errorf("Get() = %q, %v", got, err)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected a single load, got %d", calls.Load())
	}
	if l.State() != StateLoaded {
		t.Errorf("expected loaded, got %s", l.State())
	}
}

func TestLazy_MemoizesFailurePermanently(t *testing.T) {
	t.Parallel()

	loadErr := errors.New("model file missing")
	var calls atomic.Int32
	l := NewLazy("detector", func(context.Context) (int, error) {
		calls.Add(1)
		return 0, loadErr
	})

	for i := 0; i < 3; i++ {
		_, err := l.Get(context.Background())
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		if !errors.Is(err, loadErr) {
			t.Fatalf("expected wrapped load error, got %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one load attempt, got %d", calls.Load())
	}
	if l.Available(context.Background()) {
		t.Error("expected unavailable")
	}
}

func TestLazy_RetryAfterBackoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var calls atomic.Int32
	l := NewLazy("recognizer", func(context.Context) (string, error) {
		if calls.Add(1) < 2 {
			return "", errors.New("busy")
		}
		return "ok", nil
	},
		WithRetryPolicy[string](RetryPolicy{MaxRetries: 1, Backoff: time.Minute}),
		WithClock[string](func() time.Time { return clock() }),
	)

	if _, err := l.Get(context.Background()); err == nil {
		t.Fatal("expected first load to fail")
	}

	now = now.Add(30 * time.Second)
	if _, err := l.Get(context.Background()); err == nil {
		t.Fatal("expected memoized failure before backoff elapses")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retry before backoff, got %d calls", calls.Load())
	}

	now = now.Add(time.Minute)
	got, err := l.Get(context.Background())
	if err != nil || got != "ok" {
		t.Fatalf("expected retry to succeed, got %q, %v", got, err)
	}
	if l.Attempts() != 2 {
		t.Errorf("expected 2 attempts, got %d", l.Attempts())
	}
}

func TestRetryPolicy_Wait(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxRetries: 100, Backoff: 30 * time.Second}
	testCases := []struct {
		name    string
		retries int
		want    time.Duration
	}{
		{"first retry", 0, 30 * time.Second},
		{"doubles", 3, 4 * time.Minute},
		{"capped", 12, MaxBackoff},
		{"large retry count stays capped", 64, MaxBackoff},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := policy.Wait(tc.retries); got != tc.want {
				t.Errorf("Wait(%d) = %v, want %v", tc.retries, got, tc.want)
			}
		})
	}
}

func TestLazy_ManyRetriesKeepBackoff(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	var calls atomic.Int32
	l := NewLazy("classifier", func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("model file missing")
	},
		WithRetryPolicy[int](RetryPolicy{MaxRetries: 100, Backoff: 30 * time.Second}),
		WithClock[int](func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}),
	)

	for i := 0; i < 60; i++ {
		if _, err := l.Get(context.Background()); err == nil {
			t.Fatal("expected load to fail")
		}
		advance(MaxBackoff)
	}
	attempts := calls.Load()
	if attempts != 60 {
		t.Fatalf("expected one attempt per elapsed backoff, got %d", attempts)
	}

	advance(time.Hour)
	if _, err := l.Get(context.Background()); err == nil {
		t.Fatal("expected load to fail")
	}
	advance(time.Minute)
	if _, err := l.Get(context.Background()); err == nil {
		t.Fatal("expected memoized failure")
	}
	if got := calls.Load(); got != attempts+1 {
		t.Errorf("expected a single retry within the capped backoff, got %d new attempts", got-attempts)
	}
}

func TestLazy_RecoversPanic(t *testing.T) {
	t.Parallel()

	l := NewLazy("classifier", func(context.Context) (int, error) {
		panic("native library crashed")
	})
	if _, err := l.Get(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestLazy_NilLoader(t *testing.T) {
	t.Parallel()

	l := NewLazy[int]("ocr", nil)
	_, err := l.Get(context.Background())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if l.Err() == nil {
		t.Error("expected memoized error")
	}
}
