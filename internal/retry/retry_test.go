package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return nil
	}, WithBaseDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttemptBudget(t *testing.T) {
	calls := 0
	sentinel := errors.New("down")
	err := Do(context.Background(), func() error {
		calls++
		return sentinel
	}, WithMaxRetries(2), WithBaseDelay(time.Millisecond))

	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	// maxRetries=2 means 3 total attempts.
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %T", err)
	}
	if ue.Attempts != 3 {
		t.Errorf("expected Attempts=3, got %d", ue.Attempts)
	}
	if !errors.Is(err, sentinel) {
		t.Error("expected wrapped error to unwrap to the last failure")
	}
}

func TestDo_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errors.New("down")
	}, WithMaxRetries(0), WithBaseDelay(time.Millisecond))

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_DelaysDouble(t *testing.T) {
	base := 20 * time.Millisecond
	var times []time.Time
	_ = Do(context.Background(), func() error {
		times = append(times, time.Now())
		return errors.New("down")
	}, WithMaxRetries(2), WithBaseDelay(base))

	if len(times) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(times))
	}

	first := times[1].Sub(times[0])
	second := times[2].Sub(times[1])

	// No jitter: the first gap is base, the second 2*base. Allow generous
	// slack for scheduler noise but insist on the doubling shape.
	if first < base || first > 3*base {
		t.Errorf("first gap %v outside [%v, %v]", first, base, 3*base)
	}
	if second < 2*base {
		t.Errorf("second gap %v shorter than doubled base %v", second, 2*base)
	}
	if second < first {
		t.Errorf("expected growing gaps, got %v then %v", first, second)
	}
}

func TestDo_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("down")
	}, WithMaxRetries(5), WithBaseDelay(time.Second))

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected retries to stop after cancel, got %d calls", calls)
	}
}

func TestDoValue_ReturnsValue(t *testing.T) {
	calls := 0
	v, err := DoValue(context.Background(), func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, WithBaseDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestDoValue_ZeroValueOnFailure(t *testing.T) {
	v, err := DoValue(context.Background(), func() (string, error) {
		return "partial", errors.New("down")
	}, WithMaxRetries(0), WithBaseDelay(time.Millisecond))
	if err == nil {
		t.Fatal("expected error")
	}
	if v != "" {
		t.Errorf("expected zero value on failure, got %q", v)
	}
}
