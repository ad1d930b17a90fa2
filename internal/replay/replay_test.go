package replay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryClaim(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		advance time.Duration
		want    bool
	}{
		{"first claim", "a", 0, true},
		{"second claim", "a", 0, false},
		{"other id", "b", 0, true},
		{"still remembered", "a", 59 * time.Second, false},
		{"expired", "a", 2 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = now.Add(tt.advance)
			got, err := m.Claim(ctx, tt.id, time.Minute)
			if err != nil {
				t.Fatalf("Claim: %v", err)
			}
			if got != tt.want {
				t.Errorf("Claim(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestMemoryConcurrentClaim(t *testing.T) {
	m := NewMemory()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Claim(context.Background(), "same", time.Minute)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := wins.Load(); got != 1 {
		t.Errorf("expected exactly one winner, got %d", got)
	}
}

func TestMemorySweep(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := 0; i < sweepEvery-1; i++ {
		if _, err := m.Claim(context.Background(), fmt.Sprintf("id-%d", i), time.Second); err != nil {
			t.Fatal(err)
		}
	}
	now = now.Add(time.Minute)
	if _, err := m.Claim(context.Background(), "fresh", time.Second); err != nil {
		t.Fatal(err)
	}
	if got := m.Len(); got != 1 {
		t.Errorf("expected expired ids to be swept, %d left", got)
	}
}

func TestMemoryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Claim(ctx, "a", time.Minute); err == nil {
		t.Error("expected an error for a canceled context")
	}
}
