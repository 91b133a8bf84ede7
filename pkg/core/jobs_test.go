package core

import (
	"context"
	"testing"
	"time"
)

func TestTimeJob(t *testing.T) {
	tests := []struct {
		name      string
		immediate bool
		elapsed   time.Duration
		want      bool
	}{
		{name: "ImmediateFirstRun", immediate: true, elapsed: 0, want: true},
		{name: "DelayedFirstRun", immediate: false, elapsed: 0, want: false},
		{name: "ThresholdReached", immediate: false, elapsed: 2 * time.Minute, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewTimeJob("test", time.Minute, tt.immediate, func(ctx context.Context) {})
			if got := j.ShouldFire(j.lastTime.Add(tt.elapsed)); got != tt.want {
				t.Errorf("ShouldFire() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeJob_RunResetsTimer(t *testing.T) {
	var count int
	j := NewTimeJob("test", time.Minute, true, func(ctx context.Context) { count++ })

	now := time.Now()
	j.Run(context.Background(), now)
	if count != 1 {
		t.Fatalf("expected 1 run, got %d", count)
	}
	if j.ShouldFire(now.Add(30 * time.Second)) {
		t.Error("job should wait for threshold after running")
	}
	if !j.ShouldFire(now.Add(61 * time.Second)) {
		t.Error("job should fire after threshold")
	}
}

func TestBaseJob_Lock(t *testing.T) {
	job := NewBaseJob("SlowJob")
	if !job.TryLock() {
		t.Fatal("first TryLock should succeed")
	}
	if job.TryLock() {
		t.Error("second TryLock should fail while running")
	}
	job.Unlock()
	if !job.TryLock() {
		t.Error("TryLock should succeed after Unlock")
	}
}
