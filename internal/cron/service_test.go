package cron

import (
	"context"
	"testing"
	"time"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

type stubLock struct {
	acquired bool
	releases int
}

func (l *stubLock) Acquire(ctx context.Context) (bool, error) { return l.acquired, nil }

func (l *stubLock) Release(ctx context.Context) error {
	l.releases++
	return nil
}

func TestRegistrySkipsNilJobs(t *testing.T) {
	registry := NewRegistry(nil, &stubJob{name: "a"})
	registry.Register(nil)
	registry.Register(&stubJob{name: "b"})

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("jobs = %d, want 2", len(jobs))
	}
	if jobs[0].Name() != "a" || jobs[1].Name() != "b" {
		t.Fatalf("order = %s, %s", jobs[0].Name(), jobs[1].Name())
	}
}

func TestRunCycleExecutesJobsAndReleasesLock(t *testing.T) {
	first := &stubJob{name: "first"}
	second := &stubJob{name: "second", err: context.DeadlineExceeded}
	third := &stubJob{name: "third"}
	lock := &stubLock{acquired: true}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(first, second, third),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if first.runs != 1 || second.runs != 1 || third.runs != 1 {
		t.Fatalf("runs = %d/%d/%d, a failing job must not stop the rest", first.runs, second.runs, third.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("lock released %d times", lock.releases)
	}
}

func TestRunCycleSkipsWhenLockHeld(t *testing.T) {
	job := &stubJob{name: "only"}
	lock := &stubLock{acquired: false}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     lock,
		Interval: time.Hour,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.runCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("job ran without the lock")
	}
}
