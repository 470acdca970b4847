package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubService struct {
	name     string
	startErr error
	block    bool
	stopped  bool
}

func (s *stubService) Name() string { return s.name }

func (s *stubService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *stubService) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func TestRunnerStopsAllOnServiceError(t *testing.T) {
	failing := &stubService{name: "worker", startErr: errors.New("redis refused")}
	healthy := &stubService{name: "http", block: true}
	runner := NewRunner(healthy, failing)

	err := runner.Run(context.Background(), time.Second, zap.NewNop().Sugar())
	if err == nil || err.Error() != "redis refused" {
		t.Fatalf("want start error, got %v", err)
	}
	if !healthy.stopped || !failing.stopped {
		t.Fatalf("all services should be stopped, http=%v worker=%v", healthy.stopped, failing.stopped)
	}
}

func TestRunnerCancelledContextIsClean(t *testing.T) {
	svc := &stubService{name: "http", block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewRunner(svc).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancelled run should return nil, got %v", err)
	}
	if !svc.stopped {
		t.Fatalf("service should be stopped")
	}
}

func TestRunnerWithoutServices(t *testing.T) {
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts := normalizeOptions(Options{Mode: "bogus"})
	if opts.Mode != ModeAll {
		t.Fatalf("unknown mode should fall back to all, got %s", opts.Mode)
	}
	if opts.ShutdownTimeout != 10*time.Second {
		t.Fatalf("default shutdown timeout got %s", opts.ShutdownTimeout)
	}
	if opts.Logger == nil {
		t.Fatalf("logger should default")
	}
	if normalizeOptions(Options{Mode: ModeWorker}).Mode != ModeWorker {
		t.Fatalf("worker mode should be kept")
	}
}

func TestRunnerCleanExitStopsOthers(t *testing.T) {
	done := &stubService{name: "oneshot"}
	healthy := &stubService{name: "http", block: true}

	if err := NewRunner(healthy, done).Run(context.Background(), time.Second, nil); err != nil {
		t.Fatalf("clean exit should return nil, got %v", err)
	}
	if !healthy.stopped {
		t.Fatalf("remaining services should be stopped")
	}
}
