package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestPerHostSeparateHostsIndependent(t *testing.T) {
	p := NewPerHost(2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := p.Wait(ctx, "a.example.com"); err != nil {
		t.Fatalf("Wait host a: %v", err)
	}
	if err := p.Wait(ctx, "b.example.com"); err != nil {
		t.Fatalf("Wait host b: %v", err)
	}
}

func TestPerHostCancelledContext(t *testing.T) {
	p := NewPerHost(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx, "limited.example.com"); err == nil {
		t.Error("expected Wait to fail immediately on an already-cancelled context")
	}
}
