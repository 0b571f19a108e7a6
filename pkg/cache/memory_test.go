package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("got %q, want v", got)
	}
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(context.Background(), "absent"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); err != ErrNotFound {
		t.Fatalf("expected expiry miss, got %v", err)
	}
}

func TestMemorySetNX(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	ok, err := m.SetNX(ctx, "k", []byte("first"), 0)
	if err != nil || !ok {
		t.Fatalf("first setnx: ok=%v err=%v", ok, err)
	}
	ok, err = m.SetNX(ctx, "k", []byte("second"), 0)
	if err != nil || ok {
		t.Fatalf("second setnx should not write: ok=%v err=%v", ok, err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "first" {
		t.Fatalf("value overwritten: %q %v", got, err)
	}
}

func TestMemoryGetCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", []byte("abc"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := m.Get(ctx, "k")
	got[0] = 'x'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("cached bytes mutated through returned slice")
	}
}
