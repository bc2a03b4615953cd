package tokenstore

import (
	"path/filepath"
	"testing"
	"time"
)

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newStores(t *testing.T, ttl time.Duration, c *clock) map[string]Store {
	t.Helper()

	mem := NewMemory(ttl)
	mem.now = c.now

	b, err := OpenBolt(filepath.Join(t.TempDir(), "data", "tokens.db"), ttl)
	if err != nil {
		t.Fatalf("OpenBolt: %v", err)
	}
	b.now = c.now
	t.Cleanup(func() { _ = b.Close() })

	return map[string]Store{"memory": mem, "bolt": b}
}

func TestStore_SetGetDelete(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	for name, s := range newStores(t, 0, c) {
		t.Run(name, func(t *testing.T) {
			if _, ok := s.Get(42); ok {
				t.Fatal("empty store returned a token")
			}
			if err := s.Set(42, "token-one"); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(42, "token-two"); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(7, "other"); err != nil {
				t.Fatal(err)
			}
			if got, ok := s.Get(42); !ok || got != "token-two" {
				t.Errorf("Get(42) = %q, %v", got, ok)
			}
			if s.Count() != 2 {
				t.Errorf("Count = %d, want 2", s.Count())
			}
			if err := s.Delete(42); err != nil {
				t.Fatal(err)
			}
			if _, ok := s.Get(42); ok {
				t.Error("token still present after Delete")
			}
			if s.Count() != 1 {
				t.Errorf("Count = %d, want 1", s.Count())
			}
		})
	}
}

func TestStore_TTL(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	for name, s := range newStores(t, time.Hour, c) {
		t.Run(name, func(t *testing.T) {
			c.t = time.Unix(1_700_000_000, 0)
			if err := s.Set(1, "fresh-token"); err != nil {
				t.Fatal(err)
			}

			c.t = c.t.Add(59 * time.Minute)
			if _, ok := s.Get(1); !ok {
				t.Fatal("token expired early")
			}

			c.t = c.t.Add(2 * time.Minute)
			if s.Count() != 0 {
				t.Errorf("Count = %d, want 0 after expiry", s.Count())
			}
			if _, ok := s.Get(1); ok {
				t.Error("expired token returned")
			}
		})
	}
}

func TestBolt_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.db")

	s, err := OpenBolt(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(99, "persisted-token"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBolt(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got, ok := s.Get(99); !ok || got != "persisted-token" {
		t.Errorf("Get after reopen = %q, %v", got, ok)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("Open(\"\") = %T, want *Memory", s)
	}

	s, err = Open(filepath.Join(t.TempDir(), "t.db"), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok := s.(*Bolt); !ok {
		t.Errorf("Open(path) = %T, want *Bolt", s)
	}
}
