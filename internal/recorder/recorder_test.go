package recorder

import (
	"sync"
	"testing"
)

func TestRecorder_Transcript(t *testing.T) {
	r := New()
	if r.Transcript() != "" {
		t.Errorf("empty Transcript() = %q", r.Transcript())
	}

	r.Log("first")
	r.Log("")
	r.Log("third")

	if got := r.Transcript(); got != "first\n\nthird" {
		t.Errorf("Transcript() = %q", got)
	}

	lines := r.Lines()
	lines[0] = "mutated"
	if r.Lines()[0] != "first" {
		t.Error("Lines() exposes internal storage")
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Log("line")
		}()
	}
	wg.Wait()

	if n := len(r.Lines()); n != 50 {
		t.Errorf("len(Lines()) = %d, want 50", n)
	}
}
