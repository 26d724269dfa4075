package jumpthreading

import (
	"sync"
	"testing"
)

func TestNamePoolDeterministicAndUnique(t *testing.T) {
	a := NewNamePool()
	b := NewNamePool()

	seen := make(map[string]bool, 2*MaxNameIndex)
	for i := 0; i < MaxNameIndex; i++ {
		if a.Inner(i) != b.Inner(i) || a.Outer(i) != b.Outer(i) {
			t.Fatalf("pools disagree at %d", i)
		}
		for _, name := range []string{a.Inner(i), a.Outer(i)} {
			if seen[name] {
				t.Fatalf("duplicate name %q", name)
			}
			seen[name] = true
		}
	}
	if got, want := a.Inner(0), "jumpthreading$inner$0"; got != want {
		t.Errorf("Inner(0) = %q, want %q", got, want)
	}
	if got, want := a.Outer(999), "jumpthreading$outer$999"; got != want {
		t.Errorf("Outer(999) = %q, want %q", got, want)
	}
}

func TestDefaultNamePoolSharedUnderConcurrency(t *testing.T) {
	const goroutines = 16
	pools := make([]*NamePool, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pools[i] = DefaultNamePool()
		}(i)
	}
	wg.Wait()
	for i := 1; i < goroutines; i++ {
		if pools[i] != pools[0] {
			t.Fatal("DefaultNamePool returned distinct pools")
		}
	}
}
