package passes

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ecoball/binaryen/pkg/jumpthreading"
	"github.com/ecoball/binaryen/pkg/wasm"
	"github.com/ecoball/binaryen/pkg/wast"
)

// recordingPass notes every function it sees.
type recordingPass struct {
	mu   sync.Mutex
	seen map[string]int
	fail string // function name to fail on, if any
}

func newRecordingPass() *recordingPass {
	return &recordingPass{seen: make(map[string]int)}
}

func (p *recordingPass) Name() string { return "recording" }

func (p *recordingPass) RunOnFunction(fn *wasm.Function) error {
	p.mu.Lock()
	p.seen[fn.Name]++
	p.mu.Unlock()
	if fn.Name == p.fail {
		return errors.New("boom")
	}
	return nil
}

func testModule(n int) *wasm.Module {
	mod := &wasm.Module{}
	for i := 0; i < n; i++ {
		mod.Funcs = append(mod.Funcs, &wasm.Function{
			Name: fmt.Sprintf("f%d", i),
			Body: &wasm.Nop{},
		})
	}
	return mod
}

func TestRunVisitsEveryFunctionOnce(t *testing.T) {
	for _, sequential := range []bool{true, false} {
		mod := testModule(50)
		p := newRecordingPass()
		r := &Runner{Sequential: sequential}
		if err := r.Run(mod, p); err != nil {
			t.Fatalf("Sequential=%v: Run: %v", sequential, err)
		}
		if len(p.seen) != 50 {
			t.Errorf("Sequential=%v: visited %d functions, want 50", sequential, len(p.seen))
		}
		for name, n := range p.seen {
			if n != 1 {
				t.Errorf("Sequential=%v: $%s visited %d times", sequential, name, n)
			}
		}
	}
}

func TestRunPropagatesError(t *testing.T) {
	mod := testModule(10)
	p := newRecordingPass()
	p.fail = "f7"
	r := &Runner{}
	if err := r.Run(mod, p); err == nil {
		t.Fatal("expected an error from the failing function")
	}
}

func TestRunWorkerLimit(t *testing.T) {
	mod := testModule(20)
	p := newRecordingPass()
	r := &Runner{Workers: 2}
	if err := r.Run(mod, p); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(p.seen) != 20 {
		t.Errorf("visited %d functions, want 20", len(p.seen))
	}
}

// TestParallelJumpThreading runs the real pass over many copies of the
// same dispatch pattern concurrently; every function must come out
// rewritten the same way.
func TestParallelJumpThreading(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("(module\n")
	for i := 0; i < 64; i++ {
		fmt.Fprintf(&sb, `(func $f%d (param $x) (local $label)
			(block $top
				(block
					(local.set $label (i32.const 2)))
				(if (i32.eq (local.get $label) (i32.const 2))
					(then (call $a)))))
		`, i)
	}
	sb.WriteString(")")
	mod, err := wast.Parse(sb.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	r := &Runner{Workers: 8}
	if err := r.Run(mod, jumpthreading.NewPass()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := ""
	for i, fn := range mod.Funcs {
		printed := wasm.PrintFunc(fn)
		if !strings.Contains(printed, "jumpthreading$outer$0") {
			t.Fatalf("$%s was not rewritten:\n%s", fn.Name, printed)
		}
		// every function draws the same names from its own counter
		normalized := strings.Replace(printed, fn.Name, "fN", 1)
		if i == 0 {
			want = normalized
		} else if normalized != want {
			t.Errorf("$%s diverged:\n%s\nwant:\n%s", fn.Name, normalized, want)
		}
	}
}
