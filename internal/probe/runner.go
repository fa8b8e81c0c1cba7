package probe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/callwatch/callwatch/internal/collector"
	"github.com/callwatch/callwatch/internal/shim"
	"github.com/callwatch/callwatch/internal/transport"
)

// markerTimeout bounds how long one step may take to surface its
// events at the in-process collector.
const markerTimeout = 5 * time.Second

// Runner drives probes through a real shim wired to an in-process
// collector, then checks which functions reported. Steps are bounded
// by a marker event, an unlink of a scratch path that always reports,
// so silence is as checkable as noise.
type Runner struct {
	listener *collector.Listener
	sh       *shim.Shim
	scratch  string
	seq      int
}

// NewRunner builds the scratch directory, the collector socket inside
// it and a shim session pinned to that socket.
func NewRunner() (*Runner, error) {
	scratch, err := os.MkdirTemp("", "callwatch-check-*")
	if err != nil {
		return nil, fmt.Errorf("probe: scratch dir: %w", err)
	}
	l, err := collector.Listen(filepath.Join(scratch, "check.sock"))
	if err != nil {
		os.RemoveAll(scratch)
		return nil, err
	}
	sh := shim.New(shim.WithSession(transport.NewWithEndpoint(l.Path())))
	return &Runner{listener: l, sh: sh, scratch: scratch}, nil
}

// Close tears the shim, the collector and the scratch directory down.
func (r *Runner) Close() {
	r.sh.Close()
	r.listener.Close()
	os.RemoveAll(r.scratch)
}

// RunBattery runs the built-in probes with their own expectations.
func (r *Runner) RunBattery() *RunResult {
	result := &RunResult{Name: "builtin", Total: len(Battery())}
	for i, p := range Battery() {
		r.record(result, r.runStep(i, p.Name, nil))
	}
	return result
}

// RunScenario runs a YAML-selected probe sequence.
func (r *Runner) RunScenario(s *Scenario) *RunResult {
	result := &RunResult{Name: s.Name, Total: len(s.Steps)}
	for i, step := range s.Steps {
		r.record(result, r.runStep(i, step.Probe, step.Expect))
	}
	return result
}

func (r *Runner) record(result *RunResult, sr StepResult) {
	if sr.Passed {
		result.Passed++
	} else {
		result.Failed++
	}
	result.Steps = append(result.Steps, sr)
}

// runStep runs one probe and collects the functions it reported. A
// nil override keeps the probe's built-in expectation.
func (r *Runner) runStep(idx int, name string, override []string) StepResult {
	res := StepResult{Index: idx + 1, Probe: name}
	p, ok := findProbe(name)
	if !ok {
		res.Reason = "unknown probe"
		return res
	}
	expect := p.Expect
	if override != nil {
		expect = override
	}
	res.Expected = expect

	runErr := p.run(r.sh, r.scratch)

	// The marker unlink always reports, bounding this step's events.
	marker := r.nextMarker()
	_ = r.sh.Unlink(marker)
	observed, obsErr := r.collectUntil(marker)
	res.Observed = observed

	switch {
	case obsErr != nil:
		res.Reason = obsErr.Error()
	case runErr != nil:
		res.Reason = runErr.Error()
	case !sameFunctions(observed, expect):
		res.Reason = fmt.Sprintf("observed %v, expected %v", observed, expect)
	default:
		res.Passed = true
	}
	return res
}

func (r *Runner) nextMarker() string {
	r.seq++
	return filepath.Join(r.scratch, fmt.Sprintf(".marker-%d", r.seq))
}

// collectUntil drains events up to the marker and returns their
// function names in arrival order.
func (r *Runner) collectUntil(marker string) ([]string, error) {
	var fns []string
	deadline := time.After(markerTimeout)
	for {
		select {
		case ev, ok := <-r.listener.Events():
			if !ok {
				return fns, errors.New("collector closed mid-step")
			}
			if ev.Function == "unlink" && ev.Cmd == marker {
				return fns, nil
			}
			fns = append(fns, ev.Function)
		case <-deadline:
			return fns, errors.New("timed out waiting for the marker event")
		}
	}
}

func sameFunctions(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// LoadAndRun loads a scenario YAML file and runs it on a fresh runner.
func LoadAndRun(path string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	r, err := NewRunner()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	result := r.RunScenario(&s)
	result.File = path
	return result, nil
}
