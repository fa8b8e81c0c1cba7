package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/callwatch/callwatch/internal/collector"
	"github.com/callwatch/callwatch/internal/probe"
	"github.com/callwatch/callwatch/internal/shim"
	"github.com/callwatch/callwatch/internal/transport"
)

var (
	runScenario string
	runProbes   []string
	runJSON     bool
	runWait     bool
	runTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Glob pattern for scenario YAML files")
	runCmd.Flags().StringSliceVar(&runProbes, "probe", nil, "Battery probe to run (repeatable; default all)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "JSON output")
	runCmd.Flags().BoolVar(&runWait, "wait", false, "Wait for the collector socket before probing")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Second, "Socket wait timeout")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fire the probe battery through a real shim",
	Long: "Makes real calls through the shim and verifies which ones report.\n" +
		"Without a socket the battery runs against a private in-process\n" +
		"collector and checks every expectation; with --socket (or\n" +
		transport.EnvSocket + " set) the probes fire at the external\n" +
		"collector and only delivery is reported.\n\n" +
		"Exit code 0 if all probes pass, 1 if any fail.",
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	if runScenario != "" {
		if rootSocket != "" {
			return fmt.Errorf("--scenario verifies against the built-in collector; --socket does not apply")
		}
		return runScenarioFiles(runScenario)
	}
	if endpoint := os.Getenv(transport.EnvSocket); endpoint != "" {
		return runExternal(endpoint)
	}
	return runBuiltin()
}

func runBuiltin() error {
	r, err := probe.NewRunner()
	if err != nil {
		return err
	}
	defer r.Close()

	var result *probe.RunResult
	if len(runProbes) > 0 {
		s := &probe.Scenario{Name: "selected"}
		for _, name := range runProbes {
			s.Steps = append(s.Steps, probe.Step{Probe: name})
		}
		result = r.RunScenario(s)
	} else {
		result = r.RunBattery()
	}
	return emitResults([]*probe.RunResult{result})
}

func runScenarioFiles(pattern string) error {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no scenario files match pattern: %s", pattern)
	}

	var results []*probe.RunResult
	for _, path := range matches {
		r, err := probe.LoadAndRun(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, r)
	}
	return emitResults(results)
}

func emitResults(results []*probe.RunResult) error {
	if runJSON {
		out, err := probe.FormatJSON(results)
		if err != nil {
			return err
		}
		fmt.Println(out)
	} else {
		fmt.Print(probe.FormatText(results))
	}

	for _, r := range results {
		if r.Failed > 0 {
			os.Exit(1)
		}
	}
	return nil
}

// runExternal exercises the probes against a collector this process
// does not control. Expectations cannot be checked from here, so the
// result is delivery accounting only.
func runExternal(endpoint string) error {
	if runWait {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := collector.WaitForSocket(ctx, endpoint); err != nil {
			return fmt.Errorf("waiting for %s: %w", endpoint, err)
		}
	}

	probes, err := selectProbes()
	if err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "callwatch-run-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	sh := shim.New(shim.WithSession(transport.NewWithEndpoint(endpoint)))
	defer sh.Close()

	for _, p := range probes {
		if err := p.Exercise(sh, scratch); err != nil {
			fmt.Fprintf(os.Stderr, "probe %s: %v\n", p.Name, err)
		}
	}

	st := sh.Stats()
	if runJSON {
		out, _ := json.MarshalIndent(map[string]any{
			"socket":    endpoint,
			"probes":    len(probes),
			"delivered": st.Delivered,
			"dropped":   st.TotalDropped(),
		}, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Printf("%d probes against %s: delivered %d, dropped %d\n",
			len(probes), endpoint, st.Delivered, st.TotalDropped())
	}

	if st.Delivered == 0 {
		os.Exit(1)
	}
	return nil
}

func selectProbes() ([]probe.Probe, error) {
	all := probe.Battery()
	if len(runProbes) == 0 {
		return all, nil
	}
	var out []probe.Probe
	for _, name := range runProbes {
		found := false
		for _, p := range all {
			if p.Name == name {
				out = append(out, p)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown probe %q", name)
		}
	}
	return out, nil
}
