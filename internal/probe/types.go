package probe

// Step selects one battery probe within a scenario. An empty expect
// list means the probe's built-in expectation applies; a non-nil list
// overrides it.
type Step struct {
	Probe   string   `yaml:"probe"`
	Expect  []string `yaml:"expect"`
	Purpose string   `yaml:"purpose,omitempty"`
}

// Scenario is a named probe sequence loaded from YAML.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// StepResult is the outcome of one probe step.
type StepResult struct {
	Index    int      `json:"index"`
	Probe    string   `json:"probe"`
	Passed   bool     `json:"passed"`
	Expected []string `json:"expected"`
	Observed []string `json:"observed"`
	Reason   string   `json:"reason,omitempty"`
}

// RunResult is the outcome of running one probe set.
type RunResult struct {
	File   string       `json:"file,omitempty"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Steps  []StepResult `json:"steps"`
}
