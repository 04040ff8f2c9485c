package harness

// StepRecord logs one executed step for assertion context and golden
// comparison.
type StepRecord struct {
	// Op is the step operation name.
	Op string `json:"op"`

	// Target is the asset or layer the step acted on.
	Target string `json:"target"`

	// Count is the step's reported count: features queued or written,
	// files staged, promoted or published. Zero for materialize.
	Count int `json:"count"`

	// Err holds the step's error text. Populated only for steps that
	// declared expect_error; other failures abort the run instead.
	Err string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation and assertion
	// held.
	Pass bool `json:"pass"`

	// Steps records the executed steps in order.
	Steps []StepRecord `json:"steps"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State snapshots the final canonical content per layer: a map of
	// layer name to the files in its layer directory, with JSON files
	// decoded and everything else kept as a string.
	State map[string]any `json:"state"`
}

// NewResult creates a new passing result. Used as the starting point for
// scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepRecord{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step record.
func (r *Result) AddStep(rec StepRecord) {
	r.Steps = append(r.Steps, rec)
}

// Layer returns the snapshot of one layer's directory, nil when the layer
// was never captured.
func (r *Result) Layer(name string) map[string]any {
	files, _ := r.State[name].(map[string]any)
	return files
}
