package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// StateSnapshot captures a scenario's executed steps and final layer state
// for golden comparison. Serialization goes through plain maps, so keys
// come out sorted and the bytes are deterministic.
type StateSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Steps        []StepRecord   `json:"steps"`
	State        map[string]any `json:"state"`
}

// toCanonicalMap converts the snapshot to a map[string]any for
// deterministic serialization. Step error text is excluded: it can embed
// the run's temporary paths.
func (s *StateSnapshot) toCanonicalMap() map[string]any {
	stepList := make([]any, len(s.Steps))
	for i, rec := range s.Steps {
		stepList[i] = map[string]any{
			"op":     rec.Op,
			"target": rec.Target,
			"count":  rec.Count,
		}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"steps":         stepList,
		"state":         s.State,
	}
}

// snapshotBytes builds the canonical golden bytes for a finished run.
func snapshotBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := StateSnapshot{
		ScenarioName: scenarioName,
		Steps:        result.Steps,
		State:        result.State,
	}
	return json.Marshal(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the final state against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares a finished run's snapshot against a golden file.
// This is useful when the scenario already ran and its assertions were
// checked separately.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := snapshotBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
