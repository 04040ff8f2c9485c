package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScenarioFailure represents one failed scenario in a suite run.
type ScenarioFailure struct {
	Name         string `json:"name"`
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// SuiteResult summarizes a suite run over a scenario directory.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// SuiteOptions adjusts how RunSuite treats a scenario directory.
type SuiteOptions struct {
	// Filter is a glob pattern matched against each scenario file's base
	// name without extension. Empty matches everything.
	Filter string

	// Update rewrites golden snapshots for golden-flagged scenarios
	// instead of comparing against them.
	Update bool
}

// RunSuite loads and executes every scenario file under dir, walking
// subdirectories. Golden-flagged scenarios additionally compare their
// final state snapshot against {dir}/golden/{name}.golden next to the
// scenario file, or rewrite it when Update is set.
//
// Scenario failures land in the result; only infrastructure problems
// (an unreadable directory) return an error.
func RunSuite(dir string, opts SuiteOptions) (*SuiteResult, error) {
	paths, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("find scenarios: %w", err)
	}

	suite := &SuiteResult{}
	for _, path := range paths {
		suite.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.fail(filepath.Base(path), path, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		result, err := Run(scenario)
		if err != nil {
			suite.fail(scenario.Name, path, fmt.Sprintf("execution failed: %v", err))
			continue
		}
		if !result.Pass {
			suite.fail(scenario.Name, path, strings.Join(result.Errors, "; "))
			continue
		}

		if scenario.Golden {
			goldenPath := GoldenPath(path)
			if opts.Update {
				if err := WriteGolden(scenario.Name, result, goldenPath); err != nil {
					suite.fail(scenario.Name, path, fmt.Sprintf("failed to update golden snapshot: %v", err))
					continue
				}
			} else {
				match, err := CompareGolden(scenario.Name, result, goldenPath)
				if err != nil {
					suite.fail(scenario.Name, path, fmt.Sprintf("golden comparison failed: %v", err))
					continue
				}
				if !match {
					suite.fail(scenario.Name, path, "state does not match golden snapshot (rerun with update)")
					continue
				}
			}
		}

		suite.Passed++
	}

	return suite, nil
}

func (s *SuiteResult) fail(name, path, msg string) {
	s.Failed++
	s.Failures = append(s.Failures, ScenarioFailure{
		Name:         name,
		ScenarioPath: path,
		Error:        msg,
	})
}

// findScenarioFiles finds all YAML scenario files under dir, optionally
// filtered by a glob on the base name. Files under golden/ directories
// are snapshots, not scenarios.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// GoldenPath returns the golden snapshot path for a scenario file: a
// golden/ directory beside it, holding {name}.golden.
func GoldenPath(scenarioPath string) string {
	dir := filepath.Dir(scenarioPath)
	base := filepath.Base(scenarioPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// CompareGolden reports whether a finished run's snapshot matches the
// golden file byte for byte.
func CompareGolden(scenarioName string, result *Result, goldenPath string) (bool, error) {
	data, err := snapshotBytes(scenarioName, result)
	if err != nil {
		return false, err
	}
	golden, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("golden snapshot missing: %s", goldenPath)
		}
		return false, err
	}
	return bytes.Equal(data, golden), nil
}

// WriteGolden writes a finished run's snapshot as the golden file.
func WriteGolden(scenarioName string, result *Result, goldenPath string) error {
	data, err := snapshotBytes(scenarioName, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
		return fmt.Errorf("write golden snapshot: %w", err)
	}
	return nil
}
