package conformance

import (
	"testing"
)

func TestConformance(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("failed to load fixtures: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("no conformance fixtures loaded")
	}

	runner := NewRunner()
	results := runner.RunAll(tests)
	stats := ComputeStats(results)

	byFile := make(map[string][]TestResult)
	for _, result := range results {
		byFile[result.Test.File] = append(byFile[result.Test.File], result)
	}

	for file, fileResults := range byFile {
		t.Run(file, func(t *testing.T) {
			for _, result := range fileResults {
				result := result
				t.Run(result.Test.Test.Name, func(t *testing.T) {
					switch {
					case result.Skipped:
						t.Skipf("skipped: %s", result.SkipReason)
					case !result.Passed:
						t.Errorf("test failed: %v", result.Error)
					}
				})
			}
		})
	}

	t.Logf("conformance summary: %s", FormatStats(stats))
	if stats.Failed > 0 {
		t.Fatalf("%d conformance fixture(s) failed", stats.Failed)
	}
}
