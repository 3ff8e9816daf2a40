package conformance

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TestDataDir holds the hand-authored bytecode fixtures, relative to
// this package's own directory so `go test ./...` finds them regardless
// of the caller's working directory.
const TestDataDir = "testdata"

// LoadedTest pairs one TestCase with the suite (and file) it came from,
// so a fixture's Names/Literals are available alongside the case itself.
type LoadedTest struct {
	File  string
	Suite TestSuite
	Test  TestCase
}

// LoadAllTests walks TestDataDir and loads every *.yaml fixture beneath it.
func LoadAllTests() ([]LoadedTest, error) {
	var loaded []LoadedTest

	err := filepath.Walk(TestDataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		suite, err := loadSuiteFile(path)
		if err != nil {
			return err
		}
		for _, tc := range suite.Tests {
			loaded = append(loaded, LoadedTest{File: filepath.Base(path), Suite: suite, Test: tc})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loaded, nil
}

func loadSuiteFile(path string) (TestSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TestSuite{}, err
	}
	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return TestSuite{}, err
	}
	return suite, nil
}
