package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KromDaniel/followset/pkg/followset"
)

// TestCase represents a rule file and inputs to run through it
type TestCase struct {
	Rules  string   `json:"rules"`
	Inputs []string `json:"inputs"`
}

const driver = `package main

import (
	"fmt"
	"os"
)

func main() {
	var l Lexer
	for _, in := range os.Args[1:] {
		state := LexerStart
		for _, r := range in {
			state = l.Step(state, r)
		}
		fmt.Printf("%q %v\n", in, l.Families(state))
	}
}
`

// TestE2E generates Go code for each rule file, compiles it in a scratch
// module and checks it classifies inputs like the in-process automaton.
func TestE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}

	data, err := os.ReadFile("testdata.json")
	if err != nil {
		t.Fatalf("Failed to read test data: %v", err)
	}

	var testCases []TestCase
	if err := json.Unmarshal(data, &testCases); err != nil {
		t.Fatalf("Failed to parse test data: %v", err)
	}
	if len(testCases) == 0 {
		t.Fatal("No test cases found in testdata.json")
	}

	tempDir := t.TempDir()

	for i, tc := range testCases {
		testName := fmt.Sprintf("Rules%02d", i+1)

		t.Run(testName, func(t *testing.T) {
			caseDir := filepath.Join(tempDir, testName)
			if err := os.MkdirAll(caseDir, 0755); err != nil {
				t.Fatalf("Failed to create test directory: %v", err)
			}

			rulesFile := filepath.Join(caseDir, "lexer.rules")
			if err := os.WriteFile(rulesFile, []byte(tc.Rules), 0644); err != nil {
				t.Fatal(err)
			}

			// Step 1: generate the lexer and a driver around it
			err := followset.Generate(followset.GenerateOptions{
				RuleFiles:  []string{rulesFile},
				Name:       "Lexer",
				Package:    "main",
				OutputFile: filepath.Join(caseDir, "lexer.go"),
			})
			if err != nil {
				t.Fatalf("Failed to generate code: %v", err)
			}
			if err := os.WriteFile(filepath.Join(caseDir, "main.go"), []byte(driver), 0644); err != nil {
				t.Fatal(err)
			}

			// Step 2: initialize a go module in the test directory
			initCmd := exec.Command("go", "mod", "init", "testmodule")
			initCmd.Dir = caseDir
			if output, err := initCmd.CombinedOutput(); err != nil {
				t.Fatalf("Failed to initialize go module:\nOutput: %s\nError: %v", string(output), err)
			}

			// Step 3: run the generated lexer over the inputs
			cmd := exec.Command("go", append([]string{"run", "."}, tc.Inputs...)...)
			cmd.Dir = caseDir
			output, err := cmd.CombinedOutput()
			if err != nil {
				t.Fatalf("Generated lexer failed:\nOutput: %s\nError: %v", string(output), err)
			}

			want := expected(t, tc)
			if got := string(output); got != want {
				t.Errorf("generated lexer disagrees with automaton\ngot:\n%s\nwant:\n%s", got, want)
			}
		})
	}
}

// expected runs the inputs through the in-process automaton, formatted like the driver.
func expected(t *testing.T, tc TestCase) string {
	t.Helper()
	patterns, err := followset.ParseRules("lexer.rules", []byte(tc.Rules), followset.ASCII, 0)
	if err != nil {
		t.Fatal(err)
	}
	a, err := followset.Build(followset.Options{Patterns: patterns})
	if err != nil {
		t.Fatal(err)
	}

	var b strings.Builder
	for _, in := range tc.Inputs {
		var families []int
		state := a.Start
		for _, r := range in {
			if state = state.Next(r); state == nil {
				break
			}
		}
		if state != nil {
			for _, f := range state.Families {
				families = append(families, int(f))
			}
		}
		fmt.Fprintf(&b, "%q %v\n", in, families)
	}
	return b.String()
}
