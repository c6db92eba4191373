package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KromDaniel/followset/pkg/followset"
)

const (
	appName    = "followset"
	appVersion = "0.1.0"
)

// arrayFlags collects a repeatable string flag.
type arrayFlags []string

func (a *arrayFlags) String() string {
	return strings.Join(*a, ", ")
}

func (a *arrayFlags) Set(value string) error {
	*a = append(*a, value)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stdout)

	var ruleFiles arrayFlags
	fs.Var(&ruleFiles, "rules", "Rule file to compile (repeatable, families continue across files)")
	name := fs.String("name", "", "Name of the generated type (e.g., Lexer)")
	pkg := fs.String("package", "main", "Go package name for the generated code")
	output := fs.String("output", "", "Output file path")
	domainName := fs.String("domain", "ascii", "Rune domain: ascii, latin1 or unicode")
	maxStates := fs.Int("max-states", 0, "Maximum number of states (0 = default)")
	verbose := fs.Bool("verbose", false, "Log construction progress to stderr")
	helpFlag := fs.Bool("help", false, "Show help message")
	version := fs.Bool("version", false, "Print version information")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *helpFlag {
		printHelp(fs, stdout)
		return nil
	}
	if *version {
		fmt.Fprintf(stdout, "%s version %s\n", appName, appVersion)
		return nil
	}

	domain, err := parseDomain(*domainName)
	if err != nil {
		return err
	}

	opts := followset.GenerateOptions{
		RuleFiles:  ruleFiles,
		Name:       *name,
		Package:    *pkg,
		OutputFile: *output,
		Domain:     domain,
		MaxStates:  *maxStates,
		Verbose:    *verbose,
	}
	if err := opts.Validate(); err != nil {
		printHelp(fs, stdout)
		return err
	}
	if err := followset.Generate(opts); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Generated %s from %s\n", *output, ruleFiles.String())
	return nil
}

func parseDomain(name string) (followset.Domain, error) {
	switch strings.ToLower(name) {
	case "ascii":
		return followset.ASCII, nil
	case "latin1":
		return followset.Latin1, nil
	case "unicode":
		return followset.Unicode, nil
	}
	return followset.Domain{}, fmt.Errorf("unknown domain %q", name)
}

func printHelp(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [OPTIONS]\n\n", appName)
	fmt.Fprintln(w, "Compile rule files into a deterministic automaton and emit it as Go code")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s -rules=lexer.rules -name=Lexer -output=lexer.go\n", appName)
	fmt.Fprintf(w, "  %s -rules=keywords.rules -rules=ident.rules -name=Tok -package=tok -output=tok/tok.go -domain=unicode\n", appName)
}
