// Package followset builds deterministic automata directly from pattern
// expression trees, one family per pattern, using symbolic rune intervals.
//
// Patterns are built with the constructors of this package:
//
//	abc := followset.Star(followset.Alt(followset.Char('a'), followset.Char('b'), followset.Char('c')))
//	a, err := followset.Build(followset.Options{
//	    Patterns: []followset.Pattern{{Name: "tail", Family: 0, Root: followset.Seq(abc, followset.String("ab"))}},
//	})
package followset

import (
	"fmt"
	"os"

	"github.com/KromDaniel/followset/internal/charset"
	"github.com/KromDaniel/followset/internal/compiler"
	"github.com/KromDaniel/followset/internal/rules"
)

type (
	Node       = compiler.Node
	Family     = compiler.Family
	Pattern    = compiler.Pattern
	Automaton  = compiler.Automaton
	State      = compiler.State
	Transition = compiler.Transition
	Set        = charset.Set
	Range      = charset.Range
	Domain     = charset.Domain
)

// Pattern constructors.
var (
	Lit      = compiler.Lit
	Char     = compiler.Char
	String   = compiler.String
	Empty    = compiler.Empty
	Seq      = compiler.Seq
	Alt      = compiler.Alt
	Star     = compiler.Star
	Plus     = compiler.Plus
	Optional = compiler.Optional
	Repeat   = compiler.NewRepeat
)

// Unbounded is the Repeat maximum meaning "no upper limit".
const Unbounded = compiler.Unbounded

// Domains.
var (
	ASCII   = charset.ASCII
	Latin1  = charset.Latin1
	Unicode = charset.Unicode
)

// Errors.
var (
	ErrInvalidRange  = charset.ErrInvalidRange
	ErrInvalidBounds = compiler.ErrInvalidBounds
	ErrStateLimit    = compiler.ErrStateLimit
)

// NewSet builds a rune set from ranges, merging overlapping and adjacent ones.
func NewSet(ranges ...Range) (Set, error) {
	return charset.New(ranges...)
}

// Options configures automaton construction.
type Options struct {
	// Patterns are the expression trees to recognize, each with its family
	Patterns []Pattern

	// Domain bounds the runes the automaton consumes (zero value = ASCII)
	Domain Domain

	// MaxStates stops construction with ErrStateLimit once exceeded (0 = default)
	MaxStates int

	// Verbose logs construction progress to stderr
	Verbose bool
}

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if len(o.Patterns) == 0 {
		return fmt.Errorf("patterns cannot be empty")
	}
	for i, p := range o.Patterns {
		if p.Root == nil {
			return fmt.Errorf("pattern %d (%q) has no root", i, p.Name)
		}
	}
	if o.MaxStates < 0 {
		return fmt.Errorf("max states cannot be negative")
	}
	if err := o.Domain.Validate(); err != nil {
		return err
	}
	return nil
}

// Build constructs the deterministic automaton recognizing every pattern.
func Build(opts Options) (*Automaton, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	b := compiler.NewBuilder(compiler.Config{
		Patterns:  opts.Patterns,
		Domain:    opts.Domain,
		MaxStates: opts.MaxStates,
		Verbose:   opts.Verbose,
	})
	a, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build automaton: %w", err)
	}
	return a, nil
}

// ParseRules reads rule definitions and returns one pattern per rule, with
// families numbered from first in file order.
func ParseRules(filename string, src []byte, domain Domain, first Family) ([]Pattern, error) {
	f, err := rules.Parse(filename, src)
	if err != nil {
		return nil, err
	}
	return f.Patterns(domain, first)
}

// GenerateOptions configures Go code generation from rule files.
type GenerateOptions struct {
	// RuleFiles are the paths of rule files; families continue across files
	RuleFiles []string

	// Name is the generated type name (e.g., "Lexer" generates "LexerStart")
	Name string

	// OutputFile is the path where generated code will be written
	OutputFile string

	// Package is the Go package name for the generated code
	Package string

	Domain    Domain
	MaxStates int
	Verbose   bool
}

// Validate checks if the options are valid.
func (o GenerateOptions) Validate() error {
	if len(o.RuleFiles) == 0 {
		return fmt.Errorf("rule files cannot be empty")
	}
	if o.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if o.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if o.Package == "" {
		return fmt.Errorf("package cannot be empty")
	}
	return nil
}

// Generate reads the rule files, builds the automaton and writes it as Go code.
func Generate(opts GenerateOptions) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	domain := opts.Domain
	if domain == (Domain{}) {
		domain = ASCII
	}

	var patterns []Pattern
	for _, path := range opts.RuleFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read rules: %w", err)
		}
		ps, err := ParseRules(path, src, domain, Family(len(patterns)))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		patterns = append(patterns, ps...)
	}

	a, err := Build(Options{
		Patterns:  patterns,
		Domain:    domain,
		MaxStates: opts.MaxStates,
		Verbose:   opts.Verbose,
	})
	if err != nil {
		return err
	}

	g := compiler.NewGenerator(a, compiler.GenerateConfig{
		Name:       opts.Name,
		Package:    opts.Package,
		OutputFile: opts.OutputFile,
		Verbose:    opts.Verbose,
	})
	if err := g.Generate(); err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	return nil
}
