package compiler

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/KromDaniel/followset/internal/codegen"
	"github.com/dave/jennifer/jen"
)

// GenerateConfig holds the configuration for Go code generation.
type GenerateConfig struct {
	Name       string // Name of the generated type (e.g., "Lexer" generates "LexerStart")
	Package    string
	OutputFile string
	Verbose    bool
}

// Generator writes a constructed automaton as Go transition tables.
type Generator struct {
	config    GenerateConfig
	automaton *Automaton
	file      *jen.File
	logger    *Logger
}

// NewGenerator creates a generator for the given automaton.
func NewGenerator(a *Automaton, config GenerateConfig) *Generator {
	return &Generator{
		config:    config,
		automaton: a,
		file:      jen.NewFile(config.Package),
		logger:    NewLogger(config.Verbose),
	}
}

// Generate generates the Go code and writes it to the output file.
func (g *Generator) Generate() error {
	if g.config.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	g.build()
	if err := g.file.Save(g.config.OutputFile); err != nil {
		return fmt.Errorf("failed to save generated code: %w", err)
	}
	g.logger.Log("Wrote %s", g.config.OutputFile)
	return nil
}

// Render generates the Go code and writes it to w.
func (g *Generator) Render(w io.Writer) error {
	g.build()
	return g.file.Render(w)
}

func (g *Generator) build() {
	g.logger.Section("Code Generation")
	g.logger.Log("Type: %s, states: %d", g.config.Name, len(g.automaton.States))

	names := make([]string, 0, len(g.automaton.Patterns))
	for _, p := range g.automaton.Patterns {
		names = append(names, fmt.Sprintf("%s=%d", p.Name, p.Family))
	}
	g.file.Comment(fmt.Sprintf("Code generated by followset for patterns: %s", strings.Join(names, ", ")))
	g.file.Comment("DO NOT EDIT.")
	g.file.Line()

	g.generateTypes()
	g.generateTable()
	g.generateMethods()
}

func (g *Generator) generateTypes() {
	name := g.config.Name

	g.file.Comment(fmt.Sprintf("%s is a deterministic automaton over runes.", name))
	g.file.Type().Id(name).Struct()
	g.file.Line()

	g.file.Type().Id(codegen.EdgeTypeName(name)).Struct(
		jen.Id(codegen.LoField).Rune(),
		jen.Id(codegen.HiField).Rune(),
		jen.Id(codegen.NextField).Int(),
	)
	g.file.Line()

	g.file.Type().Id(codegen.StateTypeName(name)).Struct(
		jen.Id(codegen.AcceptName).Bool(),
		jen.Id(codegen.FamilyName).Index().Int(),
		jen.Id(codegen.EdgesName).Index().Id(codegen.EdgeTypeName(name)),
	)
	g.file.Line()

	g.file.Comment(fmt.Sprintf("%s is the initial state of %s.", codegen.StartName(name), name))
	g.file.Const().Id(codegen.StartName(name)).Op("=").Lit(g.automaton.Start.ID)
	g.file.Line()
}

// generateTable emits one row per state, edges sorted by lower bound so the
// generated Step can stop early.
func (g *Generator) generateTable() {
	name := g.config.Name
	edgeType := codegen.EdgeTypeName(name)

	rows := make([]jen.Code, 0, len(g.automaton.States))
	for _, s := range g.automaton.States {
		families := jen.Nil()
		if len(s.Families) > 0 {
			lits := make([]jen.Code, len(s.Families))
			for i, f := range s.Families {
				lits[i] = jen.Lit(int(f))
			}
			families = jen.Index().Int().Values(lits...)
		}

		var edges []jen.Code
		for _, e := range sortedEdges(s) {
			edges = append(edges, jen.Values(jen.Lit(int(e.lo)), jen.Lit(int(e.hi)), jen.Lit(e.next)))
		}
		edgeList := jen.Nil()
		if len(edges) > 0 {
			edgeList = jen.Index().Id(edgeType).Values(edges...)
		}

		rows = append(rows, jen.Values(jen.Lit(s.Accept), families, edgeList))
	}

	g.file.Var().Id(codegen.TableName(name)).Op("=").Index().Id(codegen.StateTypeName(name)).Values(rows...)
	g.file.Line()
}

func (g *Generator) generateMethods() {
	name := g.config.Name
	table := codegen.TableName(name)

	outOfRange := func() *jen.Statement {
		return jen.Id(codegen.StateName).Op("<").Lit(0).Op("||").Id(codegen.StateName).Op(">=").Len(jen.Id(table))
	}

	g.file.Comment(fmt.Sprintf("Step returns the successor of state on r, or %d when there is none.", DeadState))
	g.file.Func().Params(jen.Id(name)).Id("Step").Params(
		jen.Id(codegen.StateName).Int(),
		jen.Id(codegen.RuneName).Rune(),
	).Int().Block(
		jen.If(outOfRange()).Block(jen.Return(jen.Lit(DeadState))),
		jen.For(
			jen.List(jen.Id("_"), jen.Id(codegen.EdgeName)).Op(":=").Range().Id(table).Index(jen.Id(codegen.StateName)).Dot(codegen.EdgesName),
		).Block(
			jen.If(jen.Id(codegen.RuneName).Op("<").Id(codegen.EdgeName).Dot(codegen.LoField)).Block(jen.Break()),
			jen.If(jen.Id(codegen.RuneName).Op("<=").Id(codegen.EdgeName).Dot(codegen.HiField)).Block(
				jen.Return(jen.Id(codegen.EdgeName).Dot(codegen.NextField)),
			),
		),
		jen.Return(jen.Lit(DeadState)),
	)
	g.file.Line()

	g.file.Comment("Accepting reports whether state accepts the input read so far.")
	g.file.Func().Params(jen.Id(name)).Id("Accepting").Params(jen.Id(codegen.StateName).Int()).Bool().Block(
		jen.Return(jen.Op("!").Parens(outOfRange()).Op("&&").Id(table).Index(jen.Id(codegen.StateName)).Dot(codegen.AcceptName)),
	)
	g.file.Line()

	g.file.Comment("Families returns the pattern families accepted at state.")
	g.file.Func().Params(jen.Id(name)).Id("Families").Params(jen.Id(codegen.StateName).Int()).Index().Int().Block(
		jen.If(outOfRange()).Block(jen.Return(jen.Nil())),
		jen.Return(jen.Id(table).Index(jen.Id(codegen.StateName)).Dot(codegen.FamilyName)),
	)
}

type edge struct {
	lo, hi rune
	next   int
}

// sortedEdges flattens the transitions of s into ranges ordered by lower bound.
func sortedEdges(s *State) []edge {
	var edges []edge
	for _, t := range s.Transitions {
		for _, r := range t.Set.Ranges() {
			edges = append(edges, edge{lo: r.Lo, hi: r.Hi, next: t.To.ID})
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].lo < edges[j].lo })
	return edges
}
