// Package rules reads pattern definitions written as constructor calls,
// for example:
//
//	// identifiers and the "if" keyword
//	rule ident = seq(class('a'-'z', '_'), star(class('a'-'z', '0'-'9', '_')));
//	rule kw_if = "if";
//
// Each rule becomes one pattern family, numbered in file order.
package rules

import (
	"fmt"

	"github.com/KromDaniel/followset/internal/charset"
	"github.com/KromDaniel/followset/internal/compiler"
	"github.com/alecthomas/participle/v2"
)

type File struct {
	Rules []*Rule `parser:"@@*"`
}

type Rule struct {
	Name string `parser:"'rule' @Ident '='"`
	Expr *Expr  `parser:"@@ ';'"`
}

type Expr struct {
	Empty  bool    `parser:"  @'empty'"`
	Any    bool    `parser:"| @'any'"`
	Str    *string `parser:"| @String"`
	Char   *string `parser:"| @Char"`
	Class  *Class  `parser:"| @@"`
	Repeat *Repeat `parser:"| @@"`
	Call   *Call   `parser:"| @@"`
}

type Class struct {
	Negate bool    `parser:"( 'class' | @'not' )"`
	Items  []*Item `parser:"'(' @@ ( ',' @@ )* ')'"`
}

type Item struct {
	Lo string  `parser:"@Char"`
	Hi *string `parser:"( '-' @Char )?"`
}

type Call struct {
	Op   string  `parser:"@( 'seq' | 'alt' | 'star' | 'plus' | 'opt' )"`
	Args []*Expr `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

type Repeat struct {
	Expr  *Expr  `parser:"'repeat' '(' @@ ','"`
	Min   int    `parser:"@Int"`
	Bound *Bound `parser:"( ',' @@ )? ')'"`
}

type Bound struct {
	Unbounded bool `parser:"  @'*'"`
	Max       *int `parser:"| @Int"`
}

var parser = participle.MustBuild[File](participle.Unquote("String", "Char"))

// Parse parses rule definitions. filename is only used in error messages.
func Parse(filename string, src []byte) (*File, error) {
	f, err := parser.ParseBytes(filename, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return f, nil
}

// Patterns converts the rules into patterns over domain, numbering families
// from first.
func (f *File) Patterns(domain charset.Domain, first compiler.Family) ([]compiler.Pattern, error) {
	seen := make(map[string]bool)
	patterns := make([]compiler.Pattern, 0, len(f.Rules))
	for i, r := range f.Rules {
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule %q", r.Name)
		}
		seen[r.Name] = true

		root, err := r.Expr.node(domain)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		patterns = append(patterns, compiler.Pattern{
			Name:   r.Name,
			Family: first + compiler.Family(i),
			Root:   root,
		})
	}
	return patterns, nil
}

func (e *Expr) node(domain charset.Domain) (compiler.Node, error) {
	switch {
	case e.Empty:
		return compiler.Empty(), nil
	case e.Any:
		return compiler.Lit(domain.Full()), nil
	case e.Str != nil:
		return compiler.String(*e.Str), nil
	case e.Char != nil:
		r, err := single(*e.Char)
		if err != nil {
			return nil, err
		}
		return compiler.Char(r), nil
	case e.Class != nil:
		return e.Class.node(domain)
	case e.Repeat != nil:
		return e.Repeat.node(domain)
	case e.Call != nil:
		return e.Call.node(domain)
	}
	return nil, fmt.Errorf("empty expression")
}

func (c *Class) node(domain charset.Domain) (compiler.Node, error) {
	ranges := make([]charset.Range, 0, len(c.Items))
	for _, item := range c.Items {
		lo, err := single(item.Lo)
		if err != nil {
			return nil, err
		}
		hi := lo
		if item.Hi != nil {
			if hi, err = single(*item.Hi); err != nil {
				return nil, err
			}
		}
		ranges = append(ranges, charset.Span(lo, hi))
	}

	var set charset.Set
	var err error
	if c.Negate {
		set, err = charset.NewInverted(domain, ranges...)
	} else {
		set, err = charset.New(ranges...)
	}
	if err != nil {
		return nil, err
	}
	return compiler.Lit(set), nil
}

func (c *Call) node(domain charset.Domain) (compiler.Node, error) {
	args := make([]compiler.Node, 0, len(c.Args))
	for _, a := range c.Args {
		n, err := a.node(domain)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
	}

	switch c.Op {
	case "seq":
		return compiler.Seq(args...), nil
	case "alt":
		return compiler.Alt(args...), nil
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("%s takes 1 argument, got %d", c.Op, len(args))
	}
	switch c.Op {
	case "star":
		return compiler.Star(args[0]), nil
	case "plus":
		return compiler.Plus(args[0]), nil
	default:
		return compiler.Optional(args[0]), nil
	}
}

func (r *Repeat) node(domain charset.Domain) (compiler.Node, error) {
	inner, err := r.Expr.node(domain)
	if err != nil {
		return nil, err
	}
	max := r.Min
	if r.Bound != nil {
		if r.Bound.Unbounded {
			max = compiler.Unbounded
		} else {
			max = *r.Bound.Max
		}
	}
	rep, err := compiler.NewRepeat(inner, r.Min, max)
	if err != nil {
		return nil, err
	}
	return rep, nil
}

func single(s string) (rune, error) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("expected a single character, got %q", s)
	}
	return runes[0], nil
}
