package compiler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KromDaniel/followset/internal/charset"
)

// ErrStateLimit is returned when construction discovers more states than allowed.
var ErrStateLimit = errors.New("state limit exceeded")

// Pattern is one top-level expression and the family it reports on acceptance.
type Pattern struct {
	Name   string
	Family Family
	Root   Node
}

// Config holds the configuration for automaton construction.
type Config struct {
	Patterns  []Pattern
	Domain    charset.Domain // Runes the automaton may consume (zero value = charset.ASCII)
	MaxStates int            // Max states before giving up (0 = use DefaultMaxStates)
	Verbose   bool           // Enable verbose logging of construction progress
}

// State is a deterministic automaton state: the set of positions reached by
// every input leading here.
type State struct {
	ID          int
	Items       []Node // ordered by key
	Accept      bool
	Families    []Family // sorted, families whose pattern is satisfied here
	Transitions []Transition

	key string
}

// Transition leads to To on every rune of Set.
type Transition struct {
	Set charset.Set
	To  *State
}

// Key returns the canonical key of the state's item set.
func (s *State) Key() string { return s.key }

// Next returns the successor on r, or nil when no transition covers r.
func (s *State) Next(r rune) *State {
	for _, t := range s.Transitions {
		if t.Set.Contains(r) {
			return t.To
		}
	}
	return nil
}

// AcceptsFamily reports whether the pattern of family f is satisfied here.
func (s *State) AcceptsFamily(f Family) bool {
	i := sort.Search(len(s.Families), func(i int) bool { return s.Families[i] >= f })
	return i < len(s.Families) && s.Families[i] == f
}

// Automaton is the result of a construction. States are indexed by ID.
type Automaton struct {
	Start    *State
	States   []*State
	Domain   charset.Domain
	Patterns []Pattern
}

// Builder expands pattern positions into automaton states.
type Builder struct {
	config Config
	logger *Logger

	states   []*State
	registry map[string]*State
	queue    []*State
}

// NewBuilder creates a builder for the given configuration.
func NewBuilder(config Config) *Builder {
	if config.Domain == (charset.Domain{}) {
		config.Domain = charset.ASCII
	}
	if config.MaxStates <= 0 {
		config.MaxStates = DefaultMaxStates
	}
	return &Builder{
		config:   config,
		logger:   NewLogger(config.Verbose),
		registry: make(map[string]*State),
	}
}

// Logger returns the builder's logger.
func (b *Builder) Logger() *Logger {
	return b.logger
}

// Build runs the worklist to completion and returns the automaton.
func (b *Builder) Build() (*Automaton, error) {
	if err := b.config.Domain.Validate(); err != nil {
		return nil, err
	}

	b.logger.Section("Construction")
	b.logger.Log("Patterns: %d", len(b.config.Patterns))
	b.logger.Log("Domain: [%d,%d]", b.config.Domain.Min, b.config.Domain.Max)

	var start *Label[Node]
	for _, p := range b.config.Patterns {
		root := Tag(p.Root, p.Family)
		if start == nil {
			start = NewLabel[Node](root.Key(), root)
		} else {
			start = start.With(root.Key(), root)
		}
	}
	if start == nil {
		return nil, fmt.Errorf("no patterns to construct")
	}

	first, _, err := b.lookup(start)
	if err != nil {
		return nil, err
	}

	domain := b.config.Domain.Full()
	for len(b.queue) > 0 {
		state := b.queue[0]
		b.queue = b.queue[1:]
		if err := b.expand(state, domain); err != nil {
			return nil, err
		}
	}

	b.logger.Log("States: %d", len(b.states))
	b.checkInvariants()

	return &Automaton{
		Start:    first,
		States:   b.states,
		Domain:   b.config.Domain,
		Patterns: b.config.Patterns,
	}, nil
}

// expand computes the accept status and outgoing transitions of state.
func (b *Builder) expand(state *State, domain charset.Set) error {
	table := NewTable(func(n Node) string { return n.Key() })
	families := make(map[Family]bool)

	for _, item := range state.Items {
		for _, m := range item.Advance() {
			if !m.Consumes() {
				state.Accept = true
				if tagged, ok := item.(*Tagged); ok {
					families[tagged.Family()] = true
				}
				continue
			}
			_, _, symbol := m.Symbol.Intersect(domain)
			table.Insert(symbol, m.Node)
		}
	}

	for f := range families {
		state.Families = append(state.Families, f)
	}
	sort.Slice(state.Families, func(i, j int) bool { return state.Families[i] < state.Families[j] })

	for _, e := range table.Entries() {
		next, created, err := b.lookup(e.Label)
		if err != nil {
			return err
		}
		if created {
			b.logger.Log("State %d -> %d on [%s] (%d items)", state.ID, next.ID, e.Set.Key(), len(next.Items))
		}
		state.Transitions = append(state.Transitions, Transition{Set: e.Set, To: next})
	}
	sort.Slice(state.Transitions, func(i, j int) bool {
		a, _ := state.Transitions[i].Set.Representative()
		c, _ := state.Transitions[j].Set.Representative()
		return a < c
	})
	return nil
}

// lookup returns the registered state for the item set in label, creating and
// queueing it when it is new.
func (b *Builder) lookup(label *Label[Node]) (*State, bool, error) {
	if s, ok := b.registry[label.Key()]; ok {
		return s, false, nil
	}
	if len(b.states) >= b.config.MaxStates {
		return nil, false, fmt.Errorf("%w: exceeded %d states", ErrStateLimit, b.config.MaxStates)
	}

	s := &State{
		ID:    len(b.states),
		Items: label.Values(),
		key:   label.Key(),
	}
	b.states = append(b.states, s)
	b.registry[s.key] = s
	b.queue = append(b.queue, s)
	return s, true, nil
}

// checkInvariants panics if the constructed states break determinism or
// hash-consing. Either would be a bug in the construction, not bad input.
func (b *Builder) checkInvariants() {
	for _, s := range b.states {
		if b.registry[s.key] != s {
			panic(fmt.Sprintf("followset: state %d missing from registry", s.ID))
		}
		for i, t := range s.Transitions {
			if b.registry[t.To.key] != t.To {
				panic(fmt.Sprintf("followset: state %d targets unregistered state", s.ID))
			}
			for _, u := range s.Transitions[i+1:] {
				if _, _, both := t.Set.Intersect(u.Set); !both.IsEmpty() {
					panic(fmt.Sprintf("followset: state %d has overlapping transitions on [%s]", s.ID, both.Key()))
				}
			}
		}
	}
}
