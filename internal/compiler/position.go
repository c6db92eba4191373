package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KromDaniel/followset/internal/charset"
)

// ErrInvalidBounds is returned for a repeat whose maximum is below its minimum.
var ErrInvalidBounds = errors.New("invalid repeat bounds")

// Unbounded is the Repeat maximum meaning "no upper limit".
const Unbounded = -1

// Flag describes how a move relates to the node that produced it.
type Flag uint8

const (
	// FlagEnd marks a move after which the producing node has completed its own match.
	FlagEnd Flag = 1 << iota
	// FlagEpsilon marks a move that consumed nothing. The caller advances the
	// successor again instead of recording a transition.
	FlagEpsilon
)

// Move is one step of a node's derivative: consuming Symbol leads to Node.
// Symbol is meaningless when Flags has FlagEpsilon.
type Move struct {
	Symbol charset.Set
	Node   Node
	Flags  Flag
}

// Consumes reports whether the move is a real transition.
func (m Move) Consumes() bool {
	return m.Flags&FlagEpsilon == 0
}

// Node is a position inside a pattern. Nodes are immutable: every derivative
// step returns fresh nodes and never changes its receiver.
//
// The set of implementations is closed: Literal, EmptyNode, Sequence,
// Choice, Repeat and Tagged.
type Node interface {
	// Advance returns every move available from this position.
	Advance() []Move
	// Copy returns a copy of the node. A deep copy also copies every descendant.
	Copy(deep bool) Node
	// Reset returns the node in its initial, unmatched form.
	Reset() Node
	// Key returns the canonical structural key. Equal keys mean equal behavior.
	Key() string

	sealed()
}

// Literal consumes one symbol out of a rune set.
type Literal struct {
	set     charset.Set
	matched bool
	key     string
}

// Lit returns a literal consuming any rune of set.
func Lit(set charset.Set) *Literal {
	return newLiteral(set, false)
}

// Char returns a literal consuming exactly r.
func Char(r rune) *Literal {
	return Lit(charset.Of(r))
}

func newLiteral(set charset.Set, matched bool) *Literal {
	key := "l[" + set.Key() + "]0"
	if matched {
		key = "l[" + set.Key() + "]1"
	}
	return &Literal{set: set, matched: matched, key: key}
}

// Set returns the runes the literal accepts.
func (l *Literal) Set() charset.Set { return l.set }

// Matched reports whether the literal was already consumed.
func (l *Literal) Matched() bool { return l.matched }

func (l *Literal) Advance() []Move {
	if l.matched {
		return []Move{{Symbol: l.set, Node: l, Flags: FlagEpsilon}}
	}
	return []Move{{Symbol: l.set, Node: newLiteral(l.set, true), Flags: FlagEnd}}
}

func (l *Literal) Copy(bool) Node { return newLiteral(l.set, l.matched) }

func (l *Literal) Reset() Node {
	if !l.matched {
		return l
	}
	return newLiteral(l.set, false)
}

func (l *Literal) Key() string { return l.key }
func (l *Literal) sealed()     {}

// EmptyNode matches the empty string. Use Empty to obtain it.
type EmptyNode struct{}

var empty = &EmptyNode{}

// Empty returns the node that is always already satisfied.
func Empty() *EmptyNode {
	return empty
}

func (e *EmptyNode) Advance() []Move {
	return []Move{{Node: e, Flags: FlagEnd | FlagEpsilon}}
}

func (e *EmptyNode) Copy(bool) Node { return e }
func (e *EmptyNode) Reset() Node    { return e }
func (e *EmptyNode) Key() string    { return "e" }
func (e *EmptyNode) sealed()        {}

// Sequence matches its nodes one after another. The cursor points at the
// node currently being matched.
type Sequence struct {
	nodes  []Node
	cursor int
	key    string
}

// Seq returns the concatenation of nodes.
func Seq(nodes ...Node) *Sequence {
	return newSequence(append([]Node(nil), nodes...), 0)
}

// String returns the sequence of literals spelling s.
func String(s string) *Sequence {
	nodes := make([]Node, 0, len(s))
	for _, r := range s {
		nodes = append(nodes, Char(r))
	}
	return newSequence(nodes, 0)
}

func newSequence(nodes []Node, cursor int) *Sequence {
	return &Sequence{nodes: nodes, cursor: cursor, key: compositeKey('s', nodes, cursor)}
}

// Nodes returns the sequence elements.
func (s *Sequence) Nodes() []Node { return append([]Node(nil), s.nodes...) }

// Cursor returns the index of the active element.
func (s *Sequence) Cursor() int { return s.cursor }

func (s *Sequence) Advance() []Move {
	if s.cursor >= len(s.nodes) {
		return []Move{{Node: s, Flags: FlagEnd | FlagEpsilon}}
	}

	var moves []Move
	for _, m := range s.nodes[s.cursor].Advance() {
		cursor := s.cursor
		// an epsilon move means the element is satisfied as well
		if m.Flags != 0 {
			cursor++
		}
		next := newSequence(replace(s.nodes, s.cursor, m.Node), cursor)
		if !m.Consumes() {
			moves = append(moves, next.Advance()...)
			continue
		}
		moves = append(moves, Move{Symbol: m.Symbol, Node: next})
	}
	return moves
}

func (s *Sequence) Copy(deep bool) Node {
	if !deep {
		return newSequence(s.nodes, s.cursor)
	}
	return newSequence(copyAll(s.nodes), s.cursor)
}

func (s *Sequence) Reset() Node {
	return newSequence(resetAll(s.nodes), 0)
}

func (s *Sequence) Key() string { return s.key }
func (s *Sequence) sealed()     {}

// Choice matches any one of its nodes. Before the first move no branch is
// committed and every branch is explored.
type Choice struct {
	nodes  []Node
	branch int
	key    string
}

// Alt returns the alternation of nodes.
func Alt(nodes ...Node) *Choice {
	return newChoice(append([]Node(nil), nodes...), -1)
}

func newChoice(nodes []Node, branch int) *Choice {
	return &Choice{nodes: nodes, branch: branch, key: compositeKey('c', nodes, branch)}
}

// Nodes returns the alternatives.
func (c *Choice) Nodes() []Node { return append([]Node(nil), c.nodes...) }

// Branch returns the committed alternative, or -1.
func (c *Choice) Branch() int { return c.branch }

func (c *Choice) Advance() []Move {
	if c.branch < 0 {
		var moves []Move
		for i := range c.nodes {
			moves = append(moves, newChoice(c.nodes, i).Advance()...)
		}
		return moves
	}

	sub := c.nodes[c.branch].Advance()
	moves := make([]Move, 0, len(sub))
	for _, m := range sub {
		moves = append(moves, Move{
			Symbol: m.Symbol,
			Node:   newChoice(replace(c.nodes, c.branch, m.Node), c.branch),
			Flags:  m.Flags,
		})
	}
	return moves
}

func (c *Choice) Copy(deep bool) Node {
	if !deep {
		return newChoice(c.nodes, c.branch)
	}
	return newChoice(copyAll(c.nodes), c.branch)
}

func (c *Choice) Reset() Node {
	return newChoice(resetAll(c.nodes), -1)
}

func (c *Choice) Key() string { return c.key }
func (c *Choice) sealed()     {}

// Repeat matches between min and max iterations of its node.
// count is the number of completed iterations and dirty is set while the
// current iteration has consumed input without completing.
type Repeat struct {
	node  Node
	min   int
	max   int
	count int
	dirty bool
	key   string
}

// NewRepeat returns node repeated between min and max times. Use Unbounded
// for max to allow any number of iterations.
func NewRepeat(node Node, min, max int) (*Repeat, error) {
	if min < 0 {
		return nil, fmt.Errorf("%w: negative minimum %d", ErrInvalidBounds, min)
	}
	if max != Unbounded && max < min {
		return nil, fmt.Errorf("%w: maximum %d below minimum %d", ErrInvalidBounds, max, min)
	}
	return newRepeat(node, min, max, 0, false), nil
}

// Star returns zero or more iterations of node.
func Star(node Node) *Repeat { return newRepeat(node, 0, Unbounded, 0, false) }

// Plus returns one or more iterations of node.
func Plus(node Node) *Repeat { return newRepeat(node, 1, Unbounded, 0, false) }

// Optional returns zero or one iteration of node.
func Optional(node Node) *Repeat { return newRepeat(node, 0, 1, 0, false) }

func newRepeat(node Node, min, max, count int, dirty bool) *Repeat {
	r := &Repeat{node: node, min: min, max: max, count: count, dirty: dirty}
	r.key = r.computeKey()
	return r
}

// computeKey drops the exact count once further iterations no longer change
// whether the loop may exit, which keeps the reachable key space finite.
func (r *Repeat) computeKey() string {
	count := strconv.Itoa(r.count)
	if (r.max != Unbounded && r.count >= r.max) || (r.max == Unbounded && r.count >= r.min) {
		count = "*"
	}
	dirty := "0"
	if r.dirty {
		dirty = "1"
	}
	return "r(" + r.node.Key() + ";" + strconv.Itoa(r.min) + ";" + strconv.Itoa(r.max) + ";" + count + ";" + dirty + ")"
}

// Bounds returns the minimum and maximum iteration counts.
func (r *Repeat) Bounds() (min, max int) { return r.min, r.max }

// Count returns the number of completed iterations.
func (r *Repeat) Count() int { return r.count }

func (r *Repeat) Advance() []Move {
	var moves []Move
	if !r.dirty {
		if r.count >= r.min {
			// leave the loop; the count is canonicalized so equivalent exits merge
			moves = append(moves, Move{Node: newRepeat(r.node, r.min, r.max, r.min, false), Flags: FlagEnd | FlagEpsilon})
		}
		if r.max != Unbounded && r.count >= r.max {
			return moves
		}
	}

	for _, m := range r.node.Advance() {
		// an iteration that consumes nothing adds no behavior once the exit is offered
		if !m.Consumes() && !r.dirty && r.count >= r.min {
			continue
		}

		count, dirty, inner := r.count, true, m.Node
		if m.Flags != 0 {
			count++
			dirty = false
			inner = inner.Copy(true).Reset()
		}
		next := newRepeat(inner, r.min, r.max, count, dirty)
		if !m.Consumes() {
			moves = append(moves, next.Advance()...)
			continue
		}
		moves = append(moves, Move{Symbol: m.Symbol, Node: next})
	}
	return moves
}

func (r *Repeat) Copy(deep bool) Node {
	node := r.node
	if deep {
		node = node.Copy(true)
	}
	return newRepeat(node, r.min, r.max, r.count, r.dirty)
}

func (r *Repeat) Reset() Node {
	return newRepeat(r.node.Reset(), r.min, r.max, 0, false)
}

func (r *Repeat) Key() string { return r.key }
func (r *Repeat) sealed()     {}

// Family identifies a top-level pattern.
type Family int

// Tagged wraps a whole pattern with its family. The family is part of the
// key, so equal sub-expressions of different families never merge.
type Tagged struct {
	node   Node
	family Family
	key    string
}

// Tag wraps node with family.
func Tag(node Node, family Family) *Tagged {
	return &Tagged{node: node, family: family, key: "t" + strconv.Itoa(int(family)) + "(" + node.Key() + ")"}
}

// Family returns the pattern identifier.
func (t *Tagged) Family() Family { return t.family }

// Node returns the wrapped node.
func (t *Tagged) Node() Node { return t.node }

func (t *Tagged) Advance() []Move {
	sub := t.node.Advance()
	moves := make([]Move, 0, len(sub))
	for _, m := range sub {
		moves = append(moves, Move{Symbol: m.Symbol, Node: Tag(m.Node, t.family), Flags: m.Flags})
	}
	return moves
}

func (t *Tagged) Copy(deep bool) Node {
	if !deep {
		return Tag(t.node, t.family)
	}
	return Tag(t.node.Copy(true), t.family)
}

func (t *Tagged) Reset() Node { return Tag(t.node.Reset(), t.family) }
func (t *Tagged) Key() string { return t.key }
func (t *Tagged) sealed()     {}

// replace returns a copy of nodes with nodes[i] set to n.
func replace(nodes []Node, i int, n Node) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	out[i] = n
	return out
}

func copyAll(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Copy(true)
	}
	return out
}

func resetAll(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Reset()
	}
	return out
}

func compositeKey(kind byte, nodes []Node, index int) string {
	var sb strings.Builder
	sb.WriteByte(kind)
	sb.WriteByte('(')
	for i, n := range nodes {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(n.Key())
	}
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(index))
	sb.WriteByte(')')
	return sb.String()
}
