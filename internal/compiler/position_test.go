package compiler

import (
	"errors"
	"testing"

	"github.com/KromDaniel/followset/internal/charset"
)

func TestLiteralAdvance(t *testing.T) {
	a := Char('a')

	moves := a.Advance()
	if len(moves) != 1 {
		t.Fatalf("Advance() returned %d moves, want 1", len(moves))
	}
	m := moves[0]
	if m.Flags != FlagEnd || !m.Consumes() {
		t.Errorf("unmatched literal flags = %v, want FlagEnd", m.Flags)
	}
	if !m.Symbol.Equal(charset.Of('a')) {
		t.Errorf("symbol = %q, want %q", m.Symbol.Key(), charset.Of('a').Key())
	}
	if m.Node.Key() == a.Key() {
		t.Error("matched literal should have a different key")
	}

	again := m.Node.Advance()
	if len(again) != 1 || again[0].Flags != FlagEpsilon {
		t.Fatalf("matched literal moves = %+v, want one epsilon move", again)
	}
	if again[0].Node.Key() != m.Node.Key() {
		t.Error("matched literal should stay unchanged")
	}

	if m.Node.Reset().Key() != a.Key() {
		t.Error("Reset() should restore the unmatched literal")
	}
}

func TestEmptyAdvance(t *testing.T) {
	moves := Empty().Advance()
	if len(moves) != 1 || moves[0].Flags != FlagEnd|FlagEpsilon {
		t.Fatalf("Empty().Advance() = %+v", moves)
	}
	if moves[0].Node != Empty() || Empty().Copy(true) != Empty() || Empty().Reset() != Empty() {
		t.Error("Empty should be a singleton")
	}
}

func TestSequenceAdvance(t *testing.T) {
	s := Seq(Char('a'), Char('b'))

	moves := s.Advance()
	if len(moves) != 1 || !moves[0].Symbol.Contains('a') || !moves[0].Consumes() {
		t.Fatalf("first moves = %+v", moves)
	}
	after := moves[0].Node.(*Sequence)
	if after.Cursor() != 1 {
		t.Errorf("cursor after a = %d, want 1", after.Cursor())
	}

	moves = after.Advance()
	if len(moves) != 1 || !moves[0].Symbol.Contains('b') {
		t.Fatalf("second moves = %+v", moves)
	}

	done := moves[0].Node.Advance()
	if len(done) != 1 || done[0].Flags != FlagEnd|FlagEpsilon {
		t.Errorf("completed sequence moves = %+v, want END|EPSILON", done)
	}

	if s.Key() == after.Key() {
		t.Error("cursor must be part of the key")
	}
	if after.Reset().Key() != s.Key() {
		t.Error("Reset() should restore the initial sequence")
	}
}

func TestSequenceSkipsNullable(t *testing.T) {
	s := Seq(Empty(), Optional(Char('a')), Char('b'))

	got := map[rune]bool{}
	for _, m := range s.Advance() {
		if !m.Consumes() {
			t.Fatalf("unexpected epsilon move %+v", m)
		}
		r, _ := m.Symbol.Representative()
		got[r] = true
	}
	if !got['a'] || !got['b'] || len(got) != 2 {
		t.Errorf("first symbols = %v, want a and b", got)
	}

	if moves := Seq().Advance(); len(moves) != 1 || moves[0].Consumes() {
		t.Errorf("empty sequence moves = %+v, want a single epsilon move", moves)
	}
}

func TestChoiceFansOut(t *testing.T) {
	c := Alt(Char('a'), Char('b'), Char('c'))

	moves := c.Advance()
	if len(moves) != 3 {
		t.Fatalf("Advance() returned %d moves, want 3", len(moves))
	}
	for i, m := range moves {
		ch := m.Node.(*Choice)
		if ch.Branch() != i {
			t.Errorf("move %d committed to branch %d", i, ch.Branch())
		}
		if m.Flags != FlagEnd {
			t.Errorf("move %d flags = %v, want FlagEnd", i, m.Flags)
		}
	}

	committed := moves[1].Node
	next := committed.Advance()
	if len(next) != 1 || next[0].Consumes() {
		t.Errorf("committed choice moves = %+v, want one epsilon move", next)
	}
	if committed.Reset().Key() != c.Key() {
		t.Error("Reset() should uncommit the choice")
	}
}

func TestRepeatBounds(t *testing.T) {
	if _, err := NewRepeat(Char('a'), 3, 2); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("NewRepeat(3,2) error = %v, want ErrInvalidBounds", err)
	}
	if _, err := NewRepeat(Char('a'), -1, Unbounded); !errors.Is(err, ErrInvalidBounds) {
		t.Errorf("NewRepeat(-1) error = %v, want ErrInvalidBounds", err)
	}
	if _, err := NewRepeat(Char('a'), 2, 2); err != nil {
		t.Errorf("NewRepeat(2,2) error = %v", err)
	}
	if _, err := NewRepeat(Char('a'), 0, Unbounded); err != nil {
		t.Errorf("NewRepeat(0,inf) error = %v", err)
	}
}

func TestRepeatCountNeverExceedsMax(t *testing.T) {
	r, err := NewRepeat(Char('a'), 1, 2)
	if err != nil {
		t.Fatal(err)
	}

	var node Node = r
	for i := 0; i < 4; i++ {
		var next Node
		for _, m := range node.Advance() {
			if m.Consumes() {
				next = m.Node
			}
		}
		if next == nil {
			if i != 2 {
				t.Fatalf("iterations stopped after %d, want 2", i)
			}
			return
		}
		if c := next.(*Repeat).Count(); c > 2 {
			t.Fatalf("count = %d, exceeds max", c)
		}
		node = next
	}
	t.Fatal("repeat offered more than max iterations")
}

func TestRepeatKeyCanonicalization(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		a, b     int
		same     bool
	}{
		{"unbounded past min", 1, Unbounded, 1, 5, true},
		{"unbounded below min", 2, Unbounded, 0, 1, false},
		{"bounded below max", 0, 3, 1, 2, false},
		{"bounded at max", 1, 2, 2, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newRepeat(Char('x'), tt.min, tt.max, tt.a, false)
			b := newRepeat(Char('x'), tt.min, tt.max, tt.b, false)
			if (a.Key() == b.Key()) != tt.same {
				t.Errorf("keys %q and %q, want same=%v", a.Key(), b.Key(), tt.same)
			}
		})
	}
}

func TestRepeatNullableBodyTerminates(t *testing.T) {
	nodes := []Node{
		Star(Empty()),
		Plus(Empty()),
		Star(Star(Char('a'))),
		Plus(Optional(Char('a'))),
		Star(Seq()),
	}
	for _, n := range nodes {
		moves := n.Advance()
		accepting := false
		for _, m := range moves {
			if !m.Consumes() {
				accepting = true
			}
		}
		if !accepting {
			t.Errorf("%s should be able to exit without input", n.Key())
		}
	}
}

func TestCopyDeepIsIndependent(t *testing.T) {
	s := Seq(Alt(Char('a'), Char('b')), Star(Char('c')))

	shallow := s.Copy(false)
	deep := s.Copy(true)
	if shallow.Key() != s.Key() || deep.Key() != s.Key() {
		t.Fatal("copies must keep the key")
	}

	deepSeq := deep.(*Sequence)
	for i, n := range s.Nodes() {
		if deepSeq.Nodes()[i] == n {
			t.Errorf("deep copy shares element %d", i)
		}
	}

	// advancing a copy leaves the original untouched
	before := s.Key()
	_ = deep.Advance()
	if s.Key() != before {
		t.Error("Advance() on a copy changed the original")
	}
}

func TestTaggedFamilyInKey(t *testing.T) {
	a := Tag(Char('a'), 0)
	b := Tag(Char('a'), 1)
	if a.Key() == b.Key() {
		t.Error("different families must not share a key")
	}

	moves := a.Advance()
	if len(moves) != 1 {
		t.Fatalf("Advance() = %+v", moves)
	}
	tagged, ok := moves[0].Node.(*Tagged)
	if !ok || tagged.Family() != 0 {
		t.Errorf("successor = %#v, want family 0", moves[0].Node)
	}
	if tagged.Reset().Key() != a.Key() {
		t.Error("Reset() should forward to the wrapped node")
	}
}

func TestStringLiteral(t *testing.T) {
	s := String("ab")
	if len(s.Nodes()) != 2 {
		t.Fatalf("String(ab) has %d nodes", len(s.Nodes()))
	}
	if s.Key() != Seq(Char('a'), Char('b')).Key() {
		t.Error("String(ab) should equal Seq(a, b)")
	}
}
