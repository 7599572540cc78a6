package expr

import (
	"errors"
	"math/big"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	for size := 1; size <= 4; size++ {
		leaves := make([]int64, size)
		ops := make([]Operator, size-1)
		for i := range leaves {
			leaves[i] = int64(i*3 + 2)
		}
		for i := range ops {
			ops[i] = AllOperators()[i%4]
		}
		for _, s := range Shapes(size) {
			text := Render(s, leaves, ops)
			e, err := Parse(text)
			if err != nil {
				t.Fatalf("Parse(%q): %v", text, err)
			}
			if e.String() != text {
				t.Errorf("Parse(%q).String() = %q", text, e.String())
			}
			if e.Size() != size {
				t.Errorf("Parse(%q).Size() = %d, want %d", text, e.Size(), size)
			}
			shape, gotLeaves, gotOps := e.Assignment()
			if shape.Template() != s.Template() {
				t.Errorf("Parse(%q) shape = %s, want %s", text, shape.Template(), s.Template())
			}
			if len(gotLeaves) != size || len(gotOps) != size-1 {
				t.Errorf("Parse(%q) slots = %d/%d", text, len(gotLeaves), len(gotOps))
			}
		}
	}
}

func TestParsePrecedence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1+2*3", "(1+(2*3))"},
		{"8-2-1", "((8-2)-1)"},
		{"12/3/2", "((12/3)/2)"},
		{" ( 6 / 2 ) ", "(6/2)"},
		{"(1+2)*3", "((1+2)*3)"},
		{"42", "42"},
	}
	for _, tc := range cases {
		e, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.in, err)
			continue
		}
		if e.String() != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.in, e.String(), tc.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "(", "(1+2", "1+", "-1", "1 2", "1^2", "99999999999999999999"} {
		if _, err := Parse(in); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) error = %v, want ErrSyntax", in, err)
		}
	}
}

func TestRat(t *testing.T) {
	e, err := Parse("(3/2)")
	if err != nil {
		t.Fatal(err)
	}
	r, err := e.Rat()
	if err != nil {
		t.Fatal(err)
	}
	if r.Cmp(big.NewRat(3, 2)) != 0 {
		t.Errorf("Rat(3/2) = %s", r.RatString())
	}

	// Integer rules reject it, rational arithmetic does not
	shape, leaves, ops := e.Assignment()
	if out := Evaluate(shape, leaves, ops); out.Reason != DivisionFailure {
		t.Errorf("Evaluate(3/2) reason = %v, want division", out.Reason)
	}

	e, _ = Parse("1/(2-2)")
	if _, err := e.Rat(); err == nil {
		t.Error("Rat(1/(2-2)) should fail")
	}
}
