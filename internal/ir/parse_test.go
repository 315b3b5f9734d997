package ir

import (
	"strings"
	"testing"

	"tyco/internal/diag"
	"tyco/internal/types"
)

const sampleText = `// select over two dynamic parameters
func @select_xy(%x: !unknown, %y: !unknown) {
  %c = to_bool %x
  %r = select %c, %x, %y : !unknown
  return %r
}

func @cond(%p: !unknown) {
  %c = to_bool %p
  %r = if %c : !unknown {
    yield %p
  } else {
    %k = const 1 : i64
    yield %k
  }
  return %r
}
`

func parseSample(t *testing.T, src string) (*Module, *diag.Bag, *types.Interner) {
	t.Helper()
	in := types.NewInterner()
	bag := diag.NewBag(16)
	m, ok := func() (*Module, bool) {
		m, _, ok := ParseText("sample.tir", src, in, diag.NewBagReporter(bag))
		return m, ok
	}()
	if !ok {
		t.Fatalf("parse failed: %+v", bag.Items())
	}
	return m, bag, in
}

func TestParseModule(t *testing.T) {
	m, _, in := parseSample(t, sampleText)
	if len(m.Funcs) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(m.Funcs))
	}

	fn := m.FuncByName("select_xy")
	if fn == nil {
		t.Fatalf("select_xy not found")
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if !in.IsUnknown(fn.Value(fn.Params[0]).Type) {
		t.Fatalf("param x must be !unknown")
	}
	var kinds []OpKind
	fn.Walk(func(_ OpID, op *Op) bool {
		kinds = append(kinds, op.Kind)
		return true
	})
	want := []OpKind{OpToBool, OpSelect, OpReturn}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("op %d: expected %v, got %v", i, want[i], kinds[i])
		}
	}
}

func TestParseBangTypeName(t *testing.T) {
	// '!' starts a type name but is not a valid continuation byte; the
	// scanner must still consume it and advance.
	src := "func @id(%x: !unknown) {\n  return %x\n}\n"
	m, _, in := parseSample(t, src)
	fn := m.FuncByName("id")
	if fn == nil {
		t.Fatalf("id not found")
	}
	if !in.IsUnknown(fn.Value(fn.Params[0]).Type) {
		t.Fatalf("param x must parse as !unknown, got %s", in.StringOf(fn.Value(fn.Params[0]).Type))
	}
	if got := fn.Op(fn.Body[0]).Kind; got != OpReturn {
		t.Fatalf("expected return op, got %v", got)
	}
}

func TestParseIfRegions(t *testing.T) {
	m, _, _ := parseSample(t, sampleText)
	fn := m.FuncByName("cond")

	var ifOp *Op
	fn.Walk(func(_ OpID, op *Op) bool {
		if op.Kind == OpIf {
			ifOp = op
		}
		return true
	})
	if ifOp == nil {
		t.Fatalf("if op not found")
	}
	if len(ifOp.Regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(ifOp.Regions))
	}
	if len(ifOp.Regions[0]) != 1 || len(ifOp.Regions[1]) != 2 {
		t.Fatalf("unexpected region sizes: %d, %d", len(ifOp.Regions[0]), len(ifOp.Regions[1]))
	}
	if len(ifOp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(ifOp.Results))
	}
}

func TestParseGenericOpcode(t *testing.T) {
	src := `func @g(%x: !unknown) {
  %r = py.call %x : !unknown
  return %r
}
`
	m, _, _ := parseSample(t, src)
	fn := m.Funcs[0]
	op := fn.Op(fn.Body[0])
	if op.Kind != OpGeneric || op.Opcode != "py.call" {
		t.Fatalf("expected generic py.call, got %v %q", op.Kind, op.Opcode)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"undefined value", "func @f() {\n  return %nope\n}\n", diag.SynUndefinedValue},
		{"redefined value", "func @f(%x: int) {\n  %x = const 1 : int\n  return\n}\n", diag.SynRedefinedValue},
		{"unknown type", "func @f(%x: spaghetti) {\n  return\n}\n", diag.SynUnknownType},
		{"bad arity", "func @f(%x: !unknown) {\n  %r = select %x : !unknown\n  return\n}\n", diag.SynUnexpectedToken},
		{"duplicate func", "func @f() {\n  return\n}\nfunc @f() {\n  return\n}\n", diag.SynDuplicateFunc},
		{"unclosed region", "func @f() {\n  return\n", diag.SynUnclosedRegion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := types.NewInterner()
			bag := diag.NewBag(16)
			_, _, ok := ParseText("err.tir", tc.src, in, diag.NewBagReporter(bag))
			if ok {
				t.Fatalf("expected parse failure")
			}
			found := false
			for _, d := range bag.Items() {
				if d.Code == tc.code {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected code %v, got %+v", tc.code, bag.Items())
			}
		})
	}
}

func TestDumpRoundTrip(t *testing.T) {
	m, _, in := parseSample(t, sampleText)

	var first strings.Builder
	if err := DumpModule(&first, m, in); err != nil {
		t.Fatalf("dump: %v", err)
	}

	bag := diag.NewBag(16)
	m2, _, ok := ParseText("roundtrip.tir", first.String(), in, diag.NewBagReporter(bag))
	if !ok {
		t.Fatalf("reparse failed: %+v\n%s", bag.Items(), first.String())
	}

	var second strings.Builder
	if err := DumpModule(&second, m2, in); err != nil {
		t.Fatalf("dump2: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("round trip not stable:\n--- first\n%s\n--- second\n%s", first.String(), second.String())
	}
}
