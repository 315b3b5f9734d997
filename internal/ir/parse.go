package ir

import (
	"fmt"

	"tyco/internal/diag"
	"tyco/internal/source"
	"tyco/internal/types"
)

// opcodeKinds classifies the recognized mnemonics of the textual format.
// Anything absent parses as OpGeneric.
var opcodeKinds = map[string]OpKind{
	"const":   OpConst,
	"select":  OpSelect,
	"to_bool": OpToBool,
	"if":      OpIf,
	"yield":   OpYield,
	"cast":    OpUnknownCast,
	"return":  OpReturn,
	"add":     OpBinary,
	"sub":     OpBinary,
	"mul":     OpBinary,
	"div":     OpBinary,
	"mod":     OpBinary,
	"cmp.eq":  OpCompare,
	"cmp.ne":  OpCompare,
	"cmp.lt":  OpCompare,
	"cmp.le":  OpCompare,
	"cmp.gt":  OpCompare,
	"cmp.ge":  OpCompare,
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokValueRef // %name, text holds name
	tokFuncRef  // @name, text holds name
	tokLiteral
	tokComma
	tokColon
	tokEquals
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
)

type token struct {
	kind tokenKind
	text string
	span source.Span
}

type parser struct {
	fileID  source.FileID
	src     []byte
	pos     uint32
	tok     token
	types   *types.Interner
	rep     diag.Reporter
	errored bool
}

// ParseModule parses the textual IR format out of an already-loaded file.
// Syntax problems are reported as diagnostics; the returned module contains
// every function that parsed cleanly. The bool result is false if any syntax
// error was reported.
func ParseModule(fs *source.FileSet, fileID source.FileID, typesIn *types.Interner, reporter diag.Reporter) (*Module, bool) {
	p := &parser{
		fileID: fileID,
		src:    fs.Get(fileID).Content,
		types:  typesIn,
		rep:    reporter,
	}
	p.next()

	m := &Module{}
	seen := make(map[string]struct{})
	for p.tok.kind != tokEOF {
		if p.tok.kind != tokIdent || p.tok.text != "func" {
			p.errorf(diag.SynUnexpectedToken, p.tok.span, "expected 'func', got %s", p.describe())
			p.syncFunc()
			continue
		}
		fn := p.parseFunc()
		if fn == nil {
			p.syncFunc()
			continue
		}
		if _, dup := seen[fn.Name]; dup {
			p.errorf(diag.SynDuplicateFunc, fn.Span, "duplicate function @%s", fn.Name)
			continue
		}
		seen[fn.Name] = struct{}{}
		m.Funcs = append(m.Funcs, fn)
	}
	return m, !p.errored
}

// --- scanning ---------------------------------------------------------------

func isIdentStart(b byte) bool {
	return b == '_' || b == '!' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return b == '_' || b == '.' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (p *parser) next() {
	p.skipTrivia()
	start := p.pos
	if int(p.pos) >= len(p.src) {
		p.tok = token{kind: tokEOF, span: p.spanFrom(start)}
		return
	}

	b := p.src[p.pos]
	switch {
	case b == '%' || b == '@':
		p.pos++
		nameStart := p.pos
		for int(p.pos) < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		kind := tokValueRef
		if b == '@' {
			kind = tokFuncRef
		}
		p.tok = token{kind: kind, text: string(p.src[nameStart:p.pos]), span: p.spanFrom(start)}
	case isIdentStart(b):
		// The start byte is consumed unconditionally: '!' opens a type name
		// but is not a valid continuation byte.
		p.pos++
		for int(p.pos) < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: string(p.src[start:p.pos]), span: p.spanFrom(start)}
	case isDigit(b) || b == '-':
		p.pos++
		for int(p.pos) < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
			p.pos++
		}
		p.tok = token{kind: tokLiteral, text: string(p.src[start:p.pos]), span: p.spanFrom(start)}
	case b == '"':
		p.pos++
		for int(p.pos) < len(p.src) && p.src[p.pos] != '"' && p.src[p.pos] != '\n' {
			p.pos++
		}
		if int(p.pos) < len(p.src) && p.src[p.pos] == '"' {
			p.pos++
		}
		p.tok = token{kind: tokLiteral, text: string(p.src[start:p.pos]), span: p.spanFrom(start)}
	default:
		p.pos++
		kind := tokEOF
		switch b {
		case ',':
			kind = tokComma
		case ':':
			kind = tokColon
		case '=':
			kind = tokEquals
		case '(':
			kind = tokLParen
		case ')':
			kind = tokRParen
		case '{':
			kind = tokLBrace
		case '}':
			kind = tokRBrace
		default:
			p.errorf(diag.SynUnexpectedToken, p.spanFrom(start), "unexpected character %q", b)
			p.next()
			return
		}
		p.tok = token{kind: kind, text: string(b), span: p.spanFrom(start)}
	}
}

func (p *parser) skipTrivia() {
	for int(p.pos) < len(p.src) {
		b := p.src[p.pos]
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			p.pos++
		case b == '/' && int(p.pos)+1 < len(p.src) && p.src[p.pos+1] == '/':
			for int(p.pos) < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) spanFrom(start uint32) source.Span {
	return source.Span{File: p.fileID, Start: start, End: p.pos}
}

func (p *parser) describe() string {
	switch p.tok.kind {
	case tokEOF:
		return "end of file"
	case tokValueRef:
		return fmt.Sprintf("%%%s", p.tok.text)
	case tokFuncRef:
		return fmt.Sprintf("@%s", p.tok.text)
	default:
		return fmt.Sprintf("%q", p.tok.text)
	}
}

func (p *parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	p.errored = true
	diag.ReportError(p.rep, code, sp, fmt.Sprintf(format, args...))
}

func (p *parser) expect(kind tokenKind, what string) (token, bool) {
	if p.tok.kind != kind {
		p.errorf(diag.SynUnexpectedToken, p.tok.span, "expected %s, got %s", what, p.describe())
		return p.tok, false
	}
	tok := p.tok
	p.next()
	return tok, true
}

// syncFunc skips tokens until the next top-level 'func' or EOF.
func (p *parser) syncFunc() {
	if p.tok.kind == tokIdent && p.tok.text == "func" {
		p.next()
	}
	depth := 0
	for p.tok.kind != tokEOF {
		switch p.tok.kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
		case tokIdent:
			if p.tok.text == "func" && depth <= 0 {
				return
			}
		}
		p.next()
	}
}

// --- parsing ----------------------------------------------------------------

func (p *parser) parseFunc() *Func {
	start := p.tok.span
	p.next() // 'func'

	nameTok, ok := p.expect(tokFuncRef, "function name")
	if !ok {
		return nil
	}
	b := NewBuilder(nameTok.text)
	scope := make(map[string]ValueID)

	if _, ok := p.expect(tokLParen, "'('"); !ok {
		return nil
	}
	for p.tok.kind != tokRParen {
		ref, ok := p.expect(tokValueRef, "parameter name")
		if !ok {
			return nil
		}
		if _, ok := p.expect(tokColon, "':'"); !ok {
			return nil
		}
		t, ok := p.parseType()
		if !ok {
			return nil
		}
		if _, dup := scope[ref.text]; dup {
			p.errorf(diag.SynRedefinedValue, ref.span, "value %%%s redefined", ref.text)
		} else {
			scope[ref.text] = b.AddParam(ref.text, t)
		}
		if p.tok.kind == tokComma {
			p.next()
		} else if p.tok.kind != tokRParen {
			p.errorf(diag.SynUnexpectedToken, p.tok.span, "expected ',' or ')', got %s", p.describe())
			return nil
		}
	}
	p.next() // ')'

	if _, ok := p.expect(tokLBrace, "'{'"); !ok {
		return nil
	}
	if !p.parseRegion(b, scope) {
		return nil
	}

	fn, err := b.Finish()
	if err != nil {
		p.errorf(diag.SynUnclosedRegion, start, "%v", err)
		return nil
	}
	fn.Span = start.Cover(p.tok.span)
	return fn
}

// parseRegion parses statements until the closing '}' (consumed).
func (p *parser) parseRegion(b *Builder, scope map[string]ValueID) bool {
	for {
		switch p.tok.kind {
		case tokRBrace:
			p.next()
			return true
		case tokEOF:
			p.errorf(diag.SynUnclosedRegion, p.tok.span, "unexpected end of file, expected '}'")
			return false
		default:
			if !p.parseStmt(b, scope) {
				return false
			}
		}
	}
}

func (p *parser) parseStmt(b *Builder, scope map[string]ValueID) bool {
	start := p.tok.span

	// Result list, if any.
	var resultNames []token
	for p.tok.kind == tokValueRef {
		resultNames = append(resultNames, p.tok)
		p.next()
		if p.tok.kind == tokComma {
			p.next()
			continue
		}
		break
	}
	if len(resultNames) > 0 {
		if _, ok := p.expect(tokEquals, "'='"); !ok {
			return false
		}
	}

	opTok, ok := p.expect(tokIdent, "opcode")
	if !ok {
		return false
	}
	kind, recognized := opcodeKinds[opTok.text]
	if !recognized {
		kind = OpGeneric
	}

	if kind == OpIf {
		return p.parseIf(b, scope, resultNames, start)
	}

	// Operand list.
	var operands []ValueID
	for p.tok.kind == tokValueRef {
		id, found := scope[p.tok.text]
		if !found {
			p.errorf(diag.SynUndefinedValue, p.tok.span, "value %%%s is not defined", p.tok.text)
			id = NoValueID
		}
		operands = append(operands, id)
		p.next()
		if p.tok.kind == tokComma {
			p.next()
			continue
		}
		break
	}

	// Constant payload.
	var attr string
	if kind == OpConst {
		if p.tok.kind != tokLiteral && p.tok.kind != tokIdent {
			p.errorf(diag.SynUnexpectedToken, p.tok.span, "expected constant literal, got %s", p.describe())
			return false
		}
		attr = p.tok.text
		p.next()
	}

	// Result type annotation.
	var resultTypes []types.TypeID
	switch kind {
	case OpToBool, OpCompare:
		resultTypes = []types.TypeID{p.types.Builtins().Bool}
	case OpReturn, OpYield:
		if len(resultNames) > 0 {
			p.errorf(diag.SynUnexpectedToken, resultNames[0].span, "%s takes no results", opTok.text)
			return false
		}
	default:
		if p.tok.kind == tokColon {
			p.next()
			var ok bool
			resultTypes, ok = p.parseTypeList()
			if !ok {
				return false
			}
		} else if len(resultNames) > 0 {
			p.errorf(diag.SynExpectType, p.tok.span, "expected ': type' after %s results", opTok.text)
			return false
		}
	}
	if len(resultNames) != len(resultTypes) {
		p.errorf(diag.SynUnexpectedToken, start.Cover(p.tok.span),
			"%s produces %d results, %d named", opTok.text, len(resultTypes), len(resultNames))
		return false
	}

	// Recognized kinds have fixed operand arity. Malformed uses downgrade to
	// generic so inference stays total on the op.
	if want, fixed := fixedArity(kind); fixed && len(operands) != want {
		p.errorf(diag.SynUnexpectedToken, start.Cover(p.tok.span),
			"%s expects %d operands, got %d", opTok.text, want, len(operands))
		kind = OpGeneric
	}

	span := start.Cover(p.tok.span)
	var traits Traits
	switch kind {
	case OpConst:
		traits = TraitConstantLike
	case OpReturn:
		traits = TraitReturnLike
	}
	id, results := b.Op(kind, genericOpcode(kind, opTok.text), traits, operands, resultTypes, span)
	b.Func().Op(id).Attr = attr
	p.bindResults(b, scope, resultNames, results)
	return true
}

func (p *parser) parseIf(b *Builder, scope map[string]ValueID, resultNames []token, start source.Span) bool {
	condTok, ok := p.expect(tokValueRef, "condition value")
	if !ok {
		return false
	}
	cond, found := scope[condTok.text]
	if !found {
		p.errorf(diag.SynUndefinedValue, condTok.span, "value %%%s is not defined", condTok.text)
		cond = NoValueID
	}

	var resultTypes []types.TypeID
	if p.tok.kind == tokColon {
		p.next()
		resultTypes, ok = p.parseTypeList()
		if !ok {
			return false
		}
	}
	if len(resultNames) != len(resultTypes) {
		p.errorf(diag.SynUnexpectedToken, start.Cover(p.tok.span),
			"if produces %d results, %d named", len(resultTypes), len(resultNames))
		return false
	}

	if _, ok := p.expect(tokLBrace, "'{'"); !ok {
		return false
	}
	id, results := b.StartIf(cond, resultTypes, start.Cover(p.tok.span))
	if !p.parseRegion(b, scope) {
		return false
	}
	if p.tok.kind == tokIdent && p.tok.text == "else" {
		p.next()
		if _, ok := p.expect(tokLBrace, "'{'"); !ok {
			return false
		}
		b.ElseRegion()
		if !p.parseRegion(b, scope) {
			return false
		}
	}
	b.EndIf()
	b.Func().Op(id).Span = start.Cover(p.tok.span)
	p.bindResults(b, scope, resultNames, results)
	return true
}

func (p *parser) bindResults(b *Builder, scope map[string]ValueID, names []token, results []ValueID) {
	for i, nameTok := range names {
		if i >= len(results) {
			break
		}
		if _, dup := scope[nameTok.text]; dup {
			p.errorf(diag.SynRedefinedValue, nameTok.span, "value %%%s redefined", nameTok.text)
			continue
		}
		b.Func().Value(results[i]).Name = nameTok.text
		scope[nameTok.text] = results[i]
	}
}

func (p *parser) parseTypeList() ([]types.TypeID, bool) {
	if p.tok.kind != tokLParen {
		t, ok := p.parseType()
		if !ok {
			return nil, false
		}
		return []types.TypeID{t}, true
	}
	p.next()
	var list []types.TypeID
	for p.tok.kind != tokRParen {
		t, ok := p.parseType()
		if !ok {
			return nil, false
		}
		list = append(list, t)
		if p.tok.kind == tokComma {
			p.next()
		} else if p.tok.kind != tokRParen {
			p.errorf(diag.SynUnexpectedToken, p.tok.span, "expected ',' or ')', got %s", p.describe())
			return nil, false
		}
	}
	p.next()
	return list, true
}

func (p *parser) parseType() (types.TypeID, bool) {
	if p.tok.kind != tokIdent {
		p.errorf(diag.SynExpectType, p.tok.span, "expected type, got %s", p.describe())
		return types.NoTypeID, false
	}
	id, ok := typeFromText(p.tok.text, p.types)
	if !ok {
		p.errorf(diag.SynUnknownType, p.tok.span, "unknown type %q", p.tok.text)
		p.next()
		return types.NoTypeID, false
	}
	p.next()
	return id, true
}

func typeFromText(text string, in *types.Interner) (types.TypeID, bool) {
	b := in.Builtins()
	switch text {
	case "!unknown":
		return b.Unknown, true
	case "bool":
		return b.Bool, true
	case "unit":
		return b.Unit, true
	case "str":
		return b.Str, true
	case "int":
		return b.Int, true
	case "float":
		return b.Float, true
	case "i8":
		return in.Intern(types.MakeInt(types.Width8)), true
	case "i16":
		return in.Intern(types.MakeInt(types.Width16)), true
	case "i32":
		return in.Intern(types.MakeInt(types.Width32)), true
	case "i64":
		return in.Intern(types.MakeInt(types.Width64)), true
	case "f32":
		return in.Intern(types.MakeFloat(types.Width32)), true
	case "f64":
		return in.Intern(types.MakeFloat(types.Width64)), true
	default:
		return types.NoTypeID, false
	}
}

// fixedArity returns the operand count required by recognized kinds.
func fixedArity(kind OpKind) (int, bool) {
	switch kind {
	case OpSelect:
		return 3, true
	case OpToBool, OpUnknownCast:
		return 1, true
	case OpBinary, OpCompare:
		return 2, true
	case OpConst:
		return 0, true
	default:
		return 0, false
	}
}

// genericOpcode keeps the mnemonic for ops whose kind doesn't imply it.
func genericOpcode(kind OpKind, text string) string {
	switch kind {
	case OpBinary, OpCompare, OpGeneric:
		return text
	default:
		return ""
	}
}

// ParseText is a convenience wrapper for tests and tooling: it loads src as a
// virtual file and parses it.
func ParseText(name, src string, typesIn *types.Interner, reporter diag.Reporter) (*Module, *source.FileSet, bool) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(src))
	m, ok := ParseModule(fs, id, typesIn, reporter)
	return m, fs, ok
}
