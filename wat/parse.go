package wat

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type valueType byte

const (
	typeI32 valueType = 0x7F
	typeI64 valueType = 0x7E
	typeF32 valueType = 0x7D
	typeF64 valueType = 0x7C
)

func valTypeOf(keyword string) (valueType, bool) {
	switch keyword {
	case "i32":
		return typeI32, true
	case "i64":
		return typeI64, true
	case "f32":
		return typeF32, true
	case "f64":
		return typeF64, true
	default:
		return 0, false
	}
}

type funcType struct {
	params  []valueType
	results []valueType
}

type instr struct {
	op    string
	info  opInfo
	num   int64  // constant immediate, normalized to signed
	sym   string // unresolved $func reference (call)
	idx   uint32 // numeric or resolved index immediate
	off   uint32 // memarg offset
	align uint32 // memarg alignment, log2 encoded
	pos   pos
}

type importedFunc struct {
	module string
	name   string
	id     string
	typ    funcType
	pos    pos
}

type watFunc struct {
	id         string
	typ        funcType
	paramNames map[string]uint32
	locals     []valueType
	body       []instr
	pos        pos
}

type memoryField struct {
	id     string
	min    uint32
	max    uint32
	hasMax bool
	pos    pos
}

type exportRef int

const (
	refSym     exportRef = iota // resolve sym through the id table
	refOrdinal                  // inline function export: imports + ordinal
	refIndex                    // explicit numeric index
)

const (
	kindFunc   byte = 0x00
	kindMemory byte = 0x02
)

type exportField struct {
	name    string
	kind    byte
	how     exportRef
	sym     string
	ordinal int
	idx     uint32
	pos     pos
}

type dataSegment struct {
	offset int64
	bytes  []byte
	pos    pos
}

type module struct {
	imports []importedFunc
	funcs   []watFunc
	mem     *memoryField
	exports []exportField
	data    []dataSegment
}

type parser struct {
	toks []token
	at   int
}

func parse(toks []token) (*module, error) {
	p := &parser{toks: toks}
	m := &module{}

	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("module"); err != nil {
		return nil, err
	}
	if p.peek().kind == tokID {
		p.next() // module id, unused
	}

	for p.peek().kind == tokLParen {
		if err := p.parseField(m); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errf(t, "unexpected %s after module", t.kind)
	}
	return m, nil
}

func (p *parser) peek() token {
	return p.toks[p.at]
}

// peek2 returns the token after the next one. The token slice always
// ends with tokEOF, so peeking past the end saturates there.
func (p *parser) peek2() token {
	if p.at+1 >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.at+1]
}

func (p *parser) next() token {
	t := p.toks[p.at]
	if t.kind != tokEOF {
		p.at++
	}
	return t
}

func (p *parser) errf(t token, format string, args ...any) error {
	return &SyntaxError{Line: t.pos.line, Col: t.pos.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errf(t, "expected %s, got %s", kind, t.kind)
	}
	return t, nil
}

func (p *parser) expectKeyword(word string) error {
	t := p.next()
	if t.kind != tokKeyword || t.text != word {
		return p.errf(t, "expected %q", word)
	}
	return nil
}

func (p *parser) parseField(m *module) error {
	if _, err := p.expect(tokLParen); err != nil {
		return err
	}
	t := p.next()
	if t.kind != tokKeyword {
		return p.errf(t, "expected module field keyword, got %s", t.kind)
	}
	switch t.text {
	case "import":
		return p.parseImport(m, t)
	case "func":
		return p.parseFunc(m, t)
	case "memory":
		return p.parseMemory(m, t)
	case "export":
		return p.parseExport(m, t)
	case "data":
		return p.parseData(m, t)
	case "global", "table", "elem", "start", "type":
		return p.errf(t, "%q fields are not supported in this subset", t.text)
	default:
		return p.errf(t, "unknown module field %q", t.text)
	}
}

// parseImport handles (import "module" "name" (func $id? params results)).
// Only function imports are in the subset.
func (p *parser) parseImport(m *module, kw token) error {
	mod, err := p.expect(tokString)
	if err != nil {
		return err
	}
	name, err := p.expect(tokString)
	if err != nil {
		return err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return err
	}
	t := p.next()
	if t.kind != tokKeyword || t.text != "func" {
		return p.errf(t, "only function imports are supported in this subset")
	}

	imp := importedFunc{module: string(mod.bytes), name: string(name.bytes), pos: kw.pos}
	if p.peek().kind == tokID {
		imp.id = p.next().text
	}

	typ, err := p.parseFuncSignature(nil)
	if err != nil {
		return err
	}
	imp.typ = typ

	if _, err := p.expect(tokRParen); err != nil {
		return err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return err
	}
	m.imports = append(m.imports, imp)
	return nil
}

// parseFuncSignature consumes (param ...) and (result ...) clauses.
// When names is non-nil, named parameters are recorded in it.
func (p *parser) parseFuncSignature(names map[string]uint32) (funcType, error) {
	var typ funcType
	resultSeen := false

	for p.peek().kind == tokLParen {
		clause := p.peek2()
		if clause.kind != tokKeyword || (clause.text != "param" && clause.text != "result") {
			break
		}
		p.next() // (
		p.next() // param | result

		switch clause.text {
		case "param":
			if resultSeen {
				return typ, p.errf(clause, "param clause after result")
			}
			if p.peek().kind == tokID {
				id := p.next()
				vt, err := p.expectValType()
				if err != nil {
					return typ, err
				}
				if names != nil {
					if _, exists := names[id.text]; exists {
						return typ, p.errf(id, "duplicate parameter name %s", id.text)
					}
					names[id.text] = uint32(len(typ.params))
				}
				typ.params = append(typ.params, vt)
			} else {
				for p.peek().kind == tokKeyword {
					vt, err := p.expectValType()
					if err != nil {
						return typ, err
					}
					typ.params = append(typ.params, vt)
				}
			}
		case "result":
			resultSeen = true
			for p.peek().kind == tokKeyword {
				vt, err := p.expectValType()
				if err != nil {
					return typ, err
				}
				typ.results = append(typ.results, vt)
			}
			if len(typ.results) > 1 {
				return typ, p.errf(clause, "multiple results are not supported in this subset")
			}
		}

		if _, err := p.expect(tokRParen); err != nil {
			return typ, err
		}
	}
	return typ, nil
}

func (p *parser) expectValType() (valueType, error) {
	t := p.next()
	if t.kind != tokKeyword {
		return 0, p.errf(t, "expected value type, got %s", t.kind)
	}
	vt, ok := valTypeOf(t.text)
	if !ok {
		return 0, p.errf(t, "unknown value type %q", t.text)
	}
	return vt, nil
}

// parseFunc handles (func $id? (export "n")* (param ...)* (result ...)?
// (local ...)* instr*).
func (p *parser) parseFunc(m *module, kw token) error {
	fn := watFunc{paramNames: make(map[string]uint32), pos: kw.pos}
	ordinal := len(m.funcs)

	if p.peek().kind == tokID {
		fn.id = p.next().text
	}

	// Inline exports precede the signature.
	for p.peek().kind == tokLParen && p.peek2().kind == tokKeyword && p.peek2().text == "export" {
		p.next() // (
		ex := p.next()
		name, err := p.expect(tokString)
		if err != nil {
			return err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return err
		}
		m.exports = append(m.exports, exportField{
			name:    string(name.bytes),
			kind:    kindFunc,
			how:     refOrdinal,
			ordinal: ordinal,
			pos:     ex.pos,
		})
	}

	typ, err := p.parseFuncSignature(fn.paramNames)
	if err != nil {
		return err
	}
	fn.typ = typ

	localNames := make(map[string]uint32)
	for p.peek().kind == tokLParen && p.peek2().kind == tokKeyword && p.peek2().text == "local" {
		p.next() // (
		p.next() // local
		if p.peek().kind == tokID {
			id := p.next()
			vt, err := p.expectValType()
			if err != nil {
				return err
			}
			idx := uint32(len(typ.params) + len(fn.locals))
			if _, exists := localNames[id.text]; exists {
				return p.errf(id, "duplicate local name %s", id.text)
			}
			if _, exists := fn.paramNames[id.text]; exists {
				return p.errf(id, "local name %s shadows a parameter", id.text)
			}
			localNames[id.text] = idx
			fn.locals = append(fn.locals, vt)
		} else {
			for p.peek().kind == tokKeyword {
				vt, err := p.expectValType()
				if err != nil {
					return err
				}
				fn.locals = append(fn.locals, vt)
			}
		}
		if _, err := p.expect(tokRParen); err != nil {
			return err
		}
	}

	// Merge param and local names into one index namespace.
	for name, idx := range localNames {
		fn.paramNames[name] = idx
	}

	var labels []string
	if err := p.parseInstrs(&fn, &labels); err != nil {
		return err
	}
	if len(labels) > 0 {
		return p.errf(p.peek(), "unclosed block in function body")
	}

	if _, err := p.expect(tokRParen); err != nil {
		return err
	}
	m.funcs = append(m.funcs, fn)
	return nil
}

// parseInstrs consumes instructions up to (but not including) the
// closing paren of the enclosing function.
func (p *parser) parseInstrs(fn *watFunc, labels *[]string) error {
	for {
		t := p.peek()
		switch t.kind {
		case tokRParen:
			return nil
		case tokLParen:
			if err := p.parseFoldedInstr(fn, labels); err != nil {
				return err
			}
		case tokKeyword:
			ins, err := p.parseFlatInstr(fn, labels)
			if err != nil {
				return err
			}
			fn.body = append(fn.body, ins)
		default:
			return p.errf(t, "expected instruction, got %s", t.kind)
		}
	}
}

// parseFoldedInstr handles the folded form: operands are emitted before
// the operator. Structured control (block/loop/if) stays flat in this
// subset.
func (p *parser) parseFoldedInstr(fn *watFunc, labels *[]string) error {
	p.next() // (
	t := p.peek()
	if t.kind != tokKeyword {
		return p.errf(t, "expected instruction, got %s", t.kind)
	}
	if info, ok := ops[t.text]; ok {
		switch info.imm {
		case immBlock, immElse, immEnd:
			return p.errf(t, "folded %q is not supported; use the flat form", t.text)
		}
	}

	op, err := p.parseFlatInstr(fn, labels)
	if err != nil {
		return err
	}
	for p.peek().kind == tokLParen {
		if err := p.parseFoldedInstr(fn, labels); err != nil {
			return err
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return err
	}
	fn.body = append(fn.body, op)
	return nil
}

// parseFlatInstr consumes one instruction keyword plus its immediates.
func (p *parser) parseFlatInstr(fn *watFunc, labels *[]string) (instr, error) {
	t := p.next()
	info, ok := ops[t.text]
	if !ok {
		return instr{}, p.errf(t, "unknown instruction %q", t.text)
	}
	ins := instr{op: t.text, info: info, pos: t.pos}

	switch info.imm {
	case immNone, immZero:
		// No immediates.

	case immBlock:
		label := ""
		if p.peek().kind == tokID {
			label = p.next().text
		}
		if p.peek().kind == tokLParen {
			return instr{}, p.errf(p.peek(), "folded or typed control is not supported; use the flat form")
		}
		*labels = append(*labels, label)

	case immElse:
		if len(*labels) == 0 {
			return instr{}, p.errf(t, "else outside of an if")
		}

	case immEnd:
		if len(*labels) == 0 {
			return instr{}, p.errf(t, "end without a matching block")
		}
		top := (*labels)[len(*labels)-1]
		if p.peek().kind == tokID {
			id := p.next()
			if top != id.text {
				return instr{}, p.errf(id, "end label %s does not match block label", id.text)
			}
		}
		*labels = (*labels)[:len(*labels)-1]

	case immI32:
		n, err := p.parseIntImmediate(32)
		if err != nil {
			return instr{}, err
		}
		ins.num = n

	case immI64:
		n, err := p.parseIntImmediate(64)
		if err != nil {
			return instr{}, err
		}
		ins.num = n

	case immFunc:
		a := p.next()
		switch a.kind {
		case tokID:
			ins.sym = a.text
		case tokNumber:
			idx, err := parseU32(a)
			if err != nil {
				return instr{}, err
			}
			ins.idx = idx
		default:
			return instr{}, p.errf(a, "expected function index or $id, got %s", a.kind)
		}

	case immLocal:
		a := p.next()
		switch a.kind {
		case tokID:
			idx, ok := fn.paramNames[a.text]
			if !ok {
				return instr{}, p.errf(a, "unknown local %s", a.text)
			}
			ins.idx = idx
		case tokNumber:
			idx, err := parseU32(a)
			if err != nil {
				return instr{}, err
			}
			if int(idx) >= len(fn.typ.params)+len(fn.locals) {
				return instr{}, p.errf(a, "local index %d out of range", idx)
			}
			ins.idx = idx
		default:
			return instr{}, p.errf(a, "expected local index or $name, got %s", a.kind)
		}

	case immLabel:
		a := p.next()
		switch a.kind {
		case tokID:
			depth := -1
			for i := len(*labels) - 1; i >= 0; i-- {
				if (*labels)[i] == a.text {
					depth = len(*labels) - 1 - i
					break
				}
			}
			if depth < 0 {
				return instr{}, p.errf(a, "unknown label %s", a.text)
			}
			ins.idx = uint32(depth)
		case tokNumber:
			depth, err := parseU32(a)
			if err != nil {
				return instr{}, err
			}
			// Depth len(labels) targets the function frame itself.
			if int(depth) > len(*labels) {
				return instr{}, p.errf(a, "branch depth %d exceeds enclosing blocks", depth)
			}
			ins.idx = depth
		default:
			return instr{}, p.errf(a, "expected branch depth or $label, got %s", a.kind)
		}

	case immMem:
		ins.off = 0
		ins.align = log2(info.natAlign)
		if p.peek().kind == tokKeyword && strings.HasPrefix(p.peek().text, "offset=") {
			a := p.next()
			v, err := parseU32Text(a, strings.TrimPrefix(a.text, "offset="))
			if err != nil {
				return instr{}, err
			}
			ins.off = v
		}
		if p.peek().kind == tokKeyword && strings.HasPrefix(p.peek().text, "align=") {
			a := p.next()
			v, err := parseU32Text(a, strings.TrimPrefix(a.text, "align="))
			if err != nil {
				return instr{}, err
			}
			if v == 0 || v&(v-1) != 0 {
				return instr{}, p.errf(a, "alignment must be a power of two")
			}
			if v > info.natAlign {
				return instr{}, p.errf(a, "alignment %d exceeds natural alignment %d", v, info.natAlign)
			}
			ins.align = log2(v)
		}
	}

	return ins, nil
}

func (p *parser) parseIntImmediate(bits int) (int64, error) {
	t := p.next()
	if t.kind != tokNumber {
		return 0, p.errf(t, "expected integer constant, got %s", t.kind)
	}
	return p.parseInt(t, bits)
}

// parseInt decodes a decimal or hex integer literal, accepting the full
// unsigned range and normalizing to the signed two's-complement value
// the binary format encodes.
func (p *parser) parseInt(t token, bits int) (int64, error) {
	text := strings.ReplaceAll(t.text, "_", "")

	neg := false
	switch {
	case strings.HasPrefix(text, "+"):
		text = text[1:]
	case strings.HasPrefix(text, "-"):
		neg = true
		text = text[1:]
	}

	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}

	mag, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return 0, p.errf(t, "invalid integer constant %q", t.text)
	}

	if neg {
		limit := uint64(1) << (bits - 1)
		if mag > limit {
			return 0, p.errf(t, "integer constant %q out of %d-bit range", t.text, bits)
		}
		return -int64(mag), nil
	}
	if bits == 32 {
		if mag > math.MaxUint32 {
			return 0, p.errf(t, "integer constant %q out of 32-bit range", t.text)
		}
		return int64(int32(uint32(mag))), nil
	}
	return int64(mag), nil
}

func parseU32(t token) (uint32, error) {
	return parseU32Text(t, t.text)
}

func parseU32Text(t token, text string) (uint32, error) {
	text = strings.ReplaceAll(text, "_", "")
	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}
	v, err := strconv.ParseUint(text, base, 32)
	if err != nil {
		return 0, &SyntaxError{Line: t.pos.line, Col: t.pos.col, Msg: fmt.Sprintf("invalid index %q", t.text)}
	}
	return uint32(v), nil
}

func log2(v uint32) uint32 {
	var n uint32
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// parseMemory handles (memory $id? (export "n")* min max?).
func (p *parser) parseMemory(m *module, kw token) error {
	if m.mem != nil {
		return p.errf(kw, "multiple memories are not supported")
	}
	mem := &memoryField{pos: kw.pos}

	if p.peek().kind == tokID {
		mem.id = p.next().text
	}
	for p.peek().kind == tokLParen && p.peek2().kind == tokKeyword && p.peek2().text == "export" {
		p.next() // (
		ex := p.next()
		name, err := p.expect(tokString)
		if err != nil {
			return err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return err
		}
		m.exports = append(m.exports, exportField{
			name: string(name.bytes),
			kind: kindMemory,
			how:  refIndex,
			idx:  0,
			pos:  ex.pos,
		})
	}

	minTok, err := p.expect(tokNumber)
	if err != nil {
		return err
	}
	mem.min, err = parseU32(minTok)
	if err != nil {
		return err
	}
	if p.peek().kind == tokNumber {
		maxTok := p.next()
		mem.max, err = parseU32(maxTok)
		if err != nil {
			return err
		}
		if mem.max < mem.min {
			return p.errf(maxTok, "memory maximum %d below minimum %d", mem.max, mem.min)
		}
		mem.hasMax = true
	}

	if _, err := p.expect(tokRParen); err != nil {
		return err
	}
	m.mem = mem
	return nil
}

// parseExport handles (export "name" (func|memory $id|idx)).
func (p *parser) parseExport(m *module, kw token) error {
	name, err := p.expect(tokString)
	if err != nil {
		return err
	}
	if _, err := p.expect(tokLParen); err != nil {
		return err
	}
	kindTok := p.next()
	if kindTok.kind != tokKeyword {
		return p.errf(kindTok, "expected export kind, got %s", kindTok.kind)
	}

	ex := exportField{name: string(name.bytes), pos: kw.pos}
	switch kindTok.text {
	case "func":
		ex.kind = kindFunc
	case "memory":
		ex.kind = kindMemory
	default:
		return p.errf(kindTok, "%q exports are not supported in this subset", kindTok.text)
	}

	target := p.next()
	switch target.kind {
	case tokID:
		ex.how = refSym
		ex.sym = target.text
	case tokNumber:
		ex.how = refIndex
		idx, err := parseU32(target)
		if err != nil {
			return err
		}
		ex.idx = idx
	default:
		return p.errf(target, "expected export target, got %s", target.kind)
	}

	if _, err := p.expect(tokRParen); err != nil {
		return err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return err
	}
	m.exports = append(m.exports, ex)
	return nil
}

// parseData handles (data (i32.const n) "bytes"*) with the optional
// (offset ...) wrapper.
func (p *parser) parseData(m *module, kw token) error {
	if _, err := p.expect(tokLParen); err != nil {
		return err
	}
	t := p.next()
	if t.kind != tokKeyword {
		return p.errf(t, "expected data offset, got %s", t.kind)
	}

	seg := dataSegment{pos: kw.pos}
	switch t.text {
	case "i32.const":
		n, err := p.parseIntImmediate(32)
		if err != nil {
			return err
		}
		seg.offset = n
	case "offset":
		if _, err := p.expect(tokLParen); err != nil {
			return err
		}
		if err := p.expectKeyword("i32.const"); err != nil {
			return err
		}
		n, err := p.parseIntImmediate(32)
		if err != nil {
			return err
		}
		seg.offset = n
		if _, err := p.expect(tokRParen); err != nil {
			return err
		}
	default:
		return p.errf(t, "expected data offset expression")
	}
	if _, err := p.expect(tokRParen); err != nil {
		return err
	}

	for p.peek().kind == tokString {
		seg.bytes = append(seg.bytes, p.next().bytes...)
	}

	if _, err := p.expect(tokRParen); err != nil {
		return err
	}
	m.data = append(m.data, seg)
	return nil
}
