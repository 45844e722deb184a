package wat

import (
	"bytes"
	"fmt"
	"strings"
)

var moduleHeader = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

const (
	secType   byte = 1
	secImport byte = 2
	secFunc   byte = 3
	secMemory byte = 5
	secExport byte = 7
	secCode   byte = 10
	secData   byte = 11
)

func encodeErrf(at pos, format string, args ...any) error {
	return &SyntaxError{Line: at.line, Col: at.col, Msg: fmt.Sprintf(format, args...)}
}

// encode assembles the binary module: header, then the canonical
// section order (type, import, function, memory, export, code, data).
// Empty sections are omitted.
func (m *module) encode() ([]byte, error) {
	funcIdx := make(map[string]uint32)
	addID := func(id string, idx uint32, at pos) error {
		if id == "" {
			return nil
		}
		if _, dup := funcIdx[id]; dup {
			return encodeErrf(at, "duplicate function id %s", id)
		}
		funcIdx[id] = idx
		return nil
	}
	for i := range m.imports {
		if err := addID(m.imports[i].id, uint32(i), m.imports[i].pos); err != nil {
			return nil, err
		}
	}
	base := uint32(len(m.imports))
	for j := range m.funcs {
		if err := addID(m.funcs[j].id, base+uint32(j), m.funcs[j].pos); err != nil {
			return nil, err
		}
	}
	numFuncs := base + uint32(len(m.funcs))

	// Deduplicated type table in first-use order, imports first.
	var types []funcType
	typeIdx := make(map[string]uint32)
	indexType := func(ft funcType) uint32 {
		key := typeKey(ft)
		if i, ok := typeIdx[key]; ok {
			return i
		}
		i := uint32(len(types))
		types = append(types, ft)
		typeIdx[key] = i
		return i
	}
	importTypes := make([]uint32, len(m.imports))
	for i, imp := range m.imports {
		importTypes[i] = indexType(imp.typ)
	}
	funcTypes := make([]uint32, len(m.funcs))
	for j, fn := range m.funcs {
		funcTypes[j] = indexType(fn.typ)
	}

	out := bytes.NewBuffer(nil)
	out.Write(moduleHeader)

	if len(types) > 0 {
		var p bytes.Buffer
		uleb(&p, uint64(len(types)))
		for _, ft := range types {
			p.WriteByte(0x60)
			uleb(&p, uint64(len(ft.params)))
			for _, vt := range ft.params {
				p.WriteByte(byte(vt))
			}
			uleb(&p, uint64(len(ft.results)))
			for _, vt := range ft.results {
				p.WriteByte(byte(vt))
			}
		}
		section(out, secType, p.Bytes())
	}

	if len(m.imports) > 0 {
		var p bytes.Buffer
		uleb(&p, uint64(len(m.imports)))
		for i, imp := range m.imports {
			writeName(&p, imp.module)
			writeName(&p, imp.name)
			p.WriteByte(0x00) // function import
			uleb(&p, uint64(importTypes[i]))
		}
		section(out, secImport, p.Bytes())
	}

	if len(m.funcs) > 0 {
		var p bytes.Buffer
		uleb(&p, uint64(len(m.funcs)))
		for _, ti := range funcTypes {
			uleb(&p, uint64(ti))
		}
		section(out, secFunc, p.Bytes())
	}

	if m.mem != nil {
		var p bytes.Buffer
		uleb(&p, 1)
		if m.mem.hasMax {
			p.WriteByte(0x01)
			uleb(&p, uint64(m.mem.min))
			uleb(&p, uint64(m.mem.max))
		} else {
			p.WriteByte(0x00)
			uleb(&p, uint64(m.mem.min))
		}
		section(out, secMemory, p.Bytes())
	}

	if len(m.exports) > 0 {
		var p bytes.Buffer
		uleb(&p, uint64(len(m.exports)))
		seen := make(map[string]bool, len(m.exports))
		for _, ex := range m.exports {
			if seen[ex.name] {
				return nil, encodeErrf(ex.pos, "duplicate export name %q", ex.name)
			}
			seen[ex.name] = true

			idx, err := m.resolveExport(ex, funcIdx, base, numFuncs)
			if err != nil {
				return nil, err
			}
			writeName(&p, ex.name)
			p.WriteByte(ex.kind)
			uleb(&p, uint64(idx))
		}
		section(out, secExport, p.Bytes())
	}

	if len(m.funcs) > 0 {
		var p bytes.Buffer
		uleb(&p, uint64(len(m.funcs)))
		for j := range m.funcs {
			body, err := encodeBody(&m.funcs[j], funcIdx, numFuncs)
			if err != nil {
				return nil, err
			}
			uleb(&p, uint64(len(body)))
			p.Write(body)
		}
		section(out, secCode, p.Bytes())
	}

	if len(m.data) > 0 {
		if m.mem == nil {
			return nil, encodeErrf(m.data[0].pos, "data segment without a memory")
		}
		var p bytes.Buffer
		uleb(&p, uint64(len(m.data)))
		for _, seg := range m.data {
			p.WriteByte(0x00) // active segment, memory 0
			p.WriteByte(0x41) // i32.const offset expression
			sleb(&p, seg.offset)
			p.WriteByte(0x0B)
			uleb(&p, uint64(len(seg.bytes)))
			p.Write(seg.bytes)
		}
		section(out, secData, p.Bytes())
	}

	return out.Bytes(), nil
}

func (m *module) resolveExport(ex exportField, funcIdx map[string]uint32, base, numFuncs uint32) (uint32, error) {
	switch ex.kind {
	case kindFunc:
		switch ex.how {
		case refOrdinal:
			return base + uint32(ex.ordinal), nil
		case refSym:
			idx, ok := funcIdx[ex.sym]
			if !ok {
				return 0, encodeErrf(ex.pos, "export %q references unknown function %s", ex.name, ex.sym)
			}
			return idx, nil
		default:
			if ex.idx >= numFuncs {
				return 0, encodeErrf(ex.pos, "export %q function index %d out of range", ex.name, ex.idx)
			}
			return ex.idx, nil
		}
	case kindMemory:
		if m.mem == nil {
			return 0, encodeErrf(ex.pos, "export %q references a memory, but none is declared", ex.name)
		}
		if ex.how == refSym && ex.sym != m.mem.id {
			return 0, encodeErrf(ex.pos, "export %q references unknown memory %s", ex.name, ex.sym)
		}
		if ex.how == refIndex && ex.idx != 0 {
			return 0, encodeErrf(ex.pos, "export %q memory index %d out of range", ex.name, ex.idx)
		}
		return 0, nil
	default:
		return 0, encodeErrf(ex.pos, "export %q has unsupported kind", ex.name)
	}
}

func encodeBody(fn *watFunc, funcIdx map[string]uint32, numFuncs uint32) ([]byte, error) {
	var b bytes.Buffer

	// Locals are run-length encoded by type.
	type localRun struct {
		count uint32
		vt    valueType
	}
	var runs []localRun
	for _, vt := range fn.locals {
		if len(runs) > 0 && runs[len(runs)-1].vt == vt {
			runs[len(runs)-1].count++
		} else {
			runs = append(runs, localRun{count: 1, vt: vt})
		}
	}
	uleb(&b, uint64(len(runs)))
	for _, r := range runs {
		uleb(&b, uint64(r.count))
		b.WriteByte(byte(r.vt))
	}

	for _, ins := range fn.body {
		b.WriteByte(ins.info.opcode)
		switch ins.info.imm {
		case immNone, immElse, immEnd:
			// Opcode only.
		case immZero:
			b.WriteByte(0x00)
		case immBlock:
			b.WriteByte(0x40) // void block type
		case immI32, immI64:
			sleb(&b, ins.num)
		case immFunc:
			idx := ins.idx
			if ins.sym != "" {
				v, ok := funcIdx[ins.sym]
				if !ok {
					return nil, encodeErrf(ins.pos, "call to unknown function %s", ins.sym)
				}
				idx = v
			} else if idx >= numFuncs {
				return nil, encodeErrf(ins.pos, "function index %d out of range", idx)
			}
			uleb(&b, uint64(idx))
		case immLocal, immLabel:
			uleb(&b, uint64(ins.idx))
		case immMem:
			uleb(&b, uint64(ins.align))
			uleb(&b, uint64(ins.off))
		}
	}

	b.WriteByte(0x0B) // end of expression
	return b.Bytes(), nil
}

func section(out *bytes.Buffer, id byte, payload []byte) {
	out.WriteByte(id)
	uleb(out, uint64(len(payload)))
	out.Write(payload)
}

func writeName(b *bytes.Buffer, s string) {
	uleb(b, uint64(len(s)))
	b.WriteString(s)
}

func typeKey(ft funcType) string {
	var sb strings.Builder
	for _, p := range ft.params {
		sb.WriteByte(byte(p))
	}
	sb.WriteByte(':')
	for _, r := range ft.results {
		sb.WriteByte(byte(r))
	}
	return sb.String()
}

func uleb(b *bytes.Buffer, v uint64) {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if v == 0 {
			b.WriteByte(c)
			return
		}
		b.WriteByte(c | 0x80)
	}
}

func sleb(b *bytes.Buffer, v int64) {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			b.WriteByte(c)
			return
		}
		b.WriteByte(c | 0x80)
	}
}
