package wat

// immKind classifies the immediate operands an instruction carries in
// the text and binary formats.
type immKind int

const (
	immNone  immKind = iota
	immI32           // 32-bit integer constant
	immI64           // 64-bit integer constant
	immFunc          // function index or $id
	immLocal         // local index or $name
	immLabel         // branch depth or $label
	immMem           // optional offset= and align= arguments
	immZero          // reserved zero byte (memory.size, memory.grow)
	immBlock         // opens a label scope (block, loop, if)
	immElse          // else arm of an open if
	immEnd           // closes a label scope
)

type opInfo struct {
	opcode   byte
	imm      immKind
	natAlign uint32 // natural alignment in bytes for memory ops
}

// ops is the instruction subset the translator accepts. Anything else
// is an "unknown instruction" diagnostic.
var ops = map[string]opInfo{
	"unreachable": {opcode: 0x00, imm: immNone},
	"nop":         {opcode: 0x01, imm: immNone},
	"block":       {opcode: 0x02, imm: immBlock},
	"loop":        {opcode: 0x03, imm: immBlock},
	"if":          {opcode: 0x04, imm: immBlock},
	"else":        {opcode: 0x05, imm: immElse},
	"end":         {opcode: 0x0B, imm: immEnd},
	"br":          {opcode: 0x0C, imm: immLabel},
	"br_if":       {opcode: 0x0D, imm: immLabel},
	"return":      {opcode: 0x0F, imm: immNone},
	"call":        {opcode: 0x10, imm: immFunc},

	"drop":   {opcode: 0x1A, imm: immNone},
	"select": {opcode: 0x1B, imm: immNone},

	"local.get": {opcode: 0x20, imm: immLocal},
	"local.set": {opcode: 0x21, imm: immLocal},
	"local.tee": {opcode: 0x22, imm: immLocal},

	"i32.load":    {opcode: 0x28, imm: immMem, natAlign: 4},
	"i32.load8_u": {opcode: 0x2D, imm: immMem, natAlign: 1},
	"i32.store":   {opcode: 0x36, imm: immMem, natAlign: 4},
	"i32.store8":  {opcode: 0x3A, imm: immMem, natAlign: 1},

	"memory.size": {opcode: 0x3F, imm: immZero},
	"memory.grow": {opcode: 0x40, imm: immZero},

	"i32.const": {opcode: 0x41, imm: immI32},
	"i64.const": {opcode: 0x42, imm: immI64},

	"i32.eqz":  {opcode: 0x45, imm: immNone},
	"i32.eq":   {opcode: 0x46, imm: immNone},
	"i32.ne":   {opcode: 0x47, imm: immNone},
	"i32.lt_s": {opcode: 0x48, imm: immNone},
	"i32.lt_u": {opcode: 0x49, imm: immNone},
	"i32.gt_s": {opcode: 0x4A, imm: immNone},
	"i32.gt_u": {opcode: 0x4B, imm: immNone},
	"i32.le_s": {opcode: 0x4C, imm: immNone},
	"i32.le_u": {opcode: 0x4D, imm: immNone},
	"i32.ge_s": {opcode: 0x4E, imm: immNone},
	"i32.ge_u": {opcode: 0x4F, imm: immNone},

	"i32.add":   {opcode: 0x6A, imm: immNone},
	"i32.sub":   {opcode: 0x6B, imm: immNone},
	"i32.mul":   {opcode: 0x6C, imm: immNone},
	"i32.div_s": {opcode: 0x6D, imm: immNone},
	"i32.div_u": {opcode: 0x6E, imm: immNone},
	"i32.rem_s": {opcode: 0x6F, imm: immNone},
	"i32.rem_u": {opcode: 0x70, imm: immNone},
	"i32.and":   {opcode: 0x71, imm: immNone},
	"i32.or":    {opcode: 0x72, imm: immNone},
	"i32.xor":   {opcode: 0x73, imm: immNone},
	"i32.shl":   {opcode: 0x74, imm: immNone},
	"i32.shr_s": {opcode: 0x75, imm: immNone},
	"i32.shr_u": {opcode: 0x76, imm: immNone},
}
