package bytecode

import "fmt"

// Slot describes one operand position of an instruction.
type Slot int

const (
	SlotNone    Slot = iota
	SlotReg          // register index, widenable
	SlotConst        // constant pool index, widenable
	SlotUpvalue      // upvalue index, widenable
	SlotModVar       // module-variable slot index, widenable
	SlotOffset       // unsigned magnitude of a jump relative to its own instruction's start PC, widenable; direction is implied by the opcode (Jump/JumpIfFalse add, JumpBack subtracts)
	SlotByte         // raw unsigned byte, e.g. an arg-count; never widened
	SlotSmi          // raw signed 16-bit immediate; never widened
)

// layout lists, for each opcode, the ordered slots of its operands.
var layout = map[Op][]Slot{
	Nop:              {},
	Load:             {SlotReg},
	Store:            {SlotReg},
	LoadConst:        {SlotConst},
	LoadGlobal:       {SlotConst},
	StoreGlobal:      {SlotConst},
	LoadUpvalue:      {SlotUpvalue},
	StoreUpvalue:     {SlotUpvalue},
	LoadModuleVar:    {SlotModVar},
	StoreModuleVar:   {SlotModVar},
	LoadNone:         {},
	LoadTrue:         {},
	LoadFalse:        {},
	LoadSmi:          {SlotSmi},
	LoadSelf:         {},
	LoadSuper:        {},
	LoadField:        {SlotConst},
	LoadFieldOpt:     {SlotConst},
	StoreField:       {SlotReg, SlotConst},
	LoadIndex:        {SlotReg},
	LoadIndexOpt:     {SlotReg},
	StoreIndex:       {SlotReg, SlotReg}, // object reg, index reg; value is the accumulator
	MakeFn:           {SlotConst},
	UpvalueReg:       {SlotReg, SlotUpvalue},
	UpvalueSlot:      {SlotUpvalue, SlotUpvalue},
	MakeClass:        {SlotReg, SlotConst}, // parent-class reg (ignored if not derived), ClassDesc const
	MakeList:         {SlotReg, SlotByte},  // base reg, element count
	MakeTuple:        {SlotReg, SlotByte},  // base reg, element count
	MakeDict:         {SlotReg, SlotByte},  // base reg, entry count (2 regs per entry)
	MakeRange:        {SlotReg, SlotByte},  // lo reg, inclusive flag; hi comes from the accumulator
	Jump:             {SlotOffset},
	JumpBack:         {SlotOffset},
	JumpIfFalse:      {SlotOffset},
	JumpIfNone:       {SlotOffset},
	IterInit:         {SlotReg},
	IterNext:         {SlotReg},
	Add:              {SlotReg},
	Sub:              {SlotReg},
	Mul:              {SlotReg},
	Div:              {SlotReg},
	Rem:              {SlotReg},
	Pow:              {SlotReg},
	Inv:              {},
	Not:              {},
	CmpEq:            {SlotReg},
	CmpNe:            {SlotReg},
	CmpGt:            {SlotReg},
	CmpGe:            {SlotReg},
	CmpLt:            {SlotReg},
	CmpLe:            {SlotReg},
	CmpType:          {SlotReg},
	Contains:         {SlotReg},
	Print:            {},
	PrintN:           {SlotReg, SlotByte},
	Call:             {SlotReg, SlotByte},
	Import:           {SlotConst, SlotReg},
	Ret:              {},
	Suspend:          {},
}

// Layout returns the operand slot list for op.
func Layout(op Op) []Slot {
	return layout[op]
}

// widenable reports whether a slot's width is affected by a Wide16/Wide32
// prefix (SlotByte and SlotSmi are always fixed-width).
func (s Slot) widenable() bool {
	return s == SlotReg || s == SlotConst || s == SlotUpvalue || s == SlotModVar || s == SlotOffset
}

// Writer assembles a bytecode stream, auto-emitting Wide16/Wide32 prefixes
// when an instruction's operands don't fit in a byte.
type Writer struct {
	Code []byte
}

// Emit appends one instruction with the given operand values (in slot
// order) to the stream, choosing and emitting the minimal operand width.
func (w *Writer) Emit(op Op, operands ...int) int {
	slots := layout[op]
	if len(operands) != len(slots) {
		panic(fmt.Sprintf("bytecode: %s expects %d operands, got %d", op, len(slots), len(operands)))
	}
	width := 1
	for i, sl := range slots {
		if !sl.widenable() {
			continue
		}
		width = maxInt(width, widthFor(operands[i]))
	}
	pc := len(w.Code)
	switch width {
	case 2:
		w.Code = append(w.Code, byte(Wide16))
	case 4:
		w.Code = append(w.Code, byte(Wide32))
	}
	w.Code = append(w.Code, byte(op))
	for i, sl := range slots {
		w.writeOperand(sl, operands[i], width)
	}
	return pc
}

func (w *Writer) writeOperand(sl Slot, v int, width int) {
	switch sl {
	case SlotByte:
		w.Code = append(w.Code, byte(v))
	case SlotSmi:
		u := uint16(int16(v))
		w.Code = append(w.Code, byte(u), byte(u>>8))
	default:
		w.writeWidth(v, width)
	}
}

func (w *Writer) writeWidth(v int, width int) {
	switch width {
	case 1:
		w.Code = append(w.Code, byte(v))
	case 2:
		u := uint16(v)
		w.Code = append(w.Code, byte(u), byte(u>>8))
	case 4:
		u := uint32(v)
		w.Code = append(w.Code, byte(u), byte(u>>8), byte(u>>16), byte(u>>24))
	}
}

func widthFor(v int) int {
	if v < 0 {
		v = -v
	}
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	default:
		return 4
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// PatchOperand overwrites the first widenable operand of the instruction
// starting at pc (used by the emitter's label/patch machinery once a jump
// target is known). It requires the instruction to already have been
// emitted at a width that fits the new value; the emitter reserves Wide32
// up front for any forward jump whose target isn't known yet so the patch
// always fits.
func (w *Writer) PatchOperand(pc int, value int) {
	op := Op(w.Code[pc])
	width := 1
	start := pc + 1
	if op == Wide16 {
		width = 2
		op = Op(w.Code[pc+1])
		start = pc + 2
	} else if op == Wide32 {
		width = 4
		op = Op(w.Code[pc+1])
		start = pc + 2
	}
	slots := layout[op]
	if len(slots) == 0 || !slots[0].widenable() {
		panic("bytecode: PatchOperand target has no widenable first operand")
	}
	switch width {
	case 1:
		w.Code[start] = byte(value)
	case 2:
		u := uint16(value)
		w.Code[start] = byte(u)
		w.Code[start+1] = byte(u >> 8)
	case 4:
		u := uint32(value)
		w.Code[start] = byte(u)
		w.Code[start+1] = byte(u >> 8)
		w.Code[start+2] = byte(u >> 16)
		w.Code[start+3] = byte(u >> 24)
	}
}

// Instr is one decoded instruction: its opcode, effective operand width,
// decoded operand values (in slot order), and byte length including any
// prefix.
type Instr struct {
	PC     int
	Op     Op
	Width  int
	Args   []int
	Length int
}

// Decode reads one instruction (including any Wide16/Wide32 prefix) from
// code starting at pc.
func Decode(code []byte, pc int) Instr {
	start := pc
	width := 1
	op := Op(code[pc])
	switch op {
	case Wide16:
		width = 2
		pc++
		op = Op(code[pc])
	case Wide32:
		width = 4
		pc++
		op = Op(code[pc])
	}
	pc++
	slots := layout[op]
	args := make([]int, len(slots))
	for i, sl := range slots {
		switch sl {
		case SlotByte:
			args[i] = int(code[pc])
			pc++
		case SlotSmi:
			v := int16(uint16(code[pc]) | uint16(code[pc+1])<<8)
			args[i] = int(v)
			pc += 2
		default:
			args[i] = readWidth(code, pc, width)
			pc += width
		}
	}
	return Instr{PC: start, Op: op, Width: width, Args: args, Length: pc - start}
}

func readWidth(code []byte, pc int, width int) int {
	switch width {
	case 1:
		return int(code[pc])
	case 2:
		return int(uint16(code[pc]) | uint16(code[pc+1])<<8)
	case 4:
		return int(uint32(code[pc]) | uint32(code[pc+1])<<8 | uint32(code[pc+2])<<16 | uint32(code[pc+3])<<24)
	}
	return 0
}
