// Package bytecode defines the register-based instruction set, the
// constant pool, and the function/class descriptors that the emitter
// produces and the VM executes.
package bytecode

// Op is a single bytecode opcode. The accumulator is the implicit operand of
// every opcode below that does not explicitly describe one; see the
// specification's VM section for per-opcode semantics.
type Op byte

const (
	Nop Op = iota

	// Stack/register. Load copies a register into the accumulator; Store
	// copies the accumulator into a register without clobbering it, so a
	// value can be stashed into a temporary and read again right after
	// (the pattern every binary-op and field/index opcode below relies on).
	Load
	Store
	LoadConst
	LoadGlobal
	StoreGlobal
	LoadUpvalue
	StoreUpvalue
	LoadModuleVar
	StoreModuleVar

	// Literals
	LoadNone
	LoadTrue
	LoadFalse
	LoadSmi
	LoadSelf
	LoadSuper

	// Field/index
	LoadField
	LoadFieldOpt
	StoreField
	LoadIndex
	LoadIndexOpt
	StoreIndex

	// Construction. List/Tuple/Dict consume a contiguous register window
	// starting at the given base (Dict holds key,value pairs back to back)
	// and leave the built value in the accumulator; Range takes its low
	// bound from a register and its high bound from the accumulator.
	MakeFn
	UpvalueReg
	UpvalueSlot
	MakeClass
	MakeList
	MakeTuple
	MakeDict
	MakeRange

	// Control flow. Jump/JumpIfFalse are forward branches, JumpBack is a
	// backward branch (loop); all three carry a relative operand, signed
	// by direction rather than by encoding.
	Jump
	JumpBack
	JumpIfFalse
	JumpIfNone

	// Iteration protocol: IterInit turns the accumulator (the iterated
	// expression's value) into an iterator state value held in a register,
	// picking the fast range counter or the general next()-based path;
	// IterNext advances it, leaving the yielded value (or none, at
	// exhaustion) in the accumulator.
	IterInit
	IterNext

	// Arithmetic
	Add
	Sub
	Mul
	Div
	Rem
	Pow
	Inv
	Not

	// Comparison
	CmpEq
	CmpNe
	CmpGt
	CmpGe
	CmpLt
	CmpLe
	CmpType
	Contains

	// Call/IO
	Print
	PrintN
	Call
	Import
	Ret
	Suspend

	// Operand-width prefixes. A prefix widens the operand(s) of the
	// single opcode that follows it; the widened opcode is decoded
	// recursively by the disassembler/VM decoder.
	Wide16
	Wide32
)

var names = [...]string{
	Nop: "Nop", Load: "Load", Store: "Store", LoadConst: "LoadConst",
	LoadGlobal: "LoadGlobal", StoreGlobal: "StoreGlobal",
	LoadUpvalue: "LoadUpvalue", StoreUpvalue: "StoreUpvalue",
	LoadModuleVar: "LoadModuleVar", StoreModuleVar: "StoreModuleVar",
	LoadNone: "LoadNone", LoadTrue: "LoadTrue", LoadFalse: "LoadFalse",
	LoadSmi: "LoadSmi", LoadSelf: "LoadSelf", LoadSuper: "LoadSuper",
	LoadField: "LoadField", LoadFieldOpt: "LoadFieldOpt", StoreField: "StoreField",
	LoadIndex: "LoadIndex", LoadIndexOpt: "LoadIndexOpt", StoreIndex: "StoreIndex",
	MakeFn: "MakeFn", UpvalueReg: "UpvalueReg", UpvalueSlot: "UpvalueSlot",
	MakeClass: "MakeClass", MakeList: "MakeList", MakeTuple: "MakeTuple",
	MakeDict: "MakeDict", MakeRange: "MakeRange",
	Jump: "Jump", JumpBack: "JumpBack", JumpIfFalse: "JumpIfFalse",
	JumpIfNone: "JumpIfNone", IterInit: "IterInit", IterNext: "IterNext",
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div", Rem: "Rem", Pow: "Pow",
	Inv: "Inv", Not: "Not",
	CmpEq: "CmpEq", CmpNe: "CmpNe", CmpGt: "CmpGt", CmpGe: "CmpGe",
	CmpLt: "CmpLt", CmpLe: "CmpLe", CmpType: "CmpType", Contains: "Contains",
	Print: "Print", PrintN: "PrintN", Call: "Call", Import: "Import",
	Ret: "Ret", Suspend: "Suspend",
	Wide16: "Wide16", Wide32: "Wide32",
}

func (o Op) String() string {
	if int(o) < len(names) && names[o] != "" {
		return names[o]
	}
	return "Unknown"
}

