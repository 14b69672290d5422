package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders fn's bytecode one instruction per line: a leading PC
// offset, the mnemonic (with an explicit "(wide16)"/"(wide32)" suffix when a
// prefix widened it), and its decoded operands.
func Disassemble(fn *Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s(%d regs)\n", fnLabel(fn), fn.NumRegs)
	pc := 0
	for pc < len(fn.Code) {
		in := Decode(fn.Code, pc)
		fmt.Fprintf(&b, "%04d  %s\n", in.PC, FormatInstr(fn, in))
		pc += in.Length
	}
	return b.String()
}

func fnLabel(fn *Function) string {
	if fn.Name == "" {
		return "<anonymous>"
	}
	return fn.Name
}

// FormatInstr renders one decoded instruction against fn's constant pool,
// resolving constant-index operands to their values for readability.
func FormatInstr(fn *Function, in Instr) string {
	mnemonic := in.Op.String()
	if in.Width == 2 {
		mnemonic += " (wide16)"
	} else if in.Width == 4 {
		mnemonic += " (wide32)"
	}
	slots := layout[in.Op]
	parts := make([]string, 0, len(in.Args))
	for i, sl := range slots {
		parts = append(parts, formatOperand(fn, sl, in.Args[i]))
	}
	if len(parts) == 0 {
		return mnemonic
	}
	return mnemonic + " " + strings.Join(parts, ", ")
}

func formatOperand(fn *Function, sl Slot, v int) string {
	switch sl {
	case SlotReg:
		return fmt.Sprintf("r%d", v)
	case SlotUpvalue:
		return fmt.Sprintf("u%d", v)
	case SlotModVar:
		return fmt.Sprintf("m%d", v)
	case SlotOffset:
		return fmt.Sprintf("~%d", v)
	case SlotByte:
		return fmt.Sprintf("%d", v)
	case SlotSmi:
		return fmt.Sprintf("%d", v)
	case SlotConst:
		if v >= 0 && v < len(fn.Consts) {
			return fmt.Sprintf("k%d(%s)", v, formatConst(fn.Consts[v]))
		}
		return fmt.Sprintf("k%d", v)
	default:
		return fmt.Sprintf("%d", v)
	}
}

func formatConst(c Const) string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("%g", c.Float)
	case ConstString:
		return fmt.Sprintf("%q", c.Str)
	case ConstBool:
		return fmt.Sprintf("%t", c.Int != 0)
	case ConstNone:
		return "none"
	case ConstFunc:
		if c.Func != nil {
			return "fn " + fnLabel(c.Func)
		}
		return "fn"
	case ConstClass:
		if c.Class != nil {
			return "class " + c.Class.Name
		}
		return "class"
	default:
		return "?"
	}
}

// InstrCount returns the number of instructions in fn's code, used by the
// round-trip property test (disassembly is a total function whose output's
// instruction count matches the decoded stream).
func InstrCount(fn *Function) int {
	n := 0
	pc := 0
	for pc < len(fn.Code) {
		in := Decode(fn.Code, pc)
		pc += in.Length
		n++
	}
	return n
}
