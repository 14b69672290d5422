package bytecode

// CallKwFlag, set on the high bit of Call's argument-count operand, tells
// the VM the final slot of the argument window holds a keyword dict rather
// than a positional value. Shared between internal/emit (which sets it) and
// internal/vm (which reads it) so the encoding only lives in one place.
const CallKwFlag = 0x80
