// Package grid implements the spatial tick-driven VM: the grid of
// blocks, the per-block instruction semantics, the four-phase transfer
// scheduler, and the driver loop (spec.md §4.4-§4.6).
package grid

import "tisvm/isa"

const (
	stackCapacity = 16
	numRegisters  = 4
)

// side mirrors isa.Target's UP..ANY contiguity as a 0..4 index
// (spec.md §3: "target - UP yields a side index 0..4").
type side int

const (
	sideUp side = iota
	sideRight
	sideDown
	sideLeft
	sideAny
	sideInvalid
)

// Block is one cell's processor state (spec.md §3 "Block").
type Block struct {
	bytecode []byte

	pc        int
	registers [numRegisters]byte
	acc       byte
	stack     [stackCapacity]byte
	sp        int // -1 means empty

	waitTicks int

	xferValue    byte
	xferSide     side
	waitingForIO bool
	waitingWrite bool
	transferred  bool

	overflow bool
	halted   bool
}

// reset restores a block to its post-load state (spec.md §4.4 "load").
func (b *Block) reset(bytecode []byte) {
	*b = Block{bytecode: bytecode, sp: -1, xferSide: sideInvalid}
}

// Halted reports whether the block has stopped executing.
func (b *Block) Halted() bool { return b.halted }

// Overflow reports the current state of the one-bit overflow flag.
func (b *Block) Overflow() bool { return b.overflow }

// Acc returns the accumulator's current value, for tests and debuggers.
func (b *Block) Acc() byte { return b.acc }

// PC returns the current instruction pointer, for tests and debuggers.
func (b *Block) PC() int { return b.pc }

func (b *Block) hasProgram() bool {
	return len(b.bytecode) > 0
}

// currentInstruction decodes the opcode/target pair at pc, wrapping pc
// to 0 first if it has run past the end of the program (spec.md §4.6
// Phase 1).
func (b *Block) currentInstruction() (isa.Opcode, isa.Target) {
	if b.pc >= len(b.bytecode) {
		b.pc = 0
	}
	return isa.Instruction(b.bytecode[b.pc]).Unpack()
}

func sideFromTarget(t isa.Target) side {
	switch {
	case t == isa.Any:
		return sideAny
	case t.IsSide():
		return side(t.SideIndex())
	default:
		return sideInvalid
	}
}

// readLocal resolves a non-transfer operand for reading (spec.md §4.5).
// ADJ and the directional/ANY targets are handled by the scheduler and
// never reach here.
func (b *Block) readLocal(t isa.Target) byte {
	switch t {
	case isa.Stk:
		if b.sp < 0 {
			return 0
		}
		return b.stack[b.sp]
	case isa.Acc:
		return b.acc
	case isa.Rg0:
		return b.registers[0]
	case isa.Rg1:
		return b.registers[1]
	case isa.Rg2:
		return b.registers[2]
	case isa.Rg3:
		return b.registers[3]
	case isa.Ref:
		if int(b.acc) < len(b.bytecode) {
			b.overflow = false
			return b.bytecode[b.acc]
		}
		b.overflow = true
		return 0
	case isa.Nil:
		return 0
	case isa.Sln:
		if b.sp < 0 {
			return 0
		}
		return byte(b.sp + 1)
	case isa.Cur:
		return byte(b.pc)
	default:
		return 0
	}
}

// writeLocal resolves a non-transfer operand for writing (PUT/POP
// only, spec.md §4.5). ADJ/REF are illegal write targets; directional
// and ANY targets never reach here.
func (b *Block) writeLocal(t isa.Target, v byte) {
	switch t {
	case isa.Stk:
		if b.sp < 0 {
			b.overflow = true
			return
		}
		b.stack[b.sp] = v
		b.overflow = false
	case isa.Acc:
		b.acc = v
	case isa.Rg0:
		b.registers[0] = v
	case isa.Rg1:
		b.registers[1] = v
	case isa.Rg2:
		b.registers[2] = v
	case isa.Rg3:
		b.registers[3] = v
	default:
		// NIL/SLN/CUR discard writes; ADJ/REF are illegal and the
		// assembler/VM never route a write to them.
	}
}

// advancePC moves pc past the instruction just executed, skipping an
// inline ADJ operand byte, and wraps it to 0 once it runs past the end
// of the program, as the phase-1 pre-check does (spec.md §4.5).
func (b *Block) advancePC(consumedAdj bool) {
	b.pc++
	if consumedAdj {
		b.pc++
	}
	if b.pc >= len(b.bytecode) {
		b.pc = 0
	}
}
