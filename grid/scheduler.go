package grid

import "tisvm/isa"

// Tick runs the four-phase evaluation algorithm once across every
// block in the grid (spec.md §4.6). It reports whether any block did
// work this tick, which the driver (C8) uses to detect quiescence.
func Tick(g *Grid) bool {
	anyTicked := false

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			b := g.Block(x, y)
			if b.hasProgram() && !b.halted {
				anyTicked = true
			}
			pre(g, x, y, b)
		}
	}

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			b := g.Block(x, y)
			if b.waitingForIO && b.waitingWrite {
				write(g, x, y, b)
			}
		}
	}

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			b := g.Block(x, y)
			if b.waitingForIO && !b.waitingWrite {
				read(g, x, y, b)
			}
		}
	}

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			exec(g.Block(x, y))
		}
	}

	return anyTicked
}

// pre is phase 1: wrap pc, fetch the current instruction, and stage a
// pending transfer for directional/ANY targets (spec.md §4.6 Phase 1).
func pre(g *Grid, x, y int, b *Block) {
	if !b.hasProgram() || b.halted || b.waitingForIO || b.waitTicks > 0 {
		return
	}

	op, target := b.currentInstruction()
	if op == isa.Halt {
		b.halted = true
		return
	}

	s := sideFromTarget(target)
	b.xferSide = s
	if s == sideInvalid {
		return
	}

	b.waitingForIO = true
	b.waitingWrite = op == isa.Put || op == isa.Pop

	switch {
	case op == isa.Put:
		b.xferValue = b.acc
	case op == isa.Pop:
		if b.sp < 0 {
			b.xferValue = 0
			b.overflow = true
		} else {
			b.xferValue = b.stack[b.sp]
			b.sp--
			b.overflow = false
		}
	}
}

// write is phase 2: deliver a pending write either into an edge slot
// (off-grid) or defer it for the neighbouring block's read phase
// (on-grid) (spec.md §4.6 Phase 2).
func write(g *Grid, x, y int, b *Block) {
	if b.xferSide == sideAny {
		for _, s := range [...]side{sideUp, sideRight, sideDown, sideLeft} {
			if _, _, onGrid := g.neighbor(x, y, s); onGrid {
				continue
			}
			if slot := g.edgeSlot(x, y, s); slot != nil && slot.tryWrite(b.xferValue) {
				b.waitingForIO = false
				b.transferred = true
				b.overflow = false
				return
			}
		}
		// No writable edge available this tick; defer. An on-grid
		// neighbour may still claim this value during its own read
		// phase (spec.md §9 "ANY-side rendezvous").
		return
	}

	if _, _, onGrid := g.neighbor(x, y, b.xferSide); onGrid {
		return // neighbour's read phase will claim it
	}

	slot := g.edgeSlot(x, y, b.xferSide)
	if slot != nil && slot.tryWrite(b.xferValue) {
		b.waitingForIO = false
		b.transferred = true
		b.overflow = false
		return
	}

	b.waitingForIO = false
	b.transferred = false
	b.overflow = true
}

// read is phase 3: satisfy a pending read from an edge slot, a ready
// on-grid peer, or (ANY) the first ready candidate found across one
// revolution (spec.md §4.6 Phase 3).
func read(g *Grid, x, y int, b *Block) {
	if b.xferSide == sideAny {
		for _, s := range [...]side{sideUp, sideRight, sideDown, sideLeft} {
			if tryReadSide(g, x, y, b, s, true) {
				return
			}
		}
		// Full revolution found no partner: spec.md §9's open-question
		// resolution is a failure-unlock with overflow, not an
		// indefinite stall.
		b.waitingForIO = false
		b.transferred = false
		b.overflow = true
		return
	}

	tryReadSide(g, x, y, b, b.xferSide, false)
}

// tryReadSide attempts to satisfy b's pending read from direction s.
// It reports whether the read was resolved (succeeded or
// failure-unlocked); false means s offered no partner this tick, so a
// single-direction reader keeps waiting and retries s next tick. When
// anySide is set, a halted peer or an unreadable edge also returns
// false instead of failure-unlocking, so the ANY search moves on to
// the next side.
func tryReadSide(g *Grid, x, y int, b *Block, s side, anySide bool) bool {
	if nx, ny, onGrid := g.neighbor(x, y, s); onGrid {
		peer := g.Block(nx, ny)
		switch {
		case peer.halted:
			if anySide {
				return false
			}
			b.waitingForIO = false
			b.transferred = false
			b.overflow = true
			return true
		case peer.waitingForIO && peer.waitingWrite:
			b.xferValue = peer.xferValue
			b.waitingForIO = false
			b.transferred = true
			b.overflow = false
			peer.waitingForIO = false
			peer.transferred = true
			peer.overflow = false
			return true
		default:
			return false
		}
	}

	slot := g.edgeSlot(x, y, s)
	if slot == nil {
		return false
	}
	if v, ok := slot.tryRead(); ok {
		b.xferValue = v
		b.waitingForIO = false
		b.transferred = true
		b.overflow = false
		return true
	}
	if anySide {
		return false
	}
	b.waitingForIO = false
	b.transferred = false
	b.overflow = true
	return true
}

// exec is phase 4: resolve the operand and perform the opcode's
// effect, then advance pc (spec.md §4.6 Phase 4, §4.5).
func exec(b *Block) {
	if b.halted || !b.hasProgram() {
		return
	}
	if b.waitTicks > 0 {
		b.waitTicks--
		return
	}
	if b.waitingForIO {
		return
	}

	op, target := b.currentInstruction()
	consumedAdj := target == isa.Adj

	resolve := func() byte {
		if b.transferred {
			return b.xferValue
		}
		if target == isa.Adj {
			if b.pc+1 < len(b.bytecode) {
				return b.bytecode[b.pc+1]
			}
			return 0
		}
		return b.readLocal(target)
	}

	switch op {
	case isa.Nop:
		// consume a tick

	case isa.Wait:
		b.waitTicks = int(resolve())

	case isa.Add:
		v := resolve()
		sum := int(b.acc) + int(v)
		b.overflow = sum > 255
		b.acc = byte(sum)

	case isa.Sub:
		v := resolve()
		diff := int(b.acc) - int(v)
		b.overflow = diff < 0
		b.acc = byte(diff)

	case isa.Mlt:
		v := resolve()
		prod := int(b.acc) * int(v)
		b.overflow = prod > 255
		b.acc = byte(prod)

	case isa.Div:
		v := resolve()
		if v == 0 {
			b.overflow = true
		} else {
			b.acc = b.acc / v
			b.overflow = false
		}

	case isa.Mod:
		v := resolve()
		if v == 0 {
			b.overflow = true
		} else {
			b.acc = b.acc % v
			b.overflow = false
		}

	case isa.Get:
		b.acc = resolve()

	case isa.Put:
		// A directional/ANY target already delivered (or failed to
		// deliver) acc during phases 2-3; only a local target is
		// written here.
		if b.xferSide == sideInvalid {
			b.writeLocal(target, b.acc)
		}

	case isa.Push:
		v := resolve()
		if b.sp >= stackCapacity-1 {
			b.overflow = true
		} else {
			b.sp++
			b.stack[b.sp] = v
			b.overflow = false
		}

	case isa.Pop:
		// A directional/ANY target already popped the stack in phase 1
		// and delivered (or failed to deliver) the value during phases
		// 2-3; only a local target pops and writes here.
		if b.xferSide == sideInvalid {
			var v byte
			if b.sp < 0 {
				b.overflow = true
			} else {
				v = b.stack[b.sp]
				b.sp--
				b.overflow = false
			}
			b.writeLocal(target, v)
		}

	case isa.Jmp, isa.Jez, isa.Jnz, isa.Jof:
		v := resolve()
		taken := false
		switch op {
		case isa.Jmp:
			taken = true
		case isa.Jez:
			taken = b.acc == 0
		case isa.Jnz:
			taken = b.acc != 0
		case isa.Jof:
			taken = b.overflow
		}
		if taken {
			b.pc = int(v)
			b.transferred = false
			return
		}
	}

	b.transferred = false
	b.advancePC(consumedAdj)
}
