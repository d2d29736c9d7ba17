package grid

import (
	"fmt"

	"tisvm/isa"
)

// Grid owns a width x height array of blocks laid out row-major plus
// the 2*(w+h) perimeter I/O slots (spec.md §3 "Grid", §4.4). It does
// not own bytecode or slot payload buffers; those are borrowed from
// the caller.
type Grid struct {
	width, height int
	blocks        []Block // row-major, len == width*height
	slots         []*Slot // len == 2*(width+height)
}

// New allocates a width x height grid of empty, zeroed blocks and
// slots. Both dimensions must be in 1..255 (spec.md §4.4).
func New(width, height int) (*Grid, error) {
	if width < 1 || width > 255 || height < 1 || height > 255 {
		return nil, fmt.Errorf("grid: dimensions must be in 1..255, got %dx%d", width, height)
	}
	g := &Grid{
		width:  width,
		height: height,
		blocks: make([]Block, width*height),
		slots:  make([]*Slot, 2*(width+height)),
	}
	for i := range g.blocks {
		g.blocks[i].sp = -1
		g.blocks[i].xferSide = sideInvalid
	}
	return g, nil
}

// Width and Height report the grid's dimensions.
func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) blockIndex(x, y int) int { return y*g.width + x }

// Block returns a pointer to the block at (x,y) for inspection (tests,
// debuggers). The grid retains ownership.
func (g *Grid) Block(x, y int) *Block {
	return &g.blocks[g.blockIndex(x, y)]
}

// slotOffset implements spec.md §3's boundary-walk mapping: up and
// down slots are indexed by column, right and left by row, and the
// four runs are concatenated in side order up, right, down, left.
func (g *Grid) slotOffset(s side, localIndex int) int {
	offset := 0
	if s >= sideRight {
		offset += g.width
	}
	if s >= sideDown {
		offset += g.height
	}
	if s == sideLeft {
		offset += g.width
	}
	return offset + localIndex
}

func (g *Grid) sideSpan(s side) int {
	switch s {
	case sideUp, sideDown:
		return g.width
	case sideRight, sideLeft:
		return g.height
	default:
		return 0
	}
}

// AttachInput binds a read-only slot at (side, idx) to buf (spec.md
// §4.4 "attach_input"). side must be Up/Rig/Dwn/Lft and idx within the
// side's span (column count for Up/Dwn, row count for Rig/Lft).
func (g *Grid) AttachInput(t isa.Target, idx int, buf []byte) error {
	return g.attach(t, idx, NewInputSlot(buf))
}

// AttachOutput binds a writable slot at (side, idx) to buf (spec.md
// §4.4 "attach_output").
func (g *Grid) AttachOutput(t isa.Target, idx int, buf []byte) error {
	return g.attach(t, idx, NewOutputSlot(buf))
}

func (g *Grid) attach(t isa.Target, idx int, slot *Slot) error {
	s := sideFromTarget(t)
	if s == sideInvalid || s == sideAny {
		return fmt.Errorf("grid: %s is not an edge side", t)
	}
	span := g.sideSpan(s)
	if idx < 0 || idx >= span {
		return fmt.Errorf("grid: slot index %d out of range for side %s (span %d)", idx, t, span)
	}
	g.slots[g.slotOffset(s, idx)] = slot
	return nil
}

// edgeSlot returns the perimeter slot a block at (x,y) reaches by
// stepping off-grid toward side s, or nil if side s is still on-grid
// from (x,y) or out of bounds entirely.
func (g *Grid) edgeSlot(x, y int, s side) *Slot {
	switch s {
	case sideUp:
		if y > 0 {
			return nil
		}
		return g.slots[g.slotOffset(sideUp, x)]
	case sideDown:
		if y < g.height-1 {
			return nil
		}
		return g.slots[g.slotOffset(sideDown, x)]
	case sideRight:
		if x < g.width-1 {
			return nil
		}
		return g.slots[g.slotOffset(sideRight, y)]
	case sideLeft:
		if x > 0 {
			return nil
		}
		return g.slots[g.slotOffset(sideLeft, y)]
	default:
		return nil
	}
}

// neighbor returns the coordinates of the on-grid neighbour in
// direction s, or ok=false when that side is off-grid.
func (g *Grid) neighbor(x, y int, s side) (nx, ny int, ok bool) {
	switch s {
	case sideUp:
		if y == 0 {
			return 0, 0, false
		}
		return x, y - 1, true
	case sideDown:
		if y == g.height-1 {
			return 0, 0, false
		}
		return x, y + 1, true
	case sideRight:
		if x == g.width-1 {
			return 0, 0, false
		}
		return x + 1, y, true
	case sideLeft:
		if x == 0 {
			return 0, 0, false
		}
		return x - 1, y, true
	default:
		return 0, 0, false
	}
}

// Load installs bytecode into the block at (x,y) and resets its
// per-run state. Repeated loads are idempotent resets (spec.md §4.4).
func (g *Grid) Load(x, y int, bytecode []byte) {
	g.blocks[g.blockIndex(x, y)].reset(bytecode)
}

// OutputSlot exposes an attached output slot's written prefix, for
// callers observing program results (spec.md §6).
func (g *Grid) OutputSlot(t isa.Target, idx int) ([]byte, error) {
	s := sideFromTarget(t)
	if s == sideInvalid || s == sideAny {
		return nil, fmt.Errorf("grid: %s is not an edge side", t)
	}
	span := g.sideSpan(s)
	if idx < 0 || idx >= span {
		return nil, fmt.Errorf("grid: slot index %d out of range for side %s", idx, t)
	}
	slot := g.slots[g.slotOffset(s, idx)]
	if slot == nil {
		return nil, fmt.Errorf("grid: no slot attached at side %s index %d", t, idx)
	}
	return slot.Written(), nil
}
