package asm

// labelEntry is a single row of the assembler-internal label table
// (spec.md §3): name, resolved address, the line it was defined on, and
// whether any instruction has referenced it.
type labelEntry struct {
	Name    string
	Address uint8
	DefLine int
	Used    bool
}

// LabelTable is an ordered list of label definitions. Lookup is linear,
// per spec.md §3 ("Lookup is linear").
type LabelTable struct {
	entries []*labelEntry
}

// Define records a label at the given address. Per spec.md §4.2,
// duplicate definitions after the first are ignored silently.
func (lt *LabelTable) Define(name string, address uint8, line int) {
	if _, ok := lt.lookup(name); ok {
		return
	}
	lt.entries = append(lt.entries, &labelEntry{Name: name, Address: address, DefLine: line})
}

func (lt *LabelTable) lookup(name string) (*labelEntry, bool) {
	for _, e := range lt.entries {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// Resolve looks up a label's address and marks it used.
func (lt *LabelTable) Resolve(name string) (uint8, bool) {
	e, ok := lt.lookup(name)
	if !ok {
		return 0, false
	}
	e.Used = true
	return e.Address, true
}

// Unused returns the labels that were defined but never referenced, in
// definition order, for the "unused label" warning (spec.md §4.2, §7).
func (lt *LabelTable) Unused() []struct {
	Name string
	Line int
} {
	var out []struct {
		Name string
		Line int
	}
	for _, e := range lt.entries {
		if !e.Used {
			out = append(out, struct {
				Name string
				Line int
			}{e.Name, e.DefLine})
		}
	}
	return out
}
