// Package asm implements the two-pass TIS-100-family assembler:
// tokenizer, label resolution, and bytecode + line-table emission
// (spec.md §4.1, §4.2).
package asm

import (
	"fmt"

	"tisvm/isa"
)

// AssembleError is a fatal assembly failure tagged with its source
// line (spec.md §4.2, §7).
type AssembleError struct {
	Line    int
	Message string
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// maxBytecodeLen mirrors the 8-bit running-length counter of spec.md
// §4.2: exceeding it is fatal.
const maxBytecodeLen = 255

// Result is everything an assembled program produces: the bytecode
// itself and a parallel per-byte line table for debug object files.
type Result struct {
	Bytecode  []byte
	LineTable []uint16
}

// Assemble runs the tokenizer and both assembler passes over source.
// warn receives non-fatal diagnostics; it may be nil. The returned
// token stream is always populated with whatever was lexed, even on
// failure, so callers can dump it for diagnostics (spec.md §6).
func Assemble(source string, warn WarnFunc) (Result, []Token, error) {
	if warn == nil {
		warn = func(int, string, ...any) {}
	}

	lexer := NewLexer(source, warn)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return Result{}, tokens, err
	}

	reclassified := reclassify(tokens)
	items, err := parseStatements(reclassified)
	if err != nil {
		return Result{}, tokens, err
	}

	labels, err := sizeItems(items)
	if err != nil {
		return Result{}, tokens, err
	}

	bytecode, lineTable, err := emitItems(items, labels, warn)
	if err != nil {
		return Result{}, tokens, err
	}

	for _, u := range labels.Unused() {
		warn(u.Line, "label %q defined but never used", u.Name)
	}

	return Result{Bytecode: bytecode, LineTable: lineTable}, tokens, nil
}

// sizeItems is pass 1: it walks items computing each statement's byte
// cost and recording label addresses, fatally rejecting a program that
// would exceed the 8-bit bytecode length (spec.md §4.2).
func sizeItems(items []item) (*LabelTable, error) {
	labels := &LabelTable{}
	offset := 0

	for _, it := range items {
		if it.kind == itemLabelDef {
			labels.Define(it.labelName, uint8(offset), it.line)
			continue
		}

		offset += it.size()
		if offset > maxBytecodeLen {
			return nil, &AssembleError{Line: it.line, Message: fmt.Sprintf("program exceeds %d bytes", maxBytecodeLen)}
		}
	}

	return labels, nil
}

// emitItems is pass 2: it resolves label references against the table
// pass 1 built and emits bytecode bytes with a parallel line-table
// entry per byte (spec.md §4.2).
func emitItems(items []item, labels *LabelTable, warn WarnFunc) ([]byte, []uint16, error) {
	var bytecode []byte
	var lineTable []uint16

	emit := func(b byte, line int) {
		bytecode = append(bytecode, b)
		lineTable = append(lineTable, uint16(line))
	}

	for _, it := range items {
		switch it.kind {
		case itemLabelDef:
			continue

		case itemInstruction:
			if err := emitInstruction(it, labels, warn, emit); err != nil {
				return nil, nil, err
			}

		case itemDirectiveString:
			for _, c := range []byte(it.text) {
				emit(c, it.line)
			}
			emit(0, it.line)

		case itemDirectiveArray:
			for i, n := range it.numbers {
				line := it.line
				if i < len(it.numberLines) {
					line = it.numberLines[i]
				}
				emit(truncateByte(n, line, warn), line)
			}
		}
	}

	return bytecode, lineTable, nil
}

func emitInstruction(it item, labels *LabelTable, warn WarnFunc, emit func(byte, int)) error {
	switch it.operandKind {
	case operandNone:
		emit(byte(isa.Pack(it.opcode, isa.Stk)), it.line)

	case operandTarget:
		emit(byte(isa.Pack(it.opcode, it.target)), it.line)

	case operandNumber:
		emit(byte(isa.Pack(it.opcode, isa.Adj)), it.line)
		emit(truncateByte(it.number, it.line, warn), it.line)

	case operandChar:
		emit(byte(isa.Pack(it.opcode, isa.Adj)), it.line)
		emit(it.char, it.line)

	case operandLabel:
		addr, ok := labels.Resolve(it.labelRef)
		if !ok {
			return &AssembleError{Line: it.line, Message: fmt.Sprintf("undefined label %q", it.labelRef)}
		}
		emit(byte(isa.Pack(it.opcode, isa.Adj)), it.line)
		emit(addr, it.line)
	}
	return nil
}

// truncateByte narrows a parsed NUMBER to 8 bits, warning when the
// source value didn't fit (spec.md §4.2, §7).
func truncateByte(n uint64, line int, warn WarnFunc) byte {
	if n > 255 {
		warn(line, "value %d out of byte range, truncated to %d", n, byte(n))
	}
	return byte(n)
}
