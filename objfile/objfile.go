// Package objfile reads and writes the grid VM's object file container:
// a tagged byte stream holding either raw bytecode or bytecode paired
// with its original source and a per-byte line table.
package objfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic tag bytes selecting the on-disk layout.
const (
	MagicRaw   byte = 0xBC
	MagicDebug byte = 0xDB
)

// Size caps mirrored from spec.md §3.
const (
	MaxSourceBytes   = 4096
	MaxBytecodeBytes = 255
)

var (
	// ErrBytecodeTooLarge is returned by Write when bytecode exceeds MaxBytecodeBytes.
	ErrBytecodeTooLarge = errors.New("objfile: bytecode exceeds 255 bytes")
	// ErrSourceTooLarge is returned by Write when source exceeds MaxSourceBytes.
	ErrSourceTooLarge = errors.New("objfile: source exceeds 4096 bytes")
	// ErrShortRead is returned by Read when the stream ends before a
	// length-prefixed field is fully consumed.
	ErrShortRead = errors.New("objfile: short read")
)

// File is the decoded contents of an object file: always a bytecode
// slice, and optionally the source text and line table that produced
// it.
type File struct {
	Bytecode  []byte
	HasDebug  bool
	Source    string
	LineTable []uint16 // one entry per bytecode byte, only when HasDebug
}

// Write encodes f to w. When f.HasDebug is false (or Source is empty),
// the raw 0xBC layout is written; otherwise the 0xDB debug layout is
// written, embedding Source and LineTable alongside the bytecode.
func Write(w io.Writer, f File) error {
	if len(f.Bytecode) > MaxBytecodeBytes {
		return ErrBytecodeTooLarge
	}

	bw := bufio.NewWriter(w)

	if !f.HasDebug || f.Source == "" {
		if _, err := bw.Write([]byte{MagicRaw, byte(len(f.Bytecode))}); err != nil {
			return err
		}
		if _, err := bw.Write(f.Bytecode); err != nil {
			return err
		}
		return bw.Flush()
	}

	if len(f.Source) > MaxSourceBytes {
		return ErrSourceTooLarge
	}

	if err := bw.WriteByte(MagicDebug); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint16(len(f.Source))); err != nil {
		return err
	}
	if _, err := bw.WriteString(f.Source); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(len(f.Bytecode))); err != nil {
		return err
	}
	if _, err := bw.Write(f.Bytecode); err != nil {
		return err
	}

	lineTable := f.LineTable
	if lineTable == nil {
		lineTable = make([]uint16, len(f.Bytecode))
	}
	for i := 0; i < len(f.Bytecode); i++ {
		var line uint16
		if i < len(lineTable) {
			line = lineTable[i]
		}
		if err := binary.Write(bw, binary.BigEndian, line); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Read decodes an object file from r. An unrecognized first byte is
// handled by the legacy-recovery rule from spec.md §4.3 / §7: that byte
// is treated as a raw bytecode length and the remainder of the stream is
// read as bytecode.
func Read(r io.Reader) (File, error) {
	br := bufio.NewReader(r)

	tag, err := br.ReadByte()
	if err != nil {
		return File{}, fmt.Errorf("objfile: reading tag: %w", wrapShortRead(err))
	}

	switch tag {
	case MagicRaw:
		return readRaw(br)
	case MagicDebug:
		return readDebug(br)
	default:
		return readLegacy(br, tag)
	}
}

func readRaw(br *bufio.Reader) (File, error) {
	length, err := br.ReadByte()
	if err != nil {
		return File{}, fmt.Errorf("objfile: reading bytecode length: %w", wrapShortRead(err))
	}
	bytecode := make([]byte, length)
	if _, err := io.ReadFull(br, bytecode); err != nil {
		return File{}, fmt.Errorf("objfile: reading bytecode: %w", wrapShortRead(err))
	}
	return File{Bytecode: bytecode}, nil
}

func readDebug(br *bufio.Reader) (File, error) {
	var sourceLen uint16
	if err := binary.Read(br, binary.BigEndian, &sourceLen); err != nil {
		return File{}, fmt.Errorf("objfile: reading source length: %w", wrapShortRead(err))
	}
	if sourceLen > MaxSourceBytes {
		return File{}, ErrSourceTooLarge
	}
	sourceBytes := make([]byte, sourceLen)
	if _, err := io.ReadFull(br, sourceBytes); err != nil {
		return File{}, fmt.Errorf("objfile: reading source: %w", wrapShortRead(err))
	}

	length, err := br.ReadByte()
	if err != nil {
		return File{}, fmt.Errorf("objfile: reading bytecode length: %w", wrapShortRead(err))
	}
	bytecode := make([]byte, length)
	if _, err := io.ReadFull(br, bytecode); err != nil {
		return File{}, fmt.Errorf("objfile: reading bytecode: %w", wrapShortRead(err))
	}

	lineTable := make([]uint16, length)
	for i := range lineTable {
		if err := binary.Read(br, binary.BigEndian, &lineTable[i]); err != nil {
			return File{}, fmt.Errorf("objfile: reading line table: %w", wrapShortRead(err))
		}
	}

	return File{
		Bytecode:  bytecode,
		HasDebug:  true,
		Source:    string(sourceBytes),
		LineTable: lineTable,
	}, nil
}

// readLegacy recovers from an unrecognized tag byte by treating it as
// the bytecode length of a headerless raw stream (mirrors the C
// reference's rewind-and-reread-as-length-byte fallback).
func readLegacy(br *bufio.Reader, lengthByte byte) (File, error) {
	bytecode := make([]byte, lengthByte)
	if _, err := io.ReadFull(br, bytecode); err != nil {
		return File{}, fmt.Errorf("objfile: reading legacy bytecode: %w", wrapShortRead(err))
	}
	return File{Bytecode: bytecode}, nil
}

func wrapShortRead(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrShortRead
	}
	return err
}

// SourceLine returns the source line number recorded for the
// instruction at bytecode offset instructionIndex, or 0 when the file
// carries no debug info or the index is out of range. Supplements
// spec.md's wire-format description with the typed accessor
// original_source/include/objfile.h exposes as objfile_get_source_line.
func (f File) SourceLine(instructionIndex int) int {
	if !f.HasDebug || instructionIndex < 0 || instructionIndex >= len(f.LineTable) {
		return 0
	}
	return int(f.LineTable[instructionIndex])
}
