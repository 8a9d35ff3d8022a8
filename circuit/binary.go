package circuit

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"os"
)

// The binary circuit container: little-endian, a fixed magic and version,
// then typed sections. Section order is not fixed; the header must appear
// before the constraint and label sections are interpreted.
const (
	r1csMagic   = 0x73633172 // "r1cs"
	r1csVersion = 1

	sectionHeader      = 1
	sectionConstraints = 2
	sectionWireLabels  = 3
)

type binHeader struct {
	fieldSize    uint32
	nWires       uint32
	nPubOut      uint32
	nPubIn       uint32
	nPrvIn       uint32
	nLabels      uint64
	nConstraints uint32
}

func loadBinary(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening circuit file %s: %v", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("error reading circuit file %s: %v", path, err)
	}
	desc, err := readBinary(bufio.NewReader(f), fi.Size())
	if err != nil {
		return nil, fmt.Errorf("error parsing circuit file %s: %v", path, err)
	}
	return desc, nil
}

func readBinary(r io.Reader, size int64) (*Descriptor, error) {
	var magic, version, nSections uint32
	for _, v := range []*uint32{&magic, &version, &nSections} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("truncated preamble: %v", err)
		}
	}
	if magic != r1csMagic {
		return nil, fmt.Errorf("bad magic 0x%08x, not an r1cs file", magic)
	}
	if version != r1csVersion {
		return nil, fmt.Errorf("unsupported r1cs version %d", version)
	}

	var (
		hdr             *binHeader
		constraintsBlob []byte
		labelsBlob      []byte
	)
	remaining := size - 12 // preamble
	for i := uint32(0); i < nSections; i++ {
		var sType uint32
		var sSize uint64
		if err := binary.Read(r, binary.LittleEndian, &sType); err != nil {
			return nil, fmt.Errorf("section %d: %v", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &sSize); err != nil {
			return nil, fmt.Errorf("section %d: %v", i, err)
		}
		// the declared size comes from the file; bound it by what is
		// actually left before allocating
		remaining -= 12
		if remaining < 0 || sSize > uint64(remaining) {
			return nil, fmt.Errorf("section %d claims %d bytes, file has %d left",
				i, sSize, max(remaining, 0))
		}
		remaining -= int64(sSize)
		body := make([]byte, sSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("section %d truncated: %v", i, err)
		}
		switch sType {
		case sectionHeader:
			h, err := parseHeader(body)
			if err != nil {
				return nil, err
			}
			hdr = h
		case sectionConstraints:
			constraintsBlob = body
		case sectionWireLabels:
			labelsBlob = body
		default:
			// unknown sections are skipped, matching the container spec
		}
	}
	if hdr == nil {
		return nil, fmt.Errorf("missing header section")
	}

	desc := &Descriptor{
		NVars:      int(hdr.nWires),
		NPubInputs: int(hdr.nPubIn),
		NOutputs:   int(hdr.nPubOut),
		NPrvInputs: int(hdr.nPrvIn),
		Format:     FormatBinary,
	}
	if constraintsBlob == nil {
		return nil, fmt.Errorf("missing constraint section")
	}
	desc.Constraints = make([]Constraint, 0, hdr.nConstraints)
	cr := &sliceReader{buf: constraintsBlob}
	for i := uint32(0); i < hdr.nConstraints; i++ {
		var cs Constraint
		var err error
		if cs.A, err = readLC(cr, hdr.fieldSize); err != nil {
			return nil, fmt.Errorf("constraint %d: %v", i, err)
		}
		if cs.B, err = readLC(cr, hdr.fieldSize); err != nil {
			return nil, fmt.Errorf("constraint %d: %v", i, err)
		}
		if cs.C, err = readLC(cr, hdr.fieldSize); err != nil {
			return nil, fmt.Errorf("constraint %d: %v", i, err)
		}
		desc.Constraints = append(desc.Constraints, cs)
	}
	if labelsBlob != nil {
		if uint64(len(labelsBlob)) != uint64(hdr.nWires)*8 {
			return nil, fmt.Errorf("wire label section has %d bytes, want %d",
				len(labelsBlob), hdr.nWires*8)
		}
		desc.WireLabels = make([]uint64, hdr.nWires)
		for i := range desc.WireLabels {
			desc.WireLabels[i] = binary.LittleEndian.Uint64(labelsBlob[i*8:])
		}
	}
	return desc, nil
}

func parseHeader(body []byte) (*binHeader, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("header section too short")
	}
	h := &binHeader{fieldSize: binary.LittleEndian.Uint32(body)}
	if h.fieldSize == 0 || h.fieldSize%8 != 0 {
		return nil, fmt.Errorf("bad field size %d", h.fieldSize)
	}
	want := 4 + int(h.fieldSize) + 4*4 + 8 + 4
	if len(body) < want {
		return nil, fmt.Errorf("header section has %d bytes, want %d", len(body), want)
	}
	// the field prime follows the field size; the engine fixes the curve,
	// so it is not interpreted here
	off := 4 + int(h.fieldSize)
	h.nWires = binary.LittleEndian.Uint32(body[off:])
	h.nPubOut = binary.LittleEndian.Uint32(body[off+4:])
	h.nPubIn = binary.LittleEndian.Uint32(body[off+8:])
	h.nPrvIn = binary.LittleEndian.Uint32(body[off+12:])
	h.nLabels = binary.LittleEndian.Uint64(body[off+16:])
	h.nConstraints = binary.LittleEndian.Uint32(body[off+24:])
	return h, nil
}

func readLC(r *sliceReader, fieldSize uint32) (LinearCombination, error) {
	nTerms, err := r.uint32()
	if err != nil {
		return nil, err
	}
	lc := make(LinearCombination, nTerms)
	for i := range lc {
		wire, err := r.uint32()
		if err != nil {
			return nil, err
		}
		coeff, err := r.bytes(int(fieldSize))
		if err != nil {
			return nil, err
		}
		lc[i] = Term{Wire: int(wire), Coeff: leBigInt(coeff)}
	}
	return lc, nil
}

// leBigInt interprets little-endian field bytes as a big.Int.
func leBigInt(le []byte) *big.Int {
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

type sliceReader struct {
	buf []byte
	off int
}

func (r *sliceReader) uint32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, fmt.Errorf("truncated constraint section")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *sliceReader) bytes(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, fmt.Errorf("truncated constraint section")
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}
