package iso8583

import (
	"sort"

	"github.com/pkg/errors"
)

// Bitmap declares which data elements are present. It is made of one or
// more 64-bit blocks; the first bit of a block is set when another block
// follows, so bits 1, 65, 129, ... are bookkeeping and never data.
type Bitmap struct {
	blocks []uint64
}

// NewBitmap builds the smallest chained bitmap covering fields.
func NewBitmap(fields []int) (*Bitmap, error) {
	bm := &Bitmap{blocks: make([]uint64, 1)}
	for _, f := range fields {
		if err := bm.SetField(f); err != nil {
			return nil, err
		}
	}
	return bm, nil
}

// SetField sets the bit for a data element, growing the chain when needed.
func (bm *Bitmap) SetField(fieldNum int) error {
	if fieldNum < 1 || fieldNum > MaxFieldNumber {
		return errors.Wrapf(ErrInvalidBitmap, "field number %d out of range", fieldNum)
	}
	if IsReservedField(fieldNum) {
		return fieldErr(fieldNum, ErrReservedField)
	}
	block := (fieldNum - 1) / BlockBits
	for len(bm.blocks) <= block {
		bm.blocks = append(bm.blocks, 0)
	}
	bm.blocks[block] |= bitMask(fieldNum)
	bm.relink()
	return nil
}

// ClearField clears a data bit and drops trailing empty blocks.
func (bm *Bitmap) ClearField(fieldNum int) {
	if fieldNum < 1 || IsReservedField(fieldNum) {
		return
	}
	block := (fieldNum - 1) / BlockBits
	if block >= len(bm.blocks) {
		return
	}
	bm.blocks[block] &^= bitMask(fieldNum)
	for len(bm.blocks) > 1 && bm.blocks[len(bm.blocks)-1] == 0 {
		bm.blocks = bm.blocks[:len(bm.blocks)-1]
	}
	bm.relink()
}

// relink sets the continuation bit of every block except the last one.
func (bm *Bitmap) relink() {
	for i := range bm.blocks {
		if i < len(bm.blocks)-1 {
			bm.blocks[i] |= 1 << 63
		} else {
			bm.blocks[i] &^= 1 << 63
		}
	}
}

func bitMask(fieldNum int) uint64 {
	return 1 << (63 - uint((fieldNum-1)%BlockBits))
}

// IsFieldSet reports whether a data element is present. Continuation
// positions always report false.
func (bm *Bitmap) IsFieldSet(fieldNum int) bool {
	if fieldNum < 1 || IsReservedField(fieldNum) {
		return false
	}
	return bm.isBitSet(fieldNum)
}

// isBitSet reads the physical bit, bookkeeping bits included.
func (bm *Bitmap) isBitSet(fieldNum int) bool {
	block := (fieldNum - 1) / BlockBits
	if block >= len(bm.blocks) {
		return false
	}
	return bm.blocks[block]&bitMask(fieldNum) != 0
}

// HasContinuation reports whether block i (0-based) is followed by another.
func (bm *Bitmap) HasContinuation(i int) bool {
	if i < 0 || i >= len(bm.blocks) {
		return false
	}
	return bm.blocks[i]&(1<<63) != 0
}

// BlockCount returns the number of 64-bit blocks.
func (bm *Bitmap) BlockCount() int {
	return len(bm.blocks)
}

// Blocks returns a copy of the raw blocks.
func (bm *Bitmap) Blocks() []uint64 {
	out := make([]uint64, len(bm.blocks))
	copy(out, bm.blocks)
	return out
}

// GetPresentFields returns the present data elements in ascending order.
func (bm *Bitmap) GetPresentFields() []int {
	fields := make([]int, 0, 16)
	for n := 1; n <= len(bm.blocks)*BlockBits; n++ {
		if bm.IsFieldSet(n) {
			fields = append(fields, n)
		}
	}
	return fields
}

// Encode renders every block as 16 uppercase hex characters.
func (bm *Bitmap) Encode() string {
	dst := make([]byte, 0, len(bm.blocks)*BlockTextChars)
	for _, b := range bm.blocks {
		for shift := 60; shift >= 0; shift -= 4 {
			dst = append(dst, hexTableUpper[(b>>uint(shift))&0x0f])
		}
	}
	return string(dst)
}

// String returns the bitmap as binary digits, one block per group.
func (bm *Bitmap) String() string {
	out := make([]byte, 0, len(bm.blocks)*(BlockBits+1))
	for i := 1; i <= len(bm.blocks)*BlockBits; i++ {
		if bm.isBitSet(i) {
			out = append(out, '1')
		} else {
			out = append(out, '0')
		}
		if i%BlockBits == 0 && i < len(bm.blocks)*BlockBits {
			out = append(out, ' ')
		}
	}
	return string(out)
}

// ParseBitmap reads blocks from the front of *remaining for as long as the
// last block read has its continuation bit set.
func ParseBitmap(remaining *string) (*Bitmap, error) {
	bm := &Bitmap{}
	for {
		chunk, err := take(remaining, BlockTextChars)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidBitmap, "block %d truncated", len(bm.blocks)+1)
		}
		var block uint64
		for i := 0; i < BlockTextChars; i++ {
			nib, ok := hexNibble(chunk[i])
			if !ok {
				return nil, errors.Wrapf(ErrInvalidBitmap, "block %d: non-hex character %q", len(bm.blocks)+1, chunk[i])
			}
			block = block<<4 | uint64(nib)
		}
		bm.blocks = append(bm.blocks, block)
		if block&(1<<63) == 0 {
			return bm, nil
		}
		if len(bm.blocks) == MaxBitmapBlocks {
			return nil, errors.Wrapf(ErrInvalidBitmap, "more than %d chained blocks", MaxBitmapBlocks)
		}
	}
}

// sortedFields returns the keys of fields in ascending order.
func sortedFields(fields map[int]string) []int {
	keys := make([]int, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
