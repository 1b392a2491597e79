package models

import (
	"fmt"
)

// CArray is a rank-n complex-valued array stored as a flat slice in
// row-major order (the last axis varies fastest). All conversion stages
// operate on CArray values: adapters produce them, the dimension resolver
// permutes them and the assembler reshapes and slices them.
type CArray struct {
	// Data is the flat backing slice, len(Data) == product(Shape).
	Data []complex128

	// Shape holds the size of each axis, outermost first.
	Shape []int
}

// NewCArray allocates a zero-filled array with the given shape. Every axis
// size must be positive.
func NewCArray(shape ...int) (*CArray, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("invalid axis size %d in shape %v", s, shape)
		}
		n *= s
	}
	return &CArray{
		Data:  make([]complex128, n),
		Shape: append([]int(nil), shape...),
	}, nil
}

// FromComplex wraps an existing flat slice with a shape. The slice is not
// copied; the caller must not alias it afterwards.
func FromComplex(data []complex128, shape ...int) (*CArray, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("invalid axis size %d in shape %v", s, shape)
		}
		n *= s
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, have %d", shape, n, len(data))
	}
	return &CArray{Data: data, Shape: append([]int(nil), shape...)}, nil
}

// Rank returns the number of axes.
func (a *CArray) Rank() int { return len(a.Shape) }

// Size returns the total element count.
func (a *CArray) Size() int { return len(a.Data) }

// strides returns the row-major stride of each axis.
func (a *CArray) strides() []int {
	st := make([]int, len(a.Shape))
	acc := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= a.Shape[i]
	}
	return st
}

// offset converts a multi-index to a flat offset.
func (a *CArray) offset(idx []int) (int, error) {
	if len(idx) != len(a.Shape) {
		return 0, fmt.Errorf("index rank %d does not match array rank %d", len(idx), len(a.Shape))
	}
	off := 0
	st := a.strides()
	for i, ix := range idx {
		if ix < 0 || ix >= a.Shape[i] {
			return 0, fmt.Errorf("index %d out of range for axis %d (size %d)", ix, i, a.Shape[i])
		}
		off += ix * st[i]
	}
	return off, nil
}

// At returns the element at the given multi-index.
func (a *CArray) At(idx ...int) (complex128, error) {
	off, err := a.offset(idx)
	if err != nil {
		return 0, err
	}
	return a.Data[off], nil
}

// Set stores v at the given multi-index.
func (a *CArray) Set(v complex128, idx ...int) error {
	off, err := a.offset(idx)
	if err != nil {
		return err
	}
	a.Data[off] = v
	return nil
}

// Conj returns a new array holding the complex conjugate of every element.
// Used by adapters whose source phase convention is conjugated relative to
// the output format.
func (a *CArray) Conj() *CArray {
	out := &CArray{
		Data:  make([]complex128, len(a.Data)),
		Shape: append([]int(nil), a.Shape...),
	}
	for i, v := range a.Data {
		out.Data[i] = complex(real(v), -imag(v))
	}
	return out
}

// Reshape returns a view of the array with a new shape of equal total size.
// The backing slice is shared.
func (a *CArray) Reshape(shape ...int) (*CArray, error) {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, fmt.Errorf("invalid axis size %d in shape %v", s, shape)
		}
		n *= s
	}
	if n != len(a.Data) {
		return nil, fmt.Errorf("cannot reshape %v (%d elements) to %v (%d elements)",
			a.Shape, len(a.Data), shape, n)
	}
	return &CArray{Data: a.Data, Shape: append([]int(nil), shape...)}, nil
}

// PadLeadingAxes returns a view with n singleton axes prepended, used to
// give spectroscopy data its three singleton spatial axes.
func (a *CArray) PadLeadingAxes(n int) (*CArray, error) {
	shape := make([]int, 0, n+len(a.Shape))
	for i := 0; i < n; i++ {
		shape = append(shape, 1)
	}
	shape = append(shape, a.Shape...)
	return a.Reshape(shape...)
}

// Transpose returns a new contiguous array with axes permuted so that output
// axis i is source axis perm[i]. perm must be a permutation of 0..rank-1.
func (a *CArray) Transpose(perm []int) (*CArray, error) {
	if len(perm) != len(a.Shape) {
		return nil, fmt.Errorf("permutation length %d does not match rank %d", len(perm), len(a.Shape))
	}
	seen := make([]bool, len(perm))
	for _, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return nil, fmt.Errorf("invalid axis permutation %v", perm)
		}
		seen[p] = true
	}

	outShape := make([]int, len(perm))
	for i, p := range perm {
		outShape[i] = a.Shape[p]
	}
	out := &CArray{
		Data:  make([]complex128, len(a.Data)),
		Shape: outShape,
	}

	srcStrides := a.strides()
	// Stride of each output axis within the source layout.
	permStrides := make([]int, len(perm))
	for i, p := range perm {
		permStrides[i] = srcStrides[p]
	}

	idx := make([]int, len(outShape))
	for flat := range out.Data {
		src := 0
		for i, ix := range idx {
			src += ix * permStrides[i]
		}
		out.Data[flat] = a.Data[src]
		incrementIndex(idx, outShape)
	}
	return out, nil
}

// SliceTrailing returns a new contiguous array with the trailing len(fixed)
// axes fixed at the given indices. The result keeps the leading
// rank-len(fixed) axes intact.
func (a *CArray) SliceTrailing(fixed []int) (*CArray, error) {
	keep := len(a.Shape) - len(fixed)
	if keep < 0 {
		return nil, fmt.Errorf("cannot fix %d axes of a rank-%d array", len(fixed), len(a.Shape))
	}
	st := a.strides()
	base := 0
	for i, ix := range fixed {
		axis := keep + i
		if ix < 0 || ix >= a.Shape[axis] {
			return nil, fmt.Errorf("index %d out of range for axis %d (size %d)", ix, axis, a.Shape[axis])
		}
		base += ix * st[axis]
	}

	outShape := append([]int(nil), a.Shape[:keep]...)
	n := 1
	for _, s := range outShape {
		n *= s
	}
	out := &CArray{Data: make([]complex128, n), Shape: outShape}

	idx := make([]int, keep)
	for flat := range out.Data {
		src := base
		for i, ix := range idx {
			src += ix * st[i]
		}
		out.Data[flat] = a.Data[src]
		incrementIndex(idx, outShape)
	}
	return out, nil
}

// IndexIterator walks every multi-index of a shape in row-major order, the
// same enumeration order the assembler uses for sliced outputs.
type IndexIterator struct {
	shape []int
	idx   []int
	done  bool
}

// NewIndexIterator returns an iterator over the given shape. An empty shape
// yields exactly one (empty) index, matching the convention for rank-0
// iteration.
func NewIndexIterator(shape []int) *IndexIterator {
	it := &IndexIterator{
		shape: append([]int(nil), shape...),
		idx:   make([]int, len(shape)),
	}
	for _, s := range shape {
		if s <= 0 {
			it.done = true
		}
	}
	return it
}

// Next returns the next multi-index, or nil when exhausted.
func (it *IndexIterator) Next() []int {
	if it.done {
		return nil
	}
	out := make([]int, len(it.idx))
	copy(out, it.idx)
	if incrementIndex(it.idx, it.shape) {
		it.done = true
	}
	return out
}

// incrementIndex advances idx by one in row-major order and reports whether
// it wrapped back to zero.
func incrementIndex(idx, shape []int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return false
		}
		idx[i] = 0
	}
	return true
}
