package nifti

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// NIfTI-1 header constants.
const (
	headerSize     = 348
	extenderSize   = 4
	dtComplex128   = 1792 // DT_COMPLEX128
	bitsComplex128 = 128
	xformScanner   = 1  // NIFTI_XFORM_SCANNER_ANAT
	unitsMMSec     = 10 // NIFTI_UNITS_MM | NIFTI_UNITS_SEC
	mrsExtCode     = 44 // NIfTI-MRS header extension ecode
	intentMRS      = "mrs_v0_2"
)

// header mirrors the 348-byte NIfTI-1 header layout. Field sizes follow the
// C reference definition; the struct is written little-endian with
// binary.Write, so the declaration order is the wire order.
type header struct {
	SizeOfHdr    int32
	DataType     [10]int8
	DBName       [18]int8
	Extents      int32
	SessionError int16
	Regular      int8
	DimInfo      int8

	Dim        [8]int16
	IntentP1   float32
	IntentP2   float32
	IntentP3   float32
	IntentCode int16
	Datatype   int16
	BitPix     int16
	SliceStart int16
	PixDim     [8]float32
	VoxOffset  float32
	SclSlope   float32
	SclInter   float32
	SliceEnd   int16
	SliceCode  int8
	XYZTUnits  int8
	CalMax     float32
	CalMin     float32
	SliceDur   float32
	TOffset    float32
	GlMax      int32
	GlMin      int32

	Descrip [80]int8
	AuxFile [24]int8

	QFormCode int16
	SFormCode int16

	QuaternB float32
	QuaternC float32
	QuaternD float32
	QOffsetX float32
	QOffsetY float32
	QOffsetZ float32

	SRowX [4]float32
	SRowY [4]float32
	SRowZ [4]float32

	IntentName [16]int8
	Magic      [4]int8
}

// Write emits the container as a single-file (.nii) little-endian NIfTI-1
// image: header, MRS JSON header extension, then the complex data in
// column-major voxel order.
func (m *MRS) Write(w io.Writer) error {
	extPayload, err := m.Ext.MarshalJSON()
	if err != nil {
		return fmt.Errorf("serializing header extension: %w", err)
	}
	// esize covers the 8-byte extension preamble and is padded to a
	// 16-byte boundary.
	esize := 8 + len(extPayload)
	if rem := esize % 16; rem != 0 {
		esize += 16 - rem
	}

	hdr, err := m.buildHeader(esize)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	// Extender flag: extensions present.
	if _, err := bw.Write([]byte{1, 0, 0, 0}); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(esize)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(mrsExtCode)); err != nil {
		return err
	}
	if _, err := bw.Write(extPayload); err != nil {
		return err
	}
	for i := 8 + len(extPayload); i < esize; i++ {
		if err := bw.WriteByte(0); err != nil {
			return err
		}
	}

	if err := m.writeData(bw); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile writes the container to path, conventionally ending in .nii.
func (m *MRS) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func (m *MRS) buildHeader(esize int) (*header, error) {
	h := &header{
		SizeOfHdr:  headerSize,
		Datatype:   dtComplex128,
		BitPix:     bitsComplex128,
		SclSlope:   1,
		XYZTUnits:  unitsMMSec,
		VoxOffset:  float32(headerSize + extenderSize + esize),
		QFormCode:  xformScanner,
		SFormCode:  xformScanner,
		Magic:      [4]int8{'n', '+', '1', 0},
	}

	shape := m.Data.Shape
	h.Dim[0] = int16(len(shape))
	for i, s := range shape {
		if s > math.MaxInt16 {
			return nil, fmt.Errorf("axis %d size %d exceeds the NIfTI dimension limit", i, s)
		}
		h.Dim[i+1] = int16(s)
	}
	for i := len(shape) + 1; i < 8; i++ {
		h.Dim[i] = 1
	}

	q := m.Orient.Quaternion()
	h.PixDim[0] = float32(q.QFac)
	h.PixDim[1] = float32(q.PixDim[0])
	h.PixDim[2] = float32(q.PixDim[1])
	h.PixDim[3] = float32(q.PixDim[2])
	h.PixDim[4] = float32(m.DwellTime)
	h.QuaternB = float32(q.B)
	h.QuaternC = float32(q.C)
	h.QuaternD = float32(q.D)
	h.QOffsetX = float32(q.Offset[0])
	h.QOffsetY = float32(q.Offset[1])
	h.QOffsetZ = float32(q.Offset[2])

	rowX := m.Orient.Row(0)
	rowY := m.Orient.Row(1)
	rowZ := m.Orient.Row(2)
	for j := 0; j < 4; j++ {
		h.SRowX[j] = float32(rowX[j])
		h.SRowY[j] = float32(rowY[j])
		h.SRowZ[j] = float32(rowZ[j])
	}

	for i := 0; i < len(intentMRS); i++ {
		h.IntentName[i] = int8(intentMRS[i])
	}
	return h, nil
}

// writeData emits the voxels in NIfTI (Fortran) order, first axis varying
// fastest, each element as a little-endian real/imaginary float64 pair.
func (m *MRS) writeData(w io.Writer) error {
	shape := m.Data.Shape
	rank := len(shape)

	// Row-major strides of the in-memory layout.
	strides := make([]int, rank)
	acc := 1
	for i := rank - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}

	idx := make([]int, rank)
	buf := make([]byte, 16)
	for n := 0; n < m.Data.Size(); n++ {
		off := 0
		for i, ix := range idx {
			off += ix * strides[i]
		}
		v := m.Data.Data[off]
		binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(imag(v)))
		if _, err := w.Write(buf); err != nil {
			return err
		}

		// Column-major increment: first axis fastest.
		for i := 0; i < rank; i++ {
			idx[i]++
			if idx[i] < shape[i] {
				break
			}
			idx[i] = 0
		}
	}
	return nil
}
