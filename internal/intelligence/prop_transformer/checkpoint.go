package prop_transformer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/x448/float16"

	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// safetensors
// ---------------------------------------------------------------------------

// DType is a safetensors element type.
type DType string

const (
	DTypeF64  DType = "F64"
	DTypeF32  DType = "F32"
	DTypeF16  DType = "F16"
	DTypeBF16 DType = "BF16"
)

func (d DType) size() int {
	switch d {
	case DTypeF64:
		return 8
	case DTypeF32:
		return 4
	case DTypeF16, DTypeBF16:
		return 2
	}
	return 0
}

// maxHeaderSize bounds the JSON header; real checkpoints stay far below it.
const maxHeaderSize = 100 << 20

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type tensorInfo struct {
	DType   DType    `json:"dtype"`
	Shape   []int    `json:"shape"`
	Offsets [2]int64 `json:"data_offsets"`
}

// Checkpoint is a decoded weight file.
type Checkpoint struct {
	Weights  Weights
	Metadata map[string]string
}

// ReadCheckpoint decodes a safetensors stream, transparently decompressing
// zstd-framed input. All float types are widened to float64.
func ReadCheckpoint(r io.Reader) (*Checkpoint, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(zstdMagic))
	var src io.Reader = br
	if bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeArtifactInvalid, "open zstd checkpoint")
		}
		defer dec.Close()
		src = dec
	}
	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactInvalid, "read checkpoint")
	}
	return DecodeCheckpoint(buf)
}

// DecodeCheckpoint parses an in-memory safetensors buffer.
func DecodeCheckpoint(buf []byte) (*Checkpoint, error) {
	if len(buf) < 8 {
		return nil, artifactErr("checkpoint shorter than its header length")
	}
	n := binary.LittleEndian.Uint64(buf[:8])
	if n > maxHeaderSize || uint64(len(buf)-8) < n {
		return nil, artifactErr(fmt.Sprintf("checkpoint header length %d is invalid", n))
	}
	header := buf[8 : 8+n]
	data := buf[8+n:]

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(header, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactInvalid, "decode checkpoint header")
	}

	ckpt := &Checkpoint{Weights: make(Weights, len(raw)), Metadata: map[string]string{}}
	for name, msg := range raw {
		if name == "__metadata__" {
			if err := json.Unmarshal(msg, &ckpt.Metadata); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeArtifactInvalid, "decode checkpoint metadata")
			}
			continue
		}
		var info tensorInfo
		if err := json.Unmarshal(msg, &info); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeArtifactInvalid, "decode tensor %s", name)
		}
		t, err := decodeTensor(name, info, data)
		if err != nil {
			return nil, err
		}
		ckpt.Weights[name] = t
	}
	return ckpt, nil
}

func decodeTensor(name string, info tensorInfo, data []byte) (*Tensor, error) {
	size := info.DType.size()
	if size == 0 {
		return nil, artifactErr(fmt.Sprintf("tensor %s: unsupported dtype %q", name, info.DType))
	}
	begin, end := info.Offsets[0], info.Offsets[1]
	if begin < 0 || end < begin || end > int64(len(data)) {
		return nil, artifactErr(fmt.Sprintf("tensor %s: offsets [%d,%d] outside data of %d bytes", name, begin, end, len(data)))
	}
	count := 1
	for _, d := range info.Shape {
		count *= d
	}
	if int64(count*size) != end-begin {
		return nil, artifactErr(fmt.Sprintf("tensor %s: shape %v needs %d bytes, span is %d", name, info.Shape, count*size, end-begin))
	}

	raw := data[begin:end]
	values := make([]float64, count)
	for i := range values {
		chunk := raw[i*size : (i+1)*size]
		switch info.DType {
		case DTypeF64:
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(chunk))
		case DTypeF32:
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk)))
		case DTypeF16:
			values[i] = float64(float16.Frombits(binary.LittleEndian.Uint16(chunk)).Float32())
		case DTypeBF16:
			values[i] = float64(math.Float32frombits(uint32(binary.LittleEndian.Uint16(chunk)) << 16))
		}
	}
	return NewTensor(info.Shape, values)
}

// WriteCheckpoint encodes weights as safetensors with the given dtype
// (F32 or F64). Tensors are laid out in sorted name order and the header is
// padded to an 8-byte boundary.
func WriteCheckpoint(w io.Writer, weights Weights, metadata map[string]string, dtype DType) error {
	if dtype != DTypeF32 && dtype != DTypeF64 {
		return fmt.Errorf("checkpoint: cannot write dtype %q", dtype)
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]interface{}, len(names)+1)
	if len(metadata) > 0 {
		header["__metadata__"] = metadata
	}
	var offset int64
	size := int64(dtype.size())
	for _, name := range names {
		t := weights[name]
		n := int64(len(t.Data)) * size
		header[name] = tensorInfo{DType: dtype, Shape: t.Shape, Offsets: [2]int64{offset, offset + n}}
		offset += n
	}
	hdr, err := json.Marshal(header)
	if err != nil {
		return err
	}
	if pad := len(hdr) % 8; pad != 0 {
		hdr = append(hdr, bytes.Repeat([]byte(" "), 8-pad)...)
	}

	bw := bufio.NewWriter(w)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(hdr)))
	if _, err := bw.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := bw.Write(hdr); err != nil {
		return err
	}
	var scratch [8]byte
	for _, name := range names {
		for _, v := range weights[name].Data {
			if dtype == DTypeF64 {
				binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v))
				_, err = bw.Write(scratch[:8])
			} else {
				binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(float32(v)))
				_, err = bw.Write(scratch[:4])
			}
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteCompressedCheckpoint is WriteCheckpoint wrapped in a zstd frame.
func WriteCompressedCheckpoint(w io.Writer, weights Weights, metadata map[string]string, dtype DType) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := WriteCheckpoint(enc, weights, metadata, dtype); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

//Personal.AI order the ending
