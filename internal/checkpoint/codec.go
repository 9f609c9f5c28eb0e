package checkpoint

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/born-ml/ffnet/internal/nn"
	"github.com/born-ml/ffnet/internal/tensor"
)

// Encode writes rec to w in checkpoint format.
//
// The whole file is assembled before the first write, so an encoding
// failure never produces a partial file.
func Encode(w io.Writer, rec *Record) error {
	buf, err := Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Marshal returns the encoded checkpoint for rec.
func Marshal(rec *Record) ([]byte, error) {
	if err := rec.Architecture.Validate(); err != nil {
		return nil, fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	header := Header{
		InputSize:    rec.Architecture.InputSize,
		OutputSize:   rec.Architecture.OutputSize,
		HiddenLayers: append([]int{}, rec.Architecture.HiddenSizes...),
		StateDict:    make([]TensorMeta, 0, len(rec.StateDict)),
	}

	// Calculate tensor offsets
	var dataSize int64
	for _, t := range rec.StateDict {
		if len(t.Data) != t.Shape.NumElements() {
			return nil, &nn.ShapeError{
				Name:    t.Name,
				Details: fmt.Sprintf("%d values for shape %v", len(t.Data), t.Shape),
			}
		}
		size := int64(len(t.Data)) * bytesPerElement
		header.StateDict = append(header.StateDict, TensorMeta{
			Name:   t.Name,
			DType:  DTypeFloat64,
			Shape:  []int(t.Shape.Clone()),
			Offset: dataSize,
			Size:   size,
		})
		dataSize += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	dataOffset := alignedSize(FixedHeaderSize + int64(len(headerJSON)))
	out := make([]byte, dataOffset+dataSize)

	// Tensor data
	data := out[dataOffset:]
	pos := 0
	for _, t := range rec.StateDict {
		for _, v := range t.Data {
			binary.LittleEndian.PutUint64(data[pos:], math.Float64bits(v))
			pos += bytesPerElement
		}
	}
	checksum := ComputeChecksum(data)

	// 0x00-0x03: magic bytes
	copy(out[0:4], MagicBytes)
	// 0x04-0x07: version
	binary.LittleEndian.PutUint32(out[4:8], FormatVersion)
	// 0x08-0x0F: reserved
	// 0x10-0x17: header size
	//nolint:gosec // G115: header size is bounded by MaxHeaderSize
	binary.LittleEndian.PutUint64(out[16:24], uint64(len(headerJSON)))
	// 0x18-0x1F: data size
	//nolint:gosec // G115: data size is non-negative
	binary.LittleEndian.PutUint64(out[24:32], uint64(dataSize))
	// 0x20-0x3F: SHA-256 checksum
	copy(out[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])
	// Header JSON, followed by zero padding
	copy(out[FixedHeaderSize:], headerJSON)

	return out, nil
}

// fixedHeader is the parsed 64-byte prefix of a checkpoint.
type fixedHeader struct {
	headerSize int64
	dataSize   int64
	checksum   [ChecksumSize]byte
}

func readFixedHeader(r io.Reader) (fixedHeader, error) {
	var fh fixedHeader
	raw := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return fh, fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(raw[0:4]) != MagicBytes {
		return fh, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(raw[4:8]); version != FormatVersion {
		return fh, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(raw[16:24])
	if headerSize > MaxHeaderSize {
		return fh, ErrHeaderTooLarge
	}
	dataSize := binary.LittleEndian.Uint64(raw[24:32])
	if dataSize > math.MaxInt64/2 {
		return fh, &ValidationError{Type: "invalid_data_size", Details: fmt.Sprintf("data size %d", dataSize)}
	}

	fh.headerSize = int64(headerSize)
	fh.dataSize = int64(dataSize)
	copy(fh.checksum[:], raw[ChecksumOffset:ChecksumOffset+ChecksumSize])
	return fh, nil
}

func readHeader(r io.Reader) (*Header, fixedHeader, error) {
	fh, err := readFixedHeader(r)
	if err != nil {
		return nil, fh, err
	}

	headerBytes := make([]byte, fh.headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fh, fmt.Errorf("failed to read header JSON: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fh, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	if err := ValidateHeader(&header, fh.dataSize); err != nil {
		return nil, fh, fmt.Errorf("validation failed: %w", err)
	}
	if stored := header.NumElements() * bytesPerElement; stored != fh.dataSize {
		return nil, fh, &ValidationError{
			Type:    "data_size_mismatch",
			Details: fmt.Sprintf("tensors need %d bytes, data section holds %d", stored, fh.dataSize),
		}
	}
	return &header, fh, nil
}

// DecodeHeader reads and validates the fixed header and the JSON header
// without reading tensor data.
func DecodeHeader(r io.Reader) (*Header, error) {
	header, _, err := readHeader(r)
	return header, err
}

// Decode reads a checkpoint from r, verifying magic, version, header
// layout and the data checksum.
func Decode(r io.Reader) (*Record, error) {
	header, fh, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	// Skip alignment padding
	padding := alignedSize(FixedHeaderSize+fh.headerSize) - (FixedHeaderSize + fh.headerSize)
	if _, err := io.CopyN(io.Discard, r, padding); err != nil {
		return nil, fmt.Errorf("failed to skip header padding: %w", err)
	}

	// The buffer grows with the bytes actually read, never with the
	// declared data size alone.
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, fh.dataSize); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	data := buf.Bytes()
	if err := ValidateChecksum(ComputeChecksum(data), fh.checksum); err != nil {
		return nil, err
	}

	sd := make(nn.StateDict, len(header.StateDict))
	for i, meta := range header.StateDict {
		values := make([]float64, meta.Size/bytesPerElement)
		chunk := data[meta.Offset : meta.Offset+meta.Size]
		for j := range values {
			values[j] = math.Float64frombits(binary.LittleEndian.Uint64(chunk[j*bytesPerElement:]))
		}
		sd[i] = nn.Tensor{
			Name:  meta.Name,
			Shape: tensor.Shape(meta.Shape).Clone(),
			Data:  values,
		}
	}

	return &Record{Architecture: header.Architecture(), StateDict: sd}, nil
}
