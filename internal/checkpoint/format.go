package checkpoint

import (
	"github.com/born-ml/ffnet/internal/nn"
)

// Format constants.
const (
	MagicBytes      = "FFCK"
	FormatVersion   = 1
	HeaderAlignment = 64   // Tensor data starts on a 64-byte boundary
	FixedHeaderSize = 64   // Fixed binary header (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// DTypeFloat64 is the only element type a checkpoint stores.
const DTypeFloat64 = "float64"

// bytesPerElement is the encoded size of one float64.
const bytesPerElement = 8

// Header is the JSON header of a checkpoint file.
type Header struct {
	InputSize    int          `json:"input_size"`    // Number of input features
	OutputSize   int          `json:"output_size"`   // Number of classes
	HiddenLayers []int        `json:"hidden_layers"` // Hidden layer widths, in order
	StateDict    []TensorMeta `json:"state_dict"`    // Parameter metadata, in order
}

// TensorMeta describes one parameter buffer in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Parameter name (e.g., "hidden_layers.0.weight")
	DType  string `json:"dtype"`  // Always "float64"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section (bytes from start of tensor data)
	Size   int64  `json:"size"`   // Size in bytes
}

// Architecture returns the architecture descriptor stored in the header.
func (h *Header) Architecture() nn.Architecture {
	return nn.Architecture{
		InputSize:   h.InputSize,
		OutputSize:  h.OutputSize,
		HiddenSizes: append([]int(nil), h.HiddenLayers...),
	}
}

// NumElements returns the total number of stored scalars.
func (h *Header) NumElements() int64 {
	var n int64
	for _, t := range h.StateDict {
		n += t.Size / bytesPerElement
	}
	return n
}

// alignedSize returns n rounded up to the next multiple of HeaderAlignment.
func alignedSize(n int64) int64 {
	return n + (HeaderAlignment-(n%HeaderAlignment))%HeaderAlignment
}
