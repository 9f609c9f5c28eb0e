package checkpoint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/ffnet/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 16 * 1024 * 1024 // 16MB - maximum header size
	MaxTensorCount   = 10_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 256              // Maximum tensor name length
)

// ValidateTensorOffsets checks for overlapping tensor offsets and out-of-bounds access.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	// Sort tensors by offset for efficient overlap detection.
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
			}
		}

		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName rejects empty, oversized and path-like names.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains '..'",
		}
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains a path separator or null byte",
		}
	}
	return nil
}

// elementCount multiplies the dimensions of shape, giving up as soon as
// the product would exceed limit. Dimensions must already be positive.
func elementCount(shape tensor.Shape, limit int64) (int64, bool) {
	n := int64(1)
	for _, dim := range shape {
		if n > limit/int64(dim) {
			return 0, false
		}
		n *= int64(dim)
	}
	return n, true
}

// ValidateHeader checks a decoded header against the size of its data
// section: names, dtypes, shape/size agreement and offsets.
func ValidateHeader(h *Header, dataSize int64) error {
	if len(h.StateDict) == 0 {
		return &ValidationError{Type: "empty_state_dict", Details: "checkpoint holds no tensors"}
	}
	if len(h.StateDict) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.StateDict), MaxTensorCount),
		}
	}

	seen := make(map[string]struct{}, len(h.StateDict))
	for _, t := range h.StateDict {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if _, dup := seen[t.Name]; dup {
			return &ValidationError{Type: "duplicate_name", Tensor: t.Name, Details: "name appears twice"}
		}
		seen[t.Name] = struct{}{}

		if t.DType != DTypeFloat64 {
			return &ValidationError{
				Type:    "unsupported_dtype",
				Tensor:  t.Name,
				Details: fmt.Sprintf("got %q, want %q", t.DType, DTypeFloat64),
			}
		}
		shape := tensor.Shape(t.Shape)
		if err := shape.Validate(); err != nil {
			return &ValidationError{Type: "invalid_shape", Tensor: t.Name, Details: err.Error()}
		}
		count, ok := elementCount(shape, dataSize/bytesPerElement)
		if !ok {
			return &ValidationError{
				Type:    "shape_too_large",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v exceeds the %d-byte data section", shape, dataSize),
			}
		}
		if want := count * bytesPerElement; t.Size != want {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", shape, want, t.Size),
			}
		}
	}

	return ValidateTensorOffsets(h.StateDict, dataSize)
}
