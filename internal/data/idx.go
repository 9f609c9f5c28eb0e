package data

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// IDX magic numbers for unsigned byte payloads.
const (
	idxImagesMagic = 0x00000803 // 3 dimensions: count, rows, cols
	idxLabelsMagic = 0x00000801 // 1 dimension: count
)

// FashionMNISTClasses names the ten Fashion-MNIST categories by label.
var FashionMNISTClasses = []string{
	"T-shirt/top", "Trouser", "Pullover", "Dress", "Coat",
	"Sandal", "Shirt", "Sneaker", "Bag", "Ankle boot",
}

// ReadIDXImages reads an IDX image file.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
//
// Returns one row per image, pixels scaled to [0, 1]. At most maxSamples
// images are read (0 = all).
func ReadIDXImages(r io.Reader, maxSamples int) (*mat.Dense, error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != idxImagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header[0], idxImagesMagic)
	}

	numImages := int(header[1])
	imageSize := int(header[2] * header[3])
	if imageSize == 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", header[2], header[3])
	}
	if maxSamples > 0 && numImages > maxSamples {
		numImages = maxSamples
	}
	if numImages == 0 {
		return nil, fmt.Errorf("file contains no images")
	}

	images := mat.NewDense(numImages, imageSize, nil)
	pixels := make([]byte, imageSize)
	for i := 0; i < numImages; i++ {
		if _, err := io.ReadFull(r, pixels); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		row := images.RawRowView(i)
		for j, p := range pixels {
			row[j] = float64(p) / 255.0
		}
	}
	return images, nil
}

// ReadIDXLabels reads an IDX label file.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadIDXLabels(r io.Reader, maxSamples int) ([]int, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != idxLabelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", header[0], idxLabelsMagic)
	}

	numLabels := int(header[1])
	if maxSamples > 0 && numLabels > maxSamples {
		numLabels = maxSamples
	}

	raw := make([]byte, numLabels)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	labels := make([]int, numLabels)
	for i, v := range raw {
		labels[i] = int(v)
	}
	return labels, nil
}

// openIDX opens an IDX file, transparently decompressing gzip content.
// The returned close function releases every underlying resource.
func openIDX(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		return br, file.Close, nil
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
	}
	return gz, func() error {
		gzErr := gz.Close()
		if err := file.Close(); err != nil {
			return err
		}
		return gzErr
	}, nil
}

// findIDX returns the first existing file among base and base+".gz".
func findIDX(dir, base string) (string, error) {
	for _, name := range []string{base, base + ".gz"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("neither %s nor %s.gz found in %s", base, base, dir)
}

func readIDXFile[T any](path string, maxSamples int, read func(io.Reader, int) (T, error)) (T, error) {
	var zero T
	r, closeFn, err := openIDX(path)
	if err != nil {
		return zero, err
	}
	defer closeFn() //nolint:errcheck // read-only file

	return read(r, maxSamples)
}

// LoadMNIST loads an MNIST-format dataset (MNIST or Fashion-MNIST) from
// the standard IDX files.
//
// Parameters:
//   - dataDir: Directory containing the IDX files, optionally gzipped
//   - train: If true, load the training split, else the test split
//   - maxSamples: Maximum number of samples to load (0 = load all)
//
// Returns:
//   - Dataset with pixels scaled to [0, 1] and 10 classes
//
// Expected files in dataDir:
//   - train-images-idx3-ubyte[.gz] (or t10k-images-idx3-ubyte[.gz] for test)
//   - train-labels-idx1-ubyte[.gz] (or t10k-labels-idx1-ubyte[.gz] for test)
func LoadMNIST(dataDir string, train bool, maxSamples int) (*Dataset, error) {
	prefix := "t10k"
	if train {
		prefix = "train"
	}

	imageFile, err := findIDX(dataDir, prefix+"-images-idx3-ubyte")
	if err != nil {
		return nil, err
	}
	labelFile, err := findIDX(dataDir, prefix+"-labels-idx1-ubyte")
	if err != nil {
		return nil, err
	}

	images, err := readIDXFile(imageFile, maxSamples, ReadIDXImages)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	labels, err := readIDXFile(labelFile, maxSamples, ReadIDXLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	rows, _ := images.Dims()
	if rows != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", rows, len(labels))
	}

	return NewDataset(images, labels, len(FashionMNISTClasses))
}
