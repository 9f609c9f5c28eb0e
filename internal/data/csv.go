package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// ReadCSV reads labelled examples in Kaggle-style CSV.
//
// CSV Format:
//
//	label,pixel0,pixel1,...,pixel783
//	5,0,0,12,...,0
//	0,0,0,0,...,0
//
// The first row is a header. Pixel values are divided by 255. At most
// maxSamples rows are read (0 = all).
func ReadCSV(r io.Reader, classes, maxSamples int) (*Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or missing header")
	}

	// Skip header row
	records = records[1:]
	if maxSamples > 0 && len(records) > maxSamples {
		records = records[:maxSamples]
	}

	width := len(records[0])
	if width < 2 {
		return nil, fmt.Errorf("CSV rows need a label and at least one feature")
	}

	inputs := mat.NewDense(len(records), width-1, nil)
	labels := make([]int, len(records))
	for i, record := range records {
		if len(record) != width {
			return nil, fmt.Errorf("invalid record length at row %d: got %d, want %d", i+1, len(record), width)
		}
		label, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid label at row %d: %w", i+1, err)
		}
		labels[i] = label

		row := inputs.RawRowView(i)
		for j, field := range record[1:] {
			pixel, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid pixel at row %d, column %d: %w", i+1, j+1, err)
			}
			row[j] = pixel / 255.0
		}
	}

	return NewDataset(inputs, labels, classes)
}

// LoadCSV reads a CSV dataset from a file.
func LoadCSV(filename string, classes, maxSamples int) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, classes, maxSamples)
}
