// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides datasets and batch sources for training.
//
// Example:
//
//	ds, err := data.LoadMNIST("./data", true, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = ds.Normalize(0.5, 0.5)
//	loader, err := data.NewLoader(ds, 64, data.WithShuffle(true))
package data

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/internal/data"
)

// Batch is one mini-batch of inputs and labels.
type Batch = data.Batch

// Source produces a finite, restartable sequence of batches.
type Source = data.Source

// StaticSource replays a fixed list of batches every epoch.
type StaticSource = data.StaticSource

// Dataset holds labelled examples as matrix rows.
type Dataset = data.Dataset

// Loader batches a dataset, optionally reshuffling every epoch.
type Loader = data.Loader

// LoaderOption configures a Loader.
type LoaderOption = data.LoaderOption

// FashionMNISTClasses names the ten Fashion-MNIST categories by label.
var FashionMNISTClasses = data.FashionMNISTClasses

// NewDataset validates and wraps inputs and labels.
func NewDataset(inputs *mat.Dense, labels []int, classes int) (*Dataset, error) {
	return data.NewDataset(inputs, labels, classes)
}

// NewLoader creates a loader over dataset.
func NewLoader(dataset *Dataset, batchSize int, opts ...LoaderOption) (*Loader, error) {
	return data.NewLoader(dataset, batchSize, opts...)
}

// WithShuffle enables per-epoch shuffling.
func WithShuffle(shuffle bool) LoaderOption {
	return data.WithShuffle(shuffle)
}

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) LoaderOption {
	return data.WithRand(rng)
}

// LoadMNIST loads an MNIST-format dataset from IDX files, optionally gzipped.
func LoadMNIST(dir string, train bool, maxSamples int) (*Dataset, error) {
	return data.LoadMNIST(dir, train, maxSamples)
}

// LoadCSV loads a labelled CSV dataset.
func LoadCSV(filename string, classes, maxSamples int) (*Dataset, error) {
	return data.LoadCSV(filename, classes, maxSamples)
}

// Synthetic generates a dataset of Gaussian clusters.
func Synthetic(samples, features, classes int, seed int64) (*Dataset, error) {
	return data.Synthetic(samples, features, classes, seed)
}
