// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint saves and restores ffnet models with their
// architecture.
//
// Example:
//
//	if err := checkpoint.Save(model, "model.ffck"); err != nil {
//	    log.Fatal(err)
//	}
//	restored, err := checkpoint.Load("model.ffck")
//	if errors.Is(err, nn.ErrShapeMismatch) {
//	    // the stored parameters do not fit the stored architecture
//	}
package checkpoint

import (
	"io"

	"github.com/born-ml/ffnet/internal/checkpoint"
	"github.com/born-ml/ffnet/internal/nn"
)

// Errors
var (
	ErrStorage            = checkpoint.ErrStorage
	ErrChecksumMismatch   = checkpoint.ErrChecksumMismatch
	ErrHeaderTooLarge     = checkpoint.ErrHeaderTooLarge
	ErrInvalidMagic       = checkpoint.ErrInvalidMagic
	ErrUnsupportedVersion = checkpoint.ErrUnsupportedVersion
)

// StorageError reports a failure to read or write a checkpoint.
type StorageError = checkpoint.StorageError

// ValidationError describes a malformed checkpoint header.
type ValidationError = checkpoint.ValidationError

// Record is the in-memory form of a checkpoint.
type Record = checkpoint.Record

// Header is the JSON header of a checkpoint file.
type Header = checkpoint.Header

// TensorMeta describes one stored parameter buffer.
type TensorMeta = checkpoint.TensorMeta

// Manager saves and loads checkpoints on the local filesystem.
type Manager = checkpoint.Manager

// ManagerOption configures a Manager.
type ManagerOption = checkpoint.ManagerOption

// NewManager creates a checkpoint manager.
func NewManager(opts ...ManagerOption) *Manager {
	return checkpoint.NewManager(opts...)
}

// NewRecord snapshots model into a detached record.
func NewRecord(model *nn.FeedForward) *Record {
	return checkpoint.NewRecord(model)
}

// Save writes a checkpoint of model to path atomically.
func Save(model *nn.FeedForward, path string) error {
	return checkpoint.Save(model, path)
}

// Load rebuilds a model from the checkpoint at path.
func Load(path string, opts ...nn.Option) (*nn.FeedForward, error) {
	return checkpoint.Load(path, opts...)
}

// LoadInto installs the checkpoint at path into an existing model with
// the same architecture.
func LoadInto(model *nn.FeedForward, path string) error {
	return checkpoint.LoadInto(model, path)
}

// ReadHeader returns the header of the checkpoint at path.
func ReadHeader(path string) (*Header, error) {
	return checkpoint.ReadHeader(path)
}

// Encode writes rec to w in checkpoint format.
func Encode(w io.Writer, rec *Record) error {
	return checkpoint.Encode(w, rec)
}

// Decode reads and verifies a checkpoint from r.
func Decode(r io.Reader) (*Record, error) {
	return checkpoint.Decode(r)
}
