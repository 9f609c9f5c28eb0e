package checkpoint

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/born-ml/ffnet/internal/nn"
)

// Manager saves and loads checkpoints on the local filesystem.
//
// The zero value is not usable; create one with NewManager. The package
// level Save, Load, LoadInto and ReadHeader use a Manager that discards
// its logs.
type Manager struct {
	logger    *slog.Logger
	modelOpts []nn.Option
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the structured logger saves and loads are reported to.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithModelOptions sets options applied to every model Load builds, for
// example nn.WithDropout or nn.WithSeed.
func WithModelOptions(opts ...nn.Option) ManagerOption {
	return func(m *Manager) {
		m.modelOpts = append(m.modelOpts, opts...)
	}
}

// NewManager creates a checkpoint manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	return m
}

// Save writes a checkpoint of model to path as a single atomic unit.
//
// The record is snapshotted and fully encoded in memory, written to a
// temporary file in the destination directory, synced and renamed over
// path. If any step fails an existing file at path is left untouched and
// the error is a *StorageError.
func (m *Manager) Save(model *nn.FeedForward, path string) error {
	buf, err := Marshal(NewRecord(model))
	if err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}

	if err := writeFileAtomic(path, buf); err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}

	m.logger.Info("checkpoint saved",
		slog.String("path", path),
		slog.String("architecture", model.Architecture().String()),
		slog.Int("bytes", len(buf)))
	return nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Read decodes the checkpoint at path into a record.
//
// Failures to open, read or decode the file are returned as *StorageError.
func (m *Manager) Read(path string) (*Record, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Op: "load", Path: path, Err: err}
	}
	rec, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &StorageError{Op: "load", Path: path, Err: err}
	}
	return rec, nil
}

// Load reads the checkpoint at path, builds a new model from the stored
// architecture and installs the stored parameters.
//
// Storage and format failures are *StorageError; a stored buffer whose
// shape disagrees with the rebuilt model matches nn.ErrShapeMismatch.
// The returned model is in training mode, like any new model.
func (m *Manager) Load(path string, opts ...nn.Option) (*nn.FeedForward, error) {
	rec, err := m.Read(path)
	if err != nil {
		return nil, err
	}

	modelOpts := append(append([]nn.Option{}, m.modelOpts...), opts...)
	model, err := rec.Build(modelOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore %s: %w", path, err)
	}

	m.logger.Info("checkpoint loaded",
		slog.String("path", path),
		slog.String("architecture", rec.Architecture.String()),
		slog.Int("parameters", model.NumParameters()))
	return model, nil
}

// LoadInto installs the checkpoint at path into an existing model.
//
// Input size, output size and hidden layers must all match the model's;
// otherwise the error matches nn.ErrShapeMismatch and the model is left
// unchanged.
func (m *Manager) LoadInto(model *nn.FeedForward, path string) error {
	rec, err := m.Read(path)
	if err != nil {
		return err
	}
	if err := rec.InstallInto(model); err != nil {
		return fmt.Errorf("failed to restore %s: %w", path, err)
	}

	m.logger.Info("checkpoint installed",
		slog.String("path", path),
		slog.String("architecture", rec.Architecture.String()))
	return nil
}

// ReadHeader returns the validated header of the checkpoint at path
// without reading or verifying tensor data.
func (m *Manager) ReadHeader(path string) (*Header, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, &StorageError{Op: "read header", Path: path, Err: err}
	}
	defer file.Close()

	header, err := DecodeHeader(file)
	if err != nil {
		return nil, &StorageError{Op: "read header", Path: path, Err: err}
	}
	return header, nil
}

var defaultManager = NewManager()

// Save writes a checkpoint of model to path. See Manager.Save.
func Save(model *nn.FeedForward, path string) error {
	return defaultManager.Save(model, path)
}

// Load rebuilds a model from the checkpoint at path. See Manager.Load.
func Load(path string, opts ...nn.Option) (*nn.FeedForward, error) {
	return defaultManager.Load(path, opts...)
}

// LoadInto installs the checkpoint at path into model. See Manager.LoadInto.
func LoadInto(model *nn.FeedForward, path string) error {
	return defaultManager.LoadInto(model, path)
}

// ReadHeader returns the header of the checkpoint at path. See Manager.ReadHeader.
func ReadHeader(path string) (*Header, error) {
	return defaultManager.ReadHeader(path)
}
