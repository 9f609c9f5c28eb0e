// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package checkpoint_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/ffnet/checkpoint"
	"github.com/born-ml/ffnet/data"
	"github.com/born-ml/ffnet/nn"
	"github.com/born-ml/ffnet/optim"
	"github.com/born-ml/ffnet/train"
)

// TestTrainSaveLoad trains a small model, saves it and checks the restored
// copy classifies exactly like the original.
func TestTrainSaveLoad(t *testing.T) {
	ds, err := data.Synthetic(64, 5, 3, 1)
	if err != nil {
		t.Fatalf("Synthetic: %v", err)
	}
	loader, err := data.NewLoader(ds, 16, data.WithShuffle(true), data.WithRand(rand.New(rand.NewSource(2))))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	model, err := nn.New(nn.Architecture{InputSize: 5, OutputSize: 3, HiddenSizes: []int{8, 4}}, nn.WithSeed(3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.01})

	if _, err := train.New(train.Config{Epochs: 2}).Train(model, loader, nil, nn.NLLLoss, optimizer); err != nil {
		t.Fatalf("Train: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.ffck")
	if err := checkpoint.Save(model, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	restored, err := checkpoint.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want, err := model.Predict(ds.Inputs)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	got, err := restored.Predict(ds.Inputs)
	if err != nil {
		t.Fatalf("Predict restored: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: restored predicts %d, original %d", i, got[i], want[i])
		}
	}

	_, wantAcc, err := train.Evaluate(model, loader, nn.NLLLoss)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	_, gotAcc, err := train.Evaluate(restored, loader, nn.NLLLoss)
	if err != nil {
		t.Fatalf("Evaluate restored: %v", err)
	}
	if gotAcc != wantAcc {
		t.Errorf("accuracy: restored %v, original %v", gotAcc, wantAcc)
	}

	if !mat.Equal(model.Parameters()[0].Value(), restored.Parameters()[0].Value()) {
		t.Error("first weight matrix differs after reload")
	}
}
