// Package checkpoint saves and restores feed-forward models together with
// the architecture needed to rebuild them.
//
// A checkpoint is a single binary file:
//
//	Format Structure:
//	  [0x00-0x03] Magic "FFCK"
//	  [0x04-0x07] Format version (uint32 LE)
//	  [0x08-0x0F] Reserved (zero)
//	  [0x10-0x17] Header size (uint64 LE)
//	  [0x18-0x1F] Data size (uint64 LE)
//	  [0x20-0x3F] SHA-256 of the data section
//	  [0x40-...]  Header: JSON, zero padded to a 64-byte boundary
//	  [...]       Tensor data: float64 LE, in state_dict order
//
// The JSON header carries exactly four fields:
//
//	{
//	  "input_size": 784,
//	  "output_size": 10,
//	  "hidden_layers": [128, 64],
//	  "state_dict": [{"name": "hidden_layers.0.weight", "dtype": "float64",
//	                  "shape": [128, 784], "offset": 0, "size": 802816}, ...]
//	}
//
// Loading always builds a fresh model from the stored architecture before
// installing parameters, so a checkpoint can never be poured into a model
// of a different shape.
//
// Example usage:
//
//	// Save a model
//	if err := checkpoint.Save(model, "model.ffck"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it back
//	restored, err := checkpoint.Load("model.ffck")
//	if err != nil {
//	    log.Fatal(err)
//	}
package checkpoint
