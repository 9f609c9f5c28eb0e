// Package nn implements the feed-forward classifier for ffnet.
//
// This package provides:
//   - Architecture: the descriptor that fixes every layer shape
//   - Parameter / ParameterStore: trainable buffers in serialization order
//   - StateDict: value snapshots used by checkpoints
//   - Linear: fully connected layer
//   - FeedForward: affine + ReLU + dropout stacks ending in log-softmax
//   - NLLLoss: negative log-likelihood over log-probabilities
//
// Design inspired by PyTorch's nn.Module, reduced to the closed set of
// layers this architecture uses.
package nn

// Module is the base interface for components that own trainable parameters.
//
// Modules can be composed; a container returns the parameters of its
// children in a fixed order:
//
//	params := model.Parameters() // hidden_layers.0.weight, hidden_layers.0.bias, ...
type Module interface {
	// Parameters returns all trainable parameters of this module.
	//
	// The order is stable and matches the state dict order.
	Parameters() []*Parameter
}
