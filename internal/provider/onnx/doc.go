// Package onnx provides an image Classifier that runs an ONNX model through
// ONNX Runtime.
//
// The runtime binding is only compiled with the "onnx" build tag because it
// needs the onnxruntime shared library. Without the tag, Load reports
// capability.ErrProviderNotBuilt and the pipeline treats classification as
// unavailable. Tensor layout conversion, softmax and label handling are
// plain Go and always built.
package onnx
