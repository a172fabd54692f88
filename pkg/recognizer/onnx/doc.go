// Package onnx implements a token-classification entity recognizer backed by
// ONNX Runtime.
//
// A model directory contains:
//
//	model.onnx     token-classification model with input_ids/attention_mask inputs
//	vocab.txt      WordPiece vocabulary
//	labels.yaml    ordered list of BIO labels (B-PER, I-PER, B-ORG, ..., O)
//
// labels.yaml may be replaced by a Hugging Face style config.json with an
// id2label map. Model labels are mapped onto engine entity types through
// Config.LabelMap; labels without a mapping are discarded.
//
// The recognizer keeps a fixed pool of ONNX sessions, so Recognize is safe for
// concurrent use. Long inputs are processed in windows of Config.SeqLen tokens.
package onnx
