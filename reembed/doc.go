// Package reembed rewrites every vector in the semantic index with a new
// embedding model.
//
// Chunks are walked in key order and grouped by document so each document
// is replaced atomically. Vectors are normalized before they are written,
// embedding calls are retried with exponential backoff, and the model
// identity stored in the index is switched only after every document has
// been rewritten.
package reembed
