// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
)

// DefaultNodeLabel is applied to nodes created without a label.
const DefaultNodeLabel = "entity"

// IDLength is the length of every node and relation id.
const IDLength = sha256.Size * 2

// NodeID derives the id of the node with the given label and name.
// An empty label is treated as DefaultNodeLabel.
func NodeID(label, name string) string {
	if label == "" {
		label = DefaultNodeLabel
	}
	return digest("node", label, name)
}

// RelationID derives the id of the relation with the given label and endpoints.
func RelationID(label, sourceID, targetID string) string {
	return digest("relation", label, sourceID, targetID)
}

// digest hashes length-prefixed fields so that no two distinct tuples share
// an encoding.
func digest(fields ...string) string {
	h := sha256.New()
	var prefix [binary.MaxVarintLen64]byte
	for _, f := range fields {
		n := binary.PutUvarint(prefix[:], uint64(len(f)))
		_, _ = h.Write(prefix[:n])
		_, _ = io.WriteString(h, f)
	}
	return hex.EncodeToString(h.Sum(nil))
}
