// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import (
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// --- Graph types ---

// EntityNode is a labeled entity. Its ID is derived from Label and Name.
type EntityNode struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Label      string     `json:"label"`
	Properties Properties `json:"properties,omitempty"`
}

// NewEntityNode returns a node with its default label and derived id filled in.
func NewEntityNode(label, name string, props Properties) EntityNode {
	n := EntityNode{Name: name, Label: label, Properties: props}
	if n.Label == "" {
		n.Label = DefaultNodeLabel
	}
	n.ID = NodeID(n.Label, n.Name)
	return n
}

// Normalize fills in the default label and derived id, and rejects nodes
// whose caller-supplied id disagrees with the derivation.
func (n *EntityNode) Normalize() error {
	if n.Name == "" {
		return sigilerr.New(sigilerr.CodeStoreNodeUpsertInvalid, "node name must not be empty")
	}
	if n.Label == "" {
		n.Label = DefaultNodeLabel
	}
	id := NodeID(n.Label, n.Name)
	if n.ID != "" && n.ID != id {
		return sigilerr.New(sigilerr.CodeStoreNodeUpsertInvalid,
			"node id does not match its label and name",
			sigilerr.FieldNodeID(n.ID),
			sigilerr.Field("name", n.Name),
			sigilerr.Field("label", n.Label),
		)
	}
	n.ID = id
	if err := n.Properties.validate(); err != nil {
		return sigilerr.Errorf(sigilerr.CodeStoreNodeUpsertInvalid, "node %q: %w", n.Name, err)
	}
	return nil
}

// Relation is a directed, labeled edge between two node ids. Its ID is
// derived from Label, SourceID and TargetID.
type Relation struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	SourceID   string     `json:"source_id"`
	TargetID   string     `json:"target_id"`
	Properties Properties `json:"properties,omitempty"`
}

// NewRelation returns a relation with its derived id filled in.
func NewRelation(label, sourceID, targetID string, props Properties) Relation {
	return Relation{
		ID:         RelationID(label, sourceID, targetID),
		Label:      label,
		SourceID:   sourceID,
		TargetID:   targetID,
		Properties: props,
	}
}

// Normalize fills in the derived id and validates the relation.
func (r *Relation) Normalize() error {
	switch {
	case r.Label == "":
		return sigilerr.New(sigilerr.CodeStoreRelationUpsertInvalid, "relation label must not be empty")
	case r.SourceID == "":
		return sigilerr.New(sigilerr.CodeStoreRelationUpsertInvalid, "relation source_id must not be empty")
	case r.TargetID == "":
		return sigilerr.New(sigilerr.CodeStoreRelationUpsertInvalid, "relation target_id must not be empty")
	}
	id := RelationID(r.Label, r.SourceID, r.TargetID)
	if r.ID != "" && r.ID != id {
		return sigilerr.New(sigilerr.CodeStoreRelationUpsertInvalid,
			"relation id does not match its label and endpoints",
			sigilerr.FieldRelationID(r.ID),
			sigilerr.Field("label", r.Label),
		)
	}
	r.ID = id
	if err := r.Properties.validate(); err != nil {
		return sigilerr.Errorf(sigilerr.CodeStoreRelationUpsertInvalid, "relation %q: %w", r.Label, err)
	}
	return nil
}

// Triplet is one resolved edge: source node, relation, target node.
type Triplet struct {
	Source   EntityNode `json:"source"`
	Relation Relation   `json:"relation"`
	Target   EntityNode `json:"target"`
}

// --- Query types ---
//
// A nil or empty slice means the family is absent and imposes no constraint.

// NodeQuery selects nodes whose id is in IDs and whose properties match
// every entry of Properties. An empty query selects every node.
type NodeQuery struct {
	IDs        []string
	Properties Properties
}

// TripletQuery selects triplets by their source node and relation label.
// MatchTarget additionally accepts relations whose target node matches.
type TripletQuery struct {
	EntityNames   []string
	RelationNames []string
	Properties    Properties
	IDs           []string
	MatchTarget   bool
}

// DeleteOptions selects nodes to delete. The families combine with OR:
// a node is deleted when its name is in EntityNames, its id is in IDs, or
// its properties match every entry of Properties. Relations labeled with
// any of RelationNames are deleted as well.
type DeleteOptions struct {
	EntityNames   []string
	Properties    Properties
	IDs           []string
	RelationNames []string
}

// DeleteResult counts the rows removed by one Delete call.
type DeleteResult struct {
	Nodes     int64 `json:"nodes"`
	Relations int64 `json:"relations"`
}

// RelationQuery selects relations matching every supplied family.
type RelationQuery struct {
	IDs        []string
	Labels     []string
	SourceIDs  []string
	TargetIDs  []string
	Properties Properties
}

// RelationDeleteOptions selects relations to delete. The families combine
// with OR; EndpointIDs matches either end of a relation.
type RelationDeleteOptions struct {
	IDs         []string
	Labels      []string
	EndpointIDs []string
	Properties  Properties
}

// LabelCount is a per-label row count.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Stats summarises current store contents.
type Stats struct {
	Nodes             int64        `json:"nodes"`
	Relations         int64        `json:"relations"`
	DanglingRelations int64        `json:"dangling_relations"`
	NodesByLabel      []LabelCount `json:"nodes_by_label"`
	RelationsByLabel  []LabelCount `json:"relations_by_label"`
}

// ValidateFilter rejects property filters with empty keys.
func ValidateFilter(props Properties) error {
	for k := range props {
		if k == "" {
			return sigilerr.New(sigilerr.CodeStoreQueryInvalid, "property filter key must not be empty")
		}
	}
	return nil
}
