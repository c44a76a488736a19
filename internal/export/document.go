// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

// Document is the portable JSON/YAML form of a graph. Relations may name
// their endpoints by id or by node reference, so documents can be written
// by hand.
type Document struct {
	Nodes     []DocumentNode     `json:"nodes" yaml:"nodes"`
	Relations []DocumentRelation `json:"relations,omitempty" yaml:"relations,omitempty"`
}

type DocumentNode struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string         `json:"name" yaml:"name"`
	Label      string         `json:"label,omitempty" yaml:"label,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

type DocumentRelation struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Label      string         `json:"label" yaml:"label"`
	SourceID   string         `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	TargetID   string         `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Source     *NodeRef       `json:"source,omitempty" yaml:"source,omitempty"`
	Target     *NodeRef       `json:"target,omitempty" yaml:"target,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// NodeRef names a node by label and name. An empty label is the default.
type NodeRef struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

func (r *NodeRef) id() string {
	return store.NodeID(r.Label, r.Name)
}

// Document converts g to its portable form. Relation endpoints are written
// as ids.
func (g *Graph) Document() *Document {
	doc := &Document{
		Nodes:     make([]DocumentNode, 0, len(g.Nodes)),
		Relations: make([]DocumentRelation, 0, len(g.Relations)),
	}
	for _, n := range g.Nodes {
		doc.Nodes = append(doc.Nodes, DocumentNode{
			ID:         n.ID,
			Name:       n.Name,
			Label:      n.Label,
			Properties: n.Properties.Map(),
		})
	}
	for _, r := range g.Relations {
		doc.Relations = append(doc.Relations, DocumentRelation{
			ID:         r.ID,
			Label:      r.Label,
			SourceID:   r.SourceID,
			TargetID:   r.TargetID,
			Properties: r.Properties.Map(),
		})
	}
	return doc
}

// Graph resolves node references and derives ids. Entries are validated
// the same way an upsert validates them.
func (d *Document) Graph() (*Graph, error) {
	g := &Graph{
		Nodes:     make([]store.EntityNode, 0, len(d.Nodes)),
		Relations: make([]store.Relation, 0, len(d.Relations)),
	}

	for i, dn := range d.Nodes {
		n := store.EntityNode{
			ID:         dn.ID,
			Name:       dn.Name,
			Label:      dn.Label,
			Properties: store.PropertiesOf(dn.Properties),
		}
		if err := n.Normalize(); err != nil {
			return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreNodeUpsertInvalid, "document node %d", i)
		}
		g.Nodes = append(g.Nodes, n)
	}

	for i, dr := range d.Relations {
		r := store.Relation{
			ID:         dr.ID,
			Label:      dr.Label,
			SourceID:   dr.SourceID,
			TargetID:   dr.TargetID,
			Properties: store.PropertiesOf(dr.Properties),
		}
		if dr.Source != nil {
			if r.SourceID != "" && r.SourceID != dr.Source.id() {
				return nil, sigilerr.Errorf(sigilerr.CodeStoreRelationUpsertInvalid,
					"document relation %d: source_id and source disagree", i)
			}
			r.SourceID = dr.Source.id()
		}
		if dr.Target != nil {
			if r.TargetID != "" && r.TargetID != dr.Target.id() {
				return nil, sigilerr.Errorf(sigilerr.CodeStoreRelationUpsertInvalid,
					"document relation %d: target_id and target disagree", i)
			}
			r.TargetID = dr.Target.id()
		}
		if err := r.Normalize(); err != nil {
			return nil, sigilerr.Wrapf(err, sigilerr.CodeStoreRelationUpsertInvalid, "document relation %d", i)
		}
		g.Relations = append(g.Relations, r)
	}
	return g, nil
}

// ParseDocument decodes a JSON or YAML graph document.
func ParseDocument(data []byte, format Format) (*Graph, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, sigilerr.Wrapf(err, sigilerr.CodeCLIInputInvalid, "decoding json graph document")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, sigilerr.Wrapf(err, sigilerr.CodeCLIInputInvalid, "decoding yaml graph document")
		}
	default:
		return nil, sigilerr.New(sigilerr.CodeExportFormatInvalid,
			fmt.Sprintf("graph documents are json or yaml, not %q", format), sigilerr.FieldFormat(string(format)))
	}
	return doc.Graph()
}

// ReadDocument loads a graph document, choosing the decoder from the file
// extension.
func ReadDocument(path string) (*Graph, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeCLIInputInvalid, "reading graph document %s", path)
	}
	return ParseDocument(data, format)
}
