// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sigil-dev/propgraph/internal/export"
	"github.com/sigil-dev/propgraph/internal/store"
	sigilerr "github.com/sigil-dev/propgraph/pkg/errors"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "upsert-nodes",
		Method:      http.MethodPost,
		Path:        "/api/v1/nodes",
		Summary:     "Insert or update nodes",
		Tags:        []string{"nodes"},
	}, s.handleUpsertNodes)

	huma.Register(s.api, huma.Operation{
		OperationID: "upsert-relations",
		Method:      http.MethodPost,
		Path:        "/api/v1/relations",
		Summary:     "Insert or update relations",
		Tags:        []string{"relations"},
	}, s.handleUpsertRelations)

	huma.Register(s.api, huma.Operation{
		OperationID: "query-nodes",
		Method:      http.MethodPost,
		Path:        "/api/v1/nodes/query",
		Summary:     "Get nodes by id and property",
		Tags:        []string{"nodes"},
	}, s.handleQueryNodes)

	huma.Register(s.api, huma.Operation{
		OperationID: "query-relations",
		Method:      http.MethodPost,
		Path:        "/api/v1/relations/query",
		Summary:     "Get relations",
		Tags:        []string{"relations"},
	}, s.handleQueryRelations)

	huma.Register(s.api, huma.Operation{
		OperationID: "query-triplets",
		Method:      http.MethodPost,
		Path:        "/api/v1/triplets/query",
		Summary:     "Get source-relation-target triplets",
		Tags:        []string{"triplets"},
	}, s.handleQueryTriplets)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-nodes",
		Method:      http.MethodPost,
		Path:        "/api/v1/nodes/delete",
		Summary:     "Delete nodes and the relations left dangling",
		Tags:        []string{"nodes"},
	}, s.handleDeleteNodes)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-relations",
		Method:      http.MethodPost,
		Path:        "/api/v1/relations/delete",
		Summary:     "Delete relations",
		Tags:        []string{"relations"},
	}, s.handleDeleteRelations)

	huma.Register(s.api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Store statistics",
		Tags:        []string{"system"},
	}, s.handleStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "export-graph",
		Method:      http.MethodGet,
		Path:        "/api/v1/export",
		Summary:     "Export the whole graph",
		Tags:        []string{"export"},
	}, s.handleExport)
}

// --- Input/Output types ---

// TripletBody is the wire form of a store.Triplet.
type TripletBody struct {
	Source   export.DocumentNode     `json:"source"`
	Relation export.DocumentRelation `json:"relation"`
	Target   export.DocumentNode     `json:"target"`
}

type upsertNodesInput struct {
	Body struct {
		Nodes []export.DocumentNode `json:"nodes" doc:"Nodes to insert or update"`
	}
}

type nodesOutput struct {
	Body struct {
		Nodes []export.DocumentNode `json:"nodes"`
	}
}

type upsertRelationsInput struct {
	Body struct {
		Relations []export.DocumentRelation `json:"relations" doc:"Relations to insert or update"`
	}
}

type relationsOutput struct {
	Body struct {
		Relations []export.DocumentRelation `json:"relations"`
	}
}

type queryNodesInput struct {
	Body struct {
		IDs        []string       `json:"ids,omitempty" doc:"Node ids to match"`
		Properties map[string]any `json:"properties,omitempty" doc:"Property equality filter"`
	} `required:"false"`
}

type queryRelationsInput struct {
	Body struct {
		IDs        []string       `json:"ids,omitempty"`
		Labels     []string       `json:"labels,omitempty"`
		SourceIDs  []string       `json:"source_ids,omitempty"`
		TargetIDs  []string       `json:"target_ids,omitempty"`
		Properties map[string]any `json:"properties,omitempty"`
	} `required:"false"`
}

type queryTripletsInput struct {
	Body struct {
		EntityNames   []string       `json:"entity_names,omitempty" doc:"Source node names"`
		RelationNames []string       `json:"relation_names,omitempty" doc:"Relation labels"`
		Properties    map[string]any `json:"properties,omitempty" doc:"Source node property filter"`
		IDs           []string       `json:"ids,omitempty" doc:"Source node ids"`
		MatchTarget   bool           `json:"match_target,omitempty" doc:"Also match on the target node"`
	} `required:"false"`
}

type tripletsOutput struct {
	Body struct {
		Triplets []TripletBody `json:"triplets"`
	}
}

type deleteNodesInput struct {
	Body struct {
		EntityNames   []string       `json:"entity_names,omitempty"`
		Properties    map[string]any `json:"properties,omitempty"`
		IDs           []string       `json:"ids,omitempty"`
		RelationNames []string       `json:"relation_names,omitempty"`
	} `required:"false"`
}

type deleteNodesOutput struct {
	Body struct {
		Status    string `json:"status" example:"deleted"`
		Nodes     int64  `json:"nodes" doc:"Nodes deleted"`
		Relations int64  `json:"relations" doc:"Relations deleted, including the cascade"`
	}
}

type deleteRelationsInput struct {
	Body struct {
		IDs         []string       `json:"ids,omitempty"`
		Labels      []string       `json:"labels,omitempty"`
		EndpointIDs []string       `json:"endpoint_ids,omitempty" doc:"Matches either end of a relation"`
		Properties  map[string]any `json:"properties,omitempty"`
	} `required:"false"`
}

type deleteRelationsOutput struct {
	Body struct {
		Deleted int64 `json:"deleted"`
	}
}

type statsOutput struct {
	Body store.Stats
}

type exportInput struct {
	Format string `query:"format" default:"html" enum:"html,dot,svg,png,json,yaml" doc:"Export format"`
}

type exportOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// --- Handlers ---

func (s *Server) handleUpsertNodes(ctx context.Context, input *upsertNodesInput) (*nodesOutput, error) {
	g, err := (&export.Document{Nodes: input.Body.Nodes}).Graph()
	if err != nil {
		return nil, s.apiError(ctx, "upserting nodes", err)
	}
	if err := s.graph.UpsertNodes(ctx, g.Nodes); err != nil {
		return nil, s.apiError(ctx, "upserting nodes", err)
	}
	out := &nodesOutput{}
	out.Body.Nodes = g.Document().Nodes
	return out, nil
}

func (s *Server) handleUpsertRelations(ctx context.Context, input *upsertRelationsInput) (*relationsOutput, error) {
	g, err := (&export.Document{Relations: input.Body.Relations}).Graph()
	if err != nil {
		return nil, s.apiError(ctx, "upserting relations", err)
	}
	if err := s.graph.UpsertRelations(ctx, g.Relations); err != nil {
		return nil, s.apiError(ctx, "upserting relations", err)
	}
	out := &relationsOutput{}
	out.Body.Relations = g.Document().Relations
	return out, nil
}

func (s *Server) handleQueryNodes(ctx context.Context, input *queryNodesInput) (*nodesOutput, error) {
	nodes, err := s.graph.Get(ctx, store.NodeQuery{
		IDs:        input.Body.IDs,
		Properties: store.PropertiesOf(input.Body.Properties),
	})
	if err != nil {
		return nil, s.apiError(ctx, "querying nodes", err)
	}
	out := &nodesOutput{}
	out.Body.Nodes = (&export.Graph{Nodes: nodes}).Document().Nodes
	return out, nil
}

func (s *Server) handleQueryRelations(ctx context.Context, input *queryRelationsInput) (*relationsOutput, error) {
	rels, err := s.graph.GetRelations(ctx, store.RelationQuery{
		IDs:        input.Body.IDs,
		Labels:     input.Body.Labels,
		SourceIDs:  input.Body.SourceIDs,
		TargetIDs:  input.Body.TargetIDs,
		Properties: store.PropertiesOf(input.Body.Properties),
	})
	if err != nil {
		return nil, s.apiError(ctx, "querying relations", err)
	}
	out := &relationsOutput{}
	out.Body.Relations = (&export.Graph{Relations: rels}).Document().Relations
	return out, nil
}

func (s *Server) handleQueryTriplets(ctx context.Context, input *queryTripletsInput) (*tripletsOutput, error) {
	triplets, err := s.graph.GetTriplets(ctx, store.TripletQuery{
		EntityNames:   input.Body.EntityNames,
		RelationNames: input.Body.RelationNames,
		Properties:    store.PropertiesOf(input.Body.Properties),
		IDs:           input.Body.IDs,
		MatchTarget:   input.Body.MatchTarget,
	})
	if err != nil {
		return nil, s.apiError(ctx, "querying triplets", err)
	}

	out := &tripletsOutput{}
	out.Body.Triplets = make([]TripletBody, 0, len(triplets))
	for _, t := range triplets {
		doc := (&export.Graph{
			Nodes:     []store.EntityNode{t.Source, t.Target},
			Relations: []store.Relation{t.Relation},
		}).Document()
		out.Body.Triplets = append(out.Body.Triplets, TripletBody{
			Source:   doc.Nodes[0],
			Relation: doc.Relations[0],
			Target:   doc.Nodes[1],
		})
	}
	return out, nil
}

func (s *Server) handleDeleteNodes(ctx context.Context, input *deleteNodesInput) (*deleteNodesOutput, error) {
	res, err := s.graph.Delete(ctx, store.DeleteOptions{
		EntityNames:   input.Body.EntityNames,
		Properties:    store.PropertiesOf(input.Body.Properties),
		IDs:           input.Body.IDs,
		RelationNames: input.Body.RelationNames,
	})
	if err != nil {
		return nil, s.apiError(ctx, "deleting nodes", err)
	}
	out := &deleteNodesOutput{}
	out.Body.Status = "deleted"
	out.Body.Nodes = res.Nodes
	out.Body.Relations = res.Relations
	return out, nil
}

func (s *Server) handleDeleteRelations(ctx context.Context, input *deleteRelationsInput) (*deleteRelationsOutput, error) {
	n, err := s.graph.DeleteRelations(ctx, store.RelationDeleteOptions{
		IDs:         input.Body.IDs,
		Labels:      input.Body.Labels,
		EndpointIDs: input.Body.EndpointIDs,
		Properties:  store.PropertiesOf(input.Body.Properties),
	})
	if err != nil {
		return nil, s.apiError(ctx, "deleting relations", err)
	}
	out := &deleteRelationsOutput{}
	out.Body.Deleted = n
	return out, nil
}

func (s *Server) handleStats(ctx context.Context, _ *struct{}) (*statsOutput, error) {
	stats, err := s.graph.Stats(ctx)
	if err != nil {
		return nil, s.apiError(ctx, "reading stats", err)
	}
	return &statsOutput{Body: *stats}, nil
}

func (s *Server) handleExport(ctx context.Context, input *exportInput) (*exportOutput, error) {
	format, err := export.ParseFormat(input.Format)
	if err != nil {
		return nil, s.apiError(ctx, "exporting graph", err)
	}
	if err := export.CheckDependencies(format); err != nil {
		return nil, s.apiError(ctx, "exporting graph", err)
	}

	g, err := export.Snapshot(ctx, s.graph)
	if err != nil {
		return nil, s.apiError(ctx, "exporting graph", err)
	}
	var buf bytes.Buffer
	if err := export.Render(ctx, &buf, g, format); err != nil {
		return nil, s.apiError(ctx, "exporting graph", err)
	}
	return &exportOutput{ContentType: format.ContentType(), Body: buf.Bytes()}, nil
}

// apiError converts a coded error into a huma status error. Internal
// failures are logged and their detail is withheld from the client.
func (s *Server) apiError(ctx context.Context, op string, err error) error {
	status := sigilerr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx, op+" failed", "code", sigilerr.CodeOf(err), "error", err)
		return huma.Error500InternalServerError("internal server error")
	}
	s.logger.DebugContext(ctx, op+" rejected", "status", status, "code", sigilerr.CodeOf(err), "error", err)
	return huma.NewError(status, err.Error())
}
