package openapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Operation is one HTTP operation surfaced in the service description.
type Operation struct {
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string
	// Query parameter names mapped to whether they are required.
	Query     map[string]bool
	Responses map[string]string
}

// Registry holds the operations a service exposes.
type Registry struct {
	Ops []Operation
}

func NewRegistry() *Registry { return &Registry{Ops: []Operation{}} }

func (r *Registry) Register(op Operation) {
	op.Method = strings.ToLower(op.Method)
	r.Ops = append(r.Ops, op)
}

// Build produces a minimal OpenAPI 3.1 document. Problem responses point at the shared
// problem schema.
func (r *Registry) Build(serviceName, version string) map[string]any {
	paths := map[string]any{}
	for _, op := range r.Ops {
		if _, ok := paths[op.Path]; !ok {
			paths[op.Path] = map[string]any{}
		}
		params := []map[string]any{}
		for name, required := range op.Query {
			params = append(params, map[string]any{
				"name":     name,
				"in":       "query",
				"required": required,
				"schema":   map[string]string{"type": "string"},
			})
		}
		responses := map[string]any{}
		for code, desc := range op.Responses {
			resp := map[string]any{"description": desc}
			if strings.HasPrefix(code, "4") || strings.HasPrefix(code, "5") {
				resp["content"] = map[string]any{
					"application/problem+json": map[string]any{
						"schema": map[string]string{"$ref": "#/components/schemas/Problem"},
					},
				}
			}
			responses[code] = resp
		}
		m := map[string]any{
			"summary":   op.Summary,
			"responses": responses,
		}
		if op.Description != "" {
			m["description"] = op.Description
		}
		if len(op.Tags) > 0 {
			m["tags"] = op.Tags
		}
		if len(params) > 0 {
			m["parameters"] = params
		}
		paths[op.Path].(map[string]any)[op.Method] = m
	}
	return map[string]any{
		"openapi": "3.1.0",
		"info":    map[string]any{"title": serviceName, "version": version},
		"paths":   paths,
		"components": map[string]any{
			"schemas": map[string]any{
				"Problem": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":     map[string]string{"type": "string"},
						"title":    map[string]string{"type": "string"},
						"status":   map[string]string{"type": "integer"},
						"detail":   map[string]string{"type": "string"},
						"instance": map[string]string{"type": "string"},
					},
				},
			},
		},
	}
}

// ServeHandler returns an HTTP handler that serves the built OpenAPI JSON.
func (r *Registry) ServeHandler(serviceName, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Build(serviceName, version))
	}
}
