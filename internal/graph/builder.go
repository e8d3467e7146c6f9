// Package graph turns a scan report into a directed file -> module graph and
// answers dependency queries over it.
package graph

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/mvp-joe/pydeps/internal/scanner"
)

// ImportGraph is an immutable import graph built from one report.
type ImportGraph struct {
	scanID string
	root   string
	graph  graph.Graph[string, *Node]

	// Adjacency snapshots, taken once after building.
	successors   map[string]map[string]graph.Edge[string]
	predecessors map[string]map[string]graph.Edge[string]
}

// FileID returns the vertex ID of a scanned file.
func FileID(path string) string { return "file:" + path }

// ModuleID returns the vertex ID of an imported module.
func ModuleID(name string) string { return "module:" + name }

// Build creates the import graph for report. Every scanned file is a vertex,
// including files whose analysis failed.
func Build(report *scanner.Report) (*ImportGraph, error) {
	g := graph.New(func(n *Node) string { return n.ID }, graph.Directed())

	categories := make(map[string]Category)
	for _, name := range report.Packages {
		categories[name] = CategoryPackage
	}
	for _, name := range report.Stdlib {
		categories[name] = CategoryStdlib
	}
	for _, name := range report.Local {
		if _, ok := categories[name]; !ok {
			categories[name] = CategoryLocal
		}
	}

	for _, fr := range report.Files {
		file := &Node{ID: FileID(fr.Path), Kind: NodeFile, Name: fr.Path, Failure: fr.Failure}
		if err := g.AddVertex(file); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("failed to add file %s: %w", fr.Path, err)
		}

		for _, name := range fr.Imports {
			module := &Node{ID: ModuleID(name), Kind: NodeModule, Name: name, Category: categories[name]}
			if err := g.AddVertex(module); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("failed to add module %s: %w", name, err)
			}
			if err := g.AddEdge(file.ID, module.ID); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", fr.Path, name, err)
			}
		}
	}

	successors, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to index graph: %w", err)
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to index graph: %w", err)
	}

	return &ImportGraph{
		scanID:       report.ID,
		root:         report.Root,
		graph:        g,
		successors:   successors,
		predecessors: predecessors,
	}, nil
}

// Dependencies returns the sorted module names imported by file.
func (ig *ImportGraph) Dependencies(file string) []string {
	return ig.neighbors(ig.successors, FileID(file))
}

// Dependents returns the sorted paths of files importing module.
func (ig *ImportGraph) Dependents(module string) []string {
	return ig.neighbors(ig.predecessors, ModuleID(module))
}

func (ig *ImportGraph) neighbors(adjacency map[string]map[string]graph.Edge[string], id string) []string {
	names := []string{}
	for neighbor := range adjacency[id] {
		node, err := ig.graph.Vertex(neighbor)
		if err != nil {
			continue
		}
		names = append(names, node.Name)
	}
	sort.Strings(names)
	return names
}

// Modules returns every imported module, most imported first, ties by name.
func (ig *ImportGraph) Modules() []ModuleUsage {
	usages := []ModuleUsage{}
	for id, importers := range ig.predecessors {
		node, err := ig.graph.Vertex(id)
		if err != nil || node.Kind != NodeModule {
			continue
		}
		usages = append(usages, ModuleUsage{
			Name:      node.Name,
			Category:  node.Category,
			Importers: len(importers),
		})
	}

	sort.Slice(usages, func(i, j int) bool {
		if usages[i].Importers != usages[j].Importers {
			return usages[i].Importers > usages[j].Importers
		}
		return usages[i].Name < usages[j].Name
	})
	return usages
}

// Data returns the serializable form of the graph with nodes and edges in a
// stable order.
func (ig *ImportGraph) Data() *GraphData {
	data := &GraphData{
		Metadata: GraphMetadata{ScanID: ig.scanID, Root: ig.root},
		Nodes:    []Node{},
		Edges:    []Edge{},
	}

	for id, targets := range ig.successors {
		node, err := ig.graph.Vertex(id)
		if err != nil {
			continue
		}
		data.Nodes = append(data.Nodes, *node)
		for target := range targets {
			data.Edges = append(data.Edges, Edge{From: id, To: target})
		}
	}

	sort.Slice(data.Nodes, func(i, j int) bool { return data.Nodes[i].ID < data.Nodes[j].ID })
	sort.Slice(data.Edges, func(i, j int) bool {
		if data.Edges[i].From != data.Edges[j].From {
			return data.Edges[i].From < data.Edges[j].From
		}
		return data.Edges[i].To < data.Edges[j].To
	})

	data.Metadata.NodeCount = len(data.Nodes)
	data.Metadata.EdgeCount = len(data.Edges)
	return data
}

// WriteDOT renders the graph in Graphviz DOT format.
func (ig *ImportGraph) WriteDOT(w io.Writer) error {
	return draw.DOT(ig.graph, w)
}
