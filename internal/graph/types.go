package graph

import "time"

// NodeKind distinguishes scanned files from the modules they import.
type NodeKind string

const (
	NodeFile   NodeKind = "file"
	NodeModule NodeKind = "module"
)

// Category classifies a module node after the scan filters.
type Category string

const (
	CategoryPackage Category = "package"
	CategoryStdlib  Category = "stdlib"
	CategoryLocal   Category = "local"
)

// Node is a vertex of the import graph.
type Node struct {
	ID       string   `json:"id"`                 // "file:<path>" or "module:<name>"
	Kind     NodeKind `json:"kind"`               // Type of node
	Name     string   `json:"name"`               // File path or module name
	Category Category `json:"category,omitempty"` // Modules only
	Failure  string   `json:"failure,omitempty"`  // Files only, failure class if analysis failed
}

// Edge records that a file imports a module.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphData is the serialized form of an import graph.
type GraphData struct {
	Metadata GraphMetadata `json:"_metadata"`
	Nodes    []Node        `json:"nodes"`
	Edges    []Edge        `json:"edges"`
}

// GraphMetadata contains metadata about the graph.
type GraphMetadata struct {
	Version     string    `json:"version"`
	ScanID      string    `json:"scan_id"`
	Root        string    `json:"root"`
	GeneratedAt time.Time `json:"generated_at"`
	NodeCount   int       `json:"node_count"`
	EdgeCount   int       `json:"edge_count"`
}

// ModuleUsage is one imported module with the number of files importing it.
type ModuleUsage struct {
	Name      string   `json:"name" yaml:"name"`
	Category  Category `json:"category" yaml:"category"`
	Importers int      `json:"importers" yaml:"importers"`
}
