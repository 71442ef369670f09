package ports

import (
	"context"

	"repolens/internal/core/analysis"
	"repolens/internal/data/history"
	"repolens/internal/engine/deptree"
)

// KeyValueStore is the persistence port behind the history cache.
type KeyValueStore = history.Store

// HistoryCache abstracts the bounded most-recent-first analysis log.
type HistoryCache interface {
	Record(ctx context.Context, entry history.Entry) error
	List(ctx context.Context) []history.Entry
	Clear(ctx context.Context) error
}

// TreeRenderer abstracts dependency-graph to tree shaping.
type TreeRenderer interface {
	Render(root string, graph deptree.Graph) *deptree.Node
	RenderAll(graph deptree.Graph) []*deptree.Node
}

// IngestResult summarizes one ingested analysis document.
type IngestResult struct {
	Entry  history.Entry
	Forest []*deptree.Node
	Stats  deptree.Stats
	// Empty is true when the document carried no renderable dependencies.
	Empty bool
}

// AnalysisService is the driving port used by the CLI and terminal UI.
type AnalysisService interface {
	Ingest(ctx context.Context, doc analysis.Document) (IngestResult, error)
	RenderGraph(ctx context.Context, graph deptree.Graph, root string) ([]*deptree.Node, deptree.Stats)
	History(ctx context.Context) []history.Entry
	ClearHistory(ctx context.Context) error
}
