package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"repolens/internal/core/analysis"
	domainerrors "repolens/internal/core/errors"
	"repolens/internal/core/ports"
	"repolens/internal/data/history"
	"repolens/internal/engine/deptree"
	"repolens/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

// Ingest records the document in history and, for repositories, renders its
// dependency forest. A document without a key (a bare dependency graph) is
// rendered but not recorded.
func (s *analysisService) Ingest(ctx context.Context, doc analysis.Document) (ports.IngestResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.Ingest")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return ports.IngestResult{}, err
	}
	if s.app == nil {
		return ports.IngestResult{}, fmt.Errorf("app is required")
	}
	if doc.Repo == nil && doc.Profile == nil {
		return ports.IngestResult{}, domainerrors.New(domainerrors.CodeValidationError, "analysis document is empty")
	}

	entry := doc.HistoryEntry()
	span.SetAttributes(
		attribute.String("analysis.kind", string(doc.Kind())),
		attribute.String("analysis.key", entry.Key),
	)

	result := ports.IngestResult{Entry: entry}
	if strings.TrimSpace(entry.Key) != "" {
		if err := s.app.historyCache().Record(ctx, entry); err != nil {
			return ports.IngestResult{}, domainerrors.AddContext(err, domainerrors.CtxOperation, "record_history")
		}
		if recorded := s.app.historyCache().List(ctx); len(recorded) > 0 && recorded[0].Key == entry.Key {
			result.Entry = recorded[0]
		}
	} else {
		slog.Debug("document has no key, skipping history", "kind", doc.Kind())
	}

	if doc.Kind() == history.KindRepository {
		graph := doc.Graph()
		span.SetAttributes(attribute.Int("graph.edges", graph.EdgeCount()))
		if indexed, ok := doc.Repo.IndexedTime(); ok {
			span.SetAttributes(attribute.Int64("analysis.indexed_at_ms", indexed.UnixMilli()))
		}
		if len(doc.Repo.Files) > 0 {
			slog.Debug("repository languages", "key", entry.Key, "languages", doc.Repo.LanguageCounts())
		}
		if dangling := graph.Dangling(); len(dangling) > 0 {
			slog.Debug("graph references files it does not describe", "count", len(dangling), "sample", dangling[0])
		}
		result.Forest = s.app.Renderer().RenderAll(graph)
		result.Stats = deptree.Collect(result.Forest)
	}
	result.Empty = len(result.Forest) == 0

	slog.Info("analysis ingested",
		"kind", doc.Kind(),
		"key", entry.Key,
		"roots", result.Stats.Roots,
		"cycles", result.Stats.Cycles,
	)
	return result, nil
}

// RenderGraph renders every root, or only root when it is non-empty.
func (s *analysisService) RenderGraph(ctx context.Context, graph deptree.Graph, root string) ([]*deptree.Node, deptree.Stats) {
	_, span := observability.Tracer.Start(ctx, "analysisService.RenderGraph",
		trace.WithAttributes(attribute.String("tree.root", root)))
	defer span.End()

	var forest []*deptree.Node
	if root = strings.TrimSpace(root); root != "" {
		forest = []*deptree.Node{s.app.Renderer().Render(root, graph)}
	} else {
		forest = s.app.Renderer().RenderAll(graph)
	}
	stats := deptree.Collect(forest)
	span.SetAttributes(attribute.Int("tree.roots", stats.Roots), attribute.Int("tree.cycles", stats.Cycles))
	return forest, stats
}

func (s *analysisService) History(ctx context.Context) []history.Entry {
	return s.app.historyCache().List(ctx)
}

func (s *analysisService) ClearHistory(ctx context.Context) error {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.ClearHistory")
	defer span.End()

	if err := s.app.historyCache().Clear(ctx); err != nil {
		return domainerrors.AddContext(err, domainerrors.CtxOperation, "clear_history")
	}
	slog.Info("history cleared")
	return nil
}

// IngestFile loads and ingests one analysis result file.
func (a *App) IngestFile(ctx context.Context, path string) (ports.IngestResult, error) {
	doc, err := analysis.Load(path)
	if err != nil {
		return ports.IngestResult{}, err
	}
	result, err := a.AnalysisService().Ingest(ctx, doc)
	if err != nil {
		return ports.IngestResult{}, domainerrors.AddContext(err, domainerrors.CtxPath, path)
	}
	return result, nil
}
