package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-lawyer-be/internal/constant"
	"ai-lawyer-be/internal/repository/unitofwork"
	"ai-lawyer-be/pkg/agent"
	"ai-lawyer-be/pkg/retrieval"
	"ai-lawyer-be/pkg/retrieval/juportal"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
)

const (
	toolSearchDocuments = "search_documents"
	toolSearchCaseLaw   = "search_case_law"
)

type searchDocumentsArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchCaseLawArgs struct {
	Keywords string `json:"keywords"`
	Court    string `json:"court"`
	Ecli     string `json:"ecli"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Limit    int    `json:"limit"`
}

// registerDocumentSearchTool exposes the session's collection to the
// agent. The handler shares the request's unit of work; tool calls run
// before the persistence transaction begins, so reads are safe.
func registerDocumentSearchTool(
	registry *agent.Registry,
	searcher *retrieval.VectorSearcher,
	uow unitofwork.UnitOfWork,
	collectionId uuid.UUID,
	defaultTopK int,
	threshold float64,
) error {

	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "Natural-language search query over the document collection.",
			},
			"top_k": {
				Type:        "integer",
				Description: "Maximum number of passages to return (1-50).",
			},
		},
		Required: []string{"query"},
	}

	handler := func(ctx context.Context, raw json.RawMessage) (*agent.Result, error) {
		var args searchDocumentsArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}

		topK := defaultTopK
		if args.TopK > 0 {
			topK = retrieval.ClampTopK(args.TopK)
		}

		items, err := searcher.Search(ctx, uow, collectionId, args.Query, retrieval.SearchConfig{
			TopK:        topK,
			DBThreshold: threshold,
		})
		if err != nil {
			return nil, err
		}

		ranked := retrieval.Merge(items, topK)
		return &agent.Result{
			Content:   renderToolContext(ranked, "No matching passages found in the document collection."),
			Documents: ranked,
		}, nil
	}

	return registry.Register(
		toolSearchDocuments,
		"Search the user's document collection for passages relevant to a query. Use this before answering questions about the collection's contents.",
		schema,
		handler,
	)
}

// registerCaseLawSearchTool exposes the Juportal case-law index.
func registerCaseLawSearchTool(
	registry *agent.Registry,
	client *juportal.Client,
	defaultTopK int,
) error {

	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"keywords": {
				Type:        "string",
				Description: "Keywords to search the case-law index with.",
			},
			"court": {
				Type:        "string",
				Description: "Restrict results to one court (e.g. 'Cour de cassation').",
			},
			"ecli": {
				Type:        "string",
				Description: "Look up a specific decision by its ECLI identifier.",
			},
			"date_from": {
				Type:        "string",
				Description: "Earliest decision date, formatted YYYY-MM-DD.",
			},
			"date_to": {
				Type:        "string",
				Description: "Latest decision date, formatted YYYY-MM-DD.",
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of decisions to return.",
			},
		},
		Required: []string{"keywords"},
	}

	handler := func(ctx context.Context, raw json.RawMessage) (*agent.Result, error) {
		var args searchCaseLawArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}

		criteria := juportal.SearchCriteria{
			Keywords: args.Keywords,
			Court:    args.Court,
			Ecli:     args.Ecli,
			Limit:    args.Limit,
		}
		if t, err := time.Parse("2006-01-02", args.DateFrom); err == nil {
			criteria.DateFrom = &t
		}
		if t, err := time.Parse("2006-01-02", args.DateTo); err == nil {
			criteria.DateTo = &t
		}

		items, err := client.Search(ctx, criteria)
		if err != nil {
			return nil, err
		}

		topK := defaultTopK
		if args.Limit > 0 {
			topK = retrieval.ClampTopK(args.Limit)
		}

		ranked := retrieval.Merge(items, topK)
		return &agent.Result{
			Content:   renderToolContext(ranked, "No matching decisions found in the case-law index."),
			Documents: ranked,
		}, nil
	}

	return registry.Register(
		toolSearchCaseLaw,
		"Search Belgian case law on Juportal by keywords, court, ECLI or date range. Cite returned decisions by their ECLI.",
		schema,
		handler,
	)
}

// renderToolContext formats ranked results as the tool message fed back
// to the model, one numbered source per result.
func renderToolContext(ranked []retrieval.RankedResult, emptyText string) string {
	if len(ranked) == 0 {
		return emptyText
	}

	var sb strings.Builder
	for _, res := range ranked {
		content := res.Content
		if res.Title != "" {
			content = fmt.Sprintf("%s\n%s", res.Title, content)
		}
		if res.External != nil && res.External.CaseId != "" {
			content = fmt.Sprintf("[%s] %s", res.External.CaseId, content)
		}
		sb.WriteString(constant.FormatContextSource(res.Rank, content))
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// buildAgentRegistry wires the tools available for one query. A session
// without a collection gets no document tool; the case-law tool is
// always offered.
func buildAgentRegistry(
	searcher *retrieval.VectorSearcher,
	uow unitofwork.UnitOfWork,
	collectionId *uuid.UUID,
	juportalClient *juportal.Client,
	topK int,
	threshold float64,
	llmLogger *log.Logger,
) (*agent.Registry, error) {

	registry := agent.NewRegistry()

	if collectionId != nil {
		if err := registerDocumentSearchTool(registry, searcher, uow, *collectionId, topK, threshold); err != nil {
			return nil, err
		}
	}

	if juportalClient != nil {
		if err := registerCaseLawSearchTool(registry, juportalClient, topK); err != nil {
			return nil, err
		}
	}

	llmLogger.Printf("[DEBUG] Agent registry built (document_tool=%v)", collectionId != nil)
	return registry, nil
}
