package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
	"github.com/custodia-labs/rankpulse/internal/core/ports/driving"
)

const defaultTopK = 5

// SearchReportsInput is the input schema for the search_reports tool.
type SearchReportsInput struct {
	Query    string   `json:"query" jsonschema:"free-text query to match against stored reports"`
	TopK     int      `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
	DocTypes []string `json:"doc_types,omitempty" jsonschema:"restrict to RULE, DAILY or CUSTOM"`
	DateFrom string   `json:"date_from,omitempty" jsonschema:"inclusive lower report date, YYYY-MM-DD"`
	DateTo   string   `json:"date_to,omitempty" jsonschema:"inclusive upper report date, YYYY-MM-DD"`
}

// SearchReportsOutput is the output schema for the search_reports tool.
type SearchReportsOutput struct {
	Results []ChunkOutput `json:"results"`
	Count   int           `json:"count"`
}

// ChunkOutput represents a single retrieved chunk.
type ChunkOutput struct {
	DocID      string  `json:"doc_id"`
	Title      string  `json:"title"`
	DocType    string  `json:"doc_type"`
	ReportDate string  `json:"report_date,omitempty"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

// BuildContextInput is the input schema for the build_context tool.
type BuildContextInput struct {
	Query string            `json:"query" jsonschema:"the user's question or report request"`
	Cards []domain.DataCard `json:"cards,omitempty" jsonschema:"attached data blocks"`
	Mode  string            `json:"mode,omitempty" jsonschema:"chat (default) or custom"`
}

// BuildContextOutput is the output schema for the build_context tool.
type BuildContextOutput struct {
	Context string `json:"context"`
}

// DailyReportInput is the input schema for the generate_daily_report tool.
type DailyReportInput struct {
	Date       string `json:"date,omitempty" jsonschema:"report date YYYY-MM-DD (default today)"`
	TargetHour *int   `json:"target_hour,omitempty" jsonschema:"snapshot hour to compare, 0-23 (default from settings)"`
	Save       bool   `json:"save,omitempty" jsonschema:"persist and index the report"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	ID string `json:"id" jsonschema:"document id, e.g. daily_2025-01-31"`
}

// DocumentOutput is a stored report.
type DocumentOutput struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	ReportDate string `json:"report_date,omitempty"`
	CreatedAt  string `json:"created_at"`
	Body       string `json:"body"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_reports",
		Description: "Semantic search over stored rule, daily and custom reports",
	}, s.handleSearchReports)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_context",
		Description: "Assemble attached data and relevant past reports into prompt context",
	}, s.handleBuildContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_daily_report",
		Description: "Generate the daily ranking report for a date",
	}, s.handleGenerateDaily)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_document",
		Description: "Fetch a stored report by id",
	}, s.handleGetDocument)
}

// handleSearchReports handles the search_reports tool invocation.
func (s *Server) handleSearchReports(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchReportsInput,
) (*mcp.CallToolResult, SearchReportsOutput, error) {
	q, err := searchQuery(input)
	if err != nil {
		res, err := toolError(err)
		return res, SearchReportsOutput{Results: []ChunkOutput{}}, err
	}

	hits, err := s.ports.Retrieval.Search(ctx, q)
	if err != nil {
		res, err := toolError(err)
		return res, SearchReportsOutput{Results: []ChunkOutput{}}, err
	}

	output := SearchReportsOutput{
		Results: make([]ChunkOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		output.Results[i] = ChunkOutput{
			DocID:      hits[i].DocID,
			Title:      hits[i].Title,
			DocType:    hits[i].DocType.String(),
			ReportDate: hits[i].ReportDateString(),
			Similarity: hits[i].Similarity,
			Content:    hits[i].Content,
		}
	}
	return nil, output, nil
}

func searchQuery(input SearchReportsInput) (domain.SearchQuery, error) {
	if strings.TrimSpace(input.Query) == "" {
		return domain.SearchQuery{}, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	q := domain.SearchQuery{Query: input.Query, TopK: input.TopK}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	for _, name := range input.DocTypes {
		t, err := domain.ParseDocType(name)
		if err != nil {
			return domain.SearchQuery{}, err
		}
		q.DocTypes = append(q.DocTypes, t)
	}
	if input.DateFrom != "" {
		d, err := domain.ParseDate(input.DateFrom)
		if err != nil {
			return domain.SearchQuery{}, err
		}
		q.DateFrom = &d
	}
	if input.DateTo != "" {
		d, err := domain.ParseDate(input.DateTo)
		if err != nil {
			return domain.SearchQuery{}, err
		}
		q.DateTo = &d
	}
	return q, nil
}

// handleBuildContext handles the build_context tool invocation.
func (s *Server) handleBuildContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildContextInput,
) (*mcp.CallToolResult, BuildContextOutput, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(input.Mode) {
	case "", "chat":
		text, err = s.ports.Retrieval.BuildChatContext(ctx, driving.ChatContextInput{
			UserQuery:          input.Query,
			Cards:              input.Cards,
			IncludePastReports: true,
		})
	case "custom":
		text, err = s.ports.Retrieval.BuildCustomReportContext(ctx, driving.CustomContextInput{
			UserQuery:             input.Query,
			Cards:                 input.Cards,
			IncludeSimilarReports: true,
		})
	default:
		err = fmt.Errorf("%w: mode %q", domain.ErrInvalidInput, input.Mode)
	}
	if err != nil {
		res, err := toolError(err)
		return res, BuildContextOutput{}, err
	}
	return nil, BuildContextOutput{Context: text}, nil
}

// handleGenerateDaily handles the generate_daily_report tool invocation.
// Report failures come back inside the result with ok false.
func (s *Server) handleGenerateDaily(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DailyReportInput,
) (*mcp.CallToolResult, domain.DailyReportResult, error) {
	if s.ports.Reports == nil {
		res, err := toolError(errToolUnavailable)
		return res, domain.DailyReportResult{ReviewReasons: []string{}}, err
	}

	in := domain.DailyReportInput{TargetHour: -1, Save: input.Save}
	if input.TargetHour != nil {
		in.TargetHour = *input.TargetHour
		if in.TargetHour < 0 || in.TargetHour > 23 {
			res, err := toolError(fmt.Errorf("%w: target_hour %d is outside 0-23", domain.ErrInvalidInput, in.TargetHour))
			return res, domain.DailyReportResult{ReviewReasons: []string{}}, err
		}
	}
	if input.Date != "" {
		d, err := domain.ParseDate(input.Date)
		if err != nil {
			res, err := toolError(err)
			return res, domain.DailyReportResult{ReviewReasons: []string{}}, err
		}
		in.Date = d
	}

	return nil, s.ports.Reports.GenerateDaily(ctx, in), nil
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	if s.ports.Documents == nil {
		res, err := toolError(errToolUnavailable)
		return res, DocumentOutput{}, err
	}

	doc, err := s.ports.Documents.Get(ctx, input.ID)
	if err != nil {
		res, err := toolError(err)
		return res, DocumentOutput{}, err
	}
	return nil, documentOutput(doc), nil
}

func documentOutput(doc *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:         doc.ID,
		Type:       doc.Type.String(),
		Title:      doc.Title,
		ReportDate: doc.ReportDateString(),
		CreatedAt:  doc.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		Body:       doc.Body,
	}
}
