package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/rankpulse/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for rankpulse resources.
	uriScheme = "rankpulse://"

	// reportListLimit bounds the report listing resource.
	reportListLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "reports",
		Name:        "reports",
		Description: "Most recent stored reports, newest first",
		MIMEType:    "application/json",
	}, s.handleReportsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "rules/latest",
		Name:        "latest-rule",
		Description: "The report-writing rule document in effect",
		MIMEType:    "text/markdown",
	}, s.handleLatestRuleResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Markdown body of a stored report",
		MIMEType:    "text/markdown",
	}, s.handleDocumentContentResource)
}

// handleReportsResource lists stored reports without their bodies.
func (s *Server) handleReportsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return jsonResource(req.Params.URI, "[]"), nil
	}

	docs, err := s.ports.Documents.List(ctx, nil, reportListLimit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	type reportInfo struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Title      string `json:"title"`
		ReportDate string `json:"report_date,omitempty"`
		URI        string `json:"uri"`
	}

	infos := make([]reportInfo, len(docs))
	for i := range docs {
		infos[i] = reportInfo{
			ID:         docs[i].ID,
			Type:       docs[i].Type.String(),
			Title:      docs[i].Title,
			ReportDate: docs[i].ReportDateString(),
			URI:        uriScheme + "documents/" + docs[i].ID,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling reports: %w", err)
	}
	return jsonResource(req.Params.URI, string(data)), nil
}

// handleLatestRuleResource returns the newest RULE document body.
func (s *Server) handleLatestRuleResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Documents.LatestByType(ctx, domain.DocTypeRule)
	if err != nil {
		if isNotFound(err) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("loading rule document: %w", err)
	}
	return markdownResource(req.Params.URI, doc.Body), nil
}

// handleDocumentContentResource returns the body of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// rankpulse://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Documents.Get(ctx, docID)
	if err != nil {
		if isNotFound(err) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return markdownResource(req.Params.URI, doc.Body), nil
}

func jsonResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

func markdownResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		}},
	}
}

// extractDocumentID extracts the document ID from a URI like rankpulse://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
