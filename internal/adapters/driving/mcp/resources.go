package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for paperqa resources.
	uriScheme = "paperqa://"

	documentURI = uriScheme + "document"
	historyURI  = uriScheme + "history"

	historyLimit = 50
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentURI,
		Name:        "document",
		Description: "The active document set and its sources",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	if s.ports.History != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         historyURI,
			Name:        "history",
			Description: "Recent questions and answers, newest first",
			MIMEType:    "application/json",
		}, s.handleHistoryResource)
	}
}

// handleDocumentResource describes the active document set.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info := s.ports.Index.Info(ctx)
	if info.Err != nil {
		return nil, fmt.Errorf("reading document info: %w", info.Err)
	}
	if !info.HasDocument {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	type documentInfo struct {
		CollectionID string         `json:"collection_id"`
		Backend      string         `json:"vector_store_type"`
		VectorCount  int            `json:"vector_count"`
		Fingerprint  string         `json:"file_hash,omitempty"`
		Name         string         `json:"file_name,omitempty"`
		PagesCount   int            `json:"pages_count,omitempty"`
		IngestedAt   *time.Time     `json:"timestamp,omitempty"`
		Sources      []SourceOutput `json:"sources"`
	}

	out := documentInfo{Sources: []SourceOutput{}}
	if c := info.Collection; c != nil {
		out.CollectionID = c.ID
		out.Backend = string(c.Backend)
		out.VectorCount = c.VectorCount
	}
	if d := info.Document; d != nil {
		out.Fingerprint = d.Fingerprint
		out.Name = d.Name
		out.PagesCount = d.PagesCount
		ts := d.IngestedAt
		out.IngestedAt = &ts
	}
	if list := s.ports.Index.List(ctx); list.Success {
		for _, d := range list.Documents {
			out.Sources = append(out.Sources, SourceOutput{Source: d.Source, ChunkCount: d.ChunkCount, AddedAt: d.AddedAt})
		}
	}

	return jsonContents(req.Params.URI, out)
}

// handleHistoryResource returns recent Q&A records across sessions.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	records, err := s.ports.History.Recent(ctx, "", historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	type recordInfo struct {
		SessionID string    `json:"session_id,omitempty"`
		Question  string    `json:"question"`
		Answer    string    `json:"answer"`
		Success   bool      `json:"success"`
		LatencyMS int64     `json:"latency_ms"`
		CreatedAt time.Time `json:"created_at"`
	}

	infos := make([]recordInfo, len(records))
	for i, r := range records {
		infos[i] = recordInfo{
			SessionID: r.SessionID,
			Question:  r.Question,
			Answer:    r.Answer,
			Success:   r.Success,
			LatencyMS: r.Latency.Milliseconds(),
			CreatedAt: r.CreatedAt,
		}
	}
	return jsonContents(req.Params.URI, infos)
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
