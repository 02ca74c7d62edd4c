package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// IngestInput is the input schema for ingest_document and add_document.
type IngestInput struct {
	Path         string `json:"path" jsonschema:"absolute path of the PDF or text file"`
	Name         string `json:"name,omitempty" jsonschema:"display name, defaults to the file name"`
	AllowRebuild bool   `json:"allow_rebuild,omitempty" jsonschema:"add only: replace the document set when the backend cannot append"`
}

// DocumentOutput describes an ingested or added document.
type DocumentOutput struct {
	Message     string `json:"message"`
	Fingerprint string `json:"file_hash"`
	Name        string `json:"file_name"`
	PagesCount  int    `json:"pages_count"`
	ChunksCount int    `json:"chunks_count"`
	Backend     string `json:"vector_store_type"`
	CacheHit    bool   `json:"cache_hit"`
}

// DeleteInput is the input schema for delete_document.
type DeleteInput struct {
	Source string `json:"source" jsonschema:"source file name as shown by list_documents"`
}

// DeleteOutput is the output schema for delete_document.
type DeleteOutput struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}

// ListInput is the empty input schema for list_documents.
type ListInput struct{}

// ListOutput is the output schema for list_documents.
type ListOutput struct {
	Documents []SourceOutput `json:"documents"`
	Count     int            `json:"count"`
}

// SourceOutput is one document in the active set.
type SourceOutput struct {
	Source     string `json:"source"`
	ChunkCount int    `json:"chunk_count"`
	AddedAt    string `json:"added_at,omitempty"`
}

// AskInput is the input schema for ask_question.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"groups questions of one conversation in the history"`
	TopK      int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
}

// SummarizeInput is the input schema for summarize_document.
type SummarizeInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"groups questions of one conversation in the history"`
}

// AnswerOutput is the output schema for ask_question and summarize_document.
type AnswerOutput struct {
	Question         string          `json:"question"`
	Answer           string          `json:"answer"`
	ProcessingTimeMS int64           `json:"processing_time_ms"`
	Sources          []ExcerptOutput `json:"sources"`
}

// ExcerptOutput is one retrieved chunk.
type ExcerptOutput struct {
	Source  string  `json:"source"`
	Page    int     `json:"page,omitempty"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Make a PDF the active document set. Re-ingesting the same file is served from cache.",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_document",
		Description: "Append a PDF to the active document set",
	}, s.handleAdd)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Remove a document from the active document set",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents in the active document set",
	}, s.handleList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question from the active documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize_document",
		Description: "Summarise the active documents",
	}, s.handleSummarize)
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	res := s.ports.Index.Ingest(ctx, input.Path, input.Name)
	if !res.Success {
		return nil, DocumentOutput{}, resultError(res.Message, res.Err)
	}
	return nil, documentOutput(res), nil
}

func (s *Server) handleAdd(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, DocumentOutput, error) {
	res := s.ports.Index.Add(ctx, input.Path, input.Name, domain.AddOptions{AllowRebuild: input.AllowRebuild})
	if !res.Success {
		return nil, DocumentOutput{}, resultError(res.Message, res.Err)
	}
	return nil, documentOutput(res), nil
}

func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	res := s.ports.Index.Delete(ctx, input.Source)
	if !res.Success {
		return nil, DeleteOutput{}, resultError(res.Message, res.Err)
	}
	return nil, DeleteOutput{Message: res.Message, DeletedCount: res.DeletedCount}, nil
}

func (s *Server) handleList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListInput,
) (*mcp.CallToolResult, ListOutput, error) {
	res := s.ports.Index.List(ctx)
	if !res.Success {
		return nil, ListOutput{}, resultError(res.Message, res.Err)
	}

	output := ListOutput{
		Documents: make([]SourceOutput, len(res.Documents)),
		Count:     len(res.Documents),
	}
	for i, d := range res.Documents {
		output.Documents[i] = SourceOutput{Source: d.Source, ChunkCount: d.ChunkCount, AddedAt: d.AddedAt}
	}
	return nil, output, nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	res := s.ports.Query.Ask(ctx, domain.AskRequest{
		Question:  input.Question,
		SessionID: input.SessionID,
		UserID:    s.ports.UserID,
		TopK:      input.TopK,
	})
	if !res.Success {
		return nil, AnswerOutput{}, resultError(res.Message, res.Err)
	}
	return nil, answerOutput(res), nil
}

func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	res := s.ports.Query.Summarize(ctx, domain.AskRequest{
		SessionID: input.SessionID,
		UserID:    s.ports.UserID,
	})
	if !res.Success {
		return nil, AnswerOutput{}, resultError(res.Message, res.Err)
	}
	return nil, answerOutput(res), nil
}

func documentOutput(res domain.IngestResult) DocumentOutput {
	out := DocumentOutput{Message: res.Message, CacheHit: res.CacheHit}
	if d := res.Document; d != nil {
		out.Fingerprint = d.Fingerprint
		out.Name = d.Name
		out.PagesCount = d.PagesCount
		out.ChunksCount = d.ChunksCount
		out.Backend = string(d.Backend)
	}
	return out
}

func answerOutput(res domain.AskResult) AnswerOutput {
	out := AnswerOutput{
		Question:         res.Question,
		Answer:           res.Answer,
		ProcessingTimeMS: res.ProcessingTime.Milliseconds(),
		Sources:          make([]ExcerptOutput, len(res.Sources)),
	}
	for i, sc := range res.Sources {
		out.Sources[i] = ExcerptOutput{
			Source:  sc.Chunk.Source(),
			Page:    sc.Chunk.Page(),
			Score:   sc.Score,
			Content: sc.Chunk.Content,
		}
	}
	return out
}

// resultError turns a failed result into a tool error.
func resultError(message string, err error) error {
	if err != nil {
		return err
	}
	return errors.New(message)
}
