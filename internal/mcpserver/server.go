// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes studydesk tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/studydesk/internal/apperr"
	"github.com/starford/studydesk/internal/models"
	"github.com/starford/studydesk/internal/search"
	"github.com/starford/studydesk/internal/vault"
)

const formatURI = "studydesk://cornell-format"

// Study is the part of the study service the tools use.
type Study interface {
	Search(ctx context.Context, userID, query string) (search.Response, error)
	GetCornellNote(ctx context.Context, userID, id string) (models.CornellNote, error)
	CreateCornellNote(ctx context.Context, userID string, n models.CornellNote) (models.CornellNote, error)
	ListGlossary(ctx context.Context, userID string) ([]models.GlossaryTerm, error)
	ListTags(ctx context.Context, userID string) ([]models.Tag, error)
}

// Server wraps the MCP server with studydesk tools. Every tool acts on
// behalf of a single user.
type Server struct {
	mcp    *server.MCPServer
	study  Study
	userID string
}

// New creates a new MCP server with all tools registered.
func New(study Study, userID, version string) *Server {
	s := &Server{study: study, userID: userID}

	s.mcp = server.NewMCPServer(
		"Studydesk",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_study",
		mcp.WithDescription("Search Cornell notes, keywords, mind maps and tags by case-insensitive substring. "+
			"Returns at most 20 results with their navigation targets."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
	), s.searchStudy)

	s.mcp.AddTool(mcp.NewTool("read_cornell_note",
		mcp.WithDescription("Read a Cornell note as Markdown with YAML frontmatter."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id, as returned by search_study")),
	), s.readCornellNote)

	s.mcp.AddTool(mcp.NewTool("create_cornell_note",
		mcp.WithDescription("Create a Cornell note from Markdown. "+
			"Content MUST follow the Cornell note format. Read it first via "+
			"the get_note_contract tool or the "+formatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the Cornell note format")),
	), s.createCornellNote)

	s.mcp.AddTool(mcp.NewTool("list_glossary",
		mcp.WithDescription("List every glossary term with its definition, alphabetically."),
	), s.listGlossary)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the Cornell note format. "+
			"Call this before creating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Cornell Note Format",
			mcp.WithResourceDescription("Markdown format of a Cornell note."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchStudy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.study.Search(ctx, s.userID, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp.Results)
}

func (s *Server) readCornellNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.study.GetCornellNote(ctx, s.userID, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := vault.Render(n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createCornellNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := vault.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if doc.Note.Title == "" {
		return mcp.NewToolResultError("title is required"), nil
	}

	n := doc.Note
	if len(doc.TagNames) > 0 {
		tags, err := s.study.ListTags(ctx, s.userID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		n.Tags = vault.ResolveTags(tags, doc.TagNames)
	}

	created, err := s.study.CreateCornellNote(ctx, s.userID, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", created.ID)), nil
}

func (s *Server) listGlossary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	terms, err := s.study.ListGlossary(ctx, s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(terms) == 0 {
		return mcp.NewToolResultText("glossary is empty"), nil
	}
	return jsonResult(terms)
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CornellFormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     CornellFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
