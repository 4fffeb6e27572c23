package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mpernat/vellum/internal/document"
	"github.com/mpernat/vellum/internal/errors"
	"github.com/mpernat/vellum/internal/render"
	"github.com/mpernat/vellum/internal/vcs"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	docs      *document.Store
	committer *vcs.Committer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(docs *document.Store, committer *vcs.Committer) *Handlers {
	return &Handlers{docs: docs, committer: committer}
}

// Request types for each tool

// ReadRequest represents the arguments for document_read.
type ReadRequest struct {
	Name     string `json:"name"`
	Rendered bool   `json:"rendered,omitempty"`
}

// CreateRequest represents the arguments for document_create.
type CreateRequest struct {
	Name string `json:"name"`
}

// WriteRequest represents the arguments for document_write.
type WriteRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// DuplicateRequest represents the arguments for document_duplicate.
type DuplicateRequest struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

// DeleteRequest represents the arguments for document_delete.
type DeleteRequest struct {
	Name string `json:"name"`
}

// Handler implementations

// HandleList handles the document_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := h.docs.List()
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"documents": names,
		"count":     len(names),
	})
}

// HandleRead handles the document_read tool call.
func (h *Handlers) HandleRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ReadRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Name == "" {
		return errorResult(errors.NewInvalidRequest("name is required")), nil
	}

	content, err := h.docs.Read(input.Name)
	if err != nil {
		return errorResult(err), nil
	}

	payload := map[string]any{
		"name":    input.Name,
		"content": content,
	}
	if input.Rendered {
		if out := render.Render(input.Name, content); out.HTML {
			payload["html"] = out.Body
		}
	}

	return successResult(payload)
}

// HandleCreate handles the document_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.docs.Create(input.Name); err != nil {
		return errorResult(err), nil
	}
	h.committer.Record(vcs.ActionCreate, input.Name)

	return successResult(map[string]any{
		"name":    input.Name,
		"message": fmt.Sprintf("%s has been created.", input.Name),
	})
}

// HandleWrite handles the document_write tool call.
func (h *Handlers) HandleWrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[WriteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	// Write only replaces; creation goes through document_create.
	if !h.docs.Exists(input.Name) {
		return errorResult(errors.NewNotFound(input.Name)), nil
	}
	if err := h.docs.Write(input.Name, input.Content); err != nil {
		return errorResult(err), nil
	}
	h.committer.Record(vcs.ActionUpdate, input.Name)

	return successResult(map[string]any{
		"name":    input.Name,
		"message": fmt.Sprintf("%s was updated.", input.Name),
	})
}

// HandleDuplicate handles the document_duplicate tool call.
func (h *Handlers) HandleDuplicate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DuplicateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Source == "" {
		return errorResult(errors.NewInvalidRequest("source is required")), nil
	}

	if err := h.docs.Duplicate(input.Source, input.Name); err != nil {
		return errorResult(err), nil
	}
	h.committer.Record(vcs.ActionDuplicate, input.Name)

	return successResult(map[string]any{
		"source":  input.Source,
		"name":    input.Name,
		"message": fmt.Sprintf("%s has been created.", input.Name),
	})
}

// HandleDelete handles the document_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Name == "" {
		return errorResult(errors.NewInvalidRequest("name is required")), nil
	}

	if err := h.docs.Delete(input.Name); err != nil {
		return errorResult(err), nil
	}
	h.committer.Record(vcs.ActionDelete, input.Name)

	return successResult(map[string]any{
		"name":    input.Name,
		"message": fmt.Sprintf("%s has been deleted.", input.Name),
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if vErr, ok := err.(*errors.VellumError); ok {
		errorObj := map[string]any{
			"code":    vErr.Code,
			"message": vErr.Message,
			"status":  vErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths
		if vErr.Code != errors.ErrInternal && vErr.Code != errors.ErrIO && vErr.Details != nil {
			errorObj["details"] = vErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
