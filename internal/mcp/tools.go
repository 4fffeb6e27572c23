package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var listToolDef = mcp.NewTool("document_list",
	mcp.WithDescription("List all document names in lexicographic order."),
)

var readToolDef = mcp.NewTool("document_read",
	mcp.WithDescription("Read a document. Set rendered:true to also get HTML for markdown documents."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Document filename, e.g. notes.md"),
	),
	mcp.WithBoolean("rendered",
		mcp.Description("Include rendered HTML for .md documents"),
	),
)

var createToolDef = mcp.NewTool("document_create",
	mcp.WithDescription("Create an empty document. The name must carry exactly one extension from the allowed set."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Filename for the new document"),
	),
)

var writeToolDef = mcp.NewTool("document_write",
	mcp.WithDescription("Replace a document's content in full. The document must already exist."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Filename of the document to write"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("New content, replaces the old content entirely"),
	),
)

var duplicateToolDef = mcp.NewTool("document_duplicate",
	mcp.WithDescription("Copy an existing document's content to a new name."),
	mcp.WithString("source",
		mcp.Required(),
		mcp.Description("Filename of the document to copy"),
	),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Filename for the copy"),
	),
)

var deleteToolDef = mcp.NewTool("document_delete",
	mcp.WithDescription("Delete a document."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("Filename of the document to delete"),
	),
)
