package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"drawio-server/internal/diagram/cells"
	"drawio-server/internal/diagram/document"
	"drawio-server/internal/diagram/models"
	"drawio-server/internal/diagram/patch"
)

func (s *Server) registerDiagramTools() {
	s.mcp.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new diagram session with real-time browser preview. Returns the URL to open. Call this first before creating or editing diagrams."),
	), s.handleStartSession)

	s.mcp.AddTool(mcp.NewTool("create_diagram",
		mcp.WithDescription("Create a new draw.io diagram. Resets any existing diagram."),
		mcp.WithString("name", mcp.Description("Name of the diagram (default: Untitled)")),
	), s.handleCreateDiagram)

	s.mcp.AddTool(mcp.NewTool("add_shape",
		mcp.WithDescription("Add a shape/node to the diagram. Supported types: rectangle, ellipse, diamond, parallelogram, hexagon, cylinder, cloud."),
		mcp.WithString("label", mcp.Description("Label text for the shape"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X coordinate (default: 0)")),
		mcp.WithNumber("y", mcp.Description("Y coordinate (default: 0)")),
		mcp.WithNumber("width", mcp.Description("Width of the shape (default: 120)")),
		mcp.WithNumber("height", mcp.Description("Height of the shape (default: 60)")),
		mcp.WithString("shape_type", mcp.Description("Type of shape (default: rectangle)")),
		mcp.WithString("style", mcp.Description("Custom draw.io style string (optional, replaces the type default)")),
	), s.handleAddShape)

	s.mcp.AddTool(mcp.NewTool("add_connection",
		mcp.WithDescription("Add a connection/edge between two shapes. Arrow types: classic, block, open, oval, diamond, none."),
		mcp.WithString("source_id", mcp.Description("ID of the source shape"), mcp.Required()),
		mcp.WithString("target_id", mcp.Description("ID of the target shape"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Label text for the connection (optional)")),
		mcp.WithString("arrow_type", mcp.Description("Arrow type (default: classic)")),
		mcp.WithString("style", mcp.Description("Custom draw.io style string (optional)")),
		mcp.WithString("label_position", mcp.Description("Label position along the edge: left, right or center (optional)")),
		mcp.WithNumber("label_offset_x", mcp.Description("Label offset in pixels, horizontal (optional)")),
		mcp.WithNumber("label_offset_y", mcp.Description("Label offset in pixels, vertical (optional)")),
		mcp.WithString("label_background_color", mcp.Description("Label background: hex color or 'none' (optional)")),
	), s.handleAddConnection)

	s.mcp.AddTool(mcp.NewTool("display_diagram",
		mcp.WithDescription("Push the current diagram to the browser preview and record it in the session history."),
	), s.handleDisplayDiagram)

	s.mcp.AddTool(mcp.NewTool("edit_diagram",
		mcp.WithDescription("Edit the session's diagram with ID-based operations. Call get_diagram first to see cell IDs. Pass a JSON array of operations: [{\"operation\": \"update\"|\"add\"|\"delete\", \"cell_id\": \"...\", \"new_xml\": \"<mxCell .../>\"}]."),
		mcp.WithString("operations", mcp.Description("JSON array of operation objects"), mcp.Required()),
	), s.handleEditDiagram)

	s.mcp.AddTool(mcp.NewTool("get_diagram",
		mcp.WithDescription("Get the current diagram XML plus a summary of its cells. Fetches the latest state from the browser if a session is active."),
	), s.handleGetDiagram)

	s.mcp.AddTool(mcp.NewTool("list_shapes",
		mcp.WithDescription("List all shapes currently in the diagram with their IDs and labels."),
	), s.handleListShapes)

	s.mcp.AddTool(mcp.NewTool("export_diagram",
		mcp.WithDescription("Export the current diagram to a .drawio file on disk."),
		mcp.WithString("path", mcp.Description("File path to save the diagram (e.g. ./diagram.drawio)"), mcp.Required()),
	), s.handleExportDiagram)

	s.mcp.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Get the version history for the current session. Pass an index to retrieve a specific version (0 = oldest, -1 = newest)."),
		mcp.WithNumber("index", mcp.Description("Version index to retrieve (optional)")),
	), s.handleGetHistory)
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleStartSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := s.sessions.Start()

	s.mu.Lock()
	s.session = id
	s.mu.Unlock()

	url := fmt.Sprintf("http://localhost:%s/?mcp=%s", s.previewPort, id)
	log.Printf("[MCP] Session started: %s", id)

	return mcp.NewToolResultText(fmt.Sprintf(
		"Session started successfully!\n\nSession ID: %s\nBrowser URL: %s\n\nOpen the URL to see real-time diagram updates.", id, url)), nil
}

func (s *Server) handleCreateDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strArg(req.GetArguments(), "name", "Untitled")

	s.mu.Lock()
	s.doc = document.New(name)
	s.mu.Unlock()

	return mcp.NewToolResultText(fmt.Sprintf(
		"Created new diagram: %s\n\nYou can now add shapes and connections. Use display_diagram to show it in the browser.", name)), nil
}

func (s *Server) handleAddShape(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	label, ok := args["label"].(string)
	if !ok {
		return mcp.NewToolResultError("label is required"), nil
	}

	kind := models.ShapeKind(strArg(args, "shape_type", string(models.ShapeRectangle)))
	if !kind.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported shape_type %q", kind)), nil
	}

	s.mu.Lock()
	id := s.currentDocument().AddShape(
		label,
		floatArg(args, "x", 0),
		floatArg(args, "y", 0),
		floatArg(args, "width", 120),
		floatArg(args, "height", 60),
		kind,
		strArg(args, "style", ""),
	)
	s.mu.Unlock()

	return mcp.NewToolResultText(fmt.Sprintf("Added shape '%s' with ID: %s", label, id)), nil
}

func (s *Server) handleAddConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	sourceID, _ := args["source_id"].(string)
	targetID, _ := args["target_id"].(string)
	if sourceID == "" || targetID == "" {
		return mcp.NewToolResultError("source_id and target_id are required"), nil
	}

	arrow := models.ArrowKind(strArg(args, "arrow_type", string(models.ArrowClassic)))
	if !arrow.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported arrow_type %q", arrow)), nil
	}

	position := strArg(args, "label_position", "")
	switch position {
	case "", "left", "right", "center":
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported label_position %q", position)), nil
	}

	placement := &models.LabelPlacement{
		Position:        position,
		DX:              floatPtrArg(args, "label_offset_x"),
		DY:              floatPtrArg(args, "label_offset_y"),
		BackgroundColor: strArg(args, "label_background_color", ""),
	}

	s.mu.Lock()
	id, err := s.currentDocument().AddConnection(
		sourceID, targetID,
		strArg(args, "label", ""),
		arrow,
		strArg(args, "style", ""),
		placement,
	)
	s.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Added connection from %s to %s with ID: %s", sourceID, targetID, id)), nil
}

func (s *Server) handleDisplayDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	doc := s.currentDocument()
	xml := doc.ToXML()
	session := s.session
	shapes, conns := doc.ShapeCount(), doc.ConnectionCount()
	s.mu.Unlock()

	if session == "" {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Diagram XML generated:\n\n%s\n\nNote: No active browser session. Call start_session first for real-time preview, or save this XML to a .drawio file.", xml)), nil
	}

	// Keep the state the browser may have edited before overwriting it.
	if prior, ok := s.sessions.Get(session); ok && prior.XML != "" {
		s.history.Append(session, prior.XML, prior.SVG)
	}
	s.sessions.Set(session, xml, "")
	s.history.Append(session, xml, "")

	return mcp.NewToolResultText(fmt.Sprintf(
		"Diagram displayed in browser!\n\nXML length: %d characters\nShapes: %d\nConnections: %d", len(xml), shapes, conns)), nil
}

func (s *Server) handleEditDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == "" {
		return mcp.NewToolResultError("No active session. Please call start_session first."), nil
	}

	state, ok := s.sessions.Get(session)
	if !ok || state.XML == "" {
		return mcp.NewToolResultError("No diagram to edit. Please create a diagram first with display_diagram."), nil
	}

	raw := strArg(req.GetArguments(), "operations", "")
	var ops []models.Operation
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid operations payload: %v", err)), nil
	}

	// Snapshot before editing so the pre-edit state stays recoverable.
	s.history.Append(session, state.XML, state.SVG)

	result := patch.Apply(state.XML, ops)
	s.sessions.Set(session, result.XML, "")
	s.history.Append(session, result.XML, "")

	var b strings.Builder
	fmt.Fprintf(&b, "Diagram edited successfully!\n\nApplied %d operation(s).", len(ops))
	if len(result.Errors) > 0 {
		b.WriteString("\n\nWarnings:")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "\n- %s %s: %s", e.Op, e.CellID, e.Message)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGetDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session != "" {
		if state, ok := s.sessions.Get(session); ok && state.XML != "" {
			return mcp.NewToolResultText(fmt.Sprintf(
				"Current diagram XML:\n\n%s\n\n%s", state.XML, cellSummary(state.XML))), nil
		}
	}

	s.mu.Lock()
	xml := s.currentDocument().ToXML()
	s.mu.Unlock()

	return mcp.NewToolResultText(fmt.Sprintf(
		"Current diagram XML:\n\n%s\n\nYou can save this to a .drawio file and open it in draw.io.", xml)), nil
}

func (s *Server) handleListShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	shapes := s.currentDocument().Shapes()
	s.mu.Unlock()

	if len(shapes) == 0 {
		return mcp.NewToolResultText("No shapes in the diagram yet."), nil
	}

	var b strings.Builder
	b.WriteString("Shapes in diagram:")
	for _, shape := range shapes {
		fmt.Fprintf(&b, "\n- %s: '%s' (%s) at (%g, %g)", shape.ID, shape.Label, shape.Kind, shape.X, shape.Y)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleExportDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strArg(req.GetArguments(), "path", "diagram.drawio")

	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	var xml string
	if session != "" {
		if state, ok := s.sessions.Get(session); ok && state.XML != "" {
			xml = state.XML
		}
	}
	if xml == "" {
		s.mu.Lock()
		xml = s.currentDocument().ToXML()
		s.mu.Unlock()
	}

	written, err := s.storage.WriteDiagram(path, xml)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error exporting diagram: %v", err)), nil
	}

	// The archive is best-effort; a failed insert must not fail the export.
	if s.archive != nil && session != "" {
		if _, err := s.archive.Save(ctx, session, written, xml); err != nil {
			log.Printf("[MCP] archive export: %v", err)
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Diagram exported successfully!\n\nFile: %s\nSize: %d characters", written, len(xml))), nil
}

func (s *Server) handleGetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == "" {
		return mcp.NewToolResultText("No active session. History is only available for browser sessions."), nil
	}

	count := s.history.Count(session)
	if count == 0 {
		return mcp.NewToolResultText("No history available yet. History is saved each time you display or edit the diagram."), nil
	}

	args := req.GetArguments()
	if _, ok := args["index"]; ok {
		index := int(floatArg(args, "index", 0))
		version, ok := s.history.Get(session, index)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("version %d not found (history has %d entries)", index, count)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Version %d of %d (saved %s):\n\n%s", index, count, version.CreatedAt.Format("15:04:05"), version.XML)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("History: %d version(s) saved for this session.", count)), nil
}

// ============================================================
// Helpers
// ============================================================

// cellSummary lists the first cells of a document for ID-based editing.
func cellSummary(xml string) string {
	all := cells.List(xml)
	if len(all) == 0 {
		return "--- Cell Summary (0 cells) ---"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- Cell Summary (%d cells) ---", len(all))
	shown := all
	if len(shown) > 20 {
		shown = shown[:20]
	}
	for _, c := range shown {
		kind := "vertex"
		if c.Edge {
			kind = "edge"
		}
		fmt.Fprintf(&b, "\n  - ID: %s, Label: %s, Type: %s", c.ID, c.Value, kind)
	}
	if len(all) > 20 {
		fmt.Fprintf(&b, "\n  ... and %d more cells", len(all)-20)
	}
	return b.String()
}

func strArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func floatArg(args map[string]any, key string, def float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return def
}

func floatPtrArg(args map[string]any, key string) *float64 {
	if v, ok := args[key].(float64); ok {
		return &v
	}
	return nil
}
