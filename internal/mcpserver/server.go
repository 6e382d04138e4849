package mcpserver

import (
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"drawio-server/internal/diagram/document"
	"drawio-server/internal/diagram/history"
	"drawio-server/internal/diagram/repository"
	"drawio-server/internal/diagram/service"
)

// ============================================================
// MCP Server
// ============================================================

// Server exposes the diagram operations as MCP tools over stdio. It owns the
// current document and the active preview session; the shared managers keep
// their own locks, doc/session are guarded here.
type Server struct {
	mcp      *server.MCPServer
	sessions *service.SessionManager
	history  *history.Store
	storage  *service.FileStorage
	archive  *repository.Repository // optional; nil disables export archiving

	previewPort string

	mu      sync.Mutex
	doc     *document.Document
	session string // active session id, "" until start_session
}

func New(sessions *service.SessionManager, hist *history.Store, storage *service.FileStorage, archive *repository.Repository, previewPort string) *Server {
	s := &Server{
		sessions:    sessions,
		history:     hist,
		storage:     storage,
		archive:     archive,
		previewPort: previewPort,
	}

	s.mcp = server.NewMCPServer(
		"mcp-drawio-server",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	s.registerDiagramTools()

	return s
}

// ServeStdio runs the MCP protocol loop on stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// currentDocument lazily creates the document so add_shape works before an
// explicit create_diagram, same as the rest of the tool surface expects.
func (s *Server) currentDocument() *document.Document {
	if s.doc == nil {
		s.doc = document.New("Untitled")
	}
	return s.doc
}
