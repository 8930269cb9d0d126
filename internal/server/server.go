// Package server exposes the ledger over HTTP: CRUD on transactions, the
// chat widget, exports, receipt uploads, and the accrual trigger.
package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ejcasil/dualledger/internal/attachment"
	"github.com/ejcasil/dualledger/internal/ledger"
)

// Config holds the web layer's settings.
type Config struct {
	Addr          string
	AdminPassword string
	SessionSecret string
	SessionTTL    time.Duration
}

// Server wires the ledger facade into a gin router.
type Server struct {
	ledger      *ledger.Ledger
	attachments *attachment.FilesystemStore
	engine      *gin.Engine
	cfg         Config
}

// New builds the router. The attachment store may be nil; receipt routes
// then answer with an error instead of registering file serving.
func New(l *ledger.Ledger, attachments *attachment.FilesystemStore, cfg Config) (*Server, error) {
	if cfg.AdminPassword == "" {
		return nil, fmt.Errorf("admin password must be configured")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("session secret must be configured")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	s := &Server{
		ledger:      l,
		attachments: attachments,
		cfg:         cfg,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	engine.POST("/login", s.handleLogin)
	engine.POST("/logout", s.handleLogout)

	api := engine.Group("/api", s.requireSession())
	{
		api.GET("/summary", s.handleSummary)
		api.POST("/initialize", s.handleInitialize)

		api.GET("/transactions", s.handleListTransactions)
		api.POST("/transactions", s.handleCreateTransaction)
		api.GET("/transactions/:id", s.handleGetTransaction)
		api.PUT("/transactions/:id", s.handleUpdateTransaction)
		api.DELETE("/transactions/:id", s.handleDeleteTransaction)

		api.POST("/transactions/:id/receipt", s.handleUploadReceipt)
		api.DELETE("/transactions/:id/receipt", s.handleClearReceipt)

		api.GET("/export.csv", s.handleExportCSV)
		api.GET("/export.xlsx", s.handleExportXLSX)

		api.POST("/accrue", s.handleAccrue)

		api.GET("/chat", s.handleChatMessages)
		api.POST("/chat", s.handleAddChatMessage)
	}

	if attachments != nil {
		receipts := engine.Group("/receipts", s.requireSession())
		receipts.Static("/", attachments.Dir())
	}

	s.engine = engine
	return s, nil
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	return s.engine.Run(s.cfg.Addr)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}
