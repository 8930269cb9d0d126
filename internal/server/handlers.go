package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ejcasil/dualledger/internal/common"
	"github.com/ejcasil/dualledger/internal/export"
	"github.com/ejcasil/dualledger/internal/model"
	"github.com/ejcasil/dualledger/internal/service"
	"github.com/ejcasil/dualledger/internal/storage"
)

// transactionResp mirrors the storage column names on the wire.
type transactionResp struct {
	ID             int64   `json:"id"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	IncomingEJ     float64 `json:"incoming_ej"`
	OutgoingEJ     float64 `json:"outgoing_ej"`
	IncomingShared float64 `json:"incoming_ej_neng"`
	OutgoingShared float64 `json:"outgoing_ej_neng"`
	EJBalance      float64 `json:"ej_balance"`
	SharedBalance  float64 `json:"ej_neng_balance"`
	Total          float64 `json:"total"`
	Receipt        string  `json:"receipt,omitempty"`
	ReceiptURL     string  `json:"receipt_url,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func (s *Server) toResp(t *model.Transaction) transactionResp {
	resp := transactionResp{
		ID:             t.ID,
		Date:           t.Date,
		Time:           t.Time,
		Category:       t.Category,
		Description:    t.Description,
		IncomingEJ:     t.IncomingEJ,
		OutgoingEJ:     t.OutgoingEJ,
		IncomingShared: t.IncomingShared,
		OutgoingShared: t.OutgoingShared,
		EJBalance:      t.EJBalance,
		SharedBalance:  t.SharedBalance,
		Total:          t.Total,
		Receipt:        t.Receipt,
	}
	if !t.CreatedAt.IsZero() {
		resp.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	if t.Receipt != "" && s.attachments != nil {
		resp.ReceiptURL = s.attachments.URLFor(t.Receipt)
	}
	return resp
}

// handleSummary returns both balances, the total, and the five most recent
// rows newest-first. It also fires the cheap single-day accrual; a failed
// accrual is logged and never fails the page.
func (s *Server) handleSummary(c *gin.Context) {
	if added, err := s.ledger.AccrueToday(c.Request.Context(), time.Now()); err != nil {
		common.LogError(err, "Interest accrual failed on page load", nil)
	} else if added > 0 {
		common.LogInfo("Interest accrued on page load", common.Fields{"added": added})
	}

	rows, err := s.ledger.GetAllTransactions(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}

	ejBalance, sharedBalance, err := s.ledger.GetLastBalances(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}

	recent := make([]transactionResp, 0, 5)
	for i := len(rows) - 1; i >= 0 && len(recent) < 5; i-- {
		recent = append(recent, s.toResp(&rows[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"initialized":     len(rows) > 0,
		"ej_balance":      ejBalance,
		"ej_neng_balance": sharedBalance,
		"total":           ejBalance + sharedBalance,
		"recent":          recent,
	})
}

type initializeReq struct {
	EJStart     float64 `json:"ej_start"`
	SharedStart float64 `json:"shared_start"`
}

func (s *Server) handleInitialize(c *gin.Context) {
	var req initializeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	id, err := s.ledger.InitializeLedger(c.Request.Context(), req.EJStart, req.SharedStart)
	switch {
	case errors.Is(err, common.ErrAlreadyInitialized):
		c.JSON(http.StatusConflict, gin.H{"error": "ledger already initialized"})
	case errors.Is(err, common.ErrNegativeAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "starting balances cannot be negative"})
	case err != nil:
		s.storeError(c, err)
	default:
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

type createTransactionReq struct {
	Date           string  `json:"date"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	IncomingEJ     float64 `json:"incoming_ej"`
	OutgoingEJ     float64 `json:"outgoing_ej"`
	IncomingShared float64 `json:"incoming_ej_neng"`
	OutgoingShared float64 `json:"outgoing_ej_neng"`
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	// Absent fields default to zero; negative deltas are rejected at this
	// boundary so the core only ever sees well-formed amounts.
	if req.IncomingEJ < 0 || req.OutgoingEJ < 0 || req.IncomingShared < 0 || req.OutgoingShared < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amounts cannot be negative"})
		return
	}
	if req.Date == "" {
		req.Date = model.Today()
	}
	if req.Description == "" {
		req.Description = "No Description"
	}

	entry := &model.Transaction{
		Date:           req.Date,
		Category:       req.Category,
		Description:    req.Description,
		IncomingEJ:     req.IncomingEJ,
		OutgoingEJ:     req.OutgoingEJ,
		IncomingShared: req.IncomingShared,
		OutgoingShared: req.OutgoingShared,
	}

	id, err := s.ledger.AddEntry(c.Request.Context(), entry, true)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidTransaction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction"})
			return
		}
		s.storeError(c, err)
		return
	}

	created, err := s.ledger.GetEntry(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": s.toResp(created)})
}

func (s *Server) handleListTransactions(c *gin.Context) {
	rows, err := s.ledger.GetAllTransactions(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}

	items := make([]transactionResp, len(rows))
	for i := range rows {
		items[i] = s.toResp(&rows[i])
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

func (s *Server) handleGetTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	entry, err := s.ledger.GetEntry(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": s.toResp(entry)})
}

type updateTransactionReq struct {
	Date           *string  `json:"date"`
	Time           *string  `json:"time"`
	Category       *string  `json:"category"`
	Description    *string  `json:"description"`
	IncomingEJ     *float64 `json:"incoming_ej"`
	OutgoingEJ     *float64 `json:"outgoing_ej"`
	IncomingShared *float64 `json:"incoming_ej_neng"`
	OutgoingShared *float64 `json:"outgoing_ej_neng"`
}

func (s *Server) handleUpdateTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	for _, amount := range []*float64{req.IncomingEJ, req.OutgoingEJ, req.IncomingShared, req.OutgoingShared} {
		if amount != nil && *amount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amounts cannot be negative"})
			return
		}
	}

	fields := service.TransactionFields{
		Date:           req.Date,
		Time:           req.Time,
		Category:       req.Category,
		Description:    req.Description,
		IncomingEJ:     req.IncomingEJ,
		OutgoingEJ:     req.OutgoingEJ,
		IncomingShared: req.IncomingShared,
		OutgoingShared: req.OutgoingShared,
	}
	if fields.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if err := s.ledger.UpdateEntry(c.Request.Context(), id, fields, true); err != nil {
		if errors.Is(err, storage.ErrInvalidTransaction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction"})
			return
		}
		s.storeError(c, err)
		return
	}

	updated, err := s.ledger.GetEntry(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": s.toResp(updated)})
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.ledger.DeleteEntry(c.Request.Context(), id); err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleUploadReceipt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer func() { _ = f.Close() }()

	ref, err := s.ledger.AttachReceipt(c.Request.Context(), id, file.Filename, f, file.Header.Get("Content-Type"))
	if err != nil {
		s.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"receipt":     ref,
		"receipt_url": s.attachments.URLFor(ref),
	})
}

func (s *Server) handleClearReceipt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.ledger.ClearReceipt(c.Request.Context(), id); err != nil {
		if errors.Is(err, common.ErrNoReceipt) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction has no receipt"})
			return
		}
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleExportCSV(c *gin.Context) {
	rows, err := s.ledger.GetAllTransactions(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="ledger.csv"`)
	if err := export.WriteCSV(c.Writer, rows); err != nil {
		common.LogError(err, "CSV export failed", nil)
	}
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	rows, err := s.ledger.GetAllTransactions(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="ledger.xlsx"`)
	if err := export.WriteXLSX(c.Writer, rows); err != nil {
		common.LogError(err, "XLSX export failed", nil)
	}
}

// handleAccrue runs the backfill and reports how many entries were added.
// Accrual is best-effort: failures are logged, the response still carries
// whatever was credited before the error.
func (s *Server) handleAccrue(c *gin.Context) {
	added, err := s.ledger.Accrue(c.Request.Context(), time.Now())
	if err != nil {
		common.LogError(err, "Interest accrual failed", common.Fields{"added": added})
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

func (s *Server) handleChatMessages(c *gin.Context) {
	messages, err := s.ledger.ChatMessages(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}

	type chatResp struct {
		ID        int64  `json:"id"`
		Nickname  string `json:"nickname"`
		Message   string `json:"message"`
		CreatedAt string `json:"created_at"`
	}
	items := make([]chatResp, len(messages))
	for i, m := range messages {
		items[i] = chatResp{
			ID:        m.ID,
			Nickname:  m.Nickname,
			Message:   m.Message,
			CreatedAt: m.CreatedAt.In(model.ReportingLocation()).Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, gin.H{"messages": items})
}

type addChatMessageReq struct {
	Nickname string `json:"nickname" binding:"required,max=32"`
	Message  string `json:"message" binding:"required,max=500"`
}

func (s *Server) handleAddChatMessage(c *gin.Context) {
	var req addChatMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nickname and message are required"})
		return
	}

	if err := s.ledger.AddChatMessage(c.Request.Context(), req.Nickname, req.Message); err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

// pathID parses the :id route parameter, answering 400 itself on bad input.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// storeError maps storage failures onto user-visible responses: not-found
// stays specific, everything else is a generic failure.
func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	common.LogError(err, "Storage operation failed", common.Fields{"path": c.Request.URL.Path})
	c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
}
