package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/biz/domain"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/service"
)

// Moderation is the read and classify surface exposed to operators
type Moderation interface {
	RecentActions(ctx context.Context, limit int) ([]*domain.ModerationRecord, error)
	UserActions(ctx context.Context, userID int64, limit int) ([]*domain.ModerationRecord, error)
	UserHistory(ctx context.Context, userID int64, limit int) ([]string, error)
	Classify(ctx context.Context, messages []string, displayName string) (*service.ClassifyResult, error)
}

// Server provides the operator HTTP API
type Server struct {
	svc    Moderation
	addr   string
	engine *gin.Engine
	server *http.Server
}

// Action is the JSON view of a ledger entry
type Action struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	MessageID int       `json:"message_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Branch    string    `json:"branch"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	Verdict   string    `json:"verdict,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
	Content   string    `json:"content,omitempty"`
	Deleted   bool      `json:"deleted"`
	Notified  bool      `json:"notified"`
	Banned    bool      `json:"banned"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClassifyRequest is the body of POST /api/classify
type ClassifyRequest struct {
	Messages    []string `json:"messages" binding:"required,min=1"`
	DisplayName string   `json:"display_name"`
}

// NewServer creates a new API server
func NewServer(svc Moderation, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{svc: svc, addr: addr}

	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/actions", s.handleRecentActions)
		api.GET("/actions/user/:id", s.handleUserActions)
		api.GET("/history/:id", s.handleUserHistory)
		api.POST("/classify", s.handleClassify)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Named("api").Infow("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ============ Handlers ============

func (s *Server) handleRecentActions(c *gin.Context) {
	records, err := s.svc.RecentActions(c.Request.Context(), queryLimit(c, 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": convertRecords(records)})
}

func (s *Server) handleUserActions(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	records, err := s.svc.UserActions(c.Request.Context(), userID, queryLimit(c, 50))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "actions": convertRecords(records)})
}

func (s *Server) handleUserHistory(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	messages, err := s.svc.UserHistory(c.Request.Context(), userID, queryLimit(c, 0))
	if err != nil {
		writeError(c, err)
		return
	}
	if messages == nil {
		messages = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "messages": messages})
}

func (s *Server) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must be a non-empty list"})
		return
	}

	res, err := s.svc.Classify(c.Request.Context(), req.Messages, req.DisplayName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func pathUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return userID, true
}

func queryLimit(c *gin.Context, def int) int {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrLedgerDisabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrClassificationExhausted):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func convertRecords(records []*domain.ModerationRecord) []Action {
	out := make([]Action, 0, len(records))
	for _, r := range records {
		out = append(out, Action{
			ID:        r.ID,
			ChatID:    r.ChatID,
			MessageID: r.MessageID,
			UserID:    r.UserID,
			UserName:  r.UserName,
			Branch:    string(r.Branch),
			Outcome:   string(r.Outcome),
			Reason:    r.Reason,
			Verdict:   string(r.Verdict),
			Attempts:  r.Attempts,
			Content:   r.Content,
			Deleted:   r.Deleted,
			Notified:  r.Notified,
			Banned:    r.Banned,
			Error:     r.Error,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}
