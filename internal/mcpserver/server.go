package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/api"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/service"
)

// Backend is the operator surface the tools call into
type Backend interface {
	RecentActions(ctx context.Context, limit int) ([]api.Action, error)
	UserActions(ctx context.Context, userID int64, limit int) ([]api.Action, error)
	UserHistory(ctx context.Context, userID int64, limit int) ([]string, error)
	Classify(ctx context.Context, messages []string, displayName string) (*service.ClassifyResult, error)
}

// Server provides MCP tools for inspecting moderation
type Server struct {
	server  *mcp.Server
	backend Backend
}

// NewServer creates a new MCP server
func NewServer(backend Backend, version string) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "scamguard-tools",
			Version: version,
		}, nil),
		backend: backend,
	}
	s.registerTools()
	return s
}

// MCP returns the underlying server
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves over stdio until the client disconnects or ctx is done
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "moderation_list_actions",
		Description: "List the most recent moderation decisions (deletions, bans and fail-open cases), newest first.",
	}, s.handleListActions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "moderation_user_actions",
		Description: "List moderation decisions recorded for one Telegram user ID, newest first.",
	}, s.handleUserActions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "moderation_user_history",
		Description: "Get the buffered recent messages of one Telegram user, oldest first. This is the context the classifier sees.",
	}, s.handleUserHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "moderation_classify",
		Description: "Classify messages as 'delete' or 'normal' with the live policy. Nothing is deleted or banned.",
	}, s.handleClassify)
}

// ListActionsInput specifies how many entries to return
type ListActionsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of entries to return (default 20)"`
}

// Action is a ledger entry as returned by the tools
type Action struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chat_id"`
	MessageID int    `json:"message_id"`
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	Branch    string `json:"branch"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	Verdict   string `json:"verdict,omitempty"`
	Content   string `json:"content,omitempty"`
	Deleted   bool   `json:"deleted"`
	Notified  bool   `json:"notified"`
	Banned    bool   `json:"banned"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ActionsOutput contains ledger entries
type ActionsOutput struct {
	Actions []Action `json:"actions"`
	Error   string   `json:"error,omitempty"`
}

func (s *Server) handleListActions(ctx context.Context, req *mcp.CallToolRequest, input ListActionsInput) (*mcp.CallToolResult, ActionsOutput, error) {
	actions, err := s.backend.RecentActions(ctx, limitOr(input.Limit, 20))
	if err != nil {
		return nil, ActionsOutput{Actions: []Action{}, Error: err.Error()}, nil
	}
	return nil, ActionsOutput{Actions: convertActions(actions)}, nil
}

// UserInput identifies a Telegram user
type UserInput struct {
	UserID int64 `json:"user_id" jsonschema:"Telegram numeric user ID"`
	Limit  int   `json:"limit,omitempty" jsonschema:"Maximum number of entries to return"`
}

func (s *Server) handleUserActions(ctx context.Context, req *mcp.CallToolRequest, input UserInput) (*mcp.CallToolResult, ActionsOutput, error) {
	if input.UserID == 0 {
		return nil, ActionsOutput{Actions: []Action{}, Error: "user_id is required"}, nil
	}
	actions, err := s.backend.UserActions(ctx, input.UserID, limitOr(input.Limit, 20))
	if err != nil {
		return nil, ActionsOutput{Actions: []Action{}, Error: err.Error()}, nil
	}
	return nil, ActionsOutput{Actions: convertActions(actions)}, nil
}

// HistoryOutput contains buffered messages
type HistoryOutput struct {
	Messages []string `json:"messages"`
	Error    string   `json:"error,omitempty"`
}

func (s *Server) handleUserHistory(ctx context.Context, req *mcp.CallToolRequest, input UserInput) (*mcp.CallToolResult, HistoryOutput, error) {
	if input.UserID == 0 {
		return nil, HistoryOutput{Messages: []string{}, Error: "user_id is required"}, nil
	}
	messages, err := s.backend.UserHistory(ctx, input.UserID, input.Limit)
	if err != nil {
		return nil, HistoryOutput{Messages: []string{}, Error: err.Error()}, nil
	}
	if messages == nil {
		messages = []string{}
	}
	return nil, HistoryOutput{Messages: messages}, nil
}

// ClassifyInput is a batch to classify
type ClassifyInput struct {
	Messages    []string `json:"messages" jsonschema:"Messages from one user, oldest first (at most 10 are used)"`
	DisplayName string   `json:"display_name,omitempty" jsonschema:"Sender display name, used for impersonation checks"`
}

// ClassifyOutput is the verdict
type ClassifyOutput struct {
	Verdict  string `json:"verdict,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleClassify(ctx context.Context, req *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, ClassifyOutput, error) {
	if len(input.Messages) == 0 {
		return nil, ClassifyOutput{Error: "messages must not be empty"}, nil
	}
	res, err := s.backend.Classify(ctx, input.Messages, input.DisplayName)
	if err != nil {
		return nil, ClassifyOutput{Error: fmt.Sprintf("classification failed: %v", err)}, nil
	}
	return nil, ClassifyOutput{Verdict: string(res.Verdict), Attempts: res.Attempts}, nil
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func convertActions(actions []api.Action) []Action {
	out := make([]Action, 0, len(actions))
	for _, a := range actions {
		out = append(out, Action{
			ID:        a.ID,
			ChatID:    a.ChatID,
			MessageID: a.MessageID,
			UserID:    a.UserID,
			UserName:  a.UserName,
			Branch:    a.Branch,
			Outcome:   a.Outcome,
			Reason:    a.Reason,
			Verdict:   a.Verdict,
			Content:   a.Content,
			Deleted:   a.Deleted,
			Notified:  a.Notified,
			Banned:    a.Banned,
			Error:     a.Error,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
