// Package mcpserver exposes the calendar operation surface as an MCP server
// over stdio, so external agents drive the same toolset the in-process
// meeting loop uses.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mailtriage/internal/logging"
	"github.com/fyrsmithlabs/mailtriage/internal/scheduler"
)

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "mailtriage-calendar").
	Name string

	// Version is the server version (default: "1.0.0").
	Version string

	// Logger for structured logging.
	Logger *logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "mailtriage-calendar",
		Version: "1.0.0",
		Logger:  logging.NewNop(),
	}
}

// Server wraps the MCP SDK server around one Toolset.
type Server struct {
	mcp    *mcp.Server
	tools  *scheduler.Toolset
	logger *logging.Logger
}

// NewServer creates an MCP server over the given toolset.
func NewServer(cfg *Config, tools *scheduler.Toolset) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if tools == nil {
		return nil, fmt.Errorf("toolset is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:    mcpServer,
		tools:  tools,
		logger: cfg.Logger.Named("mcp"),
	}
	s.registerTools()
	return s, nil
}

// Run serves MCP over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "serving calendar tools on stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// registerTools registers the four calendar tools with typed handlers.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        scheduler.ToolCheckWorkingDay,
		Description: "Check whether a date is a working day (excludes weekends and statutory holidays). Call this first when handling a meeting invite, before adding any calendar event. Non-working days include 3 suggested alternative working dates.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scheduler.CheckWorkingDayInput) (*mcp.CallToolResult, scheduler.CheckWorkingDayOutput, error) {
		out, err := s.tools.CheckWorkingDay(ctx, args)
		s.logCall(ctx, scheduler.ToolCheckWorkingDay, err)
		return nil, out, err
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        scheduler.ToolGetCalendarEvents,
		Description: "Query calendar events to check for conflicts or find free slots. Returns every event overlapping the queried window; any returned event means the window conflicts.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scheduler.GetCalendarEventsInput) (*mcp.CallToolResult, scheduler.GetCalendarEventsOutput, error) {
		out, err := s.tools.GetCalendarEvents(ctx, args)
		s.logCall(ctx, scheduler.ToolGetCalendarEvents, err)
		return nil, out, err
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        scheduler.ToolAddCalendarEvent,
		Description: "Add a calendar event. Check the working day and conflicts first. For a reschedule request, delete the old event before adding the new one. Non-working-day and conflicting bookings are refused.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scheduler.AddCalendarEventInput) (*mcp.CallToolResult, scheduler.AddCalendarEventOutput, error) {
		out, err := s.tools.AddCalendarEvent(ctx, args)
		s.logCall(ctx, scheduler.ToolAddCalendarEvent, err)
		return nil, out, err
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        scheduler.ToolDeleteCalendarEvent,
		Description: "Delete calendar events by title substring or exact start time. Use for reschedule requests: delete the old meeting, then add the new one.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args scheduler.DeleteCalendarEventInput) (*mcp.CallToolResult, scheduler.DeleteCalendarEventOutput, error) {
		out, err := s.tools.DeleteCalendarEvent(ctx, args)
		s.logCall(ctx, scheduler.ToolDeleteCalendarEvent, err)
		return nil, out, err
	})
}

func (s *Server) logCall(ctx context.Context, tool string, err error) {
	if err != nil {
		s.logger.Warn(ctx, "tool call failed", zap.String("tool", tool), zap.Error(err))
		return
	}
	s.logger.Debug(ctx, "tool call", zap.String("tool", tool))
}
