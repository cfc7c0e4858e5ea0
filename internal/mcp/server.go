package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-official-forms/internal/config"
	"github.com/a3tai/mcp-official-forms/internal/descriptions"
	"github.com/a3tai/mcp-official-forms/internal/document"
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/overlay"
	"github.com/a3tai/mcp-official-forms/internal/security"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *document.Service
	templates *security.TemplateStore
	mcpServer *server.MCPServer
	logger    *log.Logger
}

// NewServer creates a new MCP server instance. Template and output paths in
// tool arguments are confined to the template store.
func NewServer(cfg *config.Config, service *document.Service, templates *security.TemplateStore, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("document service cannot be nil")
	}
	if templates == nil {
		return nil, fmt.Errorf("template store cannot be nil")
	}
	if logger == nil {
		logger = log.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   service,
		templates: templates,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	complianceTool := mcp.NewTool(
		"document_compliance",
		mcp.WithDescription(descriptions.GetToolDescription("document_compliance")),
		mcp.WithString("document_type",
			mcp.Required(),
			mcp.Description("Document type id, e.g. vehicle-bill-of-sale"),
		),
		mcp.WithString("jurisdiction",
			mcp.Required(),
			mcp.Description("Postal code, state name or canonical key, e.g. FL, Florida or us/florida"),
		),
	)
	s.mcpServer.AddTool(complianceTool, s.handleDocumentCompliance)

	fillTool := mcp.NewTool(
		"document_fill",
		mcp.WithDescription(descriptions.GetToolDescription("document_fill")),
		mcp.WithString("document_type",
			mcp.Required(),
			mcp.Description("Document type id, e.g. vehicle-bill-of-sale"),
		),
		mcp.WithString("jurisdiction",
			mcp.Required(),
			mcp.Description("Postal code, state name or canonical key"),
		),
		mcp.WithObject("form_data",
			mcp.Required(),
			mcp.Description("Flat map of field id to value, e.g. {\"seller_name\": \"Alice\"}"),
		),
		mcp.WithString("output_path",
			mcp.Required(),
			mcp.Description("Where to write the filled PDF, relative to the template directory"),
		),
		mcp.WithString("template_path",
			mcp.Description("Template to fill, relative to the template directory (defaults to the official form asset)"),
		),
	)
	s.mcpServer.AddTool(fillTool, s.handleDocumentFill)

	strategyTool := mcp.NewTool(
		"document_strategy",
		mcp.WithDescription(descriptions.GetToolDescription("document_strategy")),
		mcp.WithString("document_type",
			mcp.Required(),
			mcp.Description("Document type id"),
		),
		mcp.WithString("jurisdiction",
			mcp.Required(),
			mcp.Description("Postal code, state name or canonical key"),
		),
		mcp.WithString("template_path",
			mcp.Description("Template to inspect, relative to the template directory (defaults to the official form asset)"),
		),
	)
	s.mcpServer.AddTool(strategyTool, s.handleDocumentStrategy)

	jurisdictionsTool := mcp.NewTool(
		"jurisdictions_list",
		mcp.WithDescription(descriptions.GetToolDescription("jurisdictions_list")),
		mcp.WithString("document_type",
			mcp.Description("Optional document type to report availability for"),
		),
	)
	s.mcpServer.AddTool(jurisdictionsTool, s.handleJurisdictionsList)

	serverInfoTool := mcp.NewTool(
		"server_info",
		mcp.WithDescription(descriptions.GetToolDescription("server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// toolError reports a failure to the client with its error class so callers
// can tell an unsupported request from a broken template. Typed errors
// already carry their class in the message.
func toolError(err error) *mcp.CallToolResult {
	if t := ferrors.TypeOf(err); t == ferrors.ErrorTypeUnknown {
		return mcp.NewToolResultError(fmt.Sprintf("[%s] %v", t, err))
	}
	return mcp.NewToolResultError(err.Error())
}

func requireKeys(request mcp.CallToolRequest) (string, string, error) {
	documentType, err := request.RequireString("document_type")
	if err != nil {
		return "", "", err
	}
	jurisdictionInput, err := request.RequireString("jurisdiction")
	if err != nil {
		return "", "", err
	}
	return documentType, jurisdictionInput, nil
}

// Handler functions
func (s *Server) handleDocumentCompliance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentType, jurisdictionInput, err := requireKeys(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.service.Compliance(documentType, jurisdictionInput)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatComplianceResult(summary)), nil
}

func (s *Server) handleDocumentFill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentType, jurisdictionInput, err := requireKeys(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outputPath, err := request.RequireString("output_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	formData, err := formDataArgument(request.GetArguments()["form_data"])
	if err != nil {
		return toolError(err), nil
	}
	template, err := s.readTemplate(request.GetString("template_path", ""))
	if err != nil {
		return toolError(err), nil
	}

	result, err := s.service.FillDocument(document.FillRequest{
		DocumentType:  documentType,
		Jurisdiction:  jurisdictionInput,
		FormData:      formData,
		BaseFormBytes: template,
	})
	if err != nil {
		return toolError(err), nil
	}

	written, err := s.templates.Write(outputPath, result.Bytes)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatFillResult(result, written)), nil
}

func (s *Server) handleDocumentStrategy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentType, jurisdictionInput, err := requireKeys(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	template, err := s.readTemplate(request.GetString("template_path", ""))
	if err != nil {
		return toolError(err), nil
	}

	plan, err := s.service.Strategy(documentType, jurisdictionInput, template)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatStrategyResult(plan)), nil
}

func (s *Server) handleJurisdictionsList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	documentType := request.GetString("document_type", "")

	rows, err := s.service.Jurisdictions(documentType)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(s.formatJurisdictionsResult(documentType, rows)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfoResult()), nil
}

// readTemplate loads an explicit template path. An empty path leaves the
// choice of template to the document service.
func (s *Server) readTemplate(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	return s.templates.Read(path)
}

// formDataArgument accepts a JSON object or its string encoding. Values must
// be scalars: nested wizard answers are flattened by the caller.
func formDataArgument(raw any) (map[string]string, error) {
	if text, ok := raw.(string); ok {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return nil, ferrors.Wrap(ferrors.ErrorTypeInvalidRequest, "form_data is not a JSON object", err)
		}
		raw = decoded
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ferrors.New(ferrors.ErrorTypeInvalidRequest, "form_data must be an object")
	}

	data := make(map[string]string, len(obj))
	for key, value := range obj {
		switch v := value.(type) {
		case nil:
		case string:
			data[key] = v
		case bool:
			data[key] = strconv.FormatBool(v)
		case float64:
			data[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			data[key] = v.String()
		default:
			return nil, ferrors.NewWithContext(ferrors.ErrorTypeInvalidRequest, "form_data values must be strings, numbers or booleans", key)
		}
	}
	return data, nil
}

// Formatting methods
func (s *Server) formatComplianceResult(summary *document.ComplianceSummary) string {
	text := fmt.Sprintf("Compliance for %s in %s (%s)\n", summary.DocumentType, summary.Jurisdiction.Name(), summary.Jurisdiction)
	text += fmt.Sprintf("Requires notary: %t\n", summary.RequiresNotary)
	text += fmt.Sprintf("Official form: %t\n", summary.HasOfficialForm)
	text += fmt.Sprintf("Bill of sale mandatory: %t\n", summary.IsMandatory)

	rule := summary.Rule
	if rule == nil {
		text += "\nNo special compliance data for this combination; the generic document applies.\n"
		return text
	}
	text += fmt.Sprintf("Notarization: %s\n", rule.RequiresNotary)
	if rule.OfficialFormID != "" {
		text += fmt.Sprintf("Form ID: %s\n", rule.OfficialFormID)
	}
	if rule.OdometerIntegrated {
		text += "Odometer disclosure is part of the form\n"
	}
	if rule.SpecialNotes != "" {
		text += fmt.Sprintf("\nNotes: %s\n", rule.SpecialNotes)
	}
	return text
}

func (s *Server) formatFillResult(result *document.FillResult, written string) string {
	text := fmt.Sprintf("Filled %s for %s\n", result.DocumentType, result.Jurisdiction)
	text += fmt.Sprintf("Output: %s (%d bytes)\n", written, len(result.Bytes))
	text += fmt.Sprintf("Strategy: %s\n", result.Strategy)
	if result.FormID != "" {
		text += fmt.Sprintf("Form ID: %s\n", result.FormID)
	}
	text += fmt.Sprintf("Fields matched: %d of %d\n", result.FieldsMatched, result.FieldsTotal)
	if len(result.Unmatched) > 0 {
		text += fmt.Sprintf("Unmatched fields: %s\n", strings.Join(result.Unmatched, ", "))
	}
	for _, w := range result.Warnings {
		text += fmt.Sprintf("⚠️  %s\n", w)
	}
	if result.Strategy == overlay.StrategyNone {
		text += "\n💡 INFO: The template was returned unchanged.\n"
	}
	if result.RequiresNotary {
		text += "\n🔏 This document must be signed in front of a notary.\n"
	}
	return text
}

func (s *Server) formatStrategyResult(plan *overlay.Plan) string {
	text := fmt.Sprintf("Strategy for %s in %s: %s\n", plan.DocumentType, plan.Jurisdiction, plan.Strategy)
	if plan.FormID != "" {
		text += fmt.Sprintf("Form ID: %s\n", plan.FormID)
	}
	if plan.PageCount > 0 {
		text += fmt.Sprintf("Template pages: %d\n", plan.PageCount)
	}
	if len(plan.Fields) > 0 {
		text += fmt.Sprintf("Template fields: %d\n", len(plan.Fields))
	}
	if len(plan.Placements) > 0 {
		text += fmt.Sprintf("Calibrated placements: %d\n", len(plan.Placements))
	}
	for _, w := range plan.Warnings {
		text += fmt.Sprintf("⚠️  %s\n", w)
	}
	return text
}

func (s *Server) formatJurisdictionsResult(documentType string, rows []document.JurisdictionStatus) string {
	if documentType == "" {
		text := fmt.Sprintf("%d supported jurisdictions:\n", len(rows))
		for _, r := range rows {
			text += fmt.Sprintf("  %s  %-22s %s\n", r.Code, r.Name, r.Key)
		}
		return text
	}

	offered := 0
	for _, r := range rows {
		if r.Offered {
			offered++
		}
	}
	text := fmt.Sprintf("%s is offered in %d of %d jurisdictions:\n", documentType, offered, len(rows))
	for _, r := range rows {
		if !r.Offered {
			text += fmt.Sprintf("  %s  %-22s not offered\n", r.Code, r.Name)
			continue
		}
		line := fmt.Sprintf("  %s  %-22s notary: %t", r.Code, r.Name, r.RequiresNotary)
		if r.OfficialFormID != "" {
			line += ", form: " + r.OfficialFormID
		}
		text += line + "\n"
	}
	return text
}

func (s *Server) formatServerInfoResult() string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Template Directory: %s\n", s.templates.Dir())
	text += fmt.Sprintf("📏 Max Template Size: %d MB\n\n", s.config.MaxFileSize/(1024*1024))

	text += "📄 Document Types:\n"
	for _, dt := range s.service.DocumentTypes() {
		text += fmt.Sprintf("  • %s (%s)\n", dt.ID, dt.Name)
	}

	text += "\n🛠️  Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		desc := descriptions.GetToolDescription(name)
		if i := strings.Index(desc, "\n"); i > 0 {
			desc = desc[:i]
		}
		text += fmt.Sprintf("\n• %s\n  %s\n", name, desc)
	}

	text += "\nUsage: call document_compliance first, then document_strategy to preview " +
		"and document_fill to write the filled form.\n"
	return text
}

// Run serves MCP over stdio until ctx is canceled or stdin closes
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.config.IsDebug() {
		s.logger.Printf("Starting official forms MCP server in stdio mode")
		s.logger.Printf("Template directory: %s", s.templates.Dir())
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(s.logger)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
