package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-official-forms/internal/config"
	"github.com/a3tai/mcp-official-forms/internal/docconfig"
	"github.com/a3tai/mcp-official-forms/internal/document"
	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
	"github.com/a3tai/mcp-official-forms/internal/overlay"
	"github.com/a3tai/mcp-official-forms/internal/pdftest"
	"github.com/a3tai/mcp-official-forms/internal/security"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()

	asset := filepath.Join(dir, "forms", "us", "florida", "hsmv-82050.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(asset), 0o755))
	require.NoError(t, os.WriteFile(asset, pdftest.Form(
		pdftest.Field{Name: "Sellers Printed Name", Rect: [4]float64{72, 600, 300, 620}},
		pdftest.Field{Name: "Purchasers Printed Name", Rect: [4]float64{72, 540, 300, 560}},
		pdftest.Field{Name: "Year", Rect: [4]float64{72, 680, 130, 700}},
	), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.pdf"), pdftest.Blank(1), 0o644))

	cfg := config.DefaultConfig()
	cfg.TemplateDirectory = dir
	cfg.ServerName = "test-server"

	quiet := log.New(io.Discard, "", 0)
	store, err := security.NewTemplateStore(dir, cfg.MaxFileSize)
	require.NoError(t, err)
	svc := document.NewService(
		docconfig.NewLoader(nil, docconfig.NewCache(), quiet),
		overlay.NewResolver(nil),
		overlay.NewEngine(nil, cfg.FontSize),
		document.WithTemplates(store),
		document.WithLogger(quiet),
	)

	server, err := NewServer(cfg, svc, store, quiet)
	require.NoError(t, err)
	return server, dir
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestNewServer(t *testing.T) {
	store, err := security.NewTemplateStore(t.TempDir(), 0)
	require.NoError(t, err)
	svc := document.NewService(docconfig.NewLoader(nil, nil, nil), overlay.NewResolver(nil), overlay.NewEngine(nil, 0))
	cfg := config.DefaultConfig()

	tests := []struct {
		name      string
		cfg       *config.Config
		svc       *document.Service
		store     *security.TemplateStore
		expectErr bool
	}{
		{"valid", cfg, svc, store, false},
		{"nil config", nil, svc, store, true},
		{"nil service", cfg, nil, store, true},
		{"nil store", cfg, svc, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(tt.cfg, tt.svc, tt.store, nil)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, server.mcpServer)
			assert.Same(t, tt.cfg, server.config)
		})
	}
}

func TestServer_HandleDocumentCompliance(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleDocumentCompliance(context.Background(), callRequest(map[string]interface{}{
		"document_type": "vehicle-bill-of-sale",
		"jurisdiction":  "Florida",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "us/florida")
	assert.Contains(t, text, "Requires notary: true")
	assert.Contains(t, text, "Form ID: HSMV 82050")
}

func TestServer_HandleDocumentComplianceErrors(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing jurisdiction", map[string]interface{}{"document_type": "vehicle-bill-of-sale"}, "jurisdiction"},
		{"unknown jurisdiction", map[string]interface{}{"document_type": "vehicle-bill-of-sale", "jurisdiction": "Narnia"}, "UNSUPPORTED_JURISDICTION"},
		{"unknown document type", map[string]interface{}{"document_type": "lease", "jurisdiction": "FL"}, "UNSUPPORTED_DOCUMENT_TYPE"},
		{"not offered", map[string]interface{}{"document_type": "firearm-bill-of-sale", "jurisdiction": "CA"}, "UNSUPPORTED_COMBINATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleDocumentCompliance(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestToolError(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleDocumentCompliance(context.Background(), callRequest(map[string]interface{}{
		"document_type": "vehicle-bill-of-sale",
		"jurisdiction":  "Narnia",
	}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.True(t, strings.HasPrefix(text, "[UNSUPPORTED_JURISDICTION] "), text)
	assert.Equal(t, 1, strings.Count(text, "UNSUPPORTED_JURISDICTION"), text)

	wrapped := fmt.Errorf("fill failed: %w", ferrors.New(ferrors.ErrorTypeMalformedTemplate, "bad xref"))
	assert.Equal(t, "fill failed: [MALFORMED_TEMPLATE] bad xref", extractTextFromResult(toolError(wrapped)))

	plain := toolError(errors.New("disk full"))
	assert.True(t, plain.IsError)
	assert.Equal(t, "[UNKNOWN] disk full", extractTextFromResult(plain))
}

func TestServer_HandleDocumentFill(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handleDocumentFill(context.Background(), callRequest(map[string]interface{}{
		"document_type": "vehicle-bill-of-sale",
		"jurisdiction":  "FL",
		"output_path":   "out/fl.pdf",
		"form_data": map[string]interface{}{
			"seller_name": "Alice Seller",
			"buyer_name":  "Bob Buyer",
			"year":        float64(2020),
			"vin":         "1HGCM82633A004352",
		},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Strategy: acroform")
	assert.Contains(t, text, "Fields matched: 3 of 4")
	assert.Contains(t, text, "Unmatched fields: vin")

	filled, err := os.ReadFile(filepath.Join(dir, "out", "fl.pdf"))
	require.NoError(t, err)
	info, err := overlay.Inspect(filled)
	require.NoError(t, err)
	for _, f := range info.Fields {
		if f.Name == "Year" {
			assert.Equal(t, "2020", f.Value)
		}
	}
}

func TestServer_HandleDocumentFillPassThrough(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handleDocumentFill(context.Background(), callRequest(map[string]interface{}{
		"document_type": "vehicle-bill-of-sale",
		"jurisdiction":  "CA",
		"template_path": "blank.pdf",
		"output_path":   "ca.pdf",
		"form_data":     `{"seller_name": "Alice"}`,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	assert.Contains(t, extractTextFromResult(result), "returned unchanged")

	want, _ := os.ReadFile(filepath.Join(dir, "blank.pdf"))
	got, err := os.ReadFile(filepath.Join(dir, "ca.pdf"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestServer_HandleDocumentFillErrors(t *testing.T) {
	server, _ := newTestServer(t)

	base := func(extra map[string]interface{}) map[string]interface{} {
		args := map[string]interface{}{
			"document_type": "vehicle-bill-of-sale",
			"jurisdiction":  "FL",
			"output_path":   "out.pdf",
			"form_data":     map[string]interface{}{"seller_name": "Alice"},
		}
		for k, v := range extra {
			args[k] = v
		}
		return args
	}

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"output escapes directory", base(map[string]interface{}{"output_path": "../out.pdf"}), "INVALID_REQUEST"},
		{"template escapes directory", base(map[string]interface{}{"template_path": "/etc/passwd"}), "INVALID_REQUEST"},
		{"nested form data", base(map[string]interface{}{"form_data": map[string]interface{}{"seller": map[string]interface{}{"name": "A"}}}), "INVALID_REQUEST"},
		{"form data not an object", base(map[string]interface{}{"form_data": []interface{}{"a"}}), "INVALID_REQUEST"},
		{"form data bad json", base(map[string]interface{}{"form_data": "{nope"}), "INVALID_REQUEST"},
		{"missing template", base(map[string]interface{}{"template_path": "garbage.pdf"}), "garbage.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleDocumentFill(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.want)
		})
	}
}

func TestServer_HandleDocumentFillMalformedTemplate(t *testing.T) {
	server, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), pdftest.Malformed(), 0o644))

	result, err := server.handleDocumentFill(context.Background(), callRequest(map[string]interface{}{
		"document_type": "vehicle-bill-of-sale",
		"jurisdiction":  "FL",
		"template_path": "broken.pdf",
		"output_path":   "out.pdf",
		"form_data":     map[string]interface{}{"seller_name": "Alice"},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "MALFORMED_TEMPLATE")
	_, statErr := os.Stat(filepath.Join(dir, "out.pdf"))
	assert.True(t, os.IsNotExist(statErr), "nothing is written on failure")
}

func TestServer_HandleDocumentStrategy(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleDocumentStrategy(context.Background(), callRequest(map[string]interface{}{
		"document_type": "vehicle-bill-of-sale",
		"jurisdiction":  "us/florida",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	assert.Contains(t, extractTextFromResult(result), "acroform")
	assert.Contains(t, extractTextFromResult(result), "Template fields: 3")

	result, err = server.handleDocumentStrategy(context.Background(), callRequest(map[string]interface{}{
		"document_type": "vehicle-bill-of-sale",
		"jurisdiction":  "VT",
		"template_path": "blank.pdf",
	}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, ": none")
	assert.Contains(t, text, overlay.WarningNoMapping)
}

func TestServer_HandleJurisdictionsList(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleJurisdictionsList(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "us/wyoming")

	result, err = server.handleJurisdictionsList(context.Background(), callRequest(map[string]interface{}{
		"document_type": "firearm-bill-of-sale",
	}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "firearm-bill-of-sale is offered in")
	assert.Contains(t, text, "not offered")
}

func TestServer_HandleServerInfo(t *testing.T) {
	server, dir := newTestServer(t)

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server")
	assert.Contains(t, text, dir)
	assert.Contains(t, text, "vehicle-bill-of-sale")
	for _, tool := range []string{"document_compliance", "document_fill", "document_strategy", "jurisdictions_list", "server_info"} {
		assert.True(t, strings.Contains(text, tool), tool)
	}
}

func TestFormDataArgument(t *testing.T) {
	data, err := formDataArgument(map[string]interface{}{
		"name":   "Alice",
		"price":  float64(4500.5),
		"year":   float64(2020),
		"signed": true,
		"empty":  nil,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"name":   "Alice",
		"price":  "4500.5",
		"year":   "2020",
		"signed": "true",
	}, data)

	data, err = formDataArgument(`{"vin": "123"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"vin": "123"}, data)

	_, err = formDataArgument(nil)
	assert.Error(t, err)
}

func TestServer_ServeEndsOnEOF(t *testing.T) {
	server, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = server.serve(ctx, strings.NewReader(""), io.Discard)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("serve did not return")
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
