package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-official-forms/internal/overlay"
)

// Report is the calibration view of one template
type Report struct {
	FilePath  string              `json:"file_path"`
	PageCount int                 `json:"page_count"`
	Pages     []overlay.PageBox   `json:"pages"`
	Fields    []overlay.FormField `json:"fields"`
	Fillable  int                 `json:"fillable"`
	Warnings  []string            `json:"warnings,omitempty"`
}

func main() {
	flags := pflag.NewFlagSet("form_fields", pflag.ExitOnError)
	format := flags.String("format", "text", "Output format: text, json")
	flags.Usage = func() { printUsage(os.Stderr, flags) }
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() != 1 {
		printUsage(os.Stderr, flags)
		os.Exit(1)
	}

	report, err := inspect(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := output(os.Stdout, report, *format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	fmt.Fprintln(w, "form_fields - list a template's form fields and page sizes for mapping calibration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  form_fields [--format text|json] <template.pdf>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	flags.SetOutput(w)
	flags.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Coordinates are PDF points from the bottom-left corner of the page.")
}

func inspect(path string) (*Report, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	template, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	info, err := overlay.Inspect(template)
	if err != nil {
		return nil, err
	}

	report := &Report{
		FilePath:  absPath,
		PageCount: info.PageCount,
		Fields:    info.Fields,
		Fillable:  info.FillableCount(),
	}

	// Page sizes are a calibration aid; the field list is still useful
	// without them.
	boxes, err := overlay.PageBoxes(template)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("page sizes unavailable: %v", err))
	} else {
		report.Pages = boxes
	}
	return report, nil
}

func output(w io.Writer, report *Report, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "text":
		outputText(w, report)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputText(w io.Writer, report *Report) {
	fmt.Fprintf(w, "📄 %s\n", report.FilePath)
	fmt.Fprintf(w, "Pages: %d\n", report.PageCount)
	for i, box := range report.Pages {
		fmt.Fprintf(w, "  page %d: %.0f x %.0f pt\n", i, box.Width(), box.Height())
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "⚠️  %s\n", warning)
	}
	fmt.Fprintln(w)

	if len(report.Fields) == 0 {
		fmt.Fprintln(w, "⚠️  No form fields: this template needs a coordinate mapping")
		return
	}

	fmt.Fprintf(w, "Fields: %d (%d fillable)\n", len(report.Fields), report.Fillable)
	for _, f := range report.Fields {
		line := fmt.Sprintf("  %-40s %-9s", f.Name, f.Kind)
		if f.Page >= 0 {
			line += fmt.Sprintf(" page %d", f.Page)
		}
		if f.Rect != nil {
			line += fmt.Sprintf(" rect [%.1f %.1f %.1f %.1f]", f.Rect[0], f.Rect[1], f.Rect[2], f.Rect[3])
		}
		if len(f.OnStates) > 0 {
			line += " states " + strings.Join(f.OnStates, "|")
		}
		if f.Value != "" {
			line += fmt.Sprintf(" = %q", f.Value)
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
