package overlay

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
)

var truthy = map[string]bool{
	"true":    true,
	"yes":     true,
	"y":       true,
	"on":      true,
	"1":       true,
	"x":       true,
	"checked": true,
}

var falsy = map[string]bool{
	"false": true,
	"no":    true,
	"n":     true,
	"off":   true,
	"0":     true,
}

// IsTruthy reports whether a submitted value checks a checkbox
func IsTruthy(value string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(value))]
}

// fieldIndex finds template fields by name: exact, then case-insensitive,
// then by a unique terminal name with any XFA style [n] index removed.
type fieldIndex struct {
	exact    map[string]*fieldNode
	folded   map[string]*fieldNode
	terminal map[string][]*fieldNode
}

var indexSuffix = regexp.MustCompile(`\[\d+\]$`)

func terminalName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(indexSuffix.ReplaceAllString(name, ""))
}

func newFieldIndex(nodes []*fieldNode) *fieldIndex {
	idx := &fieldIndex{
		exact:    make(map[string]*fieldNode, len(nodes)),
		folded:   make(map[string]*fieldNode, len(nodes)),
		terminal: make(map[string][]*fieldNode, len(nodes)),
	}
	for _, n := range nodes {
		if _, ok := idx.exact[n.Name]; !ok {
			idx.exact[n.Name] = n
		}
		lower := strings.ToLower(n.Name)
		if _, ok := idx.folded[lower]; !ok {
			idx.folded[lower] = n
		}
		t := terminalName(n.Name)
		idx.terminal[t] = append(idx.terminal[t], n)
	}
	return idx
}

// find returns the first candidate present in the template. Each candidate
// is tried exactly before any candidate is tried case-insensitively.
func (idx *fieldIndex) find(candidates []string) *fieldNode {
	for _, c := range candidates {
		if n, ok := idx.exact[c]; ok {
			return n
		}
	}
	for _, c := range candidates {
		if n, ok := idx.folded[strings.ToLower(c)]; ok {
			return n
		}
	}
	for _, c := range candidates {
		if nodes := idx.terminal[terminalName(c)]; len(nodes) == 1 {
			return nodes[0]
		}
	}
	return nil
}

func (e *Engine) fillAcroForm(plan *Plan, template []byte, data map[string]string) (*Result, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(template), newConfiguration())
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to read template", err)
	}

	nodes, err := walkFields(ctx)
	if err != nil {
		return nil, err
	}
	idx := newFieldIndex(nodes)

	res := newResult(plan)
	for _, id := range sortedKeys(data) {
		value := data[id]
		if strings.TrimSpace(value) == "" {
			continue
		}
		res.FieldsTotal++

		node := idx.find(e.tables.Candidates(plan.DocumentType, plan.Jurisdiction, id))
		if node == nil || !node.Fillable() {
			res.Unmatched = append(res.Unmatched, id)
			continue
		}
		if err := setFieldValue(ctx, node, value); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("field %s (%s): %v", id, node.Name, err))
			res.Unmatched = append(res.Unmatched, id)
			continue
		}
		res.FieldsMatched++
	}

	if res.FieldsMatched > 0 {
		if err := setNeedAppearances(ctx); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write filled form: %w", err)
	}
	res.Bytes = buf.Bytes()
	return res, nil
}

func setFieldValue(ctx *model.Context, node *fieldNode, value string) error {
	switch node.Kind {
	case FieldKindText, FieldKindChoice:
		node.dict["V"] = encodeText(value)
		// Viewers rebuild appearances from V once NeedAppearances is set.
		for _, w := range node.widgets {
			delete(w, "AP")
		}
		return nil

	case FieldKindCheckbox:
		state := "Off"
		if IsTruthy(value) {
			state = node.OnStates[0]
		}
		node.dict["V"] = types.Name(state)
		for _, w := range node.widgets {
			w["AS"] = types.Name(state)
		}
		return nil

	case FieldKindRadio:
		state := ""
		for _, s := range node.OnStates {
			if strings.EqualFold(s, strings.TrimSpace(value)) {
				state = s
			}
		}
		switch {
		case state != "":
		case IsTruthy(value) && len(node.OnStates) == 1:
			state = node.OnStates[0]
		case falsy[strings.ToLower(strings.TrimSpace(value))]:
			state = "Off"
		default:
			return fmt.Errorf("value %q is not one of %v", value, node.OnStates)
		}
		node.dict["V"] = types.Name(state)
		for _, w := range node.widgets {
			as := "Off"
			for _, s := range appearanceStates(ctx, w) {
				if s == state {
					as = state
				}
			}
			w["AS"] = types.Name(as)
		}
		return nil
	}
	return fmt.Errorf("field kind %s cannot be filled", node.Kind)
}

func setNeedAppearances(ctx *model.Context) error {
	catalog, err := ctx.Catalog()
	if err != nil {
		return ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to get catalog", err)
	}
	obj, found := catalog.Find("AcroForm")
	if !found {
		return nil
	}
	acroForm, err := ctx.DereferenceDict(obj)
	if err != nil || acroForm == nil {
		return ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to dereference AcroForm", err)
	}
	acroForm["NeedAppearances"] = types.Boolean(true)
	return nil
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\r", `\r`, "\n", `\n`)

// encodeText encodes a field value as a PDF text string: an escaped literal
// for printable ASCII, UTF-16BE with a byte order mark otherwise.
func encodeText(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r > 0x7e || (r < 0x20 && r != '\n' && r != '\r') {
			ascii = false
			break
		}
	}
	if ascii {
		return types.StringLiteral(literalEscaper.Replace(s))
	}

	units := utf16.Encode([]rune(s))
	b := make([]byte, 0, 2+2*len(units))
	b = append(b, 0xfe, 0xff)
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return types.HexLiteral(hex.EncodeToString(b))
}
