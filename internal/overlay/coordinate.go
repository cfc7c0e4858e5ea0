package overlay

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"

	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
)

// BaseFont is the fixed font for coordinate overlays
const BaseFont = "Helvetica"

// lookupValue finds the submitted value for a mapped id: verbatim, then with
// underscores stripped, then any submitted key that matches once its own
// underscores are stripped. It returns the submitted key that was used.
func lookupValue(data map[string]string, id string) (string, string) {
	if v := strings.TrimSpace(data[id]); v != "" {
		return id, v
	}
	stripped := strings.ReplaceAll(id, "_", "")
	if v := strings.TrimSpace(data[stripped]); v != "" {
		return stripped, v
	}
	for _, k := range sortedKeys(data) {
		if strings.ReplaceAll(k, "_", "") == stripped {
			if v := strings.TrimSpace(data[k]); v != "" {
				return k, v
			}
		}
	}
	return "", ""
}

// overlayText is one value drawn at a placement
type overlayText struct {
	x, y, size float64
	text       []byte
}

// encodeWinAnsi maps s onto the WinAnsi code page of the standard Helvetica
// font. Runes outside it become '?' and are reported.
func encodeWinAnsi(s string) ([]byte, bool) {
	b := make([]byte, 0, len(s))
	lossless := true
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c, lossless = '?', false
		}
		b = append(b, c)
	}
	return b, lossless
}

// writeLiteral writes b as a PDF literal string
func writeLiteral(buf *bytes.Buffer, b []byte) {
	buf.WriteByte('(')
	for _, c := range b {
		switch c {
		case '\\', '(', ')':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(')')
}

func (e *Engine) fillCoordinates(plan *Plan, template []byte, data map[string]string) (*Result, error) {
	res := newResult(plan)
	res.FieldsTotal = len(plan.Placements)

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(template), newConfiguration())
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to read template", err)
	}
	pageCount := ctx.PageCount

	boxes, err := PageBoxes(template)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("page bounds not checked: %v", err))
	}

	used := map[string]bool{}
	texts := map[int][]overlayText{}
	drawn := 0
	for _, id := range plan.Placements.IDs() {
		p := plan.Placements[id]
		key, value := lookupValue(data, id)
		if value == "" {
			continue
		}
		if p.Page >= pageCount {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("field %s is placed on page %d but the template has %d pages", id, p.Page, pageCount))
			continue
		}
		if p.Page < len(boxes) && boxes[p.Page] != (PageBox{}) && !boxes[p.Page].Contains(p.X, p.Y) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("field %s at (%.0f, %.0f) is outside the page %d media box", id, p.X, p.Y, p.Page))
		}

		size := p.FontSize
		if size == 0 {
			size = e.fontSize
		}
		text, lossless := encodeWinAnsi(value)
		if !lossless {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("field %s: characters outside the %s character set were replaced", id, BaseFont))
		}
		used[key] = true
		texts[p.Page] = append(texts[p.Page], overlayText{x: p.X, y: p.Y, size: size, text: text})
		drawn++
	}
	res.FieldsMatched = drawn
	for _, k := range sortedKeys(data) {
		if !used[k] && strings.TrimSpace(data[k]) != "" {
			res.Unmatched = append(res.Unmatched, k)
		}
	}

	if drawn == 0 {
		res.Bytes = append([]byte(nil), template...)
		return res, nil
	}

	pages := make([]int, 0, len(texts))
	for page := range texts {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	for _, page := range pages {
		if err := drawTexts(ctx, page+1, texts[page]); err != nil {
			return nil, ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to draw field values", err)
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write filled document: %w", err)
	}
	res.Bytes = buf.Bytes()
	return res, nil
}

// drawTexts adds the texts to a page. The page's own content is wrapped in
// q/Q so its graphics state cannot move the overlay.
func drawTexts(ctx *model.Context, pageNr int, texts []overlayText) error {
	pageDict, _, inherited, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return err
	}
	if pageDict == nil {
		return fmt.Errorf("page %d not found", pageNr)
	}

	fontName, err := addOverlayFont(ctx, pageDict, inherited.Resources)
	if err != nil {
		return err
	}

	var content bytes.Buffer
	content.WriteString("\nQ\n")
	for _, t := range texts {
		fmt.Fprintf(&content, "BT /%s %.2f Tf 0 g %.2f %.2f Td ", fontName, t.size, t.x, t.y)
		writeLiteral(&content, t.text)
		content.WriteString(" Tj ET\n")
	}

	head, err := newContentStream(ctx, []byte("q\n"))
	if err != nil {
		return err
	}
	tail, err := newContentStream(ctx, content.Bytes())
	if err != nil {
		return err
	}

	contents := types.Array{*head}
	if obj, found := pageDict.Find("Contents"); found && obj != nil {
		switch o := obj.(type) {
		case types.IndirectRef:
			// A reference may name a stream or an array of streams
			if arr, err := ctx.DereferenceArray(o); err == nil && arr != nil {
				contents = append(contents, arr...)
			} else {
				contents = append(contents, o)
			}
		case types.Array:
			contents = append(contents, o...)
		default:
			return fmt.Errorf("page %d has a direct content stream", pageNr)
		}
	}
	contents = append(contents, *tail)
	pageDict["Contents"] = contents
	return nil
}

func newContentStream(ctx *model.Context, content []byte) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return ctx.IndRefForNewObject(*sd)
}

// addOverlayFont gives the page a private copy of its effective resources
// with Helvetica added under an unused name, and returns that name.
func addOverlayFont(ctx *model.Context, pageDict, resources types.Dict) (string, error) {
	res := types.Dict{}
	for k, v := range resources {
		res[k] = v
	}
	fonts := types.Dict{}
	if obj, found := res.Find("Font"); found {
		existing, err := ctx.DereferenceDict(obj)
		if err != nil {
			return "", err
		}
		for k, v := range existing {
			fonts[k] = v
		}
	}

	name := "FOvl"
	for i := 1; ; i++ {
		if _, taken := fonts[name]; !taken {
			break
		}
		name = fmt.Sprintf("FOvl%d", i)
	}

	font, err := ctx.IndRefForNewObject(types.Dict{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name(BaseFont),
		"Encoding": types.Name("WinAnsiEncoding"),
	})
	if err != nil {
		return "", err
	}
	fonts[name] = *font
	res["Font"] = fonts
	pageDict["Resources"] = res
	return name, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
