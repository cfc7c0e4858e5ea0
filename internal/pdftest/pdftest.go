// Package pdftest builds small, well-formed PDF documents in memory for tests.
// Offsets in the cross-reference table are computed from the written bytes,
// so the output parses without reconstruction.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Letter is the default page size in points
var Letter = [4]float64{0, 0, 612, 792}

// Field describes one AcroForm field. A dotted Name ("seller.name") is built
// as a parent field with a widget kid, so the fully qualified name matches.
type Field struct {
	Name     string
	Page     int // 0-indexed
	Rect     [4]float64
	Checkbox bool
	// OnState is the checkbox export value, "Yes" when empty
	OnState string
	Value   string
	Checked bool
}

// Options controls the generated document
type Options struct {
	Pages    int
	MediaBox [4]float64
	Fields   []Field
}

// Blank returns a document with the given number of empty Letter pages
func Blank(pages int) []byte {
	return Build(Options{Pages: pages})
}

// Form returns a one-page Letter document with the given AcroForm fields
func Form(fields ...Field) []byte {
	return Build(Options{Pages: 1, Fields: fields})
}

// Malformed returns bytes that start like a PDF but cannot be parsed
func Malformed() []byte {
	return []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog /Pages 9 0 R\nthis is not a pdf\n")
}

type builder struct {
	objs []string
}

func (b *builder) reserve() int {
	b.objs = append(b.objs, "")
	return len(b.objs)
}

func (b *builder) set(n int, body string) {
	b.objs[n-1] = body
}

func (b *builder) add(body string) int {
	n := b.reserve()
	b.set(n, body)
	return n
}

func stream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

func ref(n int) string {
	return fmt.Sprintf("%d 0 R", n)
}

func refs(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = ref(n)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func rect(r [4]float64) string {
	return fmt.Sprintf("[%g %g %g %g]", r[0], r[1], r[2], r[3])
}

// literal encodes s as a PDF literal string
func literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

// Build renders the document described by opts
func Build(opts Options) []byte {
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.MediaBox == [4]float64{} {
		opts.MediaBox = Letter
	}

	b := &builder{}
	catalog := b.reserve()
	pagesNode := b.reserve()
	font := b.add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	content := b.add(stream("", "BT /F1 12 Tf 72 740 Td (Test fixture) Tj ET"))

	pages := make([]int, opts.Pages)
	for i := range pages {
		pages[i] = b.reserve()
	}
	annots := make([][]int, opts.Pages)

	var fields []int
	parents := map[string]int{}
	kids := map[string][]int{}
	var parentOrder []string

	var on, off int
	if len(opts.Fields) > 0 {
		for _, f := range opts.Fields {
			if f.Checkbox {
				on = b.add(stream("/Type /XObject /Subtype /Form /BBox [0 0 12 12]", "q 0 g 2 2 8 8 re f Q"))
				off = b.add(stream("/Type /XObject /Subtype /Form /BBox [0 0 12 12]", "q Q"))
				break
			}
		}
	}

	for _, f := range opts.Fields {
		page := f.Page
		if page < 0 || page >= opts.Pages {
			page = 0
		}
		name := f.Name
		parentName := ""
		if i := strings.LastIndex(name, "."); i > 0 {
			parentName, name = name[:i], name[i+1:]
		}

		var body strings.Builder
		body.WriteString("<< ")
		if parentName == "" {
			if f.Checkbox {
				body.WriteString("/FT /Btn ")
			} else {
				body.WriteString("/FT /Tx ")
			}
		}
		fmt.Fprintf(&body, "/T %s /Type /Annot /Subtype /Widget /Rect %s /P %s /F 4 ", literal(name), rect(f.Rect), ref(pages[page]))
		if f.Checkbox {
			state := f.OnState
			if state == "" {
				state = "Yes"
			}
			current := "Off"
			if f.Checked {
				current = state
			}
			fmt.Fprintf(&body, "/V /%s /AS /%s /AP << /N << /%s %s /Off %s >> >> ", current, current, state, ref(on), ref(off))
		} else {
			body.WriteString("/DA (/Helv 10 Tf 0 g) ")
			if f.Value != "" {
				fmt.Fprintf(&body, "/V %s ", literal(f.Value))
			}
		}

		widget := b.reserve()
		annots[page] = append(annots[page], widget)

		if parentName == "" {
			body.WriteString(">>")
			b.set(widget, body.String())
			fields = append(fields, widget)
			continue
		}

		parent, ok := parents[parentName]
		if !ok {
			parent = b.reserve()
			parents[parentName] = parent
			parentOrder = append(parentOrder, parentName)
			fields = append(fields, parent)
		}
		fmt.Fprintf(&body, "/Parent %s >>", ref(parent))
		b.set(widget, body.String())
		kids[parentName] = append(kids[parentName], widget)
	}

	for _, name := range parentOrder {
		ft := "/Tx"
		for _, f := range opts.Fields {
			if strings.HasPrefix(f.Name, name+".") && f.Checkbox {
				ft = "/Btn"
			}
		}
		b.set(parents[name], fmt.Sprintf("<< /FT %s /T %s /Kids %s >>", ft, literal(name), refs(kids[name])))
	}

	for i, p := range pages {
		body := fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox %s /Resources << /Font << /F1 %s >> >> /Contents %s",
			ref(pagesNode), rect(opts.MediaBox), ref(font), ref(content))
		if len(annots[i]) > 0 {
			body += " /Annots " + refs(annots[i])
		}
		b.set(p, body+" >>")
	}
	b.set(pagesNode, fmt.Sprintf("<< /Type /Pages /Kids %s /Count %d >>", refs(pages), len(pages)))

	if len(fields) > 0 {
		acroForm := b.add(fmt.Sprintf("<< /Fields %s /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv %s >> >> >>", refs(fields), ref(font)))
		b.set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %s /AcroForm %s >>", ref(pagesNode), ref(acroForm)))
	} else {
		b.set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %s >>", ref(pagesNode)))
	}

	return b.bytes(catalog)
}

func (b *builder) bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(b.objs))
	for i, body := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %s >>\nstartxref\n%d\n%%%%EOF\n", len(b.objs)+1, ref(root), xref)
	return buf.Bytes()
}
