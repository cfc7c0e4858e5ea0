package overlay

import (
	"bytes"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	ferrors "github.com/a3tai/mcp-official-forms/internal/errors"
)

// FieldKind is the widget family of an AcroForm field
type FieldKind string

const (
	FieldKindText      FieldKind = "text"
	FieldKindCheckbox  FieldKind = "checkbox"
	FieldKindRadio     FieldKind = "radio"
	FieldKindChoice    FieldKind = "choice"
	FieldKindButton    FieldKind = "button"
	FieldKindSignature FieldKind = "signature"
	FieldKindUnknown   FieldKind = "unknown"
)

// FormField is one terminal field of a template's AcroForm tree
type FormField struct {
	// Name is the fully qualified, dot separated field name
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Value    string    `json:"value,omitempty"`
	OnStates []string  `json:"on_states,omitempty"`
	ReadOnly bool      `json:"read_only,omitempty"`
	// Page is 0-indexed, -1 when no widget could be placed on a page
	Page int         `json:"page"`
	Rect *[4]float64 `json:"rect,omitempty"`
}

// Fillable reports whether the field accepts submitted data
func (f FormField) Fillable() bool {
	switch f.Kind {
	case FieldKindText, FieldKindCheckbox, FieldKindRadio, FieldKindChoice:
		return true
	default:
		return false
	}
}

// TemplateInfo is the result of inspecting a template
type TemplateInfo struct {
	PageCount int         `json:"page_count"`
	Fields    []FormField `json:"fields"`
}

// FillableCount returns the number of fields that accept data
func (t *TemplateInfo) FillableCount() int {
	n := 0
	for _, f := range t.Fields {
		if f.Fillable() {
			n++
		}
	}
	return n
}

// Field flag bits, PDF 32000-1 table 221 and 226
const (
	flagReadOnly   = 1 << 0
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
)

// fieldNode is a terminal field together with the dictionaries that carry
// its value and appearance state
type fieldNode struct {
	FormField
	dict    types.Dict
	widgets []types.Dict
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func readContext(template []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(template), newConfiguration())
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to read template", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to count template pages", err)
	}
	return ctx, nil
}

// Inspect parses a template and lists its AcroForm fields
func Inspect(template []byte) (*TemplateInfo, error) {
	if len(template) == 0 {
		return nil, ferrors.New(ferrors.ErrorTypeMalformedTemplate, "template is empty")
	}
	ctx, err := readContext(template)
	if err != nil {
		return nil, err
	}

	nodes, err := walkFields(ctx)
	if err != nil {
		return nil, err
	}

	info := &TemplateInfo{PageCount: ctx.PageCount, Fields: make([]FormField, 0, len(nodes))}
	for _, n := range nodes {
		info.Fields = append(info.Fields, n.FormField)
	}
	return info, nil
}

// walkFields returns the terminal fields of the AcroForm tree in document order
func walkFields(ctx *model.Context) ([]*fieldNode, error) {
	catalog, err := ctx.Catalog()
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to get catalog", err)
	}

	acroFormObj, found := catalog.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroForm, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to dereference AcroForm", err)
	}
	if acroForm == nil {
		return nil, nil
	}

	fieldsObj, found := acroForm.Find("Fields")
	if !found {
		return nil, nil
	}
	fields, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrorTypeMalformedTemplate, "failed to dereference AcroForm fields", err)
	}

	w := &fieldWalker{ctx: ctx, pages: annotationPages(ctx), seen: map[int]bool{}}
	for _, f := range fields {
		w.visit(f, "", inherited{})
	}
	return w.nodes, nil
}

type inherited struct {
	ft    string
	flags int
	value types.Object
}

type fieldWalker struct {
	ctx   *model.Context
	pages map[int]int
	seen  map[int]bool
	nodes []*fieldNode
}

func (w *fieldWalker) visit(obj types.Object, parentName string, inh inherited) {
	if ir, ok := obj.(types.IndirectRef); ok {
		// Guards against cyclic Kids arrays in damaged files.
		if w.seen[ir.ObjectNumber.Value()] {
			return
		}
		w.seen[ir.ObjectNumber.Value()] = true
	}

	dict, err := w.ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	name := parentName
	if t, found := dict.Find("T"); found {
		if partial, err := w.ctx.DereferenceStringOrHexLiteral(t, model.V10, nil); err == nil {
			if name == "" {
				name = partial
			} else {
				name = name + "." + partial
			}
		}
	}

	if ft, found := dict.Find("FT"); found {
		if n, err := w.ctx.DereferenceName(ft, model.V10, nil); err == nil {
			inh.ft = string(n)
		}
	}
	if ff, found := dict.Find("Ff"); found {
		if flags, err := w.ctx.DereferenceInteger(ff); err == nil && flags != nil {
			inh.flags = flags.Value()
		}
	}
	if v, found := dict.Find("V"); found {
		inh.value = v
	}

	var childFields, widgets []types.Object
	if kidsObj, found := dict.Find("Kids"); found {
		if kids, err := w.ctx.DereferenceArray(kidsObj); err == nil {
			for _, k := range kids {
				kd, err := w.ctx.DereferenceDict(k)
				if err != nil || kd == nil {
					continue
				}
				if _, isField := kd.Find("T"); isField {
					childFields = append(childFields, k)
				} else {
					widgets = append(widgets, k)
				}
			}
		}
	}

	if len(childFields) > 0 {
		for _, k := range childFields {
			w.visit(k, name, inh)
		}
		return
	}
	if name == "" {
		return
	}

	node := &fieldNode{
		FormField: FormField{
			Name:     name,
			Kind:     fieldKind(inh.ft, inh.flags),
			ReadOnly: inh.flags&flagReadOnly != 0,
			Page:     -1,
		},
		dict: dict,
	}

	if len(widgets) == 0 {
		// Field and widget share one dictionary.
		widgets = []types.Object{obj}
	}
	for _, wObj := range widgets {
		wd, err := w.ctx.DereferenceDict(wObj)
		if err != nil || wd == nil {
			continue
		}
		node.widgets = append(node.widgets, wd)
		if node.Rect == nil {
			node.Rect = w.rect(wd)
		}
		if node.Page < 0 {
			node.Page = w.page(wObj, wd)
		}
		node.OnStates = appendOnStates(node.OnStates, appearanceStates(w.ctx, wd))
	}

	if inh.value != nil {
		node.Value = w.value(inh.value, node.Kind)
	}
	if node.Kind == FieldKindCheckbox && len(node.OnStates) == 0 {
		node.OnStates = []string{"Yes"}
	}

	w.nodes = append(w.nodes, node)
}

func fieldKind(ft string, flags int) FieldKind {
	switch ft {
	case "Tx":
		return FieldKindText
	case "Ch":
		return FieldKindChoice
	case "Sig":
		return FieldKindSignature
	case "Btn":
		switch {
		case flags&flagPushbutton != 0:
			return FieldKindButton
		case flags&flagRadio != 0:
			return FieldKindRadio
		default:
			return FieldKindCheckbox
		}
	default:
		return FieldKindUnknown
	}
}

func (w *fieldWalker) value(obj types.Object, kind FieldKind) string {
	switch kind {
	case FieldKindCheckbox, FieldKindRadio:
		if n, err := w.ctx.DereferenceName(obj, model.V10, nil); err == nil {
			return string(n)
		}
	case FieldKindChoice:
		if s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
			return s
		}
		if arr, err := w.ctx.DereferenceArray(obj); err == nil {
			var values []string
			for _, item := range arr {
				if s, err := w.ctx.DereferenceStringOrHexLiteral(item, model.V10, nil); err == nil {
					values = append(values, s)
				}
			}
			return strings.Join(values, ", ")
		}
	default:
		if s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
			return s
		}
	}
	return ""
}

func (w *fieldWalker) rect(widget types.Dict) *[4]float64 {
	rectObj, found := widget.Find("Rect")
	if !found {
		return nil
	}
	arr, err := w.ctx.DereferenceArray(rectObj)
	if err != nil || len(arr) != 4 {
		return nil
	}
	var r [4]float64
	for i, c := range arr {
		f, err := w.ctx.DereferenceNumber(c)
		if err != nil {
			return nil
		}
		r[i] = f
	}
	return &r
}

func (w *fieldWalker) page(obj types.Object, widget types.Dict) int {
	if ir, ok := obj.(types.IndirectRef); ok {
		if p, ok := w.pages[ir.ObjectNumber.Value()]; ok {
			return p
		}
	}
	if pObj, found := widget.Find("P"); found {
		if ir, ok := pObj.(types.IndirectRef); ok {
			if p, ok := w.pages[-ir.ObjectNumber.Value()]; ok {
				return p
			}
		}
	}
	return -1
}

// appearanceStates returns the normal appearance state names of a widget
// other than Off
func appearanceStates(ctx *model.Context, widget types.Dict) []string {
	apObj, found := widget.Find("AP")
	if !found {
		return nil
	}
	ap, err := ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return nil
	}
	nObj, found := ap.Find("N")
	if !found {
		return nil
	}
	n, err := ctx.DereferenceDict(nObj)
	if err != nil || n == nil {
		return nil
	}
	var states []string
	for k := range n {
		if k != "Off" {
			states = append(states, k)
		}
	}
	sort.Strings(states)
	return states
}

func appendOnStates(states, more []string) []string {
	for _, s := range more {
		dup := false
		for _, have := range states {
			if have == s {
				dup = true
				break
			}
		}
		if !dup {
			states = append(states, s)
		}
	}
	return states
}

// annotationPages maps annotation object numbers to 0-indexed pages. Page
// objects themselves are stored under their negated object number so a
// widget's /P entry can be resolved from the same map.
func annotationPages(ctx *model.Context) map[int]int {
	out := map[int]int{}
	catalog, err := ctx.Catalog()
	if err != nil {
		return out
	}
	root, found := catalog.Find("Pages")
	if !found {
		return out
	}

	index := 0
	seen := map[int]bool{}
	var visit func(obj types.Object)
	visit = func(obj types.Object) {
		ir, isRef := obj.(types.IndirectRef)
		if isRef {
			if seen[ir.ObjectNumber.Value()] {
				return
			}
			seen[ir.ObjectNumber.Value()] = true
		}
		d, err := ctx.DereferenceDict(obj)
		if err != nil || d == nil {
			return
		}
		if kidsObj, found := d.Find("Kids"); found {
			if kids, err := ctx.DereferenceArray(kidsObj); err == nil {
				for _, k := range kids {
					visit(k)
				}
			}
			return
		}

		if isRef {
			out[-ir.ObjectNumber.Value()] = index
		}
		if annotsObj, found := d.Find("Annots"); found {
			if annots, err := ctx.DereferenceArray(annotsObj); err == nil {
				for _, a := range annots {
					if air, ok := a.(types.IndirectRef); ok {
						out[air.ObjectNumber.Value()] = index
					}
				}
			}
		}
		index++
	}
	visit(root)
	return out
}
