package overlay

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageBox is a page's MediaBox in PDF user space
type PageBox struct {
	LLX float64 `json:"llx"`
	LLY float64 `json:"lly"`
	URX float64 `json:"urx"`
	URY float64 `json:"ury"`
}

// Width returns the box width in points
func (b PageBox) Width() float64 { return b.URX - b.LLX }

// Height returns the box height in points
func (b PageBox) Height() float64 { return b.URY - b.LLY }

// Contains reports whether the point lies inside the box
func (b PageBox) Contains(x, y float64) bool {
	return x >= b.LLX && x <= b.URX && y >= b.LLY && y <= b.URY
}

// PageBoxes reads the MediaBox of every page, 0-indexed. Pages whose box
// cannot be read get a zero box.
func PageBoxes(template []byte) (boxes []PageBox, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read page geometry: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}

	n := reader.NumPage()
	boxes = make([]PageBox, n)
	for i := 1; i <= n; i++ {
		boxes[i-1] = mediaBox(reader.Page(i))
	}
	return boxes, nil
}

// mediaBox walks up the page tree since MediaBox is inheritable
func mediaBox(page pdf.Page) PageBox {
	v := page.V
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		mb := v.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			return PageBox{
				LLX: mb.Index(0).Float64(),
				LLY: mb.Index(1).Float64(),
				URX: mb.Index(2).Float64(),
				URY: mb.Index(3).Float64(),
			}
		}
		v = v.Key("Parent")
	}
	return PageBox{}
}
