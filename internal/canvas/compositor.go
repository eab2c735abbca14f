package canvas

import (
	"bytes"

	"github.com/fogleman/gg"

	"drawparty-backend/internal/model"
)

// Composite renders strokes onto a white canvas in document order and
// returns PNG bytes. Each stroke becomes one compound path: filled with the
// non-zero winding rule, then outlined with the stroke's width using round
// caps and joins, so later strokes paint over earlier ones. The function is
// pure and deterministic; identical input always yields identical bytes.
//
// Strokes whose path data fails to parse are skipped; the gateway validates
// paths on append, so this only guards rasters against records from older
// clients. An empty stroke list yields the blank background.
func Composite(strokes []model.Stroke, width, height int) ([]byte, error) {
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for _, stroke := range strokes {
		segs, err := ParsePath(stroke.Path)
		if err != nil {
			continue
		}
		drawStroke(dc, stroke, segs)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawStroke(dc *gg.Context, stroke model.Stroke, segs []Segment) {
	dc.NewSubPath()
	open := false
	for _, seg := range segs {
		switch seg.Kind {
		case SegMove:
			// unterminated subpaths must be closed before the fill
			if open {
				dc.ClosePath()
			}
			dc.MoveTo(seg.End.X, seg.End.Y)
			open = true
		case SegLine:
			dc.LineTo(seg.End.X, seg.End.Y)
		case SegQuad:
			dc.QuadraticTo(seg.Ctrl.X, seg.Ctrl.Y, seg.End.X, seg.End.Y)
		case SegClose:
			dc.ClosePath()
			open = false
		}
	}
	if open {
		dc.ClosePath()
	}

	dc.SetFillRuleWinding()
	dc.SetRGB255(int(stroke.Color.R), int(stroke.Color.G), int(stroke.Color.B))
	dc.FillPreserve()

	dc.SetLineWidth(stroke.Width)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.Stroke()
}
