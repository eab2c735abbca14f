package canvas

import (
	"fmt"
	"strconv"
	"strings"
)

// SegmentKind path primitive
type SegmentKind int

const (
	SegMove SegmentKind = iota
	SegLine
	SegQuad
	SegClose
)

// Point absolute canvas coordinate
type Point struct {
	X, Y float64
}

// Segment is one resolved path command. Relative commands are already
// converted to absolute coordinates by the parser. Ctrl is only set for
// SegQuad.
type Segment struct {
	Kind SegmentKind
	Ctrl Point
	End  Point
}

// ParsePath parses SVG-style path data supporting M/L/Q/Z in absolute and
// relative form. Implicit repetition follows SVG semantics: extra coordinate
// pairs after M/m continue as lineto, extra pairs after L/l/Q/q repeat the
// command.
func ParsePath(data string) ([]Segment, error) {
	tokens, err := tokenize(data)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty path")
	}

	var (
		segs    []Segment
		cur     Point
		start   Point
		i       = 0
		started = false
	)

	for i < len(tokens) {
		tok := tokens[i]
		if tok.cmd == 0 {
			return nil, fmt.Errorf("expected command at token %d", i)
		}
		cmd := tok.cmd
		rel := cmd >= 'a' && cmd <= 'z'
		i++

		switch cmd {
		case 'M', 'm':
			p, n, err := takePoint(tokens, i)
			if err != nil {
				return nil, err
			}
			i = n
			if rel {
				p = p.add(cur)
			}
			cur, start, started = p, p, true
			segs = append(segs, Segment{Kind: SegMove, End: p})
			// subsequent pairs are implicit linetos
			for i < len(tokens) && tokens[i].cmd == 0 {
				p, n, err = takePoint(tokens, i)
				if err != nil {
					return nil, err
				}
				i = n
				if rel {
					p = p.add(cur)
				}
				cur = p
				segs = append(segs, Segment{Kind: SegLine, End: p})
			}

		case 'L', 'l':
			if !started {
				return nil, fmt.Errorf("lineto before moveto")
			}
			for ok := true; ok; ok = i < len(tokens) && tokens[i].cmd == 0 {
				p, n, err := takePoint(tokens, i)
				if err != nil {
					return nil, err
				}
				i = n
				if rel {
					p = p.add(cur)
				}
				cur = p
				segs = append(segs, Segment{Kind: SegLine, End: p})
			}

		case 'Q', 'q':
			if !started {
				return nil, fmt.Errorf("curveto before moveto")
			}
			for ok := true; ok; ok = i < len(tokens) && tokens[i].cmd == 0 {
				ctrl, n, err := takePoint(tokens, i)
				if err != nil {
					return nil, err
				}
				end, n2, err := takePoint(tokens, n)
				if err != nil {
					return nil, err
				}
				i = n2
				if rel {
					ctrl = ctrl.add(cur)
					end = end.add(cur)
				}
				cur = end
				segs = append(segs, Segment{Kind: SegQuad, Ctrl: ctrl, End: end})
			}

		case 'Z', 'z':
			if !started {
				return nil, fmt.Errorf("close before moveto")
			}
			cur = start
			segs = append(segs, Segment{Kind: SegClose})

		default:
			return nil, fmt.Errorf("unsupported path command %q", string(cmd))
		}
	}

	return segs, nil
}

func (p Point) add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

type token struct {
	cmd byte // 0 for numbers
	num float64
}

func takePoint(tokens []token, i int) (Point, int, error) {
	if i+1 >= len(tokens) || tokens[i].cmd != 0 || tokens[i+1].cmd != 0 {
		return Point{}, i, fmt.Errorf("expected coordinate pair at token %d", i)
	}
	return Point{X: tokens[i].num, Y: tokens[i+1].num}, i + 2, nil
}

func tokenize(data string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(data) {
		c := data[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.ContainsRune("MmLlQqZz", rune(c)):
			tokens = append(tokens, token{cmd: c})
			i++
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(data) {
				d := data[j]
				if d == '.' || d == 'e' || d == 'E' || (d >= '0' && d <= '9') ||
					((d == '-' || d == '+') && (data[j-1] == 'e' || data[j-1] == 'E')) {
					j++
					continue
				}
				break
			}
			num, err := strconv.ParseFloat(data[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", data[i:j], err)
			}
			tokens = append(tokens, token{num: num})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	return tokens, nil
}
