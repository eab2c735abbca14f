package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath_AbsoluteCommands(t *testing.T) {
	segs, err := ParsePath("M 10 20 L 30 40 Q 50 60 70 80 Z")
	require.NoError(t, err)
	require.Len(t, segs, 4)

	assert.Equal(t, SegMove, segs[0].Kind)
	assert.Equal(t, Point{X: 10, Y: 20}, segs[0].End)
	assert.Equal(t, SegLine, segs[1].Kind)
	assert.Equal(t, Point{X: 30, Y: 40}, segs[1].End)
	assert.Equal(t, SegQuad, segs[2].Kind)
	assert.Equal(t, Point{X: 50, Y: 60}, segs[2].Ctrl)
	assert.Equal(t, Point{X: 70, Y: 80}, segs[2].End)
	assert.Equal(t, SegClose, segs[3].Kind)
}

func TestParsePath_RelativeCommandsResolveToAbsolute(t *testing.T) {
	segs, err := ParsePath("M 10 10 l 5 5 q 2 2 4 0")
	require.NoError(t, err)
	require.Len(t, segs, 3)

	assert.Equal(t, Point{X: 15, Y: 15}, segs[1].End)
	assert.Equal(t, Point{X: 17, Y: 17}, segs[2].Ctrl)
	assert.Equal(t, Point{X: 19, Y: 15}, segs[2].End)
}

func TestParsePath_ImplicitLinetoAfterMove(t *testing.T) {
	segs, err := ParsePath("M 0 0 10 10 20 20")
	require.NoError(t, err)
	require.Len(t, segs, 3)

	assert.Equal(t, SegMove, segs[0].Kind)
	assert.Equal(t, SegLine, segs[1].Kind)
	assert.Equal(t, Point{X: 10, Y: 10}, segs[1].End)
	assert.Equal(t, SegLine, segs[2].Kind)
	assert.Equal(t, Point{X: 20, Y: 20}, segs[2].End)
}

func TestParsePath_ImplicitRepetition(t *testing.T) {
	segs, err := ParsePath("M 0 0 L 1 1 2 2 3 3")
	require.NoError(t, err)
	require.Len(t, segs, 4)
	assert.Equal(t, Point{X: 3, Y: 3}, segs[3].End)
}

func TestParsePath_CommaAndCompactSeparators(t *testing.T) {
	segs, err := ParsePath("M10,20L-5,-5")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, Point{X: -5, Y: -5}, segs[1].End)
}

func TestParsePath_ExponentNumbers(t *testing.T) {
	segs, err := ParsePath("M 1e1 2.5e-1 L 0 0")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 10, Y: 0.25}, segs[0].End)
}

func TestParsePath_CloseReturnsToSubpathStart(t *testing.T) {
	// after Z a relative lineto is anchored at the subpath start
	segs, err := ParsePath("M 10 10 L 20 10 Z l 1 1")
	require.NoError(t, err)
	require.Len(t, segs, 4)
	assert.Equal(t, Point{X: 11, Y: 11}, segs[3].End)
}

func TestParsePath_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":                "",
		"lineto before moveto": "L 1 1",
		"close before moveto":  "Z",
		"unsupported command":  "M 0 0 C 1 1 2 2 3 3",
		"bad character":        "M 0 0 # 1 1",
		"dangling coordinate":  "M 0 0 L 5",
		"number without move":  "5 5",
	}

	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePath(path)
			assert.Error(t, err)
		})
	}
}
