package document

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawio-server/internal/diagram/models"
)

func f(v float64) *float64 { return &v }

func TestAddShapeMintsSequentialIDs(t *testing.T) {
	doc := New("Test")

	id1 := doc.AddShape("A", 0, 0, 120, 60, models.ShapeRectangle, "")
	id2 := doc.AddShape("B", 0, 0, 120, 60, models.ShapeEllipse, "")

	assert.Equal(t, "shape_1", id1)
	assert.Equal(t, "shape_2", id2)
	assert.Equal(t, 2, doc.ShapeCount())
	assert.True(t, doc.HasShape(id1))
	assert.False(t, doc.HasShape("shape_99"))
}

func TestShapesAndConnectionsShareCounter(t *testing.T) {
	doc := New("Test")

	s1 := doc.AddShape("A", 0, 0, 120, 60, models.ShapeRectangle, "")
	s2 := doc.AddShape("B", 0, 0, 120, 60, models.ShapeRectangle, "")
	connID, err := doc.AddConnection(s1, s2, "", models.ArrowClassic, "", nil)
	require.NoError(t, err)
	s3 := doc.AddShape("C", 0, 0, 120, 60, models.ShapeRectangle, "")

	assert.Equal(t, "conn_3", connID)
	assert.Equal(t, "shape_4", s3)
}

func TestAddConnectionMissingEndpoint(t *testing.T) {
	doc := New("Test")
	s1 := doc.AddShape("A", 0, 0, 120, 60, models.ShapeRectangle, "")

	_, err := doc.AddConnection(s1, "shape_99", "", models.ArrowClassic, "", nil)
	assert.ErrorIs(t, err, ErrEndpointNotFound)

	_, err = doc.AddConnection("shape_99", s1, "", models.ArrowClassic, "", nil)
	assert.ErrorIs(t, err, ErrEndpointNotFound)

	// nothing was mutated on failure
	assert.Equal(t, 0, doc.ConnectionCount())
}

func TestSerializeIsWellFormed(t *testing.T) {
	doc := New("Flow")
	s1 := doc.AddShape("Start", 0, 0, 100, 40, models.ShapeEllipse, "")
	s2 := doc.AddShape("End", 200, 0, 100, 40, models.ShapeEllipse, "")
	_, err := doc.AddConnection(s1, s2, "go", models.ArrowBlock, "", nil)
	require.NoError(t, err)

	out := doc.ToXML()

	decoder := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := decoder.Token()
		if err != nil {
			require.ErrorIs(t, err, io.EOF, "serialized output must be well-formed XML")
			break
		}
	}

	// two background cells plus one element per shape and connection
	assert.Equal(t, 1, strings.Count(out, `<mxCell id="0"/>`))
	assert.Equal(t, 1, strings.Count(out, `<mxCell id="1" parent="0"/>`))
	assert.Equal(t, 5, strings.Count(out, "<mxCell "))
}

func TestSerializeScenario(t *testing.T) {
	doc := New("Scenario")
	s1 := doc.AddShape("s1", 0, 0, 100, 50, models.ShapeRectangle, "")
	s2 := doc.AddShape("s2", 200, 0, 100, 50, models.ShapeRectangle, "")
	_, err := doc.AddConnection(s1, s2, "Next", models.ArrowClassic, "", nil)
	require.NoError(t, err)

	out := doc.ToXML()

	assert.Contains(t, out, `id="shape_1"`)
	assert.Contains(t, out, `id="shape_2"`)
	assert.Contains(t, out, `source="shape_1" target="shape_2"`)
	assert.Contains(t, out, `value="Next"`)
	assert.Contains(t, out, `vertex="1"`)
	assert.Contains(t, out, `edge="1"`)
}

func TestSerializeEscapesLabels(t *testing.T) {
	doc := New("Escaping")
	doc.AddShape(`a & b < c > "d" 'e'`, 0, 0, 120, 60, models.ShapeRectangle, "")

	out := doc.ToXML()

	assert.Contains(t, out, "a &amp; b &lt; c &gt; &quot;d&quot; &apos;e&apos;")
	assert.NotContains(t, out, `value="a & b`)
}

func TestDefaultShapeStyles(t *testing.T) {
	doc := New("Styles")
	doc.AddShape("cyl", 0, 0, 120, 60, models.ShapeCylinder, "")
	out := doc.ToXML()
	assert.Contains(t, out, "shape=cylinder3;whiteSpace=wrap;html=1;boundedLbl=1;backgroundOutline=1;size=15;")

	// unknown kind falls back to the rectangle style
	doc2 := New("Fallback")
	doc2.AddShape("odd", 0, 0, 120, 60, models.ShapeKind("starburst"), "")
	assert.Contains(t, doc2.ToXML(), `style="rounded=0;whiteSpace=wrap;html=1;"`)
}

func TestStyleOverrideReplacesDefault(t *testing.T) {
	doc := New("Override")
	doc.AddShape("x", 0, 0, 120, 60, models.ShapeEllipse, "fillColor=#ff0000;")

	out := doc.ToXML()

	assert.Contains(t, out, `style="fillColor=#ff0000;"`)
	assert.NotContains(t, out, "ellipse;whiteSpace=wrap")
}

func TestEdgeStyleParameterizedByArrow(t *testing.T) {
	doc := New("Arrows")
	s1 := doc.AddShape("a", 0, 0, 120, 60, models.ShapeRectangle, "")
	s2 := doc.AddShape("b", 0, 0, 120, 60, models.ShapeRectangle, "")
	_, err := doc.AddConnection(s1, s2, "", models.ArrowDiamond, "", nil)
	require.NoError(t, err)

	assert.Contains(t, doc.ToXML(), "endArrow=diamond;")
}

func TestLabelPlacementTokens(t *testing.T) {
	doc := New("Placement")
	s1 := doc.AddShape("a", 0, 0, 120, 60, models.ShapeRectangle, "")
	s2 := doc.AddShape("b", 0, 0, 120, 60, models.ShapeRectangle, "")
	_, err := doc.AddConnection(s1, s2, "lbl", models.ArrowClassic, "", &models.LabelPlacement{
		Position:        "right",
		DX:              f(-10),
		DY:              f(15),
		BackgroundColor: "#c8e6c9",
	})
	require.NoError(t, err)

	out := doc.ToXML()

	assert.Contains(t, out, "labelPosition=right;")
	assert.Contains(t, out, "labelBackgroundColor=#c8e6c9;")
	assert.Contains(t, out, `<mxGeometry x="-10" y="15" as="offset"/>`)
}

func TestLabelPlacementOmittedIsByteStable(t *testing.T) {
	build := func(placement *models.LabelPlacement) *Document {
		doc := New("Stable")
		s1 := doc.AddShape("a", 0, 0, 120, 60, models.ShapeRectangle, "")
		s2 := doc.AddShape("b", 0, 0, 120, 60, models.ShapeRectangle, "")
		_, err := doc.AddConnection(s1, s2, "lbl", models.ArrowClassic, "", placement)
		require.NoError(t, err)
		return doc
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	plain := build(nil).toXMLAt(now)
	empty := build(&models.LabelPlacement{}).toXMLAt(now)

	assert.Equal(t, plain, empty, "an all-empty placement must serialize like no placement at all")
	assert.NotContains(t, plain, "labelPosition")
	assert.NotContains(t, plain, "labelBackgroundColor")
	assert.NotContains(t, plain, `as="offset"`)
}

func TestSerializeDeterministic(t *testing.T) {
	doc := New("Det")
	doc.AddShape("a", 1.5, -2.25, 100, 50, models.ShapeCloud, "")

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, doc.toXMLAt(now), doc.toXMLAt(now))
	assert.Contains(t, doc.toXMLAt(now), `modified="2024-06-01T12:00:00Z"`)
	assert.Contains(t, doc.toXMLAt(now), `x="1.5" y="-2.25"`)
}

func TestInsertionOrderPreserved(t *testing.T) {
	doc := New("Order")
	for _, label := range []string{"one", "two", "three"} {
		doc.AddShape(label, 0, 0, 120, 60, models.ShapeRectangle, "")
	}

	out := doc.ToXML()
	assert.Less(t, strings.Index(out, `value="one"`), strings.Index(out, `value="two"`))
	assert.Less(t, strings.Index(out, `value="two"`), strings.Index(out, `value="three"`))
}
