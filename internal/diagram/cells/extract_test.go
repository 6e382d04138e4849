package cells

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawio-server/internal/diagram/document"
	"drawio-server/internal/diagram/models"
)

func TestListRoundTripsDocument(t *testing.T) {
	doc := document.New("Round Trip")
	s1 := doc.AddShape("First", 10, 20, 100, 50, models.ShapeRectangle, "")
	s2 := doc.AddShape("Second", 200, 20, 100, 50, models.ShapeEllipse, "")
	connID, err := doc.AddConnection(s1, s2, "Next", models.ArrowClassic, "", nil)
	require.NoError(t, err)

	out := List(doc.ToXML())

	require.Len(t, out, 3)
	assert.Equal(t, []string{s1, s2, connID}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestListVertexFields(t *testing.T) {
	doc := document.New("Vertex")
	doc.AddShape("Box", 10, -20, 100, 50, models.ShapeRectangle, "")

	out := List(doc.ToXML())

	require.Len(t, out, 1)
	cell := out[0]
	assert.True(t, cell.Vertex)
	assert.False(t, cell.Edge)
	assert.Equal(t, "Box", cell.Value)
	assert.Equal(t, "rounded=0;whiteSpace=wrap;html=1;", cell.Style)
	require.NotNil(t, cell.X)
	require.NotNil(t, cell.Height)
	assert.Equal(t, 10.0, *cell.X)
	assert.Equal(t, -20.0, *cell.Y)
	assert.Equal(t, 100.0, *cell.Width)
	assert.Equal(t, 50.0, *cell.Height)
	assert.Empty(t, cell.Source)
}

func TestListEdgeFields(t *testing.T) {
	doc := document.New("Edge")
	s1 := doc.AddShape("a", 0, 0, 100, 50, models.ShapeRectangle, "")
	s2 := doc.AddShape("b", 0, 0, 100, 50, models.ShapeRectangle, "")
	_, err := doc.AddConnection(s1, s2, "e", models.ArrowOpen, "", nil)
	require.NoError(t, err)

	out := List(doc.ToXML())

	require.Len(t, out, 3)
	edge := out[2]
	assert.True(t, edge.Edge)
	assert.Equal(t, s1, edge.Source)
	assert.Equal(t, s2, edge.Target)

	// an edge geometry is only a relative marker, no position
	assert.Nil(t, edge.X)
	assert.Nil(t, edge.Width)
}

func TestListSkipsBackgroundCells(t *testing.T) {
	out := List(document.New("Empty").ToXML())
	assert.Empty(t, out)
}

func TestListMalformedYieldsEmpty(t *testing.T) {
	assert.Empty(t, List("<mxfile><root><mxCell id="))
	assert.Empty(t, List(""))
}

func TestListUnstyledCell(t *testing.T) {
	xml := `<mxfile><diagram><mxGraphModel><root>
        <mxCell id="0"/>
        <mxCell id="1" parent="0"/>
        <mxCell id="bare_1" vertex="1" parent="1"/>
    </root></mxGraphModel></diagram></mxfile>`

	out := List(xml)

	require.Len(t, out, 1)
	assert.Equal(t, "bare_1", out[0].ID)
	assert.Empty(t, out[0].Style)
	assert.Nil(t, out[0].X)
}
