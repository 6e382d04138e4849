package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"drawio-server/internal/diagram/models"
)

// ============================================================
// Document
// ============================================================

// ErrEndpointNotFound is returned when a connection references a shape id
// that does not exist in the document.
var ErrEndpointNotFound = errors.New("source or target shape not found")

// Document holds an in-memory diagram: shapes and connections in insertion
// order, plus the counter used to mint cell ids. Shapes and connections
// share one counter so their ids never collide.
type Document struct {
	Name string

	shapeOrder []string
	shapes     map[string]models.Shape

	connOrder []string
	conns     map[string]models.Connection

	nextID int
}

func New(name string) *Document {
	if name == "" {
		name = "Untitled"
	}
	return &Document{
		Name:   name,
		shapes: make(map[string]models.Shape),
		conns:  make(map[string]models.Connection),
		nextID: 1,
	}
}

// AddShape stores a new shape and returns its minted id.
func (d *Document) AddShape(label string, x, y, width, height float64, kind models.ShapeKind, style string) string {
	id := fmt.Sprintf("shape_%d", d.nextID)
	d.nextID++

	d.shapes[id] = models.Shape{
		ID:     id,
		Label:  label,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Kind:   kind,
		Style:  style,
	}
	d.shapeOrder = append(d.shapeOrder, id)
	return id
}

// AddConnection links two existing shapes. Both endpoints must resolve at
// creation time; nothing is mutated on failure.
func (d *Document) AddConnection(sourceID, targetID, label string, arrow models.ArrowKind, style string, placement *models.LabelPlacement) (string, error) {
	if _, ok := d.shapes[sourceID]; !ok {
		return "", ErrEndpointNotFound
	}
	if _, ok := d.shapes[targetID]; !ok {
		return "", ErrEndpointNotFound
	}

	if placement.Empty() {
		placement = nil
	}

	id := fmt.Sprintf("conn_%d", d.nextID)
	d.nextID++

	d.conns[id] = models.Connection{
		ID:        id,
		Label:     label,
		SourceID:  sourceID,
		TargetID:  targetID,
		Arrow:     arrow,
		Style:     style,
		Placement: placement,
	}
	d.connOrder = append(d.connOrder, id)
	return id, nil
}

// Shapes returns the shapes in insertion order.
func (d *Document) Shapes() []models.Shape {
	out := make([]models.Shape, 0, len(d.shapeOrder))
	for _, id := range d.shapeOrder {
		out = append(out, d.shapes[id])
	}
	return out
}

// Connections returns the connections in insertion order.
func (d *Document) Connections() []models.Connection {
	out := make([]models.Connection, 0, len(d.connOrder))
	for _, id := range d.connOrder {
		out = append(out, d.conns[id])
	}
	return out
}

func (d *Document) ShapeCount() int      { return len(d.shapeOrder) }
func (d *Document) ConnectionCount() int { return len(d.connOrder) }

func (d *Document) HasShape(id string) bool {
	_, ok := d.shapes[id]
	return ok
}

// ============================================================
// Draw.io XML Serialization
// ============================================================

// ToXML renders the document in draw.io mxfile format. The layout is a
// wire-level contract: attribute order, indentation and the two background
// cells must stay stable for external viewers.
func (d *Document) ToXML() string {
	return d.toXMLAt(time.Now())
}

func (d *Document) toXMLAt(now time.Time) string {
	modified := now.UTC().Format("2006-01-02T15:04:05Z")

	var b strings.Builder
	fmt.Fprintf(&b, "<mxfile host=\"MCP Draw.io Server\" modified=\"%s\" version=\"1.0.0\">\n", modified)
	fmt.Fprintf(&b, "  <diagram name=\"%s\" id=\"diagram1\">\n", escapeXML(d.Name))
	b.WriteString(`    <mxGraphModel dx="1422" dy="794" grid="1" gridSize="10" guides="1" tooltips="1" connect="1" arrows="1" fold="1" page="1" pageScale="1" pageWidth="827" pageHeight="1169" math="0" shadow="0">` + "\n")
	b.WriteString("      <root>\n")
	b.WriteString("        <mxCell id=\"0\"/>\n")
	b.WriteString("        <mxCell id=\"1\" parent=\"0\"/>\n")

	for _, id := range d.shapeOrder {
		shape := d.shapes[id]
		style := shape.Style
		if style == "" {
			style = defaultShapeStyle(shape.Kind)
		}
		fmt.Fprintf(&b, "        <mxCell id=\"%s\" value=\"%s\" style=\"%s\" vertex=\"1\" parent=\"1\">\n",
			shape.ID, escapeXML(shape.Label), style)
		fmt.Fprintf(&b, "          <mxGeometry x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" as=\"geometry\"/>\n",
			num(shape.X), num(shape.Y), num(shape.Width), num(shape.Height))
		b.WriteString("        </mxCell>\n")
	}

	for _, id := range d.connOrder {
		conn := d.conns[id]
		style := conn.Style
		if style == "" {
			style = defaultEdgeStyle(conn.Arrow)
		}
		style += placementStyle(conn.Placement)

		fmt.Fprintf(&b, "        <mxCell id=\"%s\" value=\"%s\" style=\"%s\" edge=\"1\" parent=\"1\" source=\"%s\" target=\"%s\">\n",
			conn.ID, escapeXML(conn.Label), style, conn.SourceID, conn.TargetID)
		b.WriteString("          <mxGeometry relative=\"1\" as=\"geometry\"/>\n")
		if conn.Placement.HasOffset() {
			var dx, dy float64
			if conn.Placement.DX != nil {
				dx = *conn.Placement.DX
			}
			if conn.Placement.DY != nil {
				dy = *conn.Placement.DY
			}
			fmt.Fprintf(&b, "          <mxGeometry x=\"%s\" y=\"%s\" as=\"offset\"/>\n", num(dx), num(dy))
		}
		b.WriteString("        </mxCell>\n")
	}

	b.WriteString("      </root>\n")
	b.WriteString("    </mxGraphModel>\n")
	b.WriteString("  </diagram>\n")
	b.WriteString("</mxfile>")

	return b.String()
}

// ============================================================
// Styles
// ============================================================

var shapeStyles = map[models.ShapeKind]string{
	models.ShapeRectangle:     "rounded=0;whiteSpace=wrap;html=1;",
	models.ShapeEllipse:       "ellipse;whiteSpace=wrap;html=1;",
	models.ShapeDiamond:       "rhombus;whiteSpace=wrap;html=1;",
	models.ShapeParallelogram: "shape=parallelogram;perimeter=parallelogramPerimeter;whiteSpace=wrap;html=1;",
	models.ShapeHexagon:       "shape=hexagon;perimeter=hexagonPerimeter2;whiteSpace=wrap;html=1;",
	models.ShapeCylinder:      "shape=cylinder3;whiteSpace=wrap;html=1;boundedLbl=1;backgroundOutline=1;size=15;",
	models.ShapeCloud:         "ellipse;shape=cloud;whiteSpace=wrap;html=1;",
}

func defaultShapeStyle(kind models.ShapeKind) string {
	if style, ok := shapeStyles[kind]; ok {
		return style
	}
	return shapeStyles[models.ShapeRectangle]
}

func defaultEdgeStyle(arrow models.ArrowKind) string {
	if arrow == "" {
		arrow = models.ArrowClassic
	}
	return fmt.Sprintf("edgeStyle=orthogonalEdgeStyle;rounded=0;orthogonalLoop=1;jettySize=auto;html=1;endArrow=%s;", arrow)
}

// placementStyle renders the optional label placement tokens. Returns ""
// when no placement was supplied, keeping the plain edge style untouched.
func placementStyle(p *models.LabelPlacement) string {
	if p.Empty() {
		return ""
	}
	var b strings.Builder
	if p.Position != "" {
		fmt.Fprintf(&b, "labelPosition=%s;", p.Position)
	}
	if p.BackgroundColor != "" {
		fmt.Fprintf(&b, "labelBackgroundColor=%s;", p.BackgroundColor)
	}
	return b.String()
}

// ============================================================
// Helpers
// ============================================================

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// escapeXML escapes the five XML metacharacters for attribute embedding.
func escapeXML(text string) string {
	return xmlEscaper.Replace(text)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
