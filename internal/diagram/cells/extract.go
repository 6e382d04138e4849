package cells

import (
	"encoding/xml"
	"io"
	"strings"

	"drawio-server/internal/diagram/models"
)

// ============================================================
// XML Structures
// ============================================================

type cellXML struct {
	ID       string    `xml:"id,attr"`
	Value    string    `xml:"value,attr"`
	Style    string    `xml:"style,attr"`
	Vertex   string    `xml:"vertex,attr"`
	Edge     string    `xml:"edge,attr"`
	Source   string    `xml:"source,attr"`
	Target   string    `xml:"target,attr"`
	Geometry []geomXML `xml:"mxGeometry"`
}

type geomXML struct {
	X      *float64 `xml:"x,attr"`
	Y      *float64 `xml:"y,attr"`
	Width  *float64 `xml:"width,attr"`
	Height *float64 `xml:"height,attr"`
	As     string   `xml:"as,attr"`
}

// ============================================================
// Extractor
// ============================================================

// List walks every mxCell in the document and returns a flat summary,
// skipping the two background cells. This is a best-effort read path:
// malformed input yields an empty list, never an error.
func List(xmlText string) []models.Cell {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))

	var out []models.Cell
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "mxCell" {
			continue
		}

		var raw cellXML
		if err := decoder.DecodeElement(&raw, &start); err != nil {
			return nil
		}
		if raw.ID == "" || raw.ID == "0" || raw.ID == "1" {
			continue
		}
		out = append(out, toCell(raw))
	}
	return out
}

func toCell(raw cellXML) models.Cell {
	cell := models.Cell{
		ID:     raw.ID,
		Value:  raw.Value,
		Style:  raw.Style,
		Vertex: raw.Vertex == "1",
		Edge:   raw.Edge == "1",
		Source: raw.Source,
		Target: raw.Target,
	}

	// Position and size come from the geometry child; edges only carry a
	// relative marker there, so absent attributes stay nil.
	for _, geom := range raw.Geometry {
		if geom.As != "" && geom.As != "geometry" {
			continue
		}
		cell.X = geom.X
		cell.Y = geom.Y
		cell.Width = geom.Width
		cell.Height = geom.Height
		break
	}
	return cell
}
