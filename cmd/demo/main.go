package main

import (
	"fmt"
	"log"
	"os"

	"drawio-server/internal/diagram/cells"
	"drawio-server/internal/diagram/document"
	"drawio-server/internal/diagram/models"
	"drawio-server/internal/diagram/service"
)

// ============================================================
// Demo: build a login flowchart and export it
// ============================================================

func main() {
	doc := document.New("User Login Flow")

	startID := doc.AddShape("Start", 200, 50, 100, 40, models.ShapeEllipse, "")
	inputID := doc.AddShape("Enter Credentials", 150, 130, 200, 60, models.ShapeParallelogram, "")
	validateID := doc.AddShape("Validate\nCredentials?", 165, 230, 150, 90, models.ShapeDiamond, "")
	dashboardID := doc.AddShape("Go to\nDashboard", 320, 360, 120, 60, models.ShapeRectangle, "")
	errorID := doc.AddShape("Show Error\nMessage", 20, 360, 120, 60, models.ShapeRectangle, "")
	endID := doc.AddShape("End", 200, 460, 100, 40, models.ShapeEllipse, "")

	mustConnect(doc, startID, inputID, "", nil)
	mustConnect(doc, inputID, validateID, "", nil)
	mustConnect(doc, validateID, dashboardID, "Valid", &models.LabelPlacement{Position: "right"})
	mustConnect(doc, validateID, errorID, "Invalid", &models.LabelPlacement{Position: "left"})
	mustConnect(doc, dashboardID, endID, "", nil)
	mustConnect(doc, errorID, endID, "", nil)

	xml := doc.ToXML()
	fmt.Println(xml)

	summary := cells.List(xml)
	log.Printf("diagram has %d cells (%d shapes, %d connections)",
		len(summary), doc.ShapeCount(), doc.ConnectionCount())

	out := "login_flow.drawio"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}
	storage := service.NewFileStorage(".")
	path, err := storage.WriteDiagram(out, xml)
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	log.Printf("exported to %s", path)
}

func mustConnect(doc *document.Document, source, target, label string, placement *models.LabelPlacement) {
	if _, err := doc.AddConnection(source, target, label, models.ArrowClassic, "", placement); err != nil {
		log.Fatalf("connect %s -> %s: %v", source, target, err)
	}
}
