package models

// ============================================================
// Shape & Arrow Kinds
// ============================================================

type ShapeKind string

const (
	ShapeRectangle     ShapeKind = "rectangle"
	ShapeEllipse       ShapeKind = "ellipse"
	ShapeDiamond       ShapeKind = "diamond"
	ShapeParallelogram ShapeKind = "parallelogram"
	ShapeHexagon       ShapeKind = "hexagon"
	ShapeCylinder      ShapeKind = "cylinder"
	ShapeCloud         ShapeKind = "cloud"
)

func (k ShapeKind) Valid() bool {
	switch k {
	case ShapeRectangle, ShapeEllipse, ShapeDiamond, ShapeParallelogram,
		ShapeHexagon, ShapeCylinder, ShapeCloud:
		return true
	}
	return false
}

type ArrowKind string

const (
	ArrowClassic ArrowKind = "classic"
	ArrowBlock   ArrowKind = "block"
	ArrowOpen    ArrowKind = "open"
	ArrowOval    ArrowKind = "oval"
	ArrowDiamond ArrowKind = "diamond"
	ArrowNone    ArrowKind = "none"
)

func (k ArrowKind) Valid() bool {
	switch k {
	case ArrowClassic, ArrowBlock, ArrowOpen, ArrowOval, ArrowDiamond, ArrowNone:
		return true
	}
	return false
}

// ============================================================
// Diagram Elements
// ============================================================

type Shape struct {
	ID     string
	Label  string
	X      float64
	Y      float64
	Width  float64
	Height float64
	Kind   ShapeKind
	Style  string // custom style override; replaces the kind default when set
}

// LabelPlacement позиционирует подпись соединения.
type LabelPlacement struct {
	Position        string // "left", "right" or "center"; empty = unset
	DX              *float64
	DY              *float64
	BackgroundColor string // hex color or "none"; empty = unset
}

func (p *LabelPlacement) HasOffset() bool {
	return p != nil && (p.DX != nil || p.DY != nil)
}

func (p *LabelPlacement) Empty() bool {
	return p == nil || (p.Position == "" && p.DX == nil && p.DY == nil && p.BackgroundColor == "")
}

type Connection struct {
	ID        string
	Label     string
	SourceID  string
	TargetID  string
	Arrow     ArrowKind
	Style     string
	Placement *LabelPlacement // nil for a plain connection
}

// ============================================================
// Cells
// ============================================================

// Cell is the flat summary of a serialized mxCell. Numeric fields are
// pointers so an absent attribute stays distinguishable from zero.
type Cell struct {
	ID     string
	Value  string
	Style  string
	Vertex bool
	Edge   bool

	X      *float64
	Y      *float64
	Width  *float64
	Height *float64

	Source string
	Target string
}

// ============================================================
// Patch Operations
// ============================================================

type OpKind string

const (
	OpUpdate OpKind = "update"
	OpAdd    OpKind = "add"
	OpDelete OpKind = "delete"
)

type Operation struct {
	Kind   OpKind `json:"operation"`
	CellID string `json:"cell_id"`
	NewXML string `json:"new_xml,omitempty"`
}

// OperationError is one per-operation diagnostic. Warning entries mean the
// operation still applied but the result is worth reviewing.
type OperationError struct {
	Op      string `json:"operation"`
	CellID  string `json:"cell_id"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}
