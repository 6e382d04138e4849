package patch

import (
	"fmt"

	"github.com/beevik/etree"

	"drawio-server/internal/diagram/models"
)

// ============================================================
// ID-based Patch Engine
// ============================================================

// Result carries the re-serialized document plus the ordered per-operation
// diagnostics. A structural failure returns the input text unchanged with a
// single error entry.
type Result struct {
	XML    string
	Errors []models.OperationError
}

// Apply runs update/add/delete operations against the mxCell tree. Each
// operation is independently ok-or-error: a failed operation never leaves a
// half-applied cell, and it never aborts the rest of the batch. The tree is
// serialized exactly once, after the whole batch.
func Apply(xmlText string, ops []models.Operation) Result {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlText); err != nil {
		return Result{
			XML: xmlText,
			Errors: []models.OperationError{
				{Op: "parse", Message: fmt.Sprintf("XML parse error: %v", err)},
			},
		}
	}

	root := doc.FindElement("//root")
	if root == nil {
		return Result{
			XML: xmlText,
			Errors: []models.OperationError{
				{Op: "parse", Message: "could not find <root> element in XML"},
			},
		}
	}

	// id → element lookup, kept current across the batch
	cells := make(map[string]*etree.Element)
	for _, cell := range root.FindElements(".//mxCell") {
		if id := cell.SelectAttrValue("id", ""); id != "" {
			cells[id] = cell
		}
	}

	var errs []models.OperationError
	for _, op := range ops {
		switch op.Kind {
		case models.OpUpdate:
			errs = append(errs, applyUpdate(cells, op)...)
		case models.OpAdd:
			errs = append(errs, applyAdd(root, cells, op)...)
		case models.OpDelete:
			errs = append(errs, applyDelete(root, cells, op)...)
		default:
			errs = append(errs, models.OperationError{
				Op:      string(op.Kind),
				CellID:  op.CellID,
				Message: fmt.Sprintf("unknown operation %q", op.Kind),
			})
		}
	}

	out, err := doc.WriteToString()
	if err != nil {
		errs = append(errs, models.OperationError{
			Op:      "serialize",
			Message: fmt.Sprintf("failed to serialize result: %v", err),
		})
		return Result{XML: xmlText, Errors: errs}
	}
	return Result{XML: out, Errors: errs}
}

func applyUpdate(cells map[string]*etree.Element, op models.Operation) []models.OperationError {
	existing, ok := cells[op.CellID]
	if !ok {
		return opError(op, fmt.Sprintf("Cell with id=%q not found", op.CellID))
	}
	replacement, msg := parseCellFragment(op, "update")
	if msg != "" {
		return opError(op, msg)
	}

	// replace in place, preserving the sibling position
	parent := existing.Parent()
	idx := existing.Index()
	parent.InsertChildAt(idx, replacement)
	parent.RemoveChild(existing)
	cells[op.CellID] = replacement
	return nil
}

func applyAdd(root *etree.Element, cells map[string]*etree.Element, op models.Operation) []models.OperationError {
	if _, ok := cells[op.CellID]; ok {
		return opError(op, fmt.Sprintf("Cell with id=%q already exists", op.CellID))
	}
	added, msg := parseCellFragment(op, "add")
	if msg != "" {
		return opError(op, msg)
	}

	root.AddChild(added)
	cells[op.CellID] = added
	return nil
}

func applyDelete(root *etree.Element, cells map[string]*etree.Element, op models.Operation) []models.OperationError {
	existing, ok := cells[op.CellID]
	if !ok {
		return opError(op, fmt.Sprintf("Cell with id=%q not found", op.CellID))
	}

	// Dangling references are tolerated: flag every referencing edge but do
	// not block the deletion.
	var errs []models.OperationError
	for _, cell := range root.FindElements(".//mxCell") {
		if cell.SelectAttrValue("source", "") == op.CellID || cell.SelectAttrValue("target", "") == op.CellID {
			errs = append(errs, models.OperationError{
				Op:      string(op.Kind),
				CellID:  op.CellID,
				Message: fmt.Sprintf("deleting cell %q which is referenced by edge %q", op.CellID, cell.SelectAttrValue("id", "")),
				Warning: true,
			})
		}
	}

	existing.Parent().RemoveChild(existing)
	delete(cells, op.CellID)
	return errs
}

// parseCellFragment validates the replacement payload: it must parse, contain
// an mxCell, and carry the same id the operation targets. The returned
// element is detached and safe to graft into the main tree.
func parseCellFragment(op models.Operation, verb string) (*etree.Element, string) {
	if op.NewXML == "" {
		return nil, fmt.Sprintf("new_xml is required for %s operation", verb)
	}

	frag := etree.NewDocument()
	if err := frag.ReadFromString("<wrapper>" + op.NewXML + "</wrapper>"); err != nil {
		return nil, fmt.Sprintf("failed to parse new_xml: %v", err)
	}

	cell := frag.FindElement("//mxCell")
	if cell == nil {
		return nil, "new_xml must contain an mxCell element"
	}

	id := cell.SelectAttrValue("id", "")
	if id != op.CellID {
		return nil, fmt.Sprintf("ID mismatch: cell_id is %q but new_xml has id=%q", op.CellID, id)
	}
	return cell.Copy(), ""
}

func opError(op models.Operation, msg string) []models.OperationError {
	return []models.OperationError{{Op: string(op.Kind), CellID: op.CellID, Message: msg}}
}
