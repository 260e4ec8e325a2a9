package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Schema sentinels. Documents carrying anything else are rejected outright.
const (
	docSchemaVersion = 1
	docUnits         = "px"
)

// Component types. Box and image render today; text and button are reserved
// in the schema for future node kinds.
const (
	TypeBox    = "box"
	TypeImage  = "image"
	TypeText   = "text"
	TypeButton = "button"
)

// One terminal cell holds a 2-wide, 4-tall grid of sub-pixels.
const (
	cellPxW = 2
	cellPxH = 4
)

// Rect is an axis-aligned rectangle in pixel coordinates, origin top-left.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Layer is a named drawing plane. ID and Name are required to be equal: the
// human-facing name doubles as the stable identifier so saved documents diff
// cleanly. Renaming is deliberately unsupported.
type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

// Component is one rectangular element on a layer. Meta is a free-form
// annotation map; a truthy "locked" entry suppresses interactive editing.
type Component struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	LayerID string         `json:"layerId"`
	Rect    Rect           `json:"rect"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Locked reports whether the component's meta carries a truthy "locked" flag.
func (c Component) Locked() bool {
	switch v := c.Meta["locked"].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return false
	}
}

type DocSize struct {
	WidthCells  int `json:"widthCells"`
	HeightCells int `json:"heightCells"`
}

type DocState struct {
	NextID int `json:"nextId"`
}

// SceneDoc is the persisted aggregate and the single source of truth.
// Everything at runtime (pixel buffers, active layer) is derived from it
// and disposable.
type SceneDoc struct {
	SchemaVersion int            `json:"schemaVersion"`
	Units         string         `json:"units"`
	Size          DocSize        `json:"size"`
	Layers        []Layer        `json:"layers"`
	Components    []Component    `json:"components"`
	State         DocState       `json:"state"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// WidthPx returns the canvas width in sub-pixels.
func (d SceneDoc) WidthPx() int { return d.Size.WidthCells * cellPxW }

// HeightPx returns the canvas height in sub-pixels.
func (d SceneDoc) HeightPx() int { return d.Size.HeightCells * cellPxH }

// SchemaError reports a structurally invalid document. Loading fails as a
// whole; the previous in-memory state is kept by the caller.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "invalid document: " + e.Reason }

// GeometryError reports a malformed rectangle on a mutation.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string { return "invalid rect: " + e.Reason }

// OutOfBoundsError reports a rect that does not fit the canvas.
type OutOfBoundsError struct {
	Rect    Rect
	CanvasW int
	CanvasH int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("rect %d,%d %dx%d is outside the %dx%d canvas",
		e.Rect.X, e.Rect.Y, e.Rect.W, e.Rect.H, e.CanvasW, e.CanvasH)
}

// NotFoundError reports a mutation that referenced an unknown layer or
// component id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.Kind, e.ID) }

// NoActiveLayerError reports an add with no explicit layer while no layer
// is active.
type NoActiveLayerError struct{}

func (e *NoActiveLayerError) Error() string { return "no active layer; add a layer first" }

func renderableType(t string) bool {
	return t == TypeBox || t == TypeImage
}

func knownType(t string) bool {
	return renderableType(t) || t == TypeText || t == TypeButton
}

// validateRect rejects degenerate rectangles. Position is not checked here:
// whether a rect must fit the canvas depends on who is asking (strict at
// mutation time, clipped at render time).
func validateRect(r Rect) error {
	if r.W < 1 {
		return &GeometryError{Reason: fmt.Sprintf("width %d < 1", r.W)}
	}
	if r.H < 1 {
		return &GeometryError{Reason: fmt.Sprintf("height %d < 1", r.H)}
	}
	return nil
}

// validateDocument checks every invariant of the persisted shape. The check
// is atomic: the first failure rejects the whole document.
func validateDocument(doc SceneDoc) error {
	if doc.SchemaVersion != docSchemaVersion {
		return &SchemaError{Reason: fmt.Sprintf("unsupported schemaVersion %d", doc.SchemaVersion)}
	}
	if doc.Units != docUnits {
		return &SchemaError{Reason: fmt.Sprintf("unsupported units %q", doc.Units)}
	}
	if doc.Size.WidthCells < 1 || doc.Size.HeightCells < 1 {
		return &SchemaError{Reason: fmt.Sprintf("size %dx%d cells is empty",
			doc.Size.WidthCells, doc.Size.HeightCells)}
	}
	layerIDs := make(map[string]bool, len(doc.Layers))
	for _, l := range doc.Layers {
		if l.ID == "" {
			return &SchemaError{Reason: "layer with empty id"}
		}
		if l.ID != l.Name {
			return &SchemaError{Reason: fmt.Sprintf("layer %q: id and name differ", l.ID)}
		}
		if layerIDs[l.ID] {
			return &SchemaError{Reason: fmt.Sprintf("duplicate layer id %q", l.ID)}
		}
		layerIDs[l.ID] = true
	}
	compIDs := make(map[string]bool, len(doc.Components))
	for _, c := range doc.Components {
		if c.ID == "" {
			return &SchemaError{Reason: "component with empty id"}
		}
		if compIDs[c.ID] {
			return &SchemaError{Reason: fmt.Sprintf("duplicate component id %q", c.ID)}
		}
		compIDs[c.ID] = true
		if !knownType(c.Type) {
			return &SchemaError{Reason: fmt.Sprintf("component %q: unsupported type %q", c.ID, c.Type)}
		}
		if !layerIDs[c.LayerID] {
			return &SchemaError{Reason: fmt.Sprintf("component %q references unknown layer %q", c.ID, c.LayerID)}
		}
		if err := validateRect(c.Rect); err != nil {
			return &SchemaError{Reason: fmt.Sprintf("component %q: %v", c.ID, err)}
		}
	}
	if doc.State.NextID < 1 {
		return &SchemaError{Reason: fmt.Sprintf("nextId %d is not positive", doc.State.NextID)}
	}
	return nil
}

// componentCounter extracts N from an auto-minted id of the form "c<N>".
func componentCounter(id string) (int, bool) {
	if !strings.HasPrefix(id, "c") {
		return 0, false
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func cloneMetaValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneMetaValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneMetaValue(e)
		}
		return out
	default:
		return v
	}
}

func cloneMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneMetaValue(v)
	}
	return out
}

func cloneComponent(c Component) Component {
	c.Meta = cloneMeta(c.Meta)
	return c
}

// cloneDoc is the one deep-copy routine for document state. ToDoc, FromDoc,
// and undo snapshots all go through it so that snapshots never alias the
// live document.
func cloneDoc(doc SceneDoc) SceneDoc {
	out := doc
	out.Layers = make([]Layer, len(doc.Layers))
	copy(out.Layers, doc.Layers)
	out.Components = make([]Component, len(doc.Components))
	for i, c := range doc.Components {
		out.Components[i] = cloneComponent(c)
	}
	out.Meta = cloneMeta(doc.Meta)
	return out
}
