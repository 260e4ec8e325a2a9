package main

import (
	"encoding/json"
	"fmt"
	"math"
)

// compactVersion is the only envelope version this build reads or writes.
const compactVersion = 1

// warnUnsupportedNode marks a node whose type this version cannot render.
const warnUnsupportedNode = "unsupportedNode"

// CompactDoc is the terse on-disk shape: pixel dimensions, layer ids in
// order, and one array tuple per node. It trades readability for size so
// saved documents stay single-digit KB and diff cleanly.
type CompactDoc struct {
	V      int            `json:"v"`
	W      int            `json:"w"`
	H      int            `json:"h"`
	Layers []string       `json:"layers"`
	Nodes  []CompactNode  `json:"nodes"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// CompactNode is one [type, id, layerId, [x,y,w,h], meta?] tuple. The meta
// element is omitted entirely when empty; an empty object is never written.
type CompactNode struct {
	Type    string
	ID      string
	LayerID string
	Rect    Rect
	Meta    map[string]any
}

// Warning is a non-fatal load diagnostic. Warnings accompany a successfully
// loaded document; they never abort the load.
type Warning struct {
	Type     string `json:"type"`
	NodeType string `json:"nodeType"`
	NodeID   string `json:"nodeId"`
}

func (n CompactNode) MarshalJSON() ([]byte, error) {
	tuple := []any{n.Type, n.ID, n.LayerID, [4]int{n.Rect.X, n.Rect.Y, n.Rect.W, n.Rect.H}}
	if len(n.Meta) > 0 {
		tuple = append(tuple, n.Meta)
	}
	return json.Marshal(tuple)
}

func (n *CompactNode) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 4 && len(raw) != 5 {
		return fmt.Errorf("node tuple has %d elements, want 4 or 5", len(raw))
	}
	if err := json.Unmarshal(raw[0], &n.Type); err != nil {
		return fmt.Errorf("node type: %v", err)
	}
	if err := json.Unmarshal(raw[1], &n.ID); err != nil {
		return fmt.Errorf("node id: %v", err)
	}
	if err := json.Unmarshal(raw[2], &n.LayerID); err != nil {
		return fmt.Errorf("node layer id: %v", err)
	}
	var coords []float64
	if err := json.Unmarshal(raw[3], &coords); err != nil {
		return fmt.Errorf("node rect: %v", err)
	}
	if len(coords) != 4 {
		return fmt.Errorf("node rect has %d values, want 4", len(coords))
	}
	ints := [4]int{}
	for i, v := range coords {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return fmt.Errorf("node rect value %v is not an integer", v)
		}
		ints[i] = int(v)
	}
	n.Rect = Rect{X: ints[0], Y: ints[1], W: ints[2], H: ints[3]}
	n.Meta = nil
	if len(raw) == 5 {
		if err := json.Unmarshal(raw[4], &n.Meta); err != nil {
			return fmt.Errorf("node meta: %v", err)
		}
	}
	return nil
}

// CompactFromDoc maps a document into its compact shape. Components whose
// type this version cannot render are skipped; they round-trip as absent,
// which is the forward-compat placeholder for future node kinds.
func CompactFromDoc(doc SceneDoc) CompactDoc {
	c := CompactDoc{
		V:      compactVersion,
		W:      doc.WidthPx(),
		H:      doc.HeightPx(),
		Layers: make([]string, len(doc.Layers)),
		Nodes:  make([]CompactNode, 0, len(doc.Components)),
		Meta:   cloneMeta(doc.Meta),
	}
	for i, l := range doc.Layers {
		c.Layers[i] = l.ID
	}
	for _, comp := range doc.Components {
		if !renderableType(comp.Type) {
			continue
		}
		c.Nodes = append(c.Nodes, CompactNode{
			Type:    comp.Type,
			ID:      comp.ID,
			LayerID: comp.LayerID,
			Rect:    comp.Rect,
			Meta:    cloneMeta(comp.Meta),
		})
	}
	return c
}

// DocFromCompact validates the compact envelope and rebuilds the rich
// document. Structural damage is a hard SchemaError; a node whose type this
// version does not support is dropped with a collected warning instead, so
// newer files still open.
func DocFromCompact(c CompactDoc) (SceneDoc, []Warning, error) {
	if c.V != compactVersion {
		return SceneDoc{}, nil, &SchemaError{Reason: fmt.Sprintf("unsupported compact version %d", c.V)}
	}
	if c.W < cellPxW || c.H < cellPxH {
		return SceneDoc{}, nil, &SchemaError{Reason: fmt.Sprintf("canvas %dx%d px is below one cell", c.W, c.H)}
	}
	if c.W%cellPxW != 0 || c.H%cellPxH != 0 {
		return SceneDoc{}, nil, &SchemaError{Reason: fmt.Sprintf("canvas %dx%d px is not cell-aligned", c.W, c.H)}
	}
	layerIDs := make(map[string]bool, len(c.Layers))
	layers := make([]Layer, len(c.Layers))
	for i, id := range c.Layers {
		if id == "" {
			return SceneDoc{}, nil, &SchemaError{Reason: "layer with empty id"}
		}
		if layerIDs[id] {
			return SceneDoc{}, nil, &SchemaError{Reason: fmt.Sprintf("duplicate layer id %q", id)}
		}
		layerIDs[id] = true
		layers[i] = Layer{ID: id, Name: id, Visible: true}
	}

	var warnings []Warning
	nodeIDs := make(map[string]bool, len(c.Nodes))
	used := make(map[int]bool)
	components := make([]Component, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.Type == "" || n.ID == "" {
			return SceneDoc{}, nil, &SchemaError{Reason: "node with empty type or id"}
		}
		if nodeIDs[n.ID] {
			return SceneDoc{}, nil, &SchemaError{Reason: fmt.Sprintf("duplicate node id %q", n.ID)}
		}
		nodeIDs[n.ID] = true
		if !layerIDs[n.LayerID] {
			return SceneDoc{}, nil, &SchemaError{Reason: fmt.Sprintf("node %q references unknown layer %q", n.ID, n.LayerID)}
		}
		if err := validateRect(n.Rect); err != nil {
			return SceneDoc{}, nil, &SchemaError{Reason: fmt.Sprintf("node %q: %v", n.ID, err)}
		}
		if !renderableType(n.Type) {
			warnings = append(warnings, Warning{
				Type:     warnUnsupportedNode,
				NodeType: n.Type,
				NodeID:   n.ID,
			})
			continue
		}
		if counter, ok := componentCounter(n.ID); ok {
			used[counter] = true
		}
		components = append(components, Component{
			ID:      n.ID,
			Type:    n.Type,
			LayerID: n.LayerID,
			Rect:    n.Rect,
			Meta:    cloneMeta(n.Meta),
		})
	}

	// Smallest unused counter; the mint loop skips occupied ids beyond it.
	nextID := 1
	for used[nextID] {
		nextID++
	}

	doc := SceneDoc{
		SchemaVersion: docSchemaVersion,
		Units:         docUnits,
		Size:          DocSize{WidthCells: c.W / cellPxW, HeightCells: c.H / cellPxH},
		Layers:        layers,
		Components:    components,
		State:         DocState{NextID: nextID},
		Meta:          cloneMeta(c.Meta),
	}
	return doc, warnings, nil
}

// MarshalCompact serializes a document to compact JSON bytes.
func MarshalCompact(doc SceneDoc) ([]byte, error) {
	return json.Marshal(CompactFromDoc(doc))
}

// UnmarshalCompact parses compact JSON bytes into a document plus any
// unsupported-node warnings. Malformed JSON is reported as a SchemaError so
// callers see one failure taxonomy for all load problems.
func UnmarshalCompact(data []byte) (SceneDoc, []Warning, error) {
	var c CompactDoc
	if err := json.Unmarshal(data, &c); err != nil {
		return SceneDoc{}, nil, &SchemaError{Reason: err.Error()}
	}
	return DocFromCompact(c)
}
