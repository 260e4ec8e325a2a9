package main

import (
	"fmt"
)

// Scene is the in-memory authoritative state: the document plus one packed
// pixel buffer per layer and the active-layer pointer. Every mutation
// validates first and commits only on success, so the wrapped document
// satisfies its invariants after every call.
type Scene struct {
	doc           SceneDoc
	buffers       map[string][]byte
	activeLayerID string
}

// ComponentOptions carries the optional parts of an add operation. A zero
// LayerID targets the active layer; a zero ID is minted from the document's
// counter.
type ComponentOptions struct {
	ID      string
	LayerID string
	Rect    Rect
	Meta    map[string]any
}

// NewScene creates an empty scene. Pixel dimensions are rounded down to
// whole cells, with a minimum of one cell.
func NewScene(widthPx, heightPx int) *Scene {
	wc := widthPx / cellPxW
	if wc < 1 {
		wc = 1
	}
	hc := heightPx / cellPxH
	if hc < 1 {
		hc = 1
	}
	return &Scene{
		doc: SceneDoc{
			SchemaVersion: docSchemaVersion,
			Units:         docUnits,
			Size:          DocSize{WidthCells: wc, HeightCells: hc},
			State:         DocState{NextID: 1},
		},
		buffers: make(map[string][]byte),
	}
}

// SceneFromDoc rebuilds a scene from a persisted document. The document is
// re-validated, deep-copied, and the last declared layer becomes active
// (none if the document declares no layers).
func SceneFromDoc(doc SceneDoc) (*Scene, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	s := &Scene{
		doc:     cloneDoc(doc),
		buffers: make(map[string][]byte, len(doc.Layers)),
	}
	for _, l := range s.doc.Layers {
		s.buffers[l.ID] = make([]byte, s.doc.Size.WidthCells*s.doc.Size.HeightCells)
	}
	if n := len(s.doc.Layers); n > 0 {
		s.activeLayerID = s.doc.Layers[n-1].ID
	}
	return s, nil
}

// ToDoc snapshots the scene into a detached document value.
func (s *Scene) ToDoc() SceneDoc {
	return cloneDoc(s.doc)
}

func (s *Scene) WidthPx() int  { return s.doc.WidthPx() }
func (s *Scene) HeightPx() int { return s.doc.HeightPx() }

// ActiveLayerID returns the active layer id, or "" when no layer exists.
func (s *Scene) ActiveLayerID() string { return s.activeLayerID }

// Layers returns a copy of the declared layer list in document order.
func (s *Scene) Layers() []Layer {
	out := make([]Layer, len(s.doc.Layers))
	copy(out, s.doc.Layers)
	return out
}

// Components returns a copy of the component list in document z-order.
func (s *Scene) Components() []Component {
	out := make([]Component, len(s.doc.Components))
	for i, c := range s.doc.Components {
		out[i] = cloneComponent(c)
	}
	return out
}

func (s *Scene) layerIndex(id string) int {
	for i, l := range s.doc.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *Scene) componentIndex(id string) int {
	for i, c := range s.doc.Components {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// AddLayer appends a new visible layer and makes it active. The name is the
// id; it must not collide with an existing layer.
func (s *Scene) AddLayer(name string) (Layer, error) {
	if name == "" {
		return Layer{}, &SchemaError{Reason: "layer name is empty"}
	}
	if s.layerIndex(name) >= 0 {
		return Layer{}, &SchemaError{Reason: fmt.Sprintf("duplicate layer id %q", name)}
	}
	l := Layer{ID: name, Name: name, Visible: true}
	s.doc.Layers = append(s.doc.Layers, l)
	s.buffers[name] = make([]byte, s.doc.Size.WidthCells*s.doc.Size.HeightCells)
	s.activeLayerID = name
	return l, nil
}

// SetActiveLayer points the active-layer marker at an existing layer.
func (s *Scene) SetActiveLayer(name string) error {
	if s.layerIndex(name) < 0 {
		return &NotFoundError{Kind: "layer", ID: name}
	}
	s.activeLayerID = name
	return nil
}

// CycleActiveLayer moves the active-layer marker by dir declared positions,
// wrapping around. No-op when the document has no layers.
func (s *Scene) CycleActiveLayer(dir int) {
	n := len(s.doc.Layers)
	if n == 0 {
		return
	}
	cur := s.layerIndex(s.activeLayerID)
	if cur < 0 {
		s.activeLayerID = s.doc.Layers[n-1].ID
		return
	}
	idx := ((cur+dir)%n + n) % n
	s.activeLayerID = s.doc.Layers[idx].ID
}

// SetLayerVisible toggles a layer in or out of the composite without
// touching its contents.
func (s *Scene) SetLayerVisible(name string, visible bool) error {
	i := s.layerIndex(name)
	if i < 0 {
		return &NotFoundError{Kind: "layer", ID: name}
	}
	s.doc.Layers[i].Visible = visible
	return nil
}

// AddBox validates and appends a box component. Drawing is deferred to
// render time; nothing is rasterized here.
func (s *Scene) AddBox(opts ComponentOptions) (Component, error) {
	return s.addComponent(TypeBox, opts)
}

// AddImage validates and appends an image component.
func (s *Scene) AddImage(opts ComponentOptions) (Component, error) {
	return s.addComponent(TypeImage, opts)
}

func (s *Scene) addComponent(typ string, opts ComponentOptions) (Component, error) {
	layerID := opts.LayerID
	if layerID == "" {
		layerID = s.activeLayerID
	}
	if layerID == "" {
		return Component{}, &NoActiveLayerError{}
	}
	if s.layerIndex(layerID) < 0 {
		return Component{}, &NotFoundError{Kind: "layer", ID: layerID}
	}
	if err := s.checkRect(opts.Rect); err != nil {
		return Component{}, err
	}
	id := opts.ID
	if id != "" {
		if s.componentIndex(id) >= 0 {
			return Component{}, &SchemaError{Reason: fmt.Sprintf("duplicate component id %q", id)}
		}
	} else {
		id = s.mintID()
	}
	c := Component{
		ID:      id,
		Type:    typ,
		LayerID: layerID,
		Rect:    opts.Rect,
		Meta:    cloneMeta(opts.Meta),
	}
	s.doc.Components = append(s.doc.Components, c)
	return cloneComponent(c), nil
}

// mintID mints the next auto id, skipping any counter already taken by an
// explicitly supplied id. Runs after all validation so the counter never
// advances on a rejected add.
func (s *Scene) mintID() string {
	for {
		id := fmt.Sprintf("c%d", s.doc.State.NextID)
		s.doc.State.NextID++
		if s.componentIndex(id) < 0 {
			return id
		}
	}
}

// checkRect is the strict, bounds-aware rect check used for mutations. The
// renderer clips instead; the two policies are intentionally different.
func (s *Scene) checkRect(r Rect) error {
	if err := validateRect(r); err != nil {
		return err
	}
	if r.X < 0 || r.Y < 0 || r.X+r.W > s.WidthPx() || r.Y+r.H > s.HeightPx() {
		return &OutOfBoundsError{Rect: r, CanvasW: s.WidthPx(), CanvasH: s.HeightPx()}
	}
	return nil
}

// ComponentByID returns a copy of the component with the given id.
func (s *Scene) ComponentByID(id string) (Component, bool) {
	i := s.componentIndex(id)
	if i < 0 {
		return Component{}, false
	}
	return cloneComponent(s.doc.Components[i]), true
}

// ComponentAt returns the topmost component whose rect contains the given
// pixel, walking z-order back to front.
func (s *Scene) ComponentAt(xPx, yPx int) (Component, bool) {
	for i := len(s.doc.Components) - 1; i >= 0; i-- {
		r := s.doc.Components[i].Rect
		if xPx >= r.X && xPx < r.X+r.W && yPx >= r.Y && yPx < r.Y+r.H {
			return cloneComponent(s.doc.Components[i]), true
		}
	}
	return Component{}, false
}

// UpdateComponentRect replaces a component's rect by value. Reserved
// component types have no geometry to edit and are rejected.
func (s *Scene) UpdateComponentRect(id string, r Rect) error {
	i := s.componentIndex(id)
	if i < 0 {
		return &NotFoundError{Kind: "component", ID: id}
	}
	if !renderableType(s.doc.Components[i].Type) {
		return &SchemaError{Reason: fmt.Sprintf("component %q has non-editable type %q",
			id, s.doc.Components[i].Type)}
	}
	if err := s.checkRect(r); err != nil {
		return err
	}
	s.doc.Components[i].Rect = r
	return nil
}

// UpdateComponentMeta replaces the meta map wholesale.
func (s *Scene) UpdateComponentMeta(id string, meta map[string]any) error {
	i := s.componentIndex(id)
	if i < 0 {
		return &NotFoundError{Kind: "component", ID: id}
	}
	s.doc.Components[i].Meta = cloneMeta(meta)
	return nil
}

// RemoveComponent deletes the component with the given id. Removing an
// absent id is a no-op so that replayed deletions stay idempotent.
func (s *Scene) RemoveComponent(id string) {
	i := s.componentIndex(id)
	if i < 0 {
		return
	}
	s.doc.Components = append(s.doc.Components[:i], s.doc.Components[i+1:]...)
}
