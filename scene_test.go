package main

import (
	"errors"
	"reflect"
	"testing"
)

// 160x96 px canvas, the standard editor default.
func newTestScene(t *testing.T) *Scene {
	t.Helper()
	return NewScene(160, 96)
}

func TestNewSceneDimensions(t *testing.T) {
	tests := []struct {
		name         string
		widthPx      int
		heightPx     int
		wantW, wantH int
	}{
		{name: "default", widthPx: 160, heightPx: 96, wantW: 160, wantH: 96},
		{name: "rounds down to whole cells", widthPx: 161, heightPx: 97, wantW: 160, wantH: 96},
		{name: "minimum one cell", widthPx: 0, heightPx: 0, wantW: 2, wantH: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScene(tt.widthPx, tt.heightPx)
			if s.WidthPx() != tt.wantW || s.HeightPx() != tt.wantH {
				t.Fatalf("canvas = %dx%d px, want %dx%d", s.WidthPx(), s.HeightPx(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestAddLayer(t *testing.T) {
	s := newTestScene(t)

	layer, err := s.AddLayer("base")
	if err != nil {
		t.Fatalf("AddLayer(base) error = %v", err)
	}
	if layer.ID != "base" || layer.Name != "base" || !layer.Visible {
		t.Fatalf("AddLayer(base) = %+v, want visible layer with id == name", layer)
	}
	if s.ActiveLayerID() != "base" {
		t.Fatalf("active layer = %q, want base", s.ActiveLayerID())
	}

	if _, err := s.AddLayer("base"); err == nil {
		t.Fatal("AddLayer(base) twice did not fail")
	}
	if _, err := s.AddLayer(""); err == nil {
		t.Fatal("AddLayer with empty name did not fail")
	}

	if _, err := s.AddLayer("frame"); err != nil {
		t.Fatalf("AddLayer(frame) error = %v", err)
	}
	if s.ActiveLayerID() != "frame" {
		t.Fatalf("active layer = %q, want the newly created frame", s.ActiveLayerID())
	}
}

func TestSetActiveLayer(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("base")
	s.AddLayer("frame")

	if err := s.SetActiveLayer("base"); err != nil {
		t.Fatalf("SetActiveLayer(base) error = %v", err)
	}
	if s.ActiveLayerID() != "base" {
		t.Fatalf("active layer = %q, want base", s.ActiveLayerID())
	}

	err := s.SetActiveLayer("ghost")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("SetActiveLayer(ghost) error = %v, want *NotFoundError", err)
	}
	if s.ActiveLayerID() != "base" {
		t.Fatal("failed SetActiveLayer changed the active layer")
	}
}

func TestCycleActiveLayer(t *testing.T) {
	s := newTestScene(t)
	s.CycleActiveLayer(1) // no layers: no-op
	if s.ActiveLayerID() != "" {
		t.Fatalf("cycle on empty layer list set active to %q", s.ActiveLayerID())
	}

	s.AddLayer("a")
	s.AddLayer("b")
	s.AddLayer("c")
	// active is c (last added)
	s.CycleActiveLayer(1)
	if s.ActiveLayerID() != "a" {
		t.Fatalf("cycle forward from c = %q, want wrap to a", s.ActiveLayerID())
	}
	s.CycleActiveLayer(-1)
	if s.ActiveLayerID() != "c" {
		t.Fatalf("cycle back from a = %q, want wrap to c", s.ActiveLayerID())
	}
	s.CycleActiveLayer(-1)
	if s.ActiveLayerID() != "b" {
		t.Fatalf("cycle back from c = %q, want b", s.ActiveLayerID())
	}
}

func TestAddBoxRoundTrip(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("frame")

	want := Rect{X: 8, Y: 8, W: 143, H: 79}
	comp, err := s.AddBox(ComponentOptions{Rect: want})
	if err != nil {
		t.Fatalf("AddBox error = %v", err)
	}
	if comp.Rect != want {
		t.Fatalf("AddBox rect = %+v, want %+v", comp.Rect, want)
	}
	got, ok := s.ComponentByID(comp.ID)
	if !ok {
		t.Fatalf("ComponentByID(%q) not found", comp.ID)
	}
	if !reflect.DeepEqual(got, comp) {
		t.Fatalf("ComponentByID = %+v, want %+v", got, comp)
	}
}

func TestAddBoxErrors(t *testing.T) {
	tests := []struct {
		name    string
		prep    func(*Scene)
		opts    ComponentOptions
		wantErr any
	}{
		{
			name:    "no active layer",
			prep:    func(s *Scene) {},
			opts:    ComponentOptions{Rect: Rect{W: 4, H: 4}},
			wantErr: &NoActiveLayerError{},
		},
		{
			name:    "unknown explicit layer",
			prep:    func(s *Scene) { s.AddLayer("base") },
			opts:    ComponentOptions{LayerID: "ghost", Rect: Rect{W: 4, H: 4}},
			wantErr: &NotFoundError{},
		},
		{
			name:    "zero width rect",
			prep:    func(s *Scene) { s.AddLayer("base") },
			opts:    ComponentOptions{Rect: Rect{X: 8, Y: 8, W: 0, H: 10}},
			wantErr: &GeometryError{},
		},
		{
			name:    "exceeds canvas width",
			prep:    func(s *Scene) { s.AddLayer("frame") },
			opts:    ComponentOptions{Rect: Rect{X: 8, Y: 8, W: 200, H: 10}},
			wantErr: &OutOfBoundsError{},
		},
		{
			name:    "negative origin",
			prep:    func(s *Scene) { s.AddLayer("base") },
			opts:    ComponentOptions{Rect: Rect{X: -1, Y: 0, W: 4, H: 4}},
			wantErr: &OutOfBoundsError{},
		},
		{
			name: "duplicate explicit id",
			prep: func(s *Scene) {
				s.AddLayer("base")
				s.AddBox(ComponentOptions{ID: "logo", Rect: Rect{W: 4, H: 4}})
			},
			opts:    ComponentOptions{ID: "logo", Rect: Rect{X: 10, Y: 10, W: 4, H: 4}},
			wantErr: &SchemaError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(t)
			tt.prep(s)
			before := s.ToDoc()
			_, err := s.AddBox(tt.opts)
			if err == nil {
				t.Fatal("AddBox did not fail")
			}
			switch want := tt.wantErr.(type) {
			case *NoActiveLayerError:
				if !errors.As(err, &want) {
					t.Fatalf("error = %T, want *NoActiveLayerError", err)
				}
			case *NotFoundError:
				if !errors.As(err, &want) {
					t.Fatalf("error = %T, want *NotFoundError", err)
				}
			case *GeometryError:
				if !errors.As(err, &want) {
					t.Fatalf("error = %T, want *GeometryError", err)
				}
			case *OutOfBoundsError:
				if !errors.As(err, &want) {
					t.Fatalf("error = %T, want *OutOfBoundsError", err)
				}
			case *SchemaError:
				if !errors.As(err, &want) {
					t.Fatalf("error = %T, want *SchemaError", err)
				}
			}
			if !reflect.DeepEqual(before, s.ToDoc()) {
				t.Fatal("failed AddBox left partial state behind")
			}
		})
	}
}

func TestAddBoxTouchingEdgeSucceeds(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("base")
	if _, err := s.AddBox(ComponentOptions{Rect: Rect{X: 0, Y: 0, W: 160, H: 96}}); err != nil {
		t.Fatalf("full-canvas box rejected: %v", err)
	}
}

func TestAutoIDMinting(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("base")

	first, _ := s.AddBox(ComponentOptions{Rect: Rect{W: 4, H: 4}})
	if first.ID != "c1" {
		t.Fatalf("first auto id = %q, want c1", first.ID)
	}

	// An explicit id occupying the counter's next value gets skipped.
	if _, err := s.AddBox(ComponentOptions{ID: "c2", Rect: Rect{X: 8, Y: 0, W: 4, H: 4}}); err != nil {
		t.Fatalf("explicit id add error = %v", err)
	}
	third, _ := s.AddBox(ComponentOptions{Rect: Rect{X: 16, Y: 0, W: 4, H: 4}})
	if third.ID != "c3" {
		t.Fatalf("auto id after occupied c2 = %q, want c3", third.ID)
	}
}

func TestAddImage(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("art")
	comp, err := s.AddImage(ComponentOptions{Rect: Rect{X: 2, Y: 2, W: 20, H: 12}})
	if err != nil {
		t.Fatalf("AddImage error = %v", err)
	}
	if comp.Type != TypeImage {
		t.Fatalf("AddImage type = %q, want %q", comp.Type, TypeImage)
	}
	if comp.LayerID != "art" {
		t.Fatalf("AddImage layer = %q, want the active layer", comp.LayerID)
	}
}

func TestUpdateComponentRect(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("base")
	comp, _ := s.AddBox(ComponentOptions{Rect: Rect{X: 0, Y: 0, W: 10, H: 10}})

	want := Rect{X: 20, Y: 20, W: 6, H: 6}
	if err := s.UpdateComponentRect(comp.ID, want); err != nil {
		t.Fatalf("UpdateComponentRect error = %v", err)
	}
	got, _ := s.ComponentByID(comp.ID)
	if got.Rect != want {
		t.Fatalf("rect after update = %+v, want %+v", got.Rect, want)
	}

	if err := s.UpdateComponentRect("ghost", want); err == nil {
		t.Fatal("update of unknown id did not fail")
	}
	if err := s.UpdateComponentRect(comp.ID, Rect{X: 0, Y: 0, W: 500, H: 5}); err == nil {
		t.Fatal("out-of-bounds update did not fail")
	}
	got, _ = s.ComponentByID(comp.ID)
	if got.Rect != want {
		t.Fatal("failed update changed the stored rect")
	}
}

func TestUpdateComponentMeta(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("base")
	comp, _ := s.AddBox(ComponentOptions{
		Rect: Rect{W: 4, H: 4},
		Meta: map[string]any{"note": "old", "locked": true},
	})

	if err := s.UpdateComponentMeta(comp.ID, map[string]any{"note": "new"}); err != nil {
		t.Fatalf("UpdateComponentMeta error = %v", err)
	}
	got, _ := s.ComponentByID(comp.ID)
	if got.Meta["note"] != "new" {
		t.Fatalf("meta note = %v, want new", got.Meta["note"])
	}
	if _, ok := got.Meta["locked"]; ok {
		t.Fatal("meta replace kept the old locked entry; replace is wholesale")
	}

	if err := s.UpdateComponentMeta("ghost", nil); err == nil {
		t.Fatal("meta update of unknown id did not fail")
	}
}

func TestRemoveComponentIdempotent(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("base")
	comp, _ := s.AddBox(ComponentOptions{Rect: Rect{W: 4, H: 4}})

	before := s.ToDoc()
	s.RemoveComponent("nonexistent")
	if !reflect.DeepEqual(before, s.ToDoc()) {
		t.Fatal("removing a nonexistent id changed the document")
	}

	s.RemoveComponent(comp.ID)
	if _, ok := s.ComponentByID(comp.ID); ok {
		t.Fatal("component still present after removal")
	}
	s.RemoveComponent(comp.ID) // second removal is a no-op
}

func TestComponentAt(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("base")
	bottom, _ := s.AddBox(ComponentOptions{Rect: Rect{X: 0, Y: 0, W: 20, H: 20}})
	top, _ := s.AddBox(ComponentOptions{Rect: Rect{X: 10, Y: 10, W: 20, H: 20}})

	if got, ok := s.ComponentAt(15, 15); !ok || got.ID != top.ID {
		t.Fatalf("ComponentAt(15,15) = %v, want topmost %s", got.ID, top.ID)
	}
	if got, ok := s.ComponentAt(2, 2); !ok || got.ID != bottom.ID {
		t.Fatalf("ComponentAt(2,2) = %v, want %s", got.ID, bottom.ID)
	}
	if _, ok := s.ComponentAt(100, 90); ok {
		t.Fatal("ComponentAt on empty space reported a hit")
	}
}

func TestSceneFromDoc(t *testing.T) {
	doc := validDoc()
	s, err := SceneFromDoc(doc)
	if err != nil {
		t.Fatalf("SceneFromDoc error = %v", err)
	}
	if s.ActiveLayerID() != "frame" {
		t.Fatalf("active layer = %q, want the last declared layer", s.ActiveLayerID())
	}
	if !reflect.DeepEqual(s.ToDoc(), doc) {
		t.Fatal("ToDoc after FromDoc differs from the source document")
	}

	// The rebuilt scene must not alias the input.
	doc.Components[0].Rect.W = 999
	got, _ := s.ComponentByID("c1")
	if got.Rect.W == 999 {
		t.Fatal("scene aliases the document it was built from")
	}

	bad := validDoc()
	bad.State.NextID = 0
	if _, err := SceneFromDoc(bad); err == nil {
		t.Fatal("SceneFromDoc accepted an invalid document")
	}
}

func TestSceneFromDocNoLayers(t *testing.T) {
	doc := SceneDoc{
		SchemaVersion: docSchemaVersion,
		Units:         docUnits,
		Size:          DocSize{WidthCells: 10, HeightCells: 10},
		State:         DocState{NextID: 1},
	}
	s, err := SceneFromDoc(doc)
	if err != nil {
		t.Fatalf("SceneFromDoc error = %v", err)
	}
	if s.ActiveLayerID() != "" {
		t.Fatalf("active layer = %q, want none", s.ActiveLayerID())
	}
	_, err = s.AddBox(ComponentOptions{Rect: Rect{W: 2, H: 2}})
	var noActive *NoActiveLayerError
	if !errors.As(err, &noActive) {
		t.Fatalf("AddBox without layers error = %v, want *NoActiveLayerError", err)
	}
}

func TestSetLayerVisible(t *testing.T) {
	s := newTestScene(t)
	s.AddLayer("base")
	if err := s.SetLayerVisible("base", false); err != nil {
		t.Fatalf("SetLayerVisible error = %v", err)
	}
	if s.Layers()[0].Visible {
		t.Fatal("layer still visible after hide")
	}
	if err := s.SetLayerVisible("ghost", true); err == nil {
		t.Fatal("SetLayerVisible on unknown layer did not fail")
	}
}
