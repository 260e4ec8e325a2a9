package main

// Snapshot is a full copy of the document plus the active-layer pointer,
// captured just before a mutating command runs. Whole copies, not diffs:
// documents are rectangles-only and stay small, so simplicity wins.
type Snapshot struct {
	Doc           SceneDoc
	ActiveLayerID string
}

// TakeSnapshot captures the scene's current state as a detached value.
func TakeSnapshot(s *Scene) Snapshot {
	return Snapshot{Doc: s.ToDoc(), ActiveLayerID: s.ActiveLayerID()}
}

// History is the undo stack. There is no redo stack: history is forward-only
// and re-running commands is the way back.
type History struct {
	snapshots []Snapshot
}

// Push records a snapshot taken before a mutation that succeeded.
func (h *History) Push(snap Snapshot) {
	h.snapshots = append(h.snapshots, snap)
}

func (h *History) Len() int { return len(h.snapshots) }

// Clear drops all recorded snapshots, used when a new document replaces the
// scene wholesale.
func (h *History) Clear() {
	h.snapshots = nil
}

// Undo pops the most recent snapshot and rebuilds a scene from it, restoring
// the recorded active layer. Returns false when there is nothing to undo.
func (h *History) Undo() (*Scene, bool) {
	n := len(h.snapshots)
	if n == 0 {
		return nil, false
	}
	snap := h.snapshots[n-1]
	h.snapshots = h.snapshots[:n-1]
	scene, err := SceneFromDoc(snap.Doc)
	if err != nil {
		// Snapshots come from scenes that already passed validation.
		return nil, false
	}
	if scene.layerIndex(snap.ActiveLayerID) >= 0 {
		scene.activeLayerID = snap.ActiveLayerID
	}
	return scene, true
}
