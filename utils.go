package main

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// yankFrame copies the current frame, without color escapes, to the system
// clipboard.
func (m *model) yankFrame() error {
	return clipboard.WriteAll(m.scene.RenderPlain())
}

// rectBetween builds the inclusive rectangle spanned by two sub-pixel
// corners, in either drag direction.
func rectBetween(ax, ay, bx, by int) Rect {
	x1, x2 := ax, bx
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	y1, y2 := ay, by
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{X: x1, Y: y1, W: x2 - x1 + 1, H: y2 - y1 + 1}
}

func ensureExt(name, ext string) string {
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return name + ext
}

func formatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = fmt.Sprintf("%s %q skipped", w.NodeType, w.NodeID)
	}
	return strings.Join(parts, ", ")
}
