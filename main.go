package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func main() {
	p := tea.NewProgram(
		initialModel(),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}

type model struct {
	width  int
	height int

	scene   *Scene
	history History
	config  *Config

	mode Mode

	// Cursor in sub-pixel coordinates.
	cursorX int
	cursorY int

	// In-progress drag: anchor corner plus the live preview rect. The
	// preview is only ever passed to Render as an overlay; cancelling is
	// dropping the value, never a rollback.
	drawAnchorX int
	drawAnchorY int
	pending     *Rect
	dragging    bool

	filename        string
	inputText       string
	fileOp          FileOperation
	confirmAction   ConfirmAction
	pendingFilename string

	errorMessage   string
	successMessage string
	warnings       []Warning
}

var (
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1)
	promptStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func initialModel() model {
	config := loadConfig()
	m := model{
		scene:  NewScene(config.CanvasWidth, config.CanvasHeight),
		config: config,
		mode:   ModeNormal,
	}
	if len(os.Args) > 1 {
		if err := m.openFile(os.Args[1]); err != nil {
			m.errorMessage = err.Error()
			m.scene.AddLayer("base")
		}
	} else if config.StartMenu {
		m.mode = ModeStartup
	} else {
		m.scene.AddLayer("base")
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		key := msg.String()
		switch m.mode {
		case ModeStartup:
			return m.handleStartupKey(key)
		case ModeNormal:
			return m.handleNormalKey(key)
		case ModeDraw:
			return m.handleDrawKey(key)
		case ModeLayerInput, ModeFileInput:
			return m.handleInputKey(key)
		case ModeConfirm:
			return m.handleConfirmKey(key)
		}
	}
	return m, nil
}

func (m model) handleStartupKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n":
		m.scene.AddLayer("base")
		m.mode = ModeNormal
	case "o":
		m.fileOp = FileOpOpen
		m.inputText = ""
		m.mode = ModeFileInput
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleNormalKey(key string) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	m.successMessage = ""

	if isNavigationKey(key) {
		m.handleCursorMove(key, m.getMoveSpeed(key))
		return m, nil
	}

	switch key {
	case "q":
		if m.config.Confirmations {
			m.confirmAction = ConfirmQuit
			m.mode = ModeConfirm
			return m, nil
		}
		return m, tea.Quit
	case "ctrl+c":
		return m, tea.Quit
	case "b", " ":
		m.startDraw(m.cursorX, m.cursorY)
	case "n":
		m.inputText = ""
		m.mode = ModeLayerInput
	case "tab":
		m.scene.CycleActiveLayer(1)
	case "shift+tab":
		m.scene.CycleActiveLayer(-1)
	case "v":
		m.toggleActiveVisibility()
	case "d", "x":
		m.deleteAtCursor()
	case "u":
		m.undo()
	case "s":
		m.fileOp = FileOpSave
		m.inputText = m.filename
		m.mode = ModeFileInput
	case "o":
		m.fileOp = FileOpOpen
		m.inputText = ""
		m.mode = ModeFileInput
	case "e":
		m.fileOp = FileOpSavePNG
		m.inputText = ""
		m.mode = ModeFileInput
	case "t":
		m.fileOp = FileOpSaveTXT
		m.inputText = ""
		m.mode = ModeFileInput
	case "y":
		if err := m.yankFrame(); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "frame copied to clipboard"
		}
	case "ctrl+n":
		m.confirmAction = ConfirmNewCanvas
		m.mode = ModeConfirm
	}
	return m, nil
}

func (m model) handleDrawKey(key string) (tea.Model, tea.Cmd) {
	if isNavigationKey(key) {
		m.handleCursorMove(key, m.getMoveSpeed(key))
		m.updatePending()
		return m, nil
	}
	switch key {
	case "enter", " ":
		m.commitPending(TypeBox)
	case "i":
		m.commitPending(TypeImage)
	case "esc", "escape":
		m.cancelPending()
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleInputKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "escape":
		m.inputText = ""
		m.mode = ModeNormal
	case "enter":
		text := strings.TrimSpace(m.inputText)
		m.inputText = ""
		if m.mode == ModeLayerInput {
			m.mode = ModeNormal
			m.addLayer(text)
		} else {
			m.mode = ModeNormal
			m.performFileOp(text)
		}
	case "backspace":
		if len(m.inputText) > 0 {
			m.inputText = m.inputText[:len(m.inputText)-1]
		}
	case "ctrl+c":
		return m, tea.Quit
	default:
		if len(key) == 1 {
			m.inputText += key
		}
	}
	return m, nil
}

func (m model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y", "enter":
		switch m.confirmAction {
		case ConfirmQuit:
			return m, tea.Quit
		case ConfirmOverwriteFile:
			m.mode = ModeNormal
			m.saveFile(m.pendingFilename)
		case ConfirmNewCanvas:
			m.mode = ModeNormal
			m.newCanvas()
		}
	case "n", "N", "esc", "escape":
		m.mode = ModeNormal
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != ModeNormal && m.mode != ModeDraw {
		return m, nil
	}
	// Mouse events arrive in cell coordinates; anchor drags to the cell's
	// top-left sub-pixel. With cell motion enabled, a held left button
	// reports as repeated MouseLeft events.
	px := msg.X * cellPxW
	py := msg.Y * cellPxH

	switch msg.Type {
	case tea.MouseLeft:
		m.cursorX, m.cursorY = px, py
		m.ensureCursorInBounds()
		if !m.dragging {
			m.startDraw(m.cursorX, m.cursorY)
			m.dragging = true
		} else {
			m.updatePending()
		}
	case tea.MouseMotion:
		if m.dragging {
			m.cursorX, m.cursorY = px, py
			m.ensureCursorInBounds()
			m.updatePending()
		}
	case tea.MouseRelease:
		if m.dragging {
			m.cursorX, m.cursorY = px, py
			m.ensureCursorInBounds()
			m.updatePending()
			m.dragging = false
			m.commitPending(TypeBox)
		}
	}
	return m, nil
}

func (m *model) startDraw(x, y int) {
	m.drawAnchorX = x
	m.drawAnchorY = y
	r := rectBetween(x, y, x, y)
	m.pending = &r
	m.mode = ModeDraw
}

func (m *model) updatePending() {
	if m.pending == nil {
		return
	}
	r := rectBetween(m.drawAnchorX, m.drawAnchorY, m.cursorX, m.cursorY)
	*m.pending = r
}

func (m *model) cancelPending() {
	m.pending = nil
	m.dragging = false
	m.mode = ModeNormal
}

func (m *model) commitPending(typ string) {
	if m.pending == nil {
		m.mode = ModeNormal
		return
	}
	rect := *m.pending
	m.pending = nil
	m.dragging = false
	m.mode = ModeNormal

	snap := TakeSnapshot(m.scene)
	var comp Component
	var err error
	if typ == TypeImage {
		comp, err = m.scene.AddImage(ComponentOptions{Rect: rect})
	} else {
		comp, err = m.scene.AddBox(ComponentOptions{Rect: rect})
	}
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.history.Push(snap)
	m.successMessage = fmt.Sprintf("added %s %s on layer %s", comp.Type, comp.ID, comp.LayerID)
}

func (m *model) addLayer(name string) {
	if name == "" {
		return
	}
	snap := TakeSnapshot(m.scene)
	layer, err := m.scene.AddLayer(name)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.history.Push(snap)
	m.successMessage = fmt.Sprintf("layer %s added and active", layer.ID)
}

func (m *model) toggleActiveVisibility() {
	id := m.scene.ActiveLayerID()
	if id == "" {
		m.errorMessage = "no active layer"
		return
	}
	for _, l := range m.scene.Layers() {
		if l.ID == id {
			snap := TakeSnapshot(m.scene)
			if err := m.scene.SetLayerVisible(id, !l.Visible); err != nil {
				m.errorMessage = err.Error()
				return
			}
			m.history.Push(snap)
			return
		}
	}
}

func (m *model) deleteAtCursor() {
	comp, ok := m.scene.ComponentAt(m.cursorX, m.cursorY)
	if !ok {
		m.errorMessage = "nothing under cursor"
		return
	}
	if comp.Locked() {
		m.errorMessage = fmt.Sprintf("component %s is locked", comp.ID)
		return
	}
	snap := TakeSnapshot(m.scene)
	m.scene.RemoveComponent(comp.ID)
	m.history.Push(snap)
	m.successMessage = fmt.Sprintf("removed %s", comp.ID)
}

func (m *model) undo() {
	scene, ok := m.history.Undo()
	if !ok {
		m.errorMessage = "nothing to undo"
		return
	}
	m.scene = scene
	m.ensureCursorInBounds()
	m.successMessage = "undone"
}

func (m *model) newCanvas() {
	m.scene = NewScene(m.config.CanvasWidth, m.config.CanvasHeight)
	m.scene.AddLayer("base")
	m.history.Clear()
	m.filename = ""
	m.warnings = nil
	m.cursorX, m.cursorY = 0, 0
}

func (m *model) performFileOp(name string) {
	if name == "" {
		return
	}
	switch m.fileOp {
	case FileOpSave:
		filename := ensureExt(name, ".json")
		path := m.config.GetSavePath(filename)
		if m.config.Confirmations && filename != m.filename {
			if _, err := os.Stat(path); err == nil {
				m.pendingFilename = filename
				m.confirmAction = ConfirmOverwriteFile
				m.mode = ModeConfirm
				return
			}
		}
		m.saveFile(filename)
	case FileOpOpen:
		if err := m.openFile(ensureExt(name, ".json")); err != nil {
			m.errorMessage = err.Error()
		}
	case FileOpSavePNG:
		path := m.config.GetSavePath(ensureExt(name, ".png"))
		if err := m.scene.ExportPNG(path); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "exported " + path
		}
	case FileOpSaveTXT:
		path := m.config.GetSavePath(ensureExt(name, ".txt"))
		if err := m.scene.ExportTXT(path); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "exported " + path
		}
	}
}

func (m *model) saveFile(filename string) {
	data, err := MarshalCompact(m.scene.ToDoc())
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	path := m.config.GetSavePath(filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.filename = filename
	m.successMessage = "saved " + path
}

// openFile loads a compact document and replaces the scene wholesale. A
// failed load keeps the current scene untouched; a successful one is
// undoable like any other mutation.
func (m *model) openFile(filename string) error {
	path := m.config.GetSavePath(filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, warnings, err := UnmarshalCompact(data)
	if err != nil {
		return err
	}
	scene, err := SceneFromDoc(doc)
	if err != nil {
		return err
	}
	snap := TakeSnapshot(m.scene)
	m.scene = scene
	m.history.Push(snap)
	m.filename = filename
	m.warnings = warnings
	m.mode = ModeNormal
	m.cursorX, m.cursorY = 0, 0
	if len(warnings) > 0 {
		m.successMessage = fmt.Sprintf("loaded %s (%s)", path, formatWarnings(warnings))
	} else {
		m.successMessage = "loaded " + path
	}
	return nil
}

func (m model) View() string {
	if m.mode == ModeStartup {
		return promptStyle.Render("dotdraw") +
			"\n\nPress 'n' for a new canvas, 'o' to open a file, or 'q' to quit.\n"
	}

	overlay := m.pending
	if overlay == nil {
		// Mark the cursor as a one-dot overlay so it shares the preview
		// color path instead of mutating any buffer.
		overlay = &Rect{X: m.cursorX, Y: m.cursorY, W: 1, H: 1}
	}

	var out strings.Builder
	out.WriteString(m.scene.Render(overlay))
	out.WriteString(m.statusLine())
	return out.String()
}

func (m model) statusLine() string {
	switch m.mode {
	case ModeLayerInput:
		return promptStyle.Render("Layer name: ") + m.inputText + "█"
	case ModeFileInput:
		label := "Filename: "
		switch m.fileOp {
		case FileOpOpen:
			label = "Open file: "
		case FileOpSavePNG:
			label = "Export PNG as: "
		case FileOpSaveTXT:
			label = "Export TXT as: "
		}
		return promptStyle.Render(label) + m.inputText + "█"
	case ModeConfirm:
		switch m.confirmAction {
		case ConfirmQuit:
			return promptStyle.Render("Quit without saving? (y/n)")
		case ConfirmOverwriteFile:
			return promptStyle.Render(fmt.Sprintf("Overwrite %s? (y/n)", m.pendingFilename))
		case ConfirmNewCanvas:
			return promptStyle.Render("Discard current canvas? (y/n)")
		}
	}

	active := m.scene.ActiveLayerID()
	if active == "" {
		active = "(none)"
	} else {
		for _, l := range m.scene.Layers() {
			if l.ID == active && !l.Visible {
				active += " (hidden)"
			}
		}
	}
	name := m.filename
	if name == "" {
		name = "[untitled]"
	}
	modeName := "NORMAL"
	if m.mode == ModeDraw {
		modeName = "DRAW"
	}
	status := statusStyle.Render(fmt.Sprintf("%s  %s  layer:%s  %d,%d",
		modeName, name, active, m.cursorX, m.cursorY))
	if m.errorMessage != "" {
		status += " " + errorStyle.Render(m.errorMessage)
	} else if m.successMessage != "" {
		status += " " + successStyle.Render(m.successMessage)
	} else if len(m.warnings) > 0 {
		status += " " + warningStyle.Render(formatWarnings(m.warnings))
	}
	return status
}
