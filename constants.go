package main

type Mode int

const (
	ModeStartup Mode = iota
	ModeNormal
	ModeDraw
	ModeLayerInput
	ModeFileInput
	ModeConfirm
)

type FileOperation int

const (
	FileOpSave FileOperation = iota
	FileOpOpen
	FileOpSavePNG
	FileOpSaveTXT
)

type ConfirmAction int

const (
	ConfirmOverwriteFile ConfirmAction = iota
	ConfirmQuit
	ConfirmNewCanvas
)

// ANSI escapes for the three render states. Neutral cells carry no escape.
const (
	colorReset   = "\x1b[0m"
	colorActive  = "\x1b[36m"
	colorOverlay = "\x1b[33m"
)

const (
	// Default canvas size in sub-pixels (80x24 cells).
	defaultCanvasWidth  = 160
	defaultCanvasHeight = 96

	// Scale factor for PNG export: one sub-pixel becomes a scale x scale
	// square.
	pngPixelScale = 4
)
