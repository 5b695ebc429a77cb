// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"vru-annotate/internal/app"
	"vru-annotate/internal/export"
	"vru-annotate/internal/keymap"
	"vru-annotate/internal/tools"
	"vru-annotate/ui/canvas"
	"vru-annotate/ui/panels"
	"vru-annotate/ui/prefs"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app        fyne.App
	state      *app.State
	prefs      *prefs.Prefs
	canvas     *canvas.AnnotationCanvas
	sidePanel  *panels.SidePanel
	dispatcher *keymap.Dispatcher
	statusBar  *widget.Label

	playStop chan struct{}
}

// New creates the main window over an annotation session.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("VRU Annotate")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	mw.setupEventHandlers()

	win.Resize(fyne.NewSize(1280, 800))
	return mw
}

func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewAnnotationCanvas(mw.state.Store, mw.state.Machine)
	mw.sidePanel = panels.NewSidePanel(mw.state.Store)
	mw.statusBar = widget.NewLabel("Ready")

	mw.dispatcher = keymap.NewDispatcher(mw.state.Store, mw.state.Clipboard, mw.state.Machine)
	mw.dispatcher.OnFrameStep = func(delta int) {
		if err := mw.state.StepFrame(delta); err != nil {
			log.Printf("frame step: %v", err)
		}
	}
	mw.dispatcher.OnPlayPause = mw.togglePlayback
	mw.dispatcher.OnZoom = mw.applyZoom
	mw.dispatcher.OnToggleGrid = mw.state.ToggleGrid
	mw.dispatcher.OnToggleSnap = mw.state.ToggleSnap

	mw.sidePanel.OnLabelFocus = mw.dispatcher.SetTextInputFocused

	mw.canvas.OnCursor(func(x, y float64) {
		mw.updateStatus(fmt.Sprintf("%.0f, %.0f", x, y))
	})
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.prefs.SetFloat(prefs.KeyZoom, zoom)
	})

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,
		nil, nil, nil,
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.2)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil, nil,
		split,
	)
	mw.SetContent(content)
}

func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	toolButton := func(label string, tool tools.Tool) *widget.Button {
		return widget.NewButton(label, func() {
			mw.state.Machine.SetActiveTool(tool)
			mw.state.Emit(app.EventToolChanged, tool)
		})
	}

	prevBtn := widget.NewButton("<", func() { mw.dispatcher.OnFrameStep(-1) })
	nextBtn := widget.NewButton(">", func() { mw.dispatcher.OnFrameStep(1) })
	playBtn := widget.NewButton("Play", mw.togglePlayback)

	return container.NewHBox(
		toolButton("Select", tools.ToolSelect),
		toolButton("Rect", tools.ToolRectangle),
		toolButton("Polygon", tools.ToolPolygon),
		toolButton("Point", tools.ToolPoint),
		toolButton("Brush", tools.ToolBrush),
		widget.NewSeparator(),
		prevBtn, playBtn, nextBtn,
		widget.NewSeparator(),
		widget.NewButton("-", mw.canvas.ZoomOut),
		widget.NewButton("+", mw.canvas.ZoomIn),
		widget.NewButton("Fit", mw.canvas.FitToWindow),
		widget.NewButton("1:1", func() { mw.canvas.SetZoom(1.0) }),
	)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Video...", mw.onOpenVideo),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Report...", mw.onExportReport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", func() { mw.state.Store.Undo() }),
		fyne.NewMenuItem("Redo", func() { mw.state.Store.Redo() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Select All", func() { mw.state.Store.SelectAllVisible() }),
		fyne.NewMenuItem("Delete Selected", func() {
			mw.state.Store.DeleteShapes(mw.state.Store.SelectedIDs())
		}),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Toggle Grid", mw.state.ToggleGrid),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu))
}

// setupKeys wires plain keys through the window's typed-key hook and Ctrl
// chords through Fyne shortcuts.
func (mw *MainWindow) setupKeys() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		mw.dispatcher.HandleKey(keymap.Key{Name: keyName(ev.Name)})
	})

	type chord struct {
		key    fyne.KeyName
		mods   fyne.KeyModifier
		mapped keymap.Key
	}
	chords := []chord{
		{fyne.KeyZ, fyne.KeyModifierControl, keymap.Key{Name: "Z", Ctrl: true}},
		{fyne.KeyZ, fyne.KeyModifierControl | fyne.KeyModifierShift, keymap.Key{Name: "Z", Ctrl: true, Shift: true}},
		{fyne.KeyY, fyne.KeyModifierControl, keymap.Key{Name: "Y", Ctrl: true}},
		{fyne.KeyC, fyne.KeyModifierControl, keymap.Key{Name: "C", Ctrl: true}},
		{fyne.KeyV, fyne.KeyModifierControl, keymap.Key{Name: "V", Ctrl: true}},
		{fyne.KeyX, fyne.KeyModifierControl, keymap.Key{Name: "X", Ctrl: true}},
		{fyne.KeyA, fyne.KeyModifierControl, keymap.Key{Name: "A", Ctrl: true}},
		{fyne.KeyD, fyne.KeyModifierControl, keymap.Key{Name: "D", Ctrl: true}},
		{fyne.KeyTab, fyne.KeyModifierShift, keymap.Key{Name: "Tab", Shift: true}},
		{fyne.Key1, fyne.KeyModifierShift, keymap.Key{Name: "1", Shift: true}},
		{fyne.Key2, fyne.KeyModifierShift, keymap.Key{Name: "2", Shift: true}},
		{fyne.Key3, fyne.KeyModifierShift, keymap.Key{Name: "3", Shift: true}},
		{fyne.Key4, fyne.KeyModifierShift, keymap.Key{Name: "4", Shift: true}},
		{fyne.Key5, fyne.KeyModifierShift, keymap.Key{Name: "5", Shift: true}},
	}
	for _, c := range chords {
		mapped := c.mapped
		mw.Canvas().AddShortcut(&desktop.CustomShortcut{
			KeyName:  c.key,
			Modifier: c.mods,
		}, func(fyne.Shortcut) {
			mw.dispatcher.HandleKey(mapped)
		})
	}
}

func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventFrameChanged, func(data interface{}) {
		frame, _ := data.(int)
		mw.loadFrameImage(frame)
		mw.updateStatus(mw.frameStatus())
	})
	mw.state.On(app.EventShapesChanged, func(interface{}) {
		mw.updateTitle()
	})
	mw.state.On(app.EventOverlayChanged, func(interface{}) {
		mw.canvas.SetOverlay(mw.state.ShowGrid, mw.state.ShowLabels)
	})
	mw.state.On(app.EventVideoOpened, func(data interface{}) {
		path, _ := data.(string)
		mw.updateStatus(fmt.Sprintf("Opened %s", filepath.Base(path)))
		mw.updateTitle()
	})
	mw.state.On(app.EventToolChanged, func(data interface{}) {
		if tool, ok := data.(tools.Tool); ok {
			mw.updateStatus(fmt.Sprintf("Tool: %s", tool))
		}
	})
}

func (mw *MainWindow) loadFrameImage(frame int) {
	src := mw.state.Source
	if src == nil {
		return
	}
	img, err := src.Frame(frame)
	if err != nil {
		log.Printf("load frame %d: %v", frame, err)
		return
	}
	mw.canvas.SetFrame(img)
}

// togglePlayback starts or stops advancing frames at the video's rate.
func (mw *MainWindow) togglePlayback() {
	mw.state.TogglePlayback()

	if !mw.state.Playing {
		if mw.playStop != nil {
			close(mw.playStop)
			mw.playStop = nil
		}
		return
	}

	fps := 25.0
	if src := mw.state.Source; src != nil && src.FPS() > 0 {
		fps = src.FPS()
	}
	mw.playStop = make(chan struct{})
	stop := mw.playStop
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fyne.Do(func() {
					if err := mw.state.StepFrame(1); err != nil {
						return
					}
				})
			}
		}
	}()
}

func (mw *MainWindow) applyZoom(action keymap.ZoomAction) {
	switch action {
	case keymap.ZoomFit:
		mw.canvas.FitToWindow()
	case keymap.ZoomIn:
		mw.canvas.ZoomIn()
	case keymap.ZoomOut:
		mw.canvas.ZoomOut()
	case keymap.Zoom100:
		mw.canvas.SetZoom(1.0)
	case keymap.Zoom200:
		mw.canvas.SetZoom(2.0)
	}
}

func (mw *MainWindow) onOpenVideo() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		if err := mw.state.OpenVideo(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefs.KeyLastVideoDir, filepath.Dir(path))
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".mp4", ".avi", ".mkv", ".mov"}))
	fd.Show()
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.AddRecentProject(path)
		mw.prefs.SetString(prefs.KeyLastProjectDir, filepath.Dir(path))
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".vruproj"}))
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateTitle()
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.AddRecentProject(path)
		mw.updateTitle()
	}, mw.Window)
	fd.SetFileName("session.vruproj")
	fd.Show()
}

func (mw *MainWindow) onExportReport() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		rep := export.Report{
			FrameShapes: mw.state.AllFrameShapes(),
		}
		if src := mw.state.Source; src != nil {
			rep.VideoPath = src.Path()
			rep.FrameCount = src.FrameCount()
		}
		if err := export.WritePDF(path, rep); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus(fmt.Sprintf("Report written to %s", filepath.Base(path)))
	}, mw.Window)
	fd.SetFileName("report.pdf")
	fd.Show()
}

// Shutdown stops the playback goroutine and the canvas redraw scheduler.
func (mw *MainWindow) Shutdown() {
	if mw.playStop != nil {
		close(mw.playStop)
		mw.playStop = nil
	}
	mw.canvas.Shutdown()
}

func (mw *MainWindow) frameStatus() string {
	src := mw.state.Source
	if src == nil {
		return "No video"
	}
	return fmt.Sprintf("Frame %d / %d", mw.state.Frame()+1, src.FrameCount())
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateTitle() {
	title := "VRU Annotate"
	if mw.state.ProjectPath != "" {
		title += " - " + filepath.Base(mw.state.ProjectPath)
	}
	if mw.state.Modified {
		title += " *"
	}
	mw.SetTitle(title)
}

// keyName normalizes Fyne key names to the dispatcher's convention.
func keyName(name fyne.KeyName) string {
	switch name {
	case fyne.KeyEscape:
		return "Escape"
	case fyne.KeyDelete:
		return "Delete"
	case fyne.KeyBackspace:
		return "BackSpace"
	case fyne.KeyTab:
		return "Tab"
	case fyne.KeySpace:
		return "Space"
	case fyne.KeyUp:
		return "Up"
	case fyne.KeyDown:
		return "Down"
	case fyne.KeyLeft:
		return "Left"
	case fyne.KeyRight:
		return "Right"
	default:
		return string(name)
	}
}
