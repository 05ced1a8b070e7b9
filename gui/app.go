//go:build gui

package gui

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	Title      = "Audio Recorder"
	startLabel = "Start Recording"
	stopLabel  = "Stop Recording"
)

// App is the desktop window: a read-only status box above a single
// start/stop button.
type App struct {
	fyneApp fyne.App
	window  fyne.Window
	status  *widget.Label
	scroll  *container.Scroll
	button  *widget.Button

	onReady  func()
	onToggle func()
	onClose  func()

	mu    sync.Mutex
	lines []string
}

// NewApp wires the window callbacks. onReady runs on its own goroutine
// once the event loop has started.
func NewApp(onReady, onToggle, onClose func()) *App {
	return &App{onReady: onReady, onToggle: onToggle, onClose: onClose}
}

// Run builds the window and blocks in the fyne event loop. It must be
// called from the main goroutine.
func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.procrec.gui")
	a.fyneApp.Settings().SetTheme(&statusTheme{})

	a.window = a.fyneApp.NewWindow(Title)

	a.mu.Lock()
	a.status = widget.NewLabel(strings.Join(a.lines, "\n"))
	a.mu.Unlock()
	a.status.Wrapping = fyne.TextWrapWord
	a.scroll = container.NewVScroll(a.status)

	button := widget.NewButton(startLabel, func() {
		if a.onToggle != nil {
			go a.onToggle()
		}
	})
	button.Importance = widget.HighImportance
	a.mu.Lock()
	a.button = button
	a.mu.Unlock()

	a.window.SetContent(container.NewBorder(nil, button, nil, nil, a.scroll))
	a.window.Resize(fyne.NewSize(520, 360))
	a.window.SetOnClosed(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})

	a.fyneApp.Lifecycle().SetOnStarted(func() {
		if a.onReady != nil {
			go a.onReady()
		}
	})

	a.window.ShowAndRun()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

// Status appends a line to the status box. Safe from any goroutine.
func (a *App) Status(text string) {
	a.mu.Lock()
	a.lines = append(a.lines, text)
	content := strings.Join(a.lines, "\n")
	ready := a.status != nil
	a.mu.Unlock()

	if !ready {
		return
	}
	fyne.Do(func() {
		a.status.SetText(content)
		a.scroll.ScrollToBottom()
	})
}

func (a *App) ModeLine(text string)   { a.Status(text) }
func (a *App) DeviceLine(text string) { a.Status(text) }

// SetState updates the button for the current session state. While the
// previous recording is being processed the button is disabled.
func (a *App) SetState(recording, busy bool) {
	a.mu.Lock()
	ready := a.button != nil
	a.mu.Unlock()
	if !ready {
		return
	}
	fyne.Do(func() {
		if recording {
			a.button.SetText(stopLabel)
		} else {
			a.button.SetText(startLabel)
		}
		if busy {
			a.button.Disable()
		} else {
			a.button.Enable()
		}
	})
}
