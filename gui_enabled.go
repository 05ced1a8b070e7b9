//go:build gui

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"procrec/gui"
	"procrec/log"
	"procrec/pipeline"
	"procrec/shutdown"
)

// runGUI owns the main goroutine for the fyne event loop. The audio
// context is opened here first so capture is initialized on the main
// thread.
func runGUI(cfg *config) int {
	var app *gui.App
	p, mode, err := newPipeline(cfg, func(text string) { app.Status(text) })
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	env, err := openRecorder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer env.Close()

	session := pipeline.NewSession(p, env.recorder)
	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	app = gui.NewApp(
		func() {
			app.ModeLine(mode)
			app.DeviceLine(deviceLineText(env.capture.DeviceName()))
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					app.Quit()
					return
				case <-ticker.C:
					st := session.State()
					app.SetState(st == pipeline.StateRecording, st == pipeline.StateProcessing)
				}
			}
		},
		func() {
			if err := session.Toggle(ctx); errors.Is(err, pipeline.ErrBusy) {
				app.Status("Still processing the previous recording...")
			}
		},
		stop,
	)
	sink = app

	if err := gui.Run(app); err != nil {
		log.Errorf("gui error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	session.Close()
	log.SessionEnd(session.Exported())
	return 0
}
