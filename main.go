// Package main provides the entry point for the VRU Annotate application.
package main

import (
	"log"
	"os"
	"time"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"

	"vru-annotate/internal/app"
	"vru-annotate/internal/version"
	"vru-annotate/ui/mainwindow"
	"vru-annotate/ui/prefs"
)

const appTitle = "VRU Annotate"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s %s", appTitle, version.String())

	fyneApp := fyneapp.NewWithID("vru-annotate")
	state := app.NewState()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, state, appPrefs)

	if len(os.Args) > 1 {
		path := os.Args[1]
		if err := state.LoadProject(path); err != nil {
			log.Printf("load project %s: %v", path, err)
		}
	}

	setupHotReload(win)

	win.SetOnClosed(func() {
		win.Shutdown()
		if err := appPrefs.Save(); err != nil {
			log.Printf("save preferences: %v", err)
		}
		state.Close()
	})

	win.ShowAndRun()
}

// setupHotReload prompts for restart when a newer binary appears during
// development.
func setupHotReload(win *mainwindow.MainWindow) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("hot reload: unable to determine executable path")
		return
	}

	reloader.OnNewBinary(func() {
		log.Println("hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if restart {
					if err := reloader.Restart(); err != nil {
						log.Printf("hot reload: restart failed: %v", err)
					}
					return
				}
				reloader.ResetBaseline()
				reloader.Start()
			}, win.Window)
	})
	reloader.Start()
}
