package tray

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const (
	MenuCapture = "Capture Screen"
	MenuShow    = "Show Window"
)

type Actions struct {
	Capture func()
	Show    func()
}

// Menu builds the tray menu. Items with a nil action are omitted.
func Menu(actions Actions) *fyne.Menu {
	var items []*fyne.MenuItem
	if actions.Capture != nil {
		items = append(items, fyne.NewMenuItem(MenuCapture, actions.Capture))
	}
	if actions.Show != nil {
		items = append(items, fyne.NewMenuItem(MenuShow, actions.Show))
	}
	return fyne.NewMenu("Region Chat", items...)
}

// Install sets the tray menu and icon when the driver supports a system
// tray. It reports whether the tray was installed.
func Install(app fyne.App, actions Actions) bool {
	desk, ok := app.(desktop.App)
	if !ok {
		return false
	}
	desk.SetSystemTrayMenu(Menu(actions))
	desk.SetSystemTrayIcon(Icon)
	return true
}
