//go:build windows

package main

import (
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// enableDPIAwareness sets per-monitor DPI awareness so captures and window
// coordinates agree on scaled displays. It runs before the logger exists and
// returns a status line for later logging.
func enableDPIAwareness() string {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret == 0 {
			return "per-monitor DPI awareness set"
		}
		return "SetProcessDpiAwareness failed"
	}

	user32 := windows.NewLazySystemDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err != nil {
		return "no DPI awareness API available"
	}
	if ret, _, _ := setProcessDPIAware.Call(); ret != 0 {
		return "system DPI awareness set (fallback)"
	}
	return "SetProcessDPIAware failed"
}

func logMonitorConfiguration(log *zap.Logger) {
	user32 := windows.NewLazySystemDLL("user32.dll")
	getSystemMetrics := user32.NewProc("GetSystemMetrics")
	if err := getSystemMetrics.Find(); err != nil {
		return
	}
	metric := func(index int) int {
		ret, _, _ := getSystemMetrics.Call(uintptr(index))
		return int(int32(ret))
	}

	const (
		smCXScreen        = 0
		smCYScreen        = 1
		smXVirtualScreen  = 76
		smYVirtualScreen  = 77
		smCXVirtualScreen = 78
		smCYVirtualScreen = 79
		smCMonitors       = 80
	)

	log.Info("monitor configuration",
		zap.Int("monitors", metric(smCMonitors)),
		zap.Int("virtual_x", metric(smXVirtualScreen)),
		zap.Int("virtual_y", metric(smYVirtualScreen)),
		zap.Int("virtual_w", metric(smCXVirtualScreen)),
		zap.Int("virtual_h", metric(smCYVirtualScreen)),
		zap.Int("primary_w", metric(smCXScreen)),
		zap.Int("primary_h", metric(smCYScreen)))
}
