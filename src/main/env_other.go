//go:build !windows

package main

import (
	"go.uber.org/zap"

	"region-chat/src/screenshot"
)

func enableDPIAwareness() string { return "not required on this platform" }

func logMonitorConfiguration(log *zap.Logger) {
	b, err := screenshot.GetDisplayBounds()
	if err != nil {
		log.Warn("no active displays", zap.Error(err))
		return
	}
	log.Info("monitor configuration",
		zap.Int("primary_x", b.Min.X),
		zap.Int("primary_y", b.Min.Y),
		zap.Int("primary_w", b.Dx()),
		zap.Int("primary_h", b.Dy()))
}
