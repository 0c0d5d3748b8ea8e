package tray

import (
	"fyne.io/fyne/v2"
)

// SVG content for the window and tray icon
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <!-- Selection rectangle -->
  <rect x="1.5" y="1.5" width="9" height="7" fill="none" stroke="#0078d4" stroke-width="1.5" stroke-dasharray="2,1" opacity="0.8"/>

  <!-- Chat bubble -->
  <path d="M8 8.5h6a1 1 0 0 1 1 1v3a1 1 0 0 1-1 1h-3.5l-2 1.5v-1.5h-0.5a1 1 0 0 1-1-1v-3a1 1 0 0 1 1-1z" fill="#333333"/>
  <circle cx="9.5" cy="11" r="0.5" fill="#ffffff"/>
  <circle cx="11" cy="11" r="0.5" fill="#ffffff"/>
  <circle cx="12.5" cy="11" r="0.5" fill="#ffffff"/>
</svg>`

// Icon is the static resource used for the window and the system tray.
var Icon = fyne.NewStaticResource("region-chat.svg", []byte(SVGContent))
