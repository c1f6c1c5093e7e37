//go:build windows

package main

import (
	"log"

	"golang.org/x/sys/windows"
)

var (
	shcore                 = windows.NewLazySystemDLL("shcore.dll")
	user32                 = windows.NewLazySystemDLL("user32.dll")
	setProcessDpiAwareness = shcore.NewProc("SetProcessDpiAwareness")
	setProcessDPIAware     = user32.NewProc("SetProcessDPIAware")
	getSystemMetrics       = user32.NewProc("GetSystemMetrics")
)

// enableDPIAwareness opts the process into per-monitor DPI awareness so the
// overlay geometry matches physical pixels on scaled displays.
func enableDPIAwareness() {
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret == 0 {
			log.Printf("DPI: per-monitor awareness set")
		} else {
			log.Printf("DPI: SetProcessDpiAwareness returned %#x", ret)
		}
		return
	}

	// Pre-8.1 fallback: system DPI awareness.
	if err := setProcessDPIAware.Find(); err == nil {
		if ret, _, _ := setProcessDPIAware.Call(); ret != 0 {
			log.Printf("DPI: system awareness set (fallback)")
		} else {
			log.Printf("DPI: SetProcessDPIAware failed")
		}
	} else {
		log.Printf("DPI: no awareness API available")
	}
}

// logEnvironment records the monitor layout at startup; multi-monitor
// capture bugs are impossible to chase without it.
func logEnvironment() {
	if err := getSystemMetrics.Find(); err != nil {
		return
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
	metric := func(index int) int {
		ret, _, _ := getSystemMetrics.Call(uintptr(index))
		return int(int32(ret))
	}

	log.Printf("MONITOR: %d monitors", metric(smCMonitors))
	log.Printf("MONITOR: virtual screen x:%d y:%d w:%d h:%d",
		metric(smXVirtualScreen), metric(smYVirtualScreen),
		metric(smCXVirtualScreen), metric(smCYVirtualScreen))
	log.Printf("MONITOR: primary screen w:%d h:%d", metric(smCXScreen), metric(smCYScreen))
}
