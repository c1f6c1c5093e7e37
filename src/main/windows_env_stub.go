//go:build !windows

package main

import (
	"log"

	"github.com/SysAdminDoc/SwiftShot/src/snapshot"
)

func enableDPIAwareness() {}

func logEnvironment() {
	bounds, err := snapshot.DisplayBounds()
	if err != nil {
		log.Printf("MONITOR: display query failed: %v", err)
		return
	}
	log.Printf("MONITOR: %d displays", len(bounds))
	for i, b := range bounds {
		log.Printf("MONITOR: display %d - x:%d y:%d w:%d h:%d", i, b.Min.X, b.Min.Y, b.Dx(), b.Dy())
	}
}
