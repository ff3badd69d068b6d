package service

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// ResourceMonitor gates expensive processing on current system load.
type ResourceMonitor struct {
	maxMemoryMB   int
	maxCPUPercent float64
}

func NewResourceMonitor(maxMemoryMB int, maxCPUPercent float64) *ResourceMonitor {
	if maxMemoryMB <= 0 {
		maxMemoryMB = 512
	}
	if maxCPUPercent <= 0 {
		maxCPUPercent = 90
	}
	return &ResourceMonitor{
		maxMemoryMB:   maxMemoryMB,
		maxCPUPercent: maxCPUPercent,
	}
}

// HasCapacity reports whether enhanced processing should proceed.
// On measurement failure it fails open: an unrelated monitoring bug must
// not block processing.
func (m *ResourceMonitor) HasCapacity() bool {
	vm, err := mem.VirtualMemory()
	if err != nil {
		logrus.Errorf("[RESOURCE] Error checking system memory: %v", err)
		return true
	}
	availableMB := float64(vm.Available) / (1024 * 1024)
	if availableMB < float64(m.maxMemoryMB) {
		logrus.Warnf("[RESOURCE] Insufficient memory: %.1fMB available, %dMB required", availableMB, m.maxMemoryMB)
		return false
	}

	percents, err := cpu.Percent(time.Second, false)
	if err != nil {
		logrus.Errorf("[RESOURCE] Error checking CPU usage: %v", err)
		return true
	}
	if len(percents) > 0 && percents[0] > m.maxCPUPercent {
		logrus.Warnf("[RESOURCE] High CPU usage: %.1f%%", percents[0])
		return false
	}

	return true
}
