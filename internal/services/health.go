package services

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type HealthSnapshot struct {
	Status            string    `json:"status"`
	Mode              string    `json:"mode"`
	CapturedAt        time.Time `json:"capturedAt"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	SystemCpuLoad     float64   `json:"systemCpuLoad"`
}

// CaptureHealth samples process and system state for the health probe.
// Sampling errors leave zero values; the probe itself never fails.
func CaptureHealth(storeEnabled bool) HealthSnapshot {
	snapshot := HealthSnapshot{
		Status:     "ok",
		Mode:       "argo_native",
		CapturedAt: time.Now().UTC(),
	}
	if !storeEnabled {
		snapshot.Mode = "argo_native_no_store"
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil && info != nil {
			snapshot.ProcessRSSBytes = int64(info.RSS)
		}
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		snapshot.SystemMemoryTotal = int64(memStat.Total)
		snapshot.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	if loads, err := cpu.Percent(0, false); err == nil && len(loads) > 0 {
		snapshot.SystemCpuLoad = loads[0] / 100.0
	}
	return snapshot
}
