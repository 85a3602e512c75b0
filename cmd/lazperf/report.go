package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/fatih/color"
	"github.com/shirou/gopsutil/v3/process"
)

// resourceMonitor samples process CPU time and memory between two points.
type resourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
}

// resourceUsage is a snapshot taken by resourceMonitor.
type resourceUsage struct {
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryRSS      uint64  `json:"memory_rss"`
	GoroutineCount int     `json:"goroutines"`
	HeapAlloc      uint64  `json:"heap_alloc"`
}

func newResourceMonitor() *resourceMonitor {
	rm := &resourceMonitor{startTime: time.Now()}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return rm
	}
	rm.process = proc
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	return rm
}

func (rm *resourceMonitor) usage() resourceUsage {
	var u resourceUsage

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	u.HeapAlloc = memStats.HeapAlloc
	u.GoroutineCount = runtime.NumGoroutine()

	if rm.process == nil {
		return u
	}
	if cpuTime, err := rm.process.Times(); err == nil {
		if elapsed := time.Since(rm.startTime).Seconds(); elapsed > 0 {
			u.CPUPercent = (cpuTime.Total() - rm.startCPUTime) / elapsed * 100
		}
	}
	if memInfo, err := rm.process.MemoryInfo(); err == nil {
		u.MemoryRSS = memInfo.RSS
	}
	return u
}

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	good    = color.New(color.FgGreen).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

// printSummary writes aligned key/value lines under a heading.
func printSummary(w io.Writer, title string, rows [][2]string) {
	fmt.Fprintln(w, heading(title))
	width := 0
	for _, r := range rows {
		if len(r[0])+1 > width {
			width = len(r[0]) + 1
		}
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-*s  %s\n", width, r[0]+":", r[1])
	}
}

func printUsage(w io.Writer, u resourceUsage) {
	printSummary(w, "Resources", [][2]string{
		{"CPU", fmt.Sprintf("%.1f%%", u.CPUPercent)},
		{"RSS", formatBytes(u.MemoryRSS)},
		{"Heap", formatBytes(u.HeapAlloc)},
		{"Goroutines", fmt.Sprint(u.GoroutineCount)},
	})
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatRate(points uint64, d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f points/s", float64(points)/d.Seconds())
}
