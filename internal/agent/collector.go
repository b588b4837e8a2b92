package agent

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Collector gathers one snapshot of host metrics. A metric that cannot be
// read is reported in Errors instead of failing the whole snapshot.
type Collector interface {
	Collect(ctx context.Context) domain.HardwareMetrics
}

// HostCollector reads the local machine through gopsutil.
type HostCollector struct {
	// CPUSample is how long CPU usage is measured for.
	CPUSample time.Duration
}

func NewHostCollector() *HostCollector {
	return &HostCollector{CPUSample: 500 * time.Millisecond}
}

func (c *HostCollector) Collect(ctx context.Context) domain.HardwareMetrics {
	var out domain.HardwareMetrics
	fail := func(metric string, err error) {
		out.Errors = append(out.Errors, domain.AgentError{Metric: metric, Message: err.Error()})
	}

	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		out.CPU.PhysicalCore = n
	} else {
		fail("cpu.physical_core", err)
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		out.CPU.LogicalCore = n
	} else {
		fail("cpu.logical_core", err)
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		out.CPU.Frequency = infos[0].Mhz
	} else if err != nil {
		fail("cpu.frequency", err)
	}
	if pct, err := cpu.PercentWithContext(ctx, c.CPUSample, false); err == nil && len(pct) > 0 {
		out.CPU.UsagePercent = pct[0] / 100
	} else if err != nil {
		fail("cpu.usage_percent", err)
	}
	// sensors often return a warning error next to partial readings
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if len(temps) > 0 {
		out.CPU.Temperature = maxTemperature(temps)
	} else if err != nil {
		fail("cpu.temperature", err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		out.Memory = domain.MemoryMetrics{
			TotalBytes:     vm.Total,
			AvailableBytes: vm.Available,
			UsagePercent:   vm.UsedPercent / 100,
		}
	} else {
		fail("memory", err)
	}

	if parts, err := disk.PartitionsWithContext(ctx, false); err == nil {
		for _, p := range parts {
			u, err := disk.UsageWithContext(ctx, p.Mountpoint)
			if err != nil {
				fail("disk."+p.Mountpoint, err)
				continue
			}
			out.Disk = append(out.Disk, domain.DiskMetrics{
				Device:       p.Device,
				TotalBytes:   u.Total,
				FreeBytes:    u.Free,
				UsagePercent: u.UsedPercent / 100,
			})
		}
	} else {
		fail("disk", err)
	}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		out.Host = domain.HostMetrics{OS: hi.OS, Platform: hi.Platform, KernelVersion: hi.KernelVersion}
	} else {
		fail("host", err)
	}
	return out
}

func maxTemperature(temps []host.TemperatureStat) float64 {
	var max float64
	for _, t := range temps {
		if t.Temperature > max {
			max = t.Temperature
		}
	}
	return max
}
