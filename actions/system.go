package actions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	cpuSampleInterval = time.Second
	topProcesses      = 5
	gigabyte          = 1 << 30
)

type MemoryStat struct {
	Total       uint64
	Used        uint64
	UsedPercent float64
}

type ProcessStat struct {
	PID  int32
	Name string
	CPU  float64
}

type InterfaceStat struct {
	Name  string
	Addrs []string
}

// SystemStats reports the machine's load and network state.
type SystemStats interface {
	CPU(ctx context.Context) (total float64, perCore []float64, err error)
	Memory(ctx context.Context) (MemoryStat, error)
	Processes(ctx context.Context) ([]ProcessStat, error)
	Interfaces(ctx context.Context) ([]InterfaceStat, error)
}

// HostStats reads SystemStats from the running host.
type HostStats struct{}

func (HostStats) CPU(ctx context.Context) (float64, []float64, error) {
	perCore, err := cpu.PercentWithContext(ctx, cpuSampleInterval, true)
	if err != nil {
		return 0, nil, err
	}
	if len(perCore) == 0 {
		return 0, nil, fmt.Errorf("cpu: no cores reported")
	}
	var sum float64
	for _, p := range perCore {
		sum += p
	}
	return sum / float64(len(perCore)), perCore, nil
}

func (HostStats) Memory(ctx context.Context) (MemoryStat, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryStat{}, err
	}
	return MemoryStat{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}, nil
}

// Processes skips processes that exit or deny access while being read.
func (HostStats) Processes(ctx context.Context) ([]ProcessStat, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessStat, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		pct, err := p.CPUPercentWithContext(ctx)
		if err != nil {
			continue
		}
		out = append(out, ProcessStat{PID: p.Pid, Name: name, CPU: pct})
	}
	return out, nil
}

// Interfaces lists interfaces that are up, excluding loopback.
func (HostStats) Interfaces(ctx context.Context) ([]InterfaceStat, error) {
	list, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	var out []InterfaceStat
	for _, iface := range list {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		st := InterfaceStat{Name: iface.Name}
		for _, a := range iface.Addrs {
			st.Addrs = append(st.Addrs, a.Addr)
		}
		out = append(out, st)
	}
	return out, nil
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

func cpuReport(ctx context.Context, stats SystemStats) (Result, error) {
	total, perCore, err := stats.CPU(ctx)
	if err != nil {
		return Fail("I couldn't retrieve CPU usage."), err
	}
	cores := make([]string, len(perCore))
	for i, p := range perCore {
		cores[i] = fmt.Sprintf("Core %d: %.0f%%", i, p)
	}
	return Ok("Current CPU usage is %.1f%% overall. Per-core usage: %s.", total, strings.Join(cores, ", ")), nil
}

func memoryReport(ctx context.Context, stats SystemStats) (Result, error) {
	m, err := stats.Memory(ctx)
	if err != nil {
		return Fail("I couldn't retrieve memory usage."), err
	}
	return Ok("Memory usage: %.1f%%. Using %.2f GB out of %.2f GB.",
		m.UsedPercent, float64(m.Used)/gigabyte, float64(m.Total)/gigabyte), nil
}

func processReport(ctx context.Context, stats SystemStats) (Result, error) {
	procs, err := stats.Processes(ctx)
	if err != nil {
		return Fail("I couldn't list the processes."), err
	}
	if len(procs) == 0 {
		return Fail("I couldn't retrieve the process list."), nil
	}
	sort.SliceStable(procs, func(i, j int) bool { return procs[i].CPU > procs[j].CPU })
	if len(procs) > topProcesses {
		procs = procs[:topProcesses]
	}
	parts := make([]string, len(procs))
	for i, p := range procs {
		parts[i] = fmt.Sprintf("%s (PID: %d, CPU: %.1f%%)", p.Name, p.PID, p.CPU)
	}
	return Ok("Here are the top processes by CPU usage: %s.", strings.Join(parts, "; ")), nil
}
