package actions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	v "github.com/itchyny/volume-go"

	"github.com/playmixer/nova/lexicon"
)

const volumeStep = 10

type VolumeControl interface {
	GetVolume() (int, error)
	SetVolume(int) error
	Mute() error
	Unmute() error
}

// SystemVolume drives the default output device.
type SystemVolume struct{}

func (SystemVolume) GetVolume() (int, error) { return v.GetVolume() }
func (SystemVolume) SetVolume(n int) error   { return v.SetVolume(n) }
func (SystemVolume) Mute() error             { return v.Mute() }
func (SystemVolume) Unmute() error           { return v.Unmute() }

type utilityApp struct {
	label string
	cmd   map[string][]string
}

var utilityApps = map[string]utilityApp{
	"control_panel": {"Control Panel", map[string][]string{
		"windows": {"control"},
		"linux":   {"gnome-control-center"},
		"darwin":  {"open", "-b", "com.apple.systempreferences"},
	}},
	"task_manager": {"Task Manager", map[string][]string{
		"windows": {"taskmgr"},
		"linux":   {"gnome-system-monitor"},
		"darwin":  {"open", "-a", "Activity Monitor"},
	}},
	"file_explorer": {"File Explorer", map[string][]string{
		"windows": {"explorer"},
		"linux":   {"xdg-open", "."},
		"darwin":  {"open", "."},
	}},
	"settings": {"Settings", map[string][]string{
		"windows": {"cmd", "/c", "start", "ms-settings:"},
		"linux":   {"gnome-control-center"},
		"darwin":  {"open", "-b", "com.apple.systempreferences"},
	}},
}

// Utilities handles SystemUtility: desktop tools, output volume and load
// reports.
type Utilities struct {
	GOOS   string
	Runner Runner
	Volume VolumeControl
	Stats  SystemStats
}

func (u *Utilities) Execute(ctx context.Context, params map[string]string) (Result, error) {
	name := params[lexicon.ParamUtility]
	switch name {
	case "volume":
		return u.volume(params)
	case "cpu":
		return cpuReport(ctx, u.Stats)
	case "memory":
		return memoryReport(ctx, u.Stats)
	case "processes":
		return processReport(ctx, u.Stats)
	}
	app, ok := utilityApps[name]
	if !ok {
		return Fail("I'm not sure which utility you want to open."), fmt.Errorf("%w: utility %q", ErrMissingParam, name)
	}
	cmd, ok := app.cmd[u.GOOS]
	if !ok {
		return Fail("I can't open %s on this system.", app.label), ErrUnsupported
	}
	if err := u.Runner.Start(cmd[0], cmd[1:]...); err != nil {
		return Fail("I couldn't open %s.", app.label), err
	}
	return Ok("Opening %s.", app.label), nil
}

func (u *Utilities) volume(params map[string]string) (Result, error) {
	switch params[lexicon.ParamAction] {
	case "mute":
		if err := u.Volume.Mute(); err != nil {
			return Fail("I couldn't mute the volume."), err
		}
		return Ok("Volume muted."), nil
	case "unmute":
		if err := u.Volume.Unmute(); err != nil {
			return Fail("I couldn't unmute the volume."), err
		}
		return Ok("Volume unmuted."), nil
	case "set":
		level, err := parseLevel(params[lexicon.ParamLevel])
		if err != nil {
			return Fail("I didn't catch the volume level."), err
		}
		if err := u.Volume.SetVolume(level); err != nil {
			return Fail("I couldn't change the volume."), err
		}
		return Ok("Volume set to %d percent.", level), nil
	case "up", "down":
		cur, err := u.Volume.GetVolume()
		if err != nil {
			return Fail("I couldn't read the current volume."), err
		}
		next := cur + volumeStep
		if params[lexicon.ParamAction] == "down" {
			next = cur - volumeStep
		}
		next = clamp(next, 0, 100)
		if err := u.Volume.SetVolume(next); err != nil {
			return Fail("I couldn't change the volume."), err
		}
		return Ok("Volume set to %d percent.", next), nil
	}
	return Fail("Would you like the volume up, down or muted?"), fmt.Errorf("%w: volume action %q", ErrMissingParam, params[lexicon.ParamAction])
}

func parseLevel(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: level", ErrMissingParam)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("level %q: %w", s, err)
	}
	return clamp(n, 0, 100), nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
