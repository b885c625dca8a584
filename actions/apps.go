package actions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/playmixer/nova/lexicon"
)

// App lists the commands that may start an application, tried in order.
// An entry with URL set is opened with the desktop's URL handler instead.
type App struct {
	Commands []string
	URL      string
}

var linuxApps = map[string]App{
	"chrome":     {Commands: []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}},
	"firefox":    {Commands: []string{"firefox"}},
	"edge":       {Commands: []string{"microsoft-edge", "microsoft-edge-stable"}},
	"browser":    {URL: "https://www.google.com"},
	"calculator": {Commands: []string{"gnome-calculator", "kcalc", "galculator"}},
	"notepad":    {Commands: []string{"gedit", "gnome-text-editor", "kate", "mousepad"}},
	"terminal":   {Commands: []string{"x-terminal-emulator", "gnome-terminal", "konsole"}},
	"spotify":    {Commands: []string{"spotify"}},
	"vlc":        {Commands: []string{"vlc"}},
	"code":       {Commands: []string{"code"}},
}

var windowsApps = map[string]App{
	"chrome": {Commands: []string{
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}},
	"firefox": {Commands: []string{
		`C:\Program Files\Mozilla Firefox\firefox.exe`,
		`C:\Program Files (x86)\Mozilla Firefox\firefox.exe`,
	}},
	"edge":       {Commands: []string{`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`}},
	"browser":    {URL: "https://www.google.com"},
	"word":       {Commands: []string{`C:\Program Files\Microsoft Office\root\Office16\WINWORD.EXE`}},
	"excel":      {Commands: []string{`C:\Program Files\Microsoft Office\root\Office16\EXCEL.EXE`}},
	"powerpoint": {Commands: []string{`C:\Program Files\Microsoft Office\root\Office16\POWERPNT.EXE`}},
	"calculator": {Commands: []string{"calc.exe"}},
	"notepad":    {Commands: []string{"notepad.exe"}},
	"paint":      {Commands: []string{"mspaint.exe"}},
	"vlc":        {Commands: []string{`C:\Program Files\VideoLAN\VLC\vlc.exe`}},
}

// powerBinaries are programs that power the machine off or end the session.
// Naming one as an application goes to SystemControl instead; an empty
// action means the program is never started from here.
var powerBinaries = map[string]string{
	"shutdown":  "shutdown",
	"poweroff":  "shutdown",
	"halt":      "shutdown",
	"reboot":    "restart",
	"hibernate": "hibernate",
	"suspend":   "sleep",
	"logoff":    "logout",
	"systemctl": "",
	"loginctl":  "",
	"init":      "",
	"telinit":   "",
	"rundll32":  "",
	"pkill":     "",
	"killall":   "",
}

// AppLauncher handles OpenApp. Known names go through the alias table;
// anything else is started as a command of the same name, except power
// programs, which are handed to Power.
type AppLauncher struct {
	GOOS   string
	Runner Runner
	Apps   map[string]App
	Power  Handler
}

func NewAppLauncher(goos string, runner Runner) *AppLauncher {
	apps := linuxApps
	if goos == "windows" {
		apps = windowsApps
	}
	return &AppLauncher{GOOS: goos, Runner: runner, Apps: apps}
}

func (a *AppLauncher) Execute(ctx context.Context, params map[string]string) (Result, error) {
	name := strings.TrimSpace(params[lexicon.ParamApp])
	name = strings.TrimPrefix(name, "the ")
	if name == "" {
		return Fail("I didn't catch which application you want to open."), ErrMissingParam
	}

	if action, ok := powerProgram(name); ok {
		if action == "" || a.Power == nil {
			return Fail("I can't open %s as an application.", name), fmt.Errorf("%w: %s", ErrRefused, name)
		}
		forwarded := make(map[string]string, len(params)+1)
		for k, v := range params {
			forwarded[k] = v
		}
		forwarded[lexicon.ParamAction] = action
		return a.Power.Execute(ctx, forwarded)
	}

	key, app, ok := a.lookup(name)
	if !ok {
		if err := a.Runner.Start(strings.ReplaceAll(name, " ", "-")); err != nil {
			return Fail("I couldn't open %s. Application not found.", name), err
		}
		return Ok("Opening %s.", name), nil
	}

	if app.URL != "" {
		cmd, args := openURLCommand(a.GOOS)
		if err := a.Runner.Start(cmd, append(args, app.URL)...); err != nil {
			return Fail("I couldn't open the %s.", key), err
		}
		return Ok("Opening the %s.", key), nil
	}

	var lastErr error
	for _, c := range app.Commands {
		path, err := a.Runner.LookPath(c)
		if err != nil {
			lastErr = err
			continue
		}
		if err := a.Runner.Start(path); err != nil {
			lastErr = err
			continue
		}
		return Ok("Opening %s.", key), nil
	}
	return Fail("I couldn't open %s. Application path not found.", key), lastErr
}

func powerProgram(name string) (string, bool) {
	for _, w := range lexicon.Tokens(lexicon.Normalize(name)) {
		if action, ok := powerBinaries[w]; ok {
			return action, true
		}
	}
	return "", false
}

// lookup prefers an exact alias, then the longest alias contained in the
// spoken name ("google chrome" -> chrome).
func (a *AppLauncher) lookup(name string) (string, App, bool) {
	if app, ok := a.Apps[name]; ok {
		return name, app, true
	}
	keys := make([]string, 0, len(a.Apps))
	for k := range a.Apps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	words := lexicon.Tokens(name)
	for _, k := range keys {
		for _, w := range words {
			if w == k {
				return k, a.Apps[k], true
			}
		}
	}
	return "", App{}, false
}
