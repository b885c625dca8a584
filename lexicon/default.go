package lexicon

// DefaultWakePhrases are the canonical wake phrases followed by common
// mis-hearings of the assistant's name.
var DefaultWakePhrases = []string{
	"nova", "hey nova", "hi nova", "hello nova",
	"hey nowa", "hi nowa",
}

func exact(phrase string, intent IntentID, params map[string]string) CommandPattern {
	return CommandPattern{Kind: RuleExact, Phrase: phrase, Intent: intent, Params: params}
}

func prefix(phrase string, intent IntentID, capture string, params map[string]string) CommandPattern {
	return CommandPattern{Kind: RulePrefix, Phrase: phrase, Intent: intent, Capture: capture, Params: params}
}

func keywords(intent IntentID, params map[string]string, words ...string) CommandPattern {
	return CommandPattern{Kind: RuleKeywords, Keywords: words, Intent: intent, Params: params}
}

func p(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

func toggles(device string, names ...string) []CommandPattern {
	var out []CommandPattern
	for _, name := range names {
		for _, state := range []string{"on", "off"} {
			params := p(ParamDevice, device, ParamState, state)
			out = append(out,
				prefix("turn "+state+" "+name, NetworkToggle, "", params),
				prefix("turn "+state+" the "+name, NetworkToggle, "", params),
				prefix("switch "+state+" "+name, NetworkToggle, "", params),
				keywords(NetworkToggle, params, name, state),
			)
		}
		out = append(out,
			prefix("enable "+name, NetworkToggle, "", p(ParamDevice, device, ParamState, "on")),
			prefix("disable "+name, NetworkToggle, "", p(ParamDevice, device, ParamState, "off")),
		)
	}
	return out
}

func power(action string, phrases ...string) []CommandPattern {
	var out []CommandPattern
	for _, ph := range phrases {
		out = append(out, prefix(ph, SystemControl, "", p(ParamAction, action)))
	}
	return out
}

func utility(name string, phrases ...string) []CommandPattern {
	var out []CommandPattern
	for _, ph := range phrases {
		out = append(out, prefix(ph, SystemUtility, "", p(ParamUtility, name)))
	}
	return out
}

func searches(phrases []string, captureAll bool) []CommandPattern {
	var out []CommandPattern
	for _, ph := range phrases {
		out = append(out, CommandPattern{
			Kind:       RulePrefix,
			Phrase:     ph,
			Intent:     WebSearch,
			Capture:    ParamQuery,
			CaptureAll: captureAll,
		})
	}
	return out
}

// DefaultPatterns is the built-in command table.
func DefaultPatterns() []CommandPattern {
	var out []CommandPattern

	for _, verb := range []string{"open", "launch", "start", "run"} {
		out = append(out, prefix(verb, OpenApp, ParamApp, nil))
	}

	out = append(out, power("shutdown",
		"shutdown", "shut down", "power off",
		"turn off computer", "turn off the computer", "turn off pc", "turn off system")...)
	out = append(out, power("restart", "restart", "reboot")...)
	out = append(out, power("lock", "lock computer", "lock the computer", "lock pc", "lock screen", "lock the screen")...)
	out = append(out, power("sleep", "sleep computer", "go to sleep", "put the computer to sleep")...)
	out = append(out, power("hibernate", "hibernate")...)
	out = append(out, power("logout", "log out", "logout", "sign out")...)
	out = append(out,
		keywords(SystemControl, p(ParamAction, "shutdown"), "shutdown"),
		keywords(SystemControl, p(ParamAction, "restart"), "restart"),
		keywords(SystemControl, p(ParamAction, "restart"), "reboot"),
		keywords(SystemControl, p(ParamAction, "hibernate"), "hibernate"),
		keywords(SystemControl, p(ParamAction, "lock"), "lock", "computer"),
	)

	out = append(out, toggles("wifi", "wifi", "wireless")...)
	out = append(out, toggles("bluetooth", "bluetooth")...)

	join := p(ParamDevice, "network", ParamState, "on")
	leave := p(ParamDevice, "network", ParamState, "off")
	out = append(out,
		prefix("connect to", NetworkToggle, ParamNetwork, join),
		prefix("connect to network", NetworkToggle, ParamNetwork, join),
		prefix("connect to the network", NetworkToggle, ParamNetwork, join),
		prefix("disconnect from", NetworkToggle, ParamNetwork, leave),
		exact("disconnect", NetworkToggle, leave),
	)

	ip := p(ParamQuery, "ip")
	out = append(out,
		prefix("what is my ip", NetworkQuery, "", ip),
		prefix("whats my ip", NetworkQuery, "", ip),
		prefix("show my ip", NetworkQuery, "", ip),
		prefix("show ip address", NetworkQuery, "", ip),
		exact("ip address", NetworkQuery, ip),
		keywords(NetworkQuery, ip, "ip", "address"),
		keywords(NetworkQuery, ip, "ip"),
	)
	status := p(ParamQuery, "status")
	out = append(out,
		prefix("network status", NetworkQuery, "", status),
		prefix("show network status", NetworkQuery, "", status),
		prefix("what is my network status", NetworkQuery, "", status),
		prefix("whats my network status", NetworkQuery, "", status),
		exact("am i connected", NetworkQuery, status),
		keywords(NetworkQuery, status, "network", "status"),
	)

	out = append(out, utility("control_panel", "open control panel", "open the control panel")...)
	out = append(out, utility("task_manager", "open task manager", "open the task manager")...)
	out = append(out, utility("file_explorer", "open file explorer", "open the file explorer", "open files")...)
	out = append(out, utility("settings", "open settings", "open system settings")...)
	out = append(out, utility("processes", "show running processes", "list running processes", "show processes", "list processes")...)
	out = append(out, utility("cpu", "show cpu usage", "display cpu usage", "cpu usage", "cpu load")...)
	out = append(out, utility("memory", "show memory usage", "display memory usage", "memory usage", "memory load", "ram usage")...)
	out = append(out,
		keywords(SystemUtility, p(ParamUtility, "control_panel"), "control", "panel"),
		keywords(SystemUtility, p(ParamUtility, "task_manager"), "task", "manager"),
		keywords(SystemUtility, p(ParamUtility, "file_explorer"), "file", "explorer"),
		keywords(SystemUtility, p(ParamUtility, "processes"), "processes"),
		keywords(SystemUtility, p(ParamUtility, "cpu"), "cpu"),
		keywords(SystemUtility, p(ParamUtility, "memory"), "memory"),
	)

	vol := func(action string) map[string]string { return p(ParamUtility, "volume", ParamAction, action) }
	out = append(out,
		prefix("set volume to", SystemUtility, ParamLevel, vol("set")),
		prefix("set the volume to", SystemUtility, ParamLevel, vol("set")),
		prefix("volume up", SystemUtility, "", vol("up")),
		prefix("turn the volume up", SystemUtility, "", vol("up")),
		prefix("turn volume up", SystemUtility, "", vol("up")),
		prefix("increase volume", SystemUtility, "", vol("up")),
		prefix("louder", SystemUtility, "", vol("up")),
		prefix("volume down", SystemUtility, "", vol("down")),
		prefix("turn the volume down", SystemUtility, "", vol("down")),
		prefix("turn volume down", SystemUtility, "", vol("down")),
		prefix("decrease volume", SystemUtility, "", vol("down")),
		prefix("quieter", SystemUtility, "", vol("down")),
		exact("mute", SystemUtility, vol("mute")),
		exact("mute volume", SystemUtility, vol("mute")),
		exact("mute the volume", SystemUtility, vol("mute")),
		exact("unmute", SystemUtility, vol("unmute")),
		keywords(SystemUtility, vol("up"), "volume", "up"),
		keywords(SystemUtility, vol("down"), "volume", "down"),
		keywords(SystemUtility, vol("mute"), "mute"),
	)

	clock := p(ParamKind, "time")
	date := p(ParamKind, "date")
	out = append(out,
		exact("what time is it", TimeQuery, clock),
		exact("whats the time", TimeQuery, clock),
		exact("what is the time", TimeQuery, clock),
		exact("tell me the time", TimeQuery, clock),
		exact("time", TimeQuery, clock),
		prefix("what time", TimeQuery, "", clock),
		exact("what is the date", TimeQuery, date),
		exact("whats the date", TimeQuery, date),
		exact("what is todays date", TimeQuery, date),
		exact("whats todays date", TimeQuery, date),
		exact("what day is it", TimeQuery, date),
		exact("date", TimeQuery, date),
		keywords(TimeQuery, clock, "time"),
		keywords(TimeQuery, date, "date"),
	)

	out = append(out, searches([]string{
		"search for", "search", "google", "look up",
		"find information about", "find information on", "find info on",
		"tell me about",
	}, false)...)
	out = append(out, searches([]string{
		"who is", "what is", "where is", "when is", "why is", "how to",
	}, true)...)

	return out
}

// Default builds the built-in lexicon.
func Default() *Lexicon {
	l, err := New(DefaultWakePhrases, DefaultPatterns())
	if err != nil {
		panic("lexicon: invalid default table: " + err.Error())
	}
	return l
}
