package actions

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/playmixer/nova/lexicon"
)

var deviceNames = map[string]string{
	"wifi":      "WiFi",
	"bluetooth": "Bluetooth",
}

// unnamedNetworks are captures that mean "whatever network I'm on".
var unnamedNetworks = map[string]bool{
	"":                    true,
	"network":             true,
	"the network":         true,
	"wifi":                true,
	"the wifi":            true,
	"current network":     true,
	"the current network": true,
}

// NetworkToggle handles NetworkToggle: the wifi and bluetooth radios, and
// joining or leaving a named wireless network.
type NetworkToggle struct {
	GOOS   string
	Runner Runner
}

func (n *NetworkToggle) Execute(ctx context.Context, params map[string]string) (Result, error) {
	device, state := params[lexicon.ParamDevice], params[lexicon.ParamState]
	if device == "network" {
		return n.connection(ctx, state == "on", strings.TrimSpace(params[lexicon.ParamNetwork]))
	}
	label, ok := deviceNames[device]
	if !ok {
		return Fail("I'm not sure which network adapter you mean."), fmt.Errorf("%w: device %q", ErrMissingParam, device)
	}
	if state != "on" && state != "off" {
		return Fail("Would you like me to turn %s on or off?", label), fmt.Errorf("%w: state %q", ErrMissingParam, state)
	}

	name, args, err := toggleCommand(n.GOOS, device, state == "on")
	if err != nil {
		return Fail("I'm sorry, %s control is not available on this system.", label), err
	}
	if out, err := n.Runner.Run(ctx, name, args...); err != nil {
		return Fail("I couldn't turn %s %s.", label, state), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return Ok("%s has been turned %s.", label, state), nil
}

func (n *NetworkToggle) connection(ctx context.Context, connect bool, network string) (Result, error) {
	if unnamedNetworks[network] {
		network = ""
	}
	name, args, err := connectionCommand(n.GOOS, connect, network)
	if errors.Is(err, ErrMissingParam) {
		if connect {
			return Fail("I didn't catch which network you want to connect to. Please specify the network name."), err
		}
		return Fail("Please tell me which network to disconnect from."), err
	}
	if err != nil {
		return Fail("I'm sorry, network connection management is not available on this system."), err
	}
	if out, err := n.Runner.Run(ctx, name, args...); err != nil {
		return Fail("I couldn't manage the network connection."), fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	switch {
	case connect:
		return Ok("Connected to %s.", network), nil
	case network == "":
		return Ok("Disconnected from the current network."), nil
	}
	return Ok("Disconnected from %s.", network), nil
}

func connectionCommand(goos string, connect bool, network string) (string, []string, error) {
	if connect && network == "" {
		return "", nil, fmt.Errorf("%w: network name", ErrMissingParam)
	}
	switch goos {
	case "linux":
		if connect {
			return "nmcli", []string{"device", "wifi", "connect", network}, nil
		}
		if network == "" {
			return "", nil, fmt.Errorf("%w: network name", ErrMissingParam)
		}
		return "nmcli", []string{"connection", "down", "id", network}, nil
	case "windows":
		if connect {
			return "netsh", []string{"wlan", "connect", "name=" + network}, nil
		}
		return "netsh", []string{"wlan", "disconnect"}, nil
	}
	return "", nil, fmt.Errorf("network connection on %s: %w", goos, ErrUnsupported)
}

func toggleCommand(goos, device string, on bool) (string, []string, error) {
	switch {
	case goos == "linux" && device == "wifi":
		return "nmcli", []string{"radio", "wifi", map[bool]string{true: "on", false: "off"}[on]}, nil
	case goos == "linux" && device == "bluetooth":
		return "rfkill", []string{map[bool]string{true: "unblock", false: "block"}[on], "bluetooth"}, nil
	case goos == "windows" && device == "wifi":
		return "netsh", []string{"interface", "set", "interface", "Wi-Fi", map[bool]string{true: "enabled", false: "disabled"}[on]}, nil
	}
	return "", nil, fmt.Errorf("%s on %s: %w", device, goos, ErrUnsupported)
}

// NetworkInfo handles NetworkQuery: the local address and host name, or
// the interfaces that are up.
type NetworkInfo struct {
	LocalIP  func() (string, error)
	Hostname func() (string, error)
	Stats    SystemStats
}

func NewNetworkInfo() *NetworkInfo {
	return &NetworkInfo{LocalIP: localIP, Hostname: os.Hostname}
}

func (n *NetworkInfo) Execute(ctx context.Context, params map[string]string) (Result, error) {
	if params[lexicon.ParamQuery] == "status" {
		return n.status(ctx)
	}
	ip, err := n.LocalIP()
	if err != nil {
		return Fail("I couldn't determine your IP address."), err
	}
	host, err := n.Hostname()
	if err != nil {
		return Ok("Your local IP address is %s.", ip), nil
	}
	return Ok("Your local IP address is %s. Your hostname is %s.", ip, host), nil
}

func (n *NetworkInfo) status(ctx context.Context) (Result, error) {
	if n.Stats == nil {
		return Fail("I couldn't get network status."), ErrUnsupported
	}
	ifaces, err := n.Stats.Interfaces(ctx)
	if err != nil {
		return Fail("I couldn't get network status."), err
	}
	if len(ifaces) == 0 {
		return Ok("You don't seem to be connected to any network."), nil
	}
	parts := make([]string, len(ifaces))
	for i, iface := range ifaces {
		parts[i] = iface.Name
		if len(iface.Addrs) > 0 {
			parts[i] += " (" + strings.Join(iface.Addrs, ", ") + ")"
		}
	}
	return Ok("Active network interfaces: %s.", strings.Join(parts, "; ")), nil
}

// localIP asks the kernel which source address it would route an outbound
// packet from; nothing is sent.
func localIP() (string, error) {
	conn, err := net.Dial("udp", "10.255.255.255:1")
	if err != nil {
		return "127.0.0.1", nil
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}
