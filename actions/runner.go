package actions

import (
	"context"
	"os/exec"
)

// Runner executes external programs. Handlers never call os/exec directly so
// tests can record what would have run.
type Runner interface {
	// Run waits for the program and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches the program detached.
	Start(name string, args ...string) error
	LookPath(file string) (string, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func (ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// openURLCommand is the platform command that hands a URL or folder to the
// desktop's default application.
func openURLCommand(goos string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	case "darwin":
		return "open", nil
	default:
		return "xdg-open", nil
	}
}
