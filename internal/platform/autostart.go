package platform

import (
	"fmt"
	"os"
	"strings"
)

// LoginItem starts the tray app when the user logs in.
type LoginItem struct {
	AppName string
	// Command is the executable followed by its arguments.
	Command []string
	// dir overrides the per-OS registration directory in tests.
	dir string
}

// NewLoginItem creates a login item that runs the current executable with
// args.
func NewLoginItem(appName string, args ...string) (*LoginItem, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}
	return &LoginItem{AppName: appName, Command: append([]string{execPath}, args...)}, nil
}

// Apply registers or removes the login item.
func (item *LoginItem) Apply(enabled bool) error {
	if strings.TrimSpace(item.AppName) == "" {
		return fmt.Errorf("login item: app name is empty")
	}
	if enabled {
		if len(item.Command) == 0 || item.Command[0] == "" {
			return fmt.Errorf("login item: exec path is empty")
		}
		if err := item.enable(); err != nil {
			return fmt.Errorf("enable login item: %w", err)
		}
		return nil
	}
	if err := item.disable(); err != nil {
		return fmt.Errorf("disable login item: %w", err)
	}
	return nil
}

func slug(appName string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(appName)), " ", "-")
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
