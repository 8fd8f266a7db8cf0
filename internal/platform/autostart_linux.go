//go:build linux

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (item *LoginItem) enable() error {
	path, err := item.entryPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(item.desktopEntry()), 0o644); err != nil {
		return fmt.Errorf("write desktop entry: %w", err)
	}
	return nil
}

func (item *LoginItem) disable() error {
	path, err := item.entryPath()
	if err != nil {
		return err
	}
	return removeIfExists(path)
}

func (item *LoginItem) entryPath() (string, error) {
	dir := item.dir
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			homeDir, homeErr := os.UserHomeDir()
			if homeErr != nil {
				return "", fmt.Errorf("resolve config dir: %w", err)
			}
			configDir = filepath.Join(homeDir, ".config")
		}
		dir = filepath.Join(configDir, "autostart")
	}
	return filepath.Join(dir, slug(item.AppName)+".desktop"), nil
}

func (item *LoginItem) desktopEntry() string {
	parts := make([]string, 0, len(item.Command))
	for _, part := range item.Command {
		if strings.Contains(part, " ") {
			part = `"` + part + `"`
		}
		parts = append(parts, part)
	}

	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
X-GNOME-Autostart-enabled=true
Terminal=false
`, item.AppName, strings.Join(parts, " "))
}
