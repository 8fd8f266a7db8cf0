//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func (item *LoginItem) enable() error {
	return reg("add", registryRunKey, "/v", item.AppName, "/t", "REG_SZ", "/d", item.commandLine(), "/f")
}

func (item *LoginItem) disable() error {
	return reg("delete", registryRunKey, "/v", item.AppName, "/f")
}

func (item *LoginItem) commandLine() string {
	parts := make([]string, 0, len(item.Command))
	for index, part := range item.Command {
		if index == 0 || strings.Contains(part, " ") {
			part = `"` + strings.Trim(part, `"`) + `"`
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " ")
}

func reg(args ...string) error {
	output, err := exec.Command("reg", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("reg %s failed: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}
