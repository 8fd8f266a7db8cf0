//go:build darwin

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (item *LoginItem) enable() error {
	path, err := item.plistPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(item.plist()), 0o644); err != nil {
		return fmt.Errorf("write plist: %w", err)
	}
	return nil
}

func (item *LoginItem) disable() error {
	path, err := item.plistPath()
	if err != nil {
		return err
	}
	return removeIfExists(path)
}

func (item *LoginItem) label() string {
	return "io.pomobeat." + slug(item.AppName)
}

func (item *LoginItem) plistPath() (string, error) {
	dir := item.dir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(homeDir, "Library", "LaunchAgents")
	}
	return filepath.Join(dir, item.label()+".plist"), nil
}

func (item *LoginItem) plist() string {
	escape := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)

	var arguments strings.Builder
	for _, part := range item.Command {
		fmt.Fprintf(&arguments, "\t\t<string>%s</string>\n", escape.Replace(part))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`, escape.Replace(item.label()), arguments.String())
}
