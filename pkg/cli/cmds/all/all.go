// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/servo.go/pkg/cli/cmds/motor"
)
