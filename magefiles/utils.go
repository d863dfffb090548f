//go:build mage

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/magefile/mage/mg"
)

// runTool shells out to a build tool, echoing the command line first.
// Quiet runs buffer the tool's output and only print it when the tool
// fails; mage's -v flag streams it live instead.
func runTool(name string, args ...string) error {
	fmt.Printf("exec: %s %s\n", name, strings.Join(args, " "))

	cmd := exec.Command(name, args...)
	var buf bytes.Buffer
	if mg.Verbose() {
		cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	} else {
		cmd.Stdout, cmd.Stderr = &buf, &buf
	}

	if err := cmd.Run(); err != nil {
		if buf.Len() > 0 {
			os.Stdout.Write(buf.Bytes())
		}
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}
