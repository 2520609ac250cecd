// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package sys wraps the OS-specific primitives the core security subsystem
// leans on but does not itself specify: process memory locking, hostname
// resolution, password prompting, and external program invocation.
package sys

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Exec runs an external program to completion, optionally capturing its
// stdout/stderr when the caller passes nil writers.
func Exec(stdin io.Reader, stdout, stderr io.Writer, programName string, programArgs ...string) (exitStatus int,
	stdoutStr, stderrStr string, execErr error) {
	cmd := exec.Command(programName, programArgs...)
	var myStdout, myStderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	if stdout == nil {
		cmd.Stdout = &myStdout
	}
	cmd.Stderr = stderr
	if stderr == nil {
		cmd.Stderr = &myStderr
	}
	if execErr = cmd.Run(); execErr != nil {
		if exitErr, isExit := execErr.(*exec.ExitError); isExit {
			if status, isStatus := exitErr.Sys().(syscall.WaitStatus); isStatus {
				exitStatus = status.ExitStatus()
			}
		}
		stdoutStr = myStdout.String()
		stderrStr = myStderr.String()
		return
	}
	stdoutStr = myStdout.String()
	stderrStr = myStderr.String()
	return
}

// LockMem locks all process memory into RAM so that key material and
// passphrases are never written to swap. It exits the process when not run
// as root or when mlockall fails. None of the client, server or edit entry
// points in this module calls it.
func LockMem() {
	if os.Geteuid() != 0 {
		fmt.Fprintln(os.Stderr, "luksrku must run with root privilege to lock memory")
		os.Exit(111)
	}
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		fmt.Fprintf(os.Stderr, "LockMem: failed to lock process memory - %v\n", err)
		os.Exit(111)
	}
}

// ErrorExit prints a formatted message to stderr and terminates the process
// with exit status 1. It never returns.
func ErrorExit(template string, stuff ...interface{}) {
	fmt.Fprintf(os.Stderr, template+"\n", stuff...)
	os.Exit(1)
}
