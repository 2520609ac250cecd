// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package sys

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Input prints a prompt and returns a trimmed line read from stdin.
func Input(format string, values ...interface{}) string {
	fmt.Printf(format+": ", values...)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

// InputPassword prompts on stdout and reads a password from the controlling
// terminal with echo disabled, per section 4.2's passphrase prompt policy.
// The returned secret is a []byte, never a string, so it can be wiped by
// the caller once consumed.
func InputPassword(format string, values ...interface{}) ([]byte, error) {
	fmt.Printf(format+": ", values...)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}
	return pass, nil
}

// InputBool prompts for a yes/no answer.
func InputBool(format string, values ...interface{}) bool {
	for {
		switch strings.ToLower(Input(format)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		default:
			fmt.Println(`please enter "yes" or "no"`)
		}
	}
}
