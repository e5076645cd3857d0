package fileset

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// askForConfirmation prompts on out, reads the answer from in and defaults to 'yes'.
func askForConfirmation(in io.Reader, out io.Writer, format string, a ...any) bool {
	reader := bufio.NewReader(in)
	fullPrompt := fmt.Sprintf("%s [Y/n]: ", fmt.Sprintf(format, a...))

	for {
		cFprintf(out, colWarn, "%s", fullPrompt)
		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return false // On error (like Ctrl+D), default to "no"
		}
		response = strings.ToLower(strings.TrimSpace(response))

		if response == "y" || response == "yes" || response == "" {
			return true
		}
		if response == "n" || response == "no" {
			return false
		}
		cFprintf(out, colWarn, "Invalid input.\n")
		if err != nil {
			return false
		}
	}
}
