package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // All checks passed
	ExitVerifyFailed = 1 // Streaming and batch statistics disagree
	ExitError        = 2 // Configuration or runtime error
)

// VerificationFailureError indicates that verify ran to completion but the
// streaming statistics of at least one series did not match the batch ones.
type VerificationFailureError struct {
	Message string
}

func (e *VerificationFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var verifyErr *VerificationFailureError
		if errors.As(err, &verifyErr) {
			os.Exit(ExitVerifyFailed)
		}

		os.Exit(ExitError)
	}
}
