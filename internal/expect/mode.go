package expect

import (
	"os"
	"sync"
)

// Mode selects how the checker reacts to missing or differing artifacts.
type Mode int

const (
	// Verify fails on missing or differing artifacts. The default.
	Verify Mode = iota
	// Accept (re-)records artifacts instead of failing.
	Accept
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Accept {
		return "accept"
	}
	return "verify"
}

// AcceptEnv is the environment variable enabling accept mode. Any non-empty
// value counts.
const AcceptEnv = "TENSORCHECK_ACCEPT"

// acceptFlag is the command-line argument enabling accept mode. It is
// stripped from os.Args so later flag parsing never sees it.
const acceptFlag = "--accept"

var (
	detectOnce sync.Once
	detected   Mode
)

// DetectMode resolves the process-wide mode exactly once, from AcceptEnv or
// an --accept argument. The first call removes --accept from os.Args before
// any other argument parsing; every call returns the same result.
func DetectMode() Mode {
	detectOnce.Do(func() {
		if os.Getenv(AcceptEnv) != "" {
			detected = Accept
		}
		for i, arg := range os.Args {
			if arg == acceptFlag {
				os.Args = append(os.Args[:i], os.Args[i+1:]...)
				detected = Accept
				break
			}
		}
	})
	return detected
}
