package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// ActionableError represents an error with user-friendly guidance.
type ActionableError struct {
	What  string // What failed (short summary)
	Cause error  // Technical error details
	Fix   string // Actionable guidance
}

func (e *ActionableError) Error() string {
	return fmt.Sprintf("%s: %v", e.What, e.Cause)
}

// Format returns the full actionable error message for display.
func (e *ActionableError) Format() string {
	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(e.What)
	sb.WriteString("\nCause: ")
	sb.WriteString(e.Cause.Error())
	sb.WriteString("\nFix:   ")
	sb.WriteString(e.Fix)
	return sb.String()
}

// printError prints an actionable error to stderr and exits.
func printError(what string, cause error, fix string) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Error:", what)
	fmt.Fprintln(os.Stderr, "Cause:", cause)
	fmt.Fprintln(os.Stderr, "Fix:  ", fix)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

// schemaTooNewFix returns instructions for a stats database written by a
// newer release.
func schemaTooNewFix(dbPath string) string {
	return fmt.Sprintf(`The stats database was written by a newer shinytrack release
       and this build refuses to touch it. Either:

       1. Upgrade shinytrack to the latest release, or
       2. Keep the old build on a copy of the profile:
          cp "%s" "%s.backup"`, dbPath, dbPath)
}

// dbLockedFix returns instructions for fixing database lock issues.
func dbLockedFix(dbPath string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf(`Database is locked by another process. Check for:
       1. Another shinytrack instance on the same profile:
          tasklist | findstr shinytrack
          taskkill /IM shinytrack.exe /F

       2. Database viewer with file open:
          Close any SQLite browser tools

       Database: %s`, dbPath)

	default:
		return fmt.Sprintf(`Database is locked by another process. Check for:
       1. Another shinytrack instance on the same profile:
          pgrep -f shinytrack
          pkill shinytrack

       2. Database viewer with file open:
          lsof "%s"

       Database: %s`, dbPath, dbPath)
	}
}

// dbPathFix returns instructions for fixing database path issues.
func dbPathFix(dbPath string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf(`Cannot open database. Check the profile directory exists and is writable:
       if not exist "%s" mkdir "%s"

       Or point at a different profile:
       shinytrack -profile C:\Users\%%USERNAME%%\profiles\emerald`, dbPath, dbPath)

	default:
		return fmt.Sprintf(`Cannot open database. Check the profile directory exists and is writable:
       mkdir -p "$(dirname '%s')"

       Or point at a different profile:
       shinytrack -profile ~/profiles/emerald`, dbPath)
	}
}

// configLoadFix returns instructions for fixing config loading issues.
func configLoadFix(configPath string) string {
	if configPath == "" {
		return `Config file not found or invalid. Run without one:
       shinytrack -profile ~/profiles/emerald

       See 'shinytrack --help' for configuration options.`
	}
	return fmt.Sprintf(`Config file not found or invalid:
       %s

       Check the file exists and contains valid YAML.
       See 'shinytrack --help' for configuration options.`, configPath)
}

// portInUseFix returns OS-specific instructions for freeing the API port.
func portInUseFix(listenAddr string) string {
	port := listenAddr
	if idx := strings.LastIndex(listenAddr, ":"); idx != -1 {
		port = listenAddr[idx+1:]
	}

	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf(`Port %s is in use. Find and stop the process:
       netstat -ano | findstr :%s
       taskkill /PID <pid> /F

       Or use a different port:
       shinytrack -listen localhost:8899`, port, port)

	case "darwin":
		return fmt.Sprintf(`Port %s is in use. Find and stop the process:
       lsof -i :%s
       kill <pid>

       Or use a different port:
       shinytrack -listen localhost:8899`, port, port)

	default: // linux and others
		return fmt.Sprintf(`Port %s is in use. Find and stop the process:
       ss -tlnp | grep :%s
       # or: lsof -i :%s
       kill <pid>

       Or use a different port:
       shinytrack -listen localhost:8899`, port, port, port)
	}
}

// isPortInUse checks if an error indicates the listen address is taken.
func isPortInUse(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "address already in use") ||
		strings.Contains(errStr, "Only one usage of each socket address")
}
