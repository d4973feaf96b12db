package platform

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Authorizer drives the interactive part of a consent flow: presenting
// the authorization URL to the user and capturing the redirect URL they
// land on. Headless implementations substitute it in tests.
type Authorizer interface {
	// Open presents the consent URL to the user.
	Open(url string) error

	// CaptureCallback returns the full redirect URL after authorization.
	CaptureCallback() (string, error)
}

// TerminalAuthorizer prints the consent URL (and best-effort opens a
// browser) and reads the pasted redirect URL from an input stream.
type TerminalAuthorizer struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminalAuthorizer creates an authorizer bound to stdin/stdout.
func NewTerminalAuthorizer() *TerminalAuthorizer {
	return &TerminalAuthorizer{In: os.Stdin, Out: os.Stdout}
}

func (a *TerminalAuthorizer) Open(consentURL string) error {
	fmt.Fprintf(a.Out, "Opening browser for authorization:\n%s\n", consentURL)
	openBrowser(consentURL)
	return nil
}

func (a *TerminalAuthorizer) CaptureCallback() (string, error) {
	fmt.Fprint(a.Out, "After authorizing, paste the full redirect URL here: ")
	reader := bufio.NewReader(a.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read redirect URL: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// openBrowser launches the system browser. Failure is not an error: the
// URL has already been printed for manual use.
func openBrowser(u string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u)
	default:
		cmd = exec.Command("xdg-open", u)
	}
	_ = cmd.Start()
}

// codeFromCallback extracts the authorization code from a pasted
// redirect URL.
func codeFromCallback(callback string) (string, error) {
	parsed, err := url.Parse(callback)
	if err != nil {
		return "", fmt.Errorf("parse redirect URL: %w", err)
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("no authorization code found in redirect URL")
	}
	return code, nil
}
