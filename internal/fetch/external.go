package fetch

import (
	"fmt"
	"net/http"
)

// externalTransfer is the escape hatch: the download is delegated to wget or
// curl through the Runner. secure marks the secure-transport-unavailable
// trigger, which keeps its own error identity when no tool can serve either.
func (c *Client) externalTransfer(method, rawURL string, req Request, secure bool) (string, error) {
	// The tools cannot answer a metadata-only probe; report "changed" so the
	// caller falls back to a full transfer.
	if method == http.MethodHead {
		return "", nil
	}

	if c.runner != nil {
		if tool, ok := c.runner.LookupTool("wget"); ok {
			return "", c.runTool(tool, wgetArgs(rawURL, req, c.settings.CheckCertificates), rawURL)
		}
		if tool, ok := c.runner.LookupTool("curl"); ok {
			return "", c.runTool(tool, curlArgs(rawURL, req, c.settings.CheckCertificates), rawURL)
		}
	}

	if secure {
		return "", fmt.Errorf("%w and no external downloader tool found", ErrSecureTransportUnavailable)
	}
	return "", &TransportError{URL: rawURL, Status: "no external downloader tool found"}
}

func (c *Client) runTool(tool string, args []string, rawURL string) error {
	code, err := c.runner.RunTool(tool, args...)
	if err != nil {
		return &TransportError{URL: rawURL, Err: err}
	}
	if code != 0 {
		return &TransportError{URL: rawURL, Status: fmt.Sprintf("%s exit status %d", tool, code)}
	}
	return nil
}

func wgetArgs(rawURL string, req Request, checkCerts bool) []string {
	args := []string{"--user-agent", req.UserAgent, "--output-document", req.Dest}
	if !req.ShowProgress {
		args = append(args, "--quiet")
	}
	if req.Timeout > 0 {
		args = append(args, fmt.Sprintf("--timeout=%d", int(req.Timeout.Seconds())))
	}
	if !checkCerts {
		args = append(args, "--no-check-certificate")
	}
	return append(args, rawURL)
}

func curlArgs(rawURL string, req Request, checkCerts bool) []string {
	args := []string{"-f", "-L", "-A", req.UserAgent, "-o", req.Dest}
	if req.ShowProgress {
		args = append(args, "-#")
	} else {
		args = append(args, "-sS")
	}
	if req.Timeout > 0 {
		args = append(args, "--connect-timeout", fmt.Sprintf("%d", int(req.Timeout.Seconds())))
	}
	if !checkCerts {
		args = append(args, "-k")
	}
	return append(args, rawURL)
}
