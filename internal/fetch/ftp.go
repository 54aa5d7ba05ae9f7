package fetch

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"

	"github.com/ferrite-labs/ferrite/internal/config"
	"github.com/jlaffaye/ftp"
)

// ftpOnce serves one FTP probe or transfer. Conditional probes use MDTM and
// report the modification time in Last-Modified format so the cache compares
// like with like across schemes.
func (c *Client) ftpOnce(method string, u *url.URL, req Request) (string, error) {
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "21")
	}

	var opts []ftp.DialOption
	if req.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(req.Timeout))
	}
	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return "", &TransportError{URL: u.String(), Err: err}
	}
	defer conn.Quit()

	// Anonymous convention: the password identifies the requesting user.
	user, pass := "anonymous", config.CurrentUser()+"@anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return "", &TransportError{URL: u.String(), Err: err}
	}

	if method == http.MethodHead {
		mtime, err := conn.GetTime(u.Path)
		if err != nil {
			return "", &TransportError{URL: u.String(), Err: err}
		}
		return mtime.UTC().Format(http.TimeFormat), nil
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return "", &TransportError{URL: u.String(), Err: err}
	}
	defer resp.Close()

	out, err := os.Create(req.Dest)
	if err != nil {
		return "", fmt.Errorf("creating destination %s: %w", req.Dest, err)
	}
	defer out.Close()

	var total int64 = -1
	if size, err := conn.FileSize(u.Path); err == nil {
		total = size
	}
	if _, err := copyWithProgress(out, resp, total, req.ShowProgress); err != nil {
		return "", fmt.Errorf("writing %s: %w", req.Dest, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", req.Dest, err)
	}

	// Best-effort modification time for the cache record.
	if mtime, err := conn.GetTime(u.Path); err == nil {
		return mtime.UTC().Format(http.TimeFormat), nil
	}
	return "", nil
}
