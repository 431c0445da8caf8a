package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sys/unix"

	"drivermon/internal/params"
	"drivermon/internal/region"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckParamsStore opens the parameter database and reads its generation.
// A missing database passes because the daemon creates it on first start.
func CheckParamsStore(ctx context.Context, path string) Result {
	const name = "Parameter store"

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first start)", path)}
	}
	store, err := params.OpenPath(path)
	if err != nil {
		if errors.Is(err, params.ErrSchemaMismatch) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: schema mismatch, remove the file to recreate it)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()

	entries, err := store.List(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d params)", path, len(entries))}
}

// CheckRegionDataset loads the configured territory dataset, or the built-in
// one when path is empty.
func CheckRegionDataset(path string) Result {
	const name = "Region dataset"

	var (
		dataset *region.Dataset
		err     error
		source  = "built-in"
	)
	if strings.TrimSpace(path) == "" {
		dataset, err = region.DefaultDataset()
	} else {
		source = path
		dataset, err = region.LoadDataset(path)
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", source, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d territories)", source, len(dataset.Territories))}
}

// CheckBus dials the bridge once and closes the connection.
func CheckBus(ctx context.Context, url string, timeout time.Duration) Result {
	const name = "Message bus"

	url = strings.TrimSpace(url)
	if url == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(checkCtx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", url, summarizeDialError(err, resp != nil))}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", url)}
}

func summarizeDialError(err error, gotResponse bool) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "connect timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "connect timed out"
	}
	if errors.Is(err, websocket.ErrBadHandshake) && gotResponse {
		return "endpoint is not a websocket bridge"
	}
	return err.Error()
}
