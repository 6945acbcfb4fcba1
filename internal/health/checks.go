package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"texclip/internal/config"
)

// ConfigCheck validates the loaded configuration.
func ConfigCheck(cfg *config.Config) Check {
	return func(ctx context.Context) CheckResult {
		if err := cfg.Validate(); err != nil {
			return Unhealthy("configuration is invalid", err)
		}
		return Healthy("app %s, endpoint %s", cfg.App.ID, cfg.Service.URL)
	}
}

// WritableDirCheck verifies that files can be created in dir.
func WritableDirCheck(dir string) Check {
	return func(ctx context.Context) CheckResult {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return Unhealthy("cannot create directory", err)
		}
		f, err := os.CreateTemp(dir, ".doctor-*")
		if err != nil {
			return Unhealthy("directory is not writable", err)
		}
		name := f.Name()
		f.Close()
		os.Remove(name)
		return Healthy("%s", filepath.Clean(dir))
	}
}

// ToolCheck passes when at least one of tools is on PATH.
func ToolCheck(tools ...string) Check {
	return func(ctx context.Context) CheckResult {
		if len(tools) == 0 {
			return Unhealthy("no clipboard tool is known for this platform", nil)
		}
		for _, t := range tools {
			if path, err := exec.LookPath(t); err == nil {
				return Healthy("%s", path)
			}
		}
		return Unhealthy("none found on PATH: "+strings.Join(tools, ", "), nil)
	}
}

// VersionCheck reports a library version; a panic or empty version fails.
func VersionCheck(name string, version func() string) Check {
	return func(ctx context.Context) CheckResult {
		v := strings.TrimSpace(version())
		if v == "" {
			return Unhealthy(name+" version unavailable", nil)
		}
		return Healthy("%s %s", name, v)
	}
}

// EndpointCheck passes when url answers HTTP at all. The recognition endpoint
// only accepts signed POSTs, so any status code proves reachability.
func EndpointCheck(client *http.Client, url string) Check {
	return func(ctx context.Context) CheckResult {
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return Unhealthy("invalid endpoint", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return Unhealthy("endpoint timed out", err)
			}
			return Unhealthy("endpoint unreachable", err)
		}
		resp.Body.Close()
		return Healthy("%s answered %s", url, fmt.Sprint(resp.StatusCode))
	}
}
