//go:build e2e

package e2e

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ascentServer manages a running `ascent serve` process.
type ascentServer struct {
	cmd      *exec.Cmd
	dataDir  string
	address  string
	apiKey   string
	logFile  string
	logClose func()
}

// baseEnv configures the binary entirely via environment variables.
func baseEnv(dataDir, apiKey string) []string {
	return append(os.Environ(),
		"ASCENT_API_KEY="+apiKey,
		"ASCENT_ATHLETES_ROOT="+filepath.Join(dataDir, "athletes"),
		"ASCENT_CONFIG_PATH="+filepath.Join(dataDir, "nonexistent.yaml"), // skip YAML file
		"ASCENT_BACKUP_BUCKET=",
	)
}

// startAscent launches `ascent serve` on a fresh data directory and waits for
// it to become healthy.
func startAscent(t *testing.T) *ascentServer {
	t.Helper()
	requireAscent(t)
	return startAscentOn(t, t.TempDir(), "e2e-test-api-key")
}

func startAscentOn(t *testing.T, dataDir, apiKey string) *ascentServer {
	t.Helper()

	port := freePort(t)
	logFile := filepath.Join(dataDir, fmt.Sprintf("ascent-%d.log", port))

	cmd := exec.Command(ascentBin, "serve")
	cmd.Env = append(baseEnv(dataDir, apiKey), fmt.Sprintf("ASCENT_PORT=%d", port))

	lf, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	cmd.Stdout = lf
	cmd.Stderr = lf

	if err := cmd.Start(); err != nil {
		lf.Close()
		t.Fatalf("start ascent: %v", err)
	}

	s := &ascentServer{
		cmd:      cmd,
		dataDir:  dataDir,
		address:  fmt.Sprintf("127.0.0.1:%d", port),
		apiKey:   apiKey,
		logFile:  logFile,
		logClose: func() { lf.Close() },
	}
	t.Cleanup(s.stop)

	if err := s.waitHealthy(10 * time.Second); err != nil {
		t.Fatalf("ascent not healthy: %v\nlog:\n%s", err, s.logs())
	}
	return s
}

func (s *ascentServer) stop() {
	if s.cmd != nil && s.cmd.Process != nil && s.cmd.ProcessState == nil {
		_ = s.cmd.Process.Signal(os.Interrupt)
		_ = s.cmd.Wait()
	}
	if s.logClose != nil {
		s.logClose()
	}
}

// restartOnSameData stops the server and starts a new one on the same data
// directory.
func (s *ascentServer) restartOnSameData(t *testing.T) *ascentServer {
	t.Helper()
	s.stop()
	time.Sleep(200 * time.Millisecond) // allow port release
	return startAscentOn(t, s.dataDir, s.apiKey)
}

func (s *ascentServer) baseURL() string {
	return fmt.Sprintf("http://%s", s.address)
}

func (s *ascentServer) logs() string {
	data, _ := os.ReadFile(s.logFile)
	return string(data)
}

func (s *ascentServer) waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("%s/api/v1/health", s.baseURL())

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("ascent not healthy after %s", timeout)
}

// request sends an authenticated request and returns status and body.
func (s *ascentServer) request(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL()+path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

// cli runs the ascent binary against the server's athletes root.
func (s *ascentServer) cli(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(ascentBin, append(args, "--root", filepath.Join(s.dataDir, "athletes"))...)
	cmd.Env = baseEnv(s.dataDir, s.apiKey)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), fmt.Errorf("%v: %w\nstderr: %s", args, err, stderr.String())
	}
	return stdout.String(), nil
}

// freePort returns a free TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
