package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/ascent/internal/api"
	"github.com/hyperengineering/ascent/internal/athlete"
	"github.com/hyperengineering/ascent/internal/exercise"
	"github.com/hyperengineering/ascent/internal/model"
)

const testAPIKey = "e2e-test-api-key"

// setupInProcess builds the full router over a real athlete manager in a
// temp directory.
func setupInProcess(t *testing.T) (*athlete.Manager, http.Handler) {
	t.Helper()
	mgr, err := athlete.NewManager(filepath.Join(t.TempDir(), "athletes"))
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })

	h := api.NewHandler(mgr, exercise.Builtin(), model.Default(), testAPIKey, "e2e")
	return mgr, api.NewRouter(h)
}

// do sends an authenticated request to router and returns the recorder.
func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, body *bytes.Buffer, v any) {
	t.Helper()
	if err := json.Unmarshal(body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\nraw: %s", err, body.String())
	}
}

// sessionJSON returns a pull-up session with one completed set per rep count.
func sessionJSON(date, sessionType string, bodyweight float64, reps ...int) string {
	sets := make([]string, len(reps))
	for i, r := range reps {
		sets[i] = fmt.Sprintf(`{"actual_reps":%d,"rest_seconds_before":180}`, r)
	}
	return fmt.Sprintf(`{"exercise_id":"pull_up","date":%q,"bodyweight_kg":%g,"variant":"pronated","session_type":%q,"completed_sets":[%s]}`,
		date, bodyweight, sessionType, strings.Join(sets, ","))
}

func jsonString(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}
