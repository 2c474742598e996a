package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperengineering/ascent/internal/backup"
	"github.com/hyperengineering/ascent/internal/exercise"
)

// resetFlags restores every flag of cmd and its children to its default.
// Cobra parses into package-level variables, so stale values from previous
// tests would leak if not reset. Map flags are skipped; tests never set them.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		if f.Value.Type() != "stringToInt" {
			f.Value.Set(f.DefValue)
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCmd executes the CLI with captured output, piped stdin and an
// isolated athletes root.
func executeCmd(t *testing.T, rootPath, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	t.Setenv("ASCENT_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("ASCENT_BACKUP_BUCKET", "")
	resetFlags(rootCmd)
	cfg = nil

	fullArgs := append(append([]string{}, args...), "--root", rootPath)

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(fullArgs)

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetIn(nil)
	rootCmd.SetArgs(nil)

	return outBuf.String(), errBuf.String(), err
}

// testSessionJSON returns a pull-up session with one completed set per rep count.
func testSessionJSON(date, sessionType string, reps ...int) string {
	sets := make([]string, len(reps))
	for i, r := range reps {
		sets[i] = fmt.Sprintf(`{"actual_reps":%d,"rest_seconds_before":180}`, r)
	}
	return fmt.Sprintf(`{"exercise_id":"pull_up","date":%q,"bodyweight_kg":80,"variant":"pronated","session_type":%q,"completed_sets":[%s]}`,
		date, sessionType, strings.Join(sets, ","))
}

func mustRun(t *testing.T, root, stdin string, args ...string) string {
	t.Helper()
	stdout, stderr, err := executeCmd(t, root, stdin, args...)
	if err != nil {
		t.Fatalf("%v: unexpected error: %v\nstderr: %s", args, err, stderr)
	}
	return stdout
}

// --- Athlete Tests ---

func TestAthleteCreate(t *testing.T) {
	root := t.TempDir()
	stdout := mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "72.5", "--days", "4", "--name", "Sam")

	if !strings.Contains(stdout, `Created athlete "sam" (72.5 kg, 4 days/week)`) {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(root, "sam", "profile.yaml")); os.IsNotExist(err) {
		t.Error("athlete directory with profile.yaml was not created")
	}
}

func TestAthleteCreate_DefaultsDaysPerWeek(t *testing.T) {
	root := t.TempDir()
	stdout := mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "70", "--json")

	var result struct {
		ID string `json:"id"`
		Profile struct {
			DaysPerWeek int `json:"days_per_week"`
		} `json:"profile"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if result.ID != "sam" || result.Profile.DaysPerWeek != 3 {
		t.Errorf("result = %+v", result)
	}
}

func TestAthleteCreate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid id", []string{"athlete", "create", "Bad_ID", "--bodyweight", "70"}, "invalid athlete ID"},
		{"missing bodyweight", []string{"athlete", "create", "sam"}, "bodyweight_kg"},
		{"bad days", []string{"athlete", "create", "sam", "--bodyweight", "70", "--days", "5"}, "days_per_week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCmd(t, t.TempDir(), "", tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAthleteCreate_Duplicate(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "70")

	_, _, err := executeCmd(t, root, "", "athlete", "create", "sam", "--bodyweight", "70")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("error = %v, want 'already exists'", err)
	}

	_, stderr, err := executeCmd(t, root, "", "athlete", "create", "sam", "--bodyweight", "70", "--if-not-exists")
	if err != nil {
		t.Fatalf("unexpected error with --if-not-exists: %v", err)
	}
	if !strings.Contains(stderr, "already exists") {
		t.Errorf("stderr = %q, want it to contain 'already exists'", stderr)
	}
}

func TestAthleteList(t *testing.T) {
	root := t.TempDir()

	stdout := mustRun(t, root, "", "athlete", "list")
	if !strings.Contains(stdout, "No athletes found.") {
		t.Errorf("stdout = %q, want empty message", stdout)
	}

	mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "70")
	mustRun(t, root, "", "athlete", "create", "alex", "--bodyweight", "82", "--name", "Alex")

	stdout = mustRun(t, root, "", "athlete", "list")
	if !strings.Contains(stdout, "ID") || !strings.Contains(stdout, "BODYWEIGHT") {
		t.Errorf("stdout missing header: %q", stdout)
	}
	if strings.Index(stdout, "alex") > strings.Index(stdout, "sam") {
		t.Errorf("athletes not sorted by ID: %q", stdout)
	}

	stdout = mustRun(t, root, "", "athlete", "list", "--json")
	var result struct {
		Athletes []map[string]any `json:"athletes"`
		Total    int              `json:"total"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if result.Total != 2 || len(result.Athletes) != 2 {
		t.Errorf("result = %+v", result)
	}
}

func TestAthleteInfo(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "70", "--name", "Sam")
	mustRun(t, root, testSessionJSON("2026-01-02", "TEST", 10), "log", "--athlete", "sam")

	stdout := mustRun(t, root, "", "athlete", "info", "sam")
	for _, want := range []string{"Athlete:       sam", "Name:          Sam", "Bodyweight:    70.0 kg", "Sessions:      1 (1 sets)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	_, _, err := executeCmd(t, root, "", "athlete", "info", "nobody")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want 'not found'", err)
	}
}

func TestAthleteUpdate(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "70", "--name", "Sam")
	mustRun(t, root, "", "athlete", "update", "sam", "--bodyweight", "68.5")

	stdout := mustRun(t, root, "", "athlete", "info", "sam", "--json")
	var result struct {
		Profile struct {
			Name         string  `json:"name"`
			BodyweightKg float64 `json:"bodyweight_kg"`
		} `json:"profile"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if result.Profile.BodyweightKg != 68.5 || result.Profile.Name != "Sam" {
		t.Errorf("profile = %+v, want bodyweight updated and name kept", result.Profile)
	}
}

func TestAthleteDelete(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "70")

	// Mismatched confirmation aborts
	_, stderr, err := executeCmd(t, root, "alex\n", "athlete", "delete", "sam")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "Aborted") {
		t.Errorf("stderr = %q, want abort message", stderr)
	}
	if _, err := os.Stat(filepath.Join(root, "sam")); err != nil {
		t.Fatal("athlete should still exist after aborted delete")
	}

	// Matching confirmation deletes
	stdout := mustRun(t, root, "sam\n", "athlete", "delete", "sam")
	if !strings.Contains(stdout, `Deleted athlete "sam"`) {
		t.Errorf("stdout = %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(root, "sam")); !os.IsNotExist(err) {
		t.Error("athlete directory should be removed")
	}
}

func TestAthleteDelete_Force(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "70")

	stdout := mustRun(t, root, "", "athlete", "delete", "sam", "--force", "--json")
	var result map[string]any
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if result["deleted"] != true {
		t.Errorf("result = %v", result)
	}
}

func TestAthleteDelete_DefaultRejected(t *testing.T) {
	_, _, err := executeCmd(t, t.TempDir(), "", "athlete", "delete", "default", "--force")
	if err == nil || !strings.Contains(err.Error(), "cannot delete the default athlete") {
		t.Errorf("error = %v", err)
	}
}

// --- Log Tests ---

func TestLog_PersonalBestSequence(t *testing.T) {
	root := t.TempDir()

	stdout := mustRun(t, root, testSessionJSON("2026-01-02", "TEST", 10), "log")
	if !strings.Contains(stdout, "Logged pull_up TEST on 2026-01-02") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stdout, "New personal best! (previous best TEST: 0)") {
		t.Errorf("first TEST should be a personal best: %q", stdout)
	}

	stdout = mustRun(t, root, testSessionJSON("2026-01-09", "TEST", 9), "log")
	if strings.Contains(stdout, "personal best") {
		t.Errorf("lower TEST should not be a personal best: %q", stdout)
	}

	stdout = mustRun(t, root, testSessionJSON("2026-01-09", "TEST", 12), "log")
	if !strings.Contains(stdout, "Replaced pull_up TEST on 2026-01-09") || !strings.Contains(stdout, "previous best TEST: 10") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestLog_EstimateAndJSON(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, testSessionJSON("2026-01-02", "TEST", 5), "log")

	stdout := mustRun(t, root, testSessionJSON("2026-01-05", "S", 20, 19), "log", "--json")
	var result struct {
		Estimate     json.RawMessage `json:"estimate"`
		PersonalBest bool            `json:"personal_best"`
		PreviousBest int             `json:"previous_best"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if len(result.Estimate) == 0 {
		t.Error("expected a max estimate for two performed sets")
	}
	if !result.PersonalBest || result.PreviousBest != 5 {
		t.Errorf("result = %+v, want estimated personal best over 5", result)
	}
}

func TestLog_FromFileUsesProfileBodyweight(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "64")

	path := filepath.Join(t.TempDir(), "session.json")
	body := strings.Replace(testSessionJSON("2026-01-02", "TEST", 8), `"bodyweight_kg":80,`, "", 1)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	stdout := mustRun(t, root, "", "log", "--athlete", "sam", "--file", path, "--json")
	if !strings.Contains(stdout, `"bodyweight_kg": 64`) {
		t.Errorf("session should take the profile bodyweight: %s", stdout)
	}
}

func TestLog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		wantErr string
	}{
		{"malformed json", "{not json", "decode session"},
		{"unknown exercise", strings.Replace(testSessionJSON("2026-01-02", "TEST", 8), "pull_up", "muscle_up", 1), "unknown exercise"},
		{"unknown variant", strings.Replace(testSessionJSON("2026-01-02", "TEST", 8), "pronated", "sideways", 1), "variant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCmd(t, t.TempDir(), tt.stdin, "log")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// --- History Tests ---

func TestHistory_ListExportImport(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, testSessionJSON("2026-01-02", "TEST", 10), "log")
	mustRun(t, root, testSessionJSON("2026-01-05", "S", 8, 8, 7), "log")

	stdout := mustRun(t, root, "", "history", "list")
	if !strings.Contains(stdout, "2026-01-02") || !strings.Contains(stdout, "8+8+7") {
		t.Errorf("history list = %q", stdout)
	}

	exportPath := filepath.Join(t.TempDir(), "history.jsonl")
	_, stderr, err := executeCmd(t, root, "", "history", "export", "--output", exportPath)
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	if !strings.Contains(stderr, "Exported 2 sessions") {
		t.Errorf("stderr = %q", stderr)
	}

	mustRun(t, root, "", "athlete", "create", "sam", "--bodyweight", "70")
	stdout = mustRun(t, root, "", "history", "import", "--athlete", "sam", "--file", exportPath)
	if !strings.Contains(stdout, "Imported 2, replaced 0, rejected 0") {
		t.Errorf("import = %q", stdout)
	}

	stdout = mustRun(t, root, "", "history", "list", "--athlete", "sam", "--exercise", exercise.PullUp, "--json")
	var result struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if result.Total != 2 {
		t.Errorf("imported total = %d, want 2", result.Total)
	}
}

func TestHistory_ImportRejectsInvalidLines(t *testing.T) {
	root := t.TempDir()
	input := strings.Join([]string{
		testSessionJSON("2026-01-02", "TEST", 10),
		"not json",
		strings.Replace(testSessionJSON("2026-01-05", "S", 8), "pull_up", "muscle_up", 1),
	}, "\n")

	stdout, stderr, err := executeCmd(t, root, input, "history", "import")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Imported 1, replaced 0, rejected 2") {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "line 2:") || !strings.Contains(stderr, "line 3:") {
		t.Errorf("stderr = %q, want per-line rejections", stderr)
	}
}

func TestHistory_ListUnknownExercise(t *testing.T) {
	_, _, err := executeCmd(t, t.TempDir(), "", "history", "list", "--exercise", "muscle_up")
	if err == nil || !strings.Contains(err.Error(), "unknown exercise") {
		t.Errorf("error = %v", err)
	}
}

func TestHistory_Delete(t *testing.T) {
	root := t.TempDir()
	stdout := mustRun(t, root, testSessionJSON("2026-01-02", "TEST", 10), "log", "--json")

	var logged struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal([]byte(stdout), &logged); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}

	stdout = mustRun(t, root, "", "history", "delete", logged.Session.ID)
	if !strings.Contains(stdout, "Deleted session "+logged.Session.ID) {
		t.Errorf("stdout = %q", stdout)
	}

	_, _, err := executeCmd(t, root, "", "history", "delete", logged.Session.ID)
	if err == nil {
		t.Error("deleting a missing session should fail")
	}
	_, _, err = executeCmd(t, root, "", "history", "delete", "short")
	if err == nil || !strings.Contains(err.Error(), "ULID") {
		t.Errorf("error = %v, want ULID validation", err)
	}
}

func TestHistory_BackupNotConfigured(t *testing.T) {
	_, _, err := executeCmd(t, t.TempDir(), "", "history", "backup")
	if !errors.Is(err, backup.ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

// --- Status, Plan, Estimate Tests ---

func TestStatus(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, testSessionJSON("2026-01-02", "TEST", 10), "log")

	stdout := mustRun(t, root, "", "status", "--exercise", "pull_up")
	for _, want := range []string{"Training max:", "Latest TEST:", "Volume:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	stdout = mustRun(t, root, "", "status", "--exercise", "pull_up", "--json")
	var st struct {
		TrainingMax   int    `json:"training_max"`
		LatestTestMax *int   `json:"latest_test_max"`
		AsOf          string `json:"as_of"`
	}
	if err := json.Unmarshal([]byte(stdout), &st); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if st.TrainingMax != 9 || st.LatestTestMax == nil || *st.LatestTestMax != 10 || st.AsOf != "2026-01-02" {
		t.Errorf("status = %+v", st)
	}
}

func TestStatus_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing exercise flag", []string{"status"}, "required flag"},
		{"no history", []string{"status", "--exercise", "pull_up"}, "insufficient"},
		{"bad date", []string{"status", "--exercise", "pull_up", "--as-of", "yesterday"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCmd(t, t.TempDir(), "", tt.args...)
			if err == nil || !strings.Contains(strings.ToLower(err.Error()), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, testSessionJSON("2026-01-02", "TEST", 12), "log")

	stdout := mustRun(t, root, "", "plan", "--exercise", "pull_up", "--weeks", "2", "--start", "2026-01-05", "--json")
	var plan struct {
		ExerciseID string           `json:"exercise_id"`
		Weeks      int              `json:"weeks"`
		Sessions   []map[string]any `json:"sessions"`
	}
	if err := json.Unmarshal([]byte(stdout), &plan); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if plan.ExerciseID != "pull_up" || plan.Weeks != 2 || len(plan.Sessions) != 6 {
		t.Errorf("plan = %+v", plan)
	}
	if plan.Sessions[0]["date"] != "2026-01-05" {
		t.Errorf("first date = %v", plan.Sessions[0]["date"])
	}

	stdout = mustRun(t, root, "", "plan", "--exercise", "pull_up", "--weeks", "2", "--start", "2026-01-05")
	if !strings.Contains(stdout, "DATE") || !strings.Contains(stdout, "2026-01-05") {
		t.Errorf("plan table = %q", stdout)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	root := t.TempDir()
	mustRun(t, root, testSessionJSON("2026-01-02", "TEST", 12), "log")

	args := []string{"plan", "--exercise", "pull_up", "--weeks", "4", "--start", "2026-01-05", "--json"}
	first := mustRun(t, root, "", args...)
	second := mustRun(t, root, "", args...)
	if first != second {
		t.Error("plan output changed between identical runs")
	}
}

func TestEstimate(t *testing.T) {
	stdout := mustRun(t, t.TempDir(), testSessionJSON("2026-01-05", "S", 20, 19), "estimate", "--json")
	var est map[string]any
	if err := json.Unmarshal([]byte(stdout), &est); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, stdout)
	}
	if est["sets_used"] != float64(2) {
		t.Errorf("estimate = %v", est)
	}

	_, _, err := executeCmd(t, t.TempDir(), testSessionJSON("2026-01-05", "S", 20), "estimate")
	if err == nil || !strings.Contains(err.Error(), "insufficient") {
		t.Errorf("error = %v, want insufficient data", err)
	}
}
