package exercise

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/ascent/internal/types"
)

func TestBuiltin_ContainsCoreExercises(t *testing.T) {
	c := Builtin()
	for _, id := range []string{PullUp, Dip, BSS} {
		d, err := c.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", id, err)
		}
		if d.ID != id {
			t.Errorf("Get(%q).ID = %q", id, d.ID)
		}
	}
	if got := strings.Join(c.IDs(), ","); got != "bss,dip,pull_up" {
		t.Errorf("IDs() = %s", got)
	}
}

func TestCatalog_GetUnknown(t *testing.T) {
	_, err := Builtin().Get("muscle_up")
	if !errors.Is(err, ErrUnknownExercise) {
		t.Errorf("expected ErrUnknownExercise, got %v", err)
	}
}

func TestDefinition_VariantFactor(t *testing.T) {
	d, _ := Builtin().Get(PullUp)
	if got := d.VariantFactor("pronated"); got != 1.0 {
		t.Errorf("VariantFactor(pronated) = %v", got)
	}
	if got := d.VariantFactor("archer"); got != 1.0 {
		t.Errorf("VariantFactor(unknown) = %v, want 1.0", got)
	}
	if d.PrimaryVariant() != "pronated" {
		t.Errorf("PrimaryVariant() = %q", d.PrimaryVariant())
	}
}

func TestDefinition_SessionParams(t *testing.T) {
	d, _ := Builtin().Get(Dip)
	for _, st := range types.SessionTypes {
		if _, err := d.SessionParams(st); err != nil {
			t.Errorf("SessionParams(%s) error: %v", st, err)
		}
	}
	if _, err := d.SessionParams("X"); !errors.Is(err, types.ErrUnknownEnum) {
		t.Errorf("SessionParams(X) = %v, want ErrUnknownEnum", err)
	}
}

func TestDefinition_AddedWeight(t *testing.T) {
	d, _ := Builtin().Get(PullUp)
	tests := []struct {
		tm   int
		want float64
	}{
		{5, 0},
		{9, 0},
		{12, 1.25},  // 1.5kg floored to 1.25
		{14, 2.5},   // exact multiple
		{200, 20.0}, // capped
	}
	for _, tt := range tests {
		if got := d.AddedWeight(tt.tm); got != tt.want {
			t.Errorf("AddedWeight(%d) = %v, want %v", tt.tm, got, tt.want)
		}
	}
}

func TestValidate_RejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Definition)
		want   string
	}{
		{"missing id", func(d *Definition) { d.ID = "" }, "id is required"},
		{"zero fraction", func(d *Definition) { d.BodyweightFraction = 0 }, "bw_fraction"},
		{"duplicate variants", func(d *Definition) { d.Variants = []string{"a", "a"} }, "variants must not contain duplicates"},
		{"reps max below min", func(d *Definition) {
			sp := d.Params[types.SessionStrength]
			sp.RepsMax = sp.RepsMin - 1
			d.Params[types.SessionStrength] = sp
		}, "reps_max"},
		{"missing session type", func(d *Definition) { delete(d.Params, types.SessionTechnique) }, "missing session type T"},
		{"unknown hypertrophy variant", func(d *Definition) { d.HypertrophyVariants[1] = "archer" }, "hypertrophy variant"},
		{"bad target metric", func(d *Definition) { d.Target.Metric = "seconds" }, "metric must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := pullUp()
			tt.mutate(&d)
			err := d.Validate()
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("Validate() = %v, want ErrInvalidDefinition", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFile_OverridesAndExtends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exercises.yaml")
	content := `exercises:
  - id: pull_up
    name: Weighted pull-up
    bw_fraction: 1.0
    variants: [pronated, neutral]
    hypertrophy_variants: [pronated, neutral]
    params:
      S: {reps_fraction_low: 0.3, reps_fraction_high: 0.5, reps_min: 2, reps_max: 6, sets_min: 3, sets_max: 5, rest_min: 180, rest_max: 240, rir_target: 2}
      H: {reps_fraction_low: 0.6, reps_fraction_high: 0.8, reps_min: 6, reps_max: 12, sets_min: 3, sets_max: 5, rest_min: 120, rest_max: 180, rir_target: 2}
      E: {reps_fraction_low: 0.4, reps_fraction_high: 0.6, reps_min: 3, reps_max: 10, sets_min: 5, sets_max: 8, rest_min: 60, rest_max: 90, rir_target: 3}
      T: {reps_fraction_low: 0.2, reps_fraction_high: 0.4, reps_min: 2, reps_max: 5, sets_min: 3, sets_max: 6, rest_min: 60, rest_max: 120, rir_target: 4}
      TEST: {reps_fraction_low: 1, reps_fraction_high: 1, reps_min: 1, reps_max: 100, sets_min: 1, sets_max: 1, rest_min: 180, rest_max: 300, rir_target: 0}
    target: {metric: max_reps, value: 25}
    weight: {threshold_tm: 8, kg_per_rep: 1, increment_kg: 2.5, max_kg: 40}
    endurance_volume_multiplier: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	d, err := c.Get(PullUp)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Weighted pull-up" || d.Target.Value != 25 {
		t.Errorf("override not applied: %+v", d)
	}
	if _, err := c.Get(Dip); err != nil {
		t.Errorf("built-in dip missing after load: %v", err)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("exercises:\n  - id: broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("LoadFile() = %v, want ErrInvalidDefinition", err)
	}
}

func TestLoad_EmptyPathUsesBuiltin(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.List()) != 3 {
		t.Errorf("List() = %d definitions, want 3", len(c.List()))
	}
}
