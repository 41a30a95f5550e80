package lighting

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/modelview/pkg/math"
)

func TestDefaultRig(t *testing.T) {
	r := DefaultRig()
	if r.Ambient.Intensity != 0.45 {
		t.Errorf("ambient intensity = %v, want 0.45", r.Ambient.Intensity)
	}
	if !r.Key.CastShadow || r.Key.ShadowMapSize != 2048 {
		t.Errorf("key light shadows = %v/%d, want true/2048", r.Key.CastShadow, r.Key.ShadowMapSize)
	}
	want := mgl64.Vec3{-1, -1, -1}.Normalize()
	if !math.NearVec3(r.Key.Direction(), want, 1e-9) {
		t.Errorf("key direction = %v, want %v", r.Key.Direction(), want)
	}
	if r.WithShadows(false).Key.CastShadow {
		t.Error("WithShadows(false) kept shadows on")
	}
	if !r.Key.CastShadow {
		t.Error("WithShadows modified the original rig")
	}
}

func TestRigShade(t *testing.T) {
	r := DefaultRig()
	facing := mgl64.Vec3{1, 1, 1}
	if got := r.Shade(facing); got != 1 {
		t.Errorf("Shade(facing light) = %v, want 1 (clamped)", got)
	}
	away := mgl64.Vec3{-1, -1, -1}
	if got := r.Shade(away); gomath.Abs(got-0.45) > 1e-12 {
		t.Errorf("Shade(away from light) = %v, want ambient 0.45", got)
	}
	if got := r.Shade(mgl64.Vec3{}); gomath.Abs(got-0.45) > 1e-12 {
		t.Errorf("Shade(zero normal) = %v, want ambient 0.45", got)
	}
}

func TestKeyFromAngles(t *testing.T) {
	l := KeyFromAngles(0, 90, 10)
	if !math.NearVec3(l.Position, mgl64.Vec3{0, 10, 0}, 1e-9) {
		t.Errorf("overhead key at %v, want (0,10,0)", l.Position)
	}
	if !math.NearVec3(l.Direction(), mgl64.Vec3{0, -1, 0}, 1e-9) {
		t.Errorf("overhead key direction = %v", l.Direction())
	}
}

func TestContactShadowsFit(t *testing.T) {
	c := DefaultContactShadows()
	small := c.Fit(math.NewBox3(mgl64.Vec3{-1, 0, -1}, mgl64.Vec3{1, 1, 1}))
	if small.Scale != 12 || small.Far != 4 {
		t.Errorf("small asset shadow = %v/%v, want defaults 12/4", small.Scale, small.Far)
	}
	big := c.Fit(math.NewBox3(mgl64.Vec3{-10, 0, -3}, mgl64.Vec3{10, 8, 3}))
	if big.Scale != 40 || big.Far != 8 {
		t.Errorf("big asset shadow = %v/%v, want 40/8", big.Scale, big.Far)
	}
	if c.Scale != 12 {
		t.Error("Fit modified receiver")
	}
}

func TestParsePreset(t *testing.T) {
	for _, p := range Presets() {
		got, err := ParsePreset(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePreset(%q) = %v, %v", p.String(), got, err)
		}
	}
	if len(Presets()) != 11 {
		t.Errorf("got %d presets, want 11", len(Presets()))
	}
	if p, err := ParsePreset(" Sunset "); err != nil || p != PresetSunset {
		t.Errorf("ParsePreset(\" Sunset \") = %v, %v", p, err)
	}
	if p, err := ParsePreset(""); err != nil || p != PresetStudio {
		t.Errorf("ParsePreset(\"\") = %v, %v", p, err)
	}
	if _, err := ParsePreset("moon"); err == nil {
		t.Error("ParsePreset(\"moon\") succeeded")
	}
}

func TestPresetYAML(t *testing.T) {
	type doc struct {
		Environment Preset `yaml:"environment"`
	}

	out, err := yaml.Marshal(doc{Environment: PresetNight})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != "environment: night\n" {
		t.Errorf("Marshal = %q", out)
	}

	var d doc
	if err := yaml.Unmarshal([]byte("environment: warehouse\n"), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d.Environment != PresetWarehouse {
		t.Errorf("Environment = %v, want warehouse", d.Environment)
	}

	if err := yaml.Unmarshal([]byte("environment: moon\n"), &d); err == nil {
		t.Error("Unmarshal accepted unknown preset")
	}
}

func TestPresetInvalid(t *testing.T) {
	p := Preset(99)
	if p.Valid() {
		t.Error("Preset(99) is valid")
	}
	if p.Background() != PresetStudio.Background() {
		t.Error("invalid preset should fall back to studio backdrop")
	}
	if PresetNight.Exposure() >= PresetStudio.Exposure() {
		t.Error("night should be darker than studio")
	}
}
