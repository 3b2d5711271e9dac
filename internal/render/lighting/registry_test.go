package lighting

import (
	"fmt"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetRankedVisibleCapsAndSorts(t *testing.T) {
	reg := NewRegistry(0, nil)
	viewport := image.Rect(0, 0, 320, 240)

	for i := 0; i < 10; i++ {
		pos := mgl64.Vec2{float64(20 + i*25), 100}
		reg.SetLight(fmt.Sprintf("torch_%d", i), NewRadialLight(pos, 40, DefaultLightColor, i))
	}
	// Most important light of all, but nowhere near the viewport
	reg.SetLight("beacon", NewRadialLight(mgl64.Vec2{5000, 5000}, 100, DefaultLightColor, 99))

	const maxLights = 4
	got := reg.GetRankedVisible(viewport, maxLights)
	if len(got) != maxLights {
		t.Fatalf("Expected %d lights, got %d", maxLights, len(got))
	}
	for i, n := range got {
		if n.Name == "beacon" {
			t.Errorf("Off-screen light returned at rank %d", i)
		}
		if i > 0 && got[i-1].Light.Importance < n.Light.Importance {
			t.Errorf("Lights not sorted by importance: %d before %d", got[i-1].Light.Importance, n.Light.Importance)
		}
	}
	if got[0].Name != "torch_9" {
		t.Errorf("Expected torch_9 first, got %s", got[0].Name)
	}
}

func TestGetRankedVisibleFewerThanCap(t *testing.T) {
	reg := NewRegistry(0, nil)
	reg.SetLight("a", NewRadialLight(mgl64.Vec2{10, 10}, 16, DefaultLightColor, 1))
	reg.SetLight("b", NewRadialLight(mgl64.Vec2{-100, -100}, 16, DefaultLightColor, 5))

	got := reg.GetRankedVisible(image.Rect(0, 0, 64, 64), 8)
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("Expected only light a, got %v", got)
	}
	if reg.GetRankedVisible(image.Rect(0, 0, 64, 64), 0) != nil {
		t.Error("Expected nil for a zero cap")
	}
}

func TestRegistryMutations(t *testing.T) {
	reg := NewRegistry(0, nil)
	light := NewRadialLight(mgl64.Vec2{1, 2}, 8, DefaultLightColor, 3)

	if !reg.SetLight("lamp", light) {
		t.Error("Expected first SetLight to report a change")
	}
	if reg.SetLight("lamp", light) {
		t.Error("Expected identical SetLight to report no change")
	}
	if reg.RemoveLight("missing") {
		t.Error("Removing an unknown light should be a no-op")
	}
	if !reg.RemoveLight("lamp") {
		t.Error("Expected lamp to be removed")
	}
	if reg.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.Len())
	}

	reg.SetLight("a", light)
	reg.SetLight("b", light)
	reg.Clear()
	if reg.Len() != 0 || len(reg.All()) != 0 {
		t.Error("Clear should remove every light")
	}
}

func TestZeroRadiusLightIsAcceptedButInvisible(t *testing.T) {
	reg := NewRegistry(0, nil)
	reg.SetLight("dud", NewRadialLight(mgl64.Vec2{10, 10}, -5, DefaultLightColor, 1))

	if l, ok := reg.Get("dud"); !ok || l.Radius != 0 {
		t.Fatalf("Expected dud with radius 0, got %+v (ok=%v)", l, ok)
	}
	if got := reg.GetRankedVisible(image.Rect(0, 0, 100, 100), 4); len(got) != 0 {
		t.Errorf("Expected zero radius light to be culled, got %v", got)
	}
}

func TestSetLightWarnsAboveLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reg := NewRegistry(2, zap.New(core))

	for i := 0; i < 4; i++ {
		reg.SetLight(fmt.Sprintf("l%d", i), NewRadialLight(mgl64.Vec2{0, 0}, 4, DefaultLightColor, 0))
	}

	if reg.Len() != 4 {
		t.Errorf("Lights must never be rejected, got %d", reg.Len())
	}
	if n := logs.FilterMessage("light registry above limit").Len(); n != 2 {
		t.Errorf("Expected 2 warnings, got %d", n)
	}
}

func TestIdenticalSetLightStillWarnsAboveLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reg := NewRegistry(1, zap.New(core))
	a := NewRadialLight(mgl64.Vec2{0, 0}, 4, DefaultLightColor, 0)
	reg.SetLight("a", a)
	reg.SetLight("b", NewRadialLight(mgl64.Vec2{8, 0}, 4, DefaultLightColor, 0))

	if reg.SetLight("a", a) {
		t.Error("Re-setting an identical light should report no change")
	}
	if n := logs.FilterMessage("light registry above limit").Len(); n != 2 {
		t.Errorf("Expected a warning for each call above the limit, got %d", n)
	}
}
