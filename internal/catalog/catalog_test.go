package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

func writeCatalogFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Flagship != IraniChai {
		t.Fatalf("expected flagship %d, got %d", IraniChai, c.Flagship)
	}
	if _, ok := c.Materials[BuffaloMilk]; !ok {
		t.Fatalf("expected default materials present")
	}
}

func TestLoadOverridesSectionWholesale(t *testing.T) {
	path := writeCatalogFile(t, `
vessels:
  NEW-PATILA-1:
    code: NEW-PATILA-1
    tare_kg: 9.5
    liquid_type: boiled_milk
    location: kitchen
zones:
  counter:
    threshold_seconds: 300
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// The vessels section replaces the defaults entirely.
	if c.VesselTare("NEW-PATILA-1") != 9.5 {
		t.Fatalf("expected overridden vessel tare, got %v", c.VesselTare("NEW-PATILA-1"))
	}
	if c.VesselTare("KIT-PATILA-1") != 0 {
		t.Fatalf("expected default vessels replaced, got tare %v", c.VesselTare("KIT-PATILA-1"))
	}

	if got, ok := c.ZoneThreshold("tea_decoction"); !ok || got != 300*time.Second {
		t.Fatalf("expected counter threshold 300s, got %v ok=%v", got, ok)
	}

	// Untouched sections keep their defaults.
	if c.Density("boiled_milk") != 1.035 {
		t.Fatalf("expected default density retained, got %v", c.Density("boiled_milk"))
	}
	if len(c.Rules) == 0 {
		t.Fatalf("expected default rules retained")
	}
}

func TestLoadRejectsDuplicateRuleField(t *testing.T) {
	path := writeCatalogFile(t, `
rules:
  - field: raw_sugar
    kind: direct
    material_id: 1097
  - field: raw_sugar
    kind: direct
    material_id: 1098
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate rule") {
		t.Fatalf("expected duplicate rule error, got %v", err)
	}
}

func TestLoadRejectsDirectRuleWithoutMaterial(t *testing.T) {
	path := writeCatalogFile(t, `
rules:
  - field: raw_sugar
    kind: direct
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "needs material_id") {
		t.Fatalf("expected missing material error, got %v", err)
	}
}

func TestLoadRejectsUnknownRuleKind(t *testing.T) {
	path := writeCatalogFile(t, `
rules:
  - field: raw_sugar
    kind: telepathic
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWithVesselsOverlaysWithoutMutating(t *testing.T) {
	base := Defaults()
	originalTare := base.VesselTare("KIT-PATILA-1")

	overlaid := base.WithVessels([]domain.Vessel{
		{Code: "KIT-PATILA-1", TareKg: 14.0},
		{Code: "CTR-NEW-7", TareKg: 1.2},
		{Code: ""},
	})

	if overlaid.VesselTare("KIT-PATILA-1") != 14.0 {
		t.Fatalf("expected registry row to win, got %v", overlaid.VesselTare("KIT-PATILA-1"))
	}
	if overlaid.VesselTare("CTR-NEW-7") != 1.2 {
		t.Fatalf("expected new vessel in overlay")
	}
	if base.VesselTare("KIT-PATILA-1") != originalTare {
		t.Fatalf("expected receiver untouched, got %v", base.VesselTare("KIT-PATILA-1"))
	}
}

func TestVesselTareUnknownCode(t *testing.T) {
	if got := Defaults().VesselTare("NOPE-999"); got != 0 {
		t.Fatalf("expected zero tare for unregistered code, got %v", got)
	}
}

func TestDensityUnknownLiquidDefaultsToWater(t *testing.T) {
	if got := Defaults().Density("mystery_syrup"); got != 1 {
		t.Fatalf("expected density 1, got %v", got)
	}
}

func TestWastageRatioStateFallback(t *testing.T) {
	c := Defaults()

	fried := c.WastageRatio("cutlet", "fried")
	if fried == nil || fried[Oil] == 0 {
		t.Fatalf("expected fried cutlet ratio to include oil, got %v", fried)
	}

	if c.WastageRatio("unobtainium", "") != nil {
		t.Fatalf("expected nil for unknown item")
	}

	// An unknown state falls back to the bare item key when one exists.
	fallback := &Catalog{WastageRatios: map[string]map[int]float64{
		"bun": {Buns: 1},
	}}
	if got := fallback.WastageRatio("bun", "stale"); got == nil || got[Buns] != 1 {
		t.Fatalf("expected bare item fallback, got %v", got)
	}
}

func TestZoneThresholdUnmappedField(t *testing.T) {
	if _, ok := Defaults().ZoneThreshold("honey"); ok {
		t.Fatalf("expected no zone for honey")
	}
}
