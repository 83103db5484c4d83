// Package catalog holds the reference data the settlement pipeline runs
// on: the material and product catalogs, vessel defaults, decomposition
// rules, wastage ratio tables, counting zones, and fallback costs. The
// compiled defaults can be overridden from a YAML file so new physical
// input types plug in without code changes.
package catalog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdulnihaf/nawabi-chai-house/internal/domain"
)

type RuleKind string

const (
	// RuleDirect adds the field value 1:1 to a single material.
	RuleDirect RuleKind = "direct"
	// RuleDual reads a direct value, overridden by a non-empty
	// container-weighing companion field when present.
	RuleDual RuleKind = "dual"
	// RuleVessel converts weigh entries to net litres via tare and
	// density, then applies a per-litre ratio table.
	RuleVessel RuleKind = "vessel"
	// RuleComposite scales a count by a fixed per-unit material table
	// (boxes, packets).
	RuleComposite RuleKind = "composite"
	// RulePrepared scales a count by a per-unit table covering the base
	// item plus secondary materials (oil, butter, sugar).
	RulePrepared RuleKind = "prepared"
)

// Rule describes how one physical input field decomposes into raw
// materials. Aliases name superseded or zone-split fields whose values
// are summed into the rule's field before it applies.
type Rule struct {
	Field      string          `yaml:"field"`
	Kind       RuleKind        `yaml:"kind"`
	Aliases    []string        `yaml:"aliases,omitempty"`
	MaterialID int             `yaml:"material_id,omitempty"`
	WeighField string          `yaml:"weigh_field,omitempty"`
	LiquidType string          `yaml:"liquid_type,omitempty"`
	Ratios     map[int]float64 `yaml:"ratios,omitempty"`
}

type Product struct {
	Name      string          `yaml:"name"`
	Code      string          `yaml:"code"`
	Price     float64         `yaml:"price"`
	Materials map[int]float64 `yaml:"materials"`
}

type Zone struct {
	ThresholdSeconds int64 `yaml:"threshold_seconds"`
}

type Catalog struct {
	Materials     map[int]domain.Material
	Products      map[int]Product
	Vessels       map[string]domain.Vessel
	Densities     map[string]float64
	Rules         []Rule
	WastageRatios map[string]map[int]float64
	Zones         map[string]Zone
	FieldZones    map[string]string
	FieldProducts map[string][]int
	FallbackCosts map[int]float64
	Flagship      int
}

// VesselTare returns the registered tare weight for a vessel code, or
// zero when the code is unregistered. An unknown code is a soft-fail,
// not an error: the gross weight counts in full.
func (c *Catalog) VesselTare(code string) float64 {
	if v, ok := c.Vessels[code]; ok {
		return v.TareKg
	}
	return 0
}

func (c *Catalog) Density(liquidType string) float64 {
	if d, ok := c.Densities[liquidType]; ok && d > 0 {
		return d
	}
	return 1
}

func (c *Catalog) MaterialUnit(id int) string {
	if m, ok := c.Materials[id]; ok {
		return m.Unit
	}
	return ""
}

func (c *Catalog) Recipe(productID int) map[int]float64 {
	if p, ok := c.Products[productID]; ok {
		return p.Materials
	}
	return nil
}

// WastageRatio resolves the state-specific material table for a wastage
// entry. Keys are "item/state", falling back to the bare item name.
func (c *Catalog) WastageRatio(item, state string) map[int]float64 {
	if state != "" {
		if r, ok := c.WastageRatios[item+"/"+state]; ok {
			return r
		}
	}
	return c.WastageRatios[item]
}

// ZoneThreshold returns the gap tolerance for a field's counting zone.
// Fields with no zone mapping never trigger gap adjustment.
func (c *Catalog) ZoneThreshold(field string) (time.Duration, bool) {
	zoneName, ok := c.FieldZones[field]
	if !ok {
		return 0, false
	}
	zone, ok := c.Zones[zoneName]
	if !ok {
		return 0, false
	}
	return time.Duration(zone.ThresholdSeconds) * time.Second, true
}

// WithVessels returns a copy of the catalog with registry vessels
// overlaid on the defaults. Registry rows win on code collision. The
// receiver is not mutated, so a shared catalog stays safe across
// concurrent submissions.
func (c *Catalog) WithVessels(vessels []domain.Vessel) *Catalog {
	out := *c
	out.Vessels = make(map[string]domain.Vessel, len(c.Vessels)+len(vessels))
	for code, v := range c.Vessels {
		out.Vessels[code] = v
	}
	for _, v := range vessels {
		if v.Code == "" {
			continue
		}
		out.Vessels[v.Code] = v
	}
	return &out
}

// fileCatalog is the YAML override schema. Every section is optional and
// replaces the corresponding default section wholesale when present.
type fileCatalog struct {
	Materials     map[int]domain.Material    `yaml:"materials,omitempty"`
	Products      map[int]Product            `yaml:"products,omitempty"`
	Vessels       map[string]domain.Vessel   `yaml:"vessels,omitempty"`
	Densities     map[string]float64         `yaml:"densities,omitempty"`
	Rules         []Rule                     `yaml:"rules,omitempty"`
	WastageRatios map[string]map[int]float64 `yaml:"wastage_ratios,omitempty"`
	Zones         map[string]Zone            `yaml:"zones,omitempty"`
	FieldZones    map[string]string          `yaml:"field_zones,omitempty"`
	FieldProducts map[string][]int           `yaml:"field_products,omitempty"`
	FallbackCosts map[int]float64            `yaml:"fallback_costs,omitempty"`
	Flagship      int                        `yaml:"flagship_product,omitempty"`
}

// Load returns the default catalog, overlaid with the YAML file at path
// when path is non-empty.
func Load(path string) (*Catalog, error) {
	c := Defaults()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var file fileCatalog
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if file.Materials != nil {
		c.Materials = file.Materials
	}
	if file.Products != nil {
		c.Products = file.Products
	}
	if file.Vessels != nil {
		c.Vessels = file.Vessels
	}
	if file.Densities != nil {
		c.Densities = file.Densities
	}
	if file.Rules != nil {
		c.Rules = file.Rules
	}
	if file.WastageRatios != nil {
		c.WastageRatios = file.WastageRatios
	}
	if file.Zones != nil {
		c.Zones = file.Zones
	}
	if file.FieldZones != nil {
		c.FieldZones = file.FieldZones
	}
	if file.FieldProducts != nil {
		c.FieldProducts = file.FieldProducts
	}
	if file.FallbackCosts != nil {
		c.FallbackCosts = file.FallbackCosts
	}
	if file.Flagship != 0 {
		c.Flagship = file.Flagship
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		if r.Field == "" {
			return fmt.Errorf("catalog: rule with empty field")
		}
		if seen[r.Field] {
			return fmt.Errorf("catalog: duplicate rule for field %q", r.Field)
		}
		seen[r.Field] = true
		switch r.Kind {
		case RuleDirect:
			if r.MaterialID == 0 {
				return fmt.Errorf("catalog: direct rule %q needs material_id", r.Field)
			}
		case RuleDual:
			if r.MaterialID == 0 || r.WeighField == "" {
				return fmt.Errorf("catalog: dual rule %q needs material_id and weigh_field", r.Field)
			}
		case RuleVessel:
			if r.LiquidType == "" || len(r.Ratios) == 0 {
				return fmt.Errorf("catalog: vessel rule %q needs liquid_type and ratios", r.Field)
			}
		case RuleComposite, RulePrepared:
			if len(r.Ratios) == 0 {
				return fmt.Errorf("catalog: %s rule %q needs ratios", r.Kind, r.Field)
			}
		default:
			return fmt.Errorf("catalog: rule %q has unknown kind %q", r.Field, r.Kind)
		}
	}
	return nil
}
