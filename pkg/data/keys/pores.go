// SPDX-License-Identifier: MPL-2.0

package keys

import "bastion/pkg/data"

// MushroomPores is a typed view over the big-mushroom pore attributes. It
// wraps a Manipulator whose schema covers the aggregate side list plus the
// six per-side flags.
type MushroomPores struct {
	m *data.Manipulator
}

// NewMushroomPores creates an empty MushroomPores bundle.
func NewMushroomPores() *MushroomPores {
	return &MushroomPores{m: data.NewManipulator(
		BigMushroomPores,
		BigMushroomPoresDown,
		BigMushroomPoresEast,
		BigMushroomPoresNorth,
		BigMushroomPoresSouth,
		BigMushroomPoresUp,
		BigMushroomPoresWest,
	)}
}

// Manipulator exposes the underlying attribute bundle.
func (p *MushroomPores) Manipulator() *data.Manipulator { return p.m }

// Sides returns the list of sides that currently show pores.
func (p *MushroomPores) Sides() []string {
	sides, _ := data.Get[[]string](p.m, BigMushroomPores)
	return sides
}

// SetSides replaces the pore side list and synchronizes the per-side flags.
func (p *MushroomPores) SetSides(sides []string) error {
	if err := p.m.Set(BigMushroomPores, sides); err != nil {
		return err
	}
	present := make(map[string]bool, len(sides))
	for _, s := range sides {
		present[s] = true
	}
	for side, k := range sideKeys() {
		if err := p.m.Set(k, present[side]); err != nil {
			return err
		}
	}
	return nil
}

// Side reports whether the named side ("north", "up", ...) shows pores.
func (p *MushroomPores) Side(name string) bool {
	k, ok := sideKeys()[name]
	if !ok {
		return false
	}
	v, _ := data.GetBool(p.m, k)
	return v
}

// sideKeys maps side names to their per-side flag keys.
func sideKeys() map[string]data.Key {
	return map[string]data.Key{
		"down":  BigMushroomPoresDown,
		"east":  BigMushroomPoresEast,
		"north": BigMushroomPoresNorth,
		"south": BigMushroomPoresSouth,
		"up":    BigMushroomPoresUp,
		"west":  BigMushroomPoresWest,
	}
}
