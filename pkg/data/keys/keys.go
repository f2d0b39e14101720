// SPDX-License-Identifier: MPL-2.0

// Package keys declares the well-known attribute keys shipped with the
// runtime. Hosts and plugins may register additional keys through the
// registry; the catalog here covers the attributes the reference runtime
// understands out of the box.
package keys

import (
	"bastion/pkg/data"
	"bastion/pkg/respath"
)

// key is shorthand for declaring a catalog entry in the core namespace.
func key(id string, kind data.Kind) data.Key {
	return data.NewKey(respath.MustOf("core", id), kind)
}

var (
	// Absorption is the amount of bonus health shielding damage.
	Absorption = key("absorption", data.KindFloat)

	// AffectsSpawning controls whether an entity suppresses hostile spawns
	// around it.
	AffectsSpawning = key("affects_spawning", data.KindBool)

	// AIEnabled controls whether an agent runs its goal selectors.
	AIEnabled = key("ai_enabled", data.KindBool)

	// Anger is the remaining aggression level of a provoked mob.
	Anger = key("anger", data.KindInt)

	// Angry reports whether a mob is currently provoked.
	Angry = key("angry", data.KindBool)

	// AttackDamage is the base melee damage dealt by an entity.
	AttackDamage = key("attack_damage", data.KindFloat)

	// Axis is the orientation axis of a directional block ("x", "y", "z").
	Axis = key("axis", data.KindString)

	// BigMushroomPores lists the block sides that show pores.
	BigMushroomPores = key("big_mushroom_pores", data.KindStringList)

	// BigMushroomPoresDown reports pores on the bottom side.
	BigMushroomPoresDown = key("big_mushroom_pores_down", data.KindBool)

	// BigMushroomPoresEast reports pores on the eastern side.
	BigMushroomPoresEast = key("big_mushroom_pores_east", data.KindBool)

	// BigMushroomPoresNorth reports pores on the northern side.
	BigMushroomPoresNorth = key("big_mushroom_pores_north", data.KindBool)

	// BigMushroomPoresSouth reports pores on the southern side.
	BigMushroomPoresSouth = key("big_mushroom_pores_south", data.KindBool)

	// BigMushroomPoresUp reports pores on the top side.
	BigMushroomPoresUp = key("big_mushroom_pores_up", data.KindBool)

	// BigMushroomPoresWest reports pores on the western side.
	BigMushroomPoresWest = key("big_mushroom_pores_west", data.KindBool)

	// BookAuthor is the author of a written book item.
	BookAuthor = key("book_author", data.KindString)

	// BookPages holds the page contents of a written book item.
	BookPages = key("book_pages", data.KindStringList)

	// CanBreed reports whether an animal accepts breeding items.
	CanBreed = key("can_breed", data.KindBool)

	// CanFly reports whether an entity ignores gravity pathing.
	CanFly = key("can_fly", data.KindBool)

	// CanGrief controls whether an entity may modify blocks.
	CanGrief = key("can_grief", data.KindBool)

	// Command is the command string stored in a command block.
	Command = key("command", data.KindString)

	// ConnectedDirections lists the sides a fence or pane connects to.
	ConnectedDirections = key("connected_directions", data.KindStringList)

	// ContainedExperience is the experience held by an orb.
	ContainedExperience = key("contained_experience", data.KindInt)

	// Cooldown is the remaining delay of a hopper or dispenser.
	Cooldown = key("cooldown", data.KindDuration)

	// CustomNameVisible controls whether the custom name renders above an
	// entity.
	CustomNameVisible = key("custom_name_visible", data.KindBool)

	// DisplayName is the display name of an entity or item.
	DisplayName = key("display_name", data.KindString)

	// FoodLevel is the hunger level of a player.
	FoodLevel = key("food_level", data.KindInt)

	// FuseDuration is the remaining fuse time of a primed explosive.
	FuseDuration = key("fuse_duration", data.KindDuration)

	// Health is the current health of a living entity.
	Health = key("health", data.KindFloat)

	// LockToken is the lock string guarding a container block.
	LockToken = key("lock_token", data.KindString)

	// MaxHealth is the maximum health of a living entity.
	MaxHealth = key("max_health", data.KindFloat)

	// Persists controls whether an entity survives chunk unloads.
	Persists = key("persists", data.KindBool)

	// RepresentedItem is the resource path of the item an entity displays.
	RepresentedItem = key("represented_item", data.KindPath)

	// Saturation is the food saturation level of a player.
	Saturation = key("saturation", data.KindFloat)

	// SkinTexture is the resource path of an entity's skin texture.
	SkinTexture = key("skin_texture", data.KindPath)

	// WalkingSpeed is the base walking speed of an entity.
	WalkingSpeed = key("walking_speed", data.KindFloat)
)

// All returns every key declared by this package, for catalog registration.
func All() []data.Key {
	return []data.Key{
		Absorption,
		AffectsSpawning,
		AIEnabled,
		Anger,
		Angry,
		AttackDamage,
		Axis,
		BigMushroomPores,
		BigMushroomPoresDown,
		BigMushroomPoresEast,
		BigMushroomPoresNorth,
		BigMushroomPoresSouth,
		BigMushroomPoresUp,
		BigMushroomPoresWest,
		BookAuthor,
		BookPages,
		CanBreed,
		CanFly,
		CanGrief,
		Command,
		ConnectedDirections,
		ContainedExperience,
		Cooldown,
		CustomNameVisible,
		DisplayName,
		FoodLevel,
		FuseDuration,
		Health,
		LockToken,
		MaxHealth,
		Persists,
		RepresentedItem,
		Saturation,
		SkinTexture,
		WalkingSpeed,
	}
}
