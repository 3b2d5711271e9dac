package inventory

import (
	"path/filepath"
	"testing"
)

const library = `
name: core
items:
  torch:
    display_name: Torch
    stackable: true
    max_stack: 5
    light: {radius: 160, color: "#ffaa44", importance: 10}
  key:
    display_name: Rusty Key
  lantern:
    light: {radius: 224, importance: 20}
`

func newTestInventory(t *testing.T) (*Inventory, *int, *int) {
	t.Helper()
	lib, err := ParseItemLibrary([]byte(library))
	if err != nil {
		t.Fatalf("Failed to parse library: %v", err)
	}
	inv := New()
	lib.ApplyToInventory(inv)
	changes, lights := 0, 0
	inv.OnChange = func() { changes++ }
	inv.OnLightChange = func() { lights++ }
	return inv, &changes, &lights
}

func TestAddAndRemove(t *testing.T) {
	inv, changes, lights := newTestInventory(t)

	if got := inv.AddItem("torch", 7); got != 5 {
		t.Errorf("Expected max stack to cap at 5, got %d", got)
	}
	if got := inv.AddItem("torch", 1); got != 0 {
		t.Errorf("Expected a full stack to refuse more, got %d", got)
	}
	inv.AddItem("key", 1)
	if *lights != 1 {
		t.Errorf("Expected one light event (torch pickup), got %d", *lights)
	}
	if *changes != 2 {
		t.Errorf("Expected 2 change events, got %d", *changes)
	}

	if inv.RemoveItem("key", 2) {
		t.Error("Removing more than held must fail")
	}
	if !inv.RemoveItem("key", 1) || inv.HasItem("key") {
		t.Error("Expected the key to be removed")
	}
	if inv.TotalItems() != 5 || inv.Count() != 1 {
		t.Errorf("Unexpected totals %s", inv.Debug())
	}
}

func TestCapacity(t *testing.T) {
	inv := NewWithCapacity(1)
	inv.AddItem("a", 1)
	if inv.AddItem("b", 1) != 0 || !inv.IsFull() {
		t.Error("Expected a full inventory to refuse new item types")
	}
	if inv.AddItem("a", 2) != 2 {
		t.Error("Existing stacks may still grow")
	}
}

func TestEquipEmitsLightEvents(t *testing.T) {
	inv, _, lights := newTestInventory(t)
	inv.AddItem("torch", 2)
	inv.AddItem("key", 1)
	*lights = 0

	if err := inv.Equip("lantern"); err == nil {
		t.Error("Equipping an item not held must fail")
	}
	if err := inv.Equip("torch"); err != nil {
		t.Fatal(err)
	}
	profile, ok := inv.EquippedLight()
	if !ok || profile.Radius != 160 || profile.Color != "#ffaa44" {
		t.Errorf("Unexpected light profile %+v", profile)
	}
	if err := inv.Equip("torch"); err != nil {
		t.Fatal(err)
	}
	if err := inv.Equip("key"); err != nil {
		t.Fatal(err)
	}
	if _, ok := inv.EquippedLight(); ok {
		t.Error("A key is not a light")
	}
	inv.Unequip()
	if *lights != 2 {
		t.Errorf("Expected 2 light events (equip torch, swap to key), got %d", *lights)
	}
}

func TestDroppingLastEquippedItemUnequips(t *testing.T) {
	inv, _, lights := newTestInventory(t)
	inv.AddItem("torch", 2)
	if err := inv.Equip("torch"); err != nil {
		t.Fatal(err)
	}
	*lights = 0

	inv.Drop("torch")
	if inv.EquippedItem() != "torch" {
		t.Error("One torch left, it should stay equipped")
	}
	inv.Drop("torch")
	if inv.EquippedItem() != "" {
		t.Error("Dropping the last torch should unequip it")
	}
	if *lights != 2 {
		t.Errorf("Expected a light event per drop, got %d", *lights)
	}
}

func TestCallbacksMayReadInventory(t *testing.T) {
	inv, _, _ := newTestInventory(t)
	seen := ""
	inv.OnLightChange = func() { seen = inv.Serialize() }
	inv.AddItem("torch", 1)
	if seen != "torch:1" {
		t.Errorf("Expected the callback to observe the new state, got %q", seen)
	}
}

func TestSerialize(t *testing.T) {
	inv, _, _ := newTestInventory(t)
	if got := inv.Serialize(); got != "" {
		t.Errorf("Expected empty encoding, got %q", got)
	}
	inv.AddItem("torch", 3)
	inv.AddItem("key", 1)
	if got := inv.Serialize(); got != "key:1/torch:3" {
		t.Errorf("Unexpected encoding %q", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	inv, _, _ := newTestInventory(t)
	inv.AddItem("torch", 3)
	if err := inv.Equip("torch"); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := inv.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.GetItemCount("torch") != 3 || loaded.EquippedItem() != "torch" {
		t.Errorf("Unexpected loaded inventory %s", loaded.Debug())
	}
}

func TestItemLibraryValidation(t *testing.T) {
	if _, err := ParseItemLibrary([]byte("items:\n  bad:\n    light: {radius: -1}\n")); err == nil {
		t.Error("Expected a negative radius to be rejected")
	}
	lib, err := ParseItemLibrary([]byte(library))
	if err != nil {
		t.Fatal(err)
	}
	if lib.Items["lantern"].Name != "lantern" || !lib.Items["lantern"].EmitsLight() || lib.Items["key"].EmitsLight() {
		t.Error("Unexpected library contents")
	}
}
