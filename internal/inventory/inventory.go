// Package inventory holds the player's items. Items are stored by name with
// quantities; one item may be equipped, and items carrying a LightProfile
// emit light while equipped.
package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"chosenoffset.com/emberfall/internal/quill"
)

// LightProfile marks an item as a light source
type LightProfile struct {
	Radius     int    `yaml:"radius" json:"radius"` // World pixels
	Color      string `yaml:"color" json:"color"`   // "#rrggbb", empty for the default light color
	Importance int    `yaml:"importance" json:"importance"`
}

// Item represents a single item type
type Item struct {
	Name        string            `yaml:"name" json:"name"`
	DisplayName string            `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Stackable   bool              `yaml:"stackable" json:"stackable"`
	MaxStack    int               `yaml:"max_stack,omitempty" json:"max_stack,omitempty"` // 0 = unlimited
	Light       *LightProfile     `yaml:"light,omitempty" json:"light,omitempty"`
	Properties  map[string]string `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// EmitsLight reports whether the item is a light source
func (it *Item) EmitsLight() bool {
	return it != nil && it.Light != nil && it.Light.Radius > 0
}

// InventorySlot represents an item and its quantity
type InventorySlot struct {
	ItemName string `json:"item_name"`
	Count    int    `json:"count"`
}

// Inventory holds all items for a player
type Inventory struct {
	mu sync.RWMutex

	// Slots maps item name to quantity
	Slots map[string]int `json:"slots"`

	// Equipped is the name of the held item, empty when nothing is held
	Equipped string `json:"equipped,omitempty"`

	// ItemDefinitions provides metadata about items
	ItemDefinitions map[string]*Item `json:"-"`

	// MaxSlots limits total unique item types (0 = unlimited)
	MaxSlots int `json:"max_slots,omitempty"`

	// OnChange is called after any change
	OnChange func() `json:"-"`

	// OnLightChange is called when a light emitting item is picked up,
	// dropped, equipped or unequipped
	OnLightChange func() `json:"-"`
}

type change struct {
	light bool
}

// New creates a new empty inventory
func New() *Inventory {
	return &Inventory{
		Slots:           make(map[string]int),
		ItemDefinitions: make(map[string]*Item),
	}
}

// NewWithCapacity creates a new inventory with a slot limit
func NewWithCapacity(maxSlots int) *Inventory {
	inv := New()
	inv.MaxSlots = maxSlots
	return inv
}

// RegisterItem adds an item definition
func (inv *Inventory) RegisterItem(item *Item) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.ItemDefinitions[item.Name] = item
}

// GetItemDefinition returns the definition for an item, or nil if not defined
func (inv *Inventory) GetItemDefinition(name string) *Item {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.ItemDefinitions[name]
}

// HasItem checks if the inventory contains at least one of the named item
func (inv *Inventory) HasItem(itemName string) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.Slots[itemName] > 0
}

// GetItemCount returns the quantity of an item (0 if not present)
func (inv *Inventory) GetItemCount(itemName string) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.Slots[itemName]
}

// AddItem adds items to the inventory, returns actual amount added
func (inv *Inventory) AddItem(itemName string, count int) int {
	if count <= 0 {
		return 0
	}

	inv.mu.Lock()
	_, exists := inv.Slots[itemName]
	if !exists && inv.MaxSlots > 0 && len(inv.Slots) >= inv.MaxSlots {
		inv.mu.Unlock()
		return 0 // Inventory full
	}

	def := inv.ItemDefinitions[itemName]
	if def != nil && def.MaxStack > 0 {
		if room := def.MaxStack - inv.Slots[itemName]; count > room {
			count = room
		}
	}
	if count <= 0 {
		inv.mu.Unlock()
		return 0
	}
	inv.Slots[itemName] += count
	inv.mu.Unlock()

	inv.notify(change{light: def.EmitsLight()})
	return count
}

// RemoveItem removes items from the inventory, returns true if successful.
// Removing the last equipped item unequips it.
func (inv *Inventory) RemoveItem(itemName string, count int) bool {
	if count <= 0 {
		return true
	}

	inv.mu.Lock()
	current := inv.Slots[itemName]
	if current < count {
		inv.mu.Unlock()
		return false
	}
	inv.Slots[itemName] -= count
	if inv.Slots[itemName] <= 0 {
		delete(inv.Slots, itemName)
		if inv.Equipped == itemName {
			inv.Equipped = ""
		}
	}
	light := inv.ItemDefinitions[itemName].EmitsLight()
	inv.mu.Unlock()

	inv.notify(change{light: light})
	return true
}

// Drop removes one of the named item
func (inv *Inventory) Drop(itemName string) bool {
	return inv.RemoveItem(itemName, 1)
}

// Equip holds the named item. The item must be in the inventory.
func (inv *Inventory) Equip(itemName string) error {
	inv.mu.Lock()
	if inv.Slots[itemName] <= 0 {
		inv.mu.Unlock()
		return fmt.Errorf("cannot equip %s: not in inventory", itemName)
	}
	if inv.Equipped == itemName {
		inv.mu.Unlock()
		return nil
	}
	light := inv.ItemDefinitions[inv.Equipped].EmitsLight() || inv.ItemDefinitions[itemName].EmitsLight()
	inv.Equipped = itemName
	inv.mu.Unlock()

	inv.notify(change{light: light})
	return nil
}

// Unequip empties the player's hands
func (inv *Inventory) Unequip() {
	inv.mu.Lock()
	if inv.Equipped == "" {
		inv.mu.Unlock()
		return
	}
	light := inv.ItemDefinitions[inv.Equipped].EmitsLight()
	inv.Equipped = ""
	inv.mu.Unlock()

	inv.notify(change{light: light})
}

// EquippedItem returns the held item name, empty when nothing is held
func (inv *Inventory) EquippedItem() string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.Equipped
}

// EquippedLight returns the light profile of the held item
func (inv *Inventory) EquippedLight() (*LightProfile, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	def := inv.ItemDefinitions[inv.Equipped]
	if !def.EmitsLight() {
		return nil, false
	}
	return def.Light, true
}

// GetAllItems returns all items and their quantities sorted by name
func (inv *Inventory) GetAllItems() []InventorySlot {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.sortedSlots()
}

func (inv *Inventory) sortedSlots() []InventorySlot {
	result := make([]InventorySlot, 0, len(inv.Slots))
	for name, count := range inv.Slots {
		result = append(result, InventorySlot{ItemName: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ItemName < result[j].ItemName
	})
	return result
}

// Count returns the number of unique item types in the inventory
func (inv *Inventory) Count() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.Slots)
}

// TotalItems returns the total count of all items
func (inv *Inventory) TotalItems() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.totalItems()
}

func (inv *Inventory) totalItems() int {
	total := 0
	for _, count := range inv.Slots {
		total += count
	}
	return total
}

// IsEmpty returns true if the inventory has no items
func (inv *Inventory) IsEmpty() bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.Slots) == 0
}

// IsFull returns true if the inventory cannot accept new item types
func (inv *Inventory) IsFull() bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.MaxSlots > 0 && len(inv.Slots) >= inv.MaxSlots
}

// notify runs the callbacks outside the lock so they may read the inventory.
func (inv *Inventory) notify(c change) {
	if c.light && inv.OnLightChange != nil {
		inv.OnLightChange()
	}
	if inv.OnChange != nil {
		inv.OnChange()
	}
}

// Serialize renders the inventory as a script dict ("name:count/..."),
// sorted by name. This is the value of the "inventory" engine symbol.
func (inv *Inventory) Serialize() string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	slots := inv.sortedSlots()
	keys := make([]string, len(slots))
	values := make(map[string]string, len(slots))
	for i, s := range slots {
		keys[i] = s.ItemName
		values[s.ItemName] = strconv.Itoa(s.Count)
	}
	return quill.EncodeDict(keys, values)
}

// --- Save files ---

// Save writes the inventory to a file
func (inv *Inventory) Save(path string) error {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize inventory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write inventory file: %w", err)
	}
	return nil
}

// Load reads an inventory from a file
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}

	inv := New()
	if err := json.Unmarshal(data, inv); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}
	if inv.Slots == nil {
		inv.Slots = make(map[string]int)
	}
	return inv, nil
}

// Clone creates a copy of the inventory. Item definitions are shared.
func (inv *Inventory) Clone() *Inventory {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	clone := New()
	clone.MaxSlots = inv.MaxSlots
	clone.Equipped = inv.Equipped
	for k, v := range inv.Slots {
		clone.Slots[k] = v
	}
	clone.ItemDefinitions = inv.ItemDefinitions
	return clone
}

// Debug returns a string representation of the inventory
func (inv *Inventory) Debug() string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return fmt.Sprintf("Inventory{%d items, %d total, equipped %q}", len(inv.Slots), inv.totalItems(), inv.Equipped)
}

// --- Item Library ---

// ItemLibrary holds item definitions that can be shared across inventories
type ItemLibrary struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Items       map[string]*Item `yaml:"items"`
}

// LoadItemLibrary loads item definitions from a YAML file
func LoadItemLibrary(path string) (*ItemLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item library: %w", err)
	}
	return ParseItemLibrary(data)
}

// ParseItemLibrary parses item definitions
func ParseItemLibrary(data []byte) (*ItemLibrary, error) {
	var library ItemLibrary
	if err := yaml.Unmarshal(data, &library); err != nil {
		return nil, fmt.Errorf("failed to parse item library: %w", err)
	}
	if library.Items == nil {
		library.Items = make(map[string]*Item)
	}
	for name, item := range library.Items {
		if item == nil {
			return nil, fmt.Errorf("item %s has no definition", name)
		}
		item.Name = name
		if item.Light != nil && item.Light.Radius < 0 {
			return nil, fmt.Errorf("item %s has a negative light radius", name)
		}
	}
	return &library, nil
}

// ApplyToInventory registers all items from the library to an inventory
func (lib *ItemLibrary) ApplyToInventory(inv *Inventory) {
	for _, item := range lib.Items {
		inv.RegisterItem(item)
	}
}
