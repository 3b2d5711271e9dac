package command

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"chosenoffset.com/emberfall/internal/core/gamestate"
	"chosenoffset.com/emberfall/internal/inventory"
	"chosenoffset.com/emberfall/internal/world/maploader"
)

// Host is the game side of the game commands
type Host interface {
	Teleport(x, y int) error
	LoadLevel(name string) error
	UnloadLevel(name string) error
	ReadLevel(name string) (string, error)
	Levels() ([]string, error)
	Give(item string, count int) (int, error)
	PlayerInventory() *inventory.Inventory
	Notify(text string)
	State() *gamestate.GameState
	SetLight(name string, x, y, radius int, col color.NRGBA, importance int)
	RemoveLight(name string) bool
}

// RegisterGameCommands installs the game's commands on r
func RegisterGameCommands(r *Registry, h Host) {
	r.Register("teleport", "teleport <x> <y>", 2, func(c *Context) (string, error) {
		x, err := c.Int(0)
		if err != nil {
			return "", err
		}
		y, err := c.Int(1)
		if err != nil {
			return "", err
		}
		if err := h.Teleport(x, y); err != nil {
			return "", err
		}
		return fmt.Sprintf("teleported to %d,%d", x, y), nil
	})

	r.Register("loadlevel", "loadlevel <name>", 1, func(c *Context) (string, error) {
		return "", h.LoadLevel(c.Args[0])
	})
	r.Register("unloadlevel", "unloadlevel <name>", 1, func(c *Context) (string, error) {
		return "", h.UnloadLevel(c.Args[0])
	})
	r.Register("readlevel", "readlevel <name>", 1, func(c *Context) (string, error) {
		return h.ReadLevel(c.Args[0])
	})

	r.Register("levels", "levels", 0, func(c *Context) (string, error) {
		names, err := h.Levels()
		if err != nil {
			return "", err
		}
		return strings.Join(names, ";"), nil
	})

	r.Register("give", "give <item> [count]", 1, func(c *Context) (string, error) {
		count := 1
		if len(c.Args) > 1 {
			n, err := c.Int(1)
			if err != nil {
				return "", err
			}
			count = n
		}
		if count < 1 {
			return "", fmt.Errorf("give: count must be positive")
		}
		added, err := h.Give(c.Args[0], count)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(added), nil
	})

	r.Register("has", "has <item>", 1, func(c *Context) (string, error) {
		return strconv.FormatBool(h.PlayerInventory().HasItem(c.Args[0])), nil
	})
	r.Register("count", "count <item>", 1, func(c *Context) (string, error) {
		return strconv.Itoa(h.PlayerInventory().GetItemCount(c.Args[0])), nil
	})
	r.Register("take", "take <item> [count]", 1, func(c *Context) (string, error) {
		count := 1
		if len(c.Args) > 1 {
			n, err := c.Int(1)
			if err != nil {
				return "", err
			}
			count = n
		}
		if count < 1 {
			return "", fmt.Errorf("take: count must be positive")
		}
		if !h.PlayerInventory().RemoveItem(c.Args[0], count) {
			return "", fmt.Errorf("take: not enough %s", c.Args[0])
		}
		return strconv.Itoa(count), nil
	})
	r.Register("drop", "drop <item>", 1, func(c *Context) (string, error) {
		if !h.PlayerInventory().Drop(c.Args[0]) {
			return "", fmt.Errorf("drop: no %s carried", c.Args[0])
		}
		return "", nil
	})

	r.Register("notif", "notif <text>", 1, func(c *Context) (string, error) {
		h.Notify(c.Rest)
		return "", nil
	})

	r.Register("echo", "echo <text>", 0, func(c *Context) (string, error) {
		return c.Rest, nil
	})

	r.Register("flag", "flag <name> [on|off|toggle]", 1, func(c *Context) (string, error) {
		gs, name := h.State(), c.Args[0]
		if len(c.Args) > 1 {
			switch strings.ToLower(c.Args[1]) {
			case "on", "true", "1":
				gs.SetFlag(name, true)
			case "off", "false", "0":
				gs.SetFlag(name, false)
			case "toggle":
				gs.ToggleFlag(name)
			default:
				return "", fmt.Errorf("flag: unknown value %q", c.Args[1])
			}
		}
		return strconv.FormatBool(gs.GetFlag(name)), nil
	})

	r.Register("counter", "counter <name> [+n|-n|=n]", 1, func(c *Context) (string, error) {
		gs, name := h.State(), c.Args[0]
		if len(c.Args) > 1 {
			op := c.Args[1]
			set := strings.HasPrefix(op, "=")
			n, err := strconv.Atoi(strings.TrimPrefix(op, "="))
			if err != nil {
				return "", fmt.Errorf("counter: invalid amount %q", op)
			}
			if set {
				gs.SetCounter(name, n)
			} else {
				gs.IncrementCounter(name, n)
			}
		}
		return strconv.Itoa(gs.GetCounter(name)), nil
	})

	r.Register("setstring", "setstring <name> <text>", 1, func(c *Context) (string, error) {
		value := strings.TrimSpace(strings.TrimPrefix(c.Rest, c.Args[0]))
		h.State().SetString(c.Args[0], value)
		return value, nil
	})
	r.Register("getstring", "getstring <name>", 1, func(c *Context) (string, error) {
		return h.State().GetString(c.Args[0]), nil
	})

	r.Register("light", "light set <name> <tile_x> <tile_y> <radius> [#color] [importance] | light remove <name>", 2,
		func(c *Context) (string, error) {
			name := c.Args[1]
			switch strings.ToLower(c.Args[0]) {
			case "remove":
				if !h.RemoveLight(name) {
					return "", fmt.Errorf("light: no light named %s", name)
				}
				return "", nil
			case "set":
				return "", setLight(c, h, name)
			}
			return "", fmt.Errorf("light: unknown action %q", c.Args[0])
		})
}

func setLight(c *Context, h Host, name string) error {
	if len(c.Args) < 5 {
		return fmt.Errorf("usage: light set <name> <tile_x> <tile_y> <radius> [#color] [importance]")
	}
	var nums [3]int
	for i := range nums {
		n, err := c.Int(i + 2)
		if err != nil {
			return err
		}
		nums[i] = n
	}
	if nums[2] < 0 {
		return fmt.Errorf("light: radius must not be negative")
	}
	col := color.NRGBA{255, 200, 100, 255}
	importance := 0
	for _, extra := range c.Args[5:] {
		if strings.HasPrefix(extra, "#") {
			parsed, err := maploader.ParseHexColor(extra)
			if err != nil {
				return err
			}
			col = parsed
			continue
		}
		n, err := strconv.Atoi(extra)
		if err != nil {
			return fmt.Errorf("light: invalid importance %q", extra)
		}
		importance = n
	}
	h.SetLight(name, nums[0], nums[1], nums[2], col, importance)
	return nil
}
