package lighting

import (
	"image"
	"sort"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/logging"
)

// DefaultRegistryLimit is the registry size above which SetLight warns.
const DefaultRegistryLimit = 64

// Registry stores named lights and keeps them ranked by importance.
// Ranking happens on every mutation so per-frame reads stay cheap.
type Registry struct {
	lights map[string]RadialLight
	ranked []Named
	limit  int
	log    *zap.Logger
}

// NewRegistry creates an empty registry. A limit <= 0 uses DefaultRegistryLimit.
func NewRegistry(limit int, log *zap.Logger) *Registry {
	if limit <= 0 {
		limit = DefaultRegistryLimit
	}
	return &Registry{
		lights: make(map[string]RadialLight),
		limit:  limit,
		log:    logging.OrNop(log).Named("lights"),
	}
}

// SetLight inserts or replaces a light and re-ranks the registry.
// It returns false when the stored light was already identical.
func (r *Registry) SetLight(name string, light RadialLight) bool {
	old, ok := r.lights[name]
	changed := !ok || old != light
	if changed {
		r.lights[name] = light
	}
	if len(r.lights) > r.limit {
		r.log.Warn("light registry above limit",
			zap.String("light", name),
			zap.Int("count", len(r.lights)),
			zap.Int("limit", r.limit))
	}
	if !changed {
		return false
	}
	r.rerank()
	return true
}

// RemoveLight deletes a light. It returns false if the name was unknown.
func (r *Registry) RemoveLight(name string) bool {
	if _, ok := r.lights[name]; !ok {
		return false
	}
	delete(r.lights, name)
	r.rerank()
	return true
}

// Clear removes every light (called when loading a new level).
func (r *Registry) Clear() {
	r.lights = make(map[string]RadialLight)
	r.ranked = r.ranked[:0]
}

// Get returns the light registered under name.
func (r *Registry) Get(name string) (RadialLight, bool) {
	l, ok := r.lights[name]
	return l, ok
}

// Len returns the number of registered lights.
func (r *Registry) Len() int {
	return len(r.lights)
}

// All returns every light in rank order.
func (r *Registry) All() []Named {
	out := make([]Named, len(r.ranked))
	copy(out, r.ranked)
	return out
}

// GetRankedVisible returns up to maxCount lights overlapping the viewport,
// most important first. A light outside the viewport is never returned,
// however important it is.
func (r *Registry) GetRankedVisible(viewport image.Rectangle, maxCount int) []Named {
	if maxCount <= 0 || viewport.Empty() {
		return nil
	}
	var out []Named
	for _, n := range r.ranked {
		if !n.Light.Intersects(viewport) {
			continue
		}
		out = append(out, n)
		if len(out) == maxCount {
			break
		}
	}
	return out
}

func (r *Registry) rerank() {
	r.ranked = r.ranked[:0]
	for name, light := range r.lights {
		r.ranked = append(r.ranked, Named{Name: name, Light: light})
	}
	sort.Slice(r.ranked, func(i, j int) bool {
		a, b := r.ranked[i], r.ranked[j]
		if a.Light.Importance != b.Light.Importance {
			return a.Light.Importance > b.Light.Importance
		}
		return a.Name < b.Name
	})
}
