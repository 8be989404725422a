// Package viewsync implements the keyed enter/update/exit diff that lets
// independently rendered views update incrementally and animate continuously
// across data refreshes.
package viewsync

// Geometry is the rendered placement of one keyed item. Views interpret the
// fields as their layout demands (treemap rect, scatter point, graph node).
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transition is one keyed item's animation step: interpolate From → To.
type Transition struct {
	Key  string   `json:"key"`
	From Geometry `json:"from"`
	To   Geometry `json:"to"`
}

// Diff partitions a refresh into the three keyed sets. No ordering is
// guaranteed across keys within one diff, and one key's transition never
// depends on another's.
type Diff struct {
	Enter  []Transition `json:"enter"`
	Update []Transition `json:"update"`
	Exit   []Transition `json:"exit"`
}

// Engine diffs successive keyed geometry sets for a single view. Its only
// state is the per-key geometry cache, which survives refreshes within one
// dashboard session. Engine is not safe for concurrent use; the dashboard
// mutates it from a single logical thread.
type Engine struct {
	cache map[string]Geometry
}

// NewEngine returns an engine with an empty geometry cache.
func NewEngine() *Engine {
	return &Engine{cache: map[string]Geometry{}}
}

// Apply diffs the new keyed geometry set against the previous one and
// advances the cache. Entering items start from the zero geometry; updating
// items start from their last cached geometry, even when the key's semantic
// type changed between refreshes (a path that was a file and became a
// directory is still an update, deliberately). Exiting items head toward the
// zero geometry and are dropped from the cache.
func (e *Engine) Apply(next map[string]Geometry) Diff {
	var diff Diff

	for key, to := range next {
		from, ok := e.cache[key]
		if !ok {
			diff.Enter = append(diff.Enter, Transition{Key: key, To: to})

			continue
		}

		diff.Update = append(diff.Update, Transition{Key: key, From: from, To: to})
	}

	for key, from := range e.cache {
		if _, ok := next[key]; !ok {
			diff.Exit = append(diff.Exit, Transition{Key: key, From: from})
		}
	}

	e.cache = make(map[string]Geometry, len(next))
	for key, geo := range next {
		e.cache[key] = geo
	}

	return diff
}

// Cached returns the last geometry stored for the key.
func (e *Engine) Cached(key string) (Geometry, bool) {
	geo, ok := e.cache[key]

	return geo, ok
}

// Len returns the number of cached keys.
func (e *Engine) Len() int {
	return len(e.cache)
}

// Reset clears the geometry cache. Called when a new analysis session
// starts, so no geometry leaks across datasets.
func (e *Engine) Reset() {
	e.cache = map[string]Geometry{}
}
