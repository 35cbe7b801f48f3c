// Package selection keeps the active question consistent with the visible result set.
package selection

import "github.com/dsjohal14/studybank/internal/scope/bank"

// Reconcile returns the active id to use for results.
// "" means no active question.
//
// The active id is kept when it is still in results, otherwise the first
// result wins, and an empty result set clears it.
func Reconcile(active string, results []bank.Question) string {
	if active != "" {
		for _, q := range results {
			if q.ID == active {
				return active
			}
		}
	}
	if len(results) > 0 {
		return results[0].ID
	}
	return ""
}

// Controller owns the active id for interactive callers
type Controller struct {
	active string
}

// NewController creates a controller with an optional initial selection
func NewController(active string) *Controller {
	return &Controller{active: active}
}

// Active returns the current active id and whether one is set
func (c *Controller) Active() (string, bool) {
	return c.active, c.active != ""
}

// Force sets the active id without checking results (list click).
// The next Reconcile keeps it as long as it is visible.
func (c *Controller) Force(id string) {
	c.active = id
}

// Reconcile applies the fallback rule and reports whether the active id changed
func (c *Controller) Reconcile(results []bank.Question) bool {
	next := Reconcile(c.active, results)
	changed := next != c.active
	c.active = next
	return changed
}
