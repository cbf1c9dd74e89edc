package toolbar

import "time"

// SetClock replaces the clock used by the add-textbox guard.
func (t *Toolbar) SetClock(now func() time.Time) { t.now = now }
