package table

import "time"

// emptyTableTimeout is how long a table sits with nobody connected (no
// seated player, no spectator) before it reports itself idle for
// destruction by the registry that owns it.
const emptyTableTimeout = 60 * time.Second

// maybeScheduleCleanup arms the empty-table timer once every seat is
// disconnected and no spectator remains; any subsequent join cancels it.
func (t *Table) maybeScheduleCleanup() {
	if t.connectedCount() > 0 || len(t.spectators) > 0 {
		return
	}
	if t.emptyTimer != nil {
		return
	}
	t.emptyTimer = time.AfterFunc(emptyTableTimeout, func() {
		_ = t.submit(actionTimerFired, 0, "", timerFiredPayload{kind: timerEmptyTable})
	})
}

func (t *Table) cancelEmptyTimer() {
	if t.emptyTimer != nil {
		t.emptyTimer.Stop()
		t.emptyTimer = nil
	}
}
