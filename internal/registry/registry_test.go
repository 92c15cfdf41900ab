package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardtable/internal/engine"
	"cardtable/internal/protocol"
	"cardtable/internal/table"
	"cardtable/internal/transport"
)

type noopTransport struct{}

func (noopTransport) Send(transport.Target, protocol.EventType, any) error { return nil }
func (noopTransport) Broadcast(protocol.EventType, any) error              { return nil }
func (noopTransport) BroadcastExcept(transport.Target, protocol.EventType, any) error {
	return nil
}

func newTestRegistry() *Registry {
	return New(func(string) transport.Transport { return noopTransport{} })
}

func TestCreateTableAssignsAWordIDAndStartsTheActor(t *testing.T) {
	r := newTestRegistry()
	tbl, err := r.CreateTable(table.Options{GameType: engine.GameHearts, EndingScore: 100})
	require.NoError(t, err)
	t.Cleanup(tbl.Stop)

	assert.NotEmpty(t, tbl.ID)
	got, ok := r.Get(tbl.ID)
	assert.True(t, ok)
	assert.Same(t, tbl, got)
}

func TestGetReportsFalseForUnknownID(t *testing.T) {
	r := newTestRegistry()
	_, ok := r.Get("nonexistent-table")
	assert.False(t, ok)
}

func TestListFiltersByGameTypeAndWaiting(t *testing.T) {
	r := newTestRegistry()
	hearts, err := r.CreateTable(table.Options{GameType: engine.GameHearts, EndingScore: 100})
	require.NoError(t, err)
	t.Cleanup(hearts.Stop)

	spades, err := r.CreateTable(table.Options{GameType: engine.GameSpades, WinThreshold: 300})
	require.NoError(t, err)
	t.Cleanup(spades.Stop)

	all := r.List(ListFilter{})
	assert.Len(t, all, 2)

	heartsOnly := r.List(ListFilter{GameType: engine.GameHearts})
	require.Len(t, heartsOnly, 1)
	assert.Equal(t, hearts.ID, heartsOnly[0].TableID)

	waiting := r.List(ListFilter{WaitingOnly: true})
	assert.Len(t, waiting, 2)
}

func TestRunSweepDestroysOnlyTablesMarkedIdle(t *testing.T) {
	r := newTestRegistry()
	tbl, err := r.CreateTable(table.Options{GameType: engine.GameHearts, EndingScore: 100})
	require.NoError(t, err)

	r.markIdle(tbl.ID, true)
	r.RunSweep()

	_, ok := r.Get(tbl.ID)
	assert.False(t, ok)
}

func TestRunSweepLeavesNonIdleTablesAlone(t *testing.T) {
	r := newTestRegistry()
	tbl, err := r.CreateTable(table.Options{GameType: engine.GameHearts, EndingScore: 100})
	require.NoError(t, err)
	t.Cleanup(tbl.Stop)

	r.RunSweep()

	_, ok := r.Get(tbl.ID)
	assert.True(t, ok)
}

// TestListDoesNotDeadlockAgainstConcurrentMarkIdle guards against List
// holding r.mu while round-tripping through a table's actor mailbox: if it
// did, a markIdle call arriving from that table's own actor goroutine
// while List is iterating would deadlock every subsequent registry call.
func TestListDoesNotDeadlockAgainstConcurrentMarkIdle(t *testing.T) {
	r := newTestRegistry()
	tbl, err := r.CreateTable(table.Options{GameType: engine.GameHearts, EndingScore: 100})
	require.NoError(t, err)
	t.Cleanup(tbl.Stop)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			r.markIdle(tbl.ID, i%2 == 0)
		}
		close(done)
	}()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			r.List(ListFilter{})
		}
		close(finished)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("markIdle loop did not complete: possible deadlock")
	}
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("List loop did not complete: possible deadlock")
	}
}

func TestStartSweeperStopsOnSignal(t *testing.T) {
	r := newTestRegistry()
	stop := make(chan struct{})
	r.StartSweeper(5*time.Millisecond, stop)
	close(stop)
	time.Sleep(10 * time.Millisecond)
}
