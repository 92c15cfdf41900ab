// Package registry tracks every live table a server process hosts: table
// creation and lookup by id, listing for the lobby (filtered by game type,
// waiting-for-seat, spectatable, or takeover-eligible), and a periodic
// sweep that destroys tables the table package itself reported idle. A
// sync.RWMutex-guarded map behind a small typed surface, generalized from
// single-engine construction to whole-table lifecycle management.
package registry

import (
	"fmt"
	"log"
	"sync"
	"time"

	"cardtable/internal/engine"
	"cardtable/internal/table"
	"cardtable/internal/transport"
	"cardtable/internal/wordid"
)

// Registry owns every table a process hosts.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*entry

	newTransport func(tableID string) transport.Transport
}

type entry struct {
	table *table.Table
	idle  bool
}

// New constructs an empty registry. newTransport builds the concrete
// transport a freshly created table will broadcast through — typically
// wsserver's seat-resolving wrapper around a Hub scoped to that table id.
func New(newTransport func(tableID string) transport.Transport) *Registry {
	return &Registry{
		tables:       make(map[string]*entry),
		newTransport: newTransport,
	}
}

// CreateTable allocates a fresh word-id, constructs its Table actor, starts
// it, and registers it.
func (r *Registry) CreateTable(opts table.Options) (*table.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := wordid.Generate(func(candidate string) bool {
		_, taken := r.tables[candidate]
		return taken
	})
	if err != nil {
		return nil, fmt.Errorf("registry: generate table id: %w", err)
	}

	tr := r.newTransport(id)
	tbl := table.New(id, opts, tr, r.markIdle)
	tbl.Start()
	r.tables[id] = &entry{table: tbl}
	log.Printf("registry: created table %s (gameType=%s)", id, opts.GameType)
	return tbl, nil
}

// Get looks up a table by id.
func (r *Registry) Get(id string) (*table.Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tables[id]
	if !ok {
		return nil, false
	}
	return e.table, true
}

// ListFilter narrows List's results; a zero-value ListFilter matches
// every table.
type ListFilter struct {
	GameType          engine.GameType
	WaitingOnly       bool
	SpectatableOnly   bool
	TakeoverSeatsOnly bool
}

// TableInfo is the lobby-facing projection of one table.
type TableInfo struct {
	TableID           string
	GameType          engine.GameType
	SeatsFilled       int
	InProgress        bool
	Spectatable       bool
	TakeoverSeatsOpen bool
}

// List returns the tables matching filter, for the lobby listing. It
// snapshots the id->table map under the lock and releases it before
// calling Info() on each table, since Info() round-trips through that
// table's actor mailbox and must never be called while holding r.mu —
// an actor blocked sending markIdle (which itself takes r.mu) would
// otherwise deadlock against this call, and every other registry
// operation with it.
func (r *Registry) List(filter ListFilter) []TableInfo {
	r.mu.RLock()
	snapshot := make(map[string]*table.Table, len(r.tables))
	for id, e := range r.tables {
		snapshot[id] = e.table
	}
	r.mu.RUnlock()

	var out []TableInfo
	for id, tbl := range snapshot {
		info := tbl.Info()
		if filter.GameType != "" && info.GameType != filter.GameType {
			continue
		}
		if filter.WaitingOnly && info.SeatsFilled >= 4 {
			continue
		}
		if filter.SpectatableOnly && !info.InProgress {
			continue
		}
		if filter.TakeoverSeatsOnly && !info.TakeoverSeatsOpen {
			continue
		}
		out = append(out, TableInfo{
			TableID:           id,
			GameType:          info.GameType,
			SeatsFilled:       info.SeatsFilled,
			InProgress:        info.InProgress,
			Spectatable:       info.Spectatable,
			TakeoverSeatsOpen: info.TakeoverSeatsOpen,
		})
	}
	return out
}

// markIdle is the table package's onIdle callback: it flags the table for
// destruction on the next sweep rather than destroying it inline, since
// it's invoked from inside the table's own actor goroutine.
func (r *Registry) markIdle(tableID string, idle bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.tables[tableID]; ok {
		e.idle = idle
		log.Printf("registry: table %s marked idle=%v", tableID, idle)
	}
}

// RunSweep destroys every table currently flagged idle. Call on an
// interval of at least a minute — idle tables only need to disappear
// eventually, not instantly. Idle tables are removed from the map before
// Stop() is called on them, outside the lock — Stop() waits for the
// actor goroutine to drain, which can take as long as that table's
// longest in-flight round-end delay, and must never run while r.mu is
// held.
func (r *Registry) RunSweep() {
	r.mu.Lock()
	var toStop []*table.Table
	for id, e := range r.tables {
		if !e.idle {
			continue
		}
		toStop = append(toStop, e.table)
		delete(r.tables, id)
	}
	r.mu.Unlock()

	for _, tbl := range toStop {
		tbl.Stop()
		log.Printf("registry: destroyed idle table %s", tbl.ID)
	}
}

// StartSweeper launches a goroutine that calls RunSweep every interval
// until stop is closed.
func (r *Registry) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.RunSweep()
			}
		}
	}()
}
