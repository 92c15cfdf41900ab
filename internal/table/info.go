package table

import "cardtable/internal/engine"

// Info is the lobby-facing projection of a table's state, safe to compute
// only from inside the actor goroutine — Info() round-trips through the
// mailbox like every other query so it never races the actor's mutation
// of seats/spectators/eng.
type Info struct {
	GameType          engine.GameType
	SeatsFilled       int
	InProgress        bool
	Spectatable       bool
	TakeoverSeatsOpen bool
}

type infoPayload struct {
	reply chan Info
}

// Info reports the table's current lobby projection.
func (t *Table) Info() Info {
	reply := make(chan Info, 1)
	if err := t.submit(actionInfo, 0, "", infoPayload{reply: reply}); err != nil {
		return Info{GameType: t.options.GameType}
	}
	return <-reply
}

type seatConnPayload struct {
	seat  engine.Seat
	reply chan seatConnResult
}

type seatConnResult struct {
	connID string
	ok     bool
}

// SeatConn reports the connection id currently bound to seat, if any and
// connected. Used by the transport layer to resolve a seat-addressed Send
// to a concrete socket.
func (t *Table) SeatConn(seat engine.Seat) (string, bool) {
	reply := make(chan seatConnResult, 1)
	if err := t.submit(actionSeatConn, seat, "", seatConnPayload{seat: seat, reply: reply}); err != nil {
		return "", false
	}
	res := <-reply
	return res.connID, res.ok
}

func (t *Table) handleSeatConn(msg actionMsg) error {
	payload := msg.payload.(seatConnPayload)
	slot := t.seats[payload.seat]
	if slot == nil || !slot.Connected {
		payload.reply <- seatConnResult{}
		return nil
	}
	payload.reply <- seatConnResult{connID: slot.ConnID, ok: true}
	return nil
}

func (t *Table) handleInfo(msg actionMsg) error {
	payload := msg.payload.(infoPayload)

	inProgress := t.eng != nil && !t.eng.IsGameOver()
	takeoverOpen := false
	if inProgress {
		for _, slot := range t.seats {
			if slot != nil && !slot.Connected {
				takeoverOpen = true
				break
			}
		}
	}

	payload.reply <- Info{
		GameType:          t.options.GameType,
		SeatsFilled:       t.seatCount(),
		InProgress:        inProgress,
		Spectatable:       inProgress,
		TakeoverSeatsOpen: takeoverOpen,
	}
	return nil
}
