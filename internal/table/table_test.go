package table

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardtable/internal/cards"
	"cardtable/internal/engine"
	"cardtable/internal/protocol"
	"cardtable/internal/transport"
)

// fakeTransport records every send for assertions without touching a
// socket.
type fakeTransport struct {
	mu   sync.Mutex
	sent []sentMsg
}

type sentMsg struct {
	target  transport.Target
	event   protocol.EventType
	payload any
}

func (f *fakeTransport) Send(target transport.Target, eventType protocol.EventType, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{target: target, event: eventType, payload: payload})
	return nil
}

func (f *fakeTransport) Broadcast(eventType protocol.EventType, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMsg{event: eventType, payload: payload})
	return nil
}

func (f *fakeTransport) BroadcastExcept(except transport.Target, eventType protocol.EventType, payload any) error {
	return f.Broadcast(eventType, payload)
}

func (f *fakeTransport) events() []protocol.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.EventType, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.event
	}
	return out
}

func (f *fakeTransport) lastPayload(eventType protocol.EventType) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].event == eventType {
			return f.sent[i].payload
		}
	}
	return nil
}

func newTestTable(t *testing.T, gameType engine.GameType) (*Table, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	tbl := New("test-table", Options{GameType: gameType, EndingScore: 100, WinThreshold: 300}, tr, func(string, bool) {})
	tbl.Start()
	t.Cleanup(tbl.Stop)
	return tbl, tr
}

func seatAllFour(t *testing.T, tbl *Table) {
	t.Helper()
	for i := 0; i < 4; i++ {
		connID := string(rune('a' + i))
		require.NoError(t, tbl.Join(connID, connID, connID))
	}
}

func TestJoinFillsSeatsAndStartsGameAtFour(t *testing.T) {
	tbl, tr := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)

	info := tbl.Info()
	assert.Equal(t, 4, info.SeatsFilled)
	assert.True(t, info.InProgress)
	assert.Contains(t, tr.events(), protocol.EventStartGame)
}

func TestJoinRejectsAFullTable(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)
	err := tbl.Join("e", "e", "e")
	assert.Error(t, err)
}

func TestReconnectByPlayerIDRebindsSeat(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)

	require.NoError(t, tbl.Leave("a"))
	info := tbl.Info()
	assert.Equal(t, 4, info.SeatsFilled)

	require.NoError(t, tbl.Join("a", "a", "a-new-conn"))
	connID, ok := tbl.SeatConn(0)
	assert.True(t, ok)
	assert.Equal(t, "a-new-conn", connID)
}

func TestLeaveThenNewPlayerTakesOverDisconnectedSeat(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)

	require.NoError(t, tbl.Leave("a"))
	require.NoError(t, tbl.Join("intruder", "intruder", "intruder-conn"))

	connID, ok := tbl.SeatConn(0)
	assert.True(t, ok)
	assert.Equal(t, "intruder-conn", connID)
}

func TestSeatConnReportsFalseWhenDisconnected(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)
	require.NoError(t, tbl.Leave("b"))

	_, ok := tbl.SeatConn(1)
	assert.False(t, ok)
}

func TestSendChatRequiresASeat(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	err := tbl.SendChat("stranger", "hello")
	assert.Error(t, err)
}

func TestSendChatBroadcastsSanitizedText(t *testing.T) {
	tbl, tr := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)

	require.NoError(t, tbl.SendChat("a", "hi <script>there</script>"))
	assert.Contains(t, tr.events(), protocol.EventChat)
}

func TestSendChatRejectsMessageThatSanitizesToEmpty(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)

	err := tbl.SendChat("a", "<<<>>>")
	assert.Error(t, err)
}

func TestInfoReportsTakeoverOpenWhileASeatIsDisconnected(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)

	require.NoError(t, tbl.Leave("c"))
	info := tbl.Info()
	assert.True(t, info.TakeoverSeatsOpen)
}

func TestPlayCardBeforeTableIsFullReturnsErrorInsteadOfPanicking(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	require.NoError(t, tbl.Join("a", "a", "a"))
	require.NoError(t, tbl.Join("b", "b", "b"))

	assert.NotPanics(t, func() {
		err := tbl.PlayCardAction("a", cards.New(cards.Two, cards.Clubs))
		assert.Error(t, err)
	})
}

func TestSubmitBidBroadcastsCurrentBidsTable(t *testing.T) {
	tbl, tr := newTestTable(t, engine.GameSpades)
	seatAllFour(t, tbl)

	require.NoError(t, tbl.SubmitBidAction("a", engine.BidNumber(3)))

	payload, ok := tr.lastPayload(protocol.EventBidSubmitted).(protocol.BidSubmittedPayload)
	require.True(t, ok)
	require.Len(t, payload.Bids, 4)
	assert.Equal(t, engine.BidNumber(3), payload.Bids[0])
	assert.Nil(t, payload.Bids[1])
}

func TestVoteRematchRejectedWhileGameInProgress(t *testing.T) {
	tbl, _ := newTestTable(t, engine.GameHearts)
	seatAllFour(t, tbl)

	err := tbl.VoteRematch("a", true)
	assert.Error(t, err)
}
