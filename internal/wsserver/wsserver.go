// Package wsserver is the concrete gorilla/websocket transport.Transport
// implementation, and the HTTP layer that upgrades connections and
// dispatches decoded client events into a Table's api.go methods. It is
// the only package that knows about sockets or gin; everything upstream
// of it deals only in Go values.
package wsserver

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cardtable/internal/cards"
	"cardtable/internal/config"
	"cardtable/internal/engine"
	"cardtable/internal/protocol"
	"cardtable/internal/registry"
	"cardtable/internal/table"
	"cardtable/internal/transport"
	"cardtable/internal/wordid"
)

// Hub is one table's connection registry: every socket currently attached
// to that table, addressable either by seat or by connection id, and a
// Transport implementation the Table actor broadcasts through.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*websocket.Conn // connID -> socket
}

func newHub() *Hub {
	return &Hub{conns: make(map[string]*websocket.Conn)}
}

func (h *Hub) register(connID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[connID] = conn
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

func (h *Hub) writeTo(connID string, env protocol.Envelope) error {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return conn.WriteJSON(env)
}

// Send implements transport.Transport. Seat-addressed sends aren't
// resolvable from the Hub alone (it only knows connection ids) —
// seatTransport resolves Target.Seat through the table's SeatConn before
// calling into the Hub, so in practice every Send the Table issues
// reaches this method already carrying a connID. A target with no connID
// is dropped.
func (h *Hub) Send(target transport.Target, eventType protocol.EventType, payload any) error {
	env, err := protocol.Encode(eventType, payload)
	if err != nil {
		return err
	}
	if target.ConnID == "" {
		return nil
	}
	return h.writeTo(target.ConnID, env)
}

func (h *Hub) Broadcast(eventType protocol.EventType, payload any) error {
	env, err := protocol.Encode(eventType, payload)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.conns {
		_ = conn.WriteJSON(env)
	}
	return nil
}

func (h *Hub) BroadcastExcept(except transport.Target, eventType protocol.EventType, payload any) error {
	env, err := protocol.Encode(eventType, payload)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, conn := range h.conns {
		if connID == except.ConnID {
			continue
		}
		_ = conn.WriteJSON(env)
	}
	return nil
}

// seatTransport wraps a Hub and resolves Target.Seat to a connection id by
// asking the table itself, since the Hub only ever stores raw sockets by
// connID and has no notion of seat assignment.
type seatTransport struct {
	hub      *Hub
	seatConn func(seat int) (string, bool)
}

func (s *seatTransport) Send(target transport.Target, eventType protocol.EventType, payload any) error {
	if !target.IsSeat {
		return s.hub.Send(target, eventType, payload)
	}
	connID, ok := s.seatConn(target.Seat)
	if !ok {
		return nil
	}
	return s.hub.Send(transport.Target{ConnID: connID}, eventType, payload)
}

func (s *seatTransport) Broadcast(eventType protocol.EventType, payload any) error {
	return s.hub.Broadcast(eventType, payload)
}

func (s *seatTransport) BroadcastExcept(except transport.Target, eventType protocol.EventType, payload any) error {
	return s.hub.BroadcastExcept(except, eventType, payload)
}

// Server holds every table's Hub and wires gin routes to the registry.
type Server struct {
	cfg      config.Config
	reg      *registry.Registry
	upgrader websocket.Upgrader

	mu   sync.Mutex
	hubs map[string]*Hub
}

// NewServer builds the HTTP/WS layer. Each table's Hub is created lazily
// by the registry's newTransport callback the first time that table is
// created.
func NewServer(cfg config.Config) *Server {
	s := &Server{
		cfg:  cfg,
		hubs: make(map[string]*Hub),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.AllowOrigin(r.Header.Get("Origin"))
		},
	}
	s.reg = registry.New(s.transportFor)
	return s
}

// Registry exposes the server's table registry so main can start the
// idle-table sweeper against it.
func (s *Server) Registry() *registry.Registry {
	return s.reg
}

func (s *Server) transportFor(tableID string) transport.Transport {
	s.mu.Lock()
	hub := newHub()
	s.hubs[tableID] = hub
	s.mu.Unlock()

	return &seatTransport{
		hub: hub,
		seatConn: func(seat int) (string, bool) {
			tbl, ok := s.reg.Get(tableID)
			if !ok {
				return "", false
			}
			return tbl.SeatConn(engine.Seat(seat))
		},
	}
}

// Routes registers every HTTP/WS endpoint onto router.
func (s *Server) Routes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/tables", func(c *gin.Context) {
		filter := registry.ListFilter{
			GameType:    engine.GameType(c.Query("gameType")),
			WaitingOnly: c.Query("waiting") == "true",
		}
		c.JSON(http.StatusOK, gin.H{"tables": s.reg.List(filter)})
	})

	router.POST("/api/tables", func(c *gin.Context) {
		var req protocol.CreateTablePayload
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		opts := table.Options{
			GameType:     engine.GameType(req.GameType),
			EndingScore:  req.Options.EndingScore,
			WinThreshold: req.Options.WinThreshold,
		}
		if req.Options.InitialSelectorSeat != nil {
			opts.InitialSelectorSeat = engine.Seat(*req.Options.InitialSelectorSeat)
		}
		if opts.EndingScore == 0 {
			opts.EndingScore = 100
		}
		if opts.WinThreshold == 0 {
			opts.WinThreshold = 300
		}
		tbl, err := s.reg.CreateTable(opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"tableId": tbl.ID})
	})

	router.GET("/ws/:tableId", s.handleWebSocket)
}

func (s *Server) handleWebSocket(c *gin.Context) {
	tableID := c.Param("tableId")
	tbl, ok := s.reg.Get(tableID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("wsserver: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID, err := wordid.Generate(nil)
	if err != nil {
		log.Printf("wsserver: connID generation failed: %v", err)
		return
	}

	s.mu.Lock()
	hub := s.hubs[tableID]
	s.mu.Unlock()
	if hub == nil {
		return
	}
	hub.register(connID, conn)
	defer hub.unregister(connID)
	defer tbl.Leave(connID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("wsserver: read error on table %s: %v", tableID, err)
			}
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		s.dispatch(tableID, connID, tbl, env)
	}
}

// dispatch decodes one client event and calls the matching Table method.
// A malformed payload or a rejected action is logged and dropped — the
// connection stays open, nothing panics, and the client simply doesn't
// see the state change it asked for.
func (s *Server) dispatch(tableID, connID string, tbl *table.Table, env protocol.Envelope) {
	switch env.Type {
	case protocol.EventJoinTable:
		var p protocol.JoinTablePayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed joinTable from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.Join(connID, p.PlayerName, connID); err != nil {
			log.Printf("wsserver: joinTable rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventLeaveTable:
		if err := tbl.Leave(connID); err != nil {
			log.Printf("wsserver: leaveTable rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventSpectateTable:
		var p protocol.SpectateTablePayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed spectateTable from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.SpectateJoin(connID, p.PlayerName); err != nil {
			log.Printf("wsserver: spectateTable rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventLeaveSpectate:
		if err := tbl.SpectateLeave(connID); err != nil {
			log.Printf("wsserver: leaveSpectate rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventSubmitPass:
		var p protocol.SubmitPassPayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed submitPass from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.SubmitPass(connID, p.Cards); err != nil {
			log.Printf("wsserver: submitPass rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventSelectContract:
		var p protocol.SelectContractPayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed selectContract from %s on table %s", connID, tableID)
			return
		}
		contract := decodeContract(p)
		if contract == nil {
			log.Printf("wsserver: unrecognized contract from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.SelectContract(connID, contract); err != nil {
			log.Printf("wsserver: selectContract rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventSubmitBid:
		var p protocol.SubmitBidPayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed submitBid from %s on table %s", connID, tableID)
			return
		}
		bid := decodeBid(p.Bid)
		if bid == nil {
			log.Printf("wsserver: unrecognized bid from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.SubmitBidAction(connID, bid); err != nil {
			log.Printf("wsserver: submitBid rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventPlayCard:
		var p protocol.PlayCardPayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed playCard from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.PlayCardAction(connID, p.Card); err != nil {
			log.Printf("wsserver: playCard rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventRematch:
		var p protocol.RematchPayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed rematch from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.VoteRematch(connID, p.Vote); err != nil {
			log.Printf("wsserver: rematch vote rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventChatMessage:
		var p protocol.ChatMessagePayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed chatMessage from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.SendChat(connID, p.Text); err != nil {
			log.Printf("wsserver: chat rejected for %s on table %s: %v", connID, tableID, err)
		}

	case protocol.EventTyping:
		var p protocol.TypingPayload
		if env.Decode(&p) != nil {
			log.Printf("wsserver: malformed typing from %s on table %s", connID, tableID)
			return
		}
		if err := tbl.SetTyping(connID, p.IsTyping); err != nil {
			log.Printf("wsserver: typing rejected for %s on table %s: %v", connID, tableID, err)
		}

	default:
		log.Printf("wsserver: unknown event type %q from %s on table %s", env.Type, connID, tableID)
	}
}

func decodeContract(p protocol.SelectContractPayload) engine.Contract {
	switch p.ContractType {
	case "penalty":
		return engine.PenaltyContract{Name: engine.PenaltyName(p.ContractName)}
	case "trump":
		suit, err := cards.ParseSuit(p.TrumpSuit)
		if err != nil {
			return nil
		}
		return engine.TrumpContract{Suit: suit}
	default:
		return nil
	}
}

func decodeBid(raw json.RawMessage) engine.Bid {
	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		switch asString {
		case "nil":
			return engine.BidNil{}
		case "blind_nil":
			return engine.BidBlindNil{}
		default:
			return nil
		}
	}
	var asNumber int
	if json.Unmarshal(raw, &asNumber) == nil {
		return engine.BidNumber(asNumber)
	}
	return nil
}
