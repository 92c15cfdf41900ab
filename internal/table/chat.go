package table

import (
	"log"
	"strings"
	"time"
	"unicode"

	"cardtable/internal/protocol"
)

const (
	chatMaxLen     = 140
	typingLifetime = 2500 * time.Millisecond
)

// turkishLetters covers the letters Turkish adds beyond ASCII, allowed in
// chat text alongside Unicode letters/digits and basic punctuation.
var turkishLetters = map[rune]bool{
	'ç': true, 'Ç': true, 'ğ': true, 'Ğ': true, 'ı': true, 'İ': true,
	'ö': true, 'Ö': true, 'ş': true, 'Ş': true, 'ü': true, 'Ü': true,
}

func isAllowedChatRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	if turkishLetters[r] {
		return true
	}
	switch r {
	case '.', ',', '!', '?', ':', ';', '\'', '"', '-', '(', ')':
		return true
	}
	return false
}

func sanitizeChat(text string) string {
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > chatMaxLen {
		text = string(runes[:chatMaxLen])
	}
	var b strings.Builder
	for _, r := range text {
		if isAllowedChatRune(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func (t *Table) handleChat(msg actionMsg) error {
	seat, ok := t.seatByConn(msg.connID)
	if !ok {
		log.Printf("table %s: chat dropped: unknown connection", t.ID)
		return newTableError("seat not found")
	}
	text := sanitizeChat(msg.payload.(string))
	if text == "" {
		log.Printf("table %s: chat from seat %d dropped: empty after sanitizing", t.ID, seat)
		return newTableError("empty message")
	}
	name := t.seats[seat].Name
	t.broadcast(protocol.EventChat, protocol.ChatPayload{
		From:      name,
		Seat:      int(seat),
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
	return nil
}

func (t *Table) handleTyping(msg actionMsg) error {
	if _, ok := t.seatByConn(msg.connID); !ok {
		return newTableError("seat not found")
	}
	isTyping := msg.payload.(bool)
	if isTyping {
		t.typingUntil[msg.connID] = time.Now().Add(typingLifetime)
		time.AfterFunc(typingLifetime, func() {
			_ = t.submit(actionTimerFired, 0, "", timerFiredPayload{kind: timerTypingExpire})
		})
	} else {
		delete(t.typingUntil, msg.connID)
	}
	t.broadcastTyping(msg.connID)
	return nil
}

// broadcastTyping reports the current typing list to everyone except the
// connection whose typing state just changed. Entries past their
// typingLifetime are dropped here, and also independently by a sweep timer
// armed on every typing-start so the list still clears even if no one else
// sends another typing event to trigger recomputation.
func (t *Table) broadcastTyping(exclude string) {
	now := time.Now()
	var typing []int
	for connID, until := range t.typingUntil {
		if now.After(until) {
			delete(t.typingUntil, connID)
			continue
		}
		if seat, ok := t.seatByConn(connID); ok {
			typing = append(typing, int(seat))
		}
	}
	if exclude == "" {
		t.broadcast(protocol.EventTypingUpdate, protocol.TypingUpdatePayload{Players: typing})
		return
	}
	t.broadcastExcept(exclude, protocol.EventTypingUpdate, protocol.TypingUpdatePayload{Players: typing})
}
