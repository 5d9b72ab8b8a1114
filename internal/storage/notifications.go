package storage

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	go_json "github.com/goccy/go-json"
)

type Type string

const (
	TypeGeneral        Type = "general"
	TypeEventDeleted   Type = "event_deleted"
	TypeEventConfirmed Type = "event_confirmed"
	TypeEventReminder  Type = "event_reminder"
	TypeTest           Type = "test"
)

// ID is an opaque identifier. The backend may send ids as JSON strings or
// numbers. Integral numbers decode to their plain decimal string, so 100, 1e2
// and 100.0 are the same ID; other numbers are kept as written.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := go_json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	var n go_json.Number
	if err := go_json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}
	*id = ID(canonicalNumber(n.String()))
	return nil
}

const (
	maxNumberLen   = 128
	maxNumberShift = 100
)

func canonicalNumber(s string) string {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if len(s) > maxNumberLen {
		return s
	}
	// bound the exponent so big.Rat never expands something like 1e999999999
	if e := strings.IndexAny(s, "eE"); e >= 0 {
		shift, err := strconv.Atoi(s[e+1:])
		if err != nil || shift > maxNumberShift || shift < -maxNumberShift {
			return s
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return s
	}
	return r.Num().String()
}

type Notification struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      Type   `json:"type"`
	Timestamp string `json:"timestamp"`
	Read      bool   `json:"read"`
	UserID    ID     `json:"userId,omitempty"`
}

// NewTimestamp formats t the way the backend stamps notifications, so that
// lexical order matches chronological order.
func NewTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

// CountUnread returns the number of notifications with Read == false.
func CountUnread(notifications []Notification) int {
	var count int
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

func sortByTimestamp(notifications []Notification) {
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].Timestamp < notifications[j].Timestamp
	})
}
