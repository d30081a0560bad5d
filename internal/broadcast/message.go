package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/pscheid92/sportz/internal/domain"
)

// Message is an outbound frame. The set of implementations is closed to this package.
type Message interface {
	messageType() string
}

type Welcome struct{}

type MatchCreated struct {
	Match domain.Match
}

type CommentaryPosted struct {
	MatchID domain.TopicID
	Comment domain.Commentary
}

type Subscribed struct {
	MatchID domain.TopicID
}

type Unsubscribed struct {
	MatchID domain.TopicID
}

type ErrorMessage struct {
	Detail string
}

func (Welcome) messageType() string          { return "welcome" }
func (MatchCreated) messageType() string     { return "match_created" }
func (CommentaryPosted) messageType() string { return "commentary" }
func (Subscribed) messageType() string       { return "subscribed" }
func (Unsubscribed) messageType() string     { return "unsubscribed" }
func (ErrorMessage) messageType() string     { return "error" }

type frame struct {
	Type    string          `json:"type"`
	MatchID *domain.TopicID `json:"matchId,omitempty"`
	Data    any             `json:"data,omitempty"`
}

func encode(m Message) ([]byte, error) {
	f := frame{Type: m.messageType()}

	switch msg := m.(type) {
	case Welcome:
	case MatchCreated:
		f.Data = msg.Match
	case CommentaryPosted:
		f.Data = msg.Comment
	case Subscribed:
		f.MatchID = &msg.MatchID
	case Unsubscribed:
		f.MatchID = &msg.MatchID
	case ErrorMessage:
		f.Data = msg.Detail
	default:
		return nil, fmt.Errorf("unknown message %T", m)
	}

	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal %s frame: %w", f.Type, err)
	}
	return data, nil
}

// request is an inbound client frame the dispatcher acts on.
type request interface {
	isRequest()
}

type subscribeRequest struct {
	MatchID domain.TopicID
}

type unsubscribeRequest struct {
	MatchID domain.TopicID
}

func (subscribeRequest) isRequest()   {}
func (unsubscribeRequest) isRequest() {}

var errInvalidJSON = errors.New("Invalid JSON") //nolint:staticcheck // sent to clients verbatim

// maxTopicID is the largest integer a JSON number carries exactly.
const maxTopicID = 1<<53 - 1

// parseRequest returns errInvalidJSON for unparsable input. Well-formed JSON
// that is not a recognized request yields (nil, nil).
func parseRequest(data []byte) (request, error) {
	if !json.Valid(data) {
		return nil, errInvalidJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil
	}

	var typ string
	if err := json.Unmarshal(fields["type"], &typ); err != nil {
		return nil, nil
	}

	matchID, ok := parseTopicID(fields["matchId"])
	if !ok {
		return nil, nil
	}

	switch typ {
	case "subscribe":
		return subscribeRequest{MatchID: matchID}, nil
	case "unsubscribe":
		return unsubscribeRequest{MatchID: matchID}, nil
	default:
		return nil, nil
	}
}

// parseTopicID accepts integral JSON numbers only; 7.0 is 7, "7" is rejected.
func parseTopicID(raw json.RawMessage) (domain.TopicID, bool) {
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > maxTopicID {
		return 0, false
	}
	return domain.TopicID(f), true
}
