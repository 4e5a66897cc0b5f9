package amfx

import (
	"sort"

	"github.com/torresjeff/amf"
	"github.com/torresjeff/amf/rand"
)

const RemotingMessageClass = "flex.messaging.messages.RemotingMessage"

// RemotingMessage is a Flex remoting call.
type RemotingMessage struct {
	Body        amf.Value
	ClientID    string
	Destination string
	Headers     map[string]string
	MessageID   string
	Operation   string
	Timestamp   int64
	TimeToLive  int64
}

// NewRemotingMessage builds a call of operation on destination whose message id carries tid.
func NewRemotingMessage(tid uint32, destination, operation string, args ...amf.Value) (*RemotingMessage, error) {
	id, err := GenerateFlexUID(tid)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []amf.Value{}
	}
	return &RemotingMessage{
		Body:        amf.NewArray(args...),
		ClientID:    rand.GenerateUpperUuid(),
		Destination: destination,
		Headers:     map[string]string{"DSId": "nil"},
		MessageID:   id,
		Operation:   operation,
	}, nil
}

// Value returns m as a typed object. Headers are written in key order.
func (m *RemotingMessage) Value() *amf.Object {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := amf.NewObject()
	for _, k := range keys {
		headers.Set(k, amf.String(m.Headers[k]))
	}

	body := m.Body
	if body == nil {
		body = amf.NewArray()
	}
	return amf.NewTypedObject(RemotingMessageClass,
		amf.Member{Key: "body", Value: body},
		amf.Member{Key: "clientId", Value: amf.String(m.ClientID)},
		amf.Member{Key: "destination", Value: amf.String(m.Destination)},
		amf.Member{Key: "headers", Value: headers},
		amf.Member{Key: "messageId", Value: amf.String(m.MessageID)},
		amf.Member{Key: "operation", Value: amf.String(m.Operation)},
		amf.Member{Key: "timestamp", Value: amf.Double(m.Timestamp)},
		amf.Member{Key: "timeToLive", Value: amf.Double(m.TimeToLive)},
	)
}

func (m *RemotingMessage) MarshalAMF() (amf.Value, error) {
	return m.Value(), nil
}
