// Package hub fans overlay, alert and camera messages out to websocket
// viewers through a single channel-driven loop. Each viewer subscribes to
// a set of kinds when it connects.
package hub

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is a feed a viewer can subscribe to. Kinds combine as a bit set.
type Kind uint8

const (
	// KindOverlay carries one JSON-encoded processed frame.
	KindOverlay Kind = 1 << iota
	// KindAlert carries one JSON-encoded alert event.
	KindAlert
	// KindFrame carries one JPEG camera frame, sent as a binary message.
	KindFrame

	AllKinds = KindOverlay | KindAlert | KindFrame
)

var kindNames = []struct {
	kind Kind
	name string
}{
	{KindOverlay, "overlay"},
	{KindAlert, "alerts"},
	{KindFrame, "camera"},
}

func (k Kind) String() string {
	var names []string
	for _, kn := range kindNames {
		if k&kn.kind != 0 {
			names = append(names, kn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseKinds parses a comma-separated list of feed names such as
// "overlay,alerts". An empty list selects every kind.
func ParseKinds(s string) (Kind, error) {
	if strings.TrimSpace(s) == "" {
		return AllKinds, nil
	}
	var k Kind
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		found := false
		for _, kn := range kindNames {
			if part == kn.name {
				k |= kn.kind
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("hub: unknown feed %q", part)
		}
	}
	return k, nil
}

// Message is one broadcast. Only KindFrame messages are binary.
type Message struct {
	Kind Kind
	Data []byte
}

func (m Message) binary() bool {
	return m.Kind == KindFrame
}

// NewOverlay encodes a processed frame for overlay viewers.
func NewOverlay(v any) (Message, error) {
	return encode(KindOverlay, v)
}

// NewAlert encodes an alert event for alert viewers.
func NewAlert(v any) (Message, error) {
	return encode(KindAlert, v)
}

// NewFrame wraps a JPEG image for camera viewers.
func NewFrame(jpeg []byte) Message {
	return Message{Kind: KindFrame, Data: jpeg}
}

func encode(kind Kind, v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("hub: encode %s: %w", kind, err)
	}
	return Message{Kind: kind, Data: data}, nil
}
