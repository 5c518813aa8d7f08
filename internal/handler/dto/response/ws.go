package response

import "smart-parking-engine/internal/hub"

// WSFrame is the wire envelope pushed to dashboard websocket clients. Exactly
// one payload field is set, keyed by Type.
type WSFrame struct {
	Type       string          `json:"type"`
	Slots      []*SlotResponse `json:"slots,omitempty"`
	Slot       *SlotResponse   `json:"slot,omitempty"`
	SlotNumber string          `json:"slotNumber,omitempty"`
}

func FromHubEvent(ev hub.Event) WSFrame {
	frame := WSFrame{Type: string(ev.Kind)}
	switch ev.Kind {
	case hub.KindSnapshot:
		frame.Slots = FromSnapshots(ev.Slots)
	case hub.KindSlotUpdate:
		frame.Slot = FromSnapshot(ev.Slot)
	case hub.KindGateOpen:
		frame.SlotNumber = ev.SlotNumber
	}
	return frame
}
