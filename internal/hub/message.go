package hub

// Event names published by the engine
const (
	EventDealHole    = "deal_hole"
	EventDealtPublic = "dealt_public"
	EventAction      = "action"
	EventPeek        = "peek"
	EventCommunity   = "community"
	EventShowdown    = "showdown"
	EventHandOver    = "hand_over"
	EventAborted     = "hand_aborted"

	EventHandRecorded = "hand_recorded"
	EventSummary      = "summary"
)

type OutgoingMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}
