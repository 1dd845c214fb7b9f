package core

// Lifecycle is what transports drive: one OnConnect per accepted client,
// OnLine for each inbound line in arrival order, then exactly one OnDisconnect.
type Lifecycle interface {
	OnConnect(conn Conn, remote string) Session
	OnLine(s Session, line string)
	OnDisconnect(sid SessionID)
	OnTransportError(sid SessionID, err error)
}
