// ABOUTME: Player API wire protocol package
// ABOUTME: Defines JSON-RPC envelopes, payloads and the inbound decoder
// Package protocol implements the player API wire protocol.
//
// The server speaks a JSON-RPC 2.0 dialect over a WebSocket. It answers
// requests and pushes notifications on the same channel, and neither kind of
// inbound message carries an explicit discriminator: a message with a
// "method" field is a notification, a message with an "id" and no method is a
// response.
//
// Decode classifies a raw frame. DecodeEvent and DecodeResult turn the
// classified message into closed, strongly typed variants so callers never
// switch on method strings themselves.
//
// Example:
//
//	msg, err := protocol.Decode(frame)
//	switch m := msg.(type) {
//	case *protocol.Notification:
//	    ev, err := protocol.DecodeEvent(m)
//	case *protocol.Response:
//	    res, err := protocol.DecodeResult(protocol.MethodGetStatus, m.Result)
//	}
package protocol
