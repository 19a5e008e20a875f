// Package ws carries broker sessions over WebSocket connections.
//
// The package implements:
//   - Client: adapts a gorilla connection to broker.Conn with a queued writer
//   - Handler: upgrades HTTP requests and hands each connection to the broker
//
// Each client frame is one JSON message; each outbound message is written in
// its own text frame so browsers can JSON.parse every frame.
package ws
