// Package feed mirrors the panel to websocket clients.
//
// A Hub implements the panel slots. Every slot write is encoded as a JSON
// frame and broadcast to connected clients:
//
//	{"type": "otp", "data": "4821"}
//	{"type": "door", "data": {"locked": false, "label": "Unlocked"}}
//
// A client that connects late first receives the latest frame of every
// slot, so it never has to wait for the next poll to render.
//
// Tail is the client side: it reads a feed and hands each frame to a
// handler, and Recorder turns a writer into a JSON Lines capture.
package feed
