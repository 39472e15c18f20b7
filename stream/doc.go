// Package stream exposes the change journal to clients over HTTP.
//
// Three surfaces:
//   - GET /v1/journal/latest hands out a fresh checkpoint sequence number
//   - GET /v1/journal/changes?since=N returns one merged summary of
//     everything after checkpoint N (204 when nothing changed, 410 when
//     the checkpoint predates retained history)
//   - GET /v1/journal/subscribe upgrades to a websocket that receives the
//     newest sequence number after every journal publication
//
// The websocket feed deliberately carries only sequence numbers: clients
// react by hitting /changes with their own checkpoint, so a dropped
// notification costs nothing once a later one arrives. POST /v1/checkout
// applies a snapshot switch to the attached working copy.
package stream
