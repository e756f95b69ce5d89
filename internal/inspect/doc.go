// Package inspect serves live stores over HTTP.
//
// Routes:
//
//	GET   /healthz               liveness
//	GET   /metrics               Prometheus exposition
//	GET   /stores                registered store names
//	GET   /stores/{name}         current state
//	PATCH /stores/{name}         deep-merge a JSON object into the state
//	POST  /stores/{name}/reset   restore the initial state
//	GET   /stores/{name}/watch   websocket stream of state changes
//
// Every change reaches watchers as a Message whose Type is "change". A new
// watcher first receives one "state" message with the current state.
package inspect
