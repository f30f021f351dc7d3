// Package mcp exposes netbattle to Model Context Protocol agents.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// a running api.Server and the JSON response is rendered as text. Tools:
//   - create_session, get_session, list_sessions
//   - field_state: grid rendering with teams, states, occupants and reservations
//   - place_entity, delete_entity
//   - move_entity, commit_move, cancel_move: the two-phase move protocol
//   - step: advance time and list the resulting events
//   - set_tile
//   - list_configs, list_maps, map_query
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// or mounted over HTTP:
//
//	http.Handle("/mcp", server.NewStreamableHTTPServer(client.GetMCPServer()))
package mcp
