// Package api provides the HTTP REST API for netbattle.
//
// The api package implements:
//   - Session management endpoints
//   - Field operations: placement, the two-phase move protocol and stepping
//   - Battle configuration listing and saving
//   - Overworld map queries (elevation, collision, occlusion, shadows)
//   - Account client proxying through webclient.Manager
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session {"config_id": "starfish"}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Field Operations:
//   - GET /api/sessions/{id}/field - Field snapshot
//   - POST /api/sessions/{id}/entities - Place an entity (201 placed, 200 dropped)
//   - DELETE /api/sessions/{id}/entities/{entity} - Mark an entity deleted
//   - POST /api/sessions/{id}/moves - Reserve a destination {"entity": 1, "x": 2, "y": 2}
//   - POST /api/sessions/{id}/moves/{entity}/commit - Complete a reserved move
//   - POST /api/sessions/{id}/moves/{entity}/cancel - Abort a reserved move
//   - POST /api/sessions/{id}/step - Advance the battle {"steps": 60, "elapsed": 0.016}
//   - POST /api/sessions/{id}/battle - Start or pause hazards {"active": true}
//   - PUT /api/sessions/{id}/tiles/{x}/{y} - Set tile state or team
//
// Configuration:
//   - GET /api/configs - List battle configurations
//   - GET /api/configs/{name} - Get one configuration
//   - POST /api/configs?id=name - Save a configuration
//
// Overworld Maps:
//   - GET /api/maps, GET /api/maps/{name}
//   - GET /api/maps/{name}/query?x=&y=&z=&layer=
//   - GET /api/maps/{name}/elevation, /concealed, /can-move (same parameters)
//
// Account:
//   - GET /api/account, GET /api/account/status
//   - POST /api/account/login, POST /api/account/logout
//
// Errors are returned as JSON with a status code taken from the error chain:
//
//	{"error": "move 3: tile is reserved by another entity"}
//
// Rejected moves answer 409 and carry the move next to the error.
//
// Usage:
//
//	server := api.NewServer(battleService, hub, accounts)
//	http.ListenAndServe(":8080", server)
package api
