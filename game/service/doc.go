// Package service provides the business logic layer for netbattle.
//
// The service package implements:
//   - Multi-session battle management
//   - Entity placement and the reserve/commit/cancel move protocol
//   - Fixed-step simulation with per-step battle events
//   - Battle configuration and overworld map queries
//
// Core Interfaces:
//
// BattleService is the main service interface used by every transport.
// SessionManager handles session creation, retrieval, and persistence.
// ConfigManager loads battle configurations and overworld maps.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the battle and overworld packages. Each session owns one battle.Field and,
// when its config names one, the mob fighting on it. A single mutex serialises
// field mutations so transports can call the service from any goroutine.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	battles := service.NewBattleService(sessionMgr, configMgr)
//
//	info, err := battles.CreateSession(ctx, "starfish")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := battles.Step(ctx, info.ID, service.StepRequest{Steps: 60})
package service
