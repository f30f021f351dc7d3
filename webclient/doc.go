// Package webclient runs the account client used to fetch remote player data.
//
// A Manager owns one AccountClient behind a mutex and runs two goroutines:
// a ping loop that refreshes IsConnectedToWebServer every PingInterval, and a
// task loop that executes queued commands one at a time. Each Send*Command
// returns a Future the caller can wait on with Get(ctx).
//
//	m := webclient.NewManager(webclient.WithPingInterval(2 * time.Second))
//	defer m.Shutdown()
//	m.ConnectToWebServer("http://accounts.local")
//
//	ok, err := m.SendLoginCommand("lan", "secret").Get(ctx)
//
// Commands never retry. Failures come back through the future as false or as
// an error; ErrNoClient when no client is connected and ErrShutdown when the
// manager stopped before the command ran.
package webclient
