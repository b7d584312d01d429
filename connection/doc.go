// Package connection tracks live-transport connectivity as a single global
// status value with an enforced state machine:
//
//	connecting -> connected
//	connected  -> disconnected (signal loss)
//	connected  -> error        (protocol failure)
//	disconnected|error -> connecting (ForceReconnect)
//
// ForceReconnect and RefreshAllData are the two recovery actions the UI
// exposes; the latter re-fetches data without touching the socket state.
package connection
