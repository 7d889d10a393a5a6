// Package ws pushes the latest ingestion board to browsers over WebSocket.
//
// New(source, interval) creates a Hub. Hub.Run(ctx) broadcasts on every
// interval tick until ctx is cancelled, then closes all connections.
// Hub.ServeHTTP upgrades a request, sends the current board at once if a
// cycle has completed, and then streams one message per tick.
//
// Message format:
//
//	{
//	  "event": "board",
//	  "data":  { /* same schema as GET /api/v1/board */ }
//	}
//
// Nothing is sent until the first cycle completes. The upgrader accepts all
// origins; restrict them at the reverse proxy. The server mounts the hub at
// /ws/stream.
package ws
