// Package shutdown coordinates graceful process termination.
//
// Components register named hooks; on SIGINT, SIGTERM or cancellation of
// the wait context the hooks run in reverse registration order under a
// shared timeout.
//
//	h := shutdown.NewHandler(15*time.Second, log)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
