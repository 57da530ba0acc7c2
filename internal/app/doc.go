// Package app is the composition root of the multiverse client.
//
// A Session wires configuration, logging, the colour allocator, the
// multiverse store, the HTTP client, the push channel and the controller
// that joins them. Session.Run supervises the push channel, the optional
// metrics listener and a foreground task under one errgroup; the first to
// fail, or the foreground returning, stops the rest.
//
// Two foregrounds exist:
//
//   - RunUI: the terminal editor. Logs go to the configured log file.
//   - Watch: headless. Logs every applied or rejected snapshot, plus a
//     periodic status line from StartReporter.
//
// The server is pinged once at start-up. An unreachable server is logged,
// not fatal: the push channel keeps retrying on its fixed delay.
package app
