// Package monitor runs the printer check pipeline and the polling
// scheduler that drives it.
//
// A Checker performs one device's full check: reachability probe,
// status-page fetch, payload normalization, classification, and the
// registry update. Every failure mode degrades to a conservative
// status (Offline when unreachable, Ready with a low-confidence message
// when reachable but unreadable, Error on a recovered panic); nothing a
// single printer does can fail the cycle or the process.
//
// A Monitor owns the timer: Start launches a ticker that fans out one
// concurrent check per printer each period and waits for the cycle to
// complete, Stop halts it, and restarting replaces the previous timer.
package monitor
