// Package retrypolicy holds the pure backoff arithmetic used by the status
// store and the recovery scheduler: exponentially growing retry windows with a
// hard cap, and the terminal-failure decision.
package retrypolicy
