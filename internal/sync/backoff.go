// Rollcall - Registrant Role Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rollcall

package sync

import "time"

// MaxReconnectDelay caps the push channel reconnect backoff.
const MaxReconnectDelay = 300 * time.Second

// ReconnectDelay returns the wait before reconnect attempt n (0-based):
// 1s, 2s, 4s, ... 256s, then 300s forever.
func ReconnectDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	// 2^9 s already exceeds the cap; stop shifting before it can overflow.
	if attempts >= 9 {
		return MaxReconnectDelay
	}
	d := time.Duration(1<<attempts) * time.Second
	if d > MaxReconnectDelay {
		return MaxReconnectDelay
	}
	return d
}
