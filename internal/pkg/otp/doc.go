// Package otp generates numeric one-time codes and carries them in sealed,
// self-expiring tokens for flows that keep no server-side state.
package otp
