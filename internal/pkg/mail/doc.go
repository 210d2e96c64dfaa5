// Package mail sends email through a provider-agnostic Mail interface.
//
// Drivers: SMTP for real delivery and Log for local development. Breaker wraps
// any driver with a circuit breaker so a failing provider is skipped fast.
package mail
