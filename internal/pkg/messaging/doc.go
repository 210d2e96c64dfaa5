// Package messaging publishes and consumes broker messages behind one small API.
//
// Use-case code depends on Publisher, Consumer and Message only; the broker
// (Kafka, NATS, NSQ, Google Pub/Sub or the in-process memory driver) is chosen
// by configuration through NewFromDriver.
package messaging
