// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Business code depends on the Messaging interface only, so the broker
// (NATS, NSQ, Kafka, Google Pub/Sub or the in-process memory broker) is a
// configuration choice. Every driver runs handlers under panic recovery and,
// when auto-ack is enabled, acks on a nil handler error and nacks otherwise.
package messaging
