// Package messaging publishes domain events to a message broker.
//
// Business code depends only on Publisher. The concrete broker (Kafka, NATS,
// NSQ or Google Pub/Sub) is picked at startup by NewFromDriver, and the
// "none" driver discards every message for deployments without a broker.
package messaging
