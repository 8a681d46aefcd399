// Package messaging is a broker-agnostic publish/consume client.
//
// Domain events such as account provisioning are published through Publisher
// and handled by Consumer callbacks. NATS and Kafka are the production
// drivers; Memory delivers in-process and backs local runs and tests.
package messaging
