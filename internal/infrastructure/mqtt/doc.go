// Package mqtt provides MQTT client connectivity for Lumina Core.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Lumina uses MQTT as the outward-facing event bus. The link manager
// publishes link lifecycle events (linked, unlinked, added, removed) for
// UI and automation layers; the broker (Mosquitto) decouples those
// consumers from the Core.
//
//	Lumina Core → MQTT Broker → UI / automation subscribers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all link lifecycle events
//	err = client.Subscribe(mqtt.Topics{}.AllLinkEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a link event
//	topic := mqtt.Topics{}.LinkLinked("hue:lamp:lamp1:1")
//	client.Publish(topic, payload, 1, false)
package mqtt
