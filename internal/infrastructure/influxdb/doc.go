// Package influxdb provides time-series recording of link manager activity.
//
// This package manages:
//   - Connection to InfluxDB v2 with token authentication
//   - Non-blocking, batched writes of link lifecycle events
//   - Health monitoring and async write error reporting
//
// Recording is optional: when influxdb.enabled is false in config, the
// Core runs without history and the manager simply skips the recorder.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteLinkEvent("added", "hue:lamp:lamp1:1", "Lamp1_Brightness")
package influxdb
