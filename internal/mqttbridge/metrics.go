package mqttbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "home_climate_mqtt_connected",
		Help: "1 while the MQTT bridge holds a broker connection.",
	})

	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "home_climate_mqtt_publish_failures_total",
		Help: "Commands that could not be published to the broker.",
	})
)
