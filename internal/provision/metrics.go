package provision

import "github.com/prometheus/client_golang/prometheus"

var (
	downloadBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medchat",
			Subsystem: "provision",
			Name:      "download_bytes_total",
			Help:      "Bytes of model weights downloaded",
		},
	)

	downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medchat",
			Subsystem: "provision",
			Name:      "downloads_total",
			Help:      "Model downloads by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(downloadBytesTotal, downloadsTotal)
}
