// Package metrics owns the Prometheus collectors exported by the codec and
// container layers. Collectors live in a private registry so embedding
// applications decide whether and where to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bundlekit"

var (
	registry = prometheus.NewRegistry()

	// ChunksDecoded counts decoded chunks per codec kind.
	ChunksDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "codec",
		Name:      "chunks_decoded_total",
		Help:      "Number of chunks decoded, by codec kind.",
	}, []string{"kind"})

	// BytesDecoded counts decompressed output bytes per codec kind.
	BytesDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "codec",
		Name:      "bytes_decoded_total",
		Help:      "Decompressed bytes produced, by codec kind.",
	}, []string{"kind"})

	// BytesEncoded counts compressed output bytes per codec kind.
	BytesEncoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "codec",
		Name:      "bytes_encoded_total",
		Help:      "Compressed bytes produced, by codec kind.",
	}, []string{"kind"})

	// DecodeErrors counts failed decodes per codec kind.
	DecodeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "codec",
		Name:      "decode_errors_total",
		Help:      "Chunks that failed to decode, by codec kind.",
	}, []string{"kind"})

	// BundlesOpened counts successfully parsed bundles.
	BundlesOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bundle",
		Name:      "opened_total",
		Help:      "Bundles parsed successfully.",
	})

	// AssetCacheLookups counts asset cache lookups by result (hit, miss).
	AssetCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assetcache",
		Name:      "lookups_total",
		Help:      "Asset cache lookups, by result.",
	}, []string{"result"})

	// AssetCacheEvictions counts entries dropped to stay within budget.
	AssetCacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assetcache",
		Name:      "evictions_total",
		Help:      "Asset cache entries evicted to stay within the byte budget.",
	})

	// CacheBytes tracks payload bytes currently held by bundle caches.
	CacheBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "bundle",
		Name:      "cache_bytes",
		Help:      "Decompressed payload bytes held by bundle caches.",
	})
)

func init() {
	registry.MustRegister(
		ChunksDecoded, BytesDecoded, BytesEncoded, DecodeErrors,
		BundlesOpened, CacheBytes,
		AssetCacheLookups, AssetCacheEvictions,
	)
}

// Registry returns the registry holding every bundlekit collector.
func Registry() *prometheus.Registry { return registry }
