// Package metrics provides Prometheus instrumentation for the photo-ingest
// agent. All metrics are prefixed with "photo_ingest_" and registered with
// the default registry via promauto; expose them by mounting
// promhttp.Handler() on the metrics endpoint.
//
// The package also supplies the observer implementations that other packages
// accept as interfaces: [NewFilesystemObserver] for filesystem retry
// accounting and [NewProgressObserver] for mirroring tracker state into the
// progress gauges. Declaring the interfaces in the instrumented packages and
// the implementations here keeps the import direction one way.
//
// Call [InitializeMetrics] once at startup so every expected label
// combination appears in the first scrape instead of materializing lazily.
package metrics
