/*
Package metrics exposes per-endpoint latency and error telemetry for the
request pipeline.

Two surfaces are provided:

  - Sink: the hook the HTTP client reports every attempt to. Prom
    implements it on Prometheus vectors; Nop discards everything.
  - Tracker: an instance-scoped snapshot (count, errors, min/max/total
    latency per endpoint) the client maintains regardless of sink, so
    adapters can read metrics without scraping Prometheus.

Counters are scoped to the owning client instance; there is no shared
global state between adapters.
*/
package metrics
