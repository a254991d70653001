// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for hioload-ring
// pipelines.
//
// Provides:
//   - Config/PumpConfig unpacked from YAML with go-ucfg, plus validation
//   - ConfigStore, an atomically swapped pump config with reload listeners
//   - RingMetrics, Prometheus counters around one ring
//   - DebugProbes, named state probes dumped on demand
package control
