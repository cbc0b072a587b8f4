// Package config holds every runtime-tunable knob this sensor exposes,
// read through the package-level viper.Viper the way the teacher's
// trace/rate_limit.go does (viper.SetDefault in init, viper.GetX at the
// point of use) rather than threading a config struct through every
// constructor.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Exported so cmd can bind flags/env vars to them.
const (
	QueueDepth         = "queue.depth"
	DrainInterval      = "controller.drain_interval"
	TickInterval       = "controller.tick_interval"
	FrequencyWindow    = "anomaly.frequency_window"
	FrequencyThreshold = "anomaly.frequency_threshold"
	RingCapacity       = "anomaly.ring_capacity"
	LogTailLines       = "controller.log_tail_lines"
	PublishEndpoint    = "publish.endpoint"
	PublishTransport   = "publish.transport" // "ws" or "http"
	Interface          = "capture.interface"
	ControlAddr        = "control.addr"
)

func init() {
	viper.SetDefault(QueueDepth, 65536)
	viper.SetDefault(DrainInterval, 100*time.Millisecond)
	viper.SetDefault(TickInterval, 10*time.Second)
	viper.SetDefault(FrequencyWindow, 30*time.Second)
	viper.SetDefault(FrequencyThreshold, 30)
	viper.SetDefault(RingCapacity, 100)
	viper.SetDefault(LogTailLines, 1000)
	viper.SetDefault(PublishEndpoint, "ws://localhost:3000/ws")
	viper.SetDefault(PublishTransport, "ws")
	viper.SetDefault(Interface, "")
	viper.SetDefault(ControlAddr, "localhost:9090")
}

// QueueDepthValue, DrainIntervalValue, etc. are thin typed readers over
// the untyped viper keys above, so callers never sprinkle viper.GetX
// calls (and string keys) through the pipeline wiring code.
func QueueDepthValue() int                { return viper.GetInt(QueueDepth) }
func DrainIntervalValue() time.Duration   { return viper.GetDuration(DrainInterval) }
func TickIntervalValue() time.Duration    { return viper.GetDuration(TickInterval) }
func FrequencyWindowValue() time.Duration { return viper.GetDuration(FrequencyWindow) }
func FrequencyThresholdValue() int        { return viper.GetInt(FrequencyThreshold) }
func RingCapacityValue() int              { return viper.GetInt(RingCapacity) }
func LogTailLinesValue() int              { return viper.GetInt(LogTailLines) }
func PublishEndpointValue() string        { return viper.GetString(PublishEndpoint) }
func PublishTransportValue() string       { return viper.GetString(PublishTransport) }
func InterfaceValue() string              { return viper.GetString(Interface) }
func ControlAddrValue() string            { return viper.GetString(ControlAddr) }
