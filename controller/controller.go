// Package controller runs the sensor's main loop: a 100ms drain of the
// capture queue into the connection table, and a 10s tick that runs the
// AUD registry and anomaly detectors over the tracked flows, then trims
// idle ones, and publishes whatever anomalies result. It is the only goroutine that
// touches conntrack.Table, aud.Registry, and anomaly.Engine, per
// SPEC_FULL.md §5's single-writer discipline.
//
// Grounded on the teacher's apidump.go main loop (ticker + signal.Notify
// shutdown) and original_source/aud_manager/aud_manager.py's run().
package controller

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sifis-home/aud-sensor/anomaly"
	"github.com/sifis-home/aud-sensor/aud"
	"github.com/sifis-home/aud-sensor/capture"
	"github.com/sifis-home/aud-sensor/conntrack"
	"github.com/sifis-home/aud-sensor/control"
	"github.com/sifis-home/aud-sensor/flowtypes"
	"github.com/sifis-home/aud-sensor/printer"
	"github.com/sifis-home/aud-sensor/publish"
)

// snapshot is the read-only view of pipeline state the control package's
// HTTP handlers consult. It is rebuilt once per tick by the Controller
// goroutine and read by any goroutine through an atomic.Value, so HTTP
// handlers never touch conntrack.Table or aud.Registry directly.
type snapshot struct {
	status    control.Status
	diag      map[string]interface{}
	audUpdate []flowtypes.ACLKey
	connList  []string
}

// Controller owns every pipeline stage past the capture Queue.
type Controller struct {
	table     *conntrack.Table
	registry  *aud.Registry
	engine    *anomaly.Engine
	queue     *capture.Queue
	publisher *publish.Publisher
	logs      *logRing

	drainInterval time.Duration
	tickInterval  time.Duration

	startTime       time.Time
	learningStopped int32
	forceTick       chan struct{}
	snap            atomic.Value // *snapshot
}

// New wires a Controller around an already-constructed pipeline.
func New(
	table *conntrack.Table,
	registry *aud.Registry,
	engine *anomaly.Engine,
	queue *capture.Queue,
	publisher *publish.Publisher,
	drainInterval, tickInterval time.Duration,
	logTailCapacity int,
) *Controller {
	c := &Controller{
		table:         table,
		registry:      registry,
		engine:        engine,
		queue:         queue,
		publisher:     publisher,
		logs:          newLogRing(logTailCapacity),
		drainInterval: drainInterval,
		tickInterval:  tickInterval,
		forceTick:     make(chan struct{}, 1),
	}
	c.snap.Store(&snapshot{})
	return c
}

// Run drains and ticks until ctx is cancelled or a SIGINT/SIGTERM
// arrives. The queue is cleared once up front, mirroring the teacher's
// apidump startup (discard anything buffered before the pipeline was
// watching).
func (c *Controller) Run(ctx context.Context) {
	c.startTime = time.Now()
	c.queue.Drain(0)
	printer.SetRingSink(c.logs.Add)
	defer printer.SetRingSink(nil)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	drainTicker := time.NewTicker(c.drainInterval)
	defer drainTicker.Stop()
	tickTicker := time.NewTicker(c.tickInterval)
	defer tickTicker.Stop()

	c.refreshSnapshot()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-sig:
			printer.Infof("controller: received %v, shutting down\n", s)
			return
		case <-drainTicker.C:
			c.drain()
		case <-tickTicker.C:
			c.tick()
		case <-c.forceTick:
			c.tick()
		}
	}
}

func (c *Controller) drain() {
	for _, pkt := range c.queue.Drain(0) {
		c.table.Record(pkt)
	}
}

func (c *Controller) tick() {
	var raised []anomaly.Anomaly
	if atomic.LoadInt32(&c.learningStopped) == 0 {
		raised = c.registry.Update(c.table, c.engine)
	}
	raised = append(raised, c.engine.Evaluate(time.Now())...)

	c.table.Trim()

	for _, a := range raised {
		c.publisher.Publish(a)
		c.logs.Add(logLine(a))
	}

	c.refreshSnapshot()
}

func logLine(a anomaly.Anomaly) string {
	return a.Time.Format(time.RFC3339) + " " + a.Category.String() + " " + a.UUID.String()
}

func (c *Controller) refreshSnapshot() {
	c.snap.Store(&snapshot{
		status: control.Status{
			UptimeSeconds:  time.Since(c.startTime).Seconds(),
			TrackedFlows:   c.table.Len(),
			ACLKeys:        c.registry.Len(),
			QueueDepth:     c.queue.Len(),
			PacketsDropped: c.queue.Dropped(),
			AnomalyCount:   len(c.engine.Snapshot()),
		},
		diag: map[string]interface{}{
			"tracked_flows": c.table.Len(),
			"acl_keys":      c.registry.Len(),
			"queue_depth":   c.queue.Len(),
		},
		audUpdate: c.registry.Keys(),
		connList:  connSummaries(c.table),
	})
}

func connSummaries(table *conntrack.Table) []string {
	var out []string
	for key := range table.ACLKeys() {
		for _, entry := range table.FlowsByACLKey(key) {
			out = append(out, entry.Key.String())
		}
	}
	return out
}

func (c *Controller) current() *snapshot {
	return c.snap.Load().(*snapshot)
}

// Status implements control.StatusProvider.
func (c *Controller) Status() control.Status { return c.current().status }

// Diag implements control.DiagProvider.
func (c *Controller) Diag() interface{} { return c.current().diag }

// AUDUpdate implements control.DiagProvider.
func (c *Controller) AUDUpdate() interface{} { return c.current().audUpdate }

// ConnList implements control.DiagProvider.
func (c *Controller) ConnList() interface{} { return c.current().connList }

// MarkBenign implements control.BenignMarker. The anomaly ring has its
// own internal locking, so this is safe to call from an HTTP handler
// goroutine without routing through the Controller's own loop.
func (c *Controller) MarkBenign(uuidStr string) (string, error) {
	return c.engine.MarkBenign(uuidStr)
}

// ForceTick implements control.TickForcer.
func (c *Controller) ForceTick() {
	select {
	case c.forceTick <- struct{}{}:
	default:
	}
}

// StopLearning implements control.LearningToggle: the AUDRegistry stops
// allocating new Records (and therefore raising NovelFlow) from the next
// tick on.
func (c *Controller) StopLearning() {
	atomic.StoreInt32(&c.learningStopped, 1)
	printer.Infof("controller: learning stopped, AUD baseline frozen\n")
}

// LogTail implements control.LogProvider.
func (c *Controller) LogTail() []string {
	return c.logs.LogTail()
}
