package host

import (
	"context"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/shimmeringbee/xbeeio"
	"github.com/shimmeringbee/xbeeio/entity"
	"github.com/shimmeringbee/xbeeio/metrics"
	"math/rand"
	"sync"
	"time"
)

const pollerBacklog = 200

// workerJobMargin is allowed on top of two response timeouts, an update may queue behind one switching
// command on the radio before issuing its own.
const workerJobMargin = 5 * time.Second

func pollDeadline(responseTimeout time.Duration) time.Duration {
	if responseTimeout <= 0 {
		responseTimeout = xbeeio.DefaultResponseTimeout
	}

	return 2*responseTimeout + workerJobMargin
}

// Poller refreshes entities at a fixed interval. A single worker runs updates, so polls never overlap on
// the radio's control path.
type Poller struct {
	logger      logwrap.Logger
	jobDuration time.Duration

	pollerWork chan pollerWork
	pollerStop chan struct{}
	stopOnce   *sync.Once

	randLock *sync.Mutex
	rand     *rand.Rand
}

type pollerWork struct {
	entity   entity.Entity
	interval time.Duration
}

func NewPoller() *Poller {
	return &Poller{
		logger:      logwrap.New(discard.Discard()),
		jobDuration: pollDeadline(xbeeio.DefaultResponseTimeout),
		pollerWork:  make(chan pollerWork, pollerBacklog),
		pollerStop:  make(chan struct{}),
		stopOnce:    &sync.Once{},
		randLock:    &sync.Mutex{},
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *Poller) WithLogWrapLogger(lw logwrap.Logger) {
	p.logger = lw
}

// WithResponseTimeout sizes each update's deadline to the radio's response timeout.
func (p *Poller) WithResponseTimeout(timeout time.Duration) {
	p.jobDuration = pollDeadline(timeout)
}

func (p *Poller) Start() {
	go p.worker()
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.pollerStop)
	})
}

// Add schedules e every interval, the first poll after a random fraction of the interval so entities
// added together are spread out.
func (p *Poller) Add(e entity.Entity, interval time.Duration) {
	p.randLock.Lock()
	initialWait := time.Duration(float64(interval) * p.rand.Float64())
	p.randLock.Unlock()

	p.queueAfter(pollerWork{entity: e, interval: interval}, initialWait)
}

func (p *Poller) queueAfter(work pollerWork, wait time.Duration) {
	time.AfterFunc(wait, func() {
		select {
		case p.pollerWork <- work:
		case <-p.pollerStop:
		}
	})
}

func (p *Poller) worker() {
	for {
		select {
		case work := <-p.pollerWork:
			ctx, cancel := context.WithTimeout(context.Background(), p.jobDuration)
			p.poll(ctx, work.entity)
			cancel()

			p.queueAfter(work, work.interval)
		case <-p.pollerStop:
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context, e entity.Entity) {
	err := e.Update(ctx)
	metrics.EntityUpdates.WithLabelValues(e.Name(), metrics.Result(err)).Inc()

	if err != nil {
		p.logger.LogWarn(ctx, "Failed to update entity, keeping last state.", logwrap.Datum("Entity", e.Name()), logwrap.Err(err))
		return
	}

	state, _ := e.State()
	p.logger.LogDebug(ctx, "Entity updated.", logwrap.Datum("Entity", e.Name()), logwrap.Datum("State", state))
}
