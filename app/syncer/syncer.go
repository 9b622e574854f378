// Package syncer follows a header source, verifies every header it serves and
// appends the verified ones to the header store.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/zecpow/zecpowd/domain/consensus/model"
	"github.com/zecpow/zecpowd/domain/consensus/model/externalapi"
	"github.com/zecpow/zecpowd/domain/consensus/utils/serialization"
	"github.com/zecpow/zecpowd/domain/dagconfig"
	"github.com/zecpow/zecpowd/infrastructure/config"
	"github.com/zecpow/zecpowd/infrastructure/db/dbaccess"
	"github.com/zecpow/zecpowd/infrastructure/logger"
	zecmetrics "github.com/zecpow/zecpowd/infrastructure/metrics"
	"github.com/zecpow/zecpowd/infrastructure/network/headersource"
)

const maxRetryDelay = time.Minute

// retryBaseDelay is the wait before the first retry of a failed fetch. It
// doubles on every further retry.
var retryBaseDelay = time.Second

// Syncer verifies headers height after height, starting right above the
// store's tip.
type Syncer struct {
	cfg          *config.Config
	params       *dagconfig.Params
	solutionSize int
	store        *dbaccess.HeaderStore
	source       headersource.HeaderSource
	validator    model.HeaderValidator

	heightGauge     metrics.Gauge
	verifiedCounter metrics.Counter
	rejectedCounter metrics.Counter
	retriesCounter  metrics.Counter
}

// New returns a Syncer reading headers of cfg's network from source.
func New(cfg *config.Config, store *dbaccess.HeaderStore, source headersource.HeaderSource,
	validator model.HeaderValidator) *Syncer {

	params := cfg.NetParams()
	return &Syncer{
		cfg:          cfg,
		params:       params,
		solutionSize: params.EquihashParams().SolutionSize(),
		store:        store,
		source:       source,
		validator:    validator,

		heightGauge:     zecmetrics.NewGauge("syncer/height"),
		verifiedCounter: zecmetrics.NewCounter("syncer/verified"),
		rejectedCounter: zecmetrics.NewCounter("syncer/rejected"),
		retriesCounter:  zecmetrics.NewCounter("syncer/retries"),
	}
}

// Run verifies headers until ctx is done, the stop height is verified, or a
// header is rejected. A rejection is returned as the rule error wrapped with
// its height. Cancelling ctx is a clean stop and returns nil.
func (s *Syncer) Run(ctx context.Context) error {
	height, err := s.startHeight()
	if err != nil {
		return err
	}
	if s.stopReached(height) {
		log.Infof("Already verified up to the stop height %d", s.cfg.StopHeight)
		return nil
	}

	window, err := s.seedDifficultyContext(ctx, height)
	if err != nil {
		if ctx.Err() != nil {
			log.Infof("Sync interrupted while seeding the difficulty window")
			return nil
		}
		return err
	}

	log.Infof("Syncing %s headers from height %d", s.params.Name, height)
	for {
		if ctx.Err() != nil {
			log.Infof("Sync interrupted before height %d", height)
			return nil
		}
		if s.stopReached(height) {
			log.Infof("Reached the stop height %d", s.cfg.StopHeight)
			return nil
		}

		batch, fetchErr := s.fetchBatch(ctx, height, s.batchSize(height))
		if len(batch) > 0 {
			verified, err := s.processBatch(ctx, window, height, batch)
			height += uint32(verified)
			if err != nil {
				return err
			}
		}
		if fetchErr != nil {
			if ctx.Err() != nil {
				continue
			}
			return fetchErr
		}
		if len(batch) == 0 {
			log.Debugf("Header at height %d is not available yet, waiting %s", height, s.cfg.PollInterval)
			sleep(ctx, s.cfg.PollInterval)
		}
	}
}

func (s *Syncer) startHeight() (uint32, error) {
	tipHeight, hasTip, err := s.store.Tip()
	if err != nil {
		return 0, err
	}
	if hasTip {
		return tipHeight + 1, nil
	}
	return s.cfg.StartHeight, nil
}

func (s *Syncer) stopReached(height uint32) bool {
	return s.cfg.StopHeight != 0 && height > s.cfg.StopHeight
}

func (s *Syncer) batchSize(height uint32) int {
	size := s.cfg.BatchSize
	if s.cfg.StopHeight != 0 {
		remaining := int(s.cfg.StopHeight-height) + 1
		if remaining < size {
			size = remaining
		}
	}
	return size
}

// seedDifficultyContext fills a difficulty window with the blocks right below
// start. Stored headers are used first. Older heights the store does not hold
// are fetched from the source and trusted without verification.
func (s *Syncer) seedDifficultyContext(ctx context.Context, start uint32) (*model.DifficultyContext, error) {
	windowSize := s.params.DifficultyWindowSize()
	window := model.NewDifficultyContext(windowSize)

	records, err := s.store.LastN(windowSize)
	if err != nil {
		return nil, err
	}
	firstStored := start
	if len(records) > 0 {
		firstStored = records[0].Height
	}

	missing := uint32(windowSize - len(records))
	if missing > firstStored {
		missing = firstStored
	}
	for height := firstStored - missing; height < firstStored; height++ {
		headerBytes, err := s.fetchWithRetry(ctx, height)
		if err != nil {
			return nil, errors.Wrapf(err, "failed fetching checkpoint header at height %d", height)
		}
		err = s.pushDecoded(window, height, headerBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "bad checkpoint header at height %d", height)
		}
		log.Debugf("Trusting checkpoint header at height %d without verification", height)
	}
	if missing > 0 {
		log.Infof("Seeded the difficulty window with %d trusted checkpoint headers below height %d",
			missing, firstStored)
	}

	for _, record := range records {
		headerBytes, err := record.HeaderBytes()
		if err != nil {
			return nil, err
		}
		err = s.pushDecoded(window, record.Height, headerBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "bad stored header at height %d", record.Height)
		}
	}
	return window, nil
}

func (s *Syncer) pushDecoded(window *model.DifficultyContext, height uint32, headerBytes []byte) error {
	header, err := serialization.DeserializeHeader(headerBytes, s.solutionSize)
	if err != nil {
		return err
	}
	return window.Push(height, header.Time, header.Bits)
}

// fetchBatch fetches up to count headers starting at height. It stops early at
// the first height the source does not have yet. On error, the headers fetched
// before the failing height are returned along with it.
func (s *Syncer) fetchBatch(ctx context.Context, height uint32, count int) ([][]byte, error) {
	batch := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		headerBytes, err := s.fetchWithRetry(ctx, height+uint32(i))
		if errors.Is(err, headersource.ErrHeaderNotAvailable) {
			break
		}
		if err != nil {
			return batch, err
		}
		batch = append(batch, headerBytes)
	}
	return batch, nil
}

// fetchWithRetry retries failed fetches with exponential backoff, up to
// MaxRetries times. Missing headers and cancellation are not retried.
func (s *Syncer) fetchWithRetry(ctx context.Context, height uint32) ([]byte, error) {
	delay := retryBaseDelay
	for attempt := 0; ; attempt++ {
		headerBytes, err := s.source.HeaderBytes(ctx, height)
		if err == nil || errors.Is(err, headersource.ErrHeaderNotAvailable) || ctx.Err() != nil {
			return headerBytes, err
		}
		if attempt >= s.cfg.MaxRetries {
			return nil, errors.Wrapf(err, "failed fetching header at height %d after %d retries",
				height, attempt)
		}

		log.Warnf("Failed fetching header at height %d, retrying in %s: %s", height, delay, err)
		s.retriesCounter.Inc(1)
		if !sleep(ctx, delay) {
			return nil, errors.WithStack(ctx.Err())
		}
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

type isolationResult struct {
	header *externalapi.DomainBlockHeader
	hash   *externalapi.DomainHash
	err    error
}

// processBatch checks the headers of batch, which start at firstHeight, and
// stores them in order. It returns how many headers were stored.
func (s *Syncer) processBatch(ctx context.Context, window *model.DifficultyContext,
	firstHeight uint32, batch [][]byte) (int, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "processBatch")
	defer onEnd()

	results := s.validateInIsolation(batch)
	for i, result := range results {
		if ctx.Err() != nil {
			return i, nil
		}
		height := firstHeight + uint32(i)
		if result.err != nil {
			return i, s.reject(height, result.err)
		}
		err := s.validator.ValidateHeaderInContext(result.header, height, window)
		if err != nil {
			return i, s.reject(height, err)
		}

		err = s.store.Append(height, batch[i])
		if err != nil {
			return i, err
		}
		err = window.Push(height, result.header.Time, result.header.Bits)
		if err != nil {
			return i, err
		}
		s.verifiedCounter.Inc(1)
		s.heightGauge.Update(int64(height))
		log.Debugf("Verified header %s at height %d", result.hash, height)
	}
	log.Infof("Verified headers %d to %d", firstHeight, firstHeight+uint32(len(batch))-1)
	return len(batch), nil
}

// validateInIsolation runs the context free checks of batch across the
// configured number of workers. Results keep the order of batch.
func (s *Syncer) validateInIsolation(batch [][]byte) []isolationResult {
	results := make([]isolationResult, len(batch))
	indexes := make(chan int, len(batch))
	for i := range batch {
		indexes <- i
	}
	close(indexes)

	workers := s.cfg.Workers
	if workers > len(batch) {
		workers = len(batch)
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		spawn("Syncer.validateInIsolation", func() {
			defer wg.Done()
			for i := range indexes {
				header, hash, err := s.validator.ValidateHeaderInIsolation(batch[i])
				results[i] = isolationResult{header: header, hash: hash, err: err}
			}
		})
	}
	wg.Wait()
	return results
}

func (s *Syncer) reject(height uint32, err error) error {
	s.rejectedCounter.Inc(1)
	log.Errorf("Header at height %d rejected: %s", height, err)
	return errors.Wrapf(err, "header at height %d rejected", height)
}

// sleep waits for d and returns false if ctx is done first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
