package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/zecpow/zecpowd/domain/consensus/model"
	"github.com/zecpow/zecpowd/domain/consensus/processes/difficultymanager"
	"github.com/zecpow/zecpowd/domain/consensus/processes/headervalidator"
	"github.com/zecpow/zecpowd/domain/consensus/ruleerrors"
	"github.com/zecpow/zecpowd/domain/consensus/utils/equihash"
	"github.com/zecpow/zecpowd/domain/consensus/utils/serialization"
	"github.com/zecpow/zecpowd/infrastructure/db/dbaccess"
	"github.com/zecpow/zecpowd/infrastructure/network/headersource"
)

// checker verifies a sequence of headers. Without a window only the context
// free checks run. With one, headers are expected at consecutive heights and
// each verified header extends the window.
type checker struct {
	validator model.HeaderValidator
	window    *model.DifficultyContext
	height    uint32
}

func newChecker(cfg *configFlags) (*checker, error) {
	params := cfg.NetParams()
	dm := difficultymanager.New(params)
	validator, err := headervalidator.New(params, dm, &equihash.Config{LeafWorkers: cfg.LeafWorkers})
	if err != nil {
		return nil, err
	}
	c := &checker{validator: validator}
	if !cfg.inContext() {
		return c, nil
	}

	dbContext, err := dbaccess.Open(cfg.DbType, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	defer dbContext.Close()
	store := dbaccess.NewHeaderStore(dbContext)

	c.height = cfg.Height
	if c.height == 0 {
		tipHeight, hasTip, err := store.Tip()
		if err != nil {
			return nil, err
		}
		if !hasTip {
			return nil, errors.Errorf("the header store at %s is empty, so --height is required", cfg.DataDir)
		}
		c.height = tipHeight + 1
	}
	c.window, err = loadWindow(store, dm.WindowSize(), params.EquihashParams().SolutionSize(), c.height)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded a difficulty window of %d headers below height %d", c.window.Len(), c.height)
	return c, nil
}

// loadWindow reads the stored headers right below height into a difficulty
// window. Heights below the first stored header are skipped.
func loadWindow(store *dbaccess.HeaderStore, windowSize int, solutionSize int,
	height uint32) (*model.DifficultyContext, error) {

	window := model.NewDifficultyContext(windowSize)
	first := uint32(0)
	if height > uint32(windowSize) {
		first = height - uint32(windowSize)
	}
	for h := first; h < height; h++ {
		headerBytes, err := store.Get(h)
		if dbaccess.IsNotFoundError(err) && window.Len() == 0 {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed loading the stored header at height %d", h)
		}
		header, err := serialization.DeserializeHeader(headerBytes, solutionSize)
		if err != nil {
			return nil, errors.Wrapf(err, "bad stored header at height %d", h)
		}
		err = window.Push(h, header.Time, header.Bits)
		if err != nil {
			return nil, err
		}
	}
	return window, nil
}

func (c *checker) inContext() bool {
	return c.window != nil
}

func (c *checker) check(headerBytes []byte) *model.Outcome {
	if !c.inContext() {
		header, hash, err := c.validator.ValidateHeaderInIsolation(headerBytes)
		return &model.Outcome{Header: header, Hash: hash, Err: err}
	}

	outcome := c.validator.Verify(headerBytes, c.height, c.window)
	if outcome.IsVerified() {
		err := c.window.Push(c.height, outcome.Header.Time, outcome.Header.Bits)
		if err != nil {
			outcome.Err = err
		}
	}
	c.height++
	return outcome
}

// formatOutcome renders an outcome as a single line
func formatOutcome(outcome *model.Outcome) string {
	hash := "-"
	if outcome.Hash != nil {
		hash = outcome.Hash.String()
	}
	if outcome.IsVerified() {
		return fmt.Sprintf("%s verified", hash)
	}

	code := "unknown"
	var ruleError ruleerrors.RuleError
	if errors.As(outcome.Err, &ruleError) {
		code = ruleError.Code()
	}
	return fmt.Sprintf("%s rejected %s: %s", hash, code, outcome.Err)
}

// readHeaders decodes the hex headers given as arguments, or else one per
// line of r.
func readHeaders(args []string, r io.Reader) ([][]byte, error) {
	if len(args) > 0 {
		r = strings.NewReader(strings.Join(args, "\n"))
	}
	source, err := headersource.ReadFileSource(r, 0)
	if err != nil {
		return nil, err
	}

	var headers [][]byte
	for i := uint32(0); ; i++ {
		headerBytes, err := source.HeaderBytes(context.Background(), i)
		if errors.Is(err, headersource.ErrHeaderNotAvailable) {
			return headers, nil
		}
		if err != nil {
			return nil, err
		}
		headers = append(headers, headerBytes)
	}
}

// run checks every header and writes one line per header to w. It returns
// whether every header was verified.
func run(cfg *configFlags, args []string, r io.Reader, w io.Writer) (bool, error) {
	headers, err := readHeaders(args, r)
	if err != nil {
		return false, err
	}
	if len(headers) == 0 {
		return false, errors.New("no headers to check")
	}

	c, err := newChecker(cfg)
	if err != nil {
		return false, err
	}

	allVerified := true
	for _, headerBytes := range headers {
		height := c.height
		outcome := c.check(headerBytes)
		allVerified = allVerified && outcome.IsVerified()

		line := formatOutcome(outcome)
		if c.inContext() {
			line = fmt.Sprintf("%d %s", height, line)
		}
		_, err := fmt.Fprintln(w, line)
		if err != nil {
			return false, errors.WithStack(err)
		}
	}
	return allVerified, nil
}
