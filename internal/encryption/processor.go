package encryption

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/kirmah/internal/fileutil"
	"github.com/idelchi/kirmah/internal/header"
	"github.com/idelchi/kirmah/internal/kerrors"
	"github.com/idelchi/kirmah/internal/keys"
	"github.com/idelchi/kirmah/internal/parttable"
)

// Processor runs the encryption and decryption pipelines for one key.
type Processor struct {
	// mark is the key fingerprint, mark2 the derived configuration key
	mark  string
	mark2 string

	cipher *StreamCipher
	codec  *header.Codec
	tables *parttable.Generator

	log *logrus.Logger
}

// Options tune one pipeline invocation.
type Options struct {
	// Modes selects the optional stages. Ignored when decrypting.
	Modes header.Modes

	// Parallel is the number of cipher workers, 1 to MaxParallel.
	Parallel int

	// TempDir hosts the workspace. Defaults to the destination directory.
	TempDir string
}

// DefaultModes are the modes used when the caller has no preference.
//
//nolint:gochecknoglobals
var DefaultModes = header.Modes{Compression: header.End, Random: true, Mix: true}

// PipelineContext is the immutable state shared by the stages of one
// invocation.
type PipelineContext struct {
	Workspace *fileutil.Workspace
	Parallel  int
	Log       *logrus.Entry
}

// stageFunc transforms the artifact at src into dst.
type stageFunc func(ctx context.Context, pc PipelineContext, src, dst string) error

type stage struct {
	name string
	run  stageFunc
}

// NewProcessor validates key and returns a Processor logging to logger.
func NewProcessor(key keys.Key, logger *logrus.Logger) (*Processor, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	mark := keys.Mark(key)
	mark2 := keys.SecondaryMark(mark)

	return &Processor{
		mark:   mark,
		mark2:  mark2,
		cipher: NewStreamCipher(key),
		codec:  header.NewCodec(mark),
		tables: parttable.NewGenerator(mark2),
		log:    logger,
	}, nil
}

// Mark returns the key fingerprint.
func (p *Processor) Mark() string { return p.mark }

// SecondaryMark returns the configuration key derived from the mark.
func (p *Processor) SecondaryMark() string { return p.mark2 }

// Codec returns the header codec bound to the key.
func (p *Processor) Codec() *header.Codec { return p.codec }

// Tables returns the part table generator bound to the key.
func (p *Processor) Tables() *parttable.Generator { return p.tables }

// Logger returns the injected logger.
func (p *Processor) Logger() *logrus.Logger { return p.log }

func (o Options) validate() error {
	if o.Parallel < 1 || o.Parallel > MaxParallel {
		return kerrors.Invalid("parallel", o.Parallel, fmt.Sprintf("must be between 1 and %d", MaxParallel))
	}

	switch o.Modes.Compression {
	case header.None, header.All, header.End:
	default:
		return kerrors.Invalid("compression", o.Modes.Compression, "unknown mode")
	}

	return nil
}

// Encrypt transforms src into the kirmah file dst.
func (p *Processor) Encrypt(ctx context.Context, src, dst string, opts Options) (res Result, err error) {
	start := time.Now()
	res = Result{Input: src, Output: dst, Modes: opts.Modes}

	if err := opts.validate(); err != nil {
		return res, err
	}

	pc, err := p.newPipeline("encrypt", src, dst, opts)
	if err != nil {
		return res, err
	}
	defer p.release(pc)

	stages := []stage{
		{name: "encode", run: encodeStage(opts.Modes.Compression == header.All)},
		{name: "cipher", run: p.cipherStage(false)},
	}

	if opts.Modes.Random {
		stages = append(stages, stage{name: "randomize", run: p.randomizeStage})
	}

	if opts.Modes.Mix {
		stages = append(stages, stage{name: "mix", run: p.mixStage})
	}

	last, err := p.runStages(ctx, pc, src, stages)
	if err != nil {
		return res, err
	}

	tc, err := fileutil.NewTempContext(src, dst)
	if err != nil {
		return res, err
	}

	defer tc.CleanupOnError(&err)

	if _, err = p.sealInto(pc, last, tc.TmpFile, opts.Modes); err != nil {
		return res, fmt.Errorf("sealing: %w", err)
	}

	if res.OutputSize, err = tc.Commit(); err != nil {
		return res, err
	}

	res.InputSize = tc.SrcInfo.Size()
	res.Duration = time.Since(start)

	p.done(pc, res)

	return res, nil
}

// Decrypt restores the kirmah file src into dst. The stages to undo are
// read from the header.
func (p *Processor) Decrypt(ctx context.Context, src, dst string, opts Options) (res Result, err error) {
	start := time.Now()
	res = Result{Input: src, Output: dst}

	if err := opts.validate(); err != nil {
		return res, err
	}

	h, err := p.openHeader(src)
	if err != nil {
		return res, err
	}

	res.Modes = h.Modes

	pc, err := p.newPipeline("decrypt", src, dst, opts)
	if err != nil {
		return res, err
	}
	defer p.release(pc)

	stages := []stage{{name: "unseal", run: unsealStage(h)}}

	if h.Mix {
		stages = append(stages, stage{name: "unmix", run: p.unmixStage})
	}

	if h.Random {
		stages = append(stages, stage{name: "unrandomize", run: p.unrandomizeStage})
	}

	stages = append(stages, stage{name: "decipher", run: p.cipherStage(true)})

	last, err := p.runStages(ctx, pc, src, stages)
	if err != nil {
		return res, err
	}

	tc, err := fileutil.NewTempContext(src, dst)
	if err != nil {
		return res, err
	}

	defer tc.CleanupOnError(&err)

	if err = decodeInto(last, tc.TmpFile, h.Compression == header.All); err != nil {
		return res, fmt.Errorf("decoding: %w", err)
	}

	if res.OutputSize, err = tc.Commit(); err != nil {
		return res, err
	}

	res.InputSize = tc.SrcInfo.Size()
	res.Duration = time.Since(start)

	p.done(pc, res)

	return res, nil
}

func (p *Processor) newPipeline(op, src, dst string, opts Options) (PipelineContext, error) {
	parent := opts.TempDir
	if parent == "" {
		parent = filepath.Dir(dst)
	}

	ws, err := fileutil.NewWorkspace(parent)
	if err != nil {
		return PipelineContext{}, err
	}

	return PipelineContext{
		Workspace: ws,
		Parallel:  opts.Parallel,
		Log: p.log.WithFields(logrus.Fields{
			"op":   op,
			"file": filepath.Base(src),
		}),
	}, nil
}

func (p *Processor) release(pc PipelineContext) {
	if err := pc.Workspace.Remove(); err != nil {
		pc.Log.WithError(err).Warn("removing workspace")
	}
}

func (p *Processor) done(pc PipelineContext, res Result) {
	pc.Log.WithFields(logrus.Fields{
		"output":   res.Output,
		"size":     humanize.IBytes(uint64(max(0, res.OutputSize))), //nolint:gosec // clamped
		"duration": res.Duration.Round(time.Millisecond),
	}).Info("done")
}

// runStages threads src through stages and returns the last artifact.
// Intermediate artifacts are dropped as soon as the next stage has consumed them.
func (p *Processor) runStages(ctx context.Context, pc PipelineContext, src string, stages []stage) (string, error) {
	current := src

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return "", kerrors.Cancelled(context.Cause(ctx))
		}

		next := pc.Workspace.Path(s.name)
		begin := time.Now()

		if err := s.run(ctx, pc, current, next); err != nil {
			return "", fmt.Errorf("%s: %w", s.name, err)
		}

		if current != src {
			os.Remove(current) //nolint:errcheck,gosec // workspace removal covers failures
		}

		current = next

		if pc.Log.Logger.IsLevelEnabled(logrus.DebugLevel) {
			size, _ := fileutil.Size(next)
			pc.Log.WithFields(logrus.Fields{
				"stage":   s.name,
				"bytes":   humanize.IBytes(uint64(max(0, size))), //nolint:gosec // clamped
				"elapsed": time.Since(begin).Round(time.Microsecond),
			}).Debug("stage complete")
		}
	}

	return current, nil
}
