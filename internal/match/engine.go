package match

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/klu-lostfound/internal/debug"
	"github.com/klu-lostfound/internal/imagesim"
	"github.com/klu-lostfound/internal/metrics"
)

// Engine pairs lost reports with found reports and ranks the pairings
type Engine struct {
	scorer *Scorer
	images *imagesim.Comparator
}

// EngineConfig holds configuration for the matching engine
type EngineConfig struct {
	Scorer *Scorer              // nil uses NewScorer()
	Images *imagesim.Comparator // nil disables the image signal
}

// NewEngine creates a new matching engine
func NewEngine(config EngineConfig) *Engine {
	scorer := config.Scorer
	if scorer == nil {
		scorer = NewScorer()
	}
	return &Engine{
		scorer: scorer,
		images: config.Images,
	}
}

// Scorer returns the scorer the engine was built with
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// evaluator scores one pair; a nil result means the pair is not reported
type evaluator func(r *run, p Pair, opts Options) *Result

// FindMatches scores every lost/found pair filed by different reporters and
// returns those reaching the inclusion threshold, best first. It never
// fails: invalid options or a cancelled context yield an empty list.
func (e *Engine) FindMatches(ctx context.Context, lost, found []Report, opts Options) []Result {
	return e.execute(ctx, "standard", lost, found, opts, (*run).evaluatePair)
}

// FindMatchesFor matches a single report against the active reports of the
// opposite type in pool
func (e *Engine) FindMatchesFor(ctx context.Context, report Report, pool []Report, opts Options) []Result {
	candidates := CandidatesFor(report, pool)
	if report.Type == Found {
		return e.execute(ctx, "single", candidates, []Report{report}, opts, (*run).evaluatePair)
	}
	return e.execute(ctx, "single", []Report{report}, candidates, opts, (*run).evaluatePair)
}

// EnhancedMatches ranks pairs by a weighted blend of item name, description
// and location similarity instead of the signal pipeline
func (e *Engine) EnhancedMatches(ctx context.Context, lost, found []Report, opts Options) []Result {
	return e.execute(ctx, "enhanced", lost, found, opts, (*run).evaluateComposite)
}

func (e *Engine) execute(ctx context.Context, mode string, lost, found []Report, opts Options, eval evaluator) []Result {
	debug.DebugHeader(opts.Debug)
	defer debug.DebugFooter(opts.Debug)

	start := time.Now()
	defer func() {
		metrics.RunDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	if err := opts.Validate(); err != nil {
		log.Error().Err(err).Str("mode", mode).Msg("refusing to run matcher")
		return []Result{}
	}

	set := GeneratePairs(opts.Debug, lost, found, opts.MaxComparisons)
	if set.Capped {
		metrics.ComparisonCapHits.Inc()
		log.Warn().
			Int("max_comparisons", opts.MaxComparisons).
			Int("lost", len(lost)).
			Int("found", len(found)).
			Msg("comparison cap reached, remaining pairs not scored")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	r := newRun(e)
	scored := make([]*Result, len(set.Pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range set.Pairs {
		if gctx.Err() != nil {
			break
		}
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scored[i] = r.safeEvaluate(eval, p, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Str("mode", mode).Msg("matching run cancelled")
		return []Result{}
	}
	if ctx.Err() != nil {
		return []Result{}
	}

	results := make([]Result, 0, len(scored))
	for _, res := range scored {
		if res == nil {
			continue
		}
		results = append(results, *res)
		metrics.MatchesFound.WithLabelValues(res.Tier).Inc()
	}
	SortResults(results)

	debug.DebugOutput(opts.Debug, "%s run: %d pairs scored, %d kept in %v",
		mode, len(set.Pairs), len(results), time.Since(start))
	log.Debug().
		Str("mode", mode).
		Int("pairs", len(set.Pairs)).
		Int("skipped_same_reporter", set.Skipped).
		Int("matches", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("matching run complete")

	return results
}

// sigEntry caches one image signature for the duration of a run
type sigEntry struct {
	once sync.Once
	sig  *imagesim.Signature
	err  error
}

// run holds the state shared by the pairs of one matching run
type run struct {
	engine *Engine

	mu   sync.Mutex
	sigs map[string]*sigEntry
}

func newRun(e *Engine) *run {
	return &run{engine: e, sigs: make(map[string]*sigEntry)}
}

// signature loads each image at most once per run
func (r *run) signature(ref string) (*imagesim.Signature, error) {
	r.mu.Lock()
	ent, ok := r.sigs[ref]
	if !ok {
		ent = &sigEntry{}
		r.sigs[ref] = ent
	}
	r.mu.Unlock()

	ent.once.Do(func() {
		ent.sig, ent.err = r.engine.images.Signature(ref)
	})
	return ent.sig, ent.err
}

// image returns the report's image signature when it has a readable one
func (r *run) image(rep Report) (*imagesim.Signature, bool) {
	if r.engine.images == nil || !rep.HasImageRef() {
		return nil, false
	}
	sig, err := r.signature(rep.ImageRef)
	if err != nil {
		log.Debug().Err(err).Int64("report_id", rep.ID).Msg("image unavailable, using non-image signals")
		return nil, false
	}
	return sig, true
}

// safeEvaluate isolates a pair so that a failure only drops that pair
func (r *run) safeEvaluate(eval evaluator, p Pair, opts Options) (res *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.PairFailures.Inc()
			log.Error().
				Int64("lost_id", p.Lost.ID).
				Int64("found_id", p.Found.ID).
				Str("panic", fmt.Sprint(rec)).
				Msg("failed to score pair, skipping")
			res = nil
		}
	}()
	return eval(r, p, opts)
}

// evaluatePair runs the signal pipeline: image, then identification, then
// the text baseline. The first applicable signal scoring above zero decides.
func (r *run) evaluatePair(p Pair, opts Options) *Result {
	s := r.engine.scorer
	lost, found := p.Lost, p.Found

	res := Result{LostID: lost.ID, FoundID: found.ID}
	bd := &res.Breakdown

	bd.Text = s.TextSimilarity(lost.MatchText(), found.MatchText())
	res.Percentage, res.Signal = bd.Text, SignalText

	lostImg, lostHas := r.image(lost)
	foundImg, foundHas := r.image(found)

	switch {
	case lostHas && foundHas:
		cmp := r.engine.images.CompareSignatures(lostImg, foundImg)
		metrics.ImageComparisons.WithLabelValues(string(cmp.Method)).Inc()
		bd.Image, bd.ImageMethod = cmp.Score, cmp.Method
		if cmp.Score > 0 {
			res.Percentage, res.Signal = cmp.Score, SignalImage
		}
	case !lostHas && !foundHas:
		_, ok1 := s.ExtractIdentification(lost.Description)
		_, ok2 := s.ExtractIdentification(found.Description)
		if ok1 && ok2 {
			bd.Identification = s.IdentificationSimilarity(lost.Description, found.Description)
			if bd.Identification > 0 {
				res.Percentage, res.Signal = bd.Identification, SignalIdentification
			}
		}
	}

	r.annotateLocation(&res, lost, found)
	metrics.PairsEvaluated.WithLabelValues(string(res.Signal)).Inc()
	debug.DebugOutput(opts.Debug, "Pair %d/%d: %.2f%% via %s", lost.ID, found.ID, res.Percentage, res.Signal)

	return r.admit(res, opts)
}

// evaluateComposite scores a pair by blended field similarity
func (r *run) evaluateComposite(p Pair, opts Options) *Result {
	s := r.engine.scorer
	overall, name, desc, _ := s.CompositeScore(p.Lost, p.Found)

	res := Result{
		LostID:     p.Lost.ID,
		FoundID:    p.Found.ID,
		Percentage: round2(clamp(overall*100, 0, 100)),
		Signal:     SignalComposite,
		Breakdown: Breakdown{
			Name:        round2(name * 100),
			Description: round2(desc * 100),
			Text:        s.TextSimilarity(p.Lost.MatchText(), p.Found.MatchText()),
		},
	}
	r.annotateLocation(&res, p.Lost, p.Found)
	metrics.PairsEvaluated.WithLabelValues(string(res.Signal)).Inc()

	return r.admit(res, opts)
}

func (r *run) annotateLocation(res *Result, lost, found Report) {
	s := r.engine.scorer
	ratio, group := s.LocationMatch(lost.Location, found.Location)
	res.Breakdown.Location = round2(ratio * 100)
	res.LocationGroup = group
	res.LocationMatch = group != "" || ratio > s.cfg.LocationMatchRatio
}

// admit applies the inclusion threshold and assigns the tier. Composite
// results must score strictly above the threshold.
func (r *run) admit(res Result, opts Options) *Result {
	if res.Percentage < opts.InclusionThreshold {
		return nil
	}
	if res.Signal == SignalComposite && res.Percentage == opts.InclusionThreshold {
		return nil
	}
	res.Tier = opts.Tiers.Classify(res.Percentage)
	return &res
}
