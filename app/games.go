package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"mezzanine/domain/belief"
	"mezzanine/domain/core"
	"mezzanine/domain/number"
	"mezzanine/domain/triangle"
	"mezzanine/internal/metrics"
)

// Game names
const (
	GameNumber   = "number"
	GameTriangle = "triangle"
)

// Settings tunes how games build their priors and choose questions
type Settings struct {
	DefaultGame  string
	DefaultBound int
	// MaxBound caps the number game bound; its hypothesis space grows with
	// the fourth power of the bound.
	MaxBound int

	Search belief.SearchConfig
	// SubstantialitySamples caps the random studies drawn per candidate join
	// while building the triangle prior.
	SubstantialitySamples int
	// Workers bounds the parallel exhaustive search of the number game.
	Workers  int
	Triangle triangle.Domain
}

// DefaultSettings mirrors the defaults of internal/config
func DefaultSettings() Settings {
	return Settings{
		DefaultGame:           GameTriangle,
		DefaultBound:          30,
		MaxBound:              60,
		Search:                belief.DefaultSearchConfig(),
		SubstantialitySamples: 300,
		Triangle:              triangle.DefaultDomain(),
	}
}

// JSONCodec stores subjects with encoding/json
func JSONCodec[S any]() SubjectCodec[S] {
	return SubjectCodec[S]{
		Encode: func(subject S) ([]byte, error) { return json.Marshal(subject) },
		Decode: func(data []byte) (S, error) {
			var subject S
			err := json.Unmarshal(data, &subject)
			return subject, err
		},
	}
}

// NewNumberGame builds the classic game over 1..bound: an ignorance prior
// over the standard divisibility and range hypotheses and their
// informative joins, questioned by exhaustive search over every number.
func NewNumberGame(bound int, settings Settings) (*Session[number.Number, number.Hypothesis], error) {
	if bound < 2 {
		return nil, core.NewConfigurationError("number game bound must be at least 2")
	}
	if settings.MaxBound > 0 && bound > settings.MaxBound {
		return nil, core.NewConfigurationError(fmt.Sprintf("number game bound %d exceeds the maximum of %d", bound, settings.MaxBound))
	}
	workers := settings.Workers
	prior, err := belief.IgnorancePrior[number.Number, number.Hypothesis](number.StandardHypotheses(bound))
	if err != nil {
		return nil, err
	}
	universe := number.Domain{Bound: bound}.Universe()
	choose := func(ctx context.Context, beliefs *belief.Distribution[number.Number, number.Hypothesis], _ int) (belief.Question[number.Number], error) {
		return beliefs.BurningQuestionParallel(ctx, universe, workers)
	}
	return NewSession[number.Number, number.Hypothesis](prior, timed(GameNumber, choose), JSONCodec[number.Number]())
}

// NewTriangleGame builds triangle science: a complexity prior over the
// standard triangle hypotheses, questioned by anytime random search over
// sampled studies. priorRNG and searchRNG must be independent streams so
// that the prior can be rebuilt on resume. The search for each question
// draws from its own source, seeded from searchRNG and the question index,
// so a resumed session samples the studies it sampled before.
func NewTriangleGame(priorRNG, searchRNG *rand.Rand, settings Settings) (*Session[triangle.Study, triangle.Hypothesis], error) {
	if priorRNG == nil || searchRNG == nil {
		return nil, core.NewConfigurationError("triangle game needs prior and search random streams")
	}
	domain := settings.Triangle
	if domain.MaxStacks < 1 || domain.MaxHeight < 1 {
		return nil, core.NewConfigurationError("study dimensions must be positive")
	}
	prior, err := belief.ComplexityPrior[triangle.Study, triangle.Basic](
		triangle.StandardBasics(), domain, priorRNG, settings.SubstantialitySamples)
	if err != nil {
		return nil, err
	}
	search := settings.Search
	searchSeed := searchRNG.Int63()
	choose := func(ctx context.Context, beliefs *belief.Distribution[triangle.Study, triangle.Hypothesis], asked int) (belief.Question[triangle.Study], error) {
		if err := ctx.Err(); err != nil {
			return belief.Question[triangle.Study]{}, err
		}
		rng := rand.New(rand.NewSource(searchSeed + int64(asked)))
		return beliefs.SampledBurningQuestion(domain, rng, search)
	}
	return NewSession[triangle.Study, triangle.Hypothesis](prior, timed(GameTriangle, choose), JSONCodec[triangle.Study]())
}

// timed records how long choose takes to pick each question
func timed[S any, H belief.Hypothesis[S]](game string, choose QuestionChooser[S, H]) QuestionChooser[S, H] {
	return func(ctx context.Context, beliefs *belief.Distribution[S, H], asked int) (belief.Question[S], error) {
		start := time.Now()
		question, err := choose(ctx, beliefs, asked)
		metrics.RecordQuestionLatency(game, time.Since(start).Seconds())
		return question, err
	}
}
