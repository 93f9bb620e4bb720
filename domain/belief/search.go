package belief

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"mezzanine/domain/core"

	"golang.org/x/sync/errgroup"
)

// Question is a candidate subject to ask about and its value of information
// in bits.
type Question[S any] struct {
	Subject S
	Value   float64
}

// Informative reports whether asking the question is expected to reduce
// uncertainty at all. A best question that is not informative means the
// remaining hypotheses cannot be told apart by any subject considered.
func (q Question[S]) Informative() bool {
	return q.Value > 0
}

// SearchConfig tunes the anytime random search. Larger sample caps buy
// better questions with more computation.
type SearchConfig struct {
	// DesiredBits stops the search early once a question worth more than
	// this many bits has been found.
	DesiredBits float64
	// SampleCap bounds the number of subjects drawn.
	SampleCap int
}

// DefaultSearchConfig returns the settings used by the triangle game.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{DesiredBits: 0.95, SampleCap: 300}
}

// BurningQuestion scans subjects and returns the one with the greatest value
// of information. Ties go to the subject encountered first.
func (d *Distribution[S, H]) BurningQuestion(subjects []S) (Question[S], error) {
	if len(subjects) == 0 {
		return Question[S]{}, core.NewConfigurationError("no candidate subjects to ask about")
	}
	best := Question[S]{Subject: subjects[0], Value: math.Inf(-1)}
	for _, subject := range subjects {
		value := d.ValueOfInformation(subject)
		if value > best.Value {
			best = Question[S]{Subject: subject, Value: value}
		}
	}
	return best, nil
}

// BurningQuestionParallel returns the same question as BurningQuestion but
// evaluates candidates on up to workers goroutines. A non-positive worker
// count uses GOMAXPROCS.
func (d *Distribution[S, H]) BurningQuestionParallel(ctx context.Context, subjects []S, workers int) (Question[S], error) {
	if len(subjects) == 0 {
		return Question[S]{}, core.NewConfigurationError("no candidate subjects to ask about")
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(subjects) + workers - 1) / workers

	values := make([]float64, len(subjects))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(subjects); start += chunk {
		start, end := start, min(start+chunk, len(subjects))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				values[i] = d.ValueOfInformation(subjects[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Question[S]{}, err
	}

	best := 0
	for i, value := range values {
		if value > values[best] {
			best = i
		}
	}
	return Question[S]{Subject: subjects[best], Value: values[best]}, nil
}

// SampledBurningQuestion draws subjects from sampler until it finds one worth
// more than config.DesiredBits or has drawn config.SampleCap of them, and
// returns the best seen. The search is incomplete: a better question may
// exist that was never drawn.
func (d *Distribution[S, H]) SampledBurningQuestion(sampler Sampler[S], rng *rand.Rand, config SearchConfig) (Question[S], error) {
	if sampler == nil || rng == nil {
		return Question[S]{}, core.NewConfigurationError("sampled search needs a sampler and a random source")
	}
	if config.SampleCap <= 0 {
		return Question[S]{}, core.NewConfigurationError("sample cap must be positive")
	}

	subject := sampler.Sample(rng)
	best := Question[S]{Subject: subject, Value: d.ValueOfInformation(subject)}
	for samples := 1; best.Value <= config.DesiredBits && samples < config.SampleCap; samples++ {
		subject = sampler.Sample(rng)
		if value := d.ValueOfInformation(subject); value > best.Value {
			best = Question[S]{Subject: subject, Value: value}
		}
	}
	return best, nil
}
