package belief

import "fmt"

// Observation is one answered question: the subject shown and whether it has
// the property.
type Observation[S any] struct {
	Subject S
	Verdict bool
}

// Fold conditions prior on each observation in turn and returns every
// snapshot along the way, prior first. On collapse it returns the snapshots
// computed so far together with the error, so the caller can keep the last
// consistent belief state.
func Fold[S any, H Hypothesis[S]](prior *Distribution[S, H], observations []Observation[S]) ([]*Distribution[S, H], error) {
	snapshots := make([]*Distribution[S, H], 0, len(observations)+1)
	snapshots = append(snapshots, prior)
	current := prior
	for i, obs := range observations {
		next, err := current.Updated(obs.Subject, obs.Verdict)
		if err != nil {
			return snapshots, fmt.Errorf("observation %d: %w", i+1, err)
		}
		snapshots = append(snapshots, next)
		current = next
	}
	return snapshots, nil
}

func describeSubject(subject any) string {
	return fmt.Sprint(subject)
}
