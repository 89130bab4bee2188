package synth

const (
	attackTime   = 0.05 // seconds
	decayTime    = 0.1  // seconds
	sustainLevel = 0.7
	releaseRatio = 0.3 // fraction of note duration
)

// adsrEnvelope builds the amplitude envelope for a note of n samples.
// Attack and decay have fixed lengths, release takes a fixed fraction of
// the note, and whatever remains in between sustains. Stages that do not
// fit ramp across the samples they get; the release always reaches zero
// at the final sample.
func adsrEnvelope(n, rate int, duration float64) []float64 {
	env := make([]float64, n)
	attack := int(attackTime * float64(rate))
	decay := int(decayTime * float64(rate))
	release := int(releaseRatio * duration * float64(rate))

	cur := ramp(env, 0, attack, 0, 1)
	cur = ramp(env, cur, decay, 1, sustainLevel)

	if hold := n - cur - release; hold > 0 {
		for i := cur; i < cur+hold; i++ {
			env[i] = sustainLevel
		}
		cur += hold
	}
	ramp(env, cur, n-cur, sustainLevel, 0)
	return env
}

// ramp writes a linear segment from v0 to v1 over span samples starting
// at cur, clipped to the envelope, and returns the next write position.
func ramp(env []float64, cur, span int, v0, v1 float64) int {
	if cur >= len(env) || span <= 0 {
		return cur
	}
	end := cur + span
	if end > len(env) {
		end = len(env)
	}
	n := end - cur
	for j := 0; j < n; j++ {
		x := 0.0
		if n > 1 {
			x = float64(j) / float64(n-1)
		}
		env[cur+j] = v0 + (v1-v0)*x
	}
	return end
}
