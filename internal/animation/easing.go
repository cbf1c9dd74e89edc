package animation

// EasingFunc maps linear progress in [0,1] to eased progress.
type EasingFunc func(t float64) float64

var (
	EaseLinear EasingFunc = func(t float64) float64 { return t }

	// EaseSmoothstep accelerates at the start and decelerates at the end.
	EaseSmoothstep EasingFunc = func(t float64) float64 {
		return t * t * (3.0 - 2.0*t)
	}

	EaseOutQuad EasingFunc = func(t float64) float64 {
		return t * (2.0 - t)
	}

	EaseOutCubic EasingFunc = func(t float64) float64 {
		t1 := t - 1.0
		return t1*t1*t1 + 1.0
	}

	EaseInOutCubic EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 4.0 * t * t * t
		}
		t1 := 2.0*t - 2.0
		return 1.0 + t1*t1*t1*0.5
	}

	// EaseOutBounce settles with three decaying rebounds.
	EaseOutBounce EasingFunc = func(t float64) float64 {
		const n, d = 7.5625, 2.75
		switch {
		case t < 1/d:
			return n * t * t
		case t < 2/d:
			t -= 1.5 / d
			return n*t*t + 0.75
		case t < 2.5/d:
			t -= 2.25 / d
			return n*t*t + 0.9375
		default:
			t -= 2.625 / d
			return n*t*t + 0.984375
		}
	}
)

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
