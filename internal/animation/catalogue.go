package animation

import (
	"slices"
	"time"
)

// Transform is the animatable static state of an object.
type Transform struct {
	Opacity float64 `json:"opacity"`
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
	ScaleX  float64 `json:"scaleX"`
	ScaleY  float64 `json:"scaleY"`
	Angle   float64 `json:"angle"`
}

// Env is the geometry an animation may travel across.
type Env struct {
	Width        float64 // rendered object width
	Height       float64 // rendered object height
	CanvasWidth  float64
	CanvasHeight float64
}

// Animation is a deterministic entry effect ending exactly at the base transform.
type Animation struct {
	Name     string
	Label    string
	Duration time.Duration
	Easing   EasingFunc
	Frame    func(base Transform, p float64, env Env) Transform
}

const (
	None         = "none"
	Fade         = "Fade"
	SlideInLeft  = "SlideInLeft"
	SlideInRight = "SlideInRight"
	RotateIn     = "RotateIn"
	Bounce       = "Bounce"
	ScaleIn      = "ScaleIn"
	ZoomIn       = "ZoomIn"
)

var catalogue = map[string]Animation{
	None: {Name: None, Label: "None"},
	Fade: {
		Name: Fade, Label: "Fade", Duration: 800 * time.Millisecond, Easing: EaseSmoothstep,
		Frame: func(b Transform, p float64, _ Env) Transform {
			b.Opacity = lerp(0, b.Opacity, p)
			return b
		},
	},
	SlideInLeft: {
		Name: SlideInLeft, Label: "Slide in left", Duration: 700 * time.Millisecond, Easing: EaseOutCubic,
		Frame: func(b Transform, p float64, env Env) Transform {
			b.Left = lerp(-env.Width, b.Left, p)
			return b
		},
	},
	SlideInRight: {
		Name: SlideInRight, Label: "Slide in right", Duration: 700 * time.Millisecond, Easing: EaseOutCubic,
		Frame: func(b Transform, p float64, env Env) Transform {
			b.Left = lerp(env.CanvasWidth, b.Left, p)
			return b
		},
	},
	RotateIn: {
		Name: RotateIn, Label: "Rotate in", Duration: 800 * time.Millisecond, Easing: EaseOutCubic,
		Frame: func(b Transform, p float64, _ Env) Transform {
			b.Opacity = lerp(0, b.Opacity, p)
			b.Angle = lerp(b.Angle-180, b.Angle, p)
			return b
		},
	},
	Bounce: {
		Name: Bounce, Label: "Bounce", Duration: time.Second, Easing: EaseOutBounce,
		Frame: func(b Transform, p float64, env Env) Transform {
			b.Top = lerp(b.Top-env.CanvasHeight/4, b.Top, p)
			return b
		},
	},
	ScaleIn: {
		Name: ScaleIn, Label: "Scale in", Duration: 600 * time.Millisecond, Easing: EaseOutQuad,
		Frame: func(b Transform, p float64, env Env) Transform {
			return scaledAboutCenter(b, p, env)
		},
	},
	ZoomIn: {
		Name: ZoomIn, Label: "Zoom in", Duration: 700 * time.Millisecond, Easing: EaseSmoothstep,
		Frame: func(b Transform, p float64, env Env) Transform {
			f := lerp(0.3, 1, p)
			t := scaledAboutCenter(b, f, env)
			t.Opacity = lerp(0, b.Opacity, p)
			return t
		},
	},
}

// scaledAboutCenter scales b by f while keeping the object's center fixed.
func scaledAboutCenter(b Transform, f float64, env Env) Transform {
	t := b
	t.ScaleX, t.ScaleY = b.ScaleX*f, b.ScaleY*f
	t.Left = b.Left + env.Width*(1-f)/2
	t.Top = b.Top + env.Height*(1-f)/2
	return t
}

// Lookup returns the named animation.
func Lookup(name string) (Animation, bool) {
	a, ok := catalogue[name]
	return a, ok
}

// Names returns the catalogue in display order, "none" first.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for n := range catalogue {
		if n != None {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return append([]string{None}, names...)
}

// At evaluates a at linear progress t in [0,1].
func (a Animation) At(base Transform, t float64, env Env) Transform {
	if a.Frame == nil || t >= 1 {
		return base
	}
	ease := a.Easing
	if ease == nil {
		ease = EaseSmoothstep
	}
	return a.Frame(base, ease(clamp01(t)), env)
}
