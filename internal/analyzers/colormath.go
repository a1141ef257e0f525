package analyzers

import (
	"math"

	"github.com/accessguard/accessguard-agent/internal/snapshot"
)

// White is the opaque base every compositing chain bottoms out on when
// no opaque background is found.
var White = snapshot.Color{R: 1, G: 1, B: 1, A: 1}

// Black is exported for tests and callers that need the reference pair.
var Black = snapshot.Color{R: 0, G: 0, B: 0, A: 1}

// linearize applies the sRGB-to-linear transform to one channel in [0,1].
func linearize(c float64) float64 {
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RelativeLuminance computes the WCAG relative luminance of an opaque
// color. Result is in [0, 1]. Alpha is ignored; composite first.
func RelativeLuminance(c snapshot.Color) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

// ContrastRatio computes the WCAG contrast ratio between two opaque
// colors. The lighter color is picked by luminance, never by argument
// order, so the result is symmetric and always >= 1.
func ContrastRatio(a, b snapshot.Color) float64 {
	la := RelativeLuminance(a)
	lb := RelativeLuminance(b)
	lighter, darker := la, lb
	if lb > la {
		lighter, darker = lb, la
	}
	return (lighter + 0.05) / (darker + 0.05)
}

// CompositeOver alpha-composites fg over bg using the standard "over"
// operator. Channel math assumes non-premultiplied colors.
func CompositeOver(fg, bg snapshot.Color) snapshot.Color {
	a := fg.A + bg.A*(1-fg.A)
	if a == 0 {
		return snapshot.Color{A: 0}
	}
	blend := func(f, b float64) float64 {
		return (f*fg.A + b*bg.A*(1-fg.A)) / a
	}
	return snapshot.Color{
		R: blend(fg.R, bg.R),
		G: blend(fg.G, bg.G),
		B: blend(fg.B, bg.B),
		A: a,
	}
}

// Flatten resolves a paint-order chain of possibly translucent colors to
// one opaque color. layers[0] is the topmost paint; deeper layers follow.
// If the chain never reaches full opacity it is composited onto white.
func Flatten(layers ...snapshot.Color) snapshot.Color {
	out := snapshot.Color{A: 0}
	for _, layer := range layers {
		out = CompositeOver(out, layer)
		if out.A >= 1 {
			out.A = 1
			return out
		}
	}
	return CompositeOver(out, White)
}
