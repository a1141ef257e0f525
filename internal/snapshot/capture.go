package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// CaptureOptions controls the headless-browser session used to build a
// snapshot. Zero values fall back to the defaults below.
type CaptureOptions struct {
	Timeout        time.Duration
	ViewportWidth  int64
	ViewportHeight int64
}

const (
	defaultCaptureTimeout = 60 * time.Second
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
)

// Capture renders a URL in headless Chrome and extracts a PageSnapshot.
// This is the acquisition collaborator: the audit engine itself never
// drives a browser and consumes only the returned snapshot.
func Capture(ctx context.Context, url string, opts CaptureOptions) (*PageSnapshot, error) {
	if opts.Timeout == 0 {
		opts.Timeout = defaultCaptureTimeout
	}
	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = defaultViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = defaultViewportHeight
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, opts.Timeout)
	defer cancelRun()

	var elements []ElementNode
	err := chromedp.Run(runCtx,
		emulation.SetDeviceMetricsOverride(opts.ViewportWidth, opts.ViewportHeight, 1.0, false),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(extractScript, &elements),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}

	snap := &PageSnapshot{
		URL: url,
		Viewport: Box{
			W: float64(opts.ViewportWidth),
			H: float64(opts.ViewportHeight),
		},
		Elements: elements,
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("capture %s: %w", url, err)
	}
	return snap, nil
}

// extractScript walks the rendered DOM and emits the element records the
// engine consumes. Color resolution (including effective backgrounds via
// ancestor walk) happens here so the engine only ever sees concrete
// RGBA values.
const extractScript = `(() => {
	const parseColor = (str) => {
		if (!str) return null;
		const m = str.match(/rgba?\(([^)]+)\)/);
		if (!m) return null;
		const parts = m[1].split(',').map(s => parseFloat(s.trim()));
		if (parts.length < 3 || parts.some(isNaN)) return null;
		return {
			r: parts[0] / 255,
			g: parts[1] / 255,
			b: parts[2] / 255,
			a: parts.length > 3 ? parts[3] : 1,
		};
	};

	const effectiveBackground = (el) => {
		let node = el;
		while (node && node !== document.documentElement) {
			const c = parseColor(getComputedStyle(node).backgroundColor);
			if (c && c.a > 0) return c;
			node = node.parentElement;
		}
		return { r: 1, g: 1, b: 1, a: 1 };
	};

	const cssPath = (el) => {
		const parts = [];
		let node = el;
		while (node && node.nodeType === 1 && parts.length < 6) {
			let part = node.tagName.toLowerCase();
			if (node.id) {
				parts.unshift(part + '#' + node.id);
				break;
			}
			const siblings = node.parentElement
				? Array.from(node.parentElement.children).filter(s => s.tagName === node.tagName)
				: [];
			if (siblings.length > 1) {
				part += ':nth-of-type(' + (siblings.indexOf(node) + 1) + ')';
			}
			parts.unshift(part);
			node = node.parentElement;
		}
		return parts.join(' > ');
	};

	const indicator = (style) => ({
		outline: style.outlineStyle === 'none' || style.outlineWidth === '0px' ? '' : style.outline,
		outline_color: parseColor(style.outlineColor),
		box_shadow: style.boxShadow === 'none' ? '' : style.boxShadow,
		box_shadow_color: parseColor(style.boxShadow),
		border_color: parseColor(style.borderTopColor),
	});

	const isVisible = (el, style, rect) => {
		if (style.display === 'none' || style.visibility === 'hidden') return false;
		if (parseFloat(style.opacity) === 0) return false;
		return rect.width > 0 && rect.height > 0;
	};

	const selector = 'p, h1, h2, h3, h4, h5, h6, span, li, td, th, label, a, button, input, select, textarea, [tabindex]';
	const nodes = Array.from(document.querySelectorAll(selector));
	const out = [];

	nodes.forEach((el, i) => {
		const style = getComputedStyle(el);
		const rect = el.getBoundingClientRect();
		const tag = el.tagName.toLowerCase();

		const record = {
			index: i,
			tag: tag,
			text: (el.innerText || el.value || '').trim().slice(0, 200),
			selector: cssPath(el),
			dom_id: el.id || '',
			href: tag === 'a' ? (el.getAttribute('href') || '') : '',
			style: {
				foreground: parseColor(style.color),
				background: effectiveBackground(el),
				adjacent: el.parentElement ? effectiveBackground(el.parentElement) : null,
				adjacent_text: (tag === 'a' && el.parentElement)
					? parseColor(getComputedStyle(el.parentElement).color)
					: null,
				font_size_px: parseFloat(style.fontSize) || 0,
				font_weight: parseInt(style.fontWeight, 10) || 400,
				has_non_color_cue: style.textDecorationLine.includes('underline') ||
					el.querySelector('svg, img, i') !== null,
			},
			default_state: indicator(style),
			box: { x: rect.x, y: rect.y, w: rect.width, h: rect.height },
			visible: isVisible(el, style, rect),
		};

		if (el.hasAttribute('tabindex')) {
			const ti = parseInt(el.getAttribute('tabindex'), 10);
			if (!isNaN(ti)) record.tab_index = ti;
		}

		// Focused-state variant: focus, re-read, restore.
		const active = document.activeElement;
		try {
			el.focus({ preventScroll: true });
			record.focused_state = indicator(getComputedStyle(el));
		} catch (e) {
			record.focused_state = record.default_state;
		}
		if (active && active.focus) active.focus({ preventScroll: true });

		out.push(record);
	});

	return out;
})()`
