package selector

import "github.com/ibeckermayer/like4me/internal/browser"

// finder is shared by every locator script. __find returns the chosen
// candidate for a strategy, or null.
const finder = `
const __find = function(s) {
	const doc = __frameDoc(s.frames);
	if (!doc) return null;
	let root = doc;
	if (s.scope) {
		root = doc.querySelector(s.scope);
		if (!root) return null;
	}
	const all = function() {
		return Array.from(root.querySelectorAll(s.selector || '*'));
	};
	const text = function(el) {
		return (el.textContent || '').replace(/\s+/g, ' ').trim();
	};
	let candidates = [];
	try {
		switch (s.kind) {
		case 'id': {
			const el = doc.getElementById(s.value);
			candidates = el ? [el] : [];
			break;
		}
		case 'css':
			candidates = all();
			break;
		case 'attr':
			candidates = all().filter(function(el) {
				return (el.getAttribute(s.attr) || '').indexOf(s.value) !== -1;
			});
			break;
		case 'text':
			candidates = all().filter(function(el) { return text(el) === s.value; });
			break;
		case 'text_contains':
			candidates = all().filter(function(el) { return text(el).indexOf(s.value) !== -1; });
			break;
		}
	} catch (e) {
		return null;
	}
	if (s.kind === 'text' || s.kind === 'text_contains') {
		candidates = candidates.filter(function(el) {
			return !candidates.some(function(other) { return other !== el && el.contains(other); });
		});
	}
	if (s.within) {
		candidates = candidates.filter(function(el) { return el.closest(s.within) !== null; });
	}
	if (s.exclude) {
		candidates = candidates.filter(function(el) {
			return !el.matches(s.exclude) && el.closest(s.exclude) === null;
		});
	}
	if (candidates.length === 0) return null;
	return s.last ? candidates[candidates.length - 1] : candidates[0];
};
`

func elementScript(name, body string) browser.Script {
	return browser.NewScript(name, "function(args) {\n"+finder+"\nconst el = __find(args.strategy);\n"+body+"\n}")
}

var (
	resolveScript = elementScript("selector.resolve", `
	if (!el) return { found: false };
	const cls = typeof el.className === 'string' ? el.className : (el.getAttribute('class') || '');
	return {
		found: true,
		tag: el.tagName.toLowerCase(),
		id: el.id || '',
		className: cls,
		text: (el.textContent || '').replace(/\s+/g, ' ').trim().slice(0, 200),
		pressed: el.getAttribute('aria-pressed') || '',
		hasPressed: el.hasAttribute('aria-pressed')
	};`)

	clickScript = elementScript("selector.click", `
	if (!el) return { ok: false };
	el.click();
	return { ok: true };`)

	setTextScript = elementScript("selector.setText", `
	if (!el) return { ok: false };
	el.focus();
	el.textContent = args.text;
	el.dispatchEvent(new InputEvent('input', { bubbles: true, data: args.text, inputType: 'insertText' }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	el.dispatchEvent(new KeyboardEvent('keyup', { bubbles: true }));
	return { ok: true, text: el.textContent };`)

	setValueScript = elementScript("selector.setValue", `
	if (!el) return { ok: false };
	el.focus();
	const desc = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value');
	if (desc && desc.set) {
		desc.set.call(el, args.text);
	} else {
		el.value = args.text;
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return { ok: true };`)

	readTextScript = elementScript("selector.readText", `
	if (!el) return { ok: false };
	return { ok: true, text: (el.innerText || el.textContent || '').trim() };`)

	scrollScript = elementScript("selector.scrollIntoView", `
	if (!el) return { ok: false };
	el.scrollIntoView({ block: 'center', inline: 'nearest' });
	return { ok: true };`)
)
