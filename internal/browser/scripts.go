// internal/browser/scripts.go
package browser

// Page scripts run through Runtime.callFunctionOn (with `this` bound to the node)
// or Runtime.evaluate.
const (
	jsIsDisplayed = `function() {
		if (!this.isConnected) { return false; }
		const style = window.getComputedStyle(this);
		if (style.display === 'none' || style.visibility === 'hidden' || style.visibility === 'collapse') { return false; }
		if (parseFloat(style.opacity) === 0) { return false; }
		const rect = this.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	}`

	jsIsEnabled = `function() { return !this.disabled; }`

	jsClick = `function() { this.click(); }`

	jsClear = `function() {
		this.value = '';
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`

	jsText = `function() { return (this.innerText || this.textContent || '').trim(); }`

	// jsClickInFrames is formatted with a JSON array of lowercase words and the
	// pause in milliseconds after each click. It resolves to the number of
	// clicked elements across every reachable iframe.
	jsClickInFrames = `(async function(words, pause) {
		const lower = "translate(., 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz')";
		let clicked = 0;
		for (const frame of Array.from(document.querySelectorAll('iframe'))) {
			let doc;
			try { doc = frame.contentDocument; } catch (e) { continue; }
			if (!doc) { continue; }
			const view = doc.defaultView || window;
			for (const word of words) {
				const xp = "//button[contains(" + lower + ", '" + word + "')] | //a[contains(" + lower + ", '" + word + "')]";
				let snap;
				try { snap = doc.evaluate(xp, doc, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null); } catch (e) { continue; }
				for (let i = 0; i < snap.snapshotLength; i++) {
					const el = snap.snapshotItem(i);
					try {
						const style = view.getComputedStyle(el);
						const rect = el.getBoundingClientRect();
						if (style.display === 'none' || style.visibility === 'hidden' || rect.width === 0 || rect.height === 0) { continue; }
						el.click();
						clicked++;
					} catch (e) { continue; }
					if (pause > 0) { await new Promise(function(resolve) { setTimeout(resolve, pause); }); }
				}
			}
		}
		return clicked;
	})(%s, %d)`
)
