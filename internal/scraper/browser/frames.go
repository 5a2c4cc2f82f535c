package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// StableFor is how long a frame's DOM must stay unchanged to count as loaded.
const StableFor = 500 * time.Millisecond

// WaitForIFrames waits until the page and every visible frame below it stop
// changing. Frames that cannot be entered (cross-origin) are skipped.
func WaitForIFrames(page *rod.Page) error {
	if err := page.WaitDOMStable(StableFor, 0); err != nil {
		return fmt.Errorf("wait for dom: %w", err)
	}

	iframes, err := page.Elements("iframe")
	if err != nil {
		return nil
	}

	for _, iframe := range iframes {
		if visible, _ := iframe.Visible(); !visible {
			continue
		}
		frame, err := iframe.Frame()
		if err != nil {
			continue
		}
		if err := WaitForIFrames(frame); err != nil {
			return err
		}
	}
	return nil
}

// Frame is one node of a page's frame tree.
type Frame struct {
	Page     *rod.Page
	Name     string
	Src      string
	Visible  bool
	Children []Frame
}

// FrameTree returns the frame hierarchy rooted at page. The root is named
// "main". Children that cannot be entered keep their attributes but no Page.
func FrameTree(page *rod.Page) Frame {
	return frameTree(page, "main", "", true)
}

func frameTree(page *rod.Page, name, src string, visible bool) Frame {
	node := Frame{Page: page, Name: name, Src: src, Visible: visible}

	iframes, err := page.Elements("iframe")
	if err != nil {
		return node
	}

	for i, iframe := range iframes {
		childName := attr(iframe, "name")
		if childName == "" {
			childName = attr(iframe, "id")
		}
		if childName == "" {
			childName = fmt.Sprintf("iframe[%d]", i)
		}
		childSrc := attr(iframe, "src")
		childVisible, _ := iframe.Visible()

		frame, err := iframe.Frame()
		if err != nil {
			node.Children = append(node.Children, Frame{Name: childName, Src: childSrc, Visible: childVisible})
			continue
		}
		node.Children = append(node.Children, frameTree(frame, childName, childSrc, childVisible))
	}
	return node
}

func attr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

// InlineFrames swaps every same-origin <iframe> in the live DOM for a
// <div data-captured-iframe="true"> holding the frame's body, then returns
// the page HTML. The result parses as one flat goquery document. The live
// DOM is modified, so navigate away before interacting again.
func InlineFrames(page *rod.Page) (string, int, error) {
	iframes, err := page.Elements("iframe")
	if err != nil {
		return "", 0, fmt.Errorf("list iframes: %w", err)
	}

	count := len(iframes)
	if count > 0 {
		if _, err := page.Eval(inlineFramesJS); err != nil {
			// cross-origin frames: keep the outer document as is
			count = 0
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", 0, fmt.Errorf("read page html: %w", err)
	}
	return html, count, nil
}

const inlineFramesJS = `() => {
	function inline(root) {
		root.querySelectorAll('iframe').forEach((iframe) => {
			const box = root.createElement('div');
			box.setAttribute('data-captured-iframe', 'true');
			box.setAttribute('data-iframe-src', iframe.src || '');
			box.setAttribute('data-iframe-name', iframe.name || iframe.id || '');
			try {
				const doc = iframe.contentDocument || iframe.contentWindow.document;
				if (!doc || !doc.body) return;
				inline(doc);
				let content = '';
				if (doc.head) {
					doc.head.querySelectorAll('style').forEach((style) => {
						content += '<style data-from-iframe="true">' + style.textContent + '<\/style>';
					});
				}
				box.innerHTML = content + doc.body.innerHTML;
			} catch (e) {
				box.setAttribute('data-iframe-error', e.message);
				box.textContent = '[iframe not accessible: ' + e.message + ']';
			}
			iframe.parentNode.replaceChild(box, iframe);
		});
	}
	inline(document);
}`
