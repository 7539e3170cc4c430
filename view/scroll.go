package view

import (
	"net/url"
	"strconv"
)

// AnchorBottomThreshold is how close to the bottom, in pixels, a message
// list must be for new content to keep it pinned there.
const AnchorBottomThreshold = 50

// StickToBottom reports whether a scroll container showing
// [scrollTop, scrollTop+clientHeight] of scrollHeight should be re-anchored
// to the bottom after its content is replaced.
func StickToBottom(scrollTop, clientHeight, scrollHeight float64) bool {
	return scrollHeight-(scrollTop+clientHeight) <= AnchorBottomThreshold
}

// WithScroll sets w.StickToBottom from the scrollTop, clientHeight and
// scrollHeight query values a client sends when it refetches an open
// window. Missing or malformed values leave the window pinned.
func WithScroll(w ChatWindow, q url.Values) ChatWindow {
	w.StickToBottom = true
	var v [3]float64
	for i, key := range []string{"scrollTop", "clientHeight", "scrollHeight"} {
		f, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			return w
		}
		v[i] = f
	}
	w.StickToBottom = StickToBottom(v[0], v[1], v[2])
	return w
}
