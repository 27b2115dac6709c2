package nav

import (
	"tubenav/cursor"
	"tubenav/dom"
)

// PlayerSelectors locate the primary video viewer on a watch page, in order.
var PlayerSelectors = []string{
	`#player-container`,
	`#movie_player`,
	`#ytd-player`,
	`video`,
	`#player`,
	`.html5-video-player`,
	`#primary #player-theater-container`,
}

// focusPlayer clears the selection highlight and brings the player into view,
// or scrolls to the top of the page when no player is rendered. The cursor is
// parked on the first item.
func (c *Controller) focusPlayer() {
	c.presenter.Clear(c.doc)
	c.state.Cursor = cursor.At(0).Clamp(len(c.state.Items))

	player := c.findPlayer()
	if player == nil {
		if err := c.doc.ScrollToTop(); err != nil {
			c.log.V(2).Info("scrolling to top", "error", err.Error())
		}
		return
	}
	if err := player.ScrollIntoView(dom.ScrollStart); err != nil {
		c.log.V(2).Info("scrolling player into view", "error", err.Error())
	}
	video, err := player.Query("video")
	if err != nil || video == nil {
		return
	}
	if err := video.Focus(); err != nil {
		c.log.V(2).Info("focusing video", "error", err.Error())
	}
}

func (c *Controller) findPlayer() dom.Element {
	for _, sel := range PlayerSelectors {
		el, err := c.doc.Query(sel)
		if err != nil || el == nil {
			continue
		}
		r, err := el.Rect()
		if err == nil && r.Height > 0 {
			return el
		}
	}
	return nil
}
