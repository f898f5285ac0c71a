package terminal

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
)

const hints = "[s]tart  [p]ause  [r]eset  [q]uit"

// Controls are the handlers behind the keyboard shortcuts.
type Controls struct {
	OnStart func()
	OnStop  func()
	OnReset func()
}

// Run draws surface into screen every frameInterval and dispatches keys
// until q, Esc or Ctrl-C is pressed or ctx is done. The caller owns screen
// and must Fini it after Run returns.
func Run(ctx context.Context, screen tcell.Screen, surface *Surface, controls Controls, frameInterval time.Duration) {
	if frameInterval <= 0 {
		frameInterval = 16 * time.Millisecond
	}
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			event := screen.PollEvent()
			if event == nil {
				return
			}
			select {
			case events <- event:
			case <-done:
				return
			}
		}
	}()

	draw(screen, surface)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			if !handle(event, screen, controls) {
				return
			}
		case <-ticker.C:
			draw(screen, surface)
		}
	}
}

func handle(event tcell.Event, screen tcell.Screen, controls Controls) bool {
	switch event := event.(type) {
	case *tcell.EventKey:
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			call(controls.OnStart)
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q', 'Q':
				return false
			case 's', 'S':
				call(controls.OnStart)
			case 'p', 'P', ' ':
				call(controls.OnStop)
			case 'r', 'R':
				call(controls.OnReset)
			}
		}
	case *tcell.EventResize:
		screen.Sync()
	}
	return true
}

func call(handler func()) {
	if handler != nil {
		handler()
	}
}

func draw(screen tcell.Screen, surface *Surface) {
	width, height := screen.Size()
	cells, text, completed := surface.frame(width, height)

	screen.Clear()
	for _, item := range cells {
		screen.SetContent(item.x, item.y, item.glyph, nil, item.style)
	}

	status := text
	statusStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	if completed {
		status += "  done"
		statusStyle = statusStyle.Foreground(tcell.ColorGreen)
	}
	x := drawString(screen, 0, height-1, status, statusStyle)
	drawString(screen, x+3, height-1, hints, tcell.StyleDefault.Foreground(tcell.ColorGray))
	screen.Show()
}

func drawString(screen tcell.Screen, x, y int, text string, style tcell.Style) int {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
