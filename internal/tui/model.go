package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/garrettladley/bellhop/internal/notify"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/tui/components/status"
	"github.com/garrettladley/bellhop/internal/tui/page/splash"
	"github.com/garrettladley/bellhop/internal/tui/theme"
	"github.com/garrettladley/bellhop/internal/xslog"
)

var _ tea.Model = (*Model)(nil)

type page uint

const (
	splashPage page = iota
	inboxPage
)

type state struct {
	inbox InboxState
}

type Model struct {
	ready          bool
	page           page
	viewportWidth  int
	viewportHeight int
	theme          theme.Theme
	state          state
	deps           Deps
	activated      bool
}

func New(deps Deps) Model {
	if deps.Ctx == nil {
		deps.Ctx = context.Background()
	}

	m := Model{
		page:  splashPage,
		theme: theme.New(),
		deps:  deps,
	}
	if deps.Controller != nil {
		m.applyState(deps.Controller.State())
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.Tick(splash.Duration, func(time.Time) tea.Msg {
			return SplashTickMsg{}
		}),
	}
	if m.deps.States != nil {
		cmds = append(cmds, ListenStateCmd(m.deps.Ctx, m.deps.States))
	}
	if m.deps.Controller != nil {
		cmds = append(cmds, activateCmd(m.deps.Ctx, m.deps.Controller))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewportWidth = msg.Width
		m.viewportHeight = msg.Height
		m.ready = true

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())

	case SplashTickMsg:
		m.page = inboxPage

	case StateMsg:
		m.applyState(msg.State)
		return m, ListenStateCmd(m.deps.Ctx, m.deps.States)

	case ActivatedMsg:
		m.activated = true
		if msg.Err != nil {
			m.state.inbox.Err = fmt.Errorf("activate: %w", msg.Err)
		}
		m.applyState(m.deps.Controller.State())

	case ActionDoneMsg:
		m.state.inbox.Pending = ""
		m.state.inbox.Err = nil
		if msg.Err != nil {
			m.state.inbox.Err = fmt.Errorf("%s: %w", msg.Action, msg.Err)
			if m.deps.Logger != nil {
				m.deps.Logger.Warn("action failed",
					slog.String("action", string(msg.Action)),
					xslog.Error(msg.Err),
				)
			}
		}
	}

	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	// any key skips the splash
	if m.page == splashPage && key != "q" && key != "ctrl+c" {
		m.page = inboxPage
		return nil
	}

	inbox := &m.state.inbox
	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case "j", "down":
		if inbox.Cursor < len(inbox.Notifications)-1 {
			inbox.Cursor++
		}
	case "k", "up":
		if inbox.Cursor > 0 {
			inbox.Cursor--
		}
	case "enter":
		n, ok := inbox.Selected()
		if !ok || n.Read {
			return nil
		}
		id := n.ID
		return m.run(actionMarkRead, func(ctx context.Context) error {
			return m.deps.Controller.MarkAsRead(ctx, id)
		})
	case "a":
		return m.run(actionMarkAllRead, m.deps.Controller.MarkAllAsRead)
	case "c":
		return m.run(actionClear, m.deps.Controller.ClearNotifications)
	case "r":
		return m.run(actionRefresh, m.deps.Controller.Refresh)
	}
	return nil
}

// run starts a write unless one is already pending.
func (m *Model) run(a action, fn func(context.Context) error) tea.Cmd {
	if m.state.inbox.Pending != "" {
		return nil
	}
	m.state.inbox.Pending = a
	return actionCmd(m.deps.Ctx, a, fn)
}

func (m *Model) applyState(s notify.State) {
	inbox := &m.state.inbox
	inbox.Indicator = status.Indicator{
		Checked:   m.activated,
		Status:    s.Status,
		Transport: s.Transport,
	}
	inbox.Notifications = s.Notifications
	inbox.Unread = s.UnreadCount
	inbox.Cursor = min(inbox.Cursor, max(len(s.Notifications)-1, 0))
}

func (m *Model) View() tea.View {
	view := tea.NewView("")
	view.AltScreen = true

	// splash uses pure black BG, everything else uses default dark
	if m.page == splashPage {
		view.BackgroundColor = theme.ColorBlack
	} else {
		view.BackgroundColor = m.theme.Background()
	}

	if !m.ready {
		return view
	}

	switch m.page {
	case splashPage:
		view.SetContent(splash.View(m.theme, m.viewportWidth, m.viewportHeight))
	case inboxPage:
		view.SetContent(m.InboxView())
	}
	return view
}

// InboxState is what the inbox page renders.
type InboxState struct {
	Indicator     status.Indicator
	Notifications []storage.Notification
	Unread        int
	Cursor        int
	Pending       action
	Err           error
}

func (s InboxState) Selected() (storage.Notification, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Notifications) {
		return storage.Notification{}, false
	}
	return s.Notifications[s.Cursor], true
}
