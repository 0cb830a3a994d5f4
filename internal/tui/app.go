// Package tui provides a terminal dashboard for watching statbot sessions.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mnordvik/statbot/pkg/api"
	"github.com/mnordvik/statbot/pkg/client"
)

// App is the session dashboard. It polls the statbot REST API and displays
// sessions in a navigable table with an optional transcript panel.
type App struct {
	app         *tview.Application
	pages       *tview.Pages
	header      *tview.TextView
	footer      *tview.TextView
	table       *tview.Table
	filterInput *tview.InputField
	detailView  *tview.TextView
	layout      *tview.Flex
	mainFlex    *tview.Flex

	client     *client.Client
	serverAddr string
	filter     string

	// Cached data from the last successful refresh.
	sessions []api.Session
	lastErr  error

	mu sync.Mutex

	detailOpen bool
	filterOpen bool
}

// NewApp creates a new dashboard connected to the given statbot server.
func NewApp(serverAddr string) *App {
	a := &App{
		app:        tview.NewApplication(),
		client:     client.New(serverAddr),
		serverAddr: serverAddr,
	}

	// -- Header --
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)

	// -- Footer --
	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	// -- Table --
	a.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0). // header row stays fixed
		SetSeparator(tview.Borders.Vertical)
	a.table.SetBorder(false)
	a.table.SetBorderPadding(0, 0, 1, 1)

	// -- Filter input --
	a.filterInput = tview.NewInputField().
		SetLabel(" Filter: ").
		SetFieldWidth(40).
		SetFieldBackgroundColor(tcell.ColorBlack).
		SetLabelColor(tcell.ColorYellow)

	a.filterInput.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			a.mu.Lock()
			a.filter = a.filterInput.GetText()
			a.mu.Unlock()
			a.hideFilter()
			a.updateTable()
			a.app.SetFocus(a.table)
		case tcell.KeyEscape:
			a.mu.Lock()
			a.filter = ""
			a.mu.Unlock()
			a.filterInput.SetText("")
			a.hideFilter()
			a.updateTable()
			a.app.SetFocus(a.table)
		}
	})

	// -- Transcript panel --
	a.detailView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	a.detailView.SetBorder(true).
		SetTitle(" Transcript ").
		SetBorderColor(tcell.ColorDodgerBlue)

	contentFlex := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(a.table, 0, 1, true)

	a.mainFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(contentFlex, 0, 1, true).
		AddItem(a.footer, 1, 0, false)

	a.layout = contentFlex

	a.pages = tview.NewPages().
		AddPage("main", a.mainFlex, true, true)

	a.updateHeader()
	a.updateFooter()
	a.setupKeyBindings()

	a.app.SetRoot(a.pages, true).SetFocus(a.table)

	return a
}

// Run starts the background refresh goroutine and runs the TUI event loop.
func (a *App) Run() error {
	// Initial synchronous refresh so the table is populated before the
	// first render.
	a.refresh()
	a.updateTable()

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			a.refresh()
			a.app.QueueUpdateDraw(func() {
				a.updateTable()
			})
		}
	}()

	return a.app.Run()
}

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

func (a *App) setupKeyBindings() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// When the filter input has focus, let it handle its own keys.
		if a.filterOpen {
			return event
		}

		// When the transcript panel is open, Escape closes it.
		if a.detailOpen && event.Key() == tcell.KeyEscape {
			a.hideDetail()
			return nil
		}

		switch event.Key() {
		case tcell.KeyRune:
			switch event.Rune() {
			case '/':
				a.showFilter()
				return nil
			case 'q':
				a.app.Stop()
				return nil
			case 'r':
				go func() {
					a.refresh()
					a.app.QueueUpdateDraw(func() {
						a.updateTable()
					})
				}()
				return nil
			case 'd':
				a.confirmDelete()
				return nil
			case 'j':
				row, _ := a.table.GetSelection()
				if row < a.table.GetRowCount()-1 {
					a.table.Select(row+1, 0)
				}
				return nil
			case 'k':
				row, _ := a.table.GetSelection()
				if row > 1 { // row 0 is the header
					a.table.Select(row-1, 0)
				}
				return nil
			}
		case tcell.KeyEnter:
			a.showDetail()
			return nil
		case tcell.KeyEscape:
			if a.filter != "" {
				a.mu.Lock()
				a.filter = ""
				a.mu.Unlock()
				a.updateTable()
			}
			return nil
		}

		return event
	})
}

// ---------------------------------------------------------------------------
// Data refresh
// ---------------------------------------------------------------------------

func (a *App) refresh() {
	sessions, err := a.client.ListSessions("")
	a.mu.Lock()
	a.sessions = sessions
	a.lastErr = err
	a.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Table rendering
// ---------------------------------------------------------------------------

func (a *App) updateTable() {
	selected, _ := a.table.GetSelection()
	a.table.Clear()

	a.mu.Lock()
	sessions := a.sessions
	filter := strings.ToLower(a.filter)
	err := a.lastErr
	a.mu.Unlock()

	if err != nil {
		a.setTableHeaders([]string{"ERROR"})
		a.table.SetCell(1, 0,
			tview.NewTableCell(fmt.Sprintf("Error: %v", err)).
				SetTextColor(tcell.ColorRed))
		return
	}

	a.setTableHeaders([]string{"ID", "QUESTION", "PHASE", "ITERATIONS", "AGE"})

	row := 1
	for _, s := range sessions {
		phase := string(s.Status.Phase)
		iterations := fmt.Sprintf("%d", s.Status.Iterations)
		age := formatAge(s.Metadata.CreatedAt)

		if !matchesFilter(filter, s.Metadata.ID, s.Spec.Question, phase) {
			continue
		}

		a.table.SetCell(row, 0, tview.NewTableCell(shortID(s.Metadata.ID)).SetExpansion(1))
		a.table.SetCell(row, 1, tview.NewTableCell(s.Spec.Question).SetExpansion(3))
		a.table.SetCell(row, 2, tview.NewTableCell(phase).
			SetTextColor(phaseColor(phase)).SetExpansion(1))
		a.table.SetCell(row, 3, tview.NewTableCell(iterations).SetExpansion(1))
		a.table.SetCell(row, 4, tview.NewTableCell(age).SetExpansion(1))
		row++
	}

	// Keep the selection stable across refreshes.
	if a.table.GetRowCount() > 1 {
		if selected < 1 || selected >= a.table.GetRowCount() {
			selected = 1
		}
		a.table.Select(selected, 0)
	}
}

func (a *App) setTableHeaders(headers []string) {
	for col, h := range headers {
		cell := tview.NewTableCell(h).
			SetTextColor(tcell.ColorWhite).
			SetBackgroundColor(tcell.ColorDarkCyan).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false).
			SetExpansion(1)
		a.table.SetCell(0, col, cell)
	}
}

// matchesFilter returns true if any of the values contain the filter string.
func matchesFilter(filter string, values ...string) bool {
	if filter == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), filter) {
			return true
		}
	}
	return false
}

// selectedSession resolves the table selection back to a full session.
func (a *App) selectedSession() *api.Session {
	row, _ := a.table.GetSelection()
	if row < 1 || row >= a.table.GetRowCount() {
		return nil
	}
	id := a.table.GetCell(row, 0).Text

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.sessions {
		if shortID(a.sessions[i].Metadata.ID) == id {
			return &a.sessions[i]
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transcript panel
// ---------------------------------------------------------------------------

func (a *App) showDetail() {
	sess := a.selectedSession()
	if sess == nil {
		return
	}

	var detail string
	full, err := a.client.GetSession(sess.Metadata.ID)
	if err != nil {
		detail = fmt.Sprintf("[red]Error: %v[-]", err)
	} else {
		detail = formatTranscript(full)
	}

	a.detailView.Clear()
	a.detailView.SetText(detail)
	a.detailView.ScrollToBeginning()

	if !a.detailOpen {
		a.layout.AddItem(a.detailView, 0, 1, false)
		a.detailOpen = true
	}
}

func (a *App) hideDetail() {
	if a.detailOpen {
		a.layout.RemoveItem(a.detailView)
		a.detailOpen = false
		a.app.SetFocus(a.table)
	}
}

func formatTranscript(sess *api.Session) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[::b]ID:[-::-]         %s\n", sess.Metadata.ID))
	b.WriteString(fmt.Sprintf("[::b]Question:[-::-]   %s\n", sess.Spec.Question))
	b.WriteString(fmt.Sprintf("[::b]Phase:[-::-]      [%s]%s[-]\n",
		phaseColorName(string(sess.Status.Phase)), sess.Status.Phase))
	if sess.Status.Model != "" {
		b.WriteString(fmt.Sprintf("[::b]Model:[-::-]      %s\n", sess.Status.Model))
	}
	b.WriteString(fmt.Sprintf("[::b]Iterations:[-::-] %d\n", sess.Status.Iterations))
	b.WriteString(fmt.Sprintf("[::b]Created:[-::-]    %s\n", sess.Metadata.CreatedAt.Format(time.RFC3339)))
	if !sess.Status.FinishedAt.IsZero() {
		b.WriteString(fmt.Sprintf("[::b]Finished:[-::-]   %s\n", sess.Status.FinishedAt.Format(time.RFC3339)))
	}

	for _, t := range sess.Status.Turns {
		b.WriteString(fmt.Sprintf("\n[yellow][::b]Iteration %d[-::-]", t.Index+1))
		if t.Terminal {
			b.WriteString(" [green](final)[-]")
		}
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(t.Output))
		b.WriteString("\n")
		if t.Action != nil {
			b.WriteString(fmt.Sprintf("[::b]Action:[-::-] %s(%s)\n",
				t.Action.Tool, strings.Join(t.Action.Args, ", ")))
		}
		if t.Observation != "" {
			b.WriteString(fmt.Sprintf("[::b]Observation:[-::-] %s\n", t.Observation))
		}
	}

	if sess.Status.Answer != "" {
		b.WriteString(fmt.Sprintf("\n[green][::b]Answer:[-::-]\n%s[-]\n", sess.Status.Answer))
	}
	if sess.Status.Error != "" {
		b.WriteString(fmt.Sprintf("\n[red][::b]Error:[-::-]\n%s[-]\n", sess.Status.Error))
	}

	return b.String()
}

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func (a *App) showFilter() {
	if a.filterOpen {
		return
	}
	a.filterOpen = true
	a.filterInput.SetText(a.filter)

	// Replace footer with filter input in the main vertical flex.
	a.mainFlex.RemoveItem(a.footer)
	a.mainFlex.AddItem(a.filterInput, 1, 0, true)
	a.app.SetFocus(a.filterInput)
}

func (a *App) hideFilter() {
	if !a.filterOpen {
		return
	}
	a.filterOpen = false

	a.mainFlex.RemoveItem(a.filterInput)
	a.mainFlex.AddItem(a.footer, 1, 0, false)
	a.app.SetFocus(a.table)
}

// ---------------------------------------------------------------------------
// Delete with confirmation
// ---------------------------------------------------------------------------

func (a *App) confirmDelete() {
	sess := a.selectedSession()
	if sess == nil {
		return
	}
	id := sess.Metadata.ID

	modal := tview.NewModal().
		SetText(fmt.Sprintf("Delete session \"%s\"?", shortID(id))).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			if buttonLabel == "Delete" {
				a.deleteSession(id)
			}
			a.pages.RemovePage("confirm")
			a.app.SetFocus(a.table)
		})
	modal.SetBackgroundColor(tcell.ColorDarkRed)

	a.pages.AddPage("confirm", modal, true, true)
}

func (a *App) deleteSession(id string) {
	if err := a.client.DeleteSession(id); err != nil {
		a.footer.SetText(fmt.Sprintf(" [red]Delete failed: %v[-]", err))
		go func() {
			time.Sleep(3 * time.Second)
			a.app.QueueUpdateDraw(func() {
				a.updateFooter()
			})
		}()
		return
	}

	go func() {
		a.refresh()
		a.app.QueueUpdateDraw(func() {
			a.updateTable()
		})
	}()
}

// ---------------------------------------------------------------------------
// Header & Footer
// ---------------------------------------------------------------------------

func (a *App) updateHeader() {
	filterInfo := ""
	a.mu.Lock()
	if a.filter != "" {
		filterInfo = fmt.Sprintf(" | [yellow]filter: %s[-]", a.filter)
	}
	a.mu.Unlock()

	a.header.SetText(fmt.Sprintf(" [::b]Statbot[::-] | %s | Sessions%s",
		a.serverAddr, filterInfo))
}

func (a *App) updateFooter() {
	a.footer.SetText(" [yellow]<enter>[white]Transcript  [yellow]<d>[white]Delete  [yellow]</>[white]Filter  [yellow]<q>[white]Quit  [yellow]<r>[white]Refresh  [yellow]<esc>[white]Back")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatAge returns a human-readable duration string since the given time.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// phaseColor returns the tcell color appropriate for a session phase.
func phaseColor(phase string) tcell.Color {
	switch phase {
	case string(api.SessionCompleted):
		return tcell.ColorGreen
	case string(api.SessionRunning):
		return tcell.ColorYellow
	case string(api.SessionPending):
		return tcell.ColorWhite
	case string(api.SessionFailed):
		return tcell.ColorRed
	case string(api.SessionExhausted):
		return tcell.ColorFuchsia
	default:
		return tcell.ColorWhite
	}
}

// phaseColorName returns the tview color tag name for a session phase.
func phaseColorName(phase string) string {
	switch phase {
	case string(api.SessionCompleted):
		return "green"
	case string(api.SessionRunning):
		return "yellow"
	case string(api.SessionPending):
		return "white"
	case string(api.SessionFailed):
		return "red"
	case string(api.SessionExhausted):
		return "fuchsia"
	default:
		return "white"
	}
}
