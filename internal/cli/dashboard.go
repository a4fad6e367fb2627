package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

// dashboardModel is the interactive board. The cursor acts as the pointer:
// space picks up the card under it, moving the cursor drags the card over
// other cards and columns, and space again drops it.
type dashboardModel struct {
	engine *core.Engine
	view   core.View
	mode   core.SortMode
	ctx    context.Context

	width  int
	height int

	cols []core.Column
	col  int
	row  int

	drag   *core.DragController
	status string
	err    error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	draggingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("166")).Bold(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	archivedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel(ctx context.Context, engine *core.Engine, v core.View, mode core.SortMode) dashboardModel {
	m := dashboardModel{engine: engine, view: v, mode: mode, ctx: ctx}
	m.reload()
	return m
}

func (m dashboardModel) Init() tea.Cmd {
	return nil
}

// reload rereads the columns and clamps the cursor.
func (m *dashboardModel) reload() {
	Lock.Lock()
	m.cols = m.engine.Columns(m.view, m.mode)
	Lock.Unlock()
	m.clamp()
}

func (m *dashboardModel) clamp() {
	if len(m.cols) == 0 {
		m.col, m.row = 0, 0
		return
	}
	m.col = max(0, min(m.col, len(m.cols)-1))
	n := len(m.cols[m.col].Tasks)
	if n == 0 {
		m.row = 0
		return
	}
	m.row = max(0, min(m.row, n-1))
}

// selected returns the task under the cursor, or nil over an empty column.
func (m dashboardModel) selected() *models.Task {
	if m.col >= len(m.cols) || m.row >= len(m.cols[m.col].Tasks) {
		return nil
	}
	return m.cols[m.col].Tasks[m.row]
}

// targets reports what lies under the cursor for the drag controller. A
// card under the cursor is preferred over its column.
func (m dashboardModel) targets() []core.DropTarget {
	if m.col >= len(m.cols) {
		return nil
	}
	var out []core.DropTarget
	if t := m.selected(); t != nil {
		out = append(out, core.CardTarget(t.ID))
	}
	return append(out, core.ColumnTarget(m.cols[m.col].Status))
}

// follow puts the cursor on the dragged card after a move.
func (m *dashboardModel) follow(id string) {
	for c, col := range m.cols {
		if r := slices.IndexFunc(col.Tasks, func(t *models.Task) bool { return t.ID == id }); r >= 0 {
			m.col, m.row = c, r
			return
		}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		if m.drag != nil {
			m.drop(nil)
		}
		return m, tea.Quit
	case "esc":
		if m.drag != nil {
			// Nothing under the pointer: the board keeps the last move.
			m.drop(nil)
			return m, nil
		}
		return m, tea.Quit
	case "left", "h", "shift+tab":
		m.col--
		m.clamp()
		m.hover()
	case "right", "l", "tab":
		m.col++
		m.clamp()
		m.hover()
	case "up", "k":
		m.row--
		m.clamp()
		m.hover()
	case "down", "j":
		m.row++
		m.clamp()
		m.hover()
	case " ", "enter":
		if m.drag == nil {
			m.pickUp()
		} else {
			m.drop(m.targets())
		}
	case "s":
		if m.drag == nil {
			i := slices.Index(core.SortModes, m.mode)
			m.mode = core.SortModes[(i+1)%len(core.SortModes)]
			m.status = "sort: " + string(m.mode)
			m.reload()
		}
	case "r":
		if m.drag == nil {
			m.refresh()
		}
	}
	return m, nil
}

func (m *dashboardModel) pickUp() {
	t := m.selected()
	if t == nil {
		return
	}
	d := m.engine.NewDrag(m.view)
	Lock.Lock()
	err := d.Start(t.ID)
	Lock.Unlock()
	if err != nil {
		m.err = err
		return
	}
	m.drag = d
	m.err = nil
	m.status = "dragging " + t.Title
}

// hover reports the cursor position to an active drag and keeps the cursor
// on the same spot while the columns change under it.
func (m *dashboardModel) hover() {
	if m.drag == nil {
		return
	}
	col, row := m.col, m.row
	Lock.Lock()
	m.drag.Over(m.ctx, m.targets())
	Lock.Unlock()
	m.reload()
	m.col, m.row = col, row
	m.clamp()
}

func (m *dashboardModel) drop(targets []core.DropTarget) {
	id := m.drag.Active()
	Lock.Lock()
	outcome := m.drag.End(m.ctx, targets)
	Lock.Unlock()
	m.drag = nil
	m.reload()
	m.follow(id)
	m.status = "drop: " + outcome.String()
}

func (m *dashboardModel) refresh() {
	Lock.Lock()
	res, err := m.engine.Refresh(m.ctx, Settings.WeekStartsOn, Settings.location())
	Lock.Unlock()
	if err != nil {
		m.err = err
	} else {
		m.err = nil
		m.status = fmt.Sprintf("refreshed: %d archived, %d spawned", len(res.Archived), len(res.Spawned))
	}
	m.reload()
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(fmt.Sprintf(" Weekboard: %s ", m.view))
	help := helpStyle.Render("arrows/hjkl: move | space: pick up/drop | esc: cancel | s: sort | r: refresh | q: quit")

	now := m.engine.Now()
	colWidth := max(20, (m.width-2)/max(1, len(m.cols))-4)
	panels := make([]string, 0, len(m.cols))
	for i, col := range m.cols {
		style := panelStyle
		if i == m.col {
			style = activePanelStyle
		}
		panels = append(panels, style.Width(colWidth).Render(m.renderColumn(i, col, now, colWidth)))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panels...)

	footer := helpStyle.Render("sort: " + string(m.mode))
	if m.status != "" {
		footer += "  " + m.status
	}
	if m.err != nil {
		footer += "  " + overdueStyle.Render("error: "+m.err.Error())
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n%s", title, body, footer, help)
}

func (m dashboardModel) renderColumn(i int, col core.Column, now time.Time, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", columnTitle(col.Status), len(col.Tasks))))
	b.WriteString("\n")
	if len(col.Tasks) == 0 {
		line := "(empty)"
		if i == m.col {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		return b.String()
	}

	for r, t := range col.Tasks {
		line := truncate(t.Title, width-2)
		style := cardStyle(t, now)
		switch {
		case m.drag != nil && t.ID == m.drag.Active():
			style = draggingStyle
		case i == m.col && r == m.row:
			style = cursorStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func cardStyle(t *models.Task, now time.Time) lipgloss.Style {
	switch {
	case t.Archived():
		return archivedStyle
	case t.Overdue(now):
		return overdueStyle
	case t.Status == models.StatusComplete:
		return doneStyle
	case t.Priority == models.PriorityHigh:
		return highStyle
	default:
		return lipgloss.NewStyle()
	}
}

func truncate(s string, n int) string {
	if n <= 1 || len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

var (
	dashboardView string
	dashboardPlan string
	dashboardSort string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive board with keyboard drag and drop",
	Long: `Launch an interactive terminal board showing the todo, in progress and
complete columns of a view.

Move the cursor with the arrow keys or hjkl. Space picks up the card under
the cursor; moving the cursor into another column moves the card there at
once, and space drops it. Dropping on another card in the card's original
column reorders that column. s cycles the sort mode, r runs the board-load
transitions, q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		v, err := core.ParseView(dashboardView, dashboardPlan)
		if err != nil {
			return err
		}
		mode := Settings.DefaultSort
		if dashboardSort != "" {
			if mode, err = core.ParseSortMode(dashboardSort); err != nil {
				return err
			}
		}

		p := tea.NewProgram(newDashboardModel(commandContext(cmd), Engine, v, mode), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardView, "view", "", "View to show: default, main or plan")
	dashboardCmd.Flags().StringVar(&dashboardPlan, "plan", "", "Weekly plan id for the plan view")
	dashboardCmd.Flags().StringVar(&dashboardSort, "sort", "", "Sort mode (defaults to board.default_sort)")
	_ = dashboardCmd.RegisterFlagCompletionFunc("view", completeViews)
	_ = dashboardCmd.RegisterFlagCompletionFunc("plan", completePlanIDs)
	_ = dashboardCmd.RegisterFlagCompletionFunc("sort", completeSortModes)
	rootCmd.AddCommand(dashboardCmd)
}
