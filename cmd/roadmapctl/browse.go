package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/houzhh15/roadmap-console/pkg/roadmap"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/editor"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/search"
	"github.com/houzhh15/roadmap-console/pkg/roadmap/treeview"
)

func newBrowseCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "browse",
		Short: "终端交互式浏览路线图树",
		Long: `打开交互式树视图：
  ↑/↓ 移动焦点   space 展开/折叠   / 搜索   x 选中/取消
  enter 打开详情  esc 关闭详情或清除搜索   a 全部展开/折叠   r 重新加载   q 退出`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, cfg, err := openSession(cmd)
			if err != nil {
				return err
			}
			state := mustGetString(cmd, "state")
			if state != "" {
				if err := session.View.LoadState(state); err != nil {
					warnLine(cmd.ErrOrStderr(), "ignoring view state: %v", err)
				}
			}
			m := newBrowseModel(cmd.Context(), session, cfg)
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
				return err
			}
			if state != "" {
				return session.View.SaveState(state)
			}
			return nil
		},
	}
	c.Flags().String("state", "", "树视图状态文件（展开、焦点、详情）")
	return c
}

type browseKeys struct {
	Up, Down, Home, End key.Binding
	Toggle, Select      key.Binding
	Open, Back          key.Binding
	Search, ExpandAll   key.Binding
	Reload, Quit        key.Binding
}

func defaultBrowseKeys() browseKeys {
	return browseKeys{
		Up:        key.NewBinding(key.WithKeys("up", "k", "left", "h"), key.WithHelp("↑", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j", "right", "l"), key.WithHelp("↓", "down")),
		Home:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "first")),
		End:       key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "last")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "expand")),
		Select:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "select")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "detail")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		ExpandAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "expand all")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	focusStyle    = lipgloss.NewStyle().Reverse(true)
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Underline(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type reloadedMsg struct{ err error }

// browseModel is the bubbletea model behind `roadmapctl browse`. Focus,
// expansion and the detail panel live in the session's tree view controller.
type browseModel struct {
	ctx     context.Context
	session *editor.Session
	cfg     *Config
	keys    browseKeys

	input     textinput.Model
	searching bool
	term      string

	listing editor.Listing
	rows    []treeview.Row
	status  string
	width   int
	height  int
}

func newBrowseModel(ctx context.Context, session *editor.Session, cfg *Config) browseModel {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search all levels"
	ti.CharLimit = 128

	m := browseModel{ctx: ctx, session: session, cfg: cfg, keys: defaultBrowseKeys(), input: ti}
	m.refresh()
	return m
}

// refresh recomputes the visible cards and the flattened rows.
func (m *browseModel) refresh() {
	m.listing = m.session.Visible(m.term, "")
	rms := make([]roadmap.Roadmap, len(m.listing.Cards))
	for i, c := range m.listing.Cards {
		rms[i] = c.Roadmap
	}
	m.rows = m.session.View.Rows(rms)
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) reload() tea.Cmd {
	store := m.session.Store
	ctx, timeout := m.ctx, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, err := store.Load(ctx)
		return reloadedMsg{err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case reloadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
		} else {
			m.status = "reloaded"
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m browseModel) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		m.term = ""
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.term = m.input.Value()
	m.refresh()
	return m, cmd
}

func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.session.View
	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		view.HandleKey(treeview.KeyUp)
	case key.Matches(msg, m.keys.Down):
		view.HandleKey(treeview.KeyDown)
	case key.Matches(msg, m.keys.Home):
		view.HandleKey(treeview.KeyHome)
	case key.Matches(msg, m.keys.End):
		view.HandleKey(treeview.KeyEnd)
	case key.Matches(msg, m.keys.Toggle):
		view.HandleKey(treeview.KeySpace)
	case key.Matches(msg, m.keys.Open):
		view.HandleKey(treeview.KeyEnter)
	case key.Matches(msg, m.keys.Back):
		if view.Panel() != "" {
			view.HandleKey(treeview.KeyEscape)
		} else if m.term != "" {
			m.term = ""
			m.input.SetValue("")
		}
	case key.Matches(msg, m.keys.Select):
		if id := view.Focused(); id != "" {
			m.session.Selection.Toggle(id, !m.session.Selection.Has(id))
		}
	case key.Matches(msg, m.keys.ExpandAll):
		if len(view.State().Expanded) > 0 {
			view.CollapseAll()
		} else {
			view.ExpandAll(m.session.Store.Snapshot())
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.input.SetValue(m.term)
		m.refresh()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Reload):
		m.status = "reloading…"
		return m, m.reload()
	}
	m.refresh()
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Roadmaps"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d of %d  ·  %d selected", len(m.listing.Cards), m.listing.Total, m.session.Selection.Len())))
	b.WriteString("\n")
	if m.searching || m.term != "" {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("  no roadmaps match"))
		b.WriteString("\n")
	}
	for _, row := range m.rows {
		b.WriteString(m.renderRow(row))
		b.WriteString("\n")
	}

	if id := m.session.View.Panel(); id != "" {
		if r, err := m.session.Store.Roadmap(id); err == nil {
			b.WriteString("\n")
			b.WriteString(m.renderPanel(r))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		style := dimStyle
		if strings.HasPrefix(m.status, "reload failed") {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("↑/↓ move · space expand · / search · x select · enter detail · a all · r reload · q quit"))
	return b.String()
}

func (m browseModel) renderRow(row treeview.Row) string {
	indent := strings.Repeat("  ", row.Depth)
	marker := "  "
	if row.HasChildren {
		marker = "▸ "
		if row.Expanded {
			marker = "▾ "
		}
	}
	check := ""
	if row.Kind == roadmap.KindRoadmap {
		check = "[ ] "
		if m.session.Selection.Has(row.ID) {
			check = selectedStyle.Render("[x] ")
		}
	}
	title := renderSpan(search.Highlight(row.Title, m.term))
	line := indent + marker + check + title
	if row.Focused {
		return focusStyle.Render(line)
	}
	return line
}

func (m browseModel) renderPanel(r roadmap.Roadmap) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Title))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s · %s · %s", r.ID, r.Visibility, r.Status)))
	if r.Description != "" {
		b.WriteString("\n" + r.Description)
	}
	st := roadmap.Counts([]roadmap.Roadmap{r})
	b.WriteString(dimStyle.Render(fmt.Sprintf("\n%d levels · %d milestones · %d challenges", st.Levels, st.Milestones, st.Challenges)))
	for _, h := range search.Hits(r, m.term) {
		if h.Kind == roadmap.KindRoadmap {
			continue
		}
		trail := strings.Join(append(h.Trail, ""), " › ")
		b.WriteString("\n  " + dimStyle.Render(string(h.Kind)+": "+trail) + renderSpan(h.Span))
	}
	style := panelStyle
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(b.String())
}

func renderSpan(s search.Span) string {
	if !s.Found {
		return s.Before
	}
	return s.Before + matchStyle.Render(s.Match) + s.After
}
