package audit

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/stackradar/internal/model"
)

// rowsPerEntry is the height of one list item: title, subtitle, spacer.
const rowsPerEntry = 3

const (
	accent = lipgloss.Color("39")
	dim    = lipgloss.Color("240")
	muted  = lipgloss.Color("245")
	light  = lipgloss.Color("252")
)

var (
	paneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())

	paneTitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(light).
			Background(lipgloss.Color("236"))

	rowTitleStyle    = lipgloss.NewStyle().Bold(true)
	rowSubtitleStyle = lipgloss.NewStyle().Foreground(muted)
	rowCursorBg      = lipgloss.Color("24")

	fieldLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Width(16)
	headingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).MarginBottom(1)
	ruleStyle       = lipgloss.NewStyle().Foreground(dim)
	hintStyle       = lipgloss.NewStyle().Foreground(muted).Italic(true)
	bodyStyle       = lipgloss.NewStyle().Foreground(light)
	rejectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// pane is one scrollable column of postings.
type pane struct {
	title   string
	entries []Entry
	cursor  int
	vp      viewport.Model
}

func (p *pane) move(delta int) {
	p.cursor = clamp(p.cursor+delta, 0, max(len(p.entries)-1, 0))

	top := p.cursor * rowsPerEntry
	bottom := top + rowsPerEntry - 1
	switch {
	case top < p.vp.YOffset:
		p.vp.SetYOffset(top)
	case bottom >= p.vp.YOffset+p.vp.Height:
		p.vp.SetYOffset(bottom - p.vp.Height + 1)
	}
}

func (p *pane) render(focused bool) {
	if len(p.entries) == 0 {
		p.vp.SetContent("  (no postings)")
		return
	}
	var b strings.Builder
	for i, e := range p.entries {
		title, sub, marker := rowTitleStyle, rowSubtitleStyle, "  "
		if focused && i == p.cursor {
			title = title.Foreground(lipgloss.Color("15")).Background(rowCursorBg)
			sub = sub.Foreground(light).Background(rowCursorBg)
			marker = "> "
		}
		posted := "n/a"
		if e.Raw.PublishedAt != nil {
			posted = e.Raw.PublishedAt.Format("2006-01-02")
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s%s\n", marker, title.Render(e.Raw.Title))
		fmt.Fprintf(&b, "%s%s\n", marker, sub.Render(fmt.Sprintf("%s · %s · score %.0f", e.Location.Text, posted, e.Verdict.Score)))
	}
	p.vp.SetContent(b.String())
}

func (p pane) selected() (Entry, bool) {
	if len(p.entries) == 0 {
		return Entry{}, false
	}
	return p.entries[p.cursor], true
}

type auditModel struct {
	hubLabel string
	panes    [2]pane
	focus    int
	width    int
	height   int
	ready    bool
	help     help.Model

	inDetail bool
	detail   Entry
	descText string
	showDesc bool
	detailVP viewport.Model

	wantQuit bool
}

func newAuditModel(hubLabel string, entries []Entry) auditModel {
	in := Split(entries)
	return auditModel{
		hubLabel: hubLabel,
		panes: [2]pane{
			{title: fmt.Sprintf("All postings (%d)", len(entries)), entries: entries},
			{title: fmt.Sprintf("Screened in (%d)", len(in)), entries: in},
		},
		help: help.New(),
	}
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.wantQuit = true
			return m, tea.Quit
		}
		if m.inDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m auditModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.panes[m.focus]
	switch {
	case key.Matches(msg, keys.Back):
		return m, tea.Quit
	case key.Matches(msg, keys.Switch):
		m.focus = 1 - m.focus
	case key.Matches(msg, keys.Up):
		p.move(-1)
	case key.Matches(msg, keys.Down):
		p.move(1)
	case key.Matches(msg, keys.Select):
		if e, ok := p.selected(); ok {
			m.openDetail(e)
		}
		return m, nil
	default:
		var cmd tea.Cmd
		p.vp, cmd = p.vp.Update(msg)
		return m, cmd
	}
	m.renderPanes()
	return m, nil
}

func (m auditModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.inDetail = false
		return m, nil
	case key.Matches(msg, keys.Open):
		openURL(m.detail.Raw.ApplyURL)
		return m, nil
	case key.Matches(msg, keys.ReadDesc):
		if m.descText != "" {
			m.showDesc = !m.showDesc
			m.detailVP.SetContent(m.renderDetail())
			m.detailVP.GotoTop()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.detailVP, cmd = m.detailVP.Update(msg)
	return m, cmd
}

func (m *auditModel) openDetail(e Entry) {
	m.inDetail = true
	m.detail = e
	m.descText = descriptionText(e.Raw.Description)
	m.showDesc = false
	m.detailVP = viewport.New(m.width-4, m.height-4)
	m.detailVP.SetContent(m.renderDetail())
}

func (m *auditModel) resize(w, h int) {
	m.width, m.height = w, h
	m.help.Width = w

	// Each pane loses two border columns and the panes share one gap.
	pw := max((w-5)/2, 20)
	// Title row, two border rows and the footer.
	ph := max(h-4, 5)
	for i := range m.panes {
		if !m.ready {
			m.panes[i].vp = viewport.New(pw, ph)
			continue
		}
		m.panes[i].vp.Width = pw
		m.panes[i].vp.Height = ph
	}
	m.ready = true
	m.renderPanes()

	if m.inDetail {
		m.detailVP.Width = w - 4
		m.detailVP.Height = h - 4
		m.detailVP.SetContent(m.renderDetail())
	}
}

func (m *auditModel) renderPanes() {
	for i := range m.panes {
		m.panes[i].render(i == m.focus)
	}
}

func (m auditModel) View() string {
	switch {
	case !m.ready:
		return "Initializing..."
	case m.inDetail:
		return m.viewDetail()
	}
	return m.viewList()
}

func (m auditModel) viewList() string {
	var titles, bodies []string
	for i, p := range m.panes {
		color := dim
		if i == m.focus {
			color = accent
		}
		if i > 0 {
			titles = append(titles, " ")
			bodies = append(bodies, " ")
		}
		w := p.vp.Width
		titles = append(titles, lipgloss.NewStyle().Width(w+2).Render(paneTitleStyle.Foreground(color).Render(p.title)))
		bodies = append(bodies, paneStyle.BorderForeground(color).Width(w).Render(p.vp.View()))
	}

	all, in := len(m.panes[0].entries), len(m.panes[1].entries)
	summary := fmt.Sprintf("%s | %d total | %d in | %d out", m.hubLabel, all, in, all-in)
	footer := footerStyle.Width(m.width).Render(summary + "   " + m.help.View(listHelp))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, titles...),
		lipgloss.JoinHorizontal(lipgloss.Top, bodies...),
		footer,
	)
}

func (m auditModel) viewDetail() string {
	body := paneStyle.BorderForeground(accent).Width(m.width - 2).Render(m.detailVP.View())
	footer := footerStyle.Width(m.width).Render(m.help.View(detailHelp))
	return headingStyle.Render("Posting") + "\n" + body + "\n" + footer
}

func (m auditModel) renderDetail() string {
	e, v := m.detail, m.detail.Verdict
	width := max(m.width-8, 20)

	var b strings.Builder
	field := func(label, value string, style lipgloss.Style) {
		if value != "" {
			b.WriteString(fieldLabelStyle.Render(label) + style.Render(value) + "\n")
		}
	}
	plain := lipgloss.NewStyle()
	section := func(name string) {
		head := "── " + name + " "
		b.WriteString("\n" + ruleStyle.Render(head+strings.Repeat("─", max(width-len(head), 3))) + "\n\n")
	}

	field("Title", e.Raw.Title, plain)
	field("Company", e.Raw.Company, plain)
	field("Raw Location", e.Raw.Location, plain)
	field("Location", e.Location.Text, plain)
	field("Arrangement", string(e.Location.Arrangement), plain)
	field("Source", e.Raw.SourceTag, plain)
	if e.Raw.PublishedAt != nil {
		field("Published", e.Raw.PublishedAt.Local().Format("2006-01-02 15:04 MST"), plain)
	}

	section("Verdict")
	field("Score", fmt.Sprintf("%.0f", v.Score), plain)
	field("Status", string(v.Status), plain)
	field("Role", string(v.RoleType), plain)
	field("Categories", strings.Join(v.Categories, ", "), plain)
	field("Stack", strings.Join(v.Stack, ", "), plain)
	reasonStyle := plain
	if v.Status == model.StatusRejected {
		reasonStyle = rejectedStyle
	}
	field("Reason", v.Reason, reasonStyle)

	b.WriteByte('\n')
	field("Apply URL", e.Raw.ApplyURL, plain)

	switch {
	case m.descText == "":
	case m.showDesc:
		section("Description")
		b.WriteString(bodyStyle.Render(wordWrap(m.descText, width)) + "\n")
	default:
		b.WriteString("\n" + hintStyle.Render("  press r to read the description") + "\n")
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// openURL hands url to the platform's opener without waiting on it.
func openURL(url string) {
	if url == "" {
		return
	}
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "cmd", []string{"/c", "start"}
	default:
		return
	}
	_ = exec.Command(name, append(args, url)...).Start()
}

// RunAuditTUI shows entries in a split-pane view. It reports true when the
// operator quit outright and false when they backed out to the hub picker.
func RunAuditTUI(hubLabel string, entries []Entry) (bool, error) {
	final, err := tea.NewProgram(newAuditModel(hubLabel, entries), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	return final.(auditModel).wantQuit, nil
}
