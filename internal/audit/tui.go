// Package audit is an interactive terminal view of how the filter treats
// the postings of one source: every posting on the left, the accepted ones
// on the right, and the rejecting gate for each.
package audit

import (
	"cmp"
	"fmt"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobradar/internal/filter"
	"github.com/amishk599/jobradar/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

const dateTimeLayout = "2006-01-02 15:04 MST"

// Entry is one posting with the engine's verdict.
type Entry struct {
	Job      model.Job
	Decision filter.Decision
}

// Evaluator is the part of the filter engine the audit needs.
type Evaluator interface {
	Evaluate(job model.Job) filter.Decision
}

// Evaluate runs every job through e and returns all entries plus the
// accepted subset, both newest first.
func Evaluate(e Evaluator, jobs []model.Job) (all, accepted []Entry) {
	all = make([]Entry, len(jobs))
	for i, j := range jobs {
		all[i] = Entry{Job: j, Decision: e.Evaluate(j)}
	}
	sortEntriesByDate(all)
	for _, en := range all {
		if en.Decision.Accepted {
			accepted = append(accepted, en)
		}
	}
	return all, accepted
}

// GateCounts tallies rejections per gate.
func GateCounts(entries []Entry) map[filter.Gate]int {
	counts := make(map[filter.Gate]int)
	for _, en := range entries {
		if !en.Decision.Accepted {
			counts[en.Decision.Gate]++
		}
	}
	return counts
}

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	acceptedMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rejectedMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descDividerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	descHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

type auditModel struct {
	source        string
	allJobs       []Entry
	matchedJobs   []Entry
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	view            viewState
	detail          Entry
	detailViewport  viewport.Model
	showDescription bool

	open     func(url string)
	wantQuit bool
}

func newAuditModel(source string, all, matched []Entry) auditModel {
	return auditModel{
		source:      source,
		allJobs:     all,
		matchedJobs: matched,
		open:        openURL,
	}
}

func (m auditModel) Init() tea.Cmd {
	return nil
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m auditModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView(), nil
	}

	// pgup/pgdn/home/end scroll the active pane.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m auditModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.detail.Job.URL != "" && m.open != nil {
			m.open(m.detail.Job.URL)
		}
		return m, nil
	case "r":
		if m.detail.Job.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *auditModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.allJobs)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.matchedJobs)-1, 0))
	}
}

func (m *auditModel) ensureCursorVisible() {
	vp, cursor := &m.leftViewport, m.leftCursor
	if m.activePane == 1 {
		vp, cursor = &m.rightViewport, m.rightCursor
	}

	top := cursor * jobItemHeight
	bottom := top + jobItemHeight - 1

	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m auditModel) openDetailView() auditModel {
	entries := m.activeEntries()
	if len(entries) == 0 {
		return m
	}

	m.view = viewDetail
	m.detail = entries[m.activeCursor()]
	m.showDescription = false
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detailViewport.SetContent(m.renderDetail())
	return m
}

func (m *auditModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *auditModel) recalcContent() {
	m.leftViewport.SetContent(renderEntries(m.allJobs, m.leftCursor, m.activePane == 0, true))
	m.rightViewport.SetContent(renderEntries(m.matchedJobs, m.rightCursor, m.activePane == 1, false))
}

func (m auditModel) activeEntries() []Entry {
	if m.activePane == 0 {
		return m.allJobs
	}
	return m.matchedJobs
}

func (m auditModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m auditModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m auditModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" %s · All Jobs (%d)", m.source, len(m.allJobs))
	rightHeader := fmt.Sprintf(" Accepted (%d)", len(m.matchedJobs))

	leftHeaderStyle, rightHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	leftBorder, rightBorder := activeBorderStyle, inactiveBorderStyle
	if m.activePane == 1 {
		leftHeaderStyle, rightHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		leftBorder, rightBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderStyle.Render(rightHeader)),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Width(paneWidth).Render(m.leftViewport.View()),
		" ",
		rightBorder.Width(paneWidth).Render(m.rightViewport.View()),
	)

	statusText := fmt.Sprintf(" %d total | %d accepted | %s    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.allJobs), len(m.matchedJobs), formatGateCounts(GateCounts(m.allJobs)))
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m auditModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	statusText := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.detail.Job.Description != "" {
		statusText = " o open URL  r description  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m auditModel) renderDetail() string {
	j := m.detail.Job
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", cmp.Or(j.Location, "(unspecified)"))
	addField("Job ID", j.ID)
	addField("Source", j.Source)
	if j.PostedAt != nil {
		addField("Posted At", j.PostedAt.Local().Format(dateTimeLayout))
	}

	b.WriteByte('\n')
	addField("Verdict", verdict(m.detail.Decision))
	addField("Reason", m.detail.Decision.Reason)

	b.WriteByte('\n')
	addField("Job URL", j.URL)

	if j.Description == "" {
		return b.String()
	}

	wrapWidth := max(m.width-8, 20)
	b.WriteByte('\n')
	if m.showDescription {
		label := "── Job Description "
		fill := strings.Repeat("─", max(wrapWidth-lipgloss.Width(label), 3))
		b.WriteString(descDividerStyle.Render(label+fill) + "\n\n")
		b.WriteString(descBodyStyle.Render(wordWrap(j.Description, wrapWidth)) + "\n")
	} else {
		b.WriteString(descHintStyle.Render("  press r to read job description") + "\n")
	}
	return b.String()
}

func verdict(d filter.Decision) string {
	if d.Accepted {
		return "accepted"
	}
	return "rejected by " + string(d.Gate) + " gate"
}

func formatGateCounts(counts map[filter.Gate]int) string {
	if len(counts) == 0 {
		return "0 rejected"
	}
	order := []filter.Gate{
		filter.GateExcludedTitle, filter.GateCategory, filter.GateKeyword,
		filter.GateLocation, filter.GateAge, filter.GateError,
	}
	parts := make([]string, 0, len(counts))
	for _, g := range order {
		if n := counts[g]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", g, n))
		}
	}
	return "rejected: " + strings.Join(parts, ", ")
}

func renderEntries(entries []Entry, cursor int, isActive, showMark bool) string {
	if len(entries) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, en := range entries {
		j := en.Job
		titleSt, subtitleSt, prefix := jobTitleStyle, jobSubtitleStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = selectedJobTitleStyle, selectedJobSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		if showMark {
			if en.Decision.Accepted {
				b.WriteString(acceptedMarkStyle.Render("✓ "))
			} else {
				b.WriteString(rejectedMarkStyle.Render("✗ "))
			}
		}
		b.WriteString(titleSt.Render(cmp.Or(j.Title, "(untitled)")))
		b.WriteByte('\n')

		posted := "n/a"
		if j.PostedAt != nil {
			posted = j.PostedAt.Format(time.DateOnly)
		}
		subtitle := fmt.Sprintf("%s · %s", cmp.Or(j.Location, "unspecified"), posted)
		if showMark && !en.Decision.Accepted {
			subtitle += " · " + string(en.Decision.Gate)
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(subtitle))
		b.WriteByte('\n')

		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// sortEntriesByDate orders newest first; undated postings go last.
func sortEntriesByDate(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		pa, pb := a.Job.PostedAt, b.Job.PostedAt
		switch {
		case pa == nil && pb == nil:
			return 0
		case pa == nil:
			return 1
		case pb == nil:
			return -1
		}
		return pb.Compare(*pa)
	})
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunAuditTUI launches the split-pane audit view for one source.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the picker.
func RunAuditTUI(source string, all, accepted []Entry) (bool, error) {
	p := tea.NewProgram(newAuditModel(source, all, accepted), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(auditModel)
	return final.wantQuit, nil
}
