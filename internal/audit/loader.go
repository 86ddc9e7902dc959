package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/stackradar/internal/model"
)

// DefaultFetchTimeout bounds one audit fetch, retries included.
const DefaultFetchTimeout = 2 * time.Minute

var errCancelled = errors.New("cancelled")

// FetchFunc loads the raw postings of one hub.
type FetchFunc func(ctx context.Context) ([]model.RawPosting, error)

type fetchResult struct {
	postings []model.RawPosting
	err      error
}

type loaderModel struct {
	label   string
	spinner spinner.Model
	started time.Time
	cancel  context.CancelFunc
	fetch   tea.Cmd
	result  *fetchResult
}

func newLoaderModel(label string, timeout time.Duration, fetchFn FetchFunc) loaderModel {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return loaderModel{
		label: label,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("33"))),
		),
		started: time.Now(),
		cancel:  cancel,
		fetch: func() tea.Msg {
			postings, err := fetchFn(ctx)
			return fetchResult{postings: postings, err: err}
		},
	}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.spinner.Tick)
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchResult:
		m.result = &msg
		m.cancel()
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.result = &fetchResult{err: errCancelled}
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.result != nil {
		return ""
	}
	elapsed := time.Since(m.started).Truncate(time.Second)
	return fmt.Sprintf("%s Fetching postings from %s (%s)\n", m.spinner.View(), m.label, elapsed)
}

// RunLoader shows a spinner inline (no alt screen) while fetchFn runs. A
// non-positive timeout uses DefaultFetchTimeout.
func RunLoader(label string, timeout time.Duration, fetchFn FetchFunc) ([]model.RawPosting, error) {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	m := newLoaderModel(label, timeout, fetchFn)
	defer m.cancel()

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}
	res := final.(loaderModel).result
	if res == nil {
		return nil, errCancelled
	}
	return res.postings, res.err
}
