// Command storectl is a terminal client for browsing stores and rating them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

type step int

const (
	stepEnteringEmail step = iota
	stepEnteringPassword
	stepLoggingIn
	stepLoadingStores
	stepSelectingStore
	stepRating
	stepSubmitting
)

type model struct {
	client       *apiClient
	step         step
	stores       []storeItem
	cursor       int
	email        string
	currentInput string
	message      string
	quitting     bool
}

type loginSuccessMsg struct{ role string }
type storesLoadedMsg []storeItem
type ratedMsg struct {
	store   string
	rating  int
	created bool
}
type errMsg struct {
	err  error
	back step
}

func initialModel(client *apiClient) model {
	return model{client: client, step: stepEnteringEmail}
}

func (m model) Init() tea.Cmd {
	return nil
}

func login(c *apiClient, email, password string) tea.Cmd {
	return func() tea.Msg {
		res, err := c.Login(context.Background(), email, password)
		if err != nil {
			return errMsg{err: err, back: stepEnteringEmail}
		}
		return loginSuccessMsg{role: res.Role}
	}
}

func loadStores(c *apiClient) tea.Cmd {
	return func() tea.Msg {
		stores, err := c.Stores(context.Background())
		if err != nil {
			return errMsg{err: err, back: stepSelectingStore}
		}
		return storesLoadedMsg(stores)
	}
}

func rate(c *apiClient, store storeItem, rating int) tea.Cmd {
	return func() tea.Msg {
		created, err := c.Rate(context.Background(), store.ID, rating)
		if err != nil {
			return errMsg{err: err, back: stepSelectingStore}
		}
		return ratedMsg{store: store.Name, rating: rating, created: created}
	}
}

func (m model) typing() bool {
	return m.step == stepEnteringEmail || m.step == stepEnteringPassword
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch {
		case key == "ctrl+c" || (key == "q" && !m.typing()):
			m.quitting = true
			return m, tea.Quit

		case key == "backspace":
			if m.typing() && len(m.currentInput) > 0 {
				m.currentInput = m.currentInput[:len(m.currentInput)-1]
			}

		case key == "enter":
			return m.submit()

		case m.typing():
			if msg.Type == tea.KeyRunes {
				m.currentInput += key
			}

		case m.step == stepSelectingStore:
			switch key {
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.stores)-1 {
					m.cursor++
				}
			case "r":
				m.step = stepLoadingStores
				return m, loadStores(m.client)
			}

		case m.step == stepRating:
			if key == "esc" {
				m.step = stepSelectingStore
				return m, nil
			}
			if len(key) == 1 && key[0] >= '1' && key[0] <= '5' {
				m.step = stepSubmitting
				return m, rate(m.client, m.stores[m.cursor], int(key[0]-'0'))
			}
		}

	case loginSuccessMsg:
		m.step = stepLoadingStores
		m.message = successStyle.Render(fmt.Sprintf("✓ Logged in as %s (%s)", m.email, msg.role))
		return m, loadStores(m.client)

	case storesLoadedMsg:
		m.stores = []storeItem(msg)
		if m.cursor >= len(m.stores) {
			m.cursor = 0
		}
		m.step = stepSelectingStore

	case ratedMsg:
		verb := "updated"
		if msg.created {
			verb = "submitted"
		}
		m.message = successStyle.Render(fmt.Sprintf("✓ Rating %d %s for %s", msg.rating, verb, msg.store))
		m.step = stepLoadingStores
		return m, loadStores(m.client)

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		m.step = msg.back
	}

	return m, nil
}

func (m model) submit() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepEnteringEmail:
		if m.currentInput != "" {
			m.email = m.currentInput
			m.currentInput = ""
			m.step = stepEnteringPassword
		}

	case stepEnteringPassword:
		if m.currentInput != "" {
			password := m.currentInput
			m.currentInput = ""
			m.step = stepLoggingIn
			m.message = "Logging in..."
			return m, login(m.client, m.email, password)
		}

	case stepSelectingStore:
		if len(m.stores) > 0 {
			m.step = stepRating
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Store Ratings\n\n"))

	switch m.step {
	case stepEnteringEmail:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		s.WriteString(promptStyle.Render("Enter your email:\n"))
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringPassword:
		s.WriteString(promptStyle.Render("Enter your password:\n"))
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", len(m.currentInput))))
		s.WriteString("\n\nPress Enter\n")

	case stepLoggingIn:
		s.WriteString(m.message + "\n")

	case stepLoadingStores:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		s.WriteString("Loading stores...\n")

	case stepSelectingStore:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		if len(m.stores) == 0 {
			s.WriteString("No stores yet. Press r to refresh, q to quit\n")
			break
		}
		s.WriteString(promptStyle.Render("Select a store:\n\n"))
		for i, st := range m.stores {
			cursor := " "
			style := normalStyle
			if m.cursor == i {
				cursor = ">"
				style = selectedStyle
			}
			s.WriteString(fmt.Sprintf("%s %s  ★ %.1f (%d)\n", cursor, style.Render(st.Name), st.AverageRating, st.TotalRatings))
		}
		s.WriteString("\nUse ↑/↓, Enter to rate, r to refresh, q to quit\n")

	case stepRating:
		st := m.stores[m.cursor]
		s.WriteString(promptStyle.Render(fmt.Sprintf("Rate %s\n", st.Name)))
		s.WriteString(st.Address + "\n\n")
		s.WriteString("Press 1-5, Esc to go back\n")

	case stepSubmitting:
		s.WriteString("Submitting rating...\n")
	}

	return s.String()
}

func main() {
	apiURL := flag.String("api", envOr("STORECTL_API", "http://localhost:5000"), "base URL of the store rating server")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP timeout")
	flag.Parse()

	client := newAPIClient(*apiURL)
	client.http.Timeout = *timeout

	p := tea.NewProgram(initialModel(client))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
