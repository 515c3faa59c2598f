// ABOUTME: Interactive TUI wizard for choosing an embedding provider.
// ABOUTME: 3-step bubbletea model collecting provider, model, and API key, then probing the provider.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/vibematch/internal/config"
)

// Step represents the current wizard step.
type Step int

const (
	StepProvider Step = iota
	StepModel
	StepAPIKey
	StepValidating
	StepDone
	StepFailed
)

// validationResultMsg carries the result of an async validation attempt.
type validationResultMsg struct {
	err error
}

// ValidateFn is the function signature for provider validation.
type ValidateFn func(ctx context.Context, cfg config.EmbeddingConfig) error

// cancelHolder shares a cancel function across bubbletea model copies.
// This MUST be stored as a pointer field on SetupModel so that value-receiver
// methods (required by tea.Model) can store the cancel func and have it
// visible to all copies of the model.
type cancelHolder struct {
	cancel context.CancelFunc
}

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step          Step
	base          config.EmbeddingConfig
	inputs        [3]textinput.Model
	spinner       spinner.Model
	validateFn    ValidateFn
	cancelCtx     *cancelHolder
	inputErr      string
	validationErr error
	quitting      bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var knownProviders = []string{config.ProviderGemini, config.ProviderOpenAI, config.ProviderOllama, config.ProviderHash}

// NewSetupModel creates a new setup wizard model, pre-filling with existing config values.
// Fields the wizard does not ask about (dimension, task type, base URL) carry over from current.
func NewSetupModel(current config.EmbeddingConfig) SetupModel {
	providerInput := textinput.New()
	providerInput.Placeholder = config.ProviderGemini
	providerInput.Focus()
	providerInput.Width = 50
	providerInput.SetValue(current.Provider)

	modelInput := textinput.New()
	modelInput.Placeholder = config.DefaultModel(current.Provider)
	modelInput.Width = 50
	modelInput.SetValue(current.Model)

	keyInput := textinput.New()
	keyInput.Placeholder = "your-api-key"
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.Width = 50
	keyInput.SetValue(current.APIKey)

	s := spinner.New()
	s.Spinner = spinner.Dot

	return SetupModel{
		step:       StepProvider,
		base:       current,
		inputs:     [3]textinput.Model{providerInput, modelInput, keyInput},
		spinner:    s,
		validateFn: ValidateProvider,
		cancelCtx:  &cancelHolder{},
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			if m.cancelCtx.cancel != nil {
				m.cancelCtx.cancel()
			}
			return m, tea.Quit
		}

		switch m.step {
		case StepProvider, StepModel, StepAPIKey:
			return m.updateInput(msg)
		case StepFailed:
			return m.updateFailed(msg)
		}

	case validationResultMsg:
		m.cancelCtx.cancel = nil
		if msg.err == nil {
			m.step = StepDone
			return m, tea.Quit
		}
		m.validationErr = msg.err
		m.step = StepFailed
		return m, nil

	case spinner.TickMsg:
		if m.step == StepValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		idx := int(m.step)
		m.inputErr = ""

		switch m.step {
		case StepProvider:
			previous := m.base.Provider
			provider := strings.ToLower(strings.TrimSpace(m.inputs[0].Value()))
			if provider == "" {
				provider = config.ProviderGemini
			}
			if !isKnownProvider(provider) {
				m.inputErr = fmt.Sprintf("unknown provider %q (choose %s)", provider, strings.Join(knownProviders, ", "))
				return m, nil
			}
			m.inputs[0].SetValue(provider)

			// Swap in the new provider's default model unless the user typed a custom one.
			model := m.inputs[1].Value()
			if model == "" || (provider != previous && model == config.DefaultModel(previous)) {
				m.inputs[1].SetValue(config.DefaultModel(provider))
			}
			m.inputs[1].Placeholder = config.DefaultModel(provider)

		case StepModel:
			if strings.TrimSpace(m.inputs[1].Value()) == "" {
				m.inputs[1].SetValue(config.DefaultModel(m.provider()))
			}

		case StepAPIKey:
			if m.inputs[2].Value() == "" && needsAPIKey(m.provider()) {
				return m, nil
			}
		}

		m.inputs[idx].Blur()

		switch m.step {
		case StepProvider:
			m.step = StepModel
			m.inputs[1].Focus()
			return m, textinput.Blink
		case StepModel:
			m.step = StepAPIKey
			m.inputs[2].Focus()
			return m, textinput.Blink
		case StepAPIKey:
			m.step = StepValidating
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		}
	}

	// Forward to the active input
	idx := int(m.step)
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m SetupModel) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyRunes {
		switch msg.Runes[0] {
		case 'r':
			m.step = StepValidating
			m.validationErr = nil
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		case 's':
			m.step = StepDone
			return m, tea.Quit
		case 'q':
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SetupModel) startValidation() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelCtx.cancel = cancel
	cfg := m.Result()
	fn := m.validateFn
	return func() tea.Msg {
		return validationResultMsg{err: fn(ctx, cfg)}
	}
}

func (m SetupModel) provider() string {
	return m.inputs[0].Value()
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   VIBEMATCH"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Choose the embedding service used to match vibes.\n\n")

	switch m.step {
	case StepProvider:
		b.WriteString(stepStyle.Render("Step 1 of 3: Provider"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(fmt.Sprintf("(%s; press Enter for %s)", strings.Join(knownProviders, ", "), config.ProviderGemini)))
		b.WriteString("\n")
		b.WriteString(m.inputs[0].View())
		b.WriteString("\n")

	case StepModel:
		b.WriteString(fmt.Sprintf("  Provider: %s\n\n", m.provider()))
		b.WriteString(stepStyle.Render("Step 2 of 3: Model"))
		b.WriteString("\n")
		b.WriteString(m.inputs[1].View())
		b.WriteString("\n")

	case StepAPIKey:
		b.WriteString(fmt.Sprintf("  Provider: %s\n", m.provider()))
		b.WriteString(fmt.Sprintf("  Model:    %s\n\n", m.inputs[1].Value()))
		b.WriteString(stepStyle.Render("Step 3 of 3: API Key"))
		b.WriteString("\n")
		if !needsAPIKey(m.provider()) {
			b.WriteString(promptStyle.Render("(not required for this provider; press Enter to skip)"))
			b.WriteString("\n")
		}
		b.WriteString(m.inputs[2].View())
		b.WriteString("\n")

	case StepValidating:
		b.WriteString(fmt.Sprintf("  Provider: %s\n", m.provider()))
		b.WriteString(fmt.Sprintf("  Model:    %s\n", m.inputs[1].Value()))
		b.WriteString(fmt.Sprintf("  API Key:  %s\n\n", strings.Repeat("*", len(m.inputs[2].Value()))))
		b.WriteString(m.spinner.View())
		b.WriteString(" Embedding a probe text...")
		b.WriteString("\n")

	case StepDone:
		b.WriteString(successStyle.Render("✓ Provider ready!"))
		b.WriteString("\n")

	case StepFailed:
		errMsg := "unknown error"
		if m.validationErr != nil {
			errMsg = m.validationErr.Error()
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Validation failed: %s", errMsg)))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("[r]etry  [s]ave anyway  [q]uit"))
		b.WriteString("\n")
	}

	if m.inputErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.inputErr))
		b.WriteString("\n")
	}

	return b.String()
}

// Result returns the embedding config with the entered values applied.
func (m SetupModel) Result() config.EmbeddingConfig {
	cfg := m.base
	cfg.Provider = m.inputs[0].Value()
	cfg.Model = m.inputs[1].Value()
	cfg.APIKey = m.inputs[2].Value()
	return cfg
}

// ShouldSave returns true if the wizard completed (via validation success or
// "save anyway") and the user did not cancel with Ctrl+C, Escape, or 'q'.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}

func isKnownProvider(name string) bool {
	for _, p := range knownProviders {
		if p == name {
			return true
		}
	}
	return false
}

func needsAPIKey(provider string) bool {
	return provider == config.ProviderGemini || provider == config.ProviderOpenAI
}
