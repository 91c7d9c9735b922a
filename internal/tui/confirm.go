// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

type (
	// ConfirmOptions configures the Confirm prompt.
	ConfirmOptions struct {
		// Title is the question to display.
		Title string
		// Affirmative is the text for the affirmative option (default: "Yes").
		Affirmative string
		// Negative is the text for the negative option (default: "No").
		Negative string
		// Default is the preselected answer.
		Default bool
		// Config holds common prompt configuration.
		Config Config
	}

	// Prompter answers yes/no questions, asking the user only when a
	// terminal is attached and defaults were not requested.
	Prompter struct {
		config      Config
		assumeYes   bool
		interactive func() bool
		ask         func(ConfirmOptions) (bool, error)
		logger      *log.Logger
	}

	// PrompterOption configures a Prompter.
	PrompterOption func(*Prompter)
)

// Confirm shows a yes/no prompt and returns the answer.
func Confirm(opts ConfirmOptions) (bool, error) {
	if opts.Affirmative == "" {
		opts.Affirmative = "Yes"
	}
	if opts.Negative == "" {
		opts.Negative = "No"
	}

	result := opts.Default
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(opts.Title).
			Affirmative(opts.Affirmative).
			Negative(opts.Negative).
			Value(&result),
	)).
		WithTheme(huhTheme(opts.Config.Theme)).
		WithAccessible(opts.Config.Accessible).
		WithShowHelp(false)
	if opts.Config.Input != nil {
		form = form.WithInput(opts.Config.Input)
	}
	if opts.Config.Output != nil {
		form = form.WithOutput(opts.Config.Output)
	}

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, ErrAborted
		}
		return false, err
	}
	return result, nil
}

// WithConfig sets the prompt configuration.
func WithConfig(cfg Config) PrompterOption {
	return func(p *Prompter) {
		p.config = cfg
	}
}

// WithAssumeYes makes every question resolve to its default answer.
func WithAssumeYes(v bool) PrompterOption {
	return func(p *Prompter) {
		p.assumeYes = v
	}
}

// WithLogger sets the logger used to report answers given without asking.
func WithLogger(l *log.Logger) PrompterOption {
	return func(p *Prompter) {
		p.logger = l
	}
}

// NewPrompter returns a Prompter that asks through Confirm.
func NewPrompter(opts ...PrompterOption) *Prompter {
	p := &Prompter{
		config:      DefaultConfig(),
		interactive: IsInteractive,
		ask:         Confirm,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Confirm asks question. Without a terminal, or with assume-yes set, it
// returns defaultYes.
func (p *Prompter) Confirm(question string, defaultYes bool) (bool, error) {
	if p.assumeYes || !p.interactive() {
		p.logger.Info("answering with default", "question", question, "answer", answer(defaultYes))
		return defaultYes, nil
	}
	return p.ask(ConfirmOptions{Title: question, Default: defaultYes, Config: p.config})
}

func answer(yes bool) string {
	if yes {
		return "yes"
	}
	return "no"
}
