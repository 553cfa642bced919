package bubbletea

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cosap/voicechat"
)

const (
	fieldUsername = iota
	fieldPassword
)

// signInForm is the username/password form with an inline status line.
type signInForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	err      string
	info     string
}

func newSignInForm() signInForm {
	u := textinput.New()
	u.Placeholder = "username"
	u.Prompt = ""
	u.Focus()

	p := textinput.New()
	p.Placeholder = "password"
	p.Prompt = ""
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	return signInForm{username: u, password: p}
}

func (f signInForm) setFocus(i int) signInForm {
	f.focus = i
	if i == fieldUsername {
		f.username.Focus()
		f.password.Blur()
	} else {
		f.password.Focus()
		f.username.Blur()
	}
	return f
}

func (f signInForm) update(msg tea.Msg) (signInForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == fieldUsername {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return f, cmd
}

func (f signInForm) view(s Styles) string {
	var b strings.Builder
	b.WriteString(s.Accent.Render("voicechat"))
	b.WriteString("\n\n")
	b.WriteString(s.Label.Render("Username"))
	b.WriteString(f.username.View())
	b.WriteString("\n")
	b.WriteString(s.Label.Render("Password"))
	b.WriteString(f.password.View())
	b.WriteString("\n\n")
	switch {
	case f.busy:
		b.WriteString(s.Muted.Render("Signing in..."))
	case f.err != "":
		b.WriteString(s.Error.Render(f.err))
	case f.info != "":
		b.WriteString(s.Success.Render(f.info))
	default:
		b.WriteString(s.Muted.Render("tab to switch fields, enter to sign in, ctrl+c to quit"))
	}
	return b.String()
}

// signInError is the inline text shown for a failed sign-in.
func signInError(err error) string {
	var e *voicechat.Error
	switch {
	case errors.Is(err, voicechat.ErrValidation):
		return "Please enter your username and password."
	case errors.Is(err, voicechat.ErrNetwork):
		return "Network error"
	case errors.As(err, &e) && e.Message != "":
		return e.Message
	default:
		return "Sign in failed. Please try again."
	}
}
