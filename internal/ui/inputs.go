package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// fieldSpec describes one text input of an inputForm.
type fieldSpec struct {
	label       string
	placeholder string
	secret      bool
	// group ties fields that are submitted together. Enter on the last field
	// of a group submits that group.
	group int
}

type formField struct {
	fieldSpec
	input textinput.Model
}

// inputForm is a vertical stack of text inputs with a single focus.
type inputForm struct {
	fields []formField
	focus  int
	// busy is set while a submission is outstanding; submit refuses to fire
	// again until it clears.
	busy bool
}

func newInputForm(specs ...fieldSpec) inputForm {
	fields := make([]formField, len(specs))
	for i, spec := range specs {
		in := textinput.New()
		in.Placeholder = spec.placeholder
		in.Prompt = ""
		in.CharLimit = 512
		if spec.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		fields[i] = formField{fieldSpec: spec, input: in}
	}
	return inputForm{fields: fields}
}

// focusCmd focuses the current field and starts the cursor blinking.
func (f *inputForm) focusCmd() tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	for i := range f.fields {
		if i == f.focus {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
	return textinput.Blink
}

func (f *inputForm) move(delta int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	return f.focusCmd()
}

func (f *inputForm) next() tea.Cmd { return f.move(1) }
func (f *inputForm) prev() tea.Cmd { return f.move(-1) }

// focusGroup moves the focus to the first field of group.
func (f *inputForm) focusGroup(group int) tea.Cmd {
	for i, field := range f.fields {
		if field.group == group {
			f.focus = i
			return f.focusCmd()
		}
	}
	return nil
}

// update forwards msg to the focused input.
func (f *inputForm) update(msg tea.Msg) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// submitGroup reports which group enter should submit, or -1 when the focus
// is not on the last field of its group or a submission is outstanding.
func (f *inputForm) submitGroup() int {
	if f.busy || len(f.fields) == 0 {
		return -1
	}
	group := f.fields[f.focus].group
	for i := f.focus + 1; i < len(f.fields); i++ {
		if f.fields[i].group == group {
			return -1
		}
	}
	return group
}

func (f *inputForm) value(i int) string {
	if i < 0 || i >= len(f.fields) {
		return ""
	}
	return f.fields[i].input.Value()
}

func (f *inputForm) setValue(i int, v string) {
	if i < 0 || i >= len(f.fields) {
		return
	}
	f.fields[i].input.SetValue(v)
}

// clearGroup empties every field of group.
func (f *inputForm) clearGroup(group int) {
	for i := range f.fields {
		if f.fields[i].group == group {
			f.fields[i].input.Reset()
		}
	}
}

func (f *inputForm) reset() {
	for i := range f.fields {
		f.fields[i].input.Reset()
	}
	f.focus = 0
	f.busy = false
}

// view renders labels and inputs, inserting a heading before each group when
// headings are given.
func (f inputForm) view(m Model, headings map[int]string) string {
	styles := m.theme.Styles()
	labelStyle := styles.MutedText.Width(18)
	var b strings.Builder
	lastGroup := -1
	for i, field := range f.fields {
		if field.group != lastGroup {
			if heading, ok := headings[field.group]; ok {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(styles.AccentText.Bold(true).Render(heading))
				b.WriteString("\n")
			}
			lastGroup = field.group
		}
		label := labelStyle.Render(field.label)
		if i == f.focus {
			label = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent)).Bold(true).Width(18).Render("› " + field.label)
		}
		b.WriteString(label)
		b.WriteString(field.input.View())
		b.WriteString("\n")
	}
	if f.busy {
		b.WriteString("\n")
		b.WriteString(styles.WarningText.Render("Working..."))
		b.WriteString("\n")
	}
	return b.String()
}
