// Package termui renders client output for the terminal. Styling is only
// applied when the output is a terminal.
package termui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/starford/notely/internal/models"
	"github.com/starford/notely/internal/notelist"
	"github.com/starford/notely/internal/notify"
)

var (
	colorPrimary = lipgloss.Color("#7C5CFA")
	colorAccent  = lipgloss.Color("#E879F9")
	colorMuted   = lipgloss.Color("#6B7280")
	colorError   = lipgloss.Color("#EF4444")
	colorFav     = lipgloss.Color("#F59E0B")
)

type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	tag     lipgloss.Style
	fav     lipgloss.Style
	errBox  lipgloss.Style
	infoBox lipgloss.Style
	summary lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		muted:   lipgloss.NewStyle().Foreground(colorMuted),
		tag:     lipgloss.NewStyle().Foreground(colorAccent),
		fav:     lipgloss.NewStyle().Foreground(colorFav),
		errBox:  lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorError).Padding(0, 1),
		infoBox: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPrimary).Padding(0, 1),
		summary: lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(colorAccent).PaddingLeft(1),
	}
}

// Printer writes notes, lists and notifications.
type Printer struct {
	w      io.Writer
	styled bool
	st     styles
}

// New creates a printer on w. Styling is enabled when w is a terminal.
func New(w io.Writer) *Printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{w: w, styled: styled, st: newStyles()}
}

// Plain creates a printer that never styles.
func Plain(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles()}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// Notify implements notify.Notifier.
func (p *Printer) Notify(n notify.Notification) {
	text := n.Title
	if n.Description != "" {
		text += ": " + n.Description
	}
	if !p.styled {
		prefix := "✓ "
		if n.Variant == notify.VariantDestructive {
			prefix = "✗ "
		}
		fmt.Fprintln(p.w, prefix+text)
		return
	}
	box := p.st.infoBox
	if n.Variant == notify.VariantDestructive {
		box = p.st.errBox
	}
	fmt.Fprintln(p.w, box.Render(text))
}

// Rows prints a note list, or empty when there are no rows.
func (p *Printer) Rows(rows []notelist.Row, empty string) {
	if len(rows) == 0 {
		fmt.Fprintln(p.w, p.style(p.st.muted, empty))
		return
	}
	for _, r := range rows {
		p.row(r)
	}
}

func (p *Printer) row(r notelist.Row) {
	var b strings.Builder
	b.WriteString(p.style(p.st.title, r.Title))
	if r.Favorite {
		b.WriteString(" " + p.style(p.st.fav, "★"))
	}
	if r.Public {
		b.WriteString(" " + p.style(p.st.muted, fmt.Sprintf("(public, %d views)", r.ViewCount)))
	}
	b.WriteString("  " + p.style(p.st.muted, r.ID))
	fmt.Fprintln(p.w, b.String())
	fmt.Fprintln(p.w, "  "+r.Snippet)

	meta := p.style(p.st.muted, r.Date)
	if len(r.Tags) > 0 {
		tags := make([]string, len(r.Tags))
		for i, t := range r.Tags {
			tags[i] = p.style(p.st.tag, "#"+t)
		}
		meta = strings.Join(tags, " ") + "  " + meta
	}
	fmt.Fprintln(p.w, "  "+meta)
}

// Note prints one note in full.
func (p *Printer) Note(n *models.Note) {
	title := n.Title
	if n.IsFavorite {
		title += " ★"
	}
	fmt.Fprintln(p.w, p.style(p.st.title, title))
	meta := fmt.Sprintf("id %s · updated %s", n.ID, n.UpdatedAt.Format(notelist.DateLayout))
	if n.IsPublic && n.Slug != nil {
		meta += fmt.Sprintf(" · public /public-notes/%s (%d views)", *n.Slug, n.ViewCount)
	}
	fmt.Fprintln(p.w, p.style(p.st.muted, meta))
	if len(n.Tags) > 0 {
		tags := make([]string, len(n.Tags))
		for i, t := range n.Tags {
			tags[i] = p.style(p.st.tag, "#"+t)
		}
		fmt.Fprintln(p.w, strings.Join(tags, " "))
	}
	fmt.Fprintln(p.w)
	if n.Content == "" {
		fmt.Fprintln(p.w, p.style(p.st.muted, notelist.EmptyContentLabel))
		return
	}
	fmt.Fprintln(p.w, n.Content)
}

// Summary prints a generated summary.
func (p *Printer) Summary(text string) {
	if !p.styled {
		fmt.Fprintln(p.w, "AI summary: "+text)
		return
	}
	fmt.Fprintln(p.w, p.st.summary.Render(p.st.title.Render("AI summary")+"\n"+text))
}

// Profile prints the account details.
func (p *Printer) Profile(initials, email, fullName string) {
	fmt.Fprintln(p.w, p.style(p.st.title, "["+initials+"] "+email))
	if fullName == "" {
		fmt.Fprintln(p.w, p.style(p.st.muted, "no full name set"))
		return
	}
	fmt.Fprintln(p.w, fullName)
}

// Line prints a plain line.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}
