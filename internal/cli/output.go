// Package cli renders results, replies and host statistics for the terminal.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/itsmostafa/kvscript/internal/command"
	"github.com/itsmostafa/kvscript/internal/scripting"
)

var (
	// titleStyle for bold red headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for success indicators
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// errorStyle for error indicators
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the stats box with rounded border
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)

	// headerBoxStyle for the header
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)

	// bannerStyle for the repl banner
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("160")).
			Padding(0, 2)

	// nameStyle for command names
	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)
)

// printer formats counters with thousands separators.
var printer = message.NewPrinter(language.English)

// FormatHeader renders the session header with configuration info
func FormatHeader(w io.Writer, engine scripting.Engine, seed string, keys int) {
	if seed == "" {
		seed = "none"
	}
	content := fmt.Sprintf("%s %s  %s %s\n%s %s",
		dimStyle.Render("Engine:"), titleStyle.Render(string(engine)),
		dimStyle.Render("Keys:"), printer.Sprintf("%d", keys),
		dimStyle.Render("Seed:"), seed,
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))
}

// FormatBanner renders the repl banner
func FormatBanner(w io.Writer, engine scripting.Engine) {
	fmt.Fprintln(w, bannerStyle.Render(fmt.Sprintf(" KVSCRIPT %s ", strings.ToUpper(string(engine)))))
	fmt.Fprintln(w, dimStyle.Render(`Type a script, "!CMD args" to call a command, :help for help.`))
	fmt.Fprintln(w)
}

// FormatResult renders a script result the way an interactive client would
func FormatResult(w io.Writer, res scripting.Result, verbose bool) {
	if res.OK() || res.Class == scripting.ClassKeyNotFound {
		fmt.Fprintln(w, res.Reply().String())
	} else {
		fmt.Fprintln(w, errorStyle.Render("("+res.Class.String()+") "+res.Payload))
	}
	if verbose {
		status := successStyle.Render("OK")
		if !res.OK() {
			status = errorStyle.Render("ERROR")
		}
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("run %s  %d commands  %s ", res.RunID, res.Commands, res.Duration))+status)
	}
}

// FormatReply renders a command reply
func FormatReply(w io.Writer, r command.Reply) {
	if r.IsError() {
		fmt.Fprintln(w, errorStyle.Render(r.String()))
		return
	}
	fmt.Fprintln(w, r.String())
}

// FormatCommands renders the command table
func FormatCommands(w io.Writer, ds []*command.Descriptor) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("COMMAND", "ARITY", "FLAGS", "SUMMARY").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}
			if col == 0 {
				return nameStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, d := range ds {
		t.Row(d.Name, d.ArityString(), strings.Join(d.FlagNames(), ","), d.Summary)
	}
	fmt.Fprintln(w, t.Render())
}

// FormatStats renders the host statistics box
func FormatStats(w io.Writer, st scripting.Stats) {
	line1 := printer.Sprintf("%s %d  %s %d  %s %d",
		dimStyle.Render("Runs:"), st.Runs,
		dimStyle.Render("Failed:"), st.Failures,
		dimStyle.Render("Commands:"), st.Calls,
	)
	line2 := printer.Sprintf("%s %d  %s %d  %s %d  %s %d",
		dimStyle.Render("Replies:"), st.Returned,
		dimStyle.Render("Skipped:"), st.Skipped,
		dimStyle.Render("Arg bytes:"), st.ArgBytes,
		dimStyle.Render("Reply bytes:"), st.ReplyBytes,
	)
	content := titleStyle.Render("Session") + "\n" + line1 + "\n" + line2
	fmt.Fprintln(w, boxStyle.Render(content))
}

// EncodeRESP serializes a reply in the store's wire format.
func EncodeRESP(r command.Reply) string {
	var b strings.Builder
	writeRESP(&b, r)
	return b.String()
}

func writeRESP(b *strings.Builder, r command.Reply) {
	switch r.Kind {
	case command.KindStatus:
		b.WriteString("+" + r.Str + "\r\n")
	case command.KindError:
		b.WriteString("-" + r.Str + "\r\n")
	case command.KindInteger:
		b.WriteString(":" + strconv.FormatInt(r.Int, 10) + "\r\n")
	case command.KindBulk:
		b.WriteString("$" + strconv.Itoa(len(r.Str)) + "\r\n" + r.Str + "\r\n")
	case command.KindNil:
		b.WriteString("$-1\r\n")
	case command.KindArray:
		b.WriteString("*" + strconv.Itoa(len(r.Elems)) + "\r\n")
		for _, e := range r.Elems {
			writeRESP(b, e)
		}
	}
}

// EncodeResultRESP serializes a script result: a status line carrying the
// payload on success, an error line otherwise.
func EncodeResultRESP(res scripting.Result) string {
	switch {
	case res.OK():
		return EncodeRESP(command.Status(res.Payload))
	case res.Class == scripting.ClassKeyNotFound:
		return EncodeRESP(command.Nil())
	default:
		return EncodeRESP(command.Error(res.Payload))
	}
}
