package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/relicta-tech/grm/internal/application/release"
	"github.com/relicta-tech/grm/internal/domain/version"
	"github.com/relicta-tech/grm/internal/ui"
)

// isInteractive reports whether stdin and stdout are both terminals.
var isInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runBumpPicker is the full-screen picker, replaced in tests.
var runBumpPicker = ui.RunBumpPicker

// prompter asks questions on a line-oriented reader. One prompter serves
// a whole command so buffered input is not lost between questions.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func newPrompter() *prompter {
	return &prompter{r: bufio.NewReader(in), w: out}
}

// readLine returns the next trimmed input line. Input ending without a
// newline still counts as a line.
func (p *prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: no answer on input, use --yes to run unattended", release.ErrCanceled)
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm implements release.ConfirmFunc.
func (p *prompter) confirm(ctx context.Context, question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}

	for {
		fmt.Fprintf(p.w, "%s %s: ", question, hint)
		answer, err := p.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.w, "Please answer 'y' or 'n'.")
	}
}

// parseBumpChoice maps an answer of the line prompt to a bump type. An
// empty answer selects def. Only the capital M selects major.
func parseBumpChoice(answer string, def version.BumpType) (version.BumpType, bool) {
	if answer == "M" {
		return version.BumpMajor, true
	}
	switch strings.ToLower(answer) {
	case "":
		return def, true
	case "m", "minor":
		return version.BumpMinor, true
	case "p", "patch":
		return version.BumpPatch, true
	case "major":
		return version.BumpMajor, true
	}
	return "", false
}

// chooseBump prints the candidate versions and reads a choice.
func (p *prompter) chooseBump(ctx context.Context, catalog *version.Catalog, def version.BumpType) (version.BumpType, error) {
	if latest, ok := catalog.Latest(); ok {
		fmt.Fprintf(p.w, "Last version is %s.\n", latest)
	} else {
		fmt.Fprintln(p.w, "No previous versions found.")
	}
	fmt.Fprintln(p.w, "Choose bump type:")

	title := cases.Title(language.English)
	for _, bump := range version.AllBumpTypes {
		label := title.String(string(bump))
		key := strings.ToLower(label[:1])
		if bump == version.BumpMajor {
			key = "M"
		}
		fmt.Fprintf(p.w, "  [%s]%s → %s\n", key, strings.ToLower(label[1:]), catalog.MustSuggest(bump))
	}

	for {
		fmt.Fprintf(p.w, "(%s default) ", def)
		answer, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		if bump, ok := parseBumpChoice(answer, def); ok {
			return bump, nil
		}
		fmt.Fprintln(p.w, "Please enter 'm' for minor, 'p' for patch, or 'M' for major.")
	}
}

// bumpChooser returns the interactive bump selection for start: the
// full-screen picker on a terminal, the line prompt otherwise.
func (p *prompter) bumpChooser(def version.BumpType) release.ChooseBumpFunc {
	return func(ctx context.Context, catalog *version.Catalog, notes []string) (version.BumpType, error) {
		if !isInteractive() {
			return p.chooseBump(ctx, catalog, def)
		}
		bump, err := runBumpPicker(catalog, notes, def)
		if errors.Is(err, ui.ErrPickerCanceled) {
			return "", fmt.Errorf("%w: %v", release.ErrCanceled, err)
		}
		return bump, err
	}
}

// spinnerActivity shows a spinner on stderr while a remote operation runs.
// Without a terminal it logs the operation instead.
func spinnerActivity(description string) func() {
	if !isInteractive() {
		logger.Info(description)
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + description + "..."
	s.Start()
	return s.Stop
}
