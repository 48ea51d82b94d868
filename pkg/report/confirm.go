package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
)

// stdinReader is overridable in tests so they don't need a real TTY.
var stdinReader = func() *bufio.Reader { return bufio.NewReader(os.Stdin) }

func hasControllingTTY() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := stdinReader().ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read operator input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm requests a verbatim-token confirmation (spec §4.1, §9: this is
// intentionally not a yes/no prompt -- the operator must type the exact
// token). AUTO_YES=1 short-circuits to true (outcome "auto_yes");
// AUTO_NO=1 (a test-only escape hatch) short-circuits to false (outcome
// "auto_no").
func (r *Report) Confirm(prompt, token string) bool {
	r.mu.Lock()
	autoYes, autoNo := r.autoYes, r.autoNo
	stepIdx := r.currentStepIdx
	r.mu.Unlock()

	if autoYes {
		r.recordConfirmation(stepIdx, ConfirmPlain, prompt, "auto_yes")
		return true
	}
	if autoNo {
		r.recordConfirmation(stepIdx, ConfirmPlain, prompt, "auto_no")
		return false
	}

	reply, err := readLine(fmt.Sprintf("%s [type %s to confirm]: ", prompt, token))
	if err != nil {
		r.recordConfirmation(stepIdx, ConfirmPlain, prompt, "read_error")
		return false
	}

	outcome := "denied"
	ok := reply == token
	if ok {
		outcome = "confirmed"
	}
	r.recordConfirmation(stepIdx, ConfirmPlain, prompt, outcome)
	return ok
}

// ConfirmRetype is like Confirm but returns ErrRetypeMismatch on a
// non-matching reply, for the caller to treat as fatal (spec §4.1: used
// for destructive confirmations).
func (r *Report) ConfirmRetype(prompt, expected string) error {
	r.mu.Lock()
	autoYes, autoNo := r.autoYes, r.autoNo
	stepIdx := r.currentStepIdx
	r.mu.Unlock()

	if autoYes {
		r.recordConfirmation(stepIdx, ConfirmRetype, prompt, "auto_yes")
		return nil
	}
	if autoNo {
		r.recordConfirmation(stepIdx, ConfirmRetype, prompt, "auto_no")
		return fmt.Errorf("%w: AUTO_NO set", ErrRetypeMismatch)
	}

	reply, err := readLine(fmt.Sprintf("%s [retype %q to confirm]: ", prompt, expected))
	if err != nil {
		r.recordConfirmation(stepIdx, ConfirmRetype, prompt, "read_error")
		return fmt.Errorf("%w: %v", ErrRetypeMismatch, err)
	}

	if reply != expected {
		r.recordConfirmation(stepIdx, ConfirmRetype, prompt, "mismatch")
		return fmt.Errorf("%w: expected %q, got %q", ErrRetypeMismatch, expected, reply)
	}
	r.recordConfirmation(stepIdx, ConfirmRetype, prompt, "confirmed")
	return nil
}

// Select presents a 1-based numbered menu and returns the zero-based
// index of the operator's choice. AUTO_YES=1 always selects option 0.
func (r *Report) Select(prompt string, options ...string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("%w: Select requires at least one option", ErrInvalidArgument)
	}

	r.mu.Lock()
	autoYes := r.autoYes
	stepIdx := r.currentStepIdx
	r.mu.Unlock()

	if autoYes {
		r.recordConfirmation(stepIdx, ConfirmSelect, prompt, "auto_yes:0")
		return 0, nil
	}

	fmt.Println(prompt)
	for i, opt := range options {
		fmt.Printf("  %d) %s\n", i+1, opt)
	}
	reply, err := readLine("Select an option: ")
	if err != nil {
		r.recordConfirmation(stepIdx, ConfirmSelect, prompt, "read_error")
		return 0, fmt.Errorf("failed to read selection: %w", err)
	}

	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil || n < 1 || n > len(options) {
		r.recordConfirmation(stepIdx, ConfirmSelect, prompt, "invalid:"+reply)
		return 0, fmt.Errorf("invalid selection %q: expected a number between 1 and %d", reply, len(options))
	}

	r.recordConfirmation(stepIdx, ConfirmSelect, prompt, fmt.Sprintf("selected:%d", n))
	return n - 1, nil
}

func (r *Report) recordConfirmation(stepIdx int, kind ConfirmKind, prompt, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmations = append(r.confirmations, Confirmation{
		StepIndex: stepIdx,
		Kind:      kind,
		Prompt:    prompt,
		Outcome:   outcome,
	})
}

// Secret prompts for a password or other sensitive value with echo
// disabled, reading from the controlling terminal. It always prompts
// interactively regardless of AUTO_YES (spec §9: secret prompts bypass
// auto-yes) and fails if there is no controlling TTY to read from.
func Secret(prompt string) (string, error) {
	if !hasControllingTTY() {
		return "", fmt.Errorf("cannot prompt for %q: no controlling terminal", prompt)
	}
	var answer string
	if err := survey.AskOne(&survey.Password{Message: prompt}, &answer); err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return answer, nil
}

// PreviewExec shows the first 200 lines of previewFile, requests a
// "YES" confirmation, and on confirmation invokes run (spec §4.1).
// Denial returns (1, ErrOperatorDenied) without calling run.
func (r *Report) PreviewExec(previewFile string, run func() (int, error)) (int, error) {
	if err := printFirstLines(previewFile, 200); err != nil {
		return 1, err
	}
	if !r.Confirm(fmt.Sprintf("Proceed with execution of %s?", previewFile), "YES") {
		return 1, ErrOperatorDenied
	}
	return run()
}

func printFirstLines(path string, n int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open preview file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() && count < n {
		fmt.Println(scanner.Text())
		count++
	}
	return nil
}
