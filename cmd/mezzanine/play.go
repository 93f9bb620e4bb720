package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mezzanine/app"
	"mezzanine/domain/core"
	"mezzanine/models"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

func newPlayCmd(flags *overrides) *cobra.Command {
	var (
		resume string
		plain  bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a guessing game in the terminal",
		Long: `Privately think of a criterion and answer whether each subject shown
satisfies it. Mezzanine asks the most informative questions it can find until
it knows your criterion or can no longer tell the remaining candidates apart.

Example: mezzanine play --game number --bound 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer rt.Close()

			var id core.SessionID
			if resume != "" {
				if id, err = core.ParseSessionID(resume); err != nil {
					return err
				}
			} else {
				header, _, err := rt.games.Start(ctx, rt.startRequest())
				if err != nil {
					return err
				}
				id = core.SessionID(header.ID)
			}
			out := cmd.OutOrStdout()
			if plain {
				return runPlay(ctx, rt.games, id, newPlainLines(os.Stdin, out), out)
			}
			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)
			return runPlay(ctx, rt.games, id, editedLines{ln}, out)
		},
	}

	cmd.Flags().StringVar(&resume, "resume", "", "continue a stored session by id")
	cmd.Flags().BoolVar(&plain, "plain", false, "read answers as plain lines without line editing")
	return cmd
}

// lineReader shows a prompt and reads one line of input. It returns io.EOF
// when the player is done.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

// plainLines reads newline-terminated answers from any reader
type plainLines struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPlainLines(in io.Reader, out io.Writer) *plainLines {
	return &plainLines{reader: bufio.NewReader(in), out: out}
}

func (p *plainLines) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && line != "" {
		return line, nil
	}
	return line, err
}

// editedLines reads answers with line editing and history
type editedLines struct {
	state *liner.State
}

func (e editedLines) ReadLine(prompt string) (string, error) {
	line, err := e.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		e.state.AppendHistory(line)
	}
	return line, nil
}

// runPlay asks the questions of a session on out and reads verdicts from
// lines until the session is over or the input is exhausted.
func runPlay(ctx context.Context, games *app.GameService, id core.SessionID, lines lineReader, out io.Writer) error {
	header, step, err := games.Current(ctx, id)
	if err != nil {
		return err
	}
	printWelcome(out, header)
	if step.Prompt != nil {
		fmt.Fprintf(out, "Size of hypothesis space: %d\n", step.Prompt.Remaining)
	}
	fmt.Fprintf(out, "Session %s (seed %d)\n\n", header.ID, header.Seed)

	subject := subjectNoun(header.Game)
	for step.Prompt != nil {
		prompt := step.Prompt
		fmt.Fprintf(out, "This program's belief distribution (over %d remaining hypotheses) has an entropy of %.3f bits. "+
			"Learning whether %s has the property is expected to reduce the entropy by %.3f bits.\n",
			prompt.Remaining, prompt.Entropy, prompt.Subject, prompt.Value)

		verdict, err := readVerdict(lines, out, prompt.Subject)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintf(out, "\nStopping. Resume with: mezzanine play --resume %s\n", header.ID)
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "On the question of whether %s has the property, you said %t.\n\n", prompt.Subject, verdict)

		header, step, err = games.Answer(ctx, id, verdict)
		if err != nil && !core.IsCollapse(err) {
			return err
		}
	}

	printOutcome(out, subject, step.Outcome)
	return nil
}

func printWelcome(out io.Writer, header *models.GameSession) {
	switch header.Game {
	case app.GameNumber:
		fmt.Fprintf(out, "Welcome to Mezzanine v. %s! Privately think of a criterion concerning natural numbers not greater than %d. "+
			"This program will attempt to efficiently infer the nature of the criterion by asking you whether specific numbers "+
			"do or do not have the property of satisfying the criterion.\n", version, header.Bound)
	default:
		fmt.Fprintf(out, "Welcome to Mezzanine v. %s! Privately think of a criterion concerning studies of stacked triangles. "+
			"This program will attempt to efficiently infer the nature of the criterion by asking you whether specific studies "+
			"do or do not have the property of satisfying the criterion.\n", version)
	}
}

func subjectNoun(game string) string {
	if game == app.GameNumber {
		return "a natural number"
	}
	return "a study"
}

// readVerdict prompts until the player answers yes or no
func readVerdict(lines lineReader, out io.Writer, subject string) (bool, error) {
	for {
		line, err := lines.ReadLine(fmt.Sprintf("Does %s have the property? [Y/n] >> ", subject))
		if err != nil {
			return false, err
		}
		if answer := strings.TrimSpace(line); answer != "" {
			switch answer[0] {
			case 'Y', 'y':
				return true, nil
			case 'N', 'n':
				return false, nil
			}
		}
		fmt.Fprintln(out, "\nAnswer Y or n. You must comply.")
	}
}

func printOutcome(out io.Writer, subject string, outcome *app.Outcome) {
	if outcome == nil {
		return
	}
	switch outcome.State {
	case models.SessionStateCertain:
		fmt.Fprintf(out, "This program infers that %s has the property iff %s.\n", subject, outcome.Conclusion)
	case models.SessionStateIndifferent:
		fmt.Fprintln(out, "This program has inferred all that it can, and is indifferent between the following hypotheses "+
			"concerning when "+subject+" has the property:")
		for _, candidate := range outcome.Candidates {
			fmt.Fprintf(out, "  * %s\n", candidate.Description)
		}
	case models.SessionStateCollapsed:
		fmt.Fprintf(out, "%s.\n", capitalize(core.CollapseMessage))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
