package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pavelanni/testprep/internal/assessment"
	"github.com/pavelanni/testprep/internal/bank"
	appI18n "github.com/pavelanni/testprep/internal/i18n"
)

var errQuit = errors.New("quit without submitting")

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take [FILE]",
		Short: "Take a test in the terminal using a bank file or the built-in sample",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd)
			v := viperForCmd(cmd)

			f := bank.Sample()
			if len(args) == 1 {
				var err error
				if f, _, err = bank.Load(args[0]); err != nil {
					return err
				}
			}
			b, err := f.Bank()
			if err != nil {
				return err
			}

			lang := v.GetString("lang")
			if err := appI18n.Init(lang); err != nil {
				return fmt.Errorf("init i18n: %w", err)
			}
			ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))

			fmt.Fprintln(cmd.OutOrStdout(), f.Name)
			_, err = takeQuiz(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), b)
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringP("lang", "l", "en", "Language (en, hi)")
	cmd.Flags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "Log format (text, json)")
	return cmd
}

// takeQuiz runs one attempt on b, reading commands from in. The attempt is
// submitted on "s" (after confirmation) or when input ends, and the report
// is printed to out.
func takeQuiz(ctx context.Context, in io.Reader, out io.Writer, b *assessment.Bank) (assessment.Report, error) {
	a, err := assessment.Start(b)
	if err != nil {
		return assessment.Report{}, err
	}
	sc := bufio.NewScanner(in)

	fmt.Fprintln(out, appI18n.T(ctx, "AppTitle"))
	printItem(ctx, out, a)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		idx, _ := a.Current()
		switch cmd := strings.ToLower(fields[0]); cmd {
		case "n":
			_, err = a.Navigate(assessment.Next)
		case "p":
			_, err = a.Navigate(assessment.Previous)
		case "g":
			err = goTo(a, fields)
		case "c":
			err = a.Clear(idx)
		case "s":
			fmt.Fprintln(out, appI18n.T(ctx, "ConfirmSubmit"))
			if sc.Scan() && strings.EqualFold(strings.TrimSpace(sc.Text()), "y") {
				return submitAndReport(ctx, out, a)
			}
		case "q":
			return assessment.Report{}, errQuit
		case "h", "?":
		default:
			n, convErr := strconv.Atoi(cmd)
			if convErr != nil {
				fmt.Fprintln(out, appI18n.Td(ctx, "UnknownCommand", map[string]any{"Command": cmd}))
				continue
			}
			err = a.SelectAnswer(idx, n-1)
		}

		if errors.Is(err, assessment.ErrIndexOutOfRange) {
			fmt.Fprintln(out, appI18n.T(ctx, "OutOfRange"))
		} else if err != nil {
			return assessment.Report{}, err
		}
		err = nil
		printItem(ctx, out, a)
	}
	if err := sc.Err(); err != nil {
		return assessment.Report{}, fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(out)
	return submitAndReport(ctx, out, a)
}

func goTo(a *assessment.Attempt, fields []string) error {
	if len(fields) < 2 {
		return assessment.ErrIndexOutOfRange
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return assessment.ErrIndexOutOfRange
	}
	return a.GoTo(n - 1)
}

func printItem(ctx context.Context, out io.Writer, a *assessment.Attempt) {
	st := a.Snapshot()
	idx, item := a.Current()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s  (%s)\n",
		appI18n.Td(ctx, "QuestionNofM", map[string]any{"N": idx + 1, "Total": st.Total}),
		appI18n.Td(ctx, "Progress", map[string]any{"Answered": st.Answered, "Total": st.Total}))
	fmt.Fprintln(out, item.Prompt)
	chosen, answered := st.Answers[idx]
	for i, opt := range item.Options {
		marker := " "
		if answered && chosen == i {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %d) %s\n", marker, i+1, opt)
	}
	fmt.Fprintln(out, appI18n.Td(ctx, "TakeHelp", map[string]any{"Options": len(item.Options)}))
}

func submitAndReport(ctx context.Context, out io.Writer, a *assessment.Attempt) (assessment.Report, error) {
	if err := a.Submit(); err != nil {
		return assessment.Report{}, err
	}
	rep, err := a.Report()
	if err != nil {
		return assessment.Report{}, err
	}
	printReport(ctx, out, rep)
	return rep, nil
}

func printReport(ctx context.Context, out io.Writer, rep assessment.Report) {
	fmt.Fprintln(out, appI18n.T(ctx, "TestResults"))
	fmt.Fprintln(out, appI18n.Td(ctx, "ScoreLine", map[string]any{
		"Score":      strconv.FormatFloat(rep.ScorePercent, 'f', -1, 64),
		"Correct":    rep.Counts.Correct,
		"Incorrect":  rep.Counts.Incorrect,
		"Unanswered": rep.Counts.Unanswered,
	}))
	if rep.Counts.Unanswered > 0 {
		fmt.Fprintln(out, appI18n.Tp(ctx, "ItemsUnanswered", rep.Counts.Unanswered))
	}

	for _, res := range rep.Items {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%d. %s [%s]\n", res.Index+1, res.Prompt, outcomeLabel(ctx, res.Outcome))
		if res.Chosen != nil {
			fmt.Fprintln(out, "   "+appI18n.Td(ctx, "YourAnswer", map[string]any{"Answer": res.Options[*res.Chosen]}))
		} else {
			fmt.Fprintln(out, "   "+appI18n.T(ctx, "NotAnswered"))
		}
		fmt.Fprintln(out, "   "+appI18n.Td(ctx, "CorrectAnswer", map[string]any{"Answer": res.Options[res.Correct]}))
	}
}

func outcomeLabel(ctx context.Context, o assessment.Outcome) string {
	switch o {
	case assessment.OutcomeCorrect:
		return appI18n.T(ctx, "OutcomeCorrect")
	case assessment.OutcomeIncorrect:
		return appI18n.T(ctx, "OutcomeIncorrect")
	default:
		return appI18n.T(ctx, "OutcomeUnanswered")
	}
}
