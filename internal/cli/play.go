package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rcliao/learning-beast/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Walk through onboarding and the learning path in the terminal",
		Long: "Run one session against the configured catalog, reading answers from stdin.\n" +
			"After each node answer, an optional confidence between 0 and 1 may follow on the same line after '|'.\n" +
			"Type 'quit' or send EOF to stop.",
		Run: runPlay,
	}

	cmd.Flags().StringP("name", "n", "", "Display name for the session")

	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	c, err := openCatalog(cmd.Context(), cfg)
	if err != nil {
		exitErr("open catalog", err)
	}

	store := session.NewStore(session.StoreOptions{TTL: cfg.Session.TTL(), Shards: 1})
	engine := session.NewEngine(c, store, nil, nil)
	if err := play(cmd.Context(), engine, name, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		exitErr("play", err)
	}
}

// play drives one session from in to out and finishes by printing the
// profile as JSON.
func play(ctx context.Context, engine *session.Engine, name string, in io.Reader, out io.Writer) error {
	lines := bufio.NewScanner(in)
	read := func() (string, bool) {
		if ctx.Err() != nil || !lines.Scan() {
			return "", false
		}
		line := strings.TrimSpace(lines.Text())
		return line, line != "quit"
	}

	id, q, err := engine.StartSession(name)
	if err != nil {
		return err
	}

	for q != nil {
		fmt.Fprintf(out, "\n%s\n", q.Prompt)
		if q.FollowUp != "" {
			fmt.Fprintf(out, "  (%s)\n", q.FollowUp)
		}
		for _, s := range q.SampleAnswers {
			fmt.Fprintf(out, "  e.g. %s\n", s)
		}
		fmt.Fprint(out, "> ")
		answer, ok := read()
		if !ok {
			return printProfile(engine, id, out)
		}
		if _, q, err = engine.AnswerQuestion(id, q.ID, answer); err != nil {
			return err
		}
	}

	view, err := engine.GetProfile(id)
	if err != nil {
		return err
	}
	current := view.CurrentNodeID
	for current != "" {
		node, err := engine.GetNode(id, current)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n== %s (%s, %d min, %d points) ==\n%s\n", node.Title, node.ActivityType, node.EstimatedMinutes, node.RewardOnCompletion, node.Summary)
		if node.Content != "" {
			fmt.Fprintf(out, "%s\n", node.Content)
		}
		fmt.Fprint(out, "> ")
		line, ok := read()
		if !ok {
			break
		}
		answer, confidence, err := splitConfidence(line)
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		res, err := engine.AnswerNode(id, node.ID, answer, confidence)
		if err != nil {
			return err
		}
		current = res.NextNodeID
	}

	return printProfile(engine, id, out)
}

// splitConfidence parses "answer | 0.9". The confidence is optional.
func splitConfidence(line string) (string, *float64, error) {
	answer, raw, found := strings.Cut(line, "|")
	answer = strings.TrimSpace(answer)
	if !found || strings.TrimSpace(raw) == "" {
		return answer, nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 || v > 1 {
		return "", nil, fmt.Errorf("confidence must be a number between 0 and 1")
	}
	return answer, &v, nil
}

func printProfile(engine *session.Engine, id string, out io.Writer) error {
	view, err := engine.GetProfile(id)
	if err != nil {
		return err
	}
	b, _ := json.MarshalIndent(view, "", "  ")
	fmt.Fprintf(out, "\n%s\n", b)
	return nil
}
