package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curiospace/internal/apperr"
	"curiospace/internal/markdown"
	"curiospace/internal/session"
	"curiospace/internal/space"
)

var (
	exploreSnapshotDir string
	exploreWidth       int
)

func exploreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore [snapshot.json]",
		Short: "Explore a map interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExplore,
	}
	cmd.Flags().StringVar(&exploreSnapshotDir, "snapshot-dir", ".", "Directory save writes snapshots to")
	cmd.Flags().IntVar(&exploreWidth, "width", 80, "Column to wrap descriptions at")
	return cmd
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	render, err := markdown.NewRenderer(exploreWidth)
	if err != nil {
		a.logger.Sugar().Warnf("markdown rendering disabled: %v", err)
	}

	e := &explorer{
		sess:        session.New(a.service, a.logger),
		out:         cmd.OutOrStdout(),
		render:      render,
		snapshotDir: exploreSnapshotDir,
	}
	if len(args) == 1 {
		if err := e.sess.LoadSnapshotFile(args[0]); err != nil {
			return err
		}
	}
	return e.run(ctx, cmd.InOrStdin())
}

const exploreHelp = `Commands:
  new <subject>                 start a map for a subject
  random                        start a map for a suggested subject
  seed <item> | <item> | <item> build a map from three items
  edit <x|y> <min|max> <label>  change an axis label
  regen                         regenerate axes around edited labels
  at <x> <y>                    discover what lives at a coordinate
  place <name>                  place a named item
  show                          print the map
  select <n|id>                 show one entry in full
  delete <n|id>                 remove an entry
  dismiss                       clear the current notice
  save                          write a snapshot
  load <path>                   replace the map with a snapshot
  reset                         discard the map
  quit                          leave`

// explorer is a line-oriented front end over one session.
type explorer struct {
	sess        *session.Session
	out         io.Writer
	render      *markdown.Renderer
	snapshotDir string
}

func (e *explorer) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(e.out, "Type help for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(e.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(e.out)
			return scanner.Err()
		}
		quit, err := e.exec(ctx, scanner.Text())
		if err != nil {
			fmt.Fprintf(e.out, "error: %s\n", apperr.UserMessage(err))
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

func (e *explorer) exec(ctx context.Context, line string) (bool, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(e.out, exploreHelp)
	case "show":
		e.show()
	case "new":
		if rest == "" {
			return false, usage("new <subject>")
		}
		if _, err := e.sess.GenerateAxes(ctx, rest, space.Axis{}, space.Axis{}); err != nil {
			return false, err
		}
		e.show()
	case "random":
		if _, err := e.sess.GenerateRandom(ctx); err != nil {
			return false, err
		}
		e.show()
	case "seed":
		return false, e.seed(ctx, rest)
	case "edit":
		return false, e.edit(rest)
	case "regen":
		if _, err := e.sess.Regenerate(ctx); err != nil {
			return false, err
		}
		e.show()
	case "at":
		return false, e.at(ctx, rest)
	case "place":
		return false, e.place(ctx, rest)
	case "select":
		id, err := e.resolve(rest)
		if err != nil {
			return false, err
		}
		if err := e.sess.Select(id); err != nil {
			return false, err
		}
		if m, ok := e.find(id); ok {
			e.describe(m)
		}
	case "delete":
		id, err := e.resolve(rest)
		if err != nil {
			return false, err
		}
		if err := e.sess.DeleteManifestation(id); err != nil {
			return false, err
		}
		fmt.Fprintln(e.out, "Deleted.")
	case "dismiss":
		e.sess.DismissNotice()
	case "save":
		path, err := e.sess.SaveSnapshot(e.snapshotDir)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(e.out, "Saved %s\n", path)
	case "load":
		if rest == "" {
			return false, usage("load <path>")
		}
		if err := e.sess.LoadSnapshotFile(rest); err != nil {
			return false, err
		}
		e.show()
	case "reset":
		e.sess.Reset()
		fmt.Fprintln(e.out, "Map cleared.")
	default:
		return false, apperr.New(apperr.KindInvalidRequest, "unknown command %q; type help", verb)
	}
	return false, nil
}

func usage(form string) error {
	return apperr.New(apperr.KindInvalidRequest, "usage: %s", form)
}

func (e *explorer) seed(ctx context.Context, rest string) error {
	parts := strings.Split(rest, "|")
	res, err := e.sess.SeedFromItems(ctx, parts)
	if err != nil {
		return err
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(e.out, "Skipped %s: %s\n", s.Item, s.Reason)
	}
	e.show()
	return nil
}

func (e *explorer) edit(rest string) error {
	fields := strings.SplitN(rest, " ", 3)
	if len(fields) != 3 {
		return usage("edit <x|y> <min|max> <label>")
	}
	axis, err := space.ParseAxisName(fields[0])
	if err != nil {
		return apperr.New(apperr.KindInvalidRequest, "%v", err)
	}
	side, err := space.ParseSide(fields[1])
	if err != nil {
		return apperr.New(apperr.KindInvalidRequest, "%v", err)
	}
	if err := e.sess.EditAxisLabel(axis, side, fields[2]); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Axis changed. The map is cleared until you run regen.")
	return nil
}

func (e *explorer) at(ctx context.Context, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return usage("at <x> <y>")
	}
	x, err := parseCoordinate("x", fields[0])
	if err != nil {
		return apperr.New(apperr.KindInvalidRequest, "%v", err)
	}
	y, err := parseCoordinate("y", fields[1])
	if err != nil {
		return apperr.New(apperr.KindInvalidRequest, "%v", err)
	}
	m, err := e.sess.ManifestAt(ctx, x, y)
	if err != nil {
		return err
	}
	e.describe(m)
	return nil
}

func (e *explorer) place(ctx context.Context, name string) error {
	if name == "" {
		return usage("place <name>")
	}
	res, err := e.sess.PlaceItem(ctx, name)
	if err != nil {
		return err
	}
	if res.Notice != nil {
		fmt.Fprintf(e.out, "%s: %s\n", res.Notice.Name, e.render.Render(res.Notice.Description))
		return nil
	}
	e.describe(*res.Manifestation)
	return nil
}

// resolve accepts a 1-based list position or a manifestation id.
func (e *explorer) resolve(arg string) (string, error) {
	if arg == "" {
		return "", usage("<n|id>")
	}
	ms := e.sess.View().Manifestations
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(ms) {
			return "", apperr.New(apperr.KindNotFound, "no entry %d", n)
		}
		return ms[n-1].ID, nil
	}
	return arg, nil
}

func (e *explorer) find(id string) (space.Manifestation, bool) {
	for _, m := range e.sess.View().Manifestations {
		if m.ID == id {
			return m, true
		}
	}
	return space.Manifestation{}, false
}

func (e *explorer) show() {
	v := e.sess.View()
	if v.State == session.StateEmpty {
		fmt.Fprintln(e.out, "No map yet. Try: new <subject>")
		return
	}
	fmt.Fprintf(e.out, "Subject: %s\n", v.Subject)
	fmt.Fprintln(e.out, formatAxis("X", v.XAxis))
	fmt.Fprintln(e.out, formatAxis("Y", v.YAxis))
	if v.Dirty {
		fmt.Fprintln(e.out, "Axes edited: run regen before exploring.")
	}
	for i, m := range v.Manifestations {
		marker := " "
		if m.ID == v.Selected {
			marker = "*"
		}
		fmt.Fprintf(e.out, "%s%2d. %s (%g, %g)%s\n", marker, i+1, m.Name, m.X, m.Y, tags(m))
	}
	if v.Notice != nil {
		fmt.Fprintf(e.out, "%s: %s\n", v.Notice.Name, v.Notice.Description)
	}
}

func (e *explorer) describe(m space.Manifestation) {
	fmt.Fprintf(e.out, "%s (%g, %g)%s\n", m.Name, m.X, m.Y, tags(m))
	text := m.Description
	if m.IsImpossible {
		text = m.ImpossibleExplanation
	}
	if text != "" {
		fmt.Fprintln(e.out, e.render.Render(text))
	}
	if m.Reasoning != "" {
		fmt.Fprintf(e.out, "Why: %s\n", m.Reasoning)
	}
}

func tags(m space.Manifestation) string {
	switch {
	case m.IsImpossible:
		return " [paradox]"
	case m.IsHallucination:
		return " [hallucination]"
	default:
		return ""
	}
}
