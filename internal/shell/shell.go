// Package shell is the line-oriented terminal front end of the record store.
//
// It forwards each command to records.Store and re-renders the home list
// from a fresh Snapshot afterwards. The store never pushes changes, so the
// shell is the only place where the screen gets refreshed.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"registros/internal/core"
	"registros/internal/log"
	"registros/internal/records"
)

// Config carries the presentation settings.
type Config struct {
	UserName      string
	ConfirmDelete bool
	Logger        *log.Logger
}

type Shell struct {
	store    *records.Store
	in       io.Reader
	out      io.Writer
	userName string
	confirm  bool
	log      *log.Logger
	commands map[string]command
	tracer   tracer
}

// command handles one line. Returning quit=true ends the session.
type command func(ctx context.Context, in *lineReader, args []string) (quit bool, err error)

// New builds a shell reading commands from in and writing screens to out.
func New(store *records.Store, in io.Reader, out io.Writer, cfg Config) *Shell {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	name := strings.TrimSpace(cfg.UserName)
	if name == "" {
		name = "User"
	}

	s := &Shell{
		store:    store,
		in:       in,
		out:      out,
		userName: name,
		confirm:  cfg.ConfirmDelete,
		log:      logger.WithComponent(log.ComponentShell),
	}
	s.commands = map[string]command{
		"help":   s.handleHelp,
		"?":      s.handleHelp,
		"list":   s.handleList,
		"ls":     s.handleList,
		"all":    s.handleAll,
		"new":    s.handleNew,
		"add":    s.handleNew,
		"edit":   s.handleEdit,
		"delete": s.handleDelete,
		"rm":     s.handleDelete,
		"select": s.handleSelect,
		"sel":    s.handleSelect,
		"filter": s.handleFilter,
		"submit": s.bulk(core.StatusSubmitted),
		"close":  s.bulk(core.StatusClosed),
		"reopen": s.bulk(core.StatusOpen),
		"report": s.handleReport,
		"quit":   s.handleQuit,
		"exit":   s.handleQuit,
		"q":      s.handleQuit,
	}
	for name, cmd := range s.commands {
		s.commands[name] = s.tracer.wrap(name, cmd)
	}
	return s
}

// Metrics reports the commands run so far.
func (s *Shell) Metrics() Metrics {
	return s.tracer.metrics()
}

// Run drives the session until quit, end of input or ctx cancellation.
// All three count as a clean exit; only store failures are returned.
func (s *Shell) Run(ctx context.Context) error {
	logger := s.log.With(log.FieldSession, uuid.NewString())
	ctx = log.NewContext(ctx, logger)
	in := newLineReader(s.in)
	defer in.close()

	logger.InfoContext(ctx, "Session started")
	defer logger.InfoContext(ctx, "Session ended")

	if err := s.login(ctx, in); err != nil {
		return s.finish(ctx, err)
	}
	if err := s.render(ctx); err != nil {
		return err
	}

	for {
		fmt.Fprint(s.out, "> ")
		line, err := in.next(ctx)
		if err != nil {
			return s.finish(ctx, err)
		}

		name, args := parseCommand(line)
		if name == "" {
			continue
		}
		cmd, ok := s.commands[name]
		if !ok {
			fmt.Fprintf(s.out, "Unknown command %q. Type \"help\" for the list.\n", name)
			continue
		}

		quit, err := cmd(ctx, in, args)
		switch {
		case err == nil:
		case isEndOfSession(ctx, err):
			return s.finish(ctx, err)
		case errors.Is(err, errFormCancelled):
			fmt.Fprintln(s.out, "Cancelled.")
		default:
			logger.ErrorContext(ctx, "Command failed", log.FieldCommand, name, log.FieldError, err)
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		if quit {
			fmt.Fprintln(s.out, "Bye.")
			return nil
		}
		if err := s.render(ctx); err != nil {
			return err
		}
	}
}

func isEndOfSession(ctx context.Context, err error) bool {
	return errors.Is(err, io.EOF) || ctx.Err() != nil
}

func (s *Shell) finish(ctx context.Context, err error) error {
	if isEndOfSession(ctx, err) {
		fmt.Fprintln(s.out, "\nBye.")
		return nil
	}
	return err
}

// login shows the entry screen. No credentials are checked.
func (s *Shell) login(ctx context.Context, in *lineReader) error {
	fmt.Fprintln(s.out, "registros")
	fmt.Fprint(s.out, "Press Enter to sign in... ")
	_, err := in.next(ctx)
	return err
}

func (s *Shell) render(ctx context.Context) error {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	renderHome(s.out, s.userName, snap)
	return nil
}

func (s *Shell) handleHelp(context.Context, *lineReader, []string) (bool, error) {
	fmt.Fprint(s.out, helpText)
	return false, nil
}

func (s *Shell) handleList(context.Context, *lineReader, []string) (bool, error) {
	return false, nil
}

func (s *Shell) handleQuit(context.Context, *lineReader, []string) (bool, error) {
	return true, nil
}

// handleAll turns on every status that is currently hidden.
func (s *Shell) handleAll(context.Context, *lineReader, []string) (bool, error) {
	active := records.NewSet(s.store.Filter()...)
	for _, st := range core.Statuses() {
		if active.Has(st) {
			continue
		}
		if _, err := s.store.ToggleFilter(st); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (s *Shell) handleNew(ctx context.Context, in *lineReader, _ []string) (bool, error) {
	return false, s.runForm(ctx, in, "New record", core.Draft{}, func(ctx context.Context, d core.Draft) error {
		r, err := s.store.Create(ctx, d)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Added %q (%s).\n", r.Description, core.FormatAmount(r.Amount))
		return nil
	})
}

func (s *Shell) handleEdit(ctx context.Context, in *lineReader, args []string) (bool, error) {
	r, ok, err := s.lookup(ctx, args)
	if err != nil || !ok {
		return false, err
	}
	renderRecord(s.out, r)

	return false, s.runForm(ctx, in, "Edit record", core.DraftFromRecord(r), func(ctx context.Context, d core.Draft) error {
		updated, ok, err := s.store.Update(ctx, r.ID, d)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "That record no longer exists.")
			return nil
		}
		fmt.Fprintf(s.out, "Saved %q (%s).\n", updated.Description, core.FormatAmount(updated.Amount))
		return nil
	})
}

func (s *Shell) handleDelete(ctx context.Context, in *lineReader, args []string) (bool, error) {
	r, ok, err := s.lookup(ctx, args)
	if err != nil || !ok {
		return false, err
	}

	if s.confirm {
		fmt.Fprintf(s.out, "Delete %q (%s)? [y/N]: ", r.Description, core.FormatAmount(r.Amount))
		answer, err := in.next(ctx)
		if err != nil {
			return false, err
		}
		if !isYes(answer) {
			fmt.Fprintln(s.out, "Kept.")
			return false, nil
		}
	}

	deleted, err := s.store.Delete(ctx, r.ID)
	if err != nil {
		return false, err
	}
	if deleted {
		fmt.Fprintf(s.out, "Deleted %q.\n", r.Description)
	}
	return false, nil
}

func (s *Shell) handleSelect(ctx context.Context, _ *lineReader, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: select <n|id>...")
		return false, nil
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	for _, ref := range args {
		r, ok := resolveRef(snap, ref)
		if !ok {
			fmt.Fprintf(s.out, "No record %q.\n", ref)
			continue
		}
		if _, err := s.store.ToggleSelect(ctx, r.ID); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (s *Shell) handleFilter(_ context.Context, _ *lineReader, args []string) (bool, error) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: filter <open|submitted|closed>...")
		return false, nil
	}
	for _, arg := range args {
		st, err := core.ParseStatus(arg)
		if err != nil {
			fmt.Fprintf(s.out, "Unknown status %q.\n", arg)
			continue
		}
		if _, err := s.store.ToggleFilter(st); err != nil {
			return false, err
		}
	}
	return false, nil
}

// bulk builds the handler of a bulk status action.
func (s *Shell) bulk(status core.Status) command {
	return func(ctx context.Context, _ *lineReader, _ []string) (bool, error) {
		n, err := s.store.BulkSetStatus(ctx, status)
		if errors.Is(err, records.ErrNothingSelected) {
			fmt.Fprintln(s.out, "Select at least one record first.")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "%d record(s) marked %s.\n", n, status)
		return false, nil
	}
}

func (s *Shell) handleReport(ctx context.Context, _ *lineReader, _ []string) (bool, error) {
	rep, err := s.store.Report(ctx)
	if err != nil {
		return false, err
	}
	renderReport(s.out, rep)
	return false, nil
}

// lookup resolves the single record argument of edit and delete.
func (s *Shell) lookup(ctx context.Context, args []string) (core.Record, bool, error) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: <command> <n|id>")
		return core.Record{}, false, nil
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return core.Record{}, false, err
	}
	r, ok := resolveRef(snap, args[0])
	if !ok {
		fmt.Fprintf(s.out, "No record %q.\n", args[0])
	}
	return r, ok, nil
}
