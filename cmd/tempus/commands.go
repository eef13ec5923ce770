package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/starford/tempus/internal"
	"github.com/starford/tempus/internal/mcpserver"
	"github.com/starford/tempus/internal/noteservice"
)

// openRuntime loads the config and opens the vault for a one-shot command.
// Logs go to stderr so stdout stays free for command output.
func openRuntime(cmd *cli.Command) (*internal.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return internal.Open(cfg, logger, internal.WithVersion(version))
}

func touchCommand() *cli.Command {
	return &cli.Command{
		Name:      "touch",
		Usage:     "Mark notes as updated now without changing their content",
		ArgsUsage: "<path>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("touch: at least one note path is required")
			}
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			for _, p := range paths {
				note, err := rt.Service.TouchNote(ctx, p)
				if err != nil {
					return fmt.Errorf("touch %s: %w", p, err)
				}
				updated := "-"
				if note.Updated != nil {
					updated = note.Updated.Format(time.RFC3339)
				}
				fmt.Fprintf(os.Stdout, "%s\t%s\n", note.Path, updated)
			}
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a note's title, tags and timestamps",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("show: exactly one note path is required")
			}
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			note, err := rt.Service.GetNote(ctx, cmd.Args().First())
			if err != nil {
				return fmt.Errorf("show %s: %w", cmd.Args().First(), err)
			}
			printNote(os.Stdout, note, time.Now())
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the MCP tools over stdio",
		Action: func(_ context.Context, cmd *cli.Command) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			return mcpserver.New(rt.Service, version).ServeStdio()
		},
	}
}

// printNote writes a human-readable summary of note. Ages are relative to now.
func printNote(w io.Writer, note *noteservice.NoteDetail, now time.Time) {
	line := func(label, value string) {
		fmt.Fprintf(w, "%-11s %s\n", label+":", value)
	}
	line("path", note.Path)
	if note.Title != "" {
		line("title", note.Title)
	}
	if len(note.Tags) > 0 {
		line("tags", strings.Join(note.Tags, ", "))
	}
	line("created", moment(note.Created, now))
	if note.CreatedOn != nil {
		line("created_on", note.CreatedOn.String())
	}
	line("updated", moment(note.Updated, now))
	if note.UpdatedOn != nil {
		line("updated_on", note.UpdatedOn.String())
	}
	line("checksum", note.Checksum)
}

func moment(t *time.Time, now time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Format(time.RFC3339), humanize.RelTime(*t, now, "ago", "from now"))
}
