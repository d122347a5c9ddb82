// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/hrmsvault/internal/app"
	"github.com/tomtom215/hrmsvault/internal/auth"
	"github.com/tomtom215/hrmsvault/internal/backup"
)

// withApp builds the service graph for one command and closes it after.
func (c *cli) withApp(ctx context.Context, opts app.Options, fn func(a *app.App) error) error {
	opts.JournalFallback = true
	a, err := app.Build(ctx, c.cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // CLI exit
	return fn(a)
}

func (c *cli) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

func (c *cli) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Create a backup archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				spinner := startSpinner("Exporting", c.quiet)
				result, err := a.Service.Create(cmd.Context(), cliPrincipal)
				spinner.Finish()
				if err != nil {
					return cliError(err)
				}
				if c.jsonOutput {
					return c.printJSON(result)
				}
				fmt.Fprintf(c.out, "Created %s (%s, %d records)\n", result.FilePath, result.SizeFormatted, result.TotalRecords)
				fmt.Fprintf(c.out, "Backup ID: %s\nSHA-256:   %s\n", result.BackupID, result.Checksum)
				if result.Mirrored {
					fmt.Fprintln(c.out, "Off-site copy uploaded")
				}
				return nil
			})
		},
	}
}

func (c *cli) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backup archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				result, err := a.Service.List(cmd.Context(), cliPrincipal)
				if err != nil {
					return cliError(err)
				}
				if c.jsonOutput {
					return c.printJSON(result)
				}
				writeArchiveTable(c.out, result.Backups)
				return nil
			})
		},
	}
}

func writeArchiveTable(out io.Writer, entries []backup.ArchiveEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No backups found")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tMODIFIED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.FileName, e.SizeFormatted, e.ModifiedAt.Local().Format(time.DateTime))
	}
	tw.Flush() //nolint:errcheck // terminal output
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show live record counts, archives and recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				status, err := a.Service.Status(cmd.Context(), cliPrincipal)
				if err != nil {
					return cliError(err)
				}
				if c.jsonOutput {
					return c.printJSON(status)
				}
				writeStatus(c.out, status)
				return nil
			})
		},
	}
}

func writeStatus(out io.Writer, s *backup.StatusResult) {
	fmt.Fprintf(out, "Records:  %d\n", s.TotalRecords)
	fmt.Fprintf(out, "Archives: %d (%s)\n", s.BackupCount, s.TotalSizeFormatted)
	if s.NewestBackup != nil {
		fmt.Fprintf(out, "Newest:   %s\n", s.NewestBackup.Local().Format(time.DateTime))
	}
	if s.LastRestore != nil {
		fmt.Fprintf(out, "Restored: %s by %s\n", s.LastRestore.RestoredAt.Local().Format(time.DateTime), s.LastRestore.RestoredBy)
	}

	keys := make([]string, 0, len(s.CurrentCounts))
	for k := range s.CurrentCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nENTITY\tCOUNT")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%d\n", k, s.CurrentCounts[k])
	}
	tw.Flush() //nolint:errcheck // terminal output

	for _, r := range s.Recommendations {
		fmt.Fprintf(out, "* %s\n", r)
	}
}

func (c *cli) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a backup file without restoring it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				up, err := spoolFile(a.Store, args[0], c.quiet)
				if err != nil {
					return err
				}
				result, err := a.Service.Check(cmd.Context(), cliPrincipal, up)
				if err != nil {
					return cliError(err)
				}
				if c.jsonOutput {
					return c.printJSON(result)
				}
				if !result.Valid {
					fmt.Fprintln(c.out, "INVALID:")
					for _, p := range result.Problems {
						fmt.Fprintf(c.out, "  - %s\n", p)
					}
					return errors.New("backup file failed validation")
				}
				fmt.Fprintf(c.out, "Valid backup %s (%d records, created %s by %s)\n",
					result.Metadata.BackupID, result.Metadata.TotalRecords, result.Metadata.Timestamp, result.Metadata.CreatedBy)
				return nil
			})
		},
	}
}

func (c *cli) restoreCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Replace all HRMS data with the contents of a backup",
		Long:  "Restore deletes every record in the datastore and recreates it from FILE in one transaction. A failed restore leaves the datastore unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("restore replaces all data; re-run with --yes to confirm")
			}
			progress := newImportProgress(c.quiet)
			defer progress.Finish()

			opts := app.Options{ImporterOptions: []backup.ImporterOption{backup.WithProgress(progress.Report)}}
			return c.withApp(cmd.Context(), opts, func(a *app.App) error {
				up, err := spoolFile(a.Store, args[0], c.quiet)
				if err != nil {
					return err
				}
				result, err := a.Service.Restore(cmd.Context(), cliPrincipal, up)
				progress.Finish()
				if err != nil {
					return cliError(err)
				}
				if c.jsonOutput {
					return c.printJSON(result)
				}
				fmt.Fprintf(c.out, "Restored %d records from backup %s (created %s by %s)\n",
					result.RestoredRecords, result.BackupID, result.OriginalTimestamp, result.OriginalCreatedBy)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm that all current data will be replaced")
	return cmd
}

func (c *cli) cleanupCommand() *cobra.Command {
	var maxAge time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale scratch and upload files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if maxAge <= 0 {
				maxAge = c.cfg.Backup.ScratchMaxAge
			}
			return c.withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				removed, err := a.Service.CleanupScratch(cmd.Context(), cliPrincipal, maxAge)
				if err != nil {
					return cliError(err)
				}
				if c.jsonOutput {
					return c.printJSON(map[string]interface{}{"removed": removed, "maxAge": maxAge.String()})
				}
				fmt.Fprintf(c.out, "Removed %d stale files older than %s\n", removed, maxAge)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove files older than this (default BACKUP_SCRATCH_MAX_AGE)")
	return cmd
}

func (c *cli) tokenCommand() *cobra.Command {
	var (
		userID string
		name   string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT for the backup API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := auth.NewJWTManager(&c.cfg.Security)
			if err != nil {
				return err
			}
			tok, err := m.GenerateToken(userID, name, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "admin", "Subject (user ID)")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&role, "role", backup.RoleSuperAdmin, "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	return cmd
}

// spoolFile copies path into the store's uploads directory. The service
// deletes the spooled copy, never the operator's file.
func spoolFile(store *backup.Store, path string, quiet bool) (*backup.Upload, error) {
	src, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, err
	}
	defer src.Close() //nolint:errcheck // read-only

	info, err := src.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > store.MaxUploadSize() {
		return nil, fmt.Errorf("File size exceeds limit of %s", backup.FormatLimit(store.MaxUploadSize()))
	}

	dst, err := store.CreateUpload()
	if err != nil {
		return nil, err
	}
	w := newCopyProgress(dst, info.Size(), "Reading "+filepath.Base(path), quiet)
	_, copyErr := io.Copy(w, src)
	w.Close() //nolint:errcheck // finishes the bar
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		store.RemoveUpload(dst.Name())
		return nil, err
	}

	return &backup.Upload{
		FileName:    filepath.Base(path),
		ContentType: contentTypeFor(path),
		Size:        info.Size(),
		Path:        dst.Name(),
	}, nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return "application/zip"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// cliError renders a backup error as "CODE: message (cause)".
func cliError(err error) error {
	kind := backup.KindOf(err)
	msg := fmt.Sprintf("%s: %s", kind.Code(), backup.MessageOf(err))
	if detail := backup.DetailOf(err); detail != "" {
		msg += " (" + detail + ")"
	}
	return errors.New(msg)
}
