package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tartampluch/go-wishes/internal/config"
	"github.com/tartampluch/go-wishes/internal/contacts"
	"github.com/tartampluch/go-wishes/internal/daemon"
	"github.com/tartampluch/go-wishes/internal/engine"
	"github.com/tartampluch/go-wishes/internal/locale"
	"github.com/tartampluch/go-wishes/internal/messenger"
	"github.com/tartampluch/go-wishes/internal/outbox"
	"github.com/tartampluch/go-wishes/internal/server"
	"github.com/tartampluch/go-wishes/internal/ui"
)

// cliApp carries the state shared by every subcommand.
type cliApp struct {
	configPath string
	debug      bool

	// initLogging is nil in tests, which keep the default logger.
	initLogging func(debug bool) io.Closer
	logCloser   io.Closer

	settings     config.Settings
	settingsPath string
	translator   *locale.Translator
	svc          *daemon.Service
}

func (c *cliApp) close() {
	if c.svc != nil {
		_ = c.svc.Close()
	}
	if c.logCloser != nil {
		_ = c.logCloser.Close()
	}
}

// setup runs before every command: logging, then settings.
func (c *cliApp) setup(cmd *cobra.Command, _ []string) error {
	if c.initLogging != nil {
		c.logCloser = c.initLogging(c.debug)
	}
	logStartupInfo(cmd.CommandPath())

	s, path, err := config.LoadSettings(c.configPath)
	if err != nil {
		return err
	}
	c.settings = s
	c.settingsPath = path
	c.translator = locale.New(s.Language)
	return nil
}

// service builds the shared service once per process.
func (c *cliApp) service() (*daemon.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	svc, err := daemon.NewService(c.settings, c.translator)
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

func newRootCmd(c *cliApp) *cobra.Command {
	root := &cobra.Command{
		Use:   config.CmdName,
		Short: "Greet your contacts on their birthday",
		Long: `Go Wishes keeps a small address book of birthdays, renders a greeting
card for everyone celebrating today and sends it through the configured
messenger. Without a subcommand the desktop application starts.`,
		Version:           config.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE:              c.runGUI,
	}
	root.SetVersionTemplate(fmt.Sprintf(config.MsgVersionOutput, config.AppName, config.Version, runtime.GOOS, runtime.GOARCH))

	root.PersistentFlags().StringVar(&c.configPath, config.FlagConfig, "", config.FlagDescConfig)
	root.PersistentFlags().BoolVar(&c.debug, config.FlagDebug, false, config.FlagDescDebug)

	root.AddCommand(
		&cobra.Command{
			Use:   "gui",
			Short: "Start the desktop application",
			Args:  cobra.NoArgs,
			RunE:  c.runGUI,
		},
		&cobra.Command{
			Use:   "today",
			Short: "List the contacts whose birthday is today",
			Args:  cobra.NoArgs,
			RunE:  c.runToday,
		},
		c.upcomingCmd(),
		c.listCmd(),
		&cobra.Command{
			Use:   "add NAME PHONE BIRTHDAY",
			Short: "Add a contact (birthday as D-Mon, e.g. 5-Mar)",
			Args:  cobra.ExactArgs(3),
			RunE:  c.runAdd,
		},
		c.editCmd(),
		&cobra.Command{
			Use:   "delete NAME PHONE BIRTHDAY",
			Short: "Delete every contact matching all three fields",
			Args:  cobra.ExactArgs(3),
			RunE:  c.runDelete,
		},
		c.importCmd(),
		c.renderCmd(),
		c.sendCmd(),
		c.calendarCmd(),
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the birthday calendar feed",
			Args:  cobra.NoArgs,
			RunE:  c.runServe,
		},
		c.daemonCmd(),
		c.credentialsCmd(),
		c.historyCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				printVersion(cmd.OutOrStdout())
			},
		},
	)
	return root
}

// -----------------------------------------------------------------------------
// GUI
// -----------------------------------------------------------------------------

func (c *cliApp) runGUI(cmd *cobra.Command, _ []string) error {
	svc, err := c.service()
	if err != nil {
		return err
	}
	svc.Server = server.NewFeedServer(c.settings.ServerPort)

	ctx := cmd.Context()
	a := app.NewWithID(config.AppID)
	gui := ui.NewWishesApp(a, ctx, svc, c.settingsPath)

	// Quit the UI when the process is interrupted.
	go func() {
		<-ctx.Done()
		slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompMain)
		a.Quit()
	}()

	gui.Run()
	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return nil
}

// -----------------------------------------------------------------------------
// Listing
// -----------------------------------------------------------------------------

func (c *cliApp) runToday(cmd *cobra.Command, _ []string) error {
	svc, err := c.service()
	if err != nil {
		return err
	}
	today, err := svc.Today()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(today) == 0 {
		_, err := fmt.Fprintln(out, c.translator.Msg(config.TKeyTrayStatusZero))
		return err
	}
	return writeContacts(out, today)
}

func (c *cliApp) upcomingCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List the birthdays of the coming days, soonest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 0 {
				days = c.settings.HorizonDays
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			windows, err := svc.Upcoming(days)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, config.TabPadding, ' ', 0)
			for _, w := range windows {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.Contact.Name, w.Contact.Phone, w.Contact.Birthday, c.translator.DaysUntil(w.DaysUntil))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", -1, "horizon in days (default from settings)")
	return cmd
}

func (c *cliApp) listCmd() *cobra.Command {
	var (
		search string
		sortBy string
		desc   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contacts, optionally filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			list, err := svc.Store.Find(contacts.Contains(search))
			if err != nil {
				return err
			}
			if sortBy != "" {
				col, ok := contacts.ParseColumn(sortBy)
				if !ok {
					return fmt.Errorf("%s: %q", config.ErrSortColumn, sortBy)
				}
				contacts.SortBy(list, col, !desc)
			}
			return writeContacts(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text to look for in name, phone or birthday")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort column: name, phone or birthday")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort in descending order")
	return cmd
}

func writeContacts(w io.Writer, list []contacts.Contact) error {
	tw := tabwriter.NewWriter(w, 0, 0, config.TabPadding, ' ', 0)
	for _, c := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Phone, c.Birthday)
	}
	return tw.Flush()
}

// -----------------------------------------------------------------------------
// Editing
// -----------------------------------------------------------------------------

func (c *cliApp) runAdd(cmd *cobra.Command, args []string) error {
	svc, err := c.service()
	if err != nil {
		return err
	}
	added, err := svc.Store.Insert(contacts.Contact{Name: args[0], Phone: args[1], Birthday: args[2]})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), config.MsgAddedOutput, added.Name, added.Birthday)
	return err
}

func (c *cliApp) editCmd() *cobra.Command {
	var name, phone, bday string
	cmd := &cobra.Command{
		Use:   "edit NAME PHONE BIRTHDAY",
		Short: "Replace every contact matching all three fields",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := contacts.MatchKey{Name: args[0], Phone: args[1], Birthday: args[2]}
			next := contacts.Contact{Name: key.Name, Phone: key.Phone, Birthday: key.Birthday}
			if cmd.Flags().Changed("name") {
				next.Name = name
			}
			if cmd.Flags().Changed("phone") {
				next.Phone = phone
			}
			if cmd.Flags().Changed("birthday") {
				next.Birthday = bday
			}

			svc, err := c.service()
			if err != nil {
				return err
			}
			n, err := svc.Store.Update(key, next)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), config.MsgUpdatedOutput, n)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&phone, "phone", "", "new phone")
	cmd.Flags().StringVar(&bday, "birthday", "", "new birthday (D-Mon)")
	return cmd
}

func (c *cliApp) runDelete(cmd *cobra.Command, args []string) error {
	svc, err := c.service()
	if err != nil {
		return err
	}
	n, err := svc.Store.Delete(contacts.MatchKey{Name: args[0], Phone: args[1], Birthday: args[2]})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), config.MsgDeletedOutput, n)
	return err
}

func (c *cliApp) importCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "import SOURCE",
		Short: "Import birthdays from a vCard file or URL",
		Long: `Import reads a .vcf file or downloads one over HTTP(S) (a CardDAV
export link, for example) and adds every card with a name, a phone and a
birthday that is not already in the address book.

The password for --user comes from GOWISHES_IMPORT_PASSWORD or from the
keyring (see "credentials set --import-user").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := config.ImportPassword(user)
			if err != nil {
				return err
			}
			svc, err := c.service()
			if err != nil {
				return err
			}

			im := &engine.Importer{Fetcher: engine.NewHTTPFetcher()}
			res, err := im.Import(cmd.Context(), args[0], engine.Credentials{User: user, Password: pass})
			if err != nil {
				return err
			}
			added, err := engine.Merge(svc.Store, res.Contacts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), config.MsgImportedOutput, added, len(res.Contacts)-added, res.Skipped)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user name for a protected URL")
	return cmd
}

// -----------------------------------------------------------------------------
// Greeting
// -----------------------------------------------------------------------------

func (c *cliApp) renderCmd() *cobra.Command {
	var (
		outDir   string
		template string
	)
	cmd := &cobra.Command{
		Use:   "render NAME",
		Short: "Render a greeting card for NAME and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir != "" {
				c.settings.OutputDir = outDir
			}
			if template != "" {
				c.settings.Template = template
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			path, err := svc.Render(contacts.Contact{Name: args[0]})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory")
	cmd.Flags().StringVar(&template, "template", "", "cake file name in the templates directory")
	return cmd
}

func (c *cliApp) sendCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send wishes to everyone whose birthday is today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			if dryRun {
				svc.Messenger = messenger.DryRun{}
				// A rehearsal must not mark anyone as greeted.
				ledger := svc.Ledger
				svc.Ledger = nil
				defer func() { svc.Ledger = ledger }()
			}

			out := cmd.OutOrStdout()
			results, err := svc.SendToday(cmd.Context(), func(r outbox.Result) {
				line := fmt.Sprintf("%s\t%s", r.Contact.Name, r.Status)
				if r.Err != nil {
					line += "\t" + r.Err.Error()
				}
				_, _ = fmt.Fprintln(out, line)
			})
			if err != nil {
				return err
			}
			if len(results) == 0 {
				_, _ = fmt.Fprintln(out, c.translator.Msg(config.TKeySendNone))
				return nil
			}
			_, _ = fmt.Fprintln(out, c.translator.Format(config.TKeySendDone, map[string]any{
				config.TDataSent:   outbox.Count(results, outbox.StatusSent),
				config.TDataFailed: outbox.Count(results, outbox.StatusFailed),
			}))
			return outbox.Err(results)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render and log without sending or recording")
	return cmd
}

// -----------------------------------------------------------------------------
// Background
// -----------------------------------------------------------------------------

func (c *cliApp) calendarCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Export every birthday as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			ics, err := svc.Calendar()
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(ics)
				return err
			}
			return os.WriteFile(out, ics, config.FilePermUserRW)
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write to this file instead of stdout")
	return cmd
}

func (c *cliApp) runServe(cmd *cobra.Command, _ []string) error {
	svc, err := c.service()
	if err != nil {
		return err
	}
	svc.Server = server.NewFeedServer(c.settings.ServerPort)
	if err := svc.RefreshFeed(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return svc.Server.Start(ctx) })
	g.Go(func() error {
		return svc.Store.Watch(ctx, config.WatchDebounce, func([]contacts.Contact) {
			if err := svc.RefreshFeed(); err != nil {
				slog.Error(config.ErrFeedRefresh,
					config.LogKeyComponent, config.CompMain,
					config.LogKeyError, err)
			}
		})
	})
	return g.Wait()
}

func (c *cliApp) daemonCmd() *cobra.Command {
	var (
		schedule string
		noServer bool
	)
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Send wishes on a schedule and serve the calendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			if !noServer {
				svc.Server = server.NewFeedServer(c.settings.ServerPort)
			}
			d := &daemon.Daemon{Service: svc, Schedule: schedule}
			return d.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron spec overriding the settings (e.g. \"0 9 * * *\")")
	cmd.Flags().BoolVar(&noServer, "no-server", false, "do not serve the calendar feed")
	return cmd
}

// -----------------------------------------------------------------------------
// Credentials & history
// -----------------------------------------------------------------------------

func (c *cliApp) credentialsCmd() *cobra.Command {
	var importUser string
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage secrets kept in the OS keyring",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Read a secret from stdin and store it",
		Long: `Set reads one line from stdin. Without --import-user it is the token or
password of the configured messenger; with it, the address book password
of that user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if importUser != "" {
				err = config.StoreImportPassword(importUser, secret)
			} else {
				err = c.settings.Messenger.StoreSecret(secret)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), config.MsgSecretStored)
			return err
		},
	}
	set.Flags().StringVar(&importUser, "import-user", "", "store the address book password of this user")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the messenger secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.settings.Messenger.DeleteSecret(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.MsgSecretDeleted)
			return err
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New(config.ErrSecretEmpty)
	}
	return secret, nil
}

func (c *cliApp) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent greeting attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			if svc.Ledger == nil {
				return errors.New(config.ErrHistoryDisabled)
			}
			entries, err := svc.Ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, config.TabPadding, ' ', 0)
			for _, e := range entries {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.At.Local().Format(config.DateTimeFormatDisplay), e.Name, e.Phone, e.Status, e.Error)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", config.HistoryListLimit, "number of entries, 0 for all")
	return cmd
}
