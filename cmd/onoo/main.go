package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/onoo-labs/marketing-assistant/config"
	"github.com/onoo-labs/marketing-assistant/internal/bootstrap"
	"github.com/onoo-labs/marketing-assistant/internal/logging"
)

type cliFlags struct {
	remote    string
	offline   bool
	cache     string
	cachePath string
	logLevel  string
	save      bool
}

type app struct {
	flags cliFlags
	cfg   *config.Config
	log   logging.Logger
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "onoo",
		Short:         "Marketing assistant for BrandERP by Onoo",
		Long:          "Generate posts, ads, logos and marketing advice for one project, kept in a local cache and synced to the project store on demand.",
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.remote, "remote", "", "project store base URL (REMOTE_STORE_URL)")
	pf.BoolVar(&a.flags.offline, "offline", false, "never contact the project store")
	pf.StringVar(&a.flags.cache, "cache", "", "local cache backend: sqlite or file (LOCAL_CACHE)")
	pf.StringVar(&a.flags.cachePath, "cache-path", "", "local cache directory (LOCAL_CACHE_PATH)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (LOG_LEVEL)")
	pf.BoolVar(&a.flags.save, "save", false, "save the project to the store after the command")

	root.AddCommand(
		a.statusCmd(),
		a.profileCmd(),
		a.tabCmd(),
		a.chatCmd(),
		a.postCmd(),
		a.adCmd(),
		a.logoCmd(),
		a.voiceCmd(),
		a.saveCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.imageCmd(),
	)
	return root
}

// configure loads env/.env settings and applies the flags the user set.
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if changed["remote"] {
		cfg.Client.RemoteURL = a.flags.remote
	}
	if changed["cache"] {
		cfg.Client.LocalCache = a.flags.cache
	}
	if changed["cache-path"] {
		cfg.Client.LocalCachePath = a.flags.cachePath
	}
	if changed["log-level"] {
		cfg.App.LogLevel = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logging.New(cfg.App.LogLevel, cfg.IsProduction()).With("component", "cli")
	return nil
}

// withSession opens a hydrated session, runs fn and then, when --save is
// set, saves the project remotely.
func (a *app) withSession(cmd *cobra.Command, needGenerator bool, fn func(ctx context.Context, s *bootstrap.Session) error) error {
	ctx := logging.WithRequestID(cmd.Context(), sessionID())

	s, source, err := bootstrap.OpenSession(ctx, a.cfg, a.log, bootstrap.SessionOptions{
		Offline:       a.flags.offline,
		NeedGenerator: needGenerator,
	})
	if err != nil {
		return err
	}
	defer s.Close()
	a.log.FromContext(ctx).LogDebugf("cli.session", "project loaded from %s", source)

	if err := fn(ctx, s); err != nil {
		return err
	}
	if a.flags.save {
		return saveRemote(ctx, cmd, s)
	}
	return nil
}

func saveRemote(ctx context.Context, cmd *cobra.Command, s *bootstrap.Session) error {
	saveCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := s.Store.SaveRemote(saveCtx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "تم حفظ المشروع.")
	return nil
}
