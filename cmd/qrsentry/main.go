package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qrsentry/qrsentry/internal/allowlist"
	api "github.com/qrsentry/qrsentry/internal/api"
	"github.com/qrsentry/qrsentry/internal/config"
	"github.com/qrsentry/qrsentry/internal/decode"
	"github.com/qrsentry/qrsentry/internal/generate"
	"github.com/qrsentry/qrsentry/internal/scan"
	"github.com/qrsentry/qrsentry/internal/storage"
	"github.com/qrsentry/qrsentry/internal/tui"
)

//nolint:gochecknoglobals // Cobra requires package-level vars for flag bindings in current structure.
var (
	// Version metadata populated at build time via -ldflags.
	releaseVersion = "dev"
	commit         = "none"
	date           = "unknown"

	// Used for flags.
	configFile string
	verbose    bool
	jsonOutput bool
	offline    bool
	anonymous  bool
	tuiMode    bool

	backendURL   string
	pollInterval time.Duration

	outputPath   string
	svgOutput    bool
	termOutput   bool
	generateSize int

	rootCmd = &cobra.Command{
		Use:   "qrsentry",
		Short: "A terminal QR code scanner and generator with link safety classification.",
		Long:  `qrsentry watches a frame source for QR codes, decodes them locally and classifies the decoded payloads against a remote safety backend. It also generates QR codes from text for download.`,
	}
)

//nolint:gochecknoinits // Cobra command wiring performed in init in current structure.
func init() {
	// Route logs to stderr to avoid polluting stdout, especially for --json output.
	logrus.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional: path to a config file (default: OS config dir)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format instead of rich text")
	rootCmd.PersistentFlags().
		BoolVar(&offline, "offline", false, "Optional: Run without the classification backend, only outputs decoded payloads")
	rootCmd.PersistentFlags().
		BoolVar(&anonymous, "anonymous", false, "Optional: Do not send any UUIDs or tracking information")
	// Alias for --anonymous
	rootCmd.PersistentFlags().BoolVar(&anonymous, "anon", false, "Alias of --anonymous")

	scanCmd.Flags().BoolVar(&tuiMode, "tui", false, "Enable interactive TUI mode with scan/generate tabs")
	scanCmd.Flags().StringVar(&backendURL, "backend-url", "", "Override the classification backend base URL")
	scanCmd.Flags().DurationVar(&pollInterval, "interval", 0, "Override the capture poll interval (e.g. 500ms)")

	generateCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output file path (default qr-code.png)")
	generateCmd.Flags().BoolVar(&svgOutput, "svg", false, "Render an SVG instead of a PNG")
	generateCmd.Flags().BoolVar(&termOutput, "terminal", false, "Render an ANSI preview to stdout instead of a file")
	generateCmd.Flags().IntVar(&generateSize, "size", 0, "Rendered image edge length in pixels (default 256)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(generateCmd)

	allowlistCmd.AddCommand(allowlistAddCmd)
	allowlistCmd.AddCommand(allowlistResetCmd)
	rootCmd.AddCommand(allowlistCmd)

	// Built-in version flag: set version string and a custom template.
	rootCmd.Version = releaseVersion
	rootCmd.Annotations = map[string]string{"commit": commit, "date": date}
	rootCmd.SetVersionTemplate("{{printf \"%s %s\\ncommit: %s\\ndate: %s\\n\" .DisplayName .Version (index .Annotations \"commit\") (index .Annotations \"date\")}}")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

// loadConfig layers flag overrides over the config file and its defaults.
func loadConfig() *config.Config {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatal(err)
	}
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
	if pollInterval > 0 {
		cfg.PollInterval = config.Duration(pollInterval)
	}
	if outputPath != "" {
		cfg.OutputPath = outputPath
	}
	return cfg
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var scanCmd = &cobra.Command{
	Use:   "scan [WATCH_DIR]",
	Short: "Scan a frame source for QR codes and classify decoded payloads.",
	Long:  "Watch a directory an external capture pipeline writes still frames into, decode any QR code that appears and classify the decoded payload against the safety backend. Scanning stops after a successful classification.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput && tuiMode {
			logrus.Fatal("Cannot use --json and --tui flags together")
		}

		// Set log level based on flags.
		if (jsonOutput || tuiMode) && !verbose {
			logrus.SetLevel(logrus.WarnLevel)
		} else if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}

		cfg := loadConfig()
		if len(args) > 0 {
			cfg.WatchDir = args[0]
		}
		if cfg.WatchDir == "" {
			logrus.Fatal("No frame directory configured: pass WATCH_DIR or set watch_dir in the config file")
		}

		st, err := storage.NewOrExistingStorage(cfg.StoragePath)
		if err != nil {
			logrus.Fatalf("Unable to open or create storage: %v", err)
		}

		// If not anonymous, attach the host identity to backend requests.
		ctx := cmd.Context()
		if !anonymous {
			ctx = api.WithIdentity(ctx, api.Identity{HostUUID: st.Data.HostUUID})
		}

		trust := &allowlist.Verifier{Storage: st}
		dispatcher := scan.NewDispatcher(nil, scan.WithTrust(trust), scan.WithHistory(st))
		gate := scan.NewGate(scan.CapDecoder, scan.CapGenerator, scan.CapBackend)

		// Probe the decode/encode capabilities in the background; scanning
		// and generation stay disabled until the probe passes.
		go func() {
			err := decode.Probe()
			if err != nil {
				logrus.Debugf("capability probe failed: %v", err)
			}
			gate.Resolve(scan.CapDecoder, err)
			gate.Resolve(scan.CapGenerator, err)
		}()

		// If online mode, initialize the API client in the background and
		// attach it to the dispatcher when ready.
		if offline {
			gate.Resolve(scan.CapBackend, nil)
		} else {
			go func() {
				cl, err := api.NewClient(api.WithBaseURL(cfg.BackendURL))
				switch {
				case err == nil:
					dispatcher.SetClient(cl)
				case errors.Is(err, api.ErrOffline):
					logrus.Debug("backend unreachable; continuing in offline mode")
				default:
					logrus.Debugf("api client init failed: %v", err)
				}
				// Offline is a working fallback, so the gate resolves either way.
				gate.Resolve(scan.CapBackend, nil)
			}()
		}

		session := scan.NewSession(decode.NewQRDecoder(), dispatcher, cfg.Interval())
		ctrl := &controller{session: session, watchDir: cfg.WatchDir, outputPath: cfg.OutputPath}

		if tuiMode {
			if err := tui.Run(ctx, ctrl, gate, dispatcher); err != nil {
				logrus.Fatalf("TUI mode failed: %v", err)
			}
			return
		}

		runHeadlessScan(ctx, ctrl, gate, dispatcher)
	},
}

// runHeadlessScan drives one scan session without the TUI, printing results
// as they arrive. It returns when the session ends or the context is done.
func runHeadlessScan(ctx context.Context, ctrl *controller, gate *scan.Gate, dispatcher *scan.Dispatcher) {
	dispatcher.OnResult(printResult)

	// Backend resolution never fails (offline is a working fallback), but
	// waiting for it keeps the first dispatch from racing the client attach.
	if err := gate.Wait(ctx, scan.CapDecoder, scan.CapBackend); err != nil {
		logrus.Fatalf("Scanner unavailable: %v", err)
	}
	if err := ctrl.StartScan(ctx); err != nil {
		logrus.Fatalf("Unable to start scanning: %v", err)
	}
	fmt.Fprintln(os.Stderr, "Scanning... (ctrl+c to stop)")

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			ctrl.session.Teardown()
			return
		case <-ticker.C:
			if !ctrl.Scanning() {
				return
			}
		}
	}
}

func printResult(r scan.Result) {
	if jsonOutput {
		out := map[string]string{"link": r.Link, "message": r.Message}
		if r.Err != nil {
			out["error"] = r.Err.Error()
		}
		_ = json.NewEncoder(os.Stdout).Encode(out)
		return
	}
	if r.Err != nil {
		fmt.Fprintf(os.Stdout, "%s\n", r.Message)
		return
	}
	fmt.Fprintf(os.Stdout, "%s\n  %s\n", r.Link, r.Message)
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var generateCmd = &cobra.Command{
	Use:   "generate TEXT",
	Short: "Generate a QR code image from text.",
	Long:  "Encode the given text into a QR code and write it to a file (PNG by default, SVG with --svg), or preview it in the terminal with --terminal.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
		text := strings.TrimSpace(args[0])
		if text == "" {
			logrus.Fatal("Nothing to encode: TEXT must not be empty")
		}

		cfg := loadConfig()

		if termOutput {
			if err := generate.Terminal(text, os.Stdout); err != nil {
				logrus.Fatal(err)
			}
			return
		}

		if svgOutput {
			svg, err := generate.SVG(text, generateSize)
			if err != nil {
				logrus.Fatal(err)
			}
			path := strings.TrimSuffix(cfg.OutputPath, ".png") + ".svg"
			if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
				logrus.Fatal(err)
			}
			fmt.Fprintf(os.Stdout, "Saved %s\n", path)
			return
		}

		if err := generate.WritePNG(text, cfg.OutputPath, generate.Options{SizePx: generateSize}); err != nil {
			logrus.Fatal(err)
		}
		fmt.Fprintf(os.Stdout, "Saved %s\n", cfg.OutputPath)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Manage the local allowlist of trusted payloads",
	Long:  "View, add, or reset trusted payload prefixes. Trusted payloads are classified locally and never sent to the backend.",
	Run: func(cmd *cobra.Command, args []string) {
		v, err := allowlist.NewVerifier(storagePath())
		if err != nil {
			logrus.Fatal(err)
		}
		v.ViewAllowlist(os.Stdout)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var allowlistAddCmd = &cobra.Command{
	Use:   "add [PREFIX]",
	Short: "Add a trusted payload prefix to the local allowlist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v, err := allowlist.NewVerifier(storagePath())
		if err != nil {
			logrus.Fatal(err)
		}
		if err := v.AddToAllowlist(args[0]); err != nil {
			logrus.Fatal(err)
		}
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var allowlistResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the local allowlist",
	Run: func(cmd *cobra.Command, args []string) {
		v, err := allowlist.NewVerifier(storagePath())
		if err != nil {
			logrus.Fatal(err)
		}
		if err := v.ResetAllowlist(); err != nil {
			logrus.Fatal(err)
		}
	},
}

func storagePath() string {
	return loadConfig().StoragePath
}

func main() {
	Execute()
}
