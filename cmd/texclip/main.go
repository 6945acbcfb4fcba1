// texclip converts the image on the clipboard to LaTeX, plain text or base64.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"texclip/internal/app"
	"texclip/internal/clipboard"
	"texclip/internal/config"
	"texclip/internal/health"
	"texclip/internal/ocr/tesseract"
	"texclip/internal/pipeline"
	"texclip/internal/security"
	"texclip/internal/signer"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configPath = flag.String("config", "", "path to config file")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {
	case "run":
		os.Exit(cmdRun(args))
	case "sign":
		os.Exit(cmdSign(args))
	case "config":
		os.Exit(cmdConfig())
	case "init":
		os.Exit(cmdInit(args))
	case "doctor":
		os.Exit(cmdDoctor())
	case "version":
		fmt.Printf("texclip %s\n", version)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `texclip - Clipboard image to LaTeX, text or base64

Usage: texclip [options] <command> [args]

Commands:
  run [-mode m] [-notify] [-print] [-metrics]
                  Convert the clipboard image once and report the status.
                  Modes: latex (default), ocr, base64
  sign [-timestamp n] [-nonce s] [-verify sig] [key=value ...]
                  Show the request signature for the given parameters
  config          Print the resolved configuration (secret redacted)
  init [-force]   Write a default config file
  doctor          Check configuration, clipboard tools, OCR and endpoint
  version         Show version information
  help            Show this help message

Options:
  -config <path>  Path to config file (default: ~/.texclip/config.toml)

Environment:
  TEXCLIP_APP_ID, TEXCLIP_APP_SECRET, TEXCLIP_ENDPOINT, TEXCLIP_SAVE_DIR,
  TEXCLIP_LOG_LEVEL, TEXCLIP_DATA_DIR`)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func printValidation(err error) {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		fmt.Fprintln(os.Stderr, "Invalid configuration:")
		for _, e := range verrs {
			fmt.Fprintf(os.Stderr, "  %s\n", e.Error())
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	modeName := fs.String("mode", "latex", "conversion mode: latex, ocr or base64")
	withNotify := fs.Bool("notify", false, "show a desktop notification with the status")
	printText := fs.Bool("print", false, "also print the text written to the clipboard")
	showMetrics := fs.Bool("metrics", false, "write invocation metrics to stderr")
	fs.Parse(args)

	mode, err := pipeline.ParseMode(*modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg := loadConfig()
	a, err := app.New(cfg, app.Options{Component: "cli", Notify: *withNotify})
	if err != nil {
		printValidation(err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := a.Dispatcher.Run(ctx, mode)
	fmt.Println(out.Status)
	if *printText && out.OK() {
		fmt.Println(out.Text)
	}
	if *showMetrics {
		a.Metrics.Registry().WritePrometheus(os.Stderr)
	}
	if !out.OK() {
		return 1
	}
	return 0
}

func cmdSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	timestamp := fs.Int64("timestamp", 0, "unix timestamp (default: now)")
	nonce := fs.String("nonce", "", "random-str value (default: freshly generated)")
	verify := fs.String("verify", "", "signature to check against the computed one")
	fs.Parse(args)

	params := make(map[string]string)
	for _, kv := range fs.Args() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			fmt.Fprintf(os.Stderr, "Invalid parameter %q (want key=value)\n", kv)
			return 1
		}
		params[k] = v
	}

	cfg := loadConfig()
	creds := signer.Credentials{AppID: cfg.App.ID, Secret: cfg.App.Secret}
	if _, err := signer.New(creds); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ts := *timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	n := *nonce
	if n == "" {
		var err error
		if n, err = signer.Nonce(rand.Reader, signer.NonceLength); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	h := signer.SignWith(params, creds, ts, n)
	fields := h.Fields()
	delete(fields, signer.HeaderSign)

	fmt.Printf("canonical: %s\n", signer.CanonicalString(params, fields, "[REDACTED]"))
	fmt.Printf("%s: %s\n", signer.HeaderTimestamp, strconv.FormatInt(h.Timestamp, 10))
	fmt.Printf("%s: %s\n", signer.HeaderNonce, h.Nonce)
	fmt.Printf("%s: %s\n", signer.HeaderAppID, h.AppID)
	fmt.Printf("%s: %s\n", signer.HeaderSign, h.Signature)

	if *verify != "" {
		h.Signature = strings.ToLower(strings.TrimSpace(*verify))
		if err := signer.Verify(params, h, creds.Secret); err != nil {
			fmt.Println("verify: MISMATCH")
			return 1
		}
		fmt.Println("verify: OK")
	}
	return 0
}

func cmdConfig() int {
	cfg := loadConfig()

	out, err := cfg.Redacted().EncodeTOML()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	os.Stdout.Write(out)

	path := *configPath
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		if err := security.CheckSecretFile(path); errors.Is(err, security.ErrInsecurePermissions) {
			fmt.Fprintf(os.Stderr, "\nWarning: %v\n", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr)
		printValidation(err)
		return 1
	}
	return 0
}

func cmdInit(args []string) int {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing config file")
	fs.Parse(args)

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Config file %s already exists (use -force to overwrite)\n", path)
		return 1
	}

	cfg := config.DefaultConfig()
	cfg.ApplyEnvOverrides()
	if err := config.SaveConfig(cfg, path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s\n", path)
	if cfg.App.ID == "" || cfg.App.Secret == "" {
		fmt.Println("Set app.id and app.secret (or TEXCLIP_APP_ID / TEXCLIP_APP_SECRET) before running.")
	}
	return 0
}

func cmdDoctor() int {
	cfg := loadConfig()

	checker := health.NewChecker()
	checker.RegisterFunc("config", true, health.ConfigCheck(cfg))
	checker.RegisterFunc("save_dir", true, health.WritableDirCheck(cfg.Storage.SaveDir))
	checker.RegisterFunc("clipboard", true, health.ToolCheck(clipboard.Tools()...))
	checker.RegisterFunc("ocr", false, health.VersionCheck("tesseract", tesseract.New(cfg.OCR.DataPath).Version))
	checker.Register(&health.Component{
		Name:    "endpoint",
		Check:   health.EndpointCheck(nil, cfg.Service.URL),
		Timeout: cfg.Timeout(),
	})

	results := checker.Run(context.Background())
	for _, r := range results {
		line := fmt.Sprintf("  %-10s %-9s %s", r.Name, r.Status, r.Message)
		if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Println(line)
	}

	overall := health.Overall(results)
	fmt.Printf("\nOverall: %s\n", overall)
	if overall == health.StatusUnhealthy {
		return 1
	}
	return 0
}
