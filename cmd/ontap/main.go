package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/assembler"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/auth"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/bank"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/csvimport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/docexport"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/handler"
	appI18n "github.com/goalkeppertanbinh-collab/ontapvathionline/internal/i18n"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/llm"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ontap",
		Short: "Math review and online exam server",
	}

	serve := serveCmd()
	root.AddCommand(serve, importCmd(), exportCmd(), assembleCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `ontap --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// storeFlags registers the flags every command needs to reach the database.
func storeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "ontap.db", "Database path (SQLite) or connection string (Postgres)")
	f.String("db-driver", "sqlite", "Database driver (sqlite, postgres)")
	f.String("tier-table", "", "YAML file overriding the difficulty tier keywords")
	f.String("header-synonyms", "", "YAML file with extra spreadsheet header keywords")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	storeFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", appI18n.DefaultLanguage, "Fallback message language (vi, en)")
	f.String("admin-password", "", "Admin panel password (or set ONTAP_ADMIN_PASSWORD)")
	f.String("jwt-secret", "", "HMAC secret for session tokens (random when empty)")
	f.StringSlice("cors-origins", nil, "Browser origins allowed to call the API (repeatable)")
	f.Int64("max-body", 32<<20, "Maximum request body size in bytes")
	f.String("llm-provider", "gemini", "AI provider (gemini, openai, anthropic, mock)")
	f.String("llm-key", "", "Server-side AI API key; requests may bring their own")
	f.String("llm-model", "", "AI model name (provider default when empty)")
	f.String("llm-url", "", "Base URL for an OpenAI-compatible endpoint")
	f.Duration("llm-timeout", 90*time.Second, "Timeout for a single AI request including retries")
	f.String("image-proxy", "", "URL template used to fetch images for Word export, with %s for the image URL")
	f.Bool("seed", true, "Load sample data into an empty database")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import spreadsheets (CSV or TSV) into the database",
		RunE:  runImport,
	}
	storeFlags(cmd)
	f := cmd.Flags()
	f.StringP("kind", "k", "", "What the files contain (questions, exam-questions, accounts, exams, curriculum)")
	f.StringSliceP("file", "f", nil, "Spreadsheet files to import (repeatable)")
	f.Bool("force", false, "Import files again even if they changed since the last import")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an exam as a Word document, the exam list as CSV, or results as JSON",
		RunE:  runExport,
	}
	storeFlags(cmd)
	f := cmd.Flags()
	f.String("exam-id", "", "Exam identifier (required for docx, filters json)")
	f.String("format", "json", "Output format (docx, csv, json)")
	f.String("image-proxy", "", "URL template used to fetch images for Word export, with %s for the image URL")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func assembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Assemble and save an exam from the exam question pool",
		RunE:  runAssemble,
	}
	storeFlags(cmd)
	f := cmd.Flags()
	f.String("title", "", "Exam title (required)")
	f.String("date", "", "Exam date in YYYY-MM-DD format (today when empty)")
	f.Int("duration", 45, "Duration in minutes")
	f.StringArray("section", nil, `Section as "grade|topic|lesson|biet|hieu|vandung" (repeatable)`)
	f.Bool("shuffle-answers", true, "Shuffle answer options for students")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("section")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("ONTAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("ontap")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/ontap")
	v.AddConfigPath("/etc/ontap")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openBank opens the store and builds the bank with the optional tier
// table and header synonyms. The caller closes the store.
func openBank(ctx context.Context, v *viper.Viper) (*bank.Bank, *store.Store, error) {
	driver, err := store.ParseDriver(v.GetString("db-driver"))
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(ctx, driver, v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	var tiers assembler.TierTable
	if path := v.GetString("tier-table"); path != "" {
		tiers, err = readTierTable(path)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		slog.Info("loaded tier table", "path", path, "tiers", len(tiers))
	}

	var parserOpts []csvimport.Option
	if path := v.GetString("header-synonyms"); path != "" {
		syn, err := readSynonyms(path)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		parserOpts = append(parserOpts, csvimport.WithSynonyms(syn))
		slog.Info("loaded header synonyms", "path", path)
	}
	parser, err := csvimport.New(parserOpts...)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create parser: %w", err)
	}

	return bank.New(db, parser, assembler.New(tiers, nil)), db, nil
}

func readTierTable(path string) (assembler.TierTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tier table: %w", err)
	}
	defer f.Close()
	return assembler.LoadTierTable(f)
}

func readSynonyms(path string) (csvimport.Synonyms, error) {
	f, err := os.Open(path)
	if err != nil {
		return csvimport.Synonyms{}, fmt.Errorf("open header synonyms: %w", err)
	}
	defer f.Close()
	return csvimport.LoadSynonyms(f)
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, db, err := openBank(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	if v.GetBool("seed") {
		seeded, err := b.SeedIfEmpty(ctx)
		if err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
		if seeded {
			slog.Info("loaded sample data into empty database")
		}
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	password := v.GetString("admin-password")
	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or ONTAP_ADMIN_PASSWORD env var")
	}
	authSvc, err := auth.New(v.GetString("jwt-secret"), password)
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}
	if v.GetString("jwt-secret") == "" {
		slog.Warn("no jwt-secret configured, tokens will not survive a restart")
	}

	llmCfg := llm.DefaultConfig()
	llmCfg.Provider = strings.ToLower(v.GetString("llm-provider"))
	llmCfg.APIKey = v.GetString("llm-key")
	llmCfg.Model = v.GetString("llm-model")
	llmCfg.BaseURL = v.GetString("llm-url")
	if d := v.GetDuration("llm-timeout"); d > 0 {
		llmCfg.Timeout = d
	}
	if err := llmCfg.Validate(); err != nil {
		return err
	}
	var provider llm.Provider
	if llmCfg.APIKey != "" || llmCfg.Provider == "mock" {
		provider, err = llm.NewProvider(ctx, llmCfg, "")
		if err != nil {
			return fmt.Errorf("create AI provider: %w", err)
		}
	} else {
		slog.Info("no server AI key configured, requests must supply their own", "provider", llmCfg.Provider)
	}
	gen := llm.NewGenerator(llmCfg, provider)

	var docOpts []docexport.Option
	if proxy := v.GetString("image-proxy"); proxy != "" {
		docOpts = append(docOpts, docexport.WithProxy(proxy))
	}

	h := handler.New(b, authSvc, gen, docexport.New(docOpts...), handler.Config{
		Lang:         lang,
		CORSOrigins:  v.GetStringSlice("cors-origins"),
		MaxBodyBytes: v.GetInt64("max-body"),
	})

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"db_driver", db.Driver(),
			"lang", lang,
			"llm_provider", llmCfg.Provider,
			"llm_model", llmCfg.Model,
			"cors_origins", v.GetStringSlice("cors-origins"),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runImport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	kind, err := bank.ParseImportKind(v.GetString("kind"))
	if err != nil {
		return err
	}

	b, db, err := openBank(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	return importFiles(ctx, b, db, kind, v.GetStringSlice("file"), v.GetBool("force"))
}

// importFiles imports each file once. A file whose content hash matches
// the last import is skipped; a changed file is skipped unless force is
// set, because question imports append.
func importFiles(ctx context.Context, b *bank.Bank, db *store.Store, kind bank.ImportKind, paths []string, force bool) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(ctx, string(kind), path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("file unchanged, skipping", "path", path, "kind", kind)
			continue
		}
		if storedHash != "" && !force {
			slog.Warn("file changed since last import, skipping; use --force to import it again",
				"path", path, "kind", kind)
			continue
		}

		n, err := b.Import(ctx, kind, string(data))
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		if err := db.SetImportedFileHash(ctx, string(kind), path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported rows", "path", path, "kind", kind, "count", n)
	}
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	b, db, err := openBank(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	var data []byte
	examID := v.GetString("exam-id")
	switch format := strings.ToLower(v.GetString("format")); format {
	case "docx":
		if examID == "" {
			return errors.New("--exam-id is required for docx export")
		}
		exam, err := b.Exam(ctx, examID)
		if err != nil {
			return fmt.Errorf("load exam %s: %w", examID, err)
		}
		doc, err := docexport.FromExam(exam)
		if err != nil {
			return err
		}
		var docOpts []docexport.Option
		if proxy := v.GetString("image-proxy"); proxy != "" {
			docOpts = append(docOpts, docexport.WithProxy(proxy))
		}
		data, err = docexport.New(docOpts...).Build(ctx, doc)
		if err != nil {
			return fmt.Errorf("build document: %w", err)
		}
	case "csv":
		snap, err := b.Snapshot(ctx)
		if err != nil {
			return err
		}
		var sb strings.Builder
		if err := csvimport.WriteExams(&sb, snap.Exams); err != nil {
			return fmt.Errorf("write exams: %w", err)
		}
		data = []byte(sb.String())
	case "json":
		results, err := b.Results(ctx, examID)
		if err != nil {
			return fmt.Errorf("export results: %w", err)
		}
		data, err = json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported format %q (docx, csv, json)", format)
	}

	return writeOutput(v.GetString("output"), data)
}

func writeOutput(outPath string, data []byte) error {
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func runAssemble(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	d := assembler.NewDraft()
	d.Title = v.GetString("title")
	d.Date = v.GetString("date")
	d.Duration = v.GetInt("duration")
	d.ShuffleAnswers = v.GetBool("shuffle-answers")
	sectionFlags, err := cmd.Flags().GetStringArray("section")
	if err != nil {
		return err
	}
	for _, raw := range sectionFlags {
		s, err := parseSection(raw)
		if err != nil {
			return err
		}
		d.Sections = append(d.Sections, s)
	}

	b, db, err := openBank(ctx, v)
	if err != nil {
		return err
	}
	defer db.Close()

	exam, err := b.CreateExam(ctx, d)
	if err != nil {
		return fmt.Errorf("assemble exam: %w", err)
	}
	slog.Info("exam created", "id", exam.ID, "title", exam.Title, "questions", exam.QuestionCount)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), exam.ID)
	return err
}

// parseSection reads "grade|topic|lesson|biet|hieu|vandung". Lesson may be
// empty and trailing counts default to zero.
func parseSection(in string) (model.ExamSection, error) {
	parts := strings.Split(in, "|")
	if len(parts) < 4 || len(parts) > 6 {
		return model.ExamSection{}, fmt.Errorf("section %q: want grade|topic|lesson|biet|hieu|vandung", in)
	}
	for len(parts) < 6 {
		parts = append(parts, "0")
	}
	counts := make([]int, 3)
	for i, p := range parts[3:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return model.ExamSection{}, fmt.Errorf("section %q: count %q: %w", in, p, err)
		}
		counts[i] = n
	}
	return model.ExamSection{
		Grade:            strings.TrimSpace(parts[0]),
		Topic:            strings.TrimSpace(parts[1]),
		Lesson:           strings.TrimSpace(parts[2]),
		CountRecall:      counts[0],
		CountUnderstand:  counts[1],
		CountApplication: counts[2],
	}, nil
}
