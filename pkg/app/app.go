package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/zurustar/mathjit/pkg/cli"
	"github.com/zurustar/mathjit/pkg/config"
	"github.com/zurustar/mathjit/pkg/engine"
	"github.com/zurustar/mathjit/pkg/intrinsic"
	"github.com/zurustar/mathjit/pkg/logger"
	"github.com/zurustar/mathjit/pkg/script"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	settings *config.Config
	log      *slog.Logger
	engine   *engine.Engine

	stdout io.Writer
	stderr io.Writer
}

// Option はApplicationの設定オプション
type Option func(*Application)

// WithOutput 結果とエラーメッセージの出力先を指定
func WithOutput(stdout, stderr io.Writer) Option {
	return func(app *Application) {
		app.stdout = stdout
		app.stderr = stderr
	}
}

// New Applicationを作成
func New(opts ...Option) *Application {
	app := &Application{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp(app.stdout)
		return nil
	}

	// 2. 設定ファイルの読み込み（コマンドラインの値で上書き）
	if err := app.loadSettings(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 4. エンジンの作成
	if err := app.initEngine(); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	app.log.Debug("Application started", "mode", app.engine.Mode(), "expression", app.config.Expression)

	// 5. スクリプトファイルの評価
	if app.config.File != "" {
		if err := app.runScript(app.config.File); err != nil {
			return err
		}
	}

	// 6. 式が指定されていれば一度だけ評価、ファイルも式もなければREPL
	if app.config.Expression != "" {
		return app.evalChain(app.config.Expression)
	}
	if app.config.File != "" {
		return nil
	}
	return app.runREPL()
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	cfg, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = cfg
	return nil
}

// loadSettings 設定ファイルを読み込み、明示されたフラグと環境変数で上書きする
func (app *Application) loadSettings() error {
	settings := config.Default()

	// 指定がなければカレントディレクトリの mathjit.yaml などを探す
	path := app.config.ConfigPath
	if path == "" {
		found, err := config.Discover(".")
		if err != nil {
			return err
		}
		path = found
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		settings = loaded
	}

	c := app.config
	if c.IsSet("mode") {
		settings.Mode = c.Mode
	}
	if c.IsSet("log-level") {
		settings.LogLevel = c.LogLevel
	}
	if c.IsSet("verbose") {
		settings.Verbose = c.Verbose
	}
	if c.IsSet("timings") {
		settings.Timings = c.Timings
	}
	if c.IsSet("fallback") {
		settings.Fallback = c.Fallback
	}
	if c.IsSet("max-depth") {
		settings.Limits.MaxDepth = c.MaxDepth
	}
	if c.IsSet("max-iterations") {
		settings.Limits.MaxIterations = c.MaxIterations
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	app.settings = settings
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLoggerWithWriter(app.stderr, app.settings.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// initEngine 設定からエンジンを作成
func (app *Application) initEngine() error {
	mode, err := engine.ParseMode(app.settings.Mode)
	if err != nil {
		return err
	}
	app.engine = engine.New(
		engine.WithMode(mode),
		engine.WithLimits(app.settings.EvalLimits()),
		engine.WithFallback(app.settings.Fallback),
		engine.WithVerbose(app.settings.Verbose),
		engine.WithLogger(app.log),
	)
	return nil
}

// eval 一行を評価し、結果（定義なら "Ok"）を出力する
func (app *Application) eval(text string) error {
	out, err := app.engine.Eval(strings.TrimSpace(text))
	if err != nil {
		return err
	}

	if app.settings.Verbose {
		app.printVerbose(out)
	}
	if app.settings.Timings {
		fmt.Fprintln(app.stdout, out.Timings.Report())
	}

	if out.IsDefinition() {
		fmt.Fprintln(app.stdout, "Ok")
		return nil
	}
	fmt.Fprintln(app.stdout, FormatValue(out.Value))
	return nil
}

// evalChain "&" で連結された入力を左から順に評価する。最初のエラーで中断
func (app *Application) evalChain(text string) error {
	for _, part := range strings.Split(text, "&") {
		if err := app.eval(part); err != nil {
			return err
		}
	}
	return nil
}

// runScript ファイルの各行を順に評価する。最初のエラーで中断
func (app *Application) runScript(path string) error {
	sc, err := script.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}
	app.log.Debug("Script loaded", "name", sc.FileName, "size", sc.Size, "lines", len(sc.Lines))

	for _, line := range sc.Lines {
		if err := app.evalChain(line.Text); err != nil {
			return fmt.Errorf("%s:%d: %w", sc.FileName, line.Number, err)
		}
	}
	return nil
}

// printVerbose トークン・AST・IR・アセンブリを表示
func (app *Application) printVerbose(out *engine.Outcome) {
	fmt.Fprintln(app.stdout, "== Tokens ==")
	fmt.Fprint(app.stdout, engine.FormatTokens(out.Tokens))
	fmt.Fprintln(app.stdout, "== AST ==")
	fmt.Fprintln(app.stdout, out.AST)
	if out.IR != "" {
		fmt.Fprintln(app.stdout, "== IR ==")
		fmt.Fprintln(app.stdout, out.IR)
	}
	if out.Assembly != "" {
		fmt.Fprintln(app.stdout, "== Assembly ==")
		fmt.Fprint(app.stdout, out.Assembly)
	}
}

// runREPL 対話モードを実行
func (app *Application) runREPL() error {
	fmt.Fprintf(app.stdout, "MathJIT (%s mode)\n", app.engine.Mode())

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// 履歴の読み込み（失敗しても続行）
	histPath := app.settings.REPL.HistoryFile
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		line, err := ln.Prompt(app.settings.REPL.Prompt)
		if errors.Is(err, io.EOF) {
			// Ctrl+D
			fmt.Fprintln(app.stdout)
			break
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl+Cは現在の入力を破棄
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		if app.execute(line) {
			break
		}
	}

	// 履歴の保存（失敗しても続行）
	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		} else {
			app.log.Debug("Failed to save history", "path", histPath, "error", err)
		}
	}
	return nil
}

// execute REPLの一行を処理する。終了する場合はtrueを返す
// 評価エラーは表示するだけでセッションは継続する
func (app *Application) execute(line string) (exit bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, ":") {
		return app.handleCommand(trimmed)
	}

	if err := app.evalChain(trimmed); err != nil {
		fmt.Fprintf(app.stderr, "Error: %v\n", err)
	}
	return false
}

// handleCommand :help, :quit, :mode, :load, :funcs を処理
func (app *Application) handleCommand(line string) (exit bool) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":exit", ":q":
		return true

	case ":help":
		fmt.Fprint(app.stdout, replHelp)
		fmt.Fprintf(app.stdout, "Built-in functions: %s\n", strings.Join(intrinsic.Names(), ", "))

	case ":mode":
		if len(fields) < 2 {
			fmt.Fprintf(app.stdout, "mode: %s\n", app.engine.Mode())
			return false
		}
		mode, err := engine.ParseMode(fields[1])
		if err != nil {
			fmt.Fprintf(app.stderr, "Error: %v\n", err)
			return false
		}
		app.engine.SetMode(mode)
		fmt.Fprintf(app.stdout, "mode: %s\n", mode)

	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(app.stdout, "usage: :load <file>")
			return false
		}
		if err := app.runScript(fields[1]); err != nil {
			fmt.Fprintf(app.stderr, "Error: %v\n", err)
		}

	case ":funcs":
		funcs := app.engine.Functions()
		if len(funcs) == 0 {
			fmt.Fprintln(app.stdout, "(no functions defined)")
			return false
		}
		for _, f := range funcs {
			fmt.Fprintln(app.stdout, f)
		}

	default:
		fmt.Fprintf(app.stdout, "unknown command %s. Type :help for help.\n", fields[0])
	}
	return false
}

const replHelp = `Input:
  f(x) = ...     define a function
  expr           evaluate an expression
  a & b          evaluate a, then b (stops at the first error)
Commands:
  :help          show this help
  :mode [mode]   show or switch the back end (interpret, jit)
  :funcs         list defined functions
  :load <file>   evaluate each line of a file
  :quit          exit (Ctrl+D also exits)
`

// FormatValue 計算結果を表示用の文字列に変換
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
