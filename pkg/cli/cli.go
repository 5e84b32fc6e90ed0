package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zurustar/mathjit/pkg/engine"
	"github.com/zurustar/mathjit/pkg/logger"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Expression    string // 評価する式（空ならREPLを起動）
	Mode          string // 実行モード（interpret, jit）
	Verbose       bool   // トークン・AST・IR・アセンブリを表示
	Timings       bool   // 各フェーズの所要時間を表示
	LogLevel      string // ログレベル（debug, info, warn, error）
	ConfigPath    string // YAML設定ファイルのパス
	File          string // 一行ずつ評価するスクリプトファイル
	MaxDepth      int    // 最大再帰深度
	MaxIterations int64  // sumの最大反復回数
	Fallback      bool   // JITが使えない場合にインタプリタで実行
	ShowHelp      bool   // ヘルプ表示フラグ

	set map[string]bool
}

// IsSet 指定したオプションが明示的に与えられたかどうかを返す
// 環境変数から設定された値も含む
func (c *Config) IsSet(name string) bool {
	return c.set[name]
}

// 値を取るフラグ（reorderArgsで次の引数を一緒に移動する）
var valueFlags = map[string]bool{
	"-m": true, "--mode": true,
	"-l": true, "--log-level": true,
	"-c": true, "--config": true,
	"-f": true, "--file": true,
	"--max-depth":      true,
	"--max-iterations": true,
}

// 短縮形と正式名の対応
var canonical = map[string]string{
	"m": "mode",
	"v": "verbose",
	"t": "timings",
	"l": "log-level",
	"c": "config",
	"f": "file",
	"h": "help",
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("mathjit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	config := &Config{set: make(map[string]bool)}

	fs.StringVar(&config.Mode, "mode", "", "実行モード（interpret, jit）")
	fs.StringVar(&config.Mode, "m", "", "実行モード（短縮形）")
	fs.BoolVar(&config.Verbose, "verbose", false, "詳細表示")
	fs.BoolVar(&config.Verbose, "v", false, "詳細表示（短縮形）")
	fs.BoolVar(&config.Timings, "timings", false, "所要時間を表示")
	fs.BoolVar(&config.Timings, "t", false, "所要時間を表示（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.ConfigPath, "config", "", "設定ファイル")
	fs.StringVar(&config.ConfigPath, "c", "", "設定ファイル（短縮形）")
	fs.StringVar(&config.File, "file", "", "スクリプトファイル")
	fs.StringVar(&config.File, "f", "", "スクリプトファイル（短縮形）")
	fs.IntVar(&config.MaxDepth, "max-depth", 0, "最大再帰深度")
	fs.Int64Var(&config.MaxIterations, "max-iterations", 0, "sumの最大反復回数")
	fs.BoolVar(&config.Fallback, "fallback", false, "JITが使えない場合にインタプリタで実行")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := canonical[name]; ok {
			name = long
		}
		config.set[name] = true
	})

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.set["mode"] {
		if modeEnv := os.Getenv("MATHJIT_MODE"); modeEnv != "" {
			config.Mode = modeEnv
			config.set["mode"] = true
		}
	}
	if !config.set["config"] {
		if configEnv := os.Getenv("MATHJIT_CONFIG"); configEnv != "" {
			config.ConfigPath = configEnv
			config.set["config"] = true
		}
	}
	if !config.set["log-level"] {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
			config.set["log-level"] = true
		}
	}

	// モードの検証
	if config.Mode != "" {
		mode, err := engine.ParseMode(config.Mode)
		if err != nil {
			return nil, err
		}
		config.Mode = string(mode)
	}

	// ログレベルの検証
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 制限値の検証
	if config.MaxDepth < 0 {
		return nil, fmt.Errorf("max-depth must be non-negative, got %d", config.MaxDepth)
	}
	if config.MaxIterations < 0 {
		return nil, fmt.Errorf("max-iterations must be non-negative, got %d", config.MaxIterations)
	}

	// 位置引数は空白で連結して一つの式とする
	config.Expression = strings.Join(fs.Args(), " ")

	return config, nil
}

// looksNegativeNumber "-2^2" や "-.5" のような負の数で始まる式かどうかを判定
func looksNegativeNumber(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	c := arg[1]
	return (c >= '0' && c <= '9') || c == '.' || c == '('
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "--" 以降はすべて位置引数
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる、負の数は除く）
		if len(arg) > 1 && arg[0] == '-' && !looksNegativeNumber(arg) {
			flags = append(flags, arg)

			// 値を取るフラグは次の引数も追加（--mode=jit の形式は除く）
			if valueFlags[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	// flagパッケージが位置引数を再解釈しないよう "--" で区切る
	result := append(flags, "--")
	return append(result, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprintf(w, `mathjit - Math expression interpreter and JIT compiler

Usage:
  mathjit [options] [expression]

Arguments:
  expression    評価する式（省略時は対話モード）
                例: "2 + 3 * 4", "f(x) = x * x", "-2^2"

Options:
  -m, --mode <mode>           実行モード: interpret, jit（デフォルト: interpret）
  -v, --verbose               トークン・AST・IR・アセンブリを表示
  -t, --timings               各フェーズの所要時間を表示
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -c, --config <file>         YAML設定ファイル（省略時は ./mathjit.yaml を探す）
  -f, --file <file>           ファイルの各行を順に評価（UTF-8またはShift-JIS）
  --max-depth <n>             最大再帰深度（デフォルト: 1000）
  --max-iterations <n>        sumの最大反復回数（デフォルト: 10000000）
  --fallback                  JITが使えない場合にインタプリタで実行
  -h, --help                  このヘルプを表示

Environment Variables:
  MATHJIT_MODE=<mode>         実行モード
  MATHJIT_CONFIG=<file>       設定ファイル
  LOG_LEVEL=<level>           ログレベル

REPL Commands:
  :help                       コマンド一覧を表示
  :mode <mode>                実行モードを切り替え
  :funcs                      定義済みの関数を表示
  :load <file>                ファイルの各行を評価
  :quit                       終了（Ctrl+Dでも終了）

Examples:
  mathjit "2 + 3 * 4"                 式を一度だけ評価
  mathjit -m jit -v "sqrt(2) * pi()"  JITで評価し生成コードを表示
  mathjit --timings                   所要時間付きで対話モードを起動
  mathjit -f defs.mj "f(2)"           定義ファイルを読み込んでから評価
  MATHJIT_MODE=jit mathjit            環境変数でJITモードを指定
`)
}
