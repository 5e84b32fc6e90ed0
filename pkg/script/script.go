package script

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Script は一行ずつ評価する入力ファイルを表す
type Script struct {
	FileName string // ファイル名
	Lines    []Line // 空行とコメント行を除いた行
	Size     int64  // ファイルサイズ
}

// Line はスクリプト中の一行
type Line struct {
	Number int    // 1始まりの行番号
	Text   string // 前後の空白を除いた内容
}

// Load スクリプトファイルを読み込む
// UTF-8として不正なバイト列はShift-JISとみなして変換する
func Load(path string) (*Script, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding: %w", err)
	}

	return &Script{
		FileName: filepath.Base(path),
		Lines:    splitLines(content),
		Size:     info.Size(),
	}, nil
}

// decode 入力をUTF-8文字列に変換（BOMは除去）
func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	return convertShiftJISToUTF8(data)
}

// convertShiftJISToUTF8 Shift-JISからUTF-8に変換
func convertShiftJISToUTF8(data []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	utf8Data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode Shift-JIS: %w", err)
	}
	return string(utf8Data), nil
}

// splitLines 空行と '#' で始まるコメント行を除いて行に分割
func splitLines(content string) []Line {
	var lines []Line
	scanner := bufio.NewScanner(strings.NewReader(content))
	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		lines = append(lines, Line{Number: number, Text: text})
	}
	return lines
}
