// Package main provides localization for the gifski CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Convert video files to high quality GIF animations": "動画ファイルを高品質なGIFアニメーションに変換",

		// Commands
		"Convert a video file to a GIF animation":            "動画ファイルをGIFアニメーションに変換",
		"Estimate the output size without a full conversion": "完全な変換を行わずに出力サイズを推定",
		"Convert a synthetic test clip to verify the pipeline": "合成テストクリップを変換してパイプラインを検証",

		// Flags
		"Output GIF file path":                           "出力GIFファイルパス",
		"YAML configuration file":                        "YAML設定ファイル",
		"Quality preset (low, medium, high)":             "品質プリセット (low, medium, high)",
		"Quality between 0 and 1 (overrides preset)":     "0から1の品質 (プリセットより優先)",
		"Output width in pixels (0 = source size)":       "出力幅ピクセル (0 = 元のサイズ)",
		"Output height in pixels (0 = source size)":      "出力高さピクセル (0 = 元のサイズ)",
		"Output frame rate (0 = source rate, capped at 30)": "出力フレームレート (0 = 元のレート, 最大30)",
		"Start of the converted range in seconds":        "変換範囲の開始秒",
		"End of the converted range in seconds (0 = end of video)": "変換範囲の終了秒 (0 = 動画の最後まで)",
		"Number of repetitions (0 = loop forever)":       "繰り返し回数 (0 = 無限ループ)",
		"Log level (debug, info, warn, error)":           "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                        "すべてのログ出力を抑制",

		// Errors and results
		"a video file argument is required": "動画ファイルの引数が必要です",
		"unknown preset %q":                 "不明なプリセット %q",
		"quality %.2f out of range 0-1":     "品質 %.2f が範囲 0-1 を超えています",
		"Error: %s":                         "エラー: %s",
	})
}
