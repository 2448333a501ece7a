package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Conversion level messages (info)
		"Converting %s...":                        "%s を変換中...",
		"Converting %d frames at %.1f fps (%dx%d)": "%d フレームを %.1f fps で変換中 (%dx%d)",
		"Conversion completed: %d bytes":          "変換完了: %d バイト",
		"Output saved to %s":                      "出力を %s に保存しました",
		"Estimated output size: %s":               "推定出力サイズ: %s",
		"Interrupted, cancelling...":              "中断されました。キャンセル中...",

		// Frame source
		"Probing %s":                      "%s を解析中",
		"Video track: %.1fs at %.1f fps":  "ビデオトラック: %.1f秒 %.1f fps",
		"Extracting %d frames":            "%d フレームを抽出中",
		"Frame %d/%d extracted":           "フレーム抽出中 %d/%d",

		// Encoder
		"Encoder ready: %dx%d quality %d": "エンコーダ準備完了: %dx%d 品質 %d",
		"Wrote %d bytes":                  "%d バイトを書き込みました",
		"Finalizing GIF stream":           "GIFストリームを終了処理中",

		// Estimation
		"Estimation run: %d of %d frames, multiplier %.2f": "推定実行: %d/%d フレーム, 倍率 %.2f",

		// Warnings
		"Last frame missing, finalizing anyway": "最終フレームが欠落していますが、終了処理を続行します",

		// Errors
		"Failed to read video: %s":    "動画の読み込みに失敗しました: %s",
		"Failed to create encoder: %s": "エンコーダの作成に失敗しました: %s",
		"Conversion failed: %s":        "変換に失敗しました: %s",
	})
}
