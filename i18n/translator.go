package i18n

import "sync"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "got").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg := t.lookup(code)
	if msg == "" {
		return code
	}
	exp, got := data["expected"], data["got"]
	switch {
	case exp != "" && got != "":
		return msg + " (expected " + exp + ", got " + got + ")"
	case exp != "":
		return msg + " (expected " + exp + ")"
	case got != "":
		return msg + " (got " + got + ")"
	}
	return msg
}

func (t dictTranslator) lookup(code string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "schema_construction":
			return "スキーマが不正です"
		case "unsupported_construct":
			return "サポートされていないスキーマ構文です"
		case "mapping_error":
			return "ホスト値を変換できません"
		case "type_mismatch":
			return "型が一致しません"
		case "record_shape_mismatch":
			return "レコードのフィールド構成が一致しません"
		case "union_mismatch":
			return "ユニオンのどのメンバーにも一致しません"
		case "encoding_error":
			return "エンコード中の内部エラー"
		case "writer_finished":
			return "ライターは既に終了しています"
		}
	default: // "en"
		switch code {
		case "schema_construction":
			return "invalid schema"
		case "unsupported_construct":
			return "unsupported schema construct"
		case "mapping_error":
			return "cannot map host value"
		case "type_mismatch":
			return "type mismatch"
		case "record_shape_mismatch":
			return "record shape mismatch"
		case "union_mismatch":
			return "no union member matches"
		case "encoding_error":
			return "internal encoding error"
		case "writer_finished":
			return "writer already finished"
		}
	}
	return ""
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
