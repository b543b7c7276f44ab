// Package langmeta provides the language registry shared by the LLM prompt
// builders and the CLI (English and native names, emoji flags).
package langmeta

import (
	"sort"
	"strings"
)

// Meta describes one language.
type Meta struct {
	Code   string
	Name   string // English name, used in prompts
	Native string
	Flag   string
}

// Registry contains canonical language metadata keyed by code.
// Locale variants are resolved in Resolve() via normalization and base fallback.
var Registry = map[string]Meta{
	"af":    {Name: "Afrikaans", Native: "Afrikaans", Flag: "🇿🇦"},
	"ar":    {Name: "Arabic", Native: "العربية", Flag: "🇸🇦"},
	"bg":    {Name: "Bulgarian", Native: "Български", Flag: "🇧🇬"},
	"bn":    {Name: "Bengali", Native: "বাংলা", Flag: "🇧🇩"},
	"ca":    {Name: "Catalan", Native: "Català", Flag: "🇪🇸"},
	"cs":    {Name: "Czech", Native: "Čeština", Flag: "🇨🇿"},
	"da":    {Name: "Danish", Native: "Dansk", Flag: "🇩🇰"},
	"de":    {Name: "German", Native: "Deutsch", Flag: "🇩🇪"},
	"el":    {Name: "Greek", Native: "Ελληνικά", Flag: "🇬🇷"},
	"en":    {Name: "English", Native: "English", Flag: "🇺🇸"},
	"en-GB": {Name: "English (UK)", Native: "English (UK)", Flag: "🇬🇧"},
	"es":    {Name: "Spanish", Native: "Español", Flag: "🇪🇸"},
	"et":    {Name: "Estonian", Native: "Eesti", Flag: "🇪🇪"},
	"fa":    {Name: "Persian", Native: "فارسی", Flag: "🇮🇷"},
	"fi":    {Name: "Finnish", Native: "Suomi", Flag: "🇫🇮"},
	"fr":    {Name: "French", Native: "Français", Flag: "🇫🇷"},
	"gu":    {Name: "Gujarati", Native: "ગુજરાતી", Flag: "🇮🇳"},
	"he":    {Name: "Hebrew", Native: "עברית", Flag: "🇮🇱"},
	"hi":    {Name: "Hindi", Native: "हिन्दी", Flag: "🇮🇳"},
	"hr":    {Name: "Croatian", Native: "Hrvatski", Flag: "🇭🇷"},
	"hu":    {Name: "Hungarian", Native: "Magyar", Flag: "🇭🇺"},
	"id":    {Name: "Indonesian", Native: "Bahasa Indonesia", Flag: "🇮🇩"},
	"it":    {Name: "Italian", Native: "Italiano", Flag: "🇮🇹"},
	"ja":    {Name: "Japanese", Native: "日本語", Flag: "🇯🇵"},
	"kn":    {Name: "Kannada", Native: "ಕನ್ನಡ", Flag: "🇮🇳"},
	"ko":    {Name: "Korean", Native: "한국어", Flag: "🇰🇷"},
	"lt":    {Name: "Lithuanian", Native: "Lietuvių", Flag: "🇱🇹"},
	"lv":    {Name: "Latvian", Native: "Latviešu", Flag: "🇱🇻"},
	"ml":    {Name: "Malayalam", Native: "മലയാളം", Flag: "🇮🇳"},
	"mr":    {Name: "Marathi", Native: "मराठी", Flag: "🇮🇳"},
	"ms":    {Name: "Malay", Native: "Bahasa Melayu", Flag: "🇲🇾"},
	"nl":    {Name: "Dutch", Native: "Nederlands", Flag: "🇳🇱"},
	"no":    {Name: "Norwegian", Native: "Norsk", Flag: "🇳🇴"},
	"pa":    {Name: "Punjabi", Native: "ਪੰਜਾਬੀ", Flag: "🇮🇳"},
	"pl":    {Name: "Polish", Native: "Polski", Flag: "🇵🇱"},
	"pt":    {Name: "Portuguese", Native: "Português", Flag: "🇵🇹"},
	"pt-BR": {Name: "Portuguese (Brazil)", Native: "Português (Brasil)", Flag: "🇧🇷"},
	"ro":    {Name: "Romanian", Native: "Română", Flag: "🇷🇴"},
	"ru":    {Name: "Russian", Native: "Русский", Flag: "🇷🇺"},
	"sk":    {Name: "Slovak", Native: "Slovenčina", Flag: "🇸🇰"},
	"sl":    {Name: "Slovenian", Native: "Slovenščina", Flag: "🇸🇮"},
	"sr":    {Name: "Serbian", Native: "Српски", Flag: "🇷🇸"},
	"sv":    {Name: "Swedish", Native: "Svenska", Flag: "🇸🇪"},
	"sw":    {Name: "Swahili", Native: "Kiswahili", Flag: "🇹🇿"},
	"ta":    {Name: "Tamil", Native: "தமிழ்", Flag: "🇮🇳"},
	"te":    {Name: "Telugu", Native: "తెలుగు", Flag: "🇮🇳"},
	"th":    {Name: "Thai", Native: "ไทย", Flag: "🇹🇭"},
	"tr":    {Name: "Turkish", Native: "Türkçe", Flag: "🇹🇷"},
	"uk":    {Name: "Ukrainian", Native: "Українська", Flag: "🇺🇦"},
	"ur":    {Name: "Urdu", Native: "اردو", Flag: "🇵🇰"},
	"vi":    {Name: "Vietnamese", Native: "Tiếng Việt", Flag: "🇻🇳"},
	"zh-CN": {Name: "Chinese (Simplified)", Native: "简体中文", Flag: "🇨🇳"},
	"zh-TW": {Name: "Chinese (Traditional)", Native: "繁體中文", Flag: "🇹🇼"},
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, supporting
// variants like pt_BR and base-language fallback. Unknown codes resolve to
// a Meta whose names are the code itself.
func Resolve(lang string) Meta {
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		m.Code = normalized
		return m
	}
	if base, _, found := strings.Cut(normalized, "-"); found {
		if m, ok := Registry[base]; ok {
			m.Code = normalized
			return m
		}
	}
	return Meta{Code: lang, Name: lang, Native: lang}
}

// Name returns the English name for a language code. "auto" is described
// so that a prompt reads naturally.
func Name(lang string) string {
	if strings.EqualFold(strings.TrimSpace(lang), "auto") {
		return "the detected source language"
	}
	return Resolve(lang).Name
}

// Known reports whether lang (or its base language) is in the registry.
func Known(lang string) bool {
	normalized := canonicalize(lang)
	if _, ok := Registry[normalized]; ok {
		return true
	}
	base, _, _ := strings.Cut(normalized, "-")
	_, ok := Registry[base]
	return ok
}

// Codes returns all registered codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(Registry))
	for code := range Registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
