// Package i18n holds the static copy of the assistant in its two supported languages.
//
// The table is built once at process start and is read-only afterwards, so it is safe for
// concurrent use without locking.
package i18n

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/locales/en_IN"
	"github.com/go-playground/locales/hi_IN"
	ut "github.com/go-playground/universal-translator"
)

type Locale string

const (
	English Locale = "en"
	Hindi   Locale = "hi"
)

func (l Locale) Valid() bool {
	return l == English || l == Hindi
}

// Toggle returns the other supported locale.
func (l Locale) Toggle() Locale {
	if l == Hindi {
		return English
	}
	return Hindi
}

// SpeechVariant is the spoken-language tag used by speech synthesis.
func (l Locale) SpeechVariant() string {
	if l == Hindi {
		return "hi-IN"
	}
	return "en-IN"
}

// ToggleLabel is the caption of the control that switches away from l.
func (l Locale) ToggleLabel() string {
	if l == Hindi {
		return "English"
	}
	return "हिंदी"
}

func (l Locale) translatorName() string {
	if l == Hindi {
		return "hi_IN"
	}
	return "en_IN"
}

// ParseLocale accepts "en"/"hi" as well as region-qualified tags like "hi-IN".
func ParseLocale(value string) (Locale, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if i := strings.IndexAny(value, "-_"); i > 0 {
		value = value[:i]
	}

	switch Locale(value) {
	case English:
		return English, true
	case Hindi:
		return Hindi, true
	default:
		return "", false
	}
}

type Key string

const (
	Title      Key = "title"
	Subtitle   Key = "subtitle"
	GetStarted Key = "get_started"
	IVRMode    Key = "ivr_mode"

	HomeTitle       Key = "home_title"
	ChatWelcome     Key = "chat_welcome"
	ChatPlaceholder Key = "chat_placeholder"
	ChatFallback    Key = "chat_fallback"
	Typing          Key = "typing"
	SystemPrompt    Key = "system_prompt"

	DetectionTitle      Key = "detection_title"
	Gallery             Key = "gallery"
	Camera              Key = "camera"
	Analyze             Key = "analyze"
	Analyzing           Key = "analyzing"
	AnalysisUnavailable Key = "analysis_unavailable"
	UnsupportedImage    Key = "unsupported_image"
	ImageTooLarge       Key = "image_too_large"
	ImageNotFound       Key = "image_not_found"
	UnknownSource       Key = "unknown_source"

	MapTitle     Key = "map_title"
	YourLocation Key = "your_location"
	Clinic       Key = "clinic"
	Hospital     Key = "hospital"
	Pharmacy     Key = "pharmacy"

	UnknownCategory Key = "unknown_category"

	PermissionDenied Key = "permission_denied"
	Cancelled        Key = "cancelled"
	SessionNotFound  Key = "session_not_found"
	EmptyMessage     Key = "empty_message"
	TooManySessions  Key = "too_many_sessions"
	InternalError    Key = "internal_error"
)

var copies = map[Locale]map[Key]string{
	English: {
		Title:      "HealCure",
		Subtitle:   "AI-Powered Rural Healthcare",
		GetStarted: "Get Started",
		IVRMode:    "IVR Mode (Coming Soon)",

		HomeTitle:       "HealCure Assistant",
		ChatWelcome:     "Hello! I am HealCure, your health assistant. Tell me how you are feeling today.",
		ChatPlaceholder: "Describe your symptoms...",
		ChatFallback:    "Sorry, I'm having trouble responding. Please try again later.",
		Typing:          "HealCure is typing...",
		SystemPrompt: "You are HealCure, a friendly medical assistant for rural India. " +
			"Provide concise, actionable health advice in simple English. " +
			"For serious symptoms, always recommend seeing a doctor. Current date: {0}",

		DetectionTitle:      "Disease Detection",
		Gallery:             "Gallery",
		Camera:              "Camera",
		Analyze:             "Analyze",
		Analyzing:           "Analyzing",
		AnalysisUnavailable: "Image received. Automatic analysis is not available yet.",
		UnsupportedImage:    "This file is not a supported image.",
		ImageTooLarge:       "The image is too large.",
		ImageNotFound:       "Image not found.",
		UnknownSource:       "Choose the gallery or the camera.",

		MapTitle:     "Nearby Medical Help",
		YourLocation: "Your Location",
		Clinic:       "Community Clinic",
		Hospital:     "District Hospital",
		Pharmacy:     "Pharmacy",

		UnknownCategory: "Unknown place category.",

		PermissionDenied: "Permission denied. Please allow access and try again.",
		Cancelled:        "No image was selected.",
		SessionNotFound:  "Conversation not found.",
		EmptyMessage:     "Please type a message.",
		TooManySessions:  "Too many active conversations. Please try again later.",
		InternalError:    "Something went wrong. Please try again.",
	},
	Hindi: {
		Title:      "हीलक्योर",
		Subtitle:   "एआई-संचालित ग्रामीण स्वास्थ्य सेवा",
		GetStarted: "शुरू करें",
		IVRMode:    "आईवीआर मोड (जल्द आ रहा है)",

		HomeTitle:       "हीलक्योर सहायक",
		ChatWelcome:     "नमस्ते! मैं हीलक्योर हूँ, आपका स्वास्थ्य सहायक। बताइए आज आप कैसा महसूस कर रहे हैं।",
		ChatPlaceholder: "अपने लक्षण बताइए...",
		ChatFallback:    "क्षमा करें, मुझे जवाब देने में समस्या हो रही है। कृपया बाद में पुनः प्रयास करें।",
		Typing:          "हीलक्योर टाइप कर रहा है...",
		SystemPrompt: "आप हीलक्योर हैं, ग्रामीण भारत के लिए एक मित्रवत चिकित्सा सहायक। " +
			"सरल हिंदी में संक्षिप्त, व्यावहारिक स्वास्थ्य सलाह दें। " +
			"गंभीर लक्षणों के लिए हमेशा डॉक्टर से मिलने की सलाह दें। आज की तारीख: {0}",

		DetectionTitle:      "रोग पहचान",
		Gallery:             "गैलरी",
		Camera:              "कैमरा",
		Analyze:             "विश्लेषण करें",
		Analyzing:           "विश्लेषण हो रहा है",
		AnalysisUnavailable: "चित्र प्राप्त हुआ। स्वचालित विश्लेषण अभी उपलब्ध नहीं है।",
		UnsupportedImage:    "यह फ़ाइल समर्थित चित्र नहीं है।",
		ImageTooLarge:       "चित्र बहुत बड़ा है।",
		ImageNotFound:       "चित्र नहीं मिला।",
		UnknownSource:       "गैलरी या कैमरा चुनें।",

		MapTitle:     "नज़दीकी चिकित्सा सहायता",
		YourLocation: "आपका स्थान",
		Clinic:       "सामुदायिक क्लिनिक",
		Hospital:     "जिला अस्पताल",
		Pharmacy:     "दवा की दुकान",

		UnknownCategory: "अज्ञात स्थान श्रेणी।",

		PermissionDenied: "अनुमति नहीं मिली। कृपया अनुमति दें और पुनः प्रयास करें।",
		Cancelled:        "कोई चित्र नहीं चुना गया।",
		SessionNotFound:  "बातचीत नहीं मिली।",
		EmptyMessage:     "कृपया संदेश लिखें।",
		TooManySessions:  "बहुत सारी बातचीत सक्रिय हैं। कृपया बाद में प्रयास करें।",
		InternalError:    "कुछ गलत हो गया। कृपया पुनः प्रयास करें।",
	},
}

var translators = mustBuild()

func mustBuild() map[Locale]ut.Translator {
	uni := ut.New(en_IN.New(), en_IN.New(), hi_IN.New())

	result := make(map[Locale]ut.Translator, len(copies))
	for locale, entries := range copies {
		trans, ok := uni.GetTranslator(locale.translatorName())
		if !ok {
			panic(fmt.Sprintf("i18n: no translator for %s", locale))
		}

		for key, text := range entries {
			if err := trans.Add(key, text, false); err != nil {
				panic(fmt.Sprintf("i18n: add %s/%s: %v", locale, key, err))
			}
		}

		result[locale] = trans
	}

	return result
}

func translator(l Locale) ut.Translator {
	if trans, ok := translators[l]; ok {
		return trans
	}
	return translators[English]
}

// Text returns the copy for key, substituting positional {N} params.
// Unknown keys fall back to the key itself.
func Text(l Locale, key Key, params ...string) string {
	// T indexes params blindly, so missing ones are padded.
	if want := strings.Count(copies[English][key], "{"); len(params) < want {
		params = append(params, make([]string, want-len(params))...)
	}

	text, err := translator(l).T(key, params...)
	if err != nil {
		return string(key)
	}
	return text
}

// Copy returns the requested keys as a flat map, convenient for JSON payloads.
func Copy(l Locale, keys ...Key) map[Key]string {
	result := make(map[Key]string, len(keys))
	for _, key := range keys {
		result[key] = Text(l, key)
	}
	return result
}

// FormatDate renders t the way the locale writes a long date.
func FormatDate(l Locale, t time.Time) string {
	return translator(l).FmtDateLong(t)
}
