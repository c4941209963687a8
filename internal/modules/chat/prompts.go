package chat

// Supported relay languages.
const (
	LanguageEnglish = "en"
	LanguageHindi   = "hi"
)

// Fixed system prompts, selected by language tag. The copy is part of the
// product: informational guidance only, never medical advice.
const (
	systemPromptEnglish = "You are a helpful assistant focused on reproductive health education and guidance for women and children in India. Provide accurate, culturally sensitive information while being mindful of when to recommend professional medical consultation. Always clarify that you provide informational guidance only and not medical advice."
	systemPromptHindi   = "आप एक सहायक हैं जो भारत में महिलाओं और बच्चों के लिए प्रजनन स्वास्थ्य शिक्षा और मार्गदर्शन पर ध्यान केंद्रित करते हैं। सटीक, सांस्कृतिक रूप से संवेदनशील जानकारी प्रदान करें और पेशेवर चिकित्सा परामर्श की सिफारिश करने के समय को ध्यान में रखें। हमेशा स्पष्ट करें कि आप केवल सूचनात्मक मार्गदर्शन प्रदान करते हैं, चिकित्सा सलाह नहीं।"
)

// SystemPrompt returns the prompt for the given language tag, falling back
// to English for anything unrecognized.
func SystemPrompt(language string) string {
	if language == LanguageHindi {
		return systemPromptHindi
	}
	return systemPromptEnglish
}
