package rules

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Best-effort heuristic filter. Novel obfuscations will slip through;
// the bigger operational risk is blocking legitimate text, so the
// blocklist and skeleton patterns stay deliberately short.

var blocklist = []string{
	"시발",
	"씨발",
	"시팔",
	"씨팔",
	"병신",
	"븅신",
	"지랄",
	"새끼",
	"개새",
	"존나",
	"느금",
	"썅",
	"좆",
	"fuck",
	"shit",
	"bitch",
	"asshole",
}

// chosungPatterns are consonant skeletons of common obfuscated spellings
// (e.g. "ㅅㅂ" for 시발).
var chosungPatterns = []string{
	"ㅅㅂㄹㅁ",
	"ㅅㅂ",
	"ㅆㅂ",
	"ㅂㅅ",
	"ㅈㄹ",
	"ㄲㅈ",
	"ㅈㄴ",
}

const (
	hangulBase = 0xAC00
	hangulEnd  = 0xD7A3
	// A Hangul syllable block encodes 21 vowels x 28 finals per leading
	// consonant.
	perChosung = 21 * 28
)

var chosungTable = []rune("ㄱㄲㄴㄷㄸㄹㅁㅂㅃㅅㅆㅇㅈㅉㅊㅋㅌㅍㅎ")

// ContainsProfanity normalizes the text and applies three checks in order:
// direct substring match, chosung-skeleton match, and skeleton match after
// collapsing runs of 3+ repeated characters.
func ContainsProfanity(text string) bool {
	normalized := normalizeText(text)
	if normalized == "" {
		return false
	}

	for _, word := range blocklist {
		if strings.Contains(normalized, word) {
			return true
		}
	}

	skeleton := chosungSkeleton(normalized)
	if matchesChosungPattern(skeleton) {
		return true
	}

	collapsed := collapseRuns(normalized, 3)
	if collapsed != normalized && matchesChosungPattern(chosungSkeleton(collapsed)) {
		return true
	}

	return false
}

// normalizeText lowercases and strips whitespace, punctuation, symbols and
// digits, defeating "시1발"-style padding.
func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// chosungSkeleton keeps only the leading consonant of each Hangul syllable
// plus bare consonant jamo; everything else is dropped.
func chosungSkeleton(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= hangulBase && r <= hangulEnd:
			b.WriteRune(chosungTable[(r-hangulBase)/perChosung])
		case r >= 'ㄱ' && r <= 'ㅎ':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func matchesChosungPattern(skeleton string) bool {
	if skeleton == "" {
		return false
	}
	for _, pattern := range chosungPatterns {
		if strings.Contains(skeleton, pattern) {
			return true
		}
	}
	return false
}

// collapseRuns shrinks any run of minRun or more identical runes to one.
func collapseRuns(text string, minRun int) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= minRun {
			b.WriteRune(runes[i])
		} else {
			for k := i; k < j; k++ {
				b.WriteRune(runes[k])
			}
		}
		i = j
	}

	return b.String()
}

var (
	ErrTextTooShort      = errors.New("text is too short")
	ErrTextTooLong       = errors.New("text is too long")
	ErrForbiddenChars    = errors.New("text contains forbidden characters")
	ErrProfanityDetected = errors.New("text contains forbidden words")
)

const (
	NicknameMinLen = 2
	NicknameMaxLen = 20
	TitleMinLen    = 2
	TitleMaxLen    = 100
)

// ValidateNickname enforces length, charset and the profanity filter.
func ValidateNickname(nickname string) error {
	trimmed := strings.TrimSpace(nickname)
	if err := checkLength(trimmed, NicknameMinLen, NicknameMaxLen); err != nil {
		return err
	}
	for _, r := range trimmed {
		if !nicknameRuneAllowed(r) {
			return ErrForbiddenChars
		}
	}
	if ContainsProfanity(trimmed) {
		return ErrProfanityDetected
	}
	return nil
}

func nicknameRuneAllowed(r rune) bool {
	switch {
	case r >= '가' && r <= '힣':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '-', r == ' ':
		return true
	}
	return false
}

func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if err := checkLength(trimmed, TitleMinLen, TitleMaxLen); err != nil {
		return err
	}
	if ContainsProfanity(trimmed) {
		return ErrProfanityDetected
	}
	return nil
}

// ValidateContent applies caller-supplied length bounds plus the filter.
func ValidateContent(content string, minLen, maxLen int) error {
	trimmed := strings.TrimSpace(content)
	if err := checkLength(trimmed, minLen, maxLen); err != nil {
		return err
	}
	if ContainsProfanity(trimmed) {
		return ErrProfanityDetected
	}
	return nil
}

func checkLength(text string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(text)
	if n < minLen {
		return ErrTextTooShort
	}
	if maxLen > 0 && n > maxLen {
		return ErrTextTooLong
	}
	return nil
}
