package hirez

import (
	"fmt"
	"strconv"
	"strings"
)

// Endpoint is the base URL of one of the vendor's statistics APIs.
type Endpoint string

const (
	EndpointSmitePC    Endpoint = "https://api.smitegame.com/smiteapi.svc"
	EndpointSmiteXbox  Endpoint = "https://api.xbox.smitegame.com/smiteapi.svc"
	EndpointSmitePS4   Endpoint = "https://api.ps4.smitegame.com/smiteapi.svc"
	EndpointPaladinsPC Endpoint = "https://api.paladins.com/paladinsapi.svc"
)

var endpointNames = map[string]Endpoint{
	"smitepc":    EndpointSmitePC,
	"smitexbox":  EndpointSmiteXbox,
	"smiteps4":   EndpointSmitePS4,
	"paladinspc": EndpointPaladinsPC,
}

// ParseEndpoint accepts a short name (smitepc, smitexbox, smiteps4,
// paladinspc) or a full base URL.
func ParseEndpoint(s string) (Endpoint, error) {
	if e, ok := endpointNames[strings.ToLower(s)]; ok {
		return e, nil
	}
	if strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://") {
		return Endpoint(strings.TrimRight(s, "/")), nil
	}
	return "", fmt.Errorf("unknown endpoint %q", s)
}

func (e Endpoint) String() string {
	return string(e)
}

// Language is a vendor language code, used by the content queries.
type Language int

const (
	LanguageEnglish      Language = 1
	LanguageGerman       Language = 2
	LanguageFrench       Language = 3
	LanguageChinese      Language = 5
	LanguageSpanish      Language = 7
	LanguageSpanishLatAm Language = 9
	LanguagePortuguese   Language = 10
	LanguageRussian      Language = 11
	LanguagePolish       Language = 12
	LanguageTurkish      Language = 13
)

var languageNames = map[Language]string{
	LanguageEnglish:      "english",
	LanguageGerman:       "german",
	LanguageFrench:       "french",
	LanguageChinese:      "chinese",
	LanguageSpanish:      "spanish",
	LanguageSpanishLatAm: "spanish_latam",
	LanguagePortuguese:   "portuguese",
	LanguageRussian:      "russian",
	LanguagePolish:       "polish",
	LanguageTurkish:      "turkish",
}

func ParseLanguage(s string) (Language, error) {
	for code, name := range languageNames {
		if strings.EqualFold(s, name) {
			return code, nil
		}
	}
	return 0, fmt.Errorf("unknown language %q", s)
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("language(%d)", int(l))
}

// Code is the value sent in request paths.
func (l Language) Code() string {
	return strconv.Itoa(int(l))
}
