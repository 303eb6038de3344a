package prize

import "golang.org/x/text/language"

// The storefront is trilingual; prize labels follow the locales the
// site ships. Unknown prize types fall back to the catalog label.

var supported = []language.Tag{
	language.English, // en (default)
	language.Chinese, // zh
	language.Spanish, // es
}

var matcher = language.NewMatcher(supported)

// labelTable maps prize type -> matched tag index -> display label.
var labelTable = map[string][3]string{
	TypeFreeDrink:  {"Free Drink", "免费饮品", "Bebida Gratis"},
	TypeDiscount20: {"20% Off", "8折优惠", "20% de Descuento"},
	TypeDiscount15: {"15% Off", "85折优惠", "15% de Descuento"},
	TypeDiscount10: {"10% Off", "9折优惠", "10% de Descuento"},
	TypeDiscount5:  {"5% Off", "95折优惠", "5% de Descuento"},
	TypeBetterLuck: {"Better Luck", "再接再厉", "Mejor Suerte"},
}

// LocalizedLabel returns the display label for p in the best supported
// language for the given Accept-Language header value. An empty or
// unparsable header yields the English label.
func LocalizedLabel(p Prize, acceptLanguage string) string {
	return LocalizedLabelType(p.Type, p.Label, acceptLanguage)
}

// LocalizedLabelType localizes by prize type alone, for records that only
// carry the denormalized type string. fallback is returned when the type is
// not in the label table.
func LocalizedLabelType(prizeType, fallback, acceptLanguage string) string {
	labels, ok := labelTable[prizeType]
	if !ok {
		return fallback
	}
	if acceptLanguage == "" {
		return labels[0]
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return labels[0]
	}
	_, idx, _ := matcher.Match(tags...)
	return labels[idx]
}
