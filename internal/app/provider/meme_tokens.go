package provider

import "xrpl_control_room/internal/domain/entity"

// builtinMemeTokens is the static community token table. Currency codes are
// the 40-character hex form the ledger reports for codes longer than three.
var builtinMemeTokens = []entity.MemeToken{ //nolint:gochecknoglobals // static lookup table
	{Currency: "50484E4958000000000000000000000000000000", Symbol: "PHNIX", Name: "Phoenix"},
	{Currency: "41524D5900000000000000000000000000000000", Symbol: "ARMY", Name: "XRP Army"},
	{Currency: "46555A5A59000000000000000000000000000000", Symbol: "FUZZY", Name: "Fuzzybear"},
	{Currency: "584F474500000000000000000000000000000000", Symbol: "XOGE", Name: "Xoge"},
	{Currency: "53474C4300000000000000000000000000000000", Symbol: "SGLC", Name: "Sigil Coin"},
	{Currency: "5850554E4B000000000000000000000000000000", Symbol: "XPUNK", Name: "XPunks"},
	{Currency: "4245415200000000000000000000000000000000", Symbol: "BEAR", Name: "Bear"},
	{Currency: "5852504800000000000000000000000000000000", Symbol: "XRPH", Name: "XRP Healthcare"},
	{Currency: "54415A5A00000000000000000000000000000000", Symbol: "TAZZ", Name: "Tazz"},
	{Currency: "4F42455900000000000000000000000000000000", Symbol: "OBEY", Name: "Obey"},
	{Currency: "44524F5000000000000000000000000000000000", Symbol: "DROP", Name: "Drop"},
	{Currency: "42414E414E410000000000000000000000000000", Symbol: "BANANA", Name: "Banana"},
}

// BuiltinMemeTokens returns a copy of the static table.
func BuiltinMemeTokens() []entity.MemeToken {
	return append([]entity.MemeToken(nil), builtinMemeTokens...)
}
