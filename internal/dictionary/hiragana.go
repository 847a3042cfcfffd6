package dictionary

import "kana-quiz-service/internal/domain"

var hiragana = map[domain.Tier][]Entry{
	domain.Tier1: {
		{"あ", "a"}, {"い", "i"}, {"う", "u"}, {"え", "e"}, {"お", "o"}, {"か", "ka"},
		{"き", "ki"}, {"く", "ku"}, {"け", "ke"}, {"こ", "ko"}, {"さ", "sa"}, {"し", "shi"},
	},
	domain.Tier2: {
		{"す", "su"}, {"せ", "se"}, {"そ", "so"}, {"た", "ta"}, {"ち", "chi"}, {"つ", "tsu"},
		{"て", "te"}, {"と", "to"}, {"な", "na"}, {"に", "ni"}, {"ぬ", "nu"}, {"ね", "ne"},
	},
	domain.Tier3: {
		{"の", "no"}, {"は", "ha"}, {"ひ", "hi"}, {"ふ", "fu"}, {"へ", "he"}, {"ほ", "ho"},
		{"ま", "ma"}, {"み", "mi"}, {"む", "mu"}, {"め", "me"}, {"も", "mo"}, {"や", "ya"},
	},
	domain.Tier4: {
		{"ゆ", "yu"}, {"よ", "yo"}, {"ら", "ra"}, {"り", "ri"}, {"る", "ru"}, {"れ", "re"},
		{"ろ", "ro"}, {"わ", "wa"}, {"を", "wo"}, {"ん", "n"}, {"が", "ga"}, {"ぎ", "gi"},
	},
}

// Hiragana returns the builtin four-tier hiragana table.
func Hiragana() *Dictionary {
	d, err := New(hiragana)
	if err != nil {
		panic(err)
	}
	return d
}
