package catalog

import (
	"strings"
	"unicode"
)

type termMapping struct {
	jp string
	en string
}

// Order matters: the first entry contained in the query wins, so longer
// names that contain shorter ones (ミュウツー, ミュウ) come first.
var jpTerms = []termMapping{
	// starters
	{"フシギダネ", "bulbasaur"},
	{"フシギソウ", "ivysaur"},
	{"フシギバナ", "venusaur"},
	{"ヒトカゲ", "charmander"},
	{"リザードン", "charizard"},
	{"リザード", "charmeleon"},
	{"ゼニガメ", "squirtle"},
	{"カメール", "wartortle"},
	{"カメックス", "blastoise"},

	// popular
	{"ピカチュウ", "pikachu"},
	{"ピカチュー", "pikachu"},
	{"ライチュウ", "raichu"},
	{"イーブイ", "eevee"},
	{"シャワーズ", "vaporeon"},
	{"サンダース", "jolteon"},
	{"ブースター", "flareon"},
	{"エーフィ", "espeon"},
	{"ブラッキー", "umbreon"},
	{"リーフィア", "leafeon"},
	{"グレイシア", "glaceon"},
	{"ニンフィア", "sylveon"},

	// legendary and mythical
	{"ミュウツー", "mewtwo"},
	{"ミュウ", "mew"},
	{"ルギア", "lugia"},
	{"ホウオウ", "ho-oh"},
	{"セレビィ", "celebi"},
	{"カイオーガ", "kyogre"},
	{"グラードン", "groudon"},
	{"レックウザ", "rayquaza"},
	{"ディアルガ", "dialga"},
	{"パルキア", "palkia"},
	{"ギラティナ", "giratina"},
	{"アルセウス", "arceus"},
	{"レシラム", "reshiram"},
	{"ゼクロム", "zekrom"},
	{"キュレム", "kyurem"},
	{"ゼルネアス", "xerneas"},
	{"イベルタル", "yveltal"},
	{"ジガルデ", "zygarde"},

	{"カビゴン", "snorlax"},
	{"ガルーラ", "kangaskhan"},
	{"ラプラス", "lapras"},
	{"カイリュー", "dragonite"},
	{"バンギラス", "tyranitar"},
	{"メタグロス", "metagross"},
	{"ガブリアス", "garchomp"},
	{"ルカリオ", "lucario"},
	{"ゾロアーク", "zoroark"},
	{"ゲンガー", "gengar"},
	{"フーディン", "alakazam"},
	{"カイリキー", "machamp"},
	{"ゴローニャ", "golem"},

	// sets
	{"ポケモンカード151", "151"},
	{"ポケモン151", "151"},
	{"ポケカ151", "151"},
	{"151", "151"},
	{"スカーレット", "scarlet"},
	{"バイオレット", "violet"},
	{"黒炎の支配者", "obsidian"},
	{"クレイバースト", "clay"},
	{"スノーハザード", "snow"},
	{"白熱のアルカナ", "incandescent"},

	// card mechanics
	{"VMAX", "vmax"},
	{"VSTAR", "vstar"},
	{"ex", "ex"},
	{"EX", "ex"},
	{"GX", "gx"},
	{"V", "v"},
}

// TranslateQuery maps a Japanese search term to the English term the catalog
// understands. Queries without Japanese script, and Japanese queries with no
// known term, are only trimmed and lowercased.
func TranslateQuery(query string) string {
	if HasJapanese(query) {
		for _, term := range jpTerms {
			if strings.Contains(query, term.jp) {
				return term.en
			}
		}
	}
	return strings.ToLower(strings.TrimSpace(query))
}

// HasJapanese reports whether s contains hiragana, katakana or kanji.
func HasJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
