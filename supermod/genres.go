package supermod

// metalGenres are genre names which, when given on their own, refer to a
// metal subgenre and get the " Metal" suffix appended during normalization.
// Input that already spells out "X Metal" is left alone.
var metalGenres = map[string]struct{}{
	"Alternative":  {},
	"Avant-Garde":  {},
	"Black":        {},
	"Death":        {},
	"Doom":         {},
	"Extreme":      {},
	"Folk":         {},
	"Funk":         {},
	"Glam":         {},
	"Gothic":       {},
	"Groove":       {},
	"Heavy":        {},
	"Industrial":   {},
	"Melodic":      {},
	"Neoclassical": {},
	"Nu":           {},
	"Pagan":        {},
	"Post":         {},
	"Power":        {},
	"Progressive":  {},
	"Sludge":       {},
	"Speed":        {},
	"Symphonic":    {},
	"Thrash":       {},
	"Viking":       {},
}

// genreCategories maps shorthand category names that appear in the
// spreadsheet to the canonical genre category used for the per-genre
// newsletter channels. Unknown values pass through verbatim.
var genreCategories = map[string]string{
	"Experimental":  "Experimental Rock",
	"Hard":          "Hard Rock",
	"Soft":          "Soft Rock",
	"Hardcore":      "Core",
	"Metalcore":     "Core",
	"Post-Hardcore": "Core",
	"Extreme":       "Extreme Metal",
	"Classical":     "Classical / Jazz / Blues",
	"Jazz":          "Classical / Jazz / Blues",
	"Blues":         "Classical / Jazz / Blues",
	"Country":       "Country / Folk",
	"Folk":          "Country / Folk",
	"Pop":           "Pop / Hip Hop",
	"Hip Hop":       "Pop / Hip Hop",
}

// discordCountryFlags maps country names used in the newsletter spreadsheet
// to discord flag emoji shortcodes. A country missing from this map causes
// the release to render in its error form.
var discordCountryFlags = map[string]string{
	"Argentina":      ":flag_ar:",
	"Australia":      ":flag_au:",
	"Austria":        ":flag_at:",
	"Belgium":        ":flag_be:",
	"Brazil":         ":flag_br:",
	"Canada":         ":flag_ca:",
	"Chile":          ":flag_cl:",
	"China":          ":flag_cn:",
	"Colombia":       ":flag_co:",
	"Czech Republic": ":flag_cz:",
	"Denmark":        ":flag_dk:",
	"England":        ":england:",
	"Estonia":        ":flag_ee:",
	"Faroe Islands":  ":flag_fo:",
	"Finland":        ":flag_fi:",
	"France":         ":flag_fr:",
	"Germany":        ":flag_de:",
	"Greece":         ":flag_gr:",
	"Hungary":        ":flag_hu:",
	"Iceland":        ":flag_is:",
	"India":          ":flag_in:",
	"Indonesia":      ":flag_id:",
	"International":  ":united_nations:",
	"Ireland":        ":flag_ie:",
	"Israel":         ":flag_il:",
	"Italy":          ":flag_it:",
	"Japan":          ":flag_jp:",
	"Mexico":         ":flag_mx:",
	"Netherlands":    ":flag_nl:",
	"New Zealand":    ":flag_nz:",
	"Norway":         ":flag_no:",
	"Poland":         ":flag_pl:",
	"Portugal":       ":flag_pt:",
	"Romania":        ":flag_ro:",
	"Russia":         ":flag_ru:",
	"Scotland":       ":scotland:",
	"Serbia":         ":flag_rs:",
	"Slovakia":       ":flag_sk:",
	"Slovenia":       ":flag_si:",
	"South Africa":   ":flag_za:",
	"South Korea":    ":flag_kr:",
	"Spain":          ":flag_es:",
	"Sweden":         ":flag_se:",
	"Switzerland":    ":flag_ch:",
	"Taiwan":         ":flag_tw:",
	"Turkey":         ":flag_tr:",
	"UK":             ":flag_gb:",
	"Ukraine":        ":flag_ua:",
	"USA":            ":flag_us:",
	"Wales":          ":wales:",
}
