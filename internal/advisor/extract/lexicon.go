package extract

// nationalityEntry maps a language/demonym keyword to the canonical
// nationality recorded on the profile.
type nationalityEntry struct {
	term        string
	nationality string
}

// nationalityLexicon is scanned in order; the first keyword contained in the
// lowercased message wins. Longer terms come before their substrings.
var nationalityLexicon = []nationalityEntry{
	{"ukrainian", "Ukrainian"},
	{"american", "American"},
	{"indian", "Indian"},
	{"british", "British"},
	{"french", "French"},
	{"german", "German"},
	{"chinese", "Chinese"},
	{"nigerian", "Nigerian"},
	{"brazilian", "Brazilian"},
	{"canadian", "Canadian"},
	{"australian", "Australian"},
	{"pakistani", "Pakistani"},
	{"polish", "Polish"},
	{"spanish", "Spanish"},
	{"italian", "Italian"},
	{"japanese", "Japanese"},
	{"filipino", "Filipino"},
	{"mexican", "Mexican"},
	{"turkish", "Turkish"},
	{"egyptian", "Egyptian"},
}

// intentEntry maps trigger keywords to a canonical visa intent.
type intentEntry struct {
	terms  []string
	intent string
}

var intentLexicon = []intentEntry{
	{[]string{"work", "job", "employment"}, "Work visa"},
	{[]string{"study", "university", "student"}, "Student visa"},
	{[]string{"visit", "travel", "tourist"}, "Tourist visa"},
	{[]string{"family", "spouse", "marriage"}, "Family visa"},
	{[]string{"business", "investor"}, "Business visa"},
}
