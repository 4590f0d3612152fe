package catalog

import "strings"

// CategoryUncategorized is returned when no keyword matches
const CategoryUncategorized = "כללי"

// categoryKeywords maps a category to the keywords that select it.
// Matching is ordered, first-hit-wins, case-insensitive substring
// containment. Entries with compound keywords are listed ahead of
// entries whose keywords are their generic parents (קפה ותה before
// משקאות, so "משקה קפה" lands in the coffee bucket); do not reorder.
type categoryKeywords struct {
	Category string
	Keywords []string
}

var categories = []categoryKeywords{
	{"מוצרי חלב", []string{"חלב", "גבינה", "יוגורט", "שמנת", "קוטג", "לבן", "מעדן", "שוקו"}},
	{"לחם ומאפים", []string{"לחם", "פיתה", "לחמניה", "חלה", "באגט", "טוסט", "מאפה"}},
	{"ביצים", []string{"ביצים", "ביצה"}},
	{"בשר ועוף", []string{"עוף", "בקר", "טלה", "הודו", "נקניק", "שניצל", "המבורגר", "בשר"}},
	{"דגים", []string{"דג", "סלמון", "טונה", "אמנון", "פילה"}},
	{"פירות וירקות", []string{"תפוח", "בננה", "תפוז", "לימון", "עגבני", "מלפפון", "גזר", "בצל"}},
	{"קפה ותה", []string{"קפה", "נס", "אספרסו", "תה צמחים", "תה"}},
	{"משקאות", []string{"מים", "קולה", "ספרייט", "מיץ", "סודה", "בירה", "יין", "משקה"}},
	{"חטיפים", []string{"במבה", "ביסלי", "שוקולד", "עוגיה", "וופל", "סוכריה", "חטיף"}},
	{"ניקיון", []string{"נוזל כלים", "סבון", "שמפו", "מרכך", "אבקה", "אקונומיקה"}},
	{"פסטה ואורז", []string{"פסטה", "ספגטי", "אטריות", "אורז", "קוסקוס"}},
	{"שימורים", []string{"שימורים", "תירס", "אפונה", "חומוס"}},
}

// Classify maps a product name to a category by scanning the ordered
// keyword table. The first keyword contained in the lowercased name
// wins; unmatched names fall back to CategoryUncategorized.
func Classify(name string) string {
	lower := strings.ToLower(name)
	for _, group := range categories {
		for _, keyword := range group.Keywords {
			if strings.Contains(lower, keyword) {
				return group.Category
			}
		}
	}
	return CategoryUncategorized
}
