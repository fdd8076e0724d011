package extract

import (
	"sort"

	"github.com/sells-group/prospect-cli/internal/model"
)

var sourceRank = map[model.EmailSource]int{
	model.SourceFinder:   0,
	model.SourceOriginal: 1,
	model.SourcePattern:  2,
}

// Rank orders contacts by email confidence: verified before unverified,
// then higher score, then finder over original over pattern. Contacts
// without an address sort last. The sort is stable.
func Rank(contacts []model.Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := contacts[i].Email, contacts[j].Email
		if (a == nil) != (b == nil) {
			return a != nil
		}
		if a == nil {
			return false
		}
		if a.Verified != b.Verified {
			return a.Verified
		}
		sa, sb := scoreOf(a), scoreOf(b)
		if sa != sb {
			return sa > sb
		}
		return sourceRank[a.Source] < sourceRank[b.Source]
	})
}

func scoreOf(e *model.ResolvedEmail) int {
	if e.Score == nil {
		return -1
	}
	return *e.Score
}
