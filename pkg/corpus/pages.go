package corpus

// DefaultPageScale expresses counts per 100 pages.
const DefaultPageScale = 100.0

// NormalizedRow holds the counts of one row divided by its page count and
// multiplied by the scale. Every value is nil when the page count is absent
// or zero.
type NormalizedRow struct {
	DocumentID   string              `json:"document_id"`
	Words        *float64            `json:"words"`
	Phrases      map[string]*float64 `json:"phrases"`
	Speech       map[string]*float64 `json:"speech"`
	DialogueTags map[string]*float64 `json:"dialogue_tags"`
}

// PerPages normalizes every row of s by page count. scale <= 0 falls back to
// DefaultPageScale. s is not modified.
func PerPages(s *Summary, scale float64) []NormalizedRow {
	if scale <= 0 {
		scale = DefaultPageScale
	}

	out := make([]NormalizedRow, 0, len(s.Rows))
	for _, row := range s.Rows {
		pages := 0
		if row.PageCount != nil {
			pages = *row.PageCount
		}
		per := func(n int) *float64 {
			if pages <= 0 {
				return nil
			}
			v := float64(n) / float64(pages) * scale
			return &v
		}

		out = append(out, NormalizedRow{
			DocumentID:   row.DocumentID,
			Words:        per(row.WordCount),
			Phrases:      perKey(row.Phrases, per),
			Speech:       perKey(row.Speech, per),
			DialogueTags: perKey(row.DialogueTags, per),
		})
	}
	return out
}

func perKey[M ~map[string]int](counts M, per func(int) *float64) map[string]*float64 {
	out := make(map[string]*float64, len(counts))
	for k, n := range counts {
		out[k] = per(n)
	}
	return out
}
