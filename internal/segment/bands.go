package segment

// Band is the rendering group of every segment sharing one difficulty tier.
// Elevations has one entry per sample of the series; samples outside the
// band's segments are nil.
type Band struct {
	Difficulty  Tier       `json:"difficulty"`
	Label       string     `json:"label"`
	Color       string     `json:"color"`
	BorderColor string     `json:"border_color"`
	Segments    []int      `json:"segments"`
	Elevations  []*float64 `json:"elevations"`
}

// GroupByDifficulty collapses segments into one masked band per tier present,
// ordered from Easy to VeryHard. Each segment also claims the sample just
// before its start so neighbouring bands meet without a gap.
func GroupByDifficulty(segments []Segment, series Series) []Band {
	n := series.Len()
	if n == 0 || len(segments) == 0 {
		return nil
	}

	var members [len(tierStyles)][]bool
	var indices [len(tierStyles)][]int

	for _, s := range segments {
		tier := s.Difficulty
		if tier < Easy || tier > VeryHard {
			tier = Easy
		}
		if members[tier] == nil {
			members[tier] = make([]bool, n)
		}
		indices[tier] = append(indices[tier], s.Index)

		from := max(0, s.StartIndex-1)
		to := min(n-1, s.EndIndex)
		for j := from; j <= to; j++ {
			members[tier][j] = true
		}
	}

	bands := make([]Band, 0, len(Tiers))
	for _, tier := range Tiers {
		mask := members[tier]
		if mask == nil {
			continue
		}

		elevations := make([]*float64, n)
		for j, in := range mask {
			if in {
				e := series.ElevationsM[j]
				elevations[j] = &e
			}
		}

		bands = append(bands, Band{
			Difficulty:  tier,
			Label:       tier.String() + " Segments",
			Color:       tier.Color(),
			BorderColor: tier.BorderColor(),
			Segments:    indices[tier],
			Elevations:  elevations,
		})
	}

	return bands
}
