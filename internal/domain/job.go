package domain

import "time"

// JobAd is one posting as returned by the job-search API. ID is the source's
// stable identifier and the primary key in the store.
type JobAd struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Company             string    `json:"company"`
	Description         string    `json:"description"`
	URL                 string    `json:"url"`
	OccupationGroup     string    `json:"occupationGroup"`
	PublishedAt         time.Time `json:"publishedAt"`
	EmploymentType      string    `json:"employmentType,omitempty"`
	Municipality        string    `json:"municipality,omitempty"`
	Region              string    `json:"region,omitempty"`
	ApplicationDeadline string    `json:"applicationDeadline,omitempty"`
	QuerySource         string    `json:"querySource,omitempty"`
}

// Text is the searchable blob used for keyword matching and embeddings.
func (a JobAd) Text() string {
	return a.Title + "\n" + a.Company + "\n" + a.Description
}

// DedupeByID keeps one ad per id. Later occurrences replace earlier ones but
// the first position and the first QuerySource are kept.
func DedupeByID(ads []JobAd) []JobAd {
	idx := make(map[string]int, len(ads))
	out := make([]JobAd, 0, len(ads))
	for _, ad := range ads {
		if ad.ID == "" {
			continue
		}
		if i, ok := idx[ad.ID]; ok {
			src := out[i].QuerySource
			out[i] = ad
			if src != "" {
				out[i].QuerySource = src
			}
			continue
		}
		idx[ad.ID] = len(out)
		out = append(out, ad)
	}
	return out
}
