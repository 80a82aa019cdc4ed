package s2

// ExternalIDs carries the external identifiers the Graph API reports
// for a paper. Only DOI is used for matching; the rest are kept for
// completeness.
type ExternalIDs struct {
	DOI    string `json:"DOI,omitempty"`
	ArXiv  string `json:"ArXiv,omitempty"`
	PubMed string `json:"PubMed,omitempty"`
}

// PaperRef is the compact paper record nested inside references and
// citations lists.
type PaperRef struct {
	PaperID     string       `json:"paperId"`
	Title       string       `json:"title"`
	Year        *int         `json:"year,omitempty"`
	ExternalIDs *ExternalIDs `json:"externalIds,omitempty"`
}

// Paper is a Graph API paper record with the fields the pipeline asks
// for.
type Paper struct {
	PaperID       string       `json:"paperId"`
	Title         string       `json:"title"`
	Abstract      string       `json:"abstract,omitempty"`
	Year          *int         `json:"year,omitempty"`
	Venue         string       `json:"venue,omitempty"`
	CitationCount *int         `json:"citationCount,omitempty"`
	ExternalIDs   *ExternalIDs `json:"externalIds,omitempty"`
	References    []PaperRef   `json:"references,omitempty"`
	Citations     []PaperRef   `json:"citations,omitempty"`
}

// DOI returns the paper's normalized DOI, or "" when absent.
func (p *Paper) DOI() string {
	if p.ExternalIDs == nil {
		return ""
	}
	return NormalizeDOI(p.ExternalIDs.DOI)
}

// DOI returns the reference's normalized DOI, or "" when absent.
func (r *PaperRef) DOI() string {
	if r.ExternalIDs == nil {
		return ""
	}
	return NormalizeDOI(r.ExternalIDs.DOI)
}

// searchResponse is the envelope of /paper/search.
type searchResponse struct {
	Total int     `json:"total"`
	Data  []Paper `json:"data"`
}
