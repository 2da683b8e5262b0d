package models

import (
	"time"
)

// SpecTree maps a section heading to its label/value rows.
type SpecTree map[string]map[string]string

// Lookup returns the value stored at section/label, if any.
func (t SpecTree) Lookup(section, label string) Optional[string] {
	rows, ok := t[section]
	if !ok {
		return None[string]()
	}
	value, ok := rows[label]
	if !ok {
		return None[string]()
	}
	return Some(value)
}

// Merge copies rows into section, overwriting labels that already exist.
func (t SpecTree) Merge(section string, rows map[string]string) {
	existing, ok := t[section]
	if !ok {
		existing = make(map[string]string, len(rows))
		t[section] = existing
	}
	for label, value := range rows {
		existing[label] = value
	}
}

// SpecSummary is the fixed projection of a SpecTree.
type SpecSummary struct {
	Manufacturer     Optional[string] `json:"manufacturer"`
	Memory           Optional[string] `json:"memory"`
	Color            Optional[string] `json:"color"`
	ScreenDiagonal   Optional[string] `json:"screen_diagonal"`
	ScreenResolution Optional[string] `json:"screen_resolution"`
}

type ProductRecord struct {
	Title          Optional[string]  `json:"title"`
	RegularPrice   Optional[float64] `json:"regular_price"`
	SalePrice      Optional[float64] `json:"sale_price"`
	Photos         []string          `json:"photos"`
	ReviewCount    Optional[int]     `json:"review_count"`
	Code           Optional[string]  `json:"code"`
	Specifications SpecTree          `json:"specifications"`
	SpecSummary
	SourceURL string    `json:"source_url,omitempty"`
	ScrapedAt time.Time `json:"scraped_at"`
}

func NewProductRecord() *ProductRecord {
	return &ProductRecord{
		Photos:         make([]string, 0),
		Specifications: make(SpecTree),
		ScrapedAt:      time.Now(),
	}
}

// Missing lists the names of fields that could not be extracted.
func (p *ProductRecord) Missing() []string {
	var missing []string

	if !p.Title.IsPresent() {
		missing = append(missing, "title")
	}
	if !p.RegularPrice.IsPresent() {
		missing = append(missing, "regular_price")
	}
	if len(p.Photos) == 0 {
		missing = append(missing, "photos")
	}
	if !p.ReviewCount.IsPresent() {
		missing = append(missing, "review_count")
	}
	if !p.Code.IsPresent() {
		missing = append(missing, "code")
	}
	if len(p.Specifications) == 0 {
		missing = append(missing, "specifications")
	}

	return missing
}
