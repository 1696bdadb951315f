package domain

import "strconv"

const (
	InternshipIDField         = "ID"
	InternshipEmployerIDField = "EmployerID"
)

type Internship struct {
	ID                 int64    `json:"id"`
	EmployerID         int64    `json:"employer_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	RequiredSkills     []string `json:"required_skills"`
	MinCGPA            float64  `json:"min_cgpa"`
	MinYear            int      `json:"min_year"`
	PositionsAvailable int      `json:"positions_available"`
	Domain             string   `json:"domain"`
	IsActive           bool     `json:"is_active"`
}

// HasCapacity reports whether the posting still has open positions.
func (i *Internship) HasCapacity() bool {
	return i.PositionsAvailable > 0
}

func (i *Internship) GetStringField(name string) string {
	switch name {
	case InternshipIDField:
		return strconv.FormatInt(i.ID, 10)
	case InternshipEmployerIDField:
		return strconv.FormatInt(i.EmployerID, 10)
	default:
		return ""
	}
}

// Internships is an ordered pool of internship snapshots.
type Internships struct {
	Items []*Internship
}

// NewInternships builds a pool from value snapshots. The snapshots are copied.
func NewInternships(items []Internship) *Internships {
	pool := &Internships{Items: make([]*Internship, 0, len(items))}
	for i := range items {
		item := items[i]
		pool.Items = append(pool.Items, &item)
	}
	return pool
}

func (p *Internships) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Internships) FindByID(id int64) *Internship {
	for _, item := range p.Items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (p *Internships) IDs() []int64 {
	ids := make([]int64, 0, len(p.Items))
	for _, item := range p.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// Retain keeps the postings for which keep returns true, preserving order, and
// returns the IDs of the dropped postings.
func (p *Internships) Retain(keep func(*Internship) bool) []int64 {
	var dropped []int64
	kept := p.Items[:0]
	for _, item := range p.Items {
		if keep(item) {
			kept = append(kept, item)
			continue
		}
		dropped = append(dropped, item.ID)
	}
	for i := len(kept); i < len(p.Items); i++ {
		p.Items[i] = nil
	}
	p.Items = kept
	return dropped
}

// Exclude drops postings whose field equals one of targets and returns the
// IDs of the dropped postings.
func (p *Internships) Exclude(field string, targets []string) []int64 {
	if len(targets) == 0 {
		return nil
	}
	lookup := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		lookup[target] = struct{}{}
	}
	return p.Retain(func(item *Internship) bool {
		_, excluded := lookup[item.GetStringField(field)]
		return !excluded
	})
}

// Snapshot returns value copies of the pool items.
func (p *Internships) Snapshot() []Internship {
	out := make([]Internship, 0, p.Len())
	if p == nil {
		return out
	}
	for _, item := range p.Items {
		out = append(out, *item)
	}
	return out
}
