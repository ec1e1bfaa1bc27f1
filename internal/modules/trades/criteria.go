package trades

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/tradejournal/internal/domain"
)

// DefaultCriterionScore is the score of a newly added criterion
const DefaultCriterionScore = 5

// ErrLastCriterion is returned when removing the only remaining criterion
var ErrLastCriterion = errors.New("cannot remove the last entry criterion")

// Criteria is the ordered, editable list of entry criteria of a form.
// It never becomes empty.
type Criteria struct {
	items []domain.EntryCriterion
}

// NewCriteria seeds the list; with no items it holds one default criterion
func NewCriteria(items ...domain.EntryCriterion) *Criteria {
	c := &Criteria{items: append([]domain.EntryCriterion(nil), items...)}
	if len(c.items) == 0 {
		c.Add()
	}
	return c
}

// Add appends a blank criterion with the default score and returns its index
func (c *Criteria) Add() int {
	c.items = append(c.items, domain.EntryCriterion{Score: DefaultCriterionScore})
	return len(c.items) - 1
}

// Remove deletes the criterion at index
func (c *Criteria) Remove(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("criterion %d out of range", index)
	}
	if len(c.items) == 1 {
		return ErrLastCriterion
	}
	c.items = append(c.items[:index:index], c.items[index+1:]...)
	return nil
}

// Update applies fn to the criterion at index
func (c *Criteria) Update(index int, fn func(*domain.EntryCriterion)) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("criterion %d out of range", index)
	}
	fn(&c.items[index])
	return nil
}

// Set replaces the criterion at index
func (c *Criteria) Set(index int, criterion domain.EntryCriterion) error {
	return c.Update(index, func(cr *domain.EntryCriterion) { *cr = criterion })
}

// Len returns the number of criteria
func (c *Criteria) Len() int {
	return len(c.items)
}

// Items returns a copy of the list
func (c *Criteria) Items() []domain.EntryCriterion {
	return append([]domain.EntryCriterion(nil), c.items...)
}

// Recorded returns the criteria the user actually filled in: blank names
// are dropped and text is trimmed
func (c *Criteria) Recorded() []domain.EntryCriterion {
	out := make([]domain.EntryCriterion, 0, len(c.items))
	for _, cr := range c.items {
		name := strings.TrimSpace(cr.Name)
		if name == "" {
			continue
		}
		out = append(out, domain.EntryCriterion{
			Name:    name,
			Score:   cr.Score,
			Comment: strings.TrimSpace(cr.Comment),
		})
	}
	return out
}
