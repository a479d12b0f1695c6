package content

import "slices"

// Set groups other content by tag.
type Set struct {
	*Content
	childTags []string
	featured  bool
}

func newSet(p Properties, c *Content) (Model, error) {
	s := &Set{Content: c}
	var err error
	if s.childTags, err = p.Strings("childTags"); err != nil {
		return nil, err
	}
	if s.featured, err = p.Bool("featured"); err != nil {
		return nil, err
	}
	return s, nil
}

// ChildTags returns a copy of the tags whose content belongs to the set.
func (s *Set) ChildTags() []string { return slices.Clone(s.childTags) }

// Featured is a ranking hint for presentation.
func (s *Set) Featured() bool { return s.featured }
