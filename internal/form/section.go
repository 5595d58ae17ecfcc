package form

// Section is one of the three linear wizard steps.
type Section string

const (
	SectionBasic   Section = "basic"
	SectionDetails Section = "details"
	SectionMedia   Section = "media"
)

// Next returns the following section. Media is the last step.
func (s Section) Next() Section {
	switch s {
	case SectionBasic:
		return SectionDetails
	case SectionDetails:
		return SectionMedia
	default:
		return SectionMedia
	}
}

// Prev returns the preceding section. Basic is the first step.
func (s Section) Prev() Section {
	switch s {
	case SectionMedia:
		return SectionDetails
	default:
		return SectionBasic
	}
}

// Progress is the completion percentage shown for the section.
func (s Section) Progress() int {
	switch s {
	case SectionDetails:
		return 66
	case SectionMedia:
		return 100
	default:
		return 33
	}
}

// CanSubmit reports whether the submit action is available.
func (s Section) CanSubmit() bool {
	return s == SectionMedia
}
