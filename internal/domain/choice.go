package domain

// Choice is one option of a form dropdown.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}
