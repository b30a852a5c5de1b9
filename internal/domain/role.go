package domain

type ProfessionalRole struct {
	RoleID   string `json:"id" yaml:"-"`
	Slug     string `json:"slug" yaml:"slug"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
}
