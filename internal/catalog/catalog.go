// Package catalog holds the professional role catalog shipped with the
// binary.
package catalog

import (
	_ "embed"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ZertGraf/cresp/internal/domain"
)

//go:embed roles.yaml
var rolesYAML []byte

// roleNamespace derives stable role IDs from slugs.
var roleNamespace = uuid.MustParse("6f1c3c0e-4f7a-4d8e-9a43-6f0e8a1b5c21")

type file struct {
	Roles []domain.ProfessionalRole `yaml:"roles"`
}

// Roles parses the embedded catalog.
func Roles() ([]domain.ProfessionalRole, error) {
	return Parse(rolesYAML)
}

// Parse decodes a catalog document and assigns every role its ID.
func Parse(data []byte) ([]domain.ProfessionalRole, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode role catalog: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("role catalog is empty")
	}

	seen := make(map[string]bool, len(f.Roles))
	for i := range f.Roles {
		role := &f.Roles[i]
		err := validation.ValidateStruct(role,
			validation.Field(&role.Slug, validation.Required, validation.Length(1, 64)),
			validation.Field(&role.Name, validation.Required, validation.Length(1, 80)),
			validation.Field(&role.Category, validation.Required, validation.Length(1, 40)),
		)
		if err != nil {
			return nil, fmt.Errorf("role %d: %w", i, err)
		}
		if seen[role.Slug] {
			return nil, fmt.Errorf("duplicate role slug %q", role.Slug)
		}
		seen[role.Slug] = true
		role.RoleID = RoleID(role.Slug)
	}

	return f.Roles, nil
}

// RoleID returns the stable ID of a role slug.
func RoleID(slug string) string {
	return uuid.NewSHA1(roleNamespace, []byte(slug)).String()
}
