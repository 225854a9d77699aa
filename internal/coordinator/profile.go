package coordinator

import (
	"context"
	"fmt"

	"github.com/onoo-labs/marketing-assistant/internal/project/domain"
)

// ProfileField names an editable product profile field. Name and company
// are fixed.
type ProfileField string

const (
	FieldDescription    ProfileField = "description"
	FieldTargetAudience ProfileField = "targetAudience"
	FieldUSP            ProfileField = "usp"
)

type Profile struct {
	store StateStore
}

func NewProfile(store StateStore) *Profile {
	return &Profile{store: store}
}

// Set replaces one editable profile field.
func (p *Profile) Set(ctx context.Context, field ProfileField, value string) error {
	var apply func(*domain.ProductInfo)
	switch field {
	case FieldDescription:
		apply = func(pi *domain.ProductInfo) { pi.Description = value }
	case FieldTargetAudience:
		apply = func(pi *domain.ProductInfo) { pi.TargetAudience = value }
	case FieldUSP:
		apply = func(pi *domain.ProductInfo) { pi.USP = value }
	default:
		return &InputError{Message: fmt.Sprintf("field %q is not editable", field)}
	}
	p.store.Update(ctx, func(s *domain.ProjectState) { apply(&s.ProductInfo) })
	return nil
}

// SwitchTab changes the active view.
func (p *Profile) SwitchTab(ctx context.Context, tab domain.ActiveTab) error {
	if !tab.Valid() {
		return &InputError{Message: fmt.Sprintf("unknown tab %q", tab)}
	}
	p.store.Update(ctx, func(s *domain.ProjectState) { s.ActiveTab = tab })
	return nil
}
