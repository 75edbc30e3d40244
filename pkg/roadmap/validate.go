package roadmap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// inputValidate is the shared validator for create and patch inputs.
// Field names in messages follow the JSON tags.
var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New()
	inputValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// RoadmapInput carries the fields of a new Roadmap.
type RoadmapInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Visibility  Visibility `json:"visibility" validate:"omitempty,oneof=public private"`
	Status      Status     `json:"status" validate:"omitempty,oneof=draft published archived"`
}

// LevelInput carries the fields of a new Level.
type LevelInput struct {
	Title              string `json:"title" validate:"required"`
	UnlockRequirements string `json:"unlockRequirements"`
}

// MilestoneInput carries the fields of a new Milestone.
type MilestoneInput struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	DueDate     *string `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Reward      *string `json:"reward,omitempty"`
}

// ChallengeInput carries the fields of a new Challenge.
type ChallengeInput struct {
	Title       string        `json:"title" validate:"required"`
	Description string        `json:"description" validate:"required"`
	Type        ChallengeType `json:"type" validate:"omitempty,oneof=quiz project reading"`
	Resources   []string      `json:"resources"`
}

// Normalize trims text fields and fills defaults.
func (in *RoadmapInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Icon = strings.TrimSpace(in.Icon)
	if in.Visibility == "" {
		in.Visibility = VisibilityPrivate
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
}

// Normalize trims text fields.
func (in *LevelInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.UnlockRequirements = strings.TrimSpace(in.UnlockRequirements)
}

// Normalize trims text fields and drops empty optional values.
func (in *MilestoneInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.DueDate = trimOptional(in.DueDate)
	in.Reward = trimOptional(in.Reward)
}

// Normalize trims text fields, drops blank resources and defaults the type.
func (in *ChallengeInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Type == "" {
		in.Type = ChallengeQuiz
	}
	in.Resources = compactResources(in.Resources)
}

// Validate normalizes and checks any of the input types above. It returns a
// KindValidation error naming every offending field.
func Validate(op string, input any) error {
	if n, ok := input.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	err := inputValidate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationError(op, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return ValidationError(op, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as YYYY-MM-DD", fe.Field())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func compactResources(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Patch is a partial update. Nil fields are left untouched; fields that do
// not exist on the target kind are ignored.
type Patch struct {
	Title              *string        `json:"title,omitempty"`
	Description        *string        `json:"description,omitempty"`
	Icon               *string        `json:"icon,omitempty"`
	Visibility         *Visibility    `json:"visibility,omitempty"`
	Status             *Status        `json:"status,omitempty"`
	UnlockRequirements *string        `json:"unlockRequirements,omitempty"`
	DueDate            *string        `json:"dueDate,omitempty"`
	Reward             *string        `json:"reward,omitempty"`
	Type               *ChallengeType `json:"type,omitempty"`
	Resources          []string       `json:"resources,omitempty"`
}

// Empty reports whether the patch carries no field at all.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Icon == nil &&
		p.Visibility == nil && p.Status == nil && p.UnlockRequirements == nil &&
		p.DueDate == nil && p.Reward == nil && p.Type == nil && p.Resources == nil
}

// AppliesTo reports whether p sets at least one field that exists on kind.
func (p Patch) AppliesTo(kind Kind) bool {
	switch kind {
	case KindRoadmap:
		return p.Title != nil || p.Description != nil || p.Icon != nil || p.Visibility != nil || p.Status != nil
	case KindLevel:
		return p.Title != nil || p.UnlockRequirements != nil
	case KindMilestone:
		return p.Title != nil || p.Description != nil || p.DueDate != nil || p.Reward != nil
	case KindChallenge:
		return p.Title != nil || p.Description != nil || p.Type != nil || p.Resources != nil
	}
	return false
}

// Normalize trims every text field the patch carries.
func (p *Patch) Normalize() {
	for _, s := range []*string{p.Title, p.Description, p.Icon, p.UnlockRequirements, p.DueDate, p.Reward} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if p.Resources != nil {
		p.Resources = compactResources(p.Resources)
	}
}

// ApplyToRoadmap copies the roadmap-level fields of p onto r.
func (p Patch) ApplyToRoadmap(r *Roadmap) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Icon != nil {
		r.Icon = *p.Icon
	}
	if p.Visibility != nil {
		r.Visibility = *p.Visibility
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
}

// ApplyToLevel copies the level fields of p onto l.
func (p Patch) ApplyToLevel(l *Level) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.UnlockRequirements != nil {
		l.UnlockRequirements = *p.UnlockRequirements
	}
}

// ApplyToMilestone copies the milestone fields of p onto m.
func (p Patch) ApplyToMilestone(m *Milestone) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	// An empty string clears the optional field.
	if p.DueDate != nil {
		m.DueDate = trimOptional(p.DueDate)
	}
	if p.Reward != nil {
		m.Reward = trimOptional(p.Reward)
	}
}

// ApplyToChallenge copies the challenge fields of p onto c.
func (p Patch) ApplyToChallenge(c *Challenge) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Resources != nil {
		c.Resources = append([]string(nil), p.Resources...)
	}
}

// InputOf projects a node back onto its create-input type so a patched node
// can be re-validated with the same rules as a new one.
func InputOf(node any) any {
	switch n := node.(type) {
	case *Roadmap:
		return &RoadmapInput{Title: n.Title, Description: n.Description, Icon: n.Icon, Visibility: n.Visibility, Status: n.Status}
	case *Level:
		return &LevelInput{Title: n.Title, UnlockRequirements: n.UnlockRequirements}
	case *Milestone:
		return &MilestoneInput{Title: n.Title, Description: n.Description, DueDate: n.DueDate, Reward: n.Reward}
	case *Challenge:
		return &ChallengeInput{Title: n.Title, Description: n.Description, Type: n.Type, Resources: n.Resources}
	}
	return nil
}
